package poi

import "math"

const earthRadiusM = 6371000.0

// HaversineM returns the great-circle distance between two WGS84 points in
// meters. Accurate to well under 1% at the sub-kilometer scales surveys use.
func HaversineM(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Asin(math.Min(1, math.Sqrt(a)))
	return earthRadiusM * c
}

// BoundingBox returns a latitude/longitude window guaranteed to contain the
// circle of radiusM meters around the center. Used as an indexed prefilter
// before the exact haversine cut.
func BoundingBox(lat, lng, radiusM float64) (latMin, latMax, lngMin, lngMax float64) {
	// 1 degree of latitude is ~111km; longitude shrinks by cos(lat).
	dLat := radiusM / 111000.0
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 1e-6 {
		cosLat = 1e-6
	}
	dLng := radiusM / (111000.0 * cosLat)
	return lat - dLat, lat + dLat, lng - dLng, lng + dLng
}
