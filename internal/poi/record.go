// Package poi provides the local point-of-interest store and the
// radius-bounded survey that buckets nearby POIs into six functional
// categories.
package poi

// Category is one of the six functional POI buckets fed to the survival
// models.
type Category string

const (
	CategoryFuel    Category = "fuel"
	CategoryTransit Category = "transit"
	CategorySchool  Category = "school"
	CategoryParking Category = "parking"
	CategoryScenic  Category = "scenic"
	CategoryCinema  Category = "cinema"
)

// Categories in stable output order.
var AllCategories = []Category{
	CategoryFuel,
	CategoryTransit,
	CategorySchool,
	CategoryParking,
	CategoryScenic,
	CategoryCinema,
}

// Record is a single POI row as stored in the spatial store. Records are
// read-only at runtime.
type Record struct {
	ID      string            `json:"id"`
	OSMType string            `json:"osm_type"`
	OSMID   int64             `json:"osm_id"`
	Lat     float64           `json:"lat"`
	Lng     float64           `json:"lng"`
	Tags    map[string]string `json:"tags"`
}

// Name returns the record's display name, preferring the Chinese name tag.
func (r Record) Name() string {
	for _, key := range []string{"name:zh", "name", "name:en"} {
		if v, ok := r.Tags[key]; ok && v != "" {
			return v
		}
	}
	return ""
}

// Summary holds the per-category counts for one survey. Every count is a
// non-negative integer; a record may contribute to several categories.
type Summary struct {
	Fuel    int `json:"fuel"`
	Transit int `json:"transit"`
	School  int `json:"school"`
	Parking int `json:"parking"`
	Scenic  int `json:"scenic"`
	Cinema  int `json:"cinema"`
}

// Count returns the count for a category.
func (s Summary) Count(c Category) int {
	switch c {
	case CategoryFuel:
		return s.Fuel
	case CategoryTransit:
		return s.Transit
	case CategorySchool:
		return s.School
	case CategoryParking:
		return s.Parking
	case CategoryScenic:
		return s.Scenic
	case CategoryCinema:
		return s.Cinema
	default:
		return 0
	}
}

// add bumps the count for a category.
func (s *Summary) add(c Category) {
	switch c {
	case CategoryFuel:
		s.Fuel++
	case CategoryTransit:
		s.Transit++
	case CategorySchool:
		s.School++
	case CategoryParking:
		s.Parking++
	case CategoryScenic:
		s.Scenic++
	case CategoryCinema:
		s.Cinema++
	}
}

// Detail is one surveyed POI with its distance from the survey center.
type Detail struct {
	ID        string            `json:"id"`
	OSMType   string            `json:"osm_type"`
	OSMID     int64             `json:"osm_id"`
	Lat       float64           `json:"lat"`
	Lng       float64           `json:"lng"`
	DistanceM float64           `json:"distance_m"`
	Name      string            `json:"name,omitempty"`
	Tags      map[string]string `json:"tags,omitempty"`
}

// Location is a WGS84 coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Survey is the result of aggregating POIs around a center point.
type Survey struct {
	Location Location              `json:"location"`
	RadiusM  float64               `json:"radius_m"`
	Summary  Summary               `json:"summary"`
	Details  map[Category][]Detail `json:"details"`
}
