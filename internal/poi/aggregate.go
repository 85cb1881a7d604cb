package poi

import (
	"math"
	"sort"
)

// DefaultTopN is how many nearest POIs per category a survey keeps in its
// details section.
const DefaultTopN = 5

// Aggregator classifies records against a rule table and produces surveys.
type Aggregator struct {
	rules *RuleTable
	topN  int
}

// NewAggregator creates an Aggregator. A nil rules table selects the
// embedded default; topN <= 0 selects DefaultTopN.
func NewAggregator(rules *RuleTable, topN int) *Aggregator {
	if rules == nil {
		rules = DefaultRules()
	}
	if topN <= 0 {
		topN = DefaultTopN
	}
	return &Aggregator{rules: rules, topN: topN}
}

// Survey buckets the given records into categories and counts them. Records
// outside radiusM of the center are ignored, so callers may pass a
// bbox-prefiltered superset. The result is independent of record order: a
// record counts once per qualifying category, details are sorted by distance
// (ties broken by record ID) and truncated to the aggregator's topN.
func (a *Aggregator) Survey(centerLat, centerLng, radiusM float64, records []Record) Survey {
	sv := Survey{
		Location: Location{Lat: centerLat, Lng: centerLng},
		RadiusM:  radiusM,
		Details:  make(map[Category][]Detail, len(AllCategories)),
	}
	for _, c := range AllCategories {
		sv.Details[c] = []Detail{}
	}

	for _, rec := range records {
		dist := HaversineM(centerLat, centerLng, rec.Lat, rec.Lng)
		if dist > radiusM {
			continue
		}

		cats := a.rules.Categories(rec.Tags)
		if len(cats) == 0 {
			continue
		}

		d := Detail{
			ID:        rec.ID,
			OSMType:   rec.OSMType,
			OSMID:     rec.OSMID,
			Lat:       rec.Lat,
			Lng:       rec.Lng,
			DistanceM: math.Round(dist*10) / 10,
			Name:      rec.Name(),
			Tags:      rec.Tags,
		}
		for _, c := range cats {
			sv.Summary.add(c)
			sv.Details[c] = append(sv.Details[c], d)
		}
	}

	for c, items := range sv.Details {
		sort.Slice(items, func(i, j int) bool {
			if items[i].DistanceM != items[j].DistanceM {
				return items[i].DistanceM < items[j].DistanceM
			}
			return items[i].ID < items[j].ID
		})
		if len(items) > a.topN {
			items = items[:a.topN]
		}
		sv.Details[c] = items
	}
	return sv
}
