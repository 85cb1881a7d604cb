package poi

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Taipei Main Station.
const (
	centerLat = 25.047923
	centerLng = 121.517081
)

// recordAt places a record roughly meters north of the center.
func recordAt(id string, meters float64, tags map[string]string) Record {
	return Record{
		ID:      id,
		OSMType: "node",
		Lat:     centerLat + meters/111000.0,
		Lng:     centerLng,
		Tags:    tags,
	}
}

func testRecords() []Record {
	return []Record{
		recordAt("fuel-1", 100, map[string]string{"amenity": "fuel"}),
		recordAt("fuel-2", 450, map[string]string{"amenity": "fuel"}),
		recordAt("bus-1", 50, map[string]string{"highway": "bus_stop", "name": "北門站"}),
		recordAt("bus-2", 300, map[string]string{"highway": "bus_stop"}),
		recordAt("station-parking", 200, map[string]string{"railway": "station", "amenity": "parking"}),
		recordAt("school-1", 480, map[string]string{"amenity": "school"}),
		recordAt("park-1", 250, map[string]string{"leisure": "park"}),
		recordAt("far-fuel", 900, map[string]string{"amenity": "fuel"}),
		recordAt("untagged", 10, map[string]string{"shop": "convenience"}),
	}
}

func TestSurvey_Counts(t *testing.T) {
	agg := NewAggregator(nil, 5)
	sv := agg.Survey(centerLat, centerLng, 500, testRecords())

	assert.Equal(t, 2, sv.Summary.Fuel, "far-fuel is outside the radius")
	assert.Equal(t, 3, sv.Summary.Transit, "two bus stops and the station")
	assert.Equal(t, 1, sv.Summary.School)
	assert.Equal(t, 1, sv.Summary.Parking, "the station also counts as parking")
	assert.Equal(t, 1, sv.Summary.Scenic)
	assert.Equal(t, 0, sv.Summary.Cinema)
}

func TestSurvey_DetailsSortedAndNamed(t *testing.T) {
	agg := NewAggregator(nil, 5)
	sv := agg.Survey(centerLat, centerLng, 500, testRecords())

	transit := sv.Details[CategoryTransit]
	require.Len(t, transit, 3)
	assert.Equal(t, "bus-1", transit[0].ID)
	assert.Equal(t, "北門站", transit[0].Name)
	assert.Equal(t, "station-parking", transit[1].ID)
	assert.Equal(t, "bus-2", transit[2].ID)
	for i := 1; i < len(transit); i++ {
		assert.LessOrEqual(t, transit[i-1].DistanceM, transit[i].DistanceM)
	}

	// Every category key exists even when empty.
	assert.NotNil(t, sv.Details[CategoryCinema])
	assert.Empty(t, sv.Details[CategoryCinema])
}

func TestSurvey_TopNTruncation(t *testing.T) {
	var records []Record
	for i := 0; i < 12; i++ {
		records = append(records, recordAt(fmt.Sprintf("bus-%02d", i), float64(10*(i+1)), map[string]string{"highway": "bus_stop"}))
	}

	agg := NewAggregator(nil, 5)
	sv := agg.Survey(centerLat, centerLng, 500, records)

	// Summary counts everything, details keep only the nearest topN.
	assert.Equal(t, 12, sv.Summary.Transit)
	require.Len(t, sv.Details[CategoryTransit], 5)
	assert.Equal(t, "bus-00", sv.Details[CategoryTransit][0].ID)
	assert.Equal(t, "bus-04", sv.Details[CategoryTransit][4].ID)
}

func TestSurvey_OrderIndependent(t *testing.T) {
	records := testRecords()
	agg := NewAggregator(nil, 5)
	want := agg.Survey(centerLat, centerLng, 500, records)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]Record(nil), records...)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		got := agg.Survey(centerLat, centerLng, 500, shuffled)
		assert.Equal(t, want.Summary, got.Summary)
		assert.Equal(t, want.Details, got.Details)
	}
}

func TestSurvey_Idempotent(t *testing.T) {
	records := testRecords()
	agg := NewAggregator(nil, 5)

	first := agg.Survey(centerLat, centerLng, 500, records)
	second := agg.Survey(centerLat, centerLng, 500, records)
	assert.Equal(t, first, second)
}

func TestSurvey_RadiusMonotonicity(t *testing.T) {
	records := testRecords()
	agg := NewAggregator(nil, 5)

	radii := []float64{50, 150, 300, 500, 1000, 2000}
	var prev *Summary
	for _, r := range radii {
		sv := agg.Survey(centerLat, centerLng, r, records)
		for _, c := range AllCategories {
			assert.GreaterOrEqual(t, sv.Summary.Count(c), 0)
			if prev != nil {
				assert.GreaterOrEqual(t, sv.Summary.Count(c), prev.Count(c),
					"count for %s shrank when radius grew to %v", c, r)
			}
		}
		s := sv.Summary
		prev = &s
	}
}
