package poi

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// dumpRow mirrors one line of a POI dump file: JSON lines with the same
// column names as the pois table.
type dumpRow struct {
	ID      string            `json:"id_str"`
	OSMType string            `json:"osm_type"`
	OSMID   int64             `json:"osm_id"`
	Lat     float64           `json:"lat"`
	Lng     float64           `json:"lng"`
	Tags    map[string]string `json:"tags"`
}

// ReadDump parses a JSON-lines POI dump. Blank lines are skipped; a
// malformed line or an out-of-range coordinate fails the whole read, since
// a partially loaded extract is worse than none.
func ReadDump(r io.Reader) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var records []Record
	line := 0
	for scanner.Scan() {
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var row dumpRow
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, eris.Wrapf(err, "poi: dump line %d", line)
		}
		if row.ID == "" {
			return nil, eris.Errorf("poi: dump line %d: id_str is required", line)
		}
		if row.Lat < -90 || row.Lat > 90 || row.Lng < -180 || row.Lng > 180 {
			return nil, eris.Errorf("poi: dump line %d: coordinate (%v, %v) out of range", line, row.Lat, row.Lng)
		}

		tags := row.Tags
		if tags == nil {
			tags = map[string]string{}
		}
		records = append(records, Record{
			ID:      row.ID,
			OSMType: row.OSMType,
			OSMID:   row.OSMID,
			Lat:     row.Lat,
			Lng:     row.Lng,
			Tags:    tags,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "poi: read dump")
	}
	return records, nil
}
