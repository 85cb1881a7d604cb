package poi

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store over a local SQLite POI database built
// offline from an OSM extract. The database is opened read-only and shared
// across requests; modernc's driver serializes access per connection and
// database/sql pools connections, so concurrent reads are safe.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens the POI database at path. It fails with
// ErrStoreUnavailable when the file is missing or the pois table cannot be
// queried, so a misconfigured path never degrades into empty survey results.
func NewSQLite(path string) (*SQLiteStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(ErrStoreUnavailable, "sqlite open %s: %v", path, err)
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, eris.Wrapf(ErrStoreUnavailable, "sqlite open %s: %v", path, err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, eris.Wrapf(ErrStoreUnavailable, "sqlite pragma: %v", err)
	}

	// Probe the schema up front; a corrupt or foreign file fails here.
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM pois LIMIT 1").Scan(&n); err != nil {
		db.Close()
		return nil, eris.Wrapf(ErrStoreUnavailable, "sqlite probe pois: %v", err)
	}

	zap.L().Info("poi store opened",
		zap.String("driver", "sqlite"),
		zap.String("path", path),
		zap.Int("records", n),
	)
	return &SQLiteStore{db: db}, nil
}

// Within implements Store. The (lat, lng) index narrows candidates to a
// bounding box; the exact haversine cut happens in Go.
func (s *SQLiteStore) Within(ctx context.Context, lat, lng, radiusM float64) ([]Record, error) {
	latMin, latMax, lngMin, lngMax := BoundingBox(lat, lng, radiusM)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id_str, osm_type, osm_id, lat, lng, tags_json
		FROM pois
		WHERE lat BETWEEN ? AND ?
		  AND lng BETWEEN ? AND ?`,
		latMin, latMax, lngMin, lngMax,
	)
	if err != nil {
		return nil, eris.Wrapf(ErrStoreUnavailable, "sqlite query pois: %v", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var tagsJSON sql.NullString
		if err := rows.Scan(&rec.ID, &rec.OSMType, &rec.OSMID, &rec.Lat, &rec.Lng, &tagsJSON); err != nil {
			return nil, eris.Wrapf(ErrStoreUnavailable, "sqlite scan poi: %v", err)
		}
		rec.Tags = decodeTags(tagsJSON.String)
		if HaversineM(lat, lng, rec.Lat, rec.Lng) <= radiusM {
			records = append(records, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(ErrStoreUnavailable, "sqlite iterate pois: %v", err)
	}
	return records, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// decodeTags parses the stored tag JSON. Rows with unparseable tags keep an
// empty tag map and simply classify into no category.
func decodeTags(raw string) map[string]string {
	if raw == "" {
		return map[string]string{}
	}
	var tags map[string]string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return map[string]string{}
	}
	return tags
}
