package poi

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS pois (
	id_str    TEXT PRIMARY KEY,
	osm_type  TEXT NOT NULL,
	osm_id    INTEGER NOT NULL,
	lat       REAL NOT NULL,
	lng       REAL NOT NULL,
	tags_json TEXT
);
CREATE INDEX IF NOT EXISTS idx_pois_lat_lng ON pois (lat, lng);
`

// ImportSQLite loads records into the POI database at path, creating the
// schema when the file is new. Existing records with the same id_str are
// replaced, so re-importing a refreshed extract is idempotent.
func ImportSQLite(ctx context.Context, path string, records []Record) (int64, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, eris.Wrapf(ErrStoreUnavailable, "sqlite open %s: %v", path, err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, sqliteSchema); err != nil {
		return 0, eris.Wrapf(ErrStoreUnavailable, "sqlite create schema: %v", err)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrapf(ErrStoreUnavailable, "sqlite begin: %v", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO pois (id_str, osm_type, osm_id, lat, lng, tags_json)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrapf(ErrStoreUnavailable, "sqlite prepare insert: %v", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		tags, err := encodeTags(rec.Tags)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.OSMType, rec.OSMID, rec.Lat, rec.Lng, tags); err != nil {
			return 0, eris.Wrapf(ErrStoreUnavailable, "sqlite insert %s: %v", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrapf(ErrStoreUnavailable, "sqlite commit: %v", err)
	}

	zap.L().Info("poi import finished",
		zap.String("driver", "sqlite"),
		zap.String("path", path),
		zap.Int("records", len(records)),
	)
	return int64(len(records)), nil
}

func encodeTags(tags map[string]string) (string, error) {
	if len(tags) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", eris.Wrap(err, "poi: encode tags")
	}
	return string(data), nil
}
