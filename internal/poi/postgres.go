package poi

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/huntertoby/new-shop-survival-prediction-tw/internal/db"
)

// PostgresStore implements Store over a shared pois table in Postgres, for
// deployments where the POI extract is loaded centrally instead of shipped
// as a SQLite file. No PostGIS required: the bbox prefilter uses plain
// btree-indexed lat/lng columns and the exact cut stays in Go, matching the
// SQLite backend.
type PostgresStore struct {
	pool    db.TxPool
	closeFn func()
}

// NewPostgres connects a PostgresStore. Connection or probe failure maps to
// ErrStoreUnavailable.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrapf(ErrStoreUnavailable, "postgres parse config: %v", err)
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrapf(ErrStoreUnavailable, "postgres create pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrapf(ErrStoreUnavailable, "postgres ping: %v", err)
	}

	zap.L().Info("poi store opened", zap.String("driver", "postgres"))
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.TxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Within implements Store.
func (s *PostgresStore) Within(ctx context.Context, lat, lng, radiusM float64) ([]Record, error) {
	latMin, latMax, lngMin, lngMax := BoundingBox(lat, lng, radiusM)

	rows, err := s.pool.Query(ctx, `
		SELECT id_str, osm_type, osm_id, lat, lng, tags_json
		FROM pois
		WHERE lat BETWEEN $1 AND $2
		  AND lng BETWEEN $3 AND $4`,
		latMin, latMax, lngMin, lngMax,
	)
	if err != nil {
		return nil, eris.Wrapf(ErrStoreUnavailable, "postgres query pois: %v", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var tagsJSON *string
		if err := rows.Scan(&rec.ID, &rec.OSMType, &rec.OSMID, &rec.Lat, &rec.Lng, &tagsJSON); err != nil {
			return nil, eris.Wrapf(ErrStoreUnavailable, "postgres scan poi: %v", err)
		}
		if tagsJSON != nil {
			rec.Tags = decodeTags(*tagsJSON)
		} else {
			rec.Tags = map[string]string{}
		}
		if HaversineM(lat, lng, rec.Lat, rec.Lng) <= radiusM {
			records = append(records, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(ErrStoreUnavailable, "postgres iterate pois: %v", err)
	}
	return records, nil
}

// EnsureSchema creates the pois table and its bbox index when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pois (
			id_str    TEXT PRIMARY KEY,
			osm_type  TEXT NOT NULL,
			osm_id    BIGINT NOT NULL,
			lat       DOUBLE PRECISION NOT NULL,
			lng       DOUBLE PRECISION NOT NULL,
			tags_json TEXT
		)`)
	if err != nil {
		return eris.Wrapf(ErrStoreUnavailable, "postgres create pois: %v", err)
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_pois_lat_lng ON pois (lat, lng)`)
	if err != nil {
		return eris.Wrapf(ErrStoreUnavailable, "postgres index pois: %v", err)
	}
	return nil
}

// Load bulk-upserts records into the pois table. Re-loading a refreshed
// extract overwrites rows with the same id_str.
func (s *PostgresStore) Load(ctx context.Context, records []Record) (int64, error) {
	rows := make([][]any, 0, len(records))
	for _, rec := range records {
		tags, err := encodeTags(rec.Tags)
		if err != nil {
			return 0, err
		}
		rows = append(rows, []any{rec.ID, rec.OSMType, rec.OSMID, rec.Lat, rec.Lng, tags})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "pois",
		Columns:      []string{"id_str", "osm_type", "osm_id", "lat", "lng", "tags_json"},
		ConflictKeys: []string{"id_str"},
	}, rows)
	if err != nil {
		return 0, eris.Wrapf(ErrStoreUnavailable, "postgres load pois: %v", err)
	}

	zap.L().Info("poi import finished",
		zap.String("driver", "postgres"),
		zap.Int64("records", n),
	)
	return n, nil
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}
