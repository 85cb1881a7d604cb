package db

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var poisUpsert = UpsertConfig{
	Table:        "pois",
	Columns:      []string{"id_str", "osm_type", "osm_id", "lat", "lng", "tags_json"},
	ConflictKeys: []string{"id_str"},
}

func poisRows() [][]any {
	return [][]any{
		{"node/1", "node", int64(1), 25.04, 121.51, `{"amenity":"fuel"}`},
		{"node/2", "node", int64(2), 25.05, 121.52, `{"highway":"bus_stop"}`},
	}
}

func TestBulkUpsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_pois"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_pois"}, poisUpsert.Columns).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "pois"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, poisUpsert, poisRows())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	n, err := BulkUpsert(context.Background(), mock, poisUpsert, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet(), "no SQL for an empty load")
}

func TestBulkUpsert_BadConfig(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = BulkUpsert(context.Background(), mock, UpsertConfig{Table: "pois"}, poisRows())
	assert.Error(t, err)

	allKeys := UpsertConfig{
		Table:        "pois",
		Columns:      []string{"id_str"},
		ConflictKeys: []string{"id_str"},
	}
	_, err = BulkUpsert(context.Background(), mock, allKeys, [][]any{{"node/1"}})
	assert.Error(t, err)
}

func TestBulkUpsert_CopyError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_upsert_pois"`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_pois"}, poisUpsert.Columns).
		WillReturnError(eris.New("connection reset"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, poisUpsert, poisRows())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY into temp table")
}
