// Package db defines the minimal pgx pool surface shared by Postgres-backed
// stores, so tests can substitute pgxmock.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Pool is the subset of pgxpool.Pool the stores use. pgxmock implements the
// same surface.
type Pool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// TxPool extends Pool with the transactional surface bulk loads need.
type TxPool interface {
	Pool
	Begin(ctx context.Context) (pgx.Tx, error)
}
