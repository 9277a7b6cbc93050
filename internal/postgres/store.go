// Package postgres provides a Postgres-backed case store for shared
// laboratory deployments.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"github.com/inodb/vibe-kinship/internal/store"
)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/kinship?sslmode=disable"
)

// sqlOpen is replaced in tests.
var sqlOpen = sql.Open

// Dialect describes Postgres to the shared SQL store.
var Dialect = store.Dialect{
	Name:                 "postgres",
	Schema:               store.Schema("DOUBLE PRECISION"),
	NumberedPlaceholders: true,
}

// Store is a Postgres-backed store.Store.
type Store struct {
	*store.SQLStore
}

// Open connects to Postgres using dsn (falls back to defaultDSN) and
// ensures the schema exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	db, err := sqlOpen(defaultDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	ss, err := store.NewSQLStore(ctx, db, Dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{SQLStore: ss}, nil
}
