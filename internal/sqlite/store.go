// Package sqlite provides a SQLite-backed case store using the pure Go
// modernc.org/sqlite driver, for deployments without cgo.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/inodb/vibe-kinship/internal/store"
)

// Dialect describes SQLite to the shared SQL store.
var Dialect = store.Dialect{
	Name:   "sqlite",
	Schema: store.Schema("REAL"),
}

// Store is a SQLite-backed store.Store.
type Store struct {
	*store.SQLStore
	path string
}

// Open opens or creates a SQLite database at path. An empty path opens a
// private in-memory database.
func Open(path string) (*Store, error) {
	dsn := path
	if path == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps an in-memory database alive and serializes writers.
	db.SetMaxOpenConns(1)

	ss, err := store.NewSQLStore(context.Background(), db, Dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{SQLStore: ss, path: path}, nil
}

// Path returns the database path, empty for an in-memory database.
func (s *Store) Path() string {
	return s.path
}
