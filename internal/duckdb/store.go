// Package duckdb provides a DuckDB-backed case store. Besides profiles and
// results it keeps population allele frequencies in a table, so a lab's
// frequency database can be bulk-loaded once and reused across runs.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-kinship/internal/store"
)

// Dialect describes DuckDB to the shared SQL store.
var Dialect = store.Dialect{
	Name:   "duckdb",
	Schema: append(store.Schema("DOUBLE"), frequencySchema),
}

// No primary key: the table is always replaced wholesale from a validated
// frequency.Table inside one transaction.
const frequencySchema = `CREATE TABLE IF NOT EXISTS allele_frequencies (
	locus VARCHAR NOT NULL,
	allele VARCHAR NOT NULL,
	frequency DOUBLE NOT NULL
)`

// Store manages a DuckDB connection holding cases and allele frequencies.
type Store struct {
	*store.SQLStore
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	ss, err := store.NewSQLStore(context.Background(), db, Dialect)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{SQLStore: ss, db: db, path: path}, nil
}

// Path returns the database path, empty for an in-memory database.
func (s *Store) Path() string {
	return s.path
}
