package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-kinship/internal/frequency"
	"github.com/inodb/vibe-kinship/internal/genotype"
)

// LoadFrequencies reads a tab-delimited frequency file with a
// "locus allele frequency" header and replaces the stored frequencies.
// The file is parsed and range-checked before anything is written, so a
// bad file leaves the previous frequencies in place.
func (s *Store) LoadFrequencies(ctx context.Context, tsvPath string) (int64, error) {
	f, err := os.Open(tsvPath)
	if err != nil {
		return 0, fmt.Errorf("open frequency file: %w", err)
	}
	defer f.Close()

	t, err := frequency.LoadTSV(f, filepath.Base(tsvPath), frequency.DefaultFrequency)
	if err != nil {
		return 0, fmt.Errorf("loading allele frequencies: %w", err)
	}
	if err := s.SaveFrequencyTable(ctx, t); err != nil {
		return 0, err
	}
	return int64(t.Len()), nil
}

// SaveFrequencyTable replaces the stored frequencies with the contents of t.
// The delete and the Appender share one connection and one transaction.
func (s *Store) SaveFrequencyTable(ctx context.Context, t *frequency.Table) (retErr error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM allele_frequencies`); err != nil {
		return fmt.Errorf("clear allele frequencies: %w", err)
	}

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "allele_frequencies")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}

	for _, locus := range t.Loci() {
		for allele, f := range t.Alleles(locus) {
			if err := appender.AppendRow(locus, allele, f); err != nil {
				appender.Close()
				return fmt.Errorf("append frequency %s/%s: %w", locus, allele, err)
			}
		}
	}
	if err := appender.Close(); err != nil {
		return fmt.Errorf("flush allele frequencies: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit allele frequencies: %w", err)
	}
	return nil
}

// FrequencyCount returns the number of stored (locus, allele) frequencies.
func (s *Store) FrequencyCount(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM allele_frequencies`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count allele frequencies: %w", err)
	}
	return count, nil
}

// FrequencyTable builds an immutable table from the stored frequencies.
func (s *Store) FrequencyTable(ctx context.Context, name string, defaultFreq float64) (*frequency.Table, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT locus, allele, frequency FROM allele_frequencies`)
	if err != nil {
		return nil, fmt.Errorf("query allele frequencies: %w", err)
	}
	defer rows.Close()

	loci := make(map[string]map[string]float64)
	for rows.Next() {
		var locus, allele string
		var f float64
		if err := rows.Scan(&locus, &allele, &f); err != nil {
			return nil, fmt.Errorf("scan allele frequency: %w", err)
		}
		locus = genotype.NormalizeLocus(locus)
		if loci[locus] == nil {
			loci[locus] = make(map[string]float64)
		}
		loci[locus][allele] = f
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allele frequencies: %w", err)
	}

	return frequency.New(name, loci, defaultFreq)
}
