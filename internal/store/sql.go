package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/inodb/vibe-kinship/internal/genotype"
	"github.com/inodb/vibe-kinship/internal/kinship"
)

// Dialect adapts the SQL store to a database engine.
type Dialect struct {
	Name string
	// Schema statements run on open; they must be idempotent.
	Schema []string
	// Numbered placeholders ($1, $2, ...) instead of '?'.
	NumberedPlaceholders bool
}

// Schema builds the standard table set using the engine's float type.
// Only the parent tables carry a primary key: child rows are cleared and
// rewritten on every save, and DuckDB rejects re-inserting a key deleted
// earlier in the same transaction.
func Schema(floatType string) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS samples (
			case_id VARCHAR NOT NULL,
			role VARCHAR NOT NULL,
			sample_name VARCHAR NOT NULL,
			sex VARCHAR NOT NULL,
			PRIMARY KEY (case_id, role)
		)`,
		`CREATE TABLE IF NOT EXISTS str_profiles (
			case_id VARCHAR NOT NULL,
			role VARCHAR NOT NULL,
			locus VARCHAR NOT NULL,
			allele1 VARCHAR NOT NULL,
			allele2 VARCHAR NOT NULL,
			peak_height VARCHAR NOT NULL
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS paternity_results (
			case_id VARCHAR PRIMARY KEY,
			cpi %[1]s NOT NULL,
			probability %[1]s NOT NULL,
			prior %[1]s NOT NULL,
			exclusions INTEGER NOT NULL,
			conclusion VARCHAR NOT NULL
		)`, floatType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS locus_results (
			case_id VARCHAR NOT NULL,
			ordinal INTEGER NOT NULL,
			locus VARCHAR NOT NULL,
			child_allele1 VARCHAR NOT NULL,
			child_allele2 VARCHAR NOT NULL,
			mother_allele1 VARCHAR NOT NULL,
			mother_allele2 VARCHAR NOT NULL,
			father_allele1 VARCHAR NOT NULL,
			father_allele2 VARCHAR NOT NULL,
			paternal_allele VARCHAR NOT NULL,
			inferred BOOLEAN NOT NULL,
			pi %[1]s NOT NULL,
			excluded BOOLEAN NOT NULL
		)`, floatType),
	}
}

// SQLStore implements Store on a database/sql handle.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore wraps db and ensures the schema exists.
func NewSQLStore(ctx context.Context, db *sql.DB, d Dialect) (*SQLStore, error) {
	s := &SQLStore{db: db, dialect: d}
	for _, stmt := range d.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("ensure %s schema: %w", d.Name, err)
		}
	}
	return s, nil
}

// DB returns the underlying *sql.DB for direct access.
func (s *SQLStore) DB() *sql.DB {
	return s.db
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// q rewrites '?' placeholders for dialects that number them.
func (s *SQLStore) q(query string) string {
	if !s.dialect.NumberedPlaceholders {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// inTx runs fn in a transaction, rolling back on any error.
func (s *SQLStore) inTx(ctx context.Context, fn func(*sql.Tx) error) (retErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// SaveSample implements Store.
func (s *SQLStore) SaveSample(ctx context.Context, caseID string, role kinship.Role, p *genotype.Profile) error {
	if p == nil {
		return fmt.Errorf("save sample %s/%s: nil profile", caseID, role)
	}
	rows := profileRows(p)
	sex := kinship.DetermineSex(p)

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM str_profiles WHERE case_id=? AND role=?`), caseID, string(role)); err != nil {
			return fmt.Errorf("clear profile: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO samples (case_id, role, sample_name, sex) VALUES (?, ?, ?, ?)
			ON CONFLICT (case_id, role) DO UPDATE SET sample_name = excluded.sample_name, sex = excluded.sex`),
			caseID, string(role), p.SampleName, string(sex)); err != nil {
			return fmt.Errorf("upsert sample: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, s.q(`INSERT INTO str_profiles
			(case_id, role, locus, allele1, allele2, peak_height) VALUES (?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("prepare profile insert: %w", err)
		}
		defer stmt.Close()

		for _, r := range rows {
			if _, err := stmt.ExecContext(ctx, caseID, string(role), r.Locus, r.Allele1, r.Allele2, r.PeakHeight); err != nil {
				return fmt.Errorf("insert locus %s: %w", r.Locus, err)
			}
		}
		return nil
	})
}

// SaveResult implements Store.
func (s *SQLStore) SaveResult(ctx context.Context, caseID string, r *kinship.Result) error {
	if r == nil {
		return fmt.Errorf("save result %s: nil result", caseID)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, s.q(`DELETE FROM locus_results WHERE case_id=?`), caseID); err != nil {
			return fmt.Errorf("clear locus results: %w", err)
		}
		if _, err := tx.ExecContext(ctx, s.q(`INSERT INTO paternity_results
			(case_id, cpi, probability, prior, exclusions, conclusion) VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (case_id) DO UPDATE SET cpi = excluded.cpi, probability = excluded.probability,
			prior = excluded.prior, exclusions = excluded.exclusions, conclusion = excluded.conclusion`),
			caseID, r.CPI, r.Probability, r.Prior, r.Exclusions, string(r.Conclusion)); err != nil {
			return fmt.Errorf("upsert result: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, s.q(`INSERT INTO locus_results
			(case_id, ordinal, locus, child_allele1, child_allele2, mother_allele1, mother_allele2,
			 father_allele1, father_allele2, paternal_allele, inferred, pi, excluded)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("prepare locus insert: %w", err)
		}
		defer stmt.Close()

		for i, lr := range r.LocusResults {
			var m1, m2 string
			if len(lr.MotherAlleles) == 2 {
				m1, m2 = lr.MotherAlleles[0], lr.MotherAlleles[1]
			}
			if _, err := stmt.ExecContext(ctx, caseID, i, lr.Locus,
				lr.ChildAlleles[0], lr.ChildAlleles[1], m1, m2,
				lr.FatherAlleles[0], lr.FatherAlleles[1],
				lr.PaternalAllele, lr.Inferred, lr.PI, lr.Excluded); err != nil {
				return fmt.Errorf("insert locus result %s: %w", lr.Locus, err)
			}
		}
		return nil
	})
}

// LoadCase implements Store.
func (s *SQLStore) LoadCase(ctx context.Context, caseID string) (kinship.Trio, error) {
	names, err := s.sampleNames(ctx, caseID)
	if err != nil {
		return kinship.Trio{}, err
	}
	if len(names) == 0 {
		return kinship.Trio{}, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}

	profiles := make(map[kinship.Role]*genotype.Profile, len(names))
	for role, name := range names {
		profiles[role] = genotype.NewProfile(name)
	}

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT role, locus, allele1, allele2, peak_height
		FROM str_profiles WHERE case_id=?`), caseID)
	if err != nil {
		return kinship.Trio{}, fmt.Errorf("query profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var role string
		var r profileRow
		if err := rows.Scan(&role, &r.Locus, &r.Allele1, &r.Allele2, &r.PeakHeight); err != nil {
			return kinship.Trio{}, fmt.Errorf("scan profile row: %w", err)
		}
		p, ok := profiles[kinship.Role(role)]
		if !ok {
			continue
		}
		p.Set(r.Locus, genotype.Call{Allele1: r.Allele1, Allele2: r.Allele2, PeakHeight: r.PeakHeight})
	}
	if err := rows.Err(); err != nil {
		return kinship.Trio{}, fmt.Errorf("iterate profiles: %w", err)
	}

	var trio kinship.Trio
	for role, p := range profiles {
		trio.Set(role, p)
	}
	return trio, nil
}

func (s *SQLStore) sampleNames(ctx context.Context, caseID string) (map[kinship.Role]string, error) {
	rows, err := s.db.QueryContext(ctx, s.q(`SELECT role, sample_name FROM samples WHERE case_id=?`), caseID)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	names := make(map[kinship.Role]string)
	for rows.Next() {
		var role, name string
		if err := rows.Scan(&role, &name); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		names[kinship.Role(role)] = name
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return names, nil
}

// LoadResult implements Store.
func (s *SQLStore) LoadResult(ctx context.Context, caseID string) (*kinship.Result, error) {
	var r kinship.Result
	var conclusion string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT cpi, probability, prior, exclusions, conclusion
		FROM paternity_results WHERE case_id=?`), caseID).
		Scan(&r.CPI, &r.Probability, &r.Prior, &r.Exclusions, &conclusion)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrResultNotFound, caseID)
	}
	if err != nil {
		return nil, fmt.Errorf("query result: %w", err)
	}
	r.Conclusion = kinship.Conclusion(conclusion)

	rows, err := s.db.QueryContext(ctx, s.q(`SELECT locus, child_allele1, child_allele2,
		mother_allele1, mother_allele2, father_allele1, father_allele2,
		paternal_allele, inferred, pi, excluded
		FROM locus_results WHERE case_id=? ORDER BY ordinal`), caseID)
	if err != nil {
		return nil, fmt.Errorf("query locus results: %w", err)
	}
	defer rows.Close()

	r.LocusResults = []kinship.LocusResult{}
	for rows.Next() {
		var lr kinship.LocusResult
		var m1, m2 string
		if err := rows.Scan(&lr.Locus, &lr.ChildAlleles[0], &lr.ChildAlleles[1], &m1, &m2,
			&lr.FatherAlleles[0], &lr.FatherAlleles[1],
			&lr.PaternalAllele, &lr.Inferred, &lr.PI, &lr.Excluded); err != nil {
			return nil, fmt.Errorf("scan locus result: %w", err)
		}
		if m1 != "" || m2 != "" {
			lr.MotherAlleles = []string{m1, m2}
		}
		r.LocusResults = append(r.LocusResults, lr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate locus results: %w", err)
	}
	return &r, nil
}

// ListCases implements Store.
func (s *SQLStore) ListCases(ctx context.Context) ([]CaseSummary, error) {
	byID := make(map[string]*CaseSummary)

	rows, err := s.db.QueryContext(ctx, `SELECT case_id, role, sample_name FROM samples`)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	for rows.Next() {
		var id, role, name string
		if err := rows.Scan(&id, &role, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		summary(byID, id).Samples[kinship.Role(role)] = name
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT case_id, probability, exclusions, conclusion FROM paternity_results`)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id, conclusion string
		var prob float64
		var excl int
		if err := rows.Scan(&id, &prob, &excl, &conclusion); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		cs := summary(byID, id)
		cs.Analyzed = true
		cs.Probability = prob
		cs.Exclusions = excl
		cs.Conclusion = kinship.Conclusion(conclusion)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}

	out := make([]CaseSummary, 0, len(byID))
	for _, cs := range byID {
		out = append(out, *cs)
	}
	sortSummaries(out)
	return out, nil
}

func summary(byID map[string]*CaseSummary, id string) *CaseSummary {
	cs, ok := byID[id]
	if !ok {
		cs = &CaseSummary{CaseID: id, Samples: make(map[kinship.Role]string)}
		byID[id] = cs
	}
	return cs
}
