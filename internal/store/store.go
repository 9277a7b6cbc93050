// Package store persists genotype profiles and paternity results per case.
//
// A case groups the profiles of one analysis under their roles. All rows
// belonging to one sample, and all rows of one result, are written in a
// single transaction so that a crash never leaves a partial profile that a
// later analysis could mistake for a complete one.
package store

import (
	"context"
	"errors"
	"sort"

	"github.com/inodb/vibe-kinship/internal/genotype"
	"github.com/inodb/vibe-kinship/internal/kinship"
)

var (
	// ErrCaseNotFound is returned when no samples are stored for a case.
	ErrCaseNotFound = errors.New("case not found")
	// ErrResultNotFound is returned when a case has not been analyzed.
	ErrResultNotFound = errors.New("result not found")
)

// Store is the persistence boundary of the analysis.
type Store interface {
	// SaveSample stores every locus of p for the given case and role,
	// replacing any profile previously stored under that role.
	SaveSample(ctx context.Context, caseID string, role kinship.Role, p *genotype.Profile) error
	// SaveResult stores the result of a case, replacing any earlier result.
	SaveResult(ctx context.Context, caseID string, r *kinship.Result) error
	// LoadCase returns the profiles stored for a case.
	LoadCase(ctx context.Context, caseID string) (kinship.Trio, error)
	// LoadResult returns the stored result of a case.
	LoadResult(ctx context.Context, caseID string) (*kinship.Result, error)
	// ListCases returns a summary of every stored case ordered by ID.
	ListCases(ctx context.Context) ([]CaseSummary, error)
	Close() error
}

// CaseSummary describes a stored case.
type CaseSummary struct {
	CaseID      string
	Samples     map[kinship.Role]string
	Analyzed    bool
	Conclusion  kinship.Conclusion
	Probability float64
	Exclusions  int
}

// profileRow is one stored locus call.
type profileRow struct {
	Locus      string
	Allele1    string
	Allele2    string
	PeakHeight string
}

// profileRows flattens a profile into rows in locus order.
func profileRows(p *genotype.Profile) []profileRow {
	rows := make([]profileRow, 0, len(p.Loci))
	for _, locus := range p.LocusNames() {
		c := p.Loci[locus]
		rows = append(rows, profileRow{
			Locus:      locus,
			Allele1:    c.Allele1,
			Allele2:    c.Allele2,
			PeakHeight: c.PeakHeight,
		})
	}
	return rows
}

func sortSummaries(s []CaseSummary) {
	sort.Slice(s, func(i, j int) bool { return s[i].CaseID < s[j].CaseID })
}
