package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/inodb/vibe-kinship/internal/genotype"
	"github.com/inodb/vibe-kinship/internal/kinship"
)

type memSample struct {
	name string
	rows []profileRow
}

type memCase struct {
	samples map[kinship.Role]memSample
	result  *kinship.Result
}

// Memory is a Store held in process memory. Values are copied in and out
// so callers never share state with the store.
type Memory struct {
	mu    sync.RWMutex
	cases map[string]*memCase
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{cases: make(map[string]*memCase)}
}

func (m *Memory) caseFor(caseID string) *memCase {
	c, ok := m.cases[caseID]
	if !ok {
		c = &memCase{samples: make(map[kinship.Role]memSample)}
		m.cases[caseID] = c
	}
	return c
}

// SaveSample implements Store.
func (m *Memory) SaveSample(_ context.Context, caseID string, role kinship.Role, p *genotype.Profile) error {
	if p == nil {
		return fmt.Errorf("save sample %s/%s: nil profile", caseID, role)
	}
	rows := profileRows(p)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.caseFor(caseID).samples[role] = memSample{name: p.SampleName, rows: rows}
	return nil
}

// SaveResult implements Store.
func (m *Memory) SaveResult(_ context.Context, caseID string, r *kinship.Result) error {
	if r == nil {
		return fmt.Errorf("save result %s: nil result", caseID)
	}
	cp := copyResult(r)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.caseFor(caseID).result = cp
	return nil
}

// LoadCase implements Store.
func (m *Memory) LoadCase(_ context.Context, caseID string) (kinship.Trio, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cases[caseID]
	if !ok || len(c.samples) == 0 {
		return kinship.Trio{}, fmt.Errorf("%w: %s", ErrCaseNotFound, caseID)
	}

	var trio kinship.Trio
	for role, s := range c.samples {
		p := genotype.NewProfile(s.name)
		for _, r := range s.rows {
			p.Set(r.Locus, genotype.Call{Allele1: r.Allele1, Allele2: r.Allele2, PeakHeight: r.PeakHeight})
		}
		trio.Set(role, p)
	}
	return trio, nil
}

// LoadResult implements Store.
func (m *Memory) LoadResult(_ context.Context, caseID string) (*kinship.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.cases[caseID]
	if !ok || c.result == nil {
		return nil, fmt.Errorf("%w: %s", ErrResultNotFound, caseID)
	}
	return copyResult(c.result), nil
}

// ListCases implements Store.
func (m *Memory) ListCases(_ context.Context) ([]CaseSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]CaseSummary, 0, len(m.cases))
	for id, c := range m.cases {
		s := CaseSummary{CaseID: id, Samples: make(map[kinship.Role]string)}
		for role, smp := range c.samples {
			s.Samples[role] = smp.name
		}
		if c.result != nil {
			s.Analyzed = true
			s.Conclusion = c.result.Conclusion
			s.Probability = c.result.Probability
			s.Exclusions = c.result.Exclusions
		}
		out = append(out, s)
	}
	sortSummaries(out)
	return out, nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

func copyResult(r *kinship.Result) *kinship.Result {
	cp := *r
	cp.LocusResults = make([]kinship.LocusResult, len(r.LocusResults))
	for i, lr := range r.LocusResults {
		if lr.MotherAlleles != nil {
			lr.MotherAlleles = append([]string(nil), lr.MotherAlleles...)
		}
		cp.LocusResults[i] = lr
	}
	return &cp
}
