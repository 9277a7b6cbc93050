// Package frequency provides population allele frequency tables used to
// weight paternity indices.
package frequency

import (
	"fmt"
	"sort"

	"github.com/inodb/vibe-kinship/internal/genotype"
)

// DefaultFrequency is used for alleles a table does not list. It is a
// conventional floor for rare or unobserved alleles, not a fitted value.
const DefaultFrequency = 0.01

// Table maps locus -> allele -> frequency. A Table is immutable once
// built and safe for concurrent readers.
type Table struct {
	name        string
	loci        map[string]map[string]float64
	defaultFreq float64
}

// New builds a table from per-locus allele frequencies. Locus names are
// normalized. All frequencies, including the default, must lie in (0, 1].
func New(name string, loci map[string]map[string]float64, defaultFreq float64) (*Table, error) {
	if err := checkFrequency(defaultFreq); err != nil {
		return nil, fmt.Errorf("default frequency: %w", err)
	}

	t := &Table{
		name:        name,
		loci:        make(map[string]map[string]float64, len(loci)),
		defaultFreq: defaultFreq,
	}

	for locus, alleles := range loci {
		key := genotype.NormalizeLocus(locus)
		if key == genotype.AmelogeninLocus {
			continue
		}
		m, ok := t.loci[key]
		if !ok {
			m = make(map[string]float64, len(alleles))
			t.loci[key] = m
		}
		for allele, f := range alleles {
			if err := checkFrequency(f); err != nil {
				return nil, fmt.Errorf("locus %s allele %s: %w", locus, allele, err)
			}
			m[allele] = f
		}
	}

	return t, nil
}

func checkFrequency(f float64) error {
	if !(f > 0 && f <= 1) {
		return fmt.Errorf("frequency %v outside (0, 1]", f)
	}
	return nil
}

// Frequency returns the frequency of allele at locus, or the table's
// default when the pair is not listed. It never returns zero.
func (t *Table) Frequency(locus, allele string) float64 {
	if alleles, ok := t.loci[genotype.NormalizeLocus(locus)]; ok {
		if f, ok := alleles[allele]; ok {
			return f
		}
	}
	return t.defaultFreq
}

// Lookup returns the listed frequency and whether the pair was listed.
func (t *Table) Lookup(locus, allele string) (float64, bool) {
	alleles, ok := t.loci[genotype.NormalizeLocus(locus)]
	if !ok {
		return 0, false
	}
	f, ok := alleles[allele]
	return f, ok
}

// WithDefault returns a copy of the table using a different default
// frequency.
func (t *Table) WithDefault(defaultFreq float64) (*Table, error) {
	return New(t.name, t.loci, defaultFreq)
}

// Name returns the table's name.
func (t *Table) Name() string { return t.name }

// Default returns the fallback frequency.
func (t *Table) Default() float64 { return t.defaultFreq }

// Loci returns the listed loci in sorted order.
func (t *Table) Loci() []string {
	names := make([]string, 0, len(t.loci))
	for name := range t.loci {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Alleles returns a copy of the allele frequencies listed for locus.
func (t *Table) Alleles(locus string) map[string]float64 {
	src := t.loci[genotype.NormalizeLocus(locus)]
	out := make(map[string]float64, len(src))
	for a, f := range src {
		out[a] = f
	}
	return out
}

// Len returns the number of listed (locus, allele) pairs.
func (t *Table) Len() int {
	n := 0
	for _, alleles := range t.loci {
		n += len(alleles)
	}
	return n
}
