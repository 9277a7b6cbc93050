// Package genotype parses capillary-electrophoresis genotyping exports and
// groups the STR marker calls into per-sample profiles.
package genotype

import (
	"strconv"
	"strings"
)

// AmelogeninLocus is the normalized name of the sex-determining marker.
const AmelogeninLocus = "AMEL"

// Record is a single marker call line from a genotyping export.
type Record struct {
	SampleName string
	Locus      string
	Allele1    string // empty when the export has no call
	Allele2    string // empty when the export has no call
	PeakHeight string // raw value as exported, empty when absent
}

// Call holds the allele calls of one sample at one locus.
type Call struct {
	Allele1    string
	Allele2    string
	PeakHeight string
}

// Present reports whether the call carries at least one allele.
func (c Call) Present() bool {
	return c.Allele1 != "" || c.Allele2 != ""
}

// Alleles returns the allele pair of the call. Exports commonly list a
// homozygote with only one allele, so a single allele is returned twice.
// ok is false when the call has no alleles at all.
func (c Call) Alleles() (a, b string, ok bool) {
	switch {
	case c.Allele1 != "" && c.Allele2 != "":
		return c.Allele1, c.Allele2, true
	case c.Allele1 != "":
		return c.Allele1, c.Allele1, true
	case c.Allele2 != "":
		return c.Allele2, c.Allele2, true
	}
	return "", "", false
}

// Has reports whether allele is one of the call's alleles.
func (c Call) Has(allele string) bool {
	a, b, ok := c.Alleles()
	return ok && (a == allele || b == allele)
}

// Homozygous reports whether both alleles of the call are the same.
func (c Call) Homozygous() bool {
	a, b, ok := c.Alleles()
	return ok && a == b
}

// Height parses the peak height. Exports sometimes list one height per
// allele separated by commas; the first value is used.
func (c Call) Height() (float64, bool) {
	h := strings.TrimSpace(c.PeakHeight)
	if i := strings.IndexAny(h, ",;"); i >= 0 {
		h = strings.TrimSpace(h[:i])
	}
	if h == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(h, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var locusAliases = map[string]string{
	"AMELOGENIN": AmelogeninLocus,
	"AMEL":       AmelogeninLocus,
	"THO1":       "TH01",
	"PENTAD":     "PENTA D",
	"PENTA_D":    "PENTA D",
	"PENTAE":     "PENTA E",
	"PENTA_E":    "PENTA E",
}

// NormalizeLocus returns the canonical spelling of a marker name so that
// kit-specific spellings such as "vWA" and "VWA" refer to the same locus.
func NormalizeLocus(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	if alias, ok := locusAliases[n]; ok {
		return alias
	}
	return n
}
