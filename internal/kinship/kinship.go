// Package kinship computes paternity indices from STR genotype profiles.
//
// For each scored locus the paternal allele of the child is resolved, the
// alleged father's chance of transmitting it is divided by the allele's
// population frequency, and the per-locus indices are multiplied into a
// combined paternity index (CPI). The CPI and a prior probability give the
// posterior probability of paternity.
package kinship

import (
	"errors"
	"fmt"
	"strings"

	"github.com/inodb/vibe-kinship/internal/genotype"
)

// DefaultPrior is the prior probability of paternity used when none is set.
const DefaultPrior = 0.5

// StandardLoci are the autosomal STR loci scored by default, in report
// order. Amelogenin is not scored.
var StandardLoci = []string{
	"D3S1358", "VWA", "D16S539", "CSF1PO", "TPOX",
	"D8S1179", "D21S11", "D18S51", "D2S441", "D19S433",
	"TH01", "FGA", "D22S1045", "D5S818", "D13S317",
	"D7S820", "D10S1248", "D1S1656", "D12S391", "D2S1338",
}

var (
	// ErrInsufficientSamples is returned when fewer than two profiles are supplied.
	ErrInsufficientSamples = errors.New("insufficient samples: at least two profiles are required")
	// ErrMissingRequiredProfile is returned when the child or alleged father profile is absent.
	ErrMissingRequiredProfile = errors.New("missing required profile")
	// ErrInvalidPrior is returned for a prior outside (0, 1).
	ErrInvalidPrior = errors.New("prior probability must be greater than 0 and less than 1")
	// ErrNoFrequencyTable is returned when no allele frequency table is supplied.
	ErrNoFrequencyTable = errors.New("allele frequency table is required")
)

// Role is the relationship of a sample within a case.
type Role string

const (
	RoleChild         Role = "child"
	RoleMother        Role = "mother"
	RoleAllegedFather Role = "alleged_father"
)

// Roles lists the valid roles.
var Roles = []Role{RoleChild, RoleMother, RoleAllegedFather}

// ParseRole parses a role name. "father" and "af" are accepted for the
// alleged father.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "child":
		return RoleChild, nil
	case "mother":
		return RoleMother, nil
	case "alleged_father", "alleged-father", "father", "af":
		return RoleAllegedFather, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Trio holds the profiles of one case. Mother is optional.
type Trio struct {
	Child  *genotype.Profile
	Mother *genotype.Profile
	Father *genotype.Profile
	// Samples is the number of profiles the trio was picked from. Zero
	// means the trio was built directly and Count is used instead.
	Samples int
}

// Profile returns the profile with the given role.
func (t Trio) Profile(r Role) *genotype.Profile {
	switch r {
	case RoleChild:
		return t.Child
	case RoleMother:
		return t.Mother
	case RoleAllegedFather:
		return t.Father
	}
	return nil
}

// Set stores p under role r.
func (t *Trio) Set(r Role, p *genotype.Profile) {
	switch r {
	case RoleChild:
		t.Child = p
	case RoleMother:
		t.Mother = p
	case RoleAllegedFather:
		t.Father = p
	}
}

// Count returns the number of profiles present.
func (t Trio) Count() int {
	n := 0
	for _, p := range []*genotype.Profile{t.Child, t.Mother, t.Father} {
		if p != nil {
			n++
		}
	}
	return n
}

// Validate checks that the trio can be analyzed. Fewer than two input
// samples is reported before any missing role.
func (t Trio) Validate() error {
	n := max(t.Samples, t.Count())
	if n < 2 {
		return fmt.Errorf("%w: got %d", ErrInsufficientSamples, n)
	}
	if t.Child == nil {
		return fmt.Errorf("%w: no %s profile", ErrMissingRequiredProfile, RoleChild)
	}
	if t.Father == nil {
		return fmt.Errorf("%w: no %s profile", ErrMissingRequiredProfile, RoleAllegedFather)
	}
	return nil
}

// Conclusion classifies a paternity result.
type Conclusion string

const (
	ConclusionExcluded        Conclusion = "EXCLUDED"
	ConclusionNotExcluded9999 Conclusion = "NOT_EXCLUDED_99_99"
	ConclusionNotExcluded999  Conclusion = "NOT_EXCLUDED_99_9"
	ConclusionNotExcluded990  Conclusion = "NOT_EXCLUDED_99_0"
	ConclusionInconclusive    Conclusion = "INCONCLUSIVE"
)

// Description returns report wording for the conclusion.
func (c Conclusion) Description() string {
	switch c {
	case ConclusionExcluded:
		return "The alleged father is excluded as the biological father."
	case ConclusionNotExcluded9999:
		return "The alleged father is not excluded. Probability of paternity exceeds 99.99%."
	case ConclusionNotExcluded999:
		return "The alleged father is not excluded. Probability of paternity exceeds 99.9%."
	case ConclusionNotExcluded990:
		return "The alleged father is not excluded. Probability of paternity exceeds 99.0%."
	case ConclusionInconclusive:
		return "The result is inconclusive."
	}
	return string(c)
}

// Excluded reports whether the conclusion is an exclusion.
func (c Conclusion) Excluded() bool {
	return c == ConclusionExcluded
}

// LocusResult is the paternity index of one locus.
type LocusResult struct {
	Locus          string    `json:"locus"`
	ChildAlleles   [2]string `json:"child_alleles"`
	MotherAlleles  []string  `json:"mother_alleles,omitempty"`
	FatherAlleles  [2]string `json:"father_alleles"`
	PaternalAllele string    `json:"paternal_allele"`
	// Inferred is set when the paternal allele was chosen as the rarer
	// child allele rather than deduced from the mother. Such loci carry
	// lower confidence.
	Inferred bool    `json:"inferred"`
	PI       float64 `json:"pi"`
	Excluded bool    `json:"excluded"`
}

// Result is the combined paternity result of a case.
type Result struct {
	CPI          float64       `json:"cpi"`
	Probability  float64       `json:"probability"`
	Prior        float64       `json:"prior"`
	Exclusions   int           `json:"exclusions"`
	LocusResults []LocusResult `json:"loci"`
	Conclusion   Conclusion    `json:"conclusion"`
}

// InferredLoci returns the number of loci scored on the rarer-allele path.
func (r *Result) InferredLoci() int {
	n := 0
	for _, lr := range r.LocusResults {
		if lr.Inferred {
			n++
		}
	}
	return n
}
