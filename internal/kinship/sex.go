package kinship

import (
	"strings"

	"github.com/inodb/vibe-kinship/internal/genotype"
)

// Sex is the sex inferred from the amelogenin marker.
type Sex string

const (
	SexMale   Sex = "M"
	SexFemale Sex = "F"
)

// DetermineSex returns SexMale when the amelogenin call is X,Y and
// SexFemale otherwise, including when amelogenin was not typed.
// Aneuploid patterns are not distinguished.
func DetermineSex(p *genotype.Profile) Sex {
	c, ok := p.Call(genotype.AmelogeninLocus)
	if !ok {
		return SexFemale
	}
	a := strings.ToUpper(c.Allele1)
	b := strings.ToUpper(c.Allele2)
	if (a == "X" && b == "Y") || (a == "Y" && b == "X") {
		return SexMale
	}
	return SexFemale
}
