package kinship

import (
	"github.com/inodb/vibe-kinship/internal/frequency"
	"github.com/inodb/vibe-kinship/internal/genotype"
)

// ResolvePaternalAllele returns the allele the child most plausibly
// received from the father at locus.
//
// When the mother is typed and lacks one of the child's alleles, that
// allele is paternal (allele 1 is checked first). Otherwise the rarer of
// the child's two alleles is chosen, ties going to allele 1, and inferred
// is true. The rarer-allele rule is an approximation kept for
// compatibility with existing casework.
func ResolvePaternalAllele(locus string, child genotype.Call, mother *genotype.Call, table *frequency.Table) (allele string, inferred bool) {
	c1, c2, _ := child.Alleles()

	if mother != nil && mother.Present() {
		if !mother.Has(c1) {
			return c1, false
		}
		if !mother.Has(c2) {
			return c2, false
		}
	}

	if table.Frequency(locus, c2) < table.Frequency(locus, c1) {
		return c2, true
	}
	return c1, true
}
