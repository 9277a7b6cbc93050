package kinship

import (
	"github.com/inodb/vibe-kinship/internal/frequency"
	"github.com/inodb/vibe-kinship/internal/genotype"
)

// Transmission probabilities of an allele the father carries.
const (
	homozygousTransmission   = 1.0
	heterozygousTransmission = 0.5
)

// CalculateLocus computes the paternity index at one locus. ok is false
// when the locus is not scored: amelogenin, or a missing child or father
// call. A missing call is never treated as an exclusion.
func CalculateLocus(locus string, child genotype.Call, mother *genotype.Call, father genotype.Call, table *frequency.Table) (LocusResult, bool) {
	if genotype.NormalizeLocus(locus) == genotype.AmelogeninLocus {
		return LocusResult{}, false
	}

	c1, c2, ok := child.Alleles()
	if !ok {
		return LocusResult{}, false
	}
	f1, f2, ok := father.Alleles()
	if !ok {
		return LocusResult{}, false
	}

	lr := LocusResult{
		Locus:         locus,
		ChildAlleles:  [2]string{c1, c2},
		FatherAlleles: [2]string{f1, f2},
	}
	if mother != nil {
		if m1, m2, ok := mother.Alleles(); ok {
			lr.MotherAlleles = []string{m1, m2}
		} else {
			mother = nil
		}
	}

	paternal, inferred := ResolvePaternalAllele(locus, child, mother, table)
	lr.PaternalAllele = paternal
	lr.Inferred = inferred

	if paternal != f1 && paternal != f2 {
		lr.PI = 0
		lr.Excluded = true
		return lr, true
	}

	transmission := heterozygousTransmission
	if f1 == f2 {
		transmission = homozygousTransmission
	}

	lr.PI = transmission / table.Frequency(locus, paternal)
	return lr, true
}
