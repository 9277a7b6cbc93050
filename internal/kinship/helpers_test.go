package kinship

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-kinship/internal/frequency"
	"github.com/inodb/vibe-kinship/internal/genotype"
)

// newProfile builds a profile from locus -> allele pair.
func newProfile(name string, calls map[string][2]string) *genotype.Profile {
	p := genotype.NewProfile(name)
	for locus, a := range calls {
		p.Set(locus, genotype.Call{Allele1: a[0], Allele2: a[1]})
	}
	return p
}

func call(a, b string) genotype.Call {
	return genotype.Call{Allele1: a, Allele2: b}
}

func testTable(t *testing.T) *frequency.Table {
	t.Helper()
	tbl, err := frequency.New("test", map[string]map[string]float64{
		"D3S1358": {"14": 0.134, "15": 0.254, "16": 0.234, "17": 0.195, "18": 0.142},
		"TH01":    {"6": 0.232, "7": 0.190, "9.3": 0.367},
		"FGA":     {"21": 0.171, "22": 0.188, "23": 0.140},
	}, frequency.DefaultFrequency)
	require.NoError(t, err)
	return tbl
}
