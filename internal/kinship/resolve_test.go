package kinship

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inodb/vibe-kinship/internal/genotype"
)

func TestResolvePaternalAllele(t *testing.T) {
	tbl := testTable(t)

	mother := func(a, b string) *genotype.Call {
		c := call(a, b)
		return &c
	}

	tests := []struct {
		name     string
		child    genotype.Call
		mother   *genotype.Call
		want     string
		inferred bool
	}{
		{"allele 2 absent from mother", call("15", "16"), mother("15", "17"), "16", false},
		{"allele 1 absent from mother", call("16", "15"), mother("15", "17"), "16", false},
		{"neither in mother picks allele 1", call("14", "16"), mother("15", "17"), "14", false},
		{"homozygous child absent from mother", call("18", "18"), mother("15", "17"), "18", false},
		{"both consistent with mother picks rarer", call("15", "17"), mother("15", "17"), "17", true},
		{"no mother picks rarer", call("15", "14"), nil, "14", true},
		{"no mother rarer is allele 1", call("14", "15"), nil, "14", true},
		{"unlisted allele uses default and is rarest", call("15", "21"), nil, "21", true},
		{"tie keeps allele 1", call("20", "21"), nil, "20", true},
		{"untyped mother treated as absent", call("15", "16"), &genotype.Call{}, "16", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, inferred := ResolvePaternalAllele("D3S1358", tt.child, tt.mother, tbl)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.inferred, inferred)
		})
	}
}
