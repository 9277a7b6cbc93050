package genotype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupProfiles_RoundTrip(t *testing.T) {
	input := "Sample Name\tMarker\tAllele 1\tAllele 2\tHeight\n" +
		"S1\tD3S1358\t15\t16\t1000\n" +
		"S1\tvWA\t17\t18\t800\n" +
		"S2\tD3S1358\t14\t14\t1500\n" +
		"S1\tD3S1358\t15\t17\t1010\n"

	records, err := ParseString(input)
	require.NoError(t, err)

	profiles := GroupProfiles(records)
	require.Len(t, profiles, 2)

	s1 := profiles["S1"]
	require.NotNil(t, s1)
	assert.Equal(t, []string{"D3S1358", "VWA"}, s1.LocusNames())

	// later duplicate row wins
	c, ok := s1.Call("D3S1358")
	require.True(t, ok)
	assert.Equal(t, Call{Allele1: "15", Allele2: "17", PeakHeight: "1010"}, c)

	c, ok = s1.Call("vWA")
	require.True(t, ok)
	assert.Equal(t, "18", c.Allele2)

	s2 := profiles["S2"]
	assert.Equal(t, []string{"D3S1358"}, s2.LocusNames())

	assert.Equal(t, []string{"S1", "S2"}, SampleNames(records))
}

func TestProfile_CallMissing(t *testing.T) {
	p := NewProfile("S1")
	p.Set("FGA", Call{})

	_, ok := p.Call("FGA")
	assert.False(t, ok, "call without alleles is missing")

	_, ok = p.Call("TPOX")
	assert.False(t, ok)

	var nilProfile *Profile
	_, ok = nilProfile.Call("TPOX")
	assert.False(t, ok)
}

func TestCall_Alleles(t *testing.T) {
	tests := []struct {
		name   string
		call   Call
		a, b   string
		ok     bool
		homozy bool
	}{
		{"heterozygous", Call{Allele1: "15", Allele2: "16"}, "15", "16", true, false},
		{"homozygous", Call{Allele1: "14", Allele2: "14"}, "14", "14", true, true},
		{"single allele listed", Call{Allele1: "9.3"}, "9.3", "9.3", true, true},
		{"only second allele", Call{Allele2: "8"}, "8", "8", true, true},
		{"no call", Call{}, "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b, ok := tt.call.Alleles()
			assert.Equal(t, tt.a, a)
			assert.Equal(t, tt.b, b)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.homozy, tt.call.Homozygous())
		})
	}
}

func TestCall_Height(t *testing.T) {
	h, ok := Call{PeakHeight: "1234"}.Height()
	assert.True(t, ok)
	assert.Equal(t, 1234.0, h)

	h, ok = Call{PeakHeight: "812, 790"}.Height()
	assert.True(t, ok)
	assert.Equal(t, 812.0, h)

	_, ok = Call{PeakHeight: "n/a"}.Height()
	assert.False(t, ok)

	_, ok = Call{}.Height()
	assert.False(t, ok)
}

func TestNormalizeLocus(t *testing.T) {
	assert.Equal(t, "VWA", NormalizeLocus(" vWA "))
	assert.Equal(t, "AMEL", NormalizeLocus("Amelogenin"))
	assert.Equal(t, "TH01", NormalizeLocus("THO1"))
	assert.Equal(t, "PENTA D", NormalizeLocus("Penta D"))
	assert.Equal(t, "D3S1358", NormalizeLocus("D3S1358"))
}
