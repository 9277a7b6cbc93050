package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-kinship/internal/kinship"
)

func sampleResult() *kinship.Result {
	return &kinship.Result{
		CPI:         4.2735,
		Probability: 81.0367,
		Prior:       0.5,
		LocusResults: []kinship.LocusResult{
			{
				Locus:          "D3S1358",
				ChildAlleles:   [2]string{"15", "16"},
				MotherAlleles:  []string{"15", "17"},
				FatherAlleles:  [2]string{"16", "18"},
				PaternalAllele: "16",
				PI:             0.5 / 0.234,
			},
			{
				Locus:          "TH01",
				ChildAlleles:   [2]string{"7", "9.3"},
				FatherAlleles:  [2]string{"9.3", "9.3"},
				PaternalAllele: "9.3",
				Inferred:       true,
				PI:             2,
			},
		},
		Conclusion: kinship.ConclusionInconclusive,
	}
}

func TestTabWriter_WriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Flush())

	header := buf.String()
	assert.True(t, strings.HasPrefix(header, "#Case\tLocus\t"))
	for _, col := range []string{"Child", "Mother", "Alleged_Father", "Paternal_Allele", "PI", "Excluded"} {
		assert.Contains(t, header, col)
	}
}

func TestTabWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf)

	require.NoError(t, w.Write("case-1", sampleResult()))
	require.NoError(t, w.Flush())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	assert.Equal(t, []string{"case-1", "D3S1358", "15/16", "15/17", "16/18", "16", "no", "2.13675", "no"},
		strings.Split(lines[0], "\t"))

	fields := strings.Split(lines[1], "\t")
	assert.Equal(t, "-", fields[3], "no mother typed")
	assert.Equal(t, "yes", fields[6])
	assert.Equal(t, "2", fields[7])
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	WriteSummary(&buf, "case-1", sampleResult())

	out := buf.String()
	assert.Contains(t, out, "Case case-1:")
	assert.Contains(t, out, "Loci scored:     2 (1 inferred)")
	assert.Contains(t, out, "Probability:     81.0367%")
	assert.Contains(t, out, "INCONCLUSIVE")
}

func TestFormatPI(t *testing.T) {
	assert.Equal(t, "0", FormatPI(0))
	assert.Equal(t, "50", FormatPI(50))
	assert.Equal(t, "1.23457e+08", FormatPI(123456789))
}
