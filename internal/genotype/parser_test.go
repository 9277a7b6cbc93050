package genotype

import (
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-kinship/internal/input"
)

const sampleExport = "# GeneMapper export\n" +
	"Run\t2024-03-11\n" +
	"\n" +
	"Sample File\tSample Name\tMarker\tAllele 1\tAllele 2\tHeight 1\n" +
	"A01.fsa\tCHILD-01\tD3S1358\t15\t16\t1200\n" +
	"A01.fsa\tCHILD-01\tAMEL\tX\tY\t900\n" +
	"A02.fsa\tAF-01\tD3S1358\t16\t18\t1100\n" +
	"short\trow\n" +
	"A03.fsa\tMOTHER-01\tD3S1358\t15\t17\t\n"

func TestResolveColumns(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   ColumnLayout
	}{
		{
			name:   "genemapper order",
			header: "Sample Name\tMarker\tAllele 1\tAllele 2\tHeight 1",
			want:   ColumnLayout{Sample: 0, Marker: 1, Allele1: 2, Allele2: 3, PeakHeight: 4},
		},
		{
			name:   "permuted with extra columns",
			header: "Dye\tAllele 2\tPeak Height\tMarker\tPanel\tAllele 1\tSample File",
			want:   ColumnLayout{Sample: 6, Marker: 3, Allele1: 5, Allele2: 1, PeakHeight: 2},
		},
		{
			name:   "first sample column wins",
			header: "Sample File\tSample Name\tMarker\tAllele 1\tAllele 2",
			want:   ColumnLayout{Sample: 0, Marker: 2, Allele1: 3, Allele2: 4, PeakHeight: -1},
		},
		{
			name:   "no marker column",
			header: "Sample Name\tAllele 1",
			want:   ColumnLayout{Sample: 0, Marker: -1, Allele1: 1, Allele2: -1, PeakHeight: -1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveColumns(strings.Split(tt.header, "\t"))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParser_SkipsMetadataAndMalformedRows(t *testing.T) {
	p, err := NewParserFromReader(strings.NewReader(sampleExport))
	require.NoError(t, err)

	assert.Equal(t, ColumnLayout{Sample: 0, Marker: 2, Allele1: 3, Allele2: 4, PeakHeight: 5}, p.Layout())
	assert.True(t, strings.HasPrefix(p.Header(), "Sample File"))

	records, err := p.All()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, Record{SampleName: "A01.fsa", Locus: "D3S1358", Allele1: "15", Allele2: "16", PeakHeight: "1200"}, records[0])
	assert.Equal(t, "AMEL", records[1].Locus)
	assert.Equal(t, "", records[3].PeakHeight)

	skipped := p.Skipped()
	require.Len(t, skipped, 1)
	assert.Equal(t, MalformedRow, skipped[0].Kind)
	assert.Equal(t, 8, skipped[0].Line)
}

func TestParser_NoHeader(t *testing.T) {
	_, err := ParseString("Run\t1\nD3S1358\t15\t16\n")
	require.Error(t, err)

	var perr *ParseError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, NoHeaderFound, perr.Kind)
	assert.True(t, errors.Is(err, ErrNoHeader))
}

func TestParser_EmptyInput(t *testing.T) {
	_, err := ParseString("")
	assert.True(t, errors.Is(err, ErrNoHeader))
}

func TestParser_HeaderWithoutMarkerYieldsNothing(t *testing.T) {
	records, err := ParseString("Sample Name\tAllele 1\tAllele 2\nS1\t15\t16\n")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestParser_CRLFAndMissingTrailingNewline(t *testing.T) {
	input := "Sample Name\tMarker\tAllele 1\tAllele 2\r\nS1\tTH01\t9.3\t6\r\nS1\tFGA\t22\t"
	records, err := ParseString(input)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "9.3", records[0].Allele1)
	assert.Equal(t, "6", records[0].Allele2)
	assert.Equal(t, "FGA", records[1].Locus)
	assert.Equal(t, "", records[1].Allele2)
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Line:    42,
		Kind:    MalformedRow,
		Message: "expected at least 3 fields, found 2",
	}

	expected := "genotype parse error at line 42: malformed row: expected at least 3 fields, found 2"
	assert.Equal(t, expected, err.Error())
	assert.False(t, errors.Is(err, ErrNoHeader))
}

func TestNewParser_GzippedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plate.txt.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(sampleExport))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	p, err := NewParser(context.Background(), path, input.Options{})
	require.NoError(t, err)
	defer p.Close()

	records, err := p.All()
	require.NoError(t, err)
	assert.Len(t, records, 4)
	assert.NoError(t, p.Close())
}

func TestNewParser_MissingFile(t *testing.T) {
	_, err := NewParser(context.Background(), filepath.Join(t.TempDir(), "missing.txt"), input.Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
