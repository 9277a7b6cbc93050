package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/vibe-kinship/internal/genotype"
)

// ProfileWriter writes profiles back in the tab-delimited export layout
// the genotype parser reads.
type ProfileWriter struct {
	w *bufio.Writer
}

// NewProfileWriter creates a new profile writer.
func NewProfileWriter(w io.Writer) *ProfileWriter {
	return &ProfileWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (pw *ProfileWriter) WriteHeader() error {
	_, err := pw.w.WriteString(strings.Join([]string{
		"Sample Name",
		genotype.TokenMarker,
		genotype.TokenAllele1,
		genotype.TokenAllele2,
		genotype.TokenHeight,
	}, "\t") + "\n")
	return err
}

// Write writes every locus of a profile in sorted locus order.
func (pw *ProfileWriter) Write(p *genotype.Profile) error {
	for _, locus := range p.LocusNames() {
		c := p.Loci[locus]
		line := strings.Join([]string{p.SampleName, locus, c.Allele1, c.Allele2, c.PeakHeight}, "\t")
		if _, err := pw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (pw *ProfileWriter) Flush() error {
	return pw.w.Flush()
}
