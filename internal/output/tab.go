// Package output provides paternity result and profile formatters.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-kinship/internal/kinship"
)

// TabWriter writes per-locus paternity results in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#Case",
			"Locus",
			"Child",
			"Mother",
			"Alleged_Father",
			"Paternal_Allele",
			"Inferred",
			"PI",
			"Excluded",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes the locus rows of one case.
func (tw *TabWriter) Write(caseID string, res *kinship.Result) error {
	for i := range res.LocusResults {
		if err := tw.writeLocus(caseID, &res.LocusResults[i]); err != nil {
			return err
		}
	}
	return nil
}

func (tw *TabWriter) writeLocus(caseID string, lr *kinship.LocusResult) error {
	mother := "-"
	if len(lr.MotherAlleles) > 0 {
		mother = strings.Join(lr.MotherAlleles, "/")
	}

	values := []string{
		caseID,
		lr.Locus,
		lr.ChildAlleles[0] + "/" + lr.ChildAlleles[1],
		mother,
		lr.FatherAlleles[0] + "/" + lr.FatherAlleles[1],
		dash(lr.PaternalAllele),
		yesNo(lr.Inferred),
		FormatPI(lr.PI),
		yesNo(lr.Excluded),
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// WriteSummary writes the combined result of a case in human-readable form.
func WriteSummary(w io.Writer, caseID string, res *kinship.Result) {
	fmt.Fprintf(w, "\nCase %s:\n", caseID)
	fmt.Fprintf(w, "  Loci scored:     %d (%d inferred)\n", len(res.LocusResults), res.InferredLoci())
	fmt.Fprintf(w, "  Exclusions:      %d\n", res.Exclusions)
	fmt.Fprintf(w, "  CPI:             %s\n", FormatPI(res.CPI))
	fmt.Fprintf(w, "  Probability:     %.4f%% (prior %.2f)\n", res.Probability, res.Prior)
	fmt.Fprintf(w, "  Conclusion:      %s (%s)\n", res.Conclusion, res.Conclusion.Description())
}

// FormatPI formats a paternity index with six significant digits.
func FormatPI(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
