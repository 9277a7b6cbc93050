package genotype

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/inodb/vibe-kinship/internal/input"
)

// Header tokens used to locate columns. Matching is by substring so that
// "Sample Name", "Sample File" and "Marker" variants from different export
// tools all resolve.
const (
	TokenSample  = "Sample"
	TokenMarker  = "Marker"
	TokenAllele1 = "Allele 1"
	TokenAllele2 = "Allele 2"
	TokenHeight  = "Height"
	TokenPeak    = "Peak"
)

// minDataFields is the smallest number of tab-separated fields a data row
// needs to be considered.
const minDataFields = 3

// ColumnLayout holds the column indices resolved from a header row.
// Columns that were not found are -1.
type ColumnLayout struct {
	Sample     int
	Marker     int
	Allele1    int
	Allele2    int
	PeakHeight int
}

// Usable reports whether the layout can produce records.
func (l ColumnLayout) Usable() bool {
	return l.Sample >= 0 && l.Marker >= 0
}

// IsHeader reports whether the fields of a line form a header row.
func IsHeader(fields []string) bool {
	for _, f := range fields {
		if strings.Contains(f, TokenSample) {
			return true
		}
	}
	return false
}

// ResolveColumns finds the column positions in a header row. The first
// matching column wins for each role.
func ResolveColumns(header []string) ColumnLayout {
	l := ColumnLayout{
		Sample:     -1,
		Marker:     -1,
		Allele1:    -1,
		Allele2:    -1,
		PeakHeight: -1,
	}

	for i, col := range header {
		switch {
		case l.Sample == -1 && strings.Contains(col, TokenSample):
			l.Sample = i
		case l.Marker == -1 && strings.Contains(col, TokenMarker):
			l.Marker = i
		case l.Allele1 == -1 && strings.Contains(col, TokenAllele1):
			l.Allele1 = i
		case l.Allele2 == -1 && strings.Contains(col, TokenAllele2):
			l.Allele2 = i
		case l.PeakHeight == -1 && (strings.Contains(col, TokenHeight) || strings.Contains(col, TokenPeak)):
			l.PeakHeight = i
		}
	}

	return l
}

// ParseErrorKind classifies parse failures.
type ParseErrorKind int

const (
	// NoHeaderFound means the input never contained a header row.
	NoHeaderFound ParseErrorKind = iota + 1
	// MalformedRow means a data row could not be used. Such rows are
	// skipped rather than returned to the caller.
	MalformedRow
)

func (k ParseErrorKind) String() string {
	switch k {
	case NoHeaderFound:
		return "no header found"
	case MalformedRow:
		return "malformed row"
	}
	return "unknown"
}

// ParseError represents an error during genotype parsing with line context.
type ParseError struct {
	Line    int
	Kind    ParseErrorKind
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("genotype parse error at line %d: %s: %s", e.Line, e.Kind, e.Message)
}

// Is makes errors.Is match any *ParseError of the same kind.
func (e *ParseError) Is(target error) bool {
	t, ok := target.(*ParseError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Line == 0 || t.Line == e.Line)
}

// ErrNoHeader matches a ParseError of kind NoHeaderFound with errors.Is.
var ErrNoHeader = &ParseError{Kind: NoHeaderFound}

// Parser reads genotype records from a tab-delimited export.
type Parser struct {
	reader     *bufio.Reader
	lineNumber int
	layout     ColumnLayout
	headerLine string
	skipped    []*ParseError
	logger     *zap.Logger
	closer     io.Closer
}

// NewParser creates a parser for the export at path. Gzipped exports,
// "-" for stdin and s3:// URIs are supported.
func NewParser(ctx context.Context, path string, opts input.Options) (*Parser, error) {
	rc, err := input.Open(ctx, path, opts)
	if err != nil {
		return nil, fmt.Errorf("open genotype file: %w", err)
	}

	p, err := NewParserFromReader(rc)
	if err != nil {
		rc.Close()
		return nil, err
	}
	p.closer = rc
	return p, nil
}

// NewParserFromReader creates a parser and consumes input up to and
// including the header row.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	p := &Parser{
		reader: bufio.NewReader(r),
		logger: zap.NewNop(),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// SetLogger sets the logger used to report skipped rows.
func (p *Parser) SetLogger(l *zap.Logger) {
	p.logger = l
}

// readLine returns the next non-blank line, or io.EOF.
func (p *Parser) readLine() (string, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if line == "" && err != nil {
			return "", err
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) != "" {
			return line, nil
		}
		if err != nil {
			return "", err
		}
	}
}

// parseHeader skips metadata lines until the header row.
func (p *Parser) parseHeader() error {
	for {
		line, err := p.readLine()
		if err != nil {
			if err == io.EOF {
				return &ParseError{
					Line:    p.lineNumber,
					Kind:    NoHeaderFound,
					Message: fmt.Sprintf("no line contains a %q column", TokenSample),
				}
			}
			return fmt.Errorf("read header: %w", err)
		}

		fields := strings.Split(line, "\t")
		if !IsHeader(fields) {
			continue
		}

		p.headerLine = line
		p.layout = ResolveColumns(fields)
		return nil
	}
}

// Next reads the next record. Rows that cannot be used are skipped and
// recorded. Returns nil, nil when there are no more records, or
// immediately when the header lacks a sample or marker column.
func (p *Parser) Next() (*Record, error) {
	if !p.layout.Usable() {
		return nil, nil
	}

	for {
		line, err := p.readLine()
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, fmt.Errorf("read genotype line: %w", err)
		}

		rec, perr := p.parseLine(line)
		if perr != nil {
			p.skipped = append(p.skipped, perr)
			p.logger.Debug("skipping genotype row",
				zap.Int("line", perr.Line),
				zap.String("reason", perr.Message))
			continue
		}
		return rec, nil
	}
}

// parseLine parses a single data line into a Record.
func (p *Parser) parseLine(line string) (*Record, *ParseError) {
	fields := strings.Split(line, "\t")

	if len(fields) < minDataFields {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Kind:    MalformedRow,
			Message: fmt.Sprintf("expected at least %d fields, found %d", minDataFields, len(fields)),
		}
	}

	sample := field(fields, p.layout.Sample)
	locus := field(fields, p.layout.Marker)
	if sample == "" || locus == "" {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Kind:    MalformedRow,
			Message: "missing sample name or marker",
		}
	}

	return &Record{
		SampleName: sample,
		Locus:      locus,
		Allele1:    field(fields, p.layout.Allele1),
		Allele2:    field(fields, p.layout.Allele2),
		PeakHeight: field(fields, p.layout.PeakHeight),
	}, nil
}

// field returns the trimmed value at index i, or "" when the column is
// absent from the layout or the row.
func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

// All reads every remaining record.
func (p *Parser) All() ([]Record, error) {
	var records []Record
	for {
		rec, err := p.Next()
		if err != nil {
			return nil, err
		}
		if rec == nil {
			return records, nil
		}
		records = append(records, *rec)
	}
}

// Header returns the header line.
func (p *Parser) Header() string {
	return p.headerLine
}

// Layout returns the resolved column layout.
func (p *Parser) Layout() ColumnLayout {
	return p.layout
}

// Skipped returns the rows that were skipped so far.
func (p *Parser) Skipped() []*ParseError {
	return p.skipped
}

// Close closes the underlying input when the parser opened it.
func (p *Parser) Close() error {
	if p.closer == nil {
		return nil
	}
	err := p.closer.Close()
	p.closer = nil
	return err
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// ParseString parses a complete export held in memory.
func ParseString(content string) ([]Record, error) {
	p, err := NewParserFromReader(strings.NewReader(content))
	if err != nil {
		return nil, err
	}
	return p.All()
}
