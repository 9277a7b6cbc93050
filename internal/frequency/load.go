package frequency

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed data/default.yaml
var defaultTableYAML []byte

// fileFormat is the YAML layout of a frequency table.
type fileFormat struct {
	Name             string                        `yaml:"name"`
	DefaultFrequency float64                       `yaml:"default_frequency"`
	Loci             map[string]map[string]float64 `yaml:"loci"`
}

var builtin = sync.OnceValues(func() (*Table, error) {
	return LoadYAML(bytes.NewReader(defaultTableYAML))
})

// Builtin returns the table shipped with the binary.
func Builtin() (*Table, error) {
	return builtin()
}

// LoadFile loads a table from a YAML (.yaml, .yml) or tab-delimited file.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open frequency table: %w", err)
	}
	defer f.Close()

	return Load(f, path)
}

// Load reads a table from r, choosing the format from the extension of
// name. A ".gz" suffix is ignored when choosing.
func Load(r io.Reader, name string) (*Table, error) {
	base := strings.TrimSuffix(filepath.Base(name), ".gz")
	switch strings.ToLower(filepath.Ext(base)) {
	case ".yaml", ".yml":
		return LoadYAML(r)
	default:
		return LoadTSV(r, base, DefaultFrequency)
	}
}

// LoadYAML reads a table in YAML form:
//
//	name: example
//	default_frequency: 0.01
//	loci:
//	  D3S1358:
//	    "15": 0.254
func LoadYAML(r io.Reader) (*Table, error) {
	var ff fileFormat
	if err := yaml.NewDecoder(r).Decode(&ff); err != nil {
		return nil, fmt.Errorf("decode frequency table: %w", err)
	}
	if ff.DefaultFrequency == 0 {
		ff.DefaultFrequency = DefaultFrequency
	}
	return New(ff.Name, ff.Loci, ff.DefaultFrequency)
}

// LoadTSV reads locus, allele and frequency columns. Blank lines, lines
// starting with '#' and a header row whose first field is "locus" are
// ignored; the header may follow leading comments.
func LoadTSV(r io.Reader, name string, defaultFreq float64) (*Table, error) {
	loci := make(map[string]map[string]float64)
	scanner := bufio.NewScanner(r)
	lineNumber := 0
	seenRow := false

	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		first := !seenRow
		seenRow = true
		if first && strings.EqualFold(strings.TrimSpace(fields[0]), "locus") {
			continue
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("frequency table line %d: expected 3 fields, found %d", lineNumber, len(fields))
		}

		locus := strings.TrimSpace(fields[0])
		allele := strings.TrimSpace(fields[1])
		f, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("frequency table line %d: invalid frequency %q", lineNumber, fields[2])
		}

		if loci[locus] == nil {
			loci[locus] = make(map[string]float64)
		}
		loci[locus][allele] = f
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan frequency table: %w", err)
	}

	return New(name, loci, defaultFreq)
}

// WriteTSV writes the table in the form LoadTSV reads.
func WriteTSV(w io.Writer, t *Table) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("locus\tallele\tfrequency\n"); err != nil {
		return err
	}
	for _, locus := range t.Loci() {
		alleles := t.Alleles(locus)
		for _, a := range sortedAlleles(alleles) {
			fmt.Fprintf(bw, "%s\t%s\t%s\n", locus, a, strconv.FormatFloat(alleles[a], 'g', -1, 64))
		}
	}
	return bw.Flush()
}
