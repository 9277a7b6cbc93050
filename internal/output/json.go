package output

import (
	"encoding/json"
	"io"

	"github.com/inodb/vibe-kinship/internal/kinship"
)

// CaseReport is the JSON document written for one case.
type CaseReport struct {
	CaseID  string            `json:"case_id"`
	Samples map[string]Sample `json:"samples"`
	Result  *kinship.Result   `json:"result,omitempty"`
	Error   string            `json:"error,omitempty"`
}

// Sample describes one trio member in a report.
type Sample struct {
	Name string      `json:"name"`
	Sex  kinship.Sex `json:"sex"`
}

// NewCaseReport builds a report from a trio and its result. err is
// recorded in place of the result when the case failed.
func NewCaseReport(caseID string, trio kinship.Trio, res *kinship.Result, err error) CaseReport {
	r := CaseReport{
		CaseID:  caseID,
		Samples: make(map[string]Sample),
		Result:  res,
	}
	for _, role := range kinship.Roles {
		if p := trio.Profile(role); p != nil {
			r.Samples[string(role)] = Sample{Name: p.SampleName, Sex: kinship.DetermineSex(p)}
		}
	}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// JSONWriter writes one JSON document per line.
type JSONWriter struct {
	enc *json.Encoder
}

// NewJSONWriter creates a JSON lines writer.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{enc: json.NewEncoder(w)}
}

// Write writes a single case report.
func (jw *JSONWriter) Write(r CaseReport) error {
	return jw.enc.Encode(r)
}
