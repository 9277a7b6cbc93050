package kinship

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/inodb/vibe-kinship/internal/genotype"
)

func TestDetermineSex(t *testing.T) {
	tests := []struct {
		name  string
		calls map[string][2]string
		want  Sex
	}{
		{"XY", map[string][2]string{"AMEL": {"X", "Y"}}, SexMale},
		{"YX", map[string][2]string{"AMEL": {"Y", "X"}}, SexMale},
		{"lower case", map[string][2]string{"Amelogenin": {"x", "y"}}, SexMale},
		{"XX", map[string][2]string{"AMEL": {"X", "X"}}, SexFemale},
		{"X only", map[string][2]string{"AMEL": {"X", ""}}, SexFemale},
		{"not typed", map[string][2]string{"TPOX": {"8", "9"}}, SexFemale},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineSex(newProfile("s", tt.calls)))
		})
	}

	var none *genotype.Profile
	assert.Equal(t, SexFemale, DetermineSex(none))
}
