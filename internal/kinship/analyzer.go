package kinship

import (
	"go.uber.org/zap"

	"github.com/inodb/vibe-kinship/internal/frequency"
)

// Analyzer runs paternity analyses with a fixed configuration. It holds no
// per-case state and may be shared between goroutines once configured.
type Analyzer struct {
	table  *frequency.Table
	loci   []string
	prior  float64
	logger *zap.Logger
}

// NewAnalyzer creates an analyzer using the given frequency table.
func NewAnalyzer(table *frequency.Table) *Analyzer {
	return &Analyzer{
		table:  table,
		loci:   StandardLoci,
		prior:  DefaultPrior,
		logger: zap.NewNop(),
	}
}

// SetLoci sets the ordered list of loci to score.
func (a *Analyzer) SetLoci(loci []string) {
	a.loci = loci
}

// SetPrior sets the prior probability of paternity.
func (a *Analyzer) SetPrior(prior float64) {
	a.prior = prior
}

// SetLogger sets the logger for warning and info messages.
func (a *Analyzer) SetLogger(l *zap.Logger) {
	a.logger = l
}

// Table returns the frequency table in use.
func (a *Analyzer) Table() *frequency.Table {
	return a.table
}

// Analyze computes the combined paternity result for one case.
func (a *Analyzer) Analyze(caseID string, trio Trio) (*Result, error) {
	res, err := Combine(trio, Options{
		Loci:  a.loci,
		Prior: a.prior,
		Table: a.table,
	})
	if err != nil {
		return nil, err
	}

	if n := res.InferredLoci(); n > 0 {
		a.logger.Info("paternal allele inferred from allele frequency",
			zap.String("case", caseID),
			zap.Int("loci", n))
	}
	if len(res.LocusResults) == 0 {
		a.logger.Warn("no loci typed in both child and alleged father",
			zap.String("case", caseID))
	}

	a.logger.Debug("case analyzed",
		zap.String("case", caseID),
		zap.Float64("cpi", res.CPI),
		zap.Float64("probability", res.Probability),
		zap.Int("exclusions", res.Exclusions),
		zap.String("conclusion", string(res.Conclusion)))

	return res, nil
}
