package kinship

import (
	"math"

	"github.com/inodb/vibe-kinship/internal/frequency"
	"github.com/inodb/vibe-kinship/internal/genotype"
)

// Probability thresholds for the not-excluded conclusions. Comparisons
// are strict.
const (
	threshold9999 = 99.99
	threshold999  = 99.9
	threshold990  = 99.0
)

// Options configure a combined analysis.
type Options struct {
	// Loci to score, in order. Defaults to StandardLoci.
	Loci []string
	// Prior probability of paternity. Defaults to DefaultPrior.
	Prior float64
	// Table supplies allele frequencies. Required.
	Table *frequency.Table
}

func (o Options) withDefaults() Options {
	if o.Loci == nil {
		o.Loci = StandardLoci
	}
	if o.Prior == 0 {
		o.Prior = DefaultPrior
	}
	return o
}

// Combine scores every configured locus for which both the child and the
// alleged father are typed and combines the indices into a Result.
func Combine(trio Trio, opts Options) (*Result, error) {
	if err := trio.Validate(); err != nil {
		return nil, err
	}

	opts = opts.withDefaults()
	if opts.Table == nil {
		return nil, ErrNoFrequencyTable
	}
	if !(opts.Prior > 0 && opts.Prior < 1) {
		return nil, ErrInvalidPrior
	}

	res := &Result{
		CPI:          1,
		Prior:        opts.Prior,
		LocusResults: make([]LocusResult, 0, len(opts.Loci)),
	}

	for _, locus := range opts.Loci {
		if genotype.NormalizeLocus(locus) == genotype.AmelogeninLocus {
			continue
		}

		child, ok := trio.Child.Call(locus)
		if !ok {
			continue
		}
		father, ok := trio.Father.Call(locus)
		if !ok {
			continue
		}
		var mother *genotype.Call
		if m, ok := trio.Mother.Call(locus); ok {
			mother = &m
		}

		lr, ok := CalculateLocus(locus, child, mother, father, opts.Table)
		if !ok {
			continue
		}

		res.LocusResults = append(res.LocusResults, lr)
		res.CPI *= lr.PI
		if lr.Excluded {
			res.Exclusions++
		}
	}

	res.Probability = Probability(res.CPI, opts.Prior)
	res.Conclusion = Classify(res.Probability, res.Exclusions)
	return res, nil
}

// Probability returns the posterior probability of paternity, as a
// percentage, for a combined index and prior.
func Probability(cpi, prior float64) float64 {
	switch {
	case cpi <= 0 || math.IsNaN(cpi):
		return 0
	case math.IsInf(cpi, 1):
		return 100
	}

	w := cpi * prior
	p := w / (w + (1 - prior)) * 100
	return math.Min(100, math.Max(0, p))
}

// Classify maps a probability and exclusion count to a conclusion.
// Any exclusion takes precedence over the probability.
func Classify(probability float64, exclusions int) Conclusion {
	switch {
	case exclusions > 0:
		return ConclusionExcluded
	case probability > threshold9999:
		return ConclusionNotExcluded9999
	case probability > threshold999:
		return ConclusionNotExcluded999
	case probability > threshold990:
		return ConclusionNotExcluded990
	}
	return ConclusionInconclusive
}
