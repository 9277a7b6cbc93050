package genotype

import "sort"

// Profile is the set of marker calls of one sample, keyed by normalized
// locus name.
type Profile struct {
	SampleName string
	Loci       map[string]Call
}

// NewProfile creates an empty profile for a sample.
func NewProfile(sampleName string) *Profile {
	return &Profile{
		SampleName: sampleName,
		Loci:       make(map[string]Call),
	}
}

// Set stores the call at locus, replacing any earlier call.
func (p *Profile) Set(locus string, c Call) {
	p.Loci[NormalizeLocus(locus)] = c
}

// Call returns the call at locus and whether it carries any allele.
func (p *Profile) Call(locus string) (Call, bool) {
	if p == nil {
		return Call{}, false
	}
	c, ok := p.Loci[NormalizeLocus(locus)]
	if !ok || !c.Present() {
		return Call{}, false
	}
	return c, true
}

// LocusNames returns the profile's loci in sorted order.
func (p *Profile) LocusNames() []string {
	names := make([]string, 0, len(p.Loci))
	for name := range p.Loci {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GroupProfiles groups records by sample name. When the same sample and
// locus appear more than once, the later record wins.
func GroupProfiles(records []Record) map[string]*Profile {
	profiles := make(map[string]*Profile)
	for _, r := range records {
		p, ok := profiles[r.SampleName]
		if !ok {
			p = NewProfile(r.SampleName)
			profiles[r.SampleName] = p
		}
		p.Set(r.Locus, Call{
			Allele1:    r.Allele1,
			Allele2:    r.Allele2,
			PeakHeight: r.PeakHeight,
		})
	}
	return profiles
}

// SampleNames returns the distinct sample names in first-seen order.
func SampleNames(records []Record) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range records {
		if !seen[r.SampleName] {
			seen[r.SampleName] = true
			names = append(names, r.SampleName)
		}
	}
	return names
}
