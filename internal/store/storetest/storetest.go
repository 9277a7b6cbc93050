// Package storetest holds behaviour tests shared by every store.Store
// implementation.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-kinship/internal/genotype"
	"github.com/inodb/vibe-kinship/internal/kinship"
	"github.com/inodb/vibe-kinship/internal/store"
)

// Run exercises s. Each store must start empty.
func Run(t *testing.T, open func(t *testing.T) store.Store) {
	t.Run("SaveAndLoadCase", func(t *testing.T) { testSaveAndLoadCase(t, open(t)) })
	t.Run("SaveSampleReplaces", func(t *testing.T) { testSaveSampleReplaces(t, open(t)) })
	t.Run("CaseNotFound", func(t *testing.T) { testCaseNotFound(t, open(t)) })
	t.Run("SaveAndLoadResult", func(t *testing.T) { testSaveAndLoadResult(t, open(t)) })
	t.Run("ResaveCase", func(t *testing.T) { testResaveCase(t, open(t)) })
	t.Run("ListCases", func(t *testing.T) { testListCases(t, open(t)) })
}

func profile(name string, calls map[string][3]string) *genotype.Profile {
	p := genotype.NewProfile(name)
	for locus, c := range calls {
		p.Set(locus, genotype.Call{Allele1: c[0], Allele2: c[1], PeakHeight: c[2]})
	}
	return p
}

func childProfile() *genotype.Profile {
	return profile("CHILD-01", map[string][3]string{
		"D3S1358": {"15", "16", "1200"},
		"TH01":    {"9.3", "6", ""},
		"AMEL":    {"X", "Y", "900"},
	})
}

func fatherProfile() *genotype.Profile {
	return profile("AF-01", map[string][3]string{
		"D3S1358": {"16", "18", "1100"},
		"TH01":    {"6", "6", "1500"},
	})
}

func testSaveAndLoadCase(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.SaveSample(ctx, "case-1", kinship.RoleChild, childProfile()))
	require.NoError(t, s.SaveSample(ctx, "case-1", kinship.RoleAllegedFather, fatherProfile()))

	trio, err := s.LoadCase(ctx, "case-1")
	require.NoError(t, err)

	require.NotNil(t, trio.Child)
	require.NotNil(t, trio.Father)
	assert.Nil(t, trio.Mother)

	assert.Equal(t, "CHILD-01", trio.Child.SampleName)
	assert.Equal(t, childProfile().Loci, trio.Child.Loci)
	assert.Equal(t, fatherProfile().Loci, trio.Father.Loci)
}

func testSaveSampleReplaces(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.SaveSample(ctx, "case-1", kinship.RoleChild, childProfile()))

	corrected := profile("CHILD-01b", map[string][3]string{
		"D3S1358": {"15", "17", "1250"},
	})
	require.NoError(t, s.SaveSample(ctx, "case-1", kinship.RoleChild, corrected))

	trio, err := s.LoadCase(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, "CHILD-01b", trio.Child.SampleName)
	assert.Equal(t, corrected.Loci, trio.Child.Loci)
}

func testCaseNotFound(t *testing.T, s store.Store) {
	ctx := context.Background()

	_, err := s.LoadCase(ctx, "nope")
	assert.True(t, errors.Is(err, store.ErrCaseNotFound), "got %v", err)

	_, err = s.LoadResult(ctx, "nope")
	assert.True(t, errors.Is(err, store.ErrResultNotFound), "got %v", err)
}

func sampleResult() *kinship.Result {
	return &kinship.Result{
		CPI:         9.2,
		Probability: 90.196,
		Prior:       0.5,
		Exclusions:  0,
		Conclusion:  kinship.ConclusionInconclusive,
		LocusResults: []kinship.LocusResult{
			{
				Locus:          "D3S1358",
				ChildAlleles:   [2]string{"15", "16"},
				MotherAlleles:  []string{"15", "17"},
				FatherAlleles:  [2]string{"16", "18"},
				PaternalAllele: "16",
				PI:             2.1367521367521367,
			},
			{
				Locus:          "TH01",
				ChildAlleles:   [2]string{"9.3", "6"},
				FatherAlleles:  [2]string{"6", "6"},
				PaternalAllele: "6",
				Inferred:       true,
				PI:             4.310344827586207,
			},
		},
	}
}

func testSaveAndLoadResult(t *testing.T, s store.Store) {
	ctx := context.Background()

	want := sampleResult()
	require.NoError(t, s.SaveResult(ctx, "case-1", want))

	got, err := s.LoadResult(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// a re-analysis replaces the stored result
	excluded := &kinship.Result{
		CPI:        0,
		Prior:      0.5,
		Exclusions: 1,
		Conclusion: kinship.ConclusionExcluded,
		LocusResults: []kinship.LocusResult{
			{Locus: "FGA", ChildAlleles: [2]string{"21", "22"}, FatherAlleles: [2]string{"23", "23"}, PaternalAllele: "21", Inferred: true, Excluded: true},
		},
	}
	require.NoError(t, s.SaveResult(ctx, "case-1", excluded))

	got, err = s.LoadResult(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, excluded, got)
}

// Saving identical keys twice is what a repeated "analyze --case" does.
func testResaveCase(t *testing.T, s store.Store) {
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, s.SaveSample(ctx, "case-1", kinship.RoleChild, childProfile()), "save %d", i)
		require.NoError(t, s.SaveSample(ctx, "case-1", kinship.RoleAllegedFather, fatherProfile()), "save %d", i)
		require.NoError(t, s.SaveResult(ctx, "case-1", sampleResult()), "save %d", i)
	}

	trio, err := s.LoadCase(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, childProfile().Loci, trio.Child.Loci)
	assert.Equal(t, fatherProfile().Loci, trio.Father.Loci)

	got, err := s.LoadResult(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), got)

	cases, err := s.ListCases(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Len(t, cases[0].Samples, 2)
}

func testListCases(t *testing.T, s store.Store) {
	ctx := context.Background()

	require.NoError(t, s.SaveSample(ctx, "case-b", kinship.RoleChild, childProfile()))
	require.NoError(t, s.SaveSample(ctx, "case-b", kinship.RoleAllegedFather, fatherProfile()))
	require.NoError(t, s.SaveSample(ctx, "case-a", kinship.RoleChild, childProfile()))
	require.NoError(t, s.SaveResult(ctx, "case-b", sampleResult()))

	cases, err := s.ListCases(ctx)
	require.NoError(t, err)
	require.Len(t, cases, 2)

	assert.Equal(t, "case-a", cases[0].CaseID)
	assert.False(t, cases[0].Analyzed)
	assert.Equal(t, map[kinship.Role]string{kinship.RoleChild: "CHILD-01"}, cases[0].Samples)

	assert.Equal(t, "case-b", cases[1].CaseID)
	assert.True(t, cases[1].Analyzed)
	assert.Equal(t, kinship.ConclusionInconclusive, cases[1].Conclusion)
	assert.Equal(t, "AF-01", cases[1].Samples[kinship.RoleAllegedFather])
}
