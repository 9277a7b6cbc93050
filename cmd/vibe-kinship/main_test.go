package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const trioExport = "# exported 2024-03-11\n" +
	"Sample Name\tMarker\tAllele 1\tAllele 2\tHeight\n" +
	"CHILD-01\tD3S1358\t15\t16\t1200\n" +
	"CHILD-01\tTH01\t7\t9.3\t980\n" +
	"CHILD-01\tAMEL\tX\tY\t1500\n" +
	"MOTHER-01\tD3S1358\t15\t17\t1100\n" +
	"MOTHER-01\tTH01\t7\t\t2010\n" +
	"MOTHER-01\tAMEL\tX\t\t2200\n" +
	"AF-01\tD3S1358\t16\t18\t1300\n" +
	"AF-01\tTH01\t9.3\t9.3\t1700\n" +
	"AF-01\tAMEL\tX\tY\t1400\n"

// setup isolates HOME and viper state for one test.
func setup(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	viper.Reset()
	t.Cleanup(viper.Reset)
	return home
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAnalyze_Tab(t *testing.T) {
	dir := setup(t)
	path := writeFile(t, dir, "case-17.txt", trioExport)

	out, err := execute(t, "analyze", path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "#Case\t"))
	assert.Equal(t, "case-17\tD3S1358\t15/16\t15/17\t16/18\t16\tno\t2.13675\tno", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "case-17\tTH01\t7/9.3\t7/7\t9.3/9.3\t9.3\tno\t"))
}

func TestAnalyze_JSONWithExplicitRoles(t *testing.T) {
	dir := setup(t)
	export := strings.NewReplacer("CHILD-01", "S1", "MOTHER-01", "S2", "AF-01", "S3").Replace(trioExport)
	path := writeFile(t, dir, "plate.txt", export)

	out, err := execute(t, "analyze", "-f", "json", "--child", "S1", "--mother", "S2", "--father", "S3", "--case", "c-9", path)
	require.NoError(t, err)

	var report struct {
		CaseID  string `json:"case_id"`
		Samples map[string]struct {
			Name string `json:"name"`
			Sex  string `json:"sex"`
		} `json:"samples"`
		Result struct {
			CPI        float64 `json:"cpi"`
			Exclusions int     `json:"exclusions"`
			Conclusion string  `json:"conclusion"`
			Loci       []any   `json:"loci"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, "c-9", report.CaseID)
	assert.Equal(t, "S3", report.Samples["alleged_father"].Name)
	assert.Equal(t, "M", report.Samples["child"].Sex)
	assert.Equal(t, "F", report.Samples["mother"].Sex)
	assert.InDelta(t, (0.5/0.234)*(1/0.367), report.Result.CPI, 1e-9)
	assert.Equal(t, 0, report.Result.Exclusions)
	assert.Equal(t, "INCONCLUSIVE", report.Result.Conclusion)
	assert.Len(t, report.Result.Loci, 2)
}

func TestAnalyze_Exclusion(t *testing.T) {
	dir := setup(t)
	export := strings.Replace(trioExport, "AF-01\tD3S1358\t16\t18", "AF-01\tD3S1358\t17\t18", 1)
	path := writeFile(t, dir, "excl.txt", export)

	out, err := execute(t, "analyze", "-f", "json", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"conclusion":"EXCLUDED"`)
	assert.Contains(t, out, `"exclusions":1`)
}

func TestAnalyze_FailedCaseIsReported(t *testing.T) {
	dir := setup(t)
	good := writeFile(t, dir, "good.txt", trioExport)
	bad := writeFile(t, dir, "bad.txt", "Sample Name\tMarker\tAllele 1\tAllele 2\nCHILD\tTH01\t7\t9.3\n")

	out, err := execute(t, "analyze", "-f", "json", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 cases failed")

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"case_id":"good"`)
	assert.Contains(t, lines[1], `"case_id":"bad"`)
	assert.Contains(t, lines[1], "insufficient")
}

func TestAnalyze_UsageErrors(t *testing.T) {
	dir := setup(t)
	a := writeFile(t, dir, "a.txt", trioExport)
	b := writeFile(t, dir, "b.txt", trioExport)

	_, err := execute(t, "analyze", "--case", "x", a, b)
	var ue *usageError
	assert.ErrorAs(t, err, &ue)

	_, err = execute(t, "analyze", "-f", "xml", a)
	assert.ErrorAs(t, err, &ue)

	_, err = execute(t, "--prior", "1", "analyze", a)
	assert.ErrorAs(t, err, &ue)
}

func TestImportAndCaseCommands(t *testing.T) {
	dir := setup(t)
	dsn := filepath.Join(dir, "cases.db")
	store := []string{"--store", "sqlite", "--dsn", dsn}

	children := writeFile(t, dir, "child.txt", "Sample Name\tMarker\tAllele 1\tAllele 2\n"+
		"CHILD-01\tD3S1358\t15\t16\nCHILD-01\tTH01\t7\t9.3\n")
	adults := writeFile(t, dir, "adults.txt", "Sample Name\tMarker\tAllele 1\tAllele 2\n"+
		"MOTHER-01\tD3S1358\t15\t17\nMOTHER-01\tTH01\t7\t7\nAF-01\tD3S1358\t16\t18\nAF-01\tTH01\t9.3\t\n")

	out, err := execute(t, append(store, "import", "--case", "2024-117", children, adults)...)
	require.NoError(t, err)
	assert.Equal(t, "2024-117\n", out)

	out, err = execute(t, append(store, "case", "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "2024-117\tCHILD-01\tMOTHER-01\tAF-01\t-\t-\t-")

	out, err = execute(t, append(store, "case", "show", "2024-117")...)
	require.NoError(t, err)
	assert.Contains(t, out, "not analyzed")

	out, err = execute(t, append(store, "case", "analyze", "2024-117")...)
	require.NoError(t, err)
	assert.Contains(t, out, "2024-117\tD3S1358\t15/16\t15/17\t16/18\t16")

	out, err = execute(t, append(store, "case", "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "2024-117\tCHILD-01\tMOTHER-01\tAF-01\tINCONCLUSIVE\t")

	out, err = execute(t, append(store, "case", "show", "-f", "json", "2024-117")...)
	require.NoError(t, err)
	assert.Contains(t, out, `"conclusion":"INCONCLUSIVE"`)

	_, err = execute(t, append(store, "case", "analyze", "missing")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 cases failed")
}

func TestImport_GeneratesCaseID(t *testing.T) {
	dir := setup(t)
	path := writeFile(t, dir, "trio.txt", trioExport)

	out, err := execute(t, "--store", "memory", "import", path)
	require.NoError(t, err)
	_, err = uuid.Parse(strings.TrimSpace(out))
	assert.NoError(t, err)
}

func TestImport_NoTrioMembers(t *testing.T) {
	dir := setup(t)
	path := writeFile(t, dir, "other.txt", "Sample Name\tMarker\tAllele 1\tAllele 2\nLADDER\tTH01\t7\t9.3\n")

	_, err := execute(t, "--store", "memory", "import", path)
	assert.Error(t, err)
}

func TestParse(t *testing.T) {
	dir := setup(t)
	path := writeFile(t, dir, "plate.txt", trioExport)

	out, err := execute(t, "parse", path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "Sample Name\tMarker\tAllele 1\tAllele 2\tHeight", lines[0])
	assert.Equal(t, "CHILD-01\tAMEL\tX\tY\t1500", lines[1])

	out, err = execute(t, "parse", "--sex", path)
	require.NoError(t, err)
	assert.Equal(t, "CHILD-01\t3\tM\nMOTHER-01\t3\tF\nAF-01\t3\tM\n", out)
}

func TestFrequencies_LoadIntoDuckDB(t *testing.T) {
	dir := setup(t)
	dsn := filepath.Join(dir, "cases.duckdb")
	tsv := writeFile(t, dir, "lab.tsv", "locus\tallele\tfrequency\nD3S1358\t16\t0.5\nTH01\t9.3\t0.25\nTH01\t7\t0.1\n")

	out, err := execute(t, "--store", "duckdb", "--dsn", dsn, "frequencies", "load", tsv)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 3 allele frequencies")

	out, err = execute(t, "--store", "duckdb", "--dsn", dsn, "frequencies", "show", "--store")
	require.NoError(t, err)
	assert.Contains(t, out, "D3S1358\t16\t0.5\n")

	_, err = execute(t, "--store", "memory", "frequencies", "load", tsv)
	var ue *usageError
	assert.ErrorAs(t, err, &ue)
}

func TestFrequencies_ShowFile(t *testing.T) {
	dir := setup(t)
	path := writeFile(t, dir, "lab.yaml", "name: lab\nloci:\n  TPOX:\n    \"8\": 0.535\n")

	out, err := execute(t, "--frequencies", path, "frequencies", "show")
	require.NoError(t, err)
	assert.Equal(t, "locus\tallele\tfrequency\nTPOX\t8\t0.535\n", out)
}

func TestConfigSetGet(t *testing.T) {
	home := setup(t)

	out, err := execute(t, "config", "set", "analysis.prior", "0.9")
	require.NoError(t, err)
	assert.Equal(t, "analysis.prior = 0.9 ("+filepath.Join(home, ".vibe-kinship.yaml")+")\n", out)

	out, err = execute(t, "config", "get", "analysis.prior")
	require.NoError(t, err)
	assert.Equal(t, "0.9\n", out)

	out, err = execute(t, "config", "path")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".vibe-kinship.yaml")+"\n", out)

	_, err = execute(t, "config", "get", "store.dsn")
	assert.ErrorContains(t, err, "not set")
}

func TestConfigSet_Validates(t *testing.T) {
	home := setup(t)

	tests := [][2]string{
		{"no.such.key", "1"},
		{"analysis.prior", "abc"},
		{"analysis.prior", "1.5"},
		{"analysis.default_frequency", "0"},
		{"store.driver", "oracle"},
		{"s3.path_style", "maybe"},
		{"analysis.loci", " , "},
	}
	for _, tt := range tests {
		_, err := execute(t, "config", "set", tt[0], tt[1])
		var ue *usageError
		assert.ErrorAs(t, err, &ue, "%s=%s", tt[0], tt[1])
	}

	_, err := execute(t, "config", "get", "no.such.key")
	assert.Error(t, err)

	// nothing was written
	assert.NoFileExists(t, filepath.Join(home, ".vibe-kinship.yaml"))
}

func TestConfigSet_TypedValues(t *testing.T) {
	home := setup(t)

	_, err := execute(t, "config", "set", "analysis.loci", "d3s1358, th01,FGA")
	require.NoError(t, err)
	_, err = execute(t, "config", "set", "S3.Path_Style", "yes")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(home, ".vibe-kinship.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "- D3S1358\n")
	assert.Contains(t, string(data), "path_style: true")

	out, err := execute(t, "config", "get", "analysis.loci")
	require.NoError(t, err)
	assert.Equal(t, "D3S1358,TH01,FGA\n", out)

	out, err = execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "# config file: "+filepath.Join(home, ".vibe-kinship.yaml")+"\n")
	assert.Contains(t, out, "analysis.prior\t0.5\n")
	assert.Contains(t, out, "s3.path_style\ttrue\n")
	assert.Contains(t, out, "store.dsn\t-\n")
}

func TestVersion(t *testing.T) {
	setup(t)
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "vibe-kinship version dev (none) built unknown\n", out)
}

func TestRun_ExitCodes(t *testing.T) {
	setup(t)
	assert.Equal(t, ExitSuccess, run([]string{"version"}))
	assert.Equal(t, ExitUsage, run([]string{"analyze"}))
	assert.Equal(t, ExitUsage, run([]string{"--no-such-flag"}))
	assert.Equal(t, ExitUsage, run([]string{"frobnicate"}))
	assert.Equal(t, ExitError, run([]string{"analyze", filepath.Join(t.TempDir(), "missing.txt")}))
}

func TestCaseIDFromPath(t *testing.T) {
	tests := map[string]string{
		"/data/case-17.txt":          "case-17",
		"plate1.txt.gz":              "plate1",
		"s3://lab/runs/2024.117.tsv": "2024.117",
		"noext":                      "noext",
	}
	for in, want := range tests {
		assert.Equal(t, want, caseIDFromPath(in), in)
	}
}

func TestNewLogger(t *testing.T) {
	_, err := newLogger("debug", "json")
	assert.NoError(t, err)
	_, err = newLogger("", "")
	assert.NoError(t, err)
	_, err = newLogger("loud", "console")
	assert.Error(t, err)
	_, err = newLogger("info", "xml")
	assert.Error(t, err)
}
