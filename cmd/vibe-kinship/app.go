package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-kinship/internal/duckdb"
	"github.com/inodb/vibe-kinship/internal/frequency"
	"github.com/inodb/vibe-kinship/internal/genotype"
	"github.com/inodb/vibe-kinship/internal/input"
	"github.com/inodb/vibe-kinship/internal/kinship"
	"github.com/inodb/vibe-kinship/internal/postgres"
	"github.com/inodb/vibe-kinship/internal/sqlite"
	"github.com/inodb/vibe-kinship/internal/store"
)

func (a *app) inputOptions() input.Options {
	return input.Options{
		Region:    viper.GetString("s3.region"),
		Endpoint:  viper.GetString("s3.endpoint"),
		PathStyle: viper.GetBool("s3.path_style"),
	}
}

// readRecords parses one genotype export.
func (a *app) readRecords(ctx context.Context, path string) ([]genotype.Record, error) {
	p, err := genotype.NewParser(ctx, path, a.inputOptions())
	if err != nil {
		return nil, err
	}
	defer p.Close()
	p.SetLogger(a.logger.With(zap.String("file", path)))

	records, err := p.All()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if n := len(p.Skipped()); n > 0 {
		a.logger.Warn("skipped malformed rows", zap.String("file", path), zap.Int("rows", n))
	}
	if len(records) == 0 {
		a.logger.Warn("no genotype records found", zap.String("file", path))
	}
	return records, nil
}

// defaultStorePath returns the per-user database path for file backed
// drivers.
func defaultStorePath(driver string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	ext := ".duckdb"
	if driver == "sqlite" {
		ext = ".db"
	}
	return filepath.Join(home, configName, "cases"+ext), nil
}

// openStore opens the configured case store.
func (a *app) openStore(ctx context.Context) (store.Store, error) {
	driver := strings.ToLower(viper.GetString("store.driver"))
	dsn := viper.GetString("store.dsn")
	if dsn == "" && (driver == "duckdb" || driver == "sqlite") {
		var err error
		if dsn, err = defaultStorePath(driver); err != nil {
			return nil, err
		}
	}

	a.logger.Debug("opening case store", zap.String("driver", driver), zap.String("dsn", dsn))

	switch driver {
	case "memory":
		return store.NewMemory(), nil
	case "duckdb":
		s, err := duckdb.Open(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := sqlite.Open(dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := postgres.Open(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, usagef("unknown store driver %q (want memory, duckdb, sqlite or postgres)", driver)
	}
}

// loadTable returns the frequency table for this run: the configured file,
// else frequencies held in a DuckDB store, else the built-in table. st may
// be nil.
func (a *app) loadTable(ctx context.Context, st store.Store) (*frequency.Table, error) {
	t, err := a.baseTable(ctx, st)
	if err != nil {
		return nil, err
	}

	if d := viper.GetFloat64("analysis.default_frequency"); d > 0 && d != t.Default() {
		if t, err = t.WithDefault(d); err != nil {
			return nil, usagef("analysis.default_frequency: %v", err)
		}
	}

	a.logger.Info("using allele frequency table",
		zap.String("table", t.Name()),
		zap.Int("loci", t.Len()),
		zap.Float64("default_frequency", t.Default()))
	return t, nil
}

func (a *app) baseTable(ctx context.Context, st store.Store) (*frequency.Table, error) {
	if path := viper.GetString("frequencies.file"); path != "" {
		rc, err := input.Open(ctx, path, a.inputOptions())
		if err != nil {
			return nil, fmt.Errorf("open frequency table: %w", err)
		}
		defer rc.Close()
		return frequency.Load(rc, path)
	}

	if ds, ok := st.(*duckdb.Store); ok {
		n, err := ds.FrequencyCount(ctx)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return ds.FrequencyTable(ctx, "duckdb:"+ds.Path(), frequency.DefaultFrequency)
		}
	}

	return frequency.Builtin()
}

// newAnalyzer configures an analyzer from config.
func (a *app) newAnalyzer(t *frequency.Table) (*kinship.Analyzer, error) {
	prior := viper.GetFloat64("analysis.prior")
	if prior <= 0 || prior >= 1 {
		return nil, usagef("%v: %g", kinship.ErrInvalidPrior, prior)
	}

	an := kinship.NewAnalyzer(t)
	an.SetPrior(prior)
	an.SetLogger(a.logger)
	if loci := viper.GetStringSlice("analysis.loci"); len(loci) > 0 {
		an.SetLoci(loci)
	}
	return an, nil
}

// roleFlags holds explicit sample names for a trio.
type roleFlags struct {
	child  string
	mother string
	father string
}

func (r roleFlags) explicit() bool {
	return r.child != "" || r.mother != "" || r.father != ""
}

// trio selects the trio from profiles by explicit names, falling back to
// sample name keywords.
func (r roleFlags) trio(profiles map[string]*genotype.Profile) (kinship.Trio, error) {
	if r.explicit() {
		return kinship.SelectTrio(profiles, r.child, r.mother, r.father)
	}
	return kinship.AssignRoles(profiles)
}

// openOutput returns stdout for "" or "-", else creates path.
func openOutput(stdout io.Writer, path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, f.Close, nil
}

// caseIDFromPath derives a case ID from an export file name by dropping
// the directory, a ".gz" suffix and one extension.
func caseIDFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), ".gz")
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func closeStore(a *app, st store.Store) {
	if err := st.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		a.logger.Warn("closing case store", zap.Error(err))
	}
}
