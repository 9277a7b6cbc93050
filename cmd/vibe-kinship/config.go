package main

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-kinship/internal/genotype"
)

type keyKind int

const (
	kindString keyKind = iota
	kindFloat
	kindBool
	kindList
)

// configKey describes one setting accepted by "config set".
type configKey struct {
	kind  keyKind
	help  string
	check func(v any) error
}

var configKeys = map[string]configKey{
	"analysis.prior": {kind: kindFloat, help: "prior probability of paternity",
		check: openUnit("analysis.prior")},
	"analysis.default_frequency": {kind: kindFloat, help: "frequency for alleles missing from the table",
		check: halfOpenUnit("analysis.default_frequency")},
	"analysis.loci":    {kind: kindList, help: "comma-separated loci to score"},
	"frequencies.file": {kind: kindString, help: "allele frequency file (YAML or TSV)"},
	"store.driver": {kind: kindString, help: "case store: memory, duckdb, sqlite or postgres",
		check: oneOf("memory", "duckdb", "sqlite", "postgres")},
	"store.dsn": {kind: kindString, help: "database path or connection string"},
	"log.level": {kind: kindString, help: "debug, info, warn or error",
		check: oneOf("debug", "info", "warn", "error")},
	"log.format": {kind: kindString, help: "console or json",
		check: oneOf("console", "json")},
	"s3.region":     {kind: kindString, help: "region for s3:// inputs"},
	"s3.endpoint":   {kind: kindString, help: "custom S3 endpoint"},
	"s3.path_style": {kind: kindBool, help: "use path-style S3 addressing"},
}

func openUnit(name string) func(any) error {
	return func(v any) error {
		if f := v.(float64); f <= 0 || f >= 1 {
			return fmt.Errorf("%s must be between 0 and 1 exclusive, got %g", name, f)
		}
		return nil
	}
}

func halfOpenUnit(name string) func(any) error {
	return func(v any) error {
		if f := v.(float64); f <= 0 || f > 1 {
			return fmt.Errorf("%s must be in (0, 1], got %g", name, f)
		}
		return nil
	}
}

func oneOf(allowed ...string) func(any) error {
	return func(v any) error {
		s := v.(string)
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return fmt.Errorf("%q is not one of %s", s, strings.Join(allowed, ", "))
	}
}

func sortedConfigKeys() []string {
	keys := make([]string, 0, len(configKeys))
	for k := range configKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lookupKey(key string) (configKey, error) {
	ck, ok := configKeys[strings.ToLower(key)]
	if !ok {
		return configKey{}, usagef("unknown config key %q (known keys: %s)", key, strings.Join(sortedConfigKeys(), ", "))
	}
	return ck, nil
}

// parseValue converts a command-line value to the key's type.
func (ck configKey) parseValue(raw string) (any, error) {
	var v any
	switch ck.kind {
	case kindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", raw)
		}
		v = f
	case kindBool:
		switch strings.ToLower(raw) {
		case "true", "yes", "on", "1":
			v = true
		case "false", "no", "off", "0":
			v = false
		default:
			return nil, fmt.Errorf("expected true or false, got %q", raw)
		}
	case kindList:
		var loci []string
		for _, l := range strings.Split(raw, ",") {
			if l = strings.TrimSpace(l); l != "" {
				loci = append(loci, genotype.NormalizeLocus(l))
			}
		}
		if len(loci) == 0 {
			return nil, fmt.Errorf("expected at least one locus")
		}
		v = loci
	default:
		v = strings.TrimSpace(raw)
	}

	if ck.check != nil {
		if err := ck.check(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// formatValue renders the effective value of key, and false if it is
// unset or empty.
func formatValue(key string, ck configKey) (string, bool) {
	if viper.Get(key) == nil {
		return "", false
	}
	switch ck.kind {
	case kindFloat:
		return strconv.FormatFloat(viper.GetFloat64(key), 'g', -1, 64), true
	case kindBool:
		return strconv.FormatBool(viper.GetBool(key)), true
	case kindList:
		l := viper.GetStringSlice(key)
		return strings.Join(l, ","), len(l) > 0
	}
	s := viper.GetString(key)
	return s, s != ""
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show and change vibe-kinship settings",
		Long: `Show and change settings. Values come from flags, VIBE_KINSHIP_* environment
variables, the config file (~/.vibe-kinship.yaml unless --config is given) and
built-in defaults, in that order.`,
		Example: `  vibe-kinship config                                # effective settings
  vibe-kinship config set store.driver sqlite          # keep cases in SQLite
  vibe-kinship config set analysis.loci D3S1358,TH01   # score only these loci
  vibe-kinship config get analysis.prior
  vibe-kinship config path`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Validate a value and write it to the config file",
			Args:  exactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigSet(cmd, args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "get <key>",
			Short: "Print the effective value of a setting",
			Args:  exactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigGet(cmd, args[0])
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file that set writes to",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := defaultConfigFile()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
	)

	return cmd
}

// runConfigShow prints every known key with its effective value.
func runConfigShow(cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	if f := viper.ConfigFileUsed(); f != "" {
		fmt.Fprintf(w, "# config file: %s\n", f)
	} else {
		fmt.Fprintln(w, "# no config file; showing defaults and environment")
	}
	for _, key := range sortedConfigKeys() {
		v, ok := formatValue(key, configKeys[key])
		if !ok {
			v = "-"
		}
		fmt.Fprintf(w, "%s\t%s\n", key, v)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, key, raw string) error {
	key = strings.ToLower(key)
	ck, err := lookupKey(key)
	if err != nil {
		return err
	}
	v, err := ck.parseValue(raw)
	if err != nil {
		return usagef("config %s: %v", key, err)
	}

	cfgFile, err := defaultConfigFile()
	if err != nil {
		return err
	}

	viper.Set(key, v)
	if err := viper.WriteConfigAs(cfgFile); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	shown, _ := formatValue(key, ck)
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s (%s)\n", key, shown, cfgFile)
	return nil
}

func runConfigGet(cmd *cobra.Command, key string) error {
	key = strings.ToLower(key)
	ck, err := lookupKey(key)
	if err != nil {
		return err
	}
	v, ok := formatValue(key, ck)
	if !ok {
		return fmt.Errorf("%s is not set (%s)", key, ck.help)
	}
	fmt.Fprintln(cmd.OutOrStdout(), v)
	return nil
}
