// Package main provides the vibe-kinship command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const (
	configName = ".vibe-kinship"
	envPrefix  = "VIBE_KINSHIP"
)

// usageError marks errors caused by how the command was invoked.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usagef(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)

	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	var ue *usageError
	if errors.As(err, &ue) || strings.HasPrefix(err.Error(), "unknown command") {
		fmt.Fprintf(os.Stderr, "Run 'vibe-kinship --help' for usage.\n")
		return ExitUsage
	}
	return ExitError
}

// app carries state shared by subcommands once flags and config are read.
type app struct {
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "vibe-kinship",
		Short: "STR paternity analysis",
		Long: `vibe-kinship computes paternity indices from STR genotype exports.

Genotypes are read from tab-delimited exports of capillary electrophoresis
software (one row per sample and marker). A trio of child, optional mother
and alleged father is scored locus by locus and combined into a paternity
index, a probability of paternity and a conclusion.`,
		Example: `  vibe-kinship analyze plate1.txt
  vibe-kinship analyze --child C1 --father AF1 -f json plate1.txt
  vibe-kinship import --case 2024-117 child.txt mother.txt father.txt
  vibe-kinship case analyze 2024-117`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cfgFile); err != nil {
				return err
			}
			logger, err := newLogger(viper.GetString("log.level"), viper.GetString("log.format"))
			if err != nil {
				return usagef("%v", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ~/"+configName+".yaml)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("store", "", "Case store driver: memory, duckdb, sqlite, postgres")
	pf.String("dsn", "", "Case store path or connection string")
	pf.String("frequencies", "", "Allele frequency table (YAML or TSV, local path or s3:// URI)")
	pf.Float64("prior", 0, "Prior probability of paternity (default 0.5)")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "store.driver", "store")
	bindFlag(cmd, "store.dsn", "dsn")
	bindFlag(cmd, "frequencies.file", "frequencies")
	bindFlag(cmd, "analysis.prior", "prior")

	cmd.AddCommand(newParseCmd(a))
	cmd.AddCommand(newAnalyzeCmd(a))
	cmd.AddCommand(newImportCmd(a))
	cmd.AddCommand(newCaseCmd(a))
	cmd.AddCommand(newFrequenciesCmd(a))
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("bind flag %s: %v", flag, err))
	}
}

func setDefaults() {
	viper.SetDefault("analysis.prior", 0.5)
	viper.SetDefault("analysis.default_frequency", 0.01)
	viper.SetDefault("store.driver", "duckdb")
	viper.SetDefault("log.level", "warn")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("s3.path_style", false)
}

// initConfig reads ~/.vibe-kinship.yaml (or cfgFile) and VIBE_KINSHIP_*
// environment variables. A missing default config file is not an error.
func initConfig(cfgFile string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || (cfgFile == "" && errors.Is(err, os.ErrNotExist)) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// defaultConfigFile returns the path config set writes to when no config
// file has been read.
func defaultConfigFile() (string, error) {
	if f := viper.ConfigFileUsed(); f != "" {
		return f, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, configName+".yaml"), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibe-kinship version %s (%s) built %s\n", version, commit, date)
		},
	}
}
