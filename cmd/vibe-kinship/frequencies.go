package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-kinship/internal/duckdb"
	"github.com/inodb/vibe-kinship/internal/frequency"
)

func newFrequenciesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "frequencies",
		Aliases: []string{"freq"},
		Short:   "Show or load allele frequency tables",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newFrequenciesShowCmd(a))
	cmd.AddCommand(newFrequenciesLoadCmd(a))

	return cmd
}

func newFrequenciesShowCmd(a *app) *cobra.Command {
	var fromStore bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the allele frequency table in use as TSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !fromStore {
				t, err := a.loadTable(ctx, nil)
				if err != nil {
					return err
				}
				return frequency.WriteTSV(cmd.OutOrStdout(), t)
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(a, st)

			t, err := a.loadTable(ctx, st)
			if err != nil {
				return err
			}
			return frequency.WriteTSV(cmd.OutOrStdout(), t)
		},
	}

	cmd.Flags().BoolVar(&fromStore, "store", false, "Consult frequencies held in a DuckDB case store")

	return cmd
}

func newFrequenciesLoadCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Load allele frequencies into a DuckDB case store",
		Long: `Replace the allele frequencies held in a DuckDB case store. TSV files need
a "locus allele frequency" header and are bulk-loaded by DuckDB directly;
YAML tables are converted first. Later analyses against the store use these
frequencies unless frequencies.file is set.`,
		Example: `  vibe-kinship --store duckdb frequencies load lab_frequencies.tsv`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			path := args[0]

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(a, st)

			ds, ok := st.(*duckdb.Store)
			if !ok {
				return usagef("frequencies load needs store.driver duckdb")
			}

			switch strings.ToLower(filepath.Ext(path)) {
			case ".yaml", ".yml":
				t, err := frequency.LoadFile(path)
				if err != nil {
					return err
				}
				if err := ds.SaveFrequencyTable(ctx, t); err != nil {
					return err
				}
			default:
				if _, err := ds.LoadFrequencies(ctx, path); err != nil {
					return err
				}
			}

			n, err := ds.FrequencyCount(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d allele frequencies into %s\n", n, ds.Path())
			return nil
		},
	}
}
