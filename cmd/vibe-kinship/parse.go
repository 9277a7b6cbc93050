package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-kinship/internal/genotype"
	"github.com/inodb/vibe-kinship/internal/kinship"
	"github.com/inodb/vibe-kinship/internal/output"
)

func newParseCmd(a *app) *cobra.Command {
	var (
		outputFile string
		sexOnly    bool
	)

	cmd := &cobra.Command{
		Use:   "parse <input-file>",
		Short: "Parse a genotype export into per-sample profiles",
		Long: `Parse a tab-delimited genotype export and write one normalized row per
sample and locus. Metadata lines before the header and malformed rows are
skipped. Use '-' for stdin; gzipped files and s3:// URIs are supported.`,
		Example: `  vibe-kinship parse plate1.txt
  vibe-kinship parse --sex plate1.txt.gz`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := a.readRecords(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(cmd.OutOrStdout(), outputFile)
			if err != nil {
				return err
			}

			profiles := genotype.GroupProfiles(records)
			names := genotype.SampleNames(records)

			if sexOnly {
				for _, name := range names {
					p := profiles[name]
					if _, err := fmt.Fprintf(w, "%s\t%d\t%s\n", name, len(p.Loci), kinship.DetermineSex(p)); err != nil {
						closeOut()
						return err
					}
				}
				return closeOut()
			}

			pw := output.NewProfileWriter(w)
			if err := pw.WriteHeader(); err != nil {
				closeOut()
				return err
			}
			for _, name := range names {
				if err := pw.Write(profiles[name]); err != nil {
					closeOut()
					return err
				}
			}
			if err := pw.Flush(); err != nil {
				closeOut()
				return err
			}
			return closeOut()
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&sexOnly, "sex", false, "Only print sample name, typed loci and sex")

	return cmd
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usagef("%s: expected %d argument(s), got %d", cmd.CommandPath(), n, len(args))
		}
		return nil
	}
}

// minArgs is cobra.MinimumNArgs reporting a usage error.
func minArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) < n {
			return usagef("%s: expected at least %d argument(s): %s", cmd.CommandPath(), n, strings.TrimPrefix(cmd.Use, cmd.Name()+" "))
		}
		return nil
	}
}
