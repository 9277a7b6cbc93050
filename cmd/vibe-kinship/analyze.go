package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-kinship/internal/genotype"
	"github.com/inodb/vibe-kinship/internal/kinship"
	"github.com/inodb/vibe-kinship/internal/output"
	"github.com/inodb/vibe-kinship/internal/store"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		roles        roleFlags
		caseID       string
		outputFormat string
		outputFile   string
		workers      int
		save         bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <input-file>...",
		Short: "Compute paternity for the trio in each genotype export",
		Long: `Compute the combined paternity index, probability of paternity and
conclusion for each input file. Every file holds one case. Trio members are
taken from --child, --mother and --father, or recognised from sample names
such as CHILD-01, MOTHER and AF-01.`,
		Example: `  vibe-kinship analyze plate1.txt
  vibe-kinship analyze --child C1 --mother M1 --father AF1 plate1.txt
  vibe-kinship analyze -f json --workers 8 cases/*.txt
  vibe-kinship analyze --save --case 2024-117 s3://lab/runs/2024-117.txt`,
		Args: minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if caseID != "" && len(args) > 1 {
				return usagef("--case can only be used with a single input file")
			}
			if outputFormat != "tab" && outputFormat != "json" {
				return usagef("unknown output format %q (want tab or json)", outputFormat)
			}

			ctx := cmd.Context()

			var st store.Store
			if save {
				var err error
				if st, err = a.openStore(ctx); err != nil {
					return err
				}
				defer closeStore(a, st)
			}

			table, err := a.loadTable(ctx, st)
			if err != nil {
				return err
			}
			an, err := a.newAnalyzer(table)
			if err != nil {
				return err
			}

			w, closeOut, err := openOutput(cmd.OutOrStdout(), outputFile)
			if err != nil {
				return err
			}

			items := make(chan kinship.CaseItem, 2*max(workers, 1))
			go func() {
				defer close(items)
				for i, path := range args {
					id := caseID
					if id == "" {
						id = caseIDFromPath(path)
					}
					trio, err := a.readTrio(ctx, path, roles)
					items <- kinship.CaseItem{Seq: i, CaseID: id, Trio: trio, Err: err}
				}
			}()

			rw := newResultWriter(w, cmd.ErrOrStderr(), outputFormat)
			failed := 0
			err = kinship.OrderedCollect(an.ParallelAnalyze(items, workers), func(r kinship.CaseResult) error {
				if r.Err != nil {
					failed++
					a.logger.Error("case failed", zap.String("case", r.CaseID), zap.Error(r.Err))
				} else if st != nil {
					if err := saveCase(ctx, st, r.CaseID, r.Trio, r.Result); err != nil {
						return err
					}
				}
				return rw.write(r)
			})
			if err == nil {
				err = rw.flush()
			}
			if cerr := closeOut(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d cases failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&roles.child, "child", "", "Sample name of the child")
	cmd.Flags().StringVar(&roles.mother, "mother", "", "Sample name of the mother (optional)")
	cmd.Flags().StringVar(&roles.father, "father", "", "Sample name of the alleged father")
	cmd.Flags().StringVar(&caseID, "case", "", "Case ID (single input only; default: file name)")
	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", "tab", "Output format: tab, json")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of parallel workers (0 = all CPUs)")
	cmd.Flags().BoolVar(&save, "save", false, "Store profiles and results in the case store")

	return cmd
}

// readTrio parses one export and picks the trio from its profiles.
func (a *app) readTrio(ctx context.Context, path string, roles roleFlags) (kinship.Trio, error) {
	records, err := a.readRecords(ctx, path)
	if err != nil {
		return kinship.Trio{}, err
	}
	trio, err := roles.trio(genotype.GroupProfiles(records))
	if err != nil {
		return kinship.Trio{}, fmt.Errorf("%s: %w", path, err)
	}
	return trio, nil
}

// saveCase stores every profile of a trio and its result.
func saveCase(ctx context.Context, st store.Store, caseID string, trio kinship.Trio, res *kinship.Result) error {
	for _, role := range kinship.Roles {
		if p := trio.Profile(role); p != nil {
			if err := st.SaveSample(ctx, caseID, role, p); err != nil {
				return fmt.Errorf("save %s of case %s: %w", role, caseID, err)
			}
		}
	}
	if res != nil {
		if err := st.SaveResult(ctx, caseID, res); err != nil {
			return fmt.Errorf("save result of case %s: %w", caseID, err)
		}
	}
	return nil
}

// resultWriter renders case results as a locus table with summaries on
// stderr, or as JSON lines.
type resultWriter struct {
	tab     *output.TabWriter
	json    *output.JSONWriter
	summary io.Writer
	header  bool
}

func newResultWriter(w, summary io.Writer, format string) *resultWriter {
	rw := &resultWriter{summary: summary}
	if format == "json" {
		rw.json = output.NewJSONWriter(w)
	} else {
		rw.tab = output.NewTabWriter(w)
	}
	return rw
}

func (rw *resultWriter) write(r kinship.CaseResult) error {
	if rw.json != nil {
		return rw.json.Write(output.NewCaseReport(r.CaseID, r.Trio, r.Result, r.Err))
	}
	if r.Err != nil {
		return nil
	}

	if !rw.header {
		if err := rw.tab.WriteHeader(); err != nil {
			return err
		}
		rw.header = true
	}
	if err := rw.tab.Write(r.CaseID, r.Result); err != nil {
		return err
	}
	output.WriteSummary(rw.summary, r.CaseID, r.Result)
	return nil
}

func (rw *resultWriter) flush() error {
	if rw.tab != nil {
		return rw.tab.Flush()
	}
	return nil
}
