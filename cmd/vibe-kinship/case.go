package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inodb/vibe-kinship/internal/kinship"
	"github.com/inodb/vibe-kinship/internal/output"
	"github.com/inodb/vibe-kinship/internal/store"
)

func newCaseCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "case",
		Short: "Work with cases in the case store",
		Long: `Analyze, list and show cases held in the case store. The store is chosen
with store.driver and store.dsn (or --store and --dsn).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newCaseAnalyzeCmd(a))
	cmd.AddCommand(newCaseListCmd(a))
	cmd.AddCommand(newCaseShowCmd(a))

	return cmd
}

func newCaseAnalyzeCmd(a *app) *cobra.Command {
	var (
		outputFormat string
		workers      int
	)

	cmd := &cobra.Command{
		Use:   "analyze <case-id>...",
		Short: "Analyze stored cases and store their results",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFormat != "tab" && outputFormat != "json" {
				return usagef("unknown output format %q (want tab or json)", outputFormat)
			}
			ctx := cmd.Context()

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(a, st)

			table, err := a.loadTable(ctx, st)
			if err != nil {
				return err
			}
			an, err := a.newAnalyzer(table)
			if err != nil {
				return err
			}

			items := make(chan kinship.CaseItem, len(args))
			for i, id := range args {
				trio, err := st.LoadCase(ctx, id)
				items <- kinship.CaseItem{Seq: i, CaseID: id, Trio: trio, Err: err}
			}
			close(items)

			rw := newResultWriter(cmd.OutOrStdout(), cmd.ErrOrStderr(), outputFormat)
			failed := 0
			err = kinship.OrderedCollect(an.ParallelAnalyze(items, workers), func(r kinship.CaseResult) error {
				if r.Err != nil {
					failed++
					a.logger.Error("case failed", zap.String("case", r.CaseID), zap.Error(r.Err))
				} else if err := st.SaveResult(ctx, r.CaseID, r.Result); err != nil {
					return fmt.Errorf("save result of case %s: %w", r.CaseID, err)
				}
				return rw.write(r)
			})
			if err == nil {
				err = rw.flush()
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

	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", "tab", "Output format: tab, json")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of parallel workers (0 = all CPUs)")

	return cmd
}

func newCaseListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored cases",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(a, st)

			cases, err := st.ListCases(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, strings.Join([]string{"#Case", "Child", "Mother", "Alleged_Father", "Conclusion", "Probability", "Exclusions"}, "\t"))
			for _, c := range cases {
				conclusion, prob, excl := "-", "-", "-"
				if c.Analyzed {
					conclusion = string(c.Conclusion)
					prob = strconv.FormatFloat(c.Probability, 'f', 4, 64)
					excl = strconv.Itoa(c.Exclusions)
				}
				fmt.Fprintln(w, strings.Join([]string{
					c.CaseID,
					sampleOrDash(c.Samples[kinship.RoleChild]),
					sampleOrDash(c.Samples[kinship.RoleMother]),
					sampleOrDash(c.Samples[kinship.RoleAllegedFather]),
					conclusion,
					prob,
					excl,
				}, "\t"))
			}
			return nil
		},
	}
}

func newCaseShowCmd(a *app) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show the stored samples and result of a case",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputFormat != "tab" && outputFormat != "json" {
				return usagef("unknown output format %q (want tab or json)", outputFormat)
			}
			ctx := cmd.Context()
			id := args[0]

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(a, st)

			trio, err := st.LoadCase(ctx, id)
			if err != nil {
				return err
			}
			res, err := st.LoadResult(ctx, id)
			if err != nil && !errors.Is(err, store.ErrResultNotFound) {
				return err
			}

			w := cmd.OutOrStdout()
			if outputFormat == "json" {
				return output.NewJSONWriter(w).Write(output.NewCaseReport(id, trio, res, nil))
			}

			for _, role := range kinship.Roles {
				if p := trio.Profile(role); p != nil {
					fmt.Fprintf(w, "# %s\t%s\t%d loci\t%s\n", role, p.SampleName, len(p.Loci), kinship.DetermineSex(p))
				}
			}
			if res == nil {
				fmt.Fprintf(w, "# not analyzed; run: vibe-kinship case analyze %s\n", id)
				return nil
			}

			tw := output.NewTabWriter(w)
			if err := tw.WriteHeader(); err != nil {
				return err
			}
			if err := tw.Write(id, res); err != nil {
				return err
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			output.WriteSummary(w, id, res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", "tab", "Output format: tab, json")

	return cmd
}

func sampleOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
