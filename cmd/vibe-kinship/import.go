package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-kinship/internal/genotype"
	"github.com/inodb/vibe-kinship/internal/kinship"
)

// maxConcurrentReads bounds how many exports import reads at once.
const maxConcurrentReads = 4

func newImportCmd(a *app) *cobra.Command {
	var (
		roles  roleFlags
		caseID string
	)

	cmd := &cobra.Command{
		Use:   "import <input-file>...",
		Short: "Store the trio profiles of one case",
		Long: `Read one or more genotype exports, pick the child, mother and alleged
father profiles and store them under a single case in the case store. The
exports are merged in argument order; a sample typed twice at a locus keeps
the call from the later file. Prints the case ID.`,
		Example: `  vibe-kinship import child.txt mother.txt father.txt
  vibe-kinship import --case 2024-117 --child C1 --father AF1 plate1.txt`,
		Args: minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			perFile := make([][]genotype.Record, len(args))
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(maxConcurrentReads)
			for i, path := range args {
				g.Go(func() error {
					records, err := a.readRecords(gctx, path)
					if err != nil {
						return err
					}
					perFile[i] = records
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			var records []genotype.Record
			for _, rs := range perFile {
				records = append(records, rs...)
			}

			trio, err := roles.trio(genotype.GroupProfiles(records))
			if err != nil {
				return err
			}
			if trio.Count() == 0 {
				return fmt.Errorf("no child, mother or alleged father sample found")
			}

			if caseID == "" {
				caseID = uuid.New().String()
			}

			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer closeStore(a, st)

			if err := saveCase(ctx, st, caseID, trio, nil); err != nil {
				return err
			}

			for _, role := range kinship.Roles {
				if p := trio.Profile(role); p != nil {
					a.logger.Info("stored sample",
						zap.String("case", caseID),
						zap.String("role", string(role)),
						zap.String("sample", p.SampleName),
						zap.Int("loci", len(p.Loci)))
				}
			}

			fmt.Fprintln(cmd.OutOrStdout(), caseID)
			return nil
		},
	}

	cmd.Flags().StringVar(&roles.child, "child", "", "Sample name of the child")
	cmd.Flags().StringVar(&roles.mother, "mother", "", "Sample name of the mother (optional)")
	cmd.Flags().StringVar(&roles.father, "father", "", "Sample name of the alleged father")
	cmd.Flags().StringVar(&caseID, "case", "", "Case ID (default: a new UUID)")

	return cmd
}
