package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/nvandessel/arcprune/internal/store"
	"github.com/spf13/cobra"
)

func newResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results <outdir>",
		Short: "Summarize the results catalog of a run",
		Long: `Print every realization recorded in <outdir>/results.db. With --seed,
print that realization's batches with their degree correlations.

Examples:
  arcprune results /tmp/arcprune
  arcprune results /tmp/arcprune --seed 3 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			ctx := cmd.Context()

			catalog, err := store.OpenExisting(args[0])
			if err != nil {
				return err
			}
			defer catalog.Close()

			summary, err := catalog.Summary(ctx)
			if err != nil {
				return fmt.Errorf("failed to summarize catalog: %w", err)
			}
			records, err := catalog.Realizations(ctx)
			if err != nil {
				return fmt.Errorf("failed to list realizations: %w", err)
			}

			var batches []store.BatchRecord
			seedSet := cmd.Flags().Changed("seed")
			if seedSet {
				seed, _ := cmd.Flags().GetInt64("seed")
				if _, err := catalog.Realization(ctx, seed); err != nil {
					return fmt.Errorf("seed %d: %w", seed, err)
				}
				if batches, err = catalog.Batches(ctx, seed); err != nil {
					return fmt.Errorf("failed to list batches: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				result := map[string]interface{}{
					"summary":      summary,
					"realizations": records,
				}
				if seedSet {
					result["batches"] = batches
				}
				return json.NewEncoder(out).Encode(result)
			}

			fmt.Fprintf(out, "%d realizations (%d ok, %d failed), %d batches\n\n",
				summary.Realizations, summary.OK, summary.Failed, summary.Batches)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SEED\tTOP\tN\tARCS\tSTATUS\tPHASE")
			for _, r := range records {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%s\t%s\n", r.Seed, r.Topology, r.Vertices, r.Edges, r.Status, r.Phase)
			}
			w.Flush()

			if seedSet {
				fmt.Fprintln(out)
				w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "BATCH\tARCS\tATTEMPTS\tCORRVISITS\tCORRFIRES\tCORRINFEC")
				for _, b := range batches {
					fmt.Fprintf(w, "%d\t%d\t%d\t%.4f\t%.4f\t%.4f\n",
						b.Batch, b.Edges, b.Attempts, b.CorrVisits, b.CorrFires, b.CorrInfections)
				}
				w.Flush()
			}
			return nil
		},
	}

	cmd.Flags().Int64("seed", 0, "Show the batches of this seed")
	return cmd
}
