package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/nvandessel/arcprune/internal/logging"
	"github.com/nvandessel/arcprune/internal/simulation"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the degradation experiment",
		Long: `Run every realization the configuration describes.

Each realization generates a strongly connected graph, measures it, then
repeatedly removes a batch of arcs and measures again. Per-realization
artifacts, the results catalog and corrs.csv are written to the output
directory. A failed realization does not stop the others.

Examples:
  arcprune run                                  # Defaults
  arcprune run --config er-600.yaml --workers 8
  arcprune run --nrealizations 2 --seed 10 --outdir /tmp/er`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers, _ = cmd.Flags().GetInt("workers")
			}
			if cmd.Flags().Changed("outdir") {
				cfg.OutDir, _ = cmd.Flags().GetString("outdir")
			}
			if cmd.Flags().Changed("seed") {
				cfg.Seed, _ = cmd.Flags().GetInt64("seed")
			}
			if cmd.Flags().Changed("nrealizations") {
				cfg.Realizations, _ = cmd.Flags().GetInt("nrealizations")
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			sigChan := make(chan os.Signal, 1)
			notifySignals(sigChan)
			defer signal.Stop(sigChan)
			go func() {
				select {
				case <-sigChan:
					cancel()
				case <-ctx.Done():
				}
			}()

			logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
			res, err := simulation.Run(ctx, cfg, logger)
			if res == nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				json.NewEncoder(out).Encode(map[string]interface{}{
					"outdir":    res.OutDir,
					"config":    res.ConfigPath,
					"csv":       res.CSVPath,
					"succeeded": res.Succeeded,
					"failed":    res.Failed,
					"failures":  res.Failures(),
				})
			} else {
				fmt.Fprintf(out, "Finished %d of %d realizations\n", res.Succeeded, res.Succeeded+res.Failed)
				for _, f := range res.Failures() {
					fmt.Fprintf(out, "  failed: %s\n", f)
				}
				fmt.Fprintf(out, "Results: %s\n", res.OutDir)
			}

			if err != nil {
				if res.Failed > 0 {
					return fmt.Errorf("%d of %d realizations failed", res.Failed, res.Succeeded+res.Failed)
				}
				return err
			}
			return nil
		},
	}

	cmd.Flags().Int("workers", 1, "Realizations to run concurrently")
	cmd.Flags().String("outdir", "", "Output directory")
	cmd.Flags().Int64("seed", 0, "Seed of the first realization")
	cmd.Flags().Int("nrealizations", 0, "Number of realizations")

	return cmd
}
