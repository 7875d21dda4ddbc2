package main

import (
	"encoding/json"
	"fmt"

	"github.com/nvandessel/arcprune/internal/simulation"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration without running it",
		Long: `Validate the configuration, generate the first realization's graph and
check that the batch schedule leaves enough arcs for it to stay strongly
connected. Nothing is simulated or written.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			res, checkErr := simulation.Check(cfg)
			out := cmd.OutOrStdout()
			if jsonOut {
				result := map[string]interface{}{
					"valid":  checkErr == nil,
					"result": res,
				}
				if checkErr != nil {
					result["error"] = checkErr.Error()
				}
				json.NewEncoder(out).Encode(result)
				return checkErr
			}
			if checkErr != nil {
				return checkErr
			}
			fmt.Fprintf(out, "Configuration is valid\n")
			fmt.Fprintf(out, "  seed %d: %d vertices, %d arcs after %d generation attempt(s)\n",
				res.Seed, res.Vertices, res.Edges, res.GenerationAttempts)
			fmt.Fprintf(out, "  schedule removes %d arcs\n", res.Removals)
			return nil
		},
	}
}
