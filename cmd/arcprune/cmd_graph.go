package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/nvandessel/arcprune/internal/experiment"
	"github.com/nvandessel/arcprune/internal/graph"
	"github.com/nvandessel/arcprune/internal/visualization"
	"github.com/spf13/cobra"
)

func newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Render the initial graph of the first realization",
		Long: `Generate the graph the first realization would start from and render it
in Graphviz DOT or JSON. Vertices are shaded by their degree under the
configured degmode.

Examples:
  arcprune graph --config la.yaml | dot -Tsvg > la.svg
  arcprune graph --format json --output graph.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")
			output, _ := cmd.Flags().GetString("output")

			format, err := visualization.ParseFormat(formatStr)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			gen, err := cfg.Generator()
			if err != nil {
				return err
			}
			mode, err := graph.ParseDegreeMode(cfg.DegreeMode)
			if err != nil {
				return err
			}
			g, _, err := experiment.Preflight(cfg.ToParams(), gen, cfg.Seed)
			if err != nil {
				return err
			}

			var data []byte
			switch format {
			case visualization.FormatDOT:
				dot, err := visualization.RenderDOT(g, fmt.Sprintf("%s-%d", cfg.Topology, cfg.Seed), g.Degrees(mode))
				if err != nil {
					return err
				}
				data = []byte(dot)
			case visualization.FormatJSON:
				m, err := visualization.RenderJSON(g, g.Degrees(mode))
				if err != nil {
					return err
				}
				if data, err = json.MarshalIndent(m, "", "  "); err != nil {
					return err
				}
				data = append(data, '\n')
			}

			if output == "" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().String("format", "dot", "Output format: dot or json")
	cmd.Flags().String("output", "", "Write to this file instead of stdout")
	return cmd
}
