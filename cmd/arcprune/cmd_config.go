package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nvandessel/arcprune/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create experiment configuration",
		Long: `Show the resolved configuration or write a default one.

The configuration is resolved from defaults, then --config, then the
ARCPRUNE_* environment variables.

Examples:
  arcprune config show                      # Resolved defaults
  arcprune config show --config er.yaml     # Resolved file
  arcprune config init ./experiments/er     # Write ./experiments/er/config.yaml`,
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigInitCmd(),
	)
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			cfg, err := loadConfig(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init <dir>",
		Short: "Write a default config.yaml into dir",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			force, _ := cmd.Flags().GetBool("force")
			dir := args[0]

			if !force {
				if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
					return fmt.Errorf("%s already exists in %s (use --force to overwrite)", config.FileName, dir)
				}
			}
			path, err := config.Default().Save(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				json.NewEncoder(out).Encode(map[string]string{
					"status": "created",
					"path":   path,
				})
			} else {
				fmt.Fprintf(out, "Wrote %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing config.yaml")
	return cmd
}
