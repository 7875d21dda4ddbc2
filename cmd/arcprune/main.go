package main

import (
	"fmt"
	"os"

	"github.com/nvandessel/arcprune/internal/config"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "arcprune",
		Short: "Arc pruning - dynamics on degrading directed networks",
		Long: `arcprune generates random networks, removes arcs from them in batches
while keeping them strongly connected, and measures how random walks,
integrate-and-fire cascades and SIS epidemics distribute over the vertices
as the network degrades.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (defaults when empty)")
	rootCmd.PersistentFlags().String("log-level", "", "Override logging.level (info, debug, trace)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newCheckCmd(),
		newConfigCmd(),
		newResultsCmd(),
		newGraphCmd(),
		newMCPServerCmd(),
	)
	return rootCmd
}

// loadConfig resolves the configuration named by the persistent flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	return cfg, nil
}
