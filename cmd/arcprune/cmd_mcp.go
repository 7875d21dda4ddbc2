package main

import (
	"fmt"
	"path/filepath"

	"github.com/nvandessel/arcprune/internal/logging"
	"github.com/nvandessel/arcprune/internal/mcp"
	"github.com/spf13/cobra"
)

func newMCPServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "Serve the arcprune tools over MCP (stdio)",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing
arcprune_run, arcprune_check and arcprune_results.

Relative config and output paths are resolved against --root, and output
directories must stay under --root or the system temp directory. Tool
calls are audited to <root>/.arcprune/audit.jsonl. Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			level, _ := cmd.Flags().GetString("log-level")
			absRoot, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("failed to resolve root: %w", err)
			}

			server, err := mcp.NewServer(&mcp.Config{
				Name:    "arcprune",
				Version: version,
				Root:    absRoot,
				Logger:  logging.NewLogger(level, cmd.ErrOrStderr()),
			})
			if err != nil {
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().String("root", ".", "Directory relative paths are resolved against")
	return cmd
}
