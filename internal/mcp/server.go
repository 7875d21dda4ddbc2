// Package mcp provides an MCP (Model Context Protocol) server that lets an
// agent run degradation experiments and inspect their results.
package mcp

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/arcprune/internal/logging"
	"github.com/nvandessel/arcprune/internal/pathutil"
	"github.com/nvandessel/arcprune/internal/ratelimit"
)

// Server wraps the MCP SDK server with the arcprune tools.
type Server struct {
	server       *sdk.Server
	root         string
	allowedDirs  []string
	auditLogger  *AuditLogger
	toolLimiters ratelimit.ToolLimiters
	logger       *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string       // Server name (e.g., "arcprune")
	Version string       // Server version
	Root    string       // Directory relative paths are resolved against
	Logger  *slog.Logger // Optional; discards when nil
}

// NewServer creates a new MCP server with the arcprune tools registered.
func NewServer(cfg *Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{})

	s := &Server{
		server:       mcpServer,
		root:         cfg.Root,
		allowedDirs:  pathutil.DefaultAllowedOutputDirs(cfg.Root),
		auditLogger:  NewAuditLogger(cfg.Root),
		toolLimiters: ratelimit.NewToolLimiters(),
		logger:       logger,
	}
	s.registerTools()
	return s, nil
}

// Run serves over stdio until the client disconnects, ctx is cancelled
// or the process is interrupted.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
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

	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.Close()
	return err
}

// Close releases the audit log. It is safe to call more than once.
func (s *Server) Close() error {
	err := s.auditLogger.Close()
	s.auditLogger = nil
	return err
}
