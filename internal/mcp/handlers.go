package mcp

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/arcprune/internal/config"
	"github.com/nvandessel/arcprune/internal/pathutil"
	"github.com/nvandessel/arcprune/internal/report"
	"github.com/nvandessel/arcprune/internal/sanitize"
	"github.com/nvandessel/arcprune/internal/simulation"
	"github.com/nvandessel/arcprune/internal/store"
)

// Tool names.
const (
	ToolRun     = "arcprune_run"
	ToolResults = "arcprune_results"
	ToolCheck   = "arcprune_check"
)

// registerTools registers all arcprune MCP tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolRun,
		Description: "Run a degradation experiment: generate graphs, prune arcs in batches and measure walk, firing and epidemic dynamics",
	}, s.handleRun)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolResults,
		Description: "Summarize the results catalog of a previous run, optionally with the batches of one seed",
	}, s.handleResults)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        ToolCheck,
		Description: "Validate a configuration and generate its first graph without simulating anything",
	}, s.handleCheck)
}

// loadConfig reads the config at path (resolved against the server root)
// or the defaults when path is empty.
func (s *Server) loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load("")
	}
	resolved := pathutil.Resolve(s.root, path)
	if err := pathutil.ValidatePath(resolved, s.allowedDirs); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}
	return config.Load(resolved)
}

// outDir resolves dir against the server root and checks it is allowed.
func (s *Server) outDir(dir string) (string, error) {
	if dir == "" {
		return "", fmt.Errorf("outdir is required")
	}
	resolved := pathutil.Resolve(s.root, dir)
	if err := pathutil.ValidatePath(resolved, s.allowedDirs); err != nil {
		return "", fmt.Errorf("invalid outdir: %w", err)
	}
	return resolved, nil
}

// handleRun implements the arcprune_run tool.
func (s *Server) handleRun(ctx context.Context, req *sdk.CallToolRequest, args RunInput) (_ *sdk.CallToolResult, _ RunOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolRun, start, retErr, sanitizeToolParams(map[string]any{
			"config":        args.Config,
			"top":           args.Topology,
			"nvertices":     args.NumVertices,
			"nrealizations": args.Realizations,
			"seed":          args.Seed,
			"workers":       args.Workers,
			"outdir":        args.OutDir,
		}))
	}()

	if err := s.toolLimiters.Check(ToolRun); err != nil {
		return nil, RunOutput{}, err
	}

	cfg, err := s.loadConfig(args.Config)
	if err != nil {
		return nil, RunOutput{}, err
	}
	if args.Topology != "" {
		cfg.Topology = args.Topology
	}
	if args.NumVertices > 0 {
		cfg.NumVertices = args.NumVertices
	}
	if args.Realizations > 0 {
		cfg.Realizations = args.Realizations
	}
	if args.Seed != 0 {
		cfg.Seed = args.Seed
	}
	if args.Workers > 0 {
		cfg.Workers = args.Workers
	}
	if args.OutDir != "" {
		cfg.OutDir = args.OutDir
	}
	if cfg.OutDir, err = s.outDir(cfg.OutDir); err != nil {
		return nil, RunOutput{}, err
	}

	s.logger.Info("tool run", "tool", ToolRun, "topology", cfg.Topology, "realizations", cfg.Realizations)
	res, err := simulation.Run(ctx, cfg, s.logger)
	if res == nil {
		return nil, RunOutput{}, err
	}
	if err != nil && res.Failed == 0 {
		return nil, RunOutput{}, err
	}

	rows := res.Rows
	if rows == nil {
		rows = []report.Row{}
	}
	return nil, RunOutput{
		OutDir:    res.OutDir,
		CSVPath:   res.CSVPath,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
		Failures:  sanitize.Messages(res.Failures()),
		Rows:      rows,
		Message:   fmt.Sprintf("%d of %d realizations finished", res.Succeeded, res.Succeeded+res.Failed),
	}, nil
}

// handleResults implements the arcprune_results tool.
func (s *Server) handleResults(ctx context.Context, req *sdk.CallToolRequest, args ResultsInput) (_ *sdk.CallToolResult, _ ResultsOutput, retErr error) {
	start := time.Now()
	defer func() {
		params := map[string]any{"outdir": args.OutDir}
		if args.Seed != nil {
			params["seed"] = *args.Seed
		}
		s.auditTool(ToolResults, start, retErr, sanitizeToolParams(params))
	}()

	if err := s.toolLimiters.Check(ToolResults); err != nil {
		return nil, ResultsOutput{}, err
	}

	dir, err := s.outDir(args.OutDir)
	if err != nil {
		return nil, ResultsOutput{}, err
	}
	catalog, err := store.OpenExisting(dir)
	if err != nil {
		return nil, ResultsOutput{}, err
	}
	defer catalog.Close()

	summary, err := catalog.Summary(ctx)
	if err != nil {
		return nil, ResultsOutput{}, fmt.Errorf("summarizing catalog: %w", err)
	}
	records, err := catalog.Realizations(ctx)
	if err != nil {
		return nil, ResultsOutput{}, fmt.Errorf("listing realizations: %w", err)
	}
	out := ResultsOutput{
		Summary:      summary,
		Realizations: make([]RealizationSummary, 0, len(records)),
	}
	for _, r := range records {
		out.Realizations = append(out.Realizations, RealizationSummary{
			Seed:               r.Seed,
			Topology:           r.Topology,
			Vertices:           r.Vertices,
			Edges:              r.Edges,
			GenerationAttempts: r.GenerationAttempts,
			Status:             r.Status,
			Phase:              r.Phase,
			Error:              r.Error,
			StartedAt:          r.StartedAt.Format(time.RFC3339Nano),
			FinishedAt:         r.FinishedAt.Format(time.RFC3339Nano),
		})
	}

	if args.Seed != nil {
		if _, err := catalog.Realization(ctx, *args.Seed); err != nil {
			return nil, ResultsOutput{}, fmt.Errorf("seed %d: %w", *args.Seed, err)
		}
		if out.Batches, err = catalog.Batches(ctx, *args.Seed); err != nil {
			return nil, ResultsOutput{}, fmt.Errorf("listing batches: %w", err)
		}
	}
	return nil, out, nil
}

// handleCheck implements the arcprune_check tool. A configuration that
// cannot run is reported in the output rather than as a tool error.
func (s *Server) handleCheck(ctx context.Context, req *sdk.CallToolRequest, args CheckInput) (_ *sdk.CallToolResult, _ CheckOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool(ToolCheck, start, retErr, sanitizeToolParams(map[string]any{
			"config": args.Config,
		}))
	}()

	if err := s.toolLimiters.Check(ToolCheck); err != nil {
		return nil, CheckOutput{}, err
	}

	cfg, err := s.loadConfig(args.Config)
	if err != nil {
		return nil, CheckOutput{}, err
	}
	res, err := simulation.Check(cfg)
	out := CheckOutput{
		Valid:              err == nil,
		Seed:               res.Seed,
		Vertices:           res.Vertices,
		Edges:              res.Edges,
		GenerationAttempts: res.GenerationAttempts,
		Removals:           res.Removals,
	}
	if err != nil {
		out.Error = sanitize.Message(err.Error())
	}
	return nil, out, nil
}
