package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/nvandessel/arcprune/internal/artifact"
	"github.com/nvandessel/arcprune/internal/config"
	"github.com/nvandessel/arcprune/internal/experiment"
	"github.com/nvandessel/arcprune/internal/logging"
	"github.com/nvandessel/arcprune/internal/report"
	"github.com/nvandessel/arcprune/internal/store"
)

// CorrsFile is the correlation table inside an output directory.
const CorrsFile = "corrs.csv"

// Result describes a finished run.
type Result struct {
	OutDir     string               `json:"outdir"`
	ConfigPath string               `json:"config_path"`
	CSVPath    string               `json:"csv_path"`
	Outcomes   []experiment.Outcome `json:"-"`
	Rows       []report.Row         `json:"rows"`
	Succeeded  int                  `json:"succeeded"`
	Failed     int                  `json:"failed"`
}

// Failures returns the error message of every failed realization, in
// realization order.
func (r *Result) Failures() []string {
	var out []string
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o.Err.Error())
		}
	}
	return out
}

// Run validates cfg and runs every realization it describes. The
// returned Result is non-nil whenever the run started; the error joins
// every realization failure.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	gen, err := cfg.Generator()
	if err != nil {
		return nil, fmt.Errorf("building generator: %w", err)
	}

	configPath, err := cfg.Save(cfg.OutDir)
	if err != nil {
		return nil, err
	}

	catalog, err := store.Open(cfg.OutDir)
	if err != nil {
		return nil, fmt.Errorf("opening results catalog: %w", err)
	}
	defer catalog.Close()
	catalog.Label(cfg.Topology, cfg.NumVertices)

	events := logging.NewEventLogger(cfg.OutDir, cfg.Logging.Level)
	defer events.Close()

	sink := experiment.SinkFunc(func(ctx context.Context, o experiment.Outcome) error {
		if o.Realization != nil {
			dir, err := artifact.SaveRealization(cfg.OutDir, o.Realization)
			if err != nil {
				return err
			}
			logger.Debug("saved artifacts", "seed", o.Seed, "dir", dir)
		}
		return catalog.Record(ctx, o)
	})

	logger.Info("starting run",
		"topology", cfg.Topology, "vertices", cfg.NumVertices, "realizations", cfg.Realizations,
		"workers", cfg.Workers, "outdir", cfg.OutDir)

	outcomes, runErr := experiment.RunAll(ctx, cfg.ToParams(), gen, experiment.RunOptions{
		Realizations: cfg.Realizations,
		BaseSeed:     cfg.Seed,
		Workers:      cfg.Workers,
		Logger:       logger,
		Events:       events,
		Sink:         sink,
	})

	res := &Result{
		OutDir:     cfg.OutDir,
		ConfigPath: configPath,
		CSVPath:    filepath.Join(cfg.OutDir, CorrsFile),
		Outcomes:   outcomes,
		Rows:       report.CorrelateAll(outcomes),
	}
	for _, o := range outcomes {
		if o.Err != nil {
			res.Failed++
		} else {
			res.Succeeded++
		}
	}

	if err := report.WriteCSV(res.CSVPath, res.Rows); err != nil {
		return res, fmt.Errorf("writing correlations: %w", err)
	}
	return res, runErr
}

// CheckResult describes the initial graph of a dry run.
type CheckResult struct {
	Seed               int64 `json:"seed"`
	Vertices           int   `json:"vertices"`
	Edges              int   `json:"edges"`
	GenerationAttempts int   `json:"generation_attempts"`
	Removals           int   `json:"removals"` // Arcs the batch schedule removes
}

// Check validates cfg, generates the first realization's initial graph
// and runs the preflight checks on it. Nothing is simulated or written.
func Check(cfg *config.Config) (CheckResult, error) {
	if err := cfg.Validate(); err != nil {
		return CheckResult{}, fmt.Errorf("invalid config: %w", err)
	}
	gen, err := cfg.Generator()
	if err != nil {
		return CheckResult{}, fmt.Errorf("building generator: %w", err)
	}

	res := CheckResult{Seed: cfg.Seed, Removals: cfg.Batches * cfg.BatchSize}
	g, tries, err := experiment.Preflight(cfg.ToParams(), gen, cfg.Seed)
	res.GenerationAttempts = tries
	if err != nil {
		return res, err
	}
	res.Vertices, res.Edges = g.NumVertices(), g.NumEdges()
	return res, nil
}
