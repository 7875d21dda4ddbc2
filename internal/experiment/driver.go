package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/nvandessel/arcprune/internal/dynamics"
	"github.com/nvandessel/arcprune/internal/graph"
	"github.com/nvandessel/arcprune/internal/logging"
	"github.com/nvandessel/arcprune/internal/prune"
)

// Generator produces a candidate initial graph.
type Generator interface {
	Generate(rng *rand.Rand) (*graph.Digraph, error)
}

// Driver runs one realization through
// Generating -> Measuring -> (Pruning -> Measuring) x Batches -> Done.
// A Driver is single use and not safe for concurrent use.
type Driver struct {
	params Params
	gen    Generator
	rng    *rand.Rand
	seed   int64
	logger *slog.Logger
	events *logging.EventLogger
	phase  Phase
}

// Option configures a Driver.
type Option func(*Driver)

// WithSeed sets the seed reported in results and errors. It does not
// reseed the random source.
func WithSeed(seed int64) Option {
	return func(d *Driver) { d.seed = seed }
}

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithEvents records phase transitions to the JSONL event trace.
func WithEvents(events *logging.EventLogger) Option {
	return func(d *Driver) { d.events = events }
}

// NewDriver creates a driver drawing every random number from rng.
func NewDriver(p Params, gen Generator, rng *rand.Rand, opts ...Option) *Driver {
	d := &Driver{
		params: p,
		gen:    gen,
		rng:    rng,
		logger: logging.Discard(),
		phase:  PhaseGenerating,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Phase returns the current state.
func (d *Driver) Phase() Phase { return d.phase }

// Run executes the realization. No partial statistics are returned on
// failure; every realization-fatal error is a *StepError.
func (d *Driver) Run(ctx context.Context) (*Realization, error) {
	p := d.params
	d.enter(PhaseGenerating, 0)
	if err := p.Validate(); err != nil {
		return nil, d.fail(0, -1, err)
	}

	g, tries, err := d.generate()
	if err != nil {
		return nil, d.fail(0, -1, err)
	}
	if err := CheckPreconditions(p, g); err != nil {
		return nil, d.fail(0, -1, err)
	}

	r := &Realization{
		Seed:               d.seed,
		Topology:           p.Topology,
		RequestedVertices:  p.NumVertices,
		NumVertices:        g.NumVertices(),
		NumEdges:           g.NumEdges(),
		GenerationAttempts: tries,
		Batches:            make([]BatchStats, 0, p.Batches+1),
	}

	attempts := tries
	for batch := 0; batch <= p.Batches; batch++ {
		if batch > 0 {
			d.enter(PhasePruning, batch)
			if err := ctx.Err(); err != nil {
				return nil, d.fail(batch, -1, err)
			}
			next, n, err := prune.RemoveBatch(g, p.BatchSize, d.rng)
			if err != nil {
				step := -1
				var be *prune.BatchError
				if errors.As(err, &be) {
					step = be.Step
				}
				return nil, d.fail(batch, step, err)
			}
			g, attempts = next, n
			d.logger.Debug("pruned batch", "seed", d.seed, "batch", batch, "arcs", g.NumEdges(), "attempts", attempts)
		}

		d.enter(PhaseMeasuring, batch)
		stats, err := d.measure(g)
		if err != nil {
			return nil, d.fail(batch, -1, err)
		}
		stats.Batch = batch
		stats.Attempts = int64(attempts)
		r.Batches = append(r.Batches, stats)
	}

	d.enter(PhaseDone, p.Batches)
	d.logger.Info("realization complete", "seed", d.seed, "vertices", r.NumVertices, "arcs", g.NumEdges())
	return r, nil
}

// generate draws graphs until one is strongly connected.
func (d *Driver) generate() (*graph.Digraph, int, error) {
	limit := d.params.maxGenerationAttempts()
	for try := 1; try <= limit; try++ {
		g, err := d.gen.Generate(d.rng)
		if err != nil {
			return nil, 0, fmt.Errorf("generating graph: %w", err)
		}
		if g != nil && g.NumVertices() > 0 && g.IsStronglyConnected() {
			d.logger.Debug("generated graph", "seed", d.seed, "attempts", try,
				"vertices", g.NumVertices(), "arcs", g.NumEdges())
			return g, try, nil
		}
	}
	return nil, 0, fmt.Errorf("after %d attempts: %w", limit, ErrGenerationExhausted)
}

// measure runs the walk, the integrate-and-fire model and the epidemic,
// in that order, on the same snapshot.
func (d *Driver) measure(g *graph.Digraph) (BatchStats, error) {
	p := d.params
	n := g.NumVertices()

	visits, err := dynamics.Walk(g, dynamics.WalkParams{
		Length: p.WalkLength,
		Trim:   p.trim(p.WalkLength),
	}, d.rng)
	if err != nil {
		return BatchStats{}, fmt.Errorf("random walk: %w", err)
	}

	fire := dynamics.Fire(g, dynamics.FiringParams{
		Threshold: p.FiringThreshold,
		Ticks:     p.FiringTicks,
		Trim:      p.trim(p.FiringTicks),
	}, d.rng)

	sis := dynamics.SIS(g, dynamics.EpidemicParams{
		Beta:    p.Beta,
		Gamma:   p.Gamma,
		// n is the generated vertex count, which can be below the request.
		Initial: int(p.InitialInfected * float64(n)),
		Ticks:   p.EpidemicTicks,
		Trim:    p.trim(p.EpidemicTicks),
	}, d.rng)

	return BatchStats{
		NumEdges:       g.NumEdges(),
		Degrees:        g.Degrees(p.DegreeMode),
		Visits:         visits,
		Fires:          fire.Fires,
		Infections:     sis.Infections,
		LastFires:      int64(fire.LastFires),
		LastInfections: int64(sis.LastInfections),
	}, nil
}

func (d *Driver) enter(phase Phase, batch int) {
	d.phase = phase
	d.logger.Log(context.Background(), logging.LevelTrace, "phase", "seed", d.seed, "phase", phase.String(), "batch", batch)
	d.events.Log("phase", map[string]any{"seed": d.seed, "phase": phase.String(), "batch": batch})
}

func (d *Driver) fail(batch, step int, err error) error {
	se := &StepError{Seed: d.seed, Phase: d.phase, Batch: batch, Step: step, Err: err}
	d.logger.Warn("realization failed", "seed", d.seed, "phase", d.phase.String(), "batch", batch, "error", err)
	d.events.Log("failed", map[string]any{"seed": d.seed, "phase": d.phase.String(), "batch": batch, "error": err.Error()})
	return se
}
