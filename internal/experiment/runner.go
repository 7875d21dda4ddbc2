package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/arcprune/internal/graph"
	"github.com/nvandessel/arcprune/internal/logging"
)

// seedStream is the PCG stream shared by every realization; only the
// seed differs between them.
const seedStream = 0x61726370

// NewRand returns the random source of the realization with the given
// seed.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), seedStream))
}

// RunRealization runs the realization for seed with its own random
// source.
func RunRealization(ctx context.Context, p Params, gen Generator, seed int64, opts ...Option) (*Realization, error) {
	opts = append([]Option{WithSeed(seed)}, opts...)
	return NewDriver(p, gen, NewRand(seed), opts...).Run(ctx)
}

// Outcome is the result of one realization. Exactly one of Realization
// and Err is set, unless the Sink failed after a successful run.
type Outcome struct {
	Index       int
	Seed        int64
	Realization *Realization
	Err         error
	Started     time.Time
	Finished    time.Time
}

// Sink receives every outcome as soon as its realization finishes.
// Implementations must be safe for concurrent use.
type Sink interface {
	Record(ctx context.Context, o Outcome) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, o Outcome) error

// Record calls f(ctx, o).
func (f SinkFunc) Record(ctx context.Context, o Outcome) error { return f(ctx, o) }

// RunOptions configures RunAll.
type RunOptions struct {
	Realizations int
	BaseSeed     int64
	Workers      int
	Logger       *slog.Logger
	Events       *logging.EventLogger
	Sink         Sink
}

// RunAll runs realizations BaseSeed..BaseSeed+Realizations-1 on at most
// Workers goroutines. Outcomes are indexed by realization. A failing
// realization does not stop its siblings; the returned error joins every
// realization failure.
func RunAll(ctx context.Context, p Params, gen Generator, opts RunOptions) ([]Outcome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	workers := max(opts.Workers, 1)

	outcomes := make([]Outcome, max(opts.Realizations, 0))
	var g errgroup.Group
	g.SetLimit(workers)
	for i := range outcomes {
		seed := opts.BaseSeed + int64(i)
		g.Go(func() error {
			o := Outcome{Index: i, Seed: seed, Started: time.Now().UTC()}
			o.Realization, o.Err = RunRealization(ctx, p, gen, seed, WithLogger(logger), WithEvents(opts.Events))
			o.Finished = time.Now().UTC()
			if opts.Sink != nil {
				if err := opts.Sink.Record(ctx, o); err != nil {
					o.Err = errors.Join(o.Err, fmt.Errorf("recording seed %d: %w", seed, err))
				}
			}
			outcomes[i] = o
			return nil
		})
	}
	// Closures always return nil; failures travel in Outcome.Err.
	_ = g.Wait()

	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	logger.Info("run complete", "realizations", len(outcomes), "failed", len(errs), "workers", workers)
	return outcomes, errors.Join(errs...)
}

// Preflight generates the initial graph of seed and checks it against the
// batch schedule without simulating anything. It returns the graph and
// the number of generation attempts.
func Preflight(p Params, gen Generator, seed int64) (*graph.Digraph, int, error) {
	d := NewDriver(p, gen, NewRand(seed), WithSeed(seed))
	if err := p.Validate(); err != nil {
		return nil, 0, d.fail(0, -1, err)
	}
	g, tries, err := d.generate()
	if err != nil {
		return nil, 0, d.fail(0, -1, err)
	}
	if err := CheckPreconditions(p, g); err != nil {
		return nil, tries, d.fail(0, -1, err)
	}
	return g, tries, nil
}
