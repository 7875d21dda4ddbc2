package experiment

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/nvandessel/arcprune/internal/graph"
	"github.com/nvandessel/arcprune/internal/prune"
	"github.com/nvandessel/arcprune/internal/topology"
)

func testParams() Params {
	return Params{
		Topology:        "cy",
		NumVertices:     6,
		DegreeMode:      graph.DegreeAll,
		Batches:         1,
		BatchSize:       0,
		TrimFraction:    0.2,
		WalkLength:      50,
		FiringTicks:     30,
		FiringThreshold: 1,
		EpidemicTicks:   30,
		InitialInfected: 0.5,
		Beta:            0.3,
		Gamma:           0.2,
	}
}

func fixed(g *graph.Digraph) Generator {
	return topology.Fixed(g)
}

func sum(xs []int64) int64 {
	var s int64
	for _, x := range xs {
		s += x
	}
	return s
}

func TestDriver_CycleEndToEnd(t *testing.T) {
	p := testParams()
	d := NewDriver(p, fixed(graph.Cycle(6)), NewRand(1), WithSeed(1))
	r, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if d.Phase() != PhaseDone {
		t.Errorf("Phase = %v, want done", d.Phase())
	}
	if len(r.Batches) != 2 {
		t.Fatalf("len(Batches) = %d, want 2", len(r.Batches))
	}
	if diff := cmp.Diff([]int64{1, 0}, r.Attempts()); diff != "" {
		t.Errorf("Attempts mismatch:\n%s", diff)
	}

	for _, b := range r.Batches {
		if b.NumEdges != 6 {
			t.Errorf("batch %d: NumEdges = %d, want 6", b.Batch, b.NumEdges)
		}
		if diff := cmp.Diff([]int64{2, 2, 2, 2, 2, 2}, b.Degrees); diff != "" {
			t.Errorf("batch %d degrees mismatch:\n%s", b.Batch, diff)
		}
		if got := sum(b.Visits); got != 40 {
			t.Errorf("batch %d: visit sum = %d, want 40", b.Batch, got)
		}
		for _, m := range [][]int64{b.Fires, b.Infections} {
			if len(m) != 6 {
				t.Errorf("batch %d: vector length %d, want 6", b.Batch, len(m))
			}
		}
		if b.LastFires < 0 || b.LastFires > 6 || b.LastInfections < 0 || b.LastInfections > 6 {
			t.Errorf("batch %d: last counts %d/%d out of range", b.Batch, b.LastFires, b.LastInfections)
		}
	}

	want := []Row{
		{Topology: "cy", NumVertices: 6, Seed: 1, Batch: 0},
		{Topology: "cy", NumVertices: 6, Seed: 1, Batch: 1},
	}
	if diff := cmp.Diff(want, r.Rows()); diff != "" {
		t.Errorf("Rows mismatch:\n%s", diff)
	}
	if got := len(r.DegreeMatrix()); got != 2 {
		t.Errorf("DegreeMatrix rows = %d, want 2", got)
	}

	again, err := NewDriver(p, fixed(graph.Cycle(6)), NewRand(1), WithSeed(1)).Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if diff := cmp.Diff(r, again); diff != "" {
		t.Errorf("repeated run with seed 1 differs:\n%s", diff)
	}
}

func TestDriver_PreflightRejectsSchedule(t *testing.T) {
	p := testParams()
	p.Batches, p.BatchSize = 10, 1
	calls := 0
	gen := topology.GeneratorFunc(func(*rand.Rand) (*graph.Digraph, error) {
		calls++
		return graph.Cycle(5), nil
	})
	d := NewDriver(p, gen, NewRand(0))
	r, err := d.Run(context.Background())
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
	if r != nil {
		t.Error("expected no statistics on failure")
	}
	if d.Phase() != PhaseGenerating {
		t.Errorf("failed in phase %v, want generating", d.Phase())
	}
	if calls != 1 {
		t.Errorf("generator called %d times, want 1", calls)
	}
}

func TestCheckPreconditions(t *testing.T) {
	p := testParams()
	tests := []struct {
		name    string
		batches int
		size    int
		g       *graph.Digraph
		wantErr bool
	}{
		{"within budget", 2, 2, graph.Cycle(6), false},
		{"exactly three quarters", 3, 2, graph.Cycle(8), false},
		{"over budget", 10, 1, graph.Cycle(5), true},
		{"not strongly connected", 0, 0, mustGraph(t, 3, []graph.Edge{{From: 0, To: 1}}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p.Batches, p.BatchSize = tt.batches, tt.size
			err := CheckPreconditions(p, tt.g)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CheckPreconditions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func mustGraph(t *testing.T, n int, edges []graph.Edge) *graph.Digraph {
	t.Helper()
	g, err := graph.New(n, edges)
	if err != nil {
		t.Fatalf("graph.New: %v", err)
	}
	return g
}

func TestDriver_GenerationRetries(t *testing.T) {
	p := testParams()
	calls := 0
	broken := mustGraph(t, 3, []graph.Edge{{From: 0, To: 1}, {From: 1, To: 2}})
	gen := topology.GeneratorFunc(func(*rand.Rand) (*graph.Digraph, error) {
		calls++
		if calls < 3 {
			return broken, nil
		}
		return graph.Cycle(6), nil
	})
	r, err := NewDriver(p, gen, NewRand(0)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if r.GenerationAttempts != 3 || r.Batches[0].Attempts != 3 {
		t.Errorf("generation attempts = %d/%d, want 3", r.GenerationAttempts, r.Batches[0].Attempts)
	}
}

func TestDriver_GenerationExhausted(t *testing.T) {
	p := testParams()
	p.MaxGenerationAttempts = 5
	calls := 0
	broken := mustGraph(t, 3, []graph.Edge{{From: 0, To: 1}})
	gen := topology.GeneratorFunc(func(*rand.Rand) (*graph.Digraph, error) {
		calls++
		return broken, nil
	})
	_, err := NewDriver(p, gen, NewRand(0), WithSeed(9)).Run(context.Background())
	if !errors.Is(err, ErrGenerationExhausted) {
		t.Fatalf("expected ErrGenerationExhausted, got %v", err)
	}
	if calls != 5 {
		t.Errorf("generator called %d times, want 5", calls)
	}
	var se *StepError
	if !errors.As(err, &se) || se.Phase != PhaseGenerating || se.Seed != 9 {
		t.Errorf("expected generating StepError for seed 9, got %#v", err)
	}
}

func TestDriver_PruneExhausted(t *testing.T) {
	p := testParams()
	p.BatchSize = 1
	_, err := NewDriver(p, fixed(graph.Cycle(6)), NewRand(2)).Run(context.Background())
	if !errors.Is(err, prune.ErrExhausted) {
		t.Fatalf("expected prune.ErrExhausted, got %v", err)
	}
	var se *StepError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StepError, got %T", err)
	}
	if se.Phase != PhasePruning || se.Batch != 1 || se.Step != 0 {
		t.Errorf("StepError = %+v, want pruning batch 1 step 0", se)
	}
}

func TestDriver_InvalidParams(t *testing.T) {
	p := testParams()
	p.TrimFraction = 1
	_, err := NewDriver(p, fixed(graph.Cycle(6)), NewRand(0)).Run(context.Background())
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestDriver_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDriver(testParams(), fixed(graph.Cycle(6)), NewRand(0)).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestDriver_PruningKeepsConnectivity(t *testing.T) {
	p := testParams()
	p.NumVertices = 20
	p.Batches, p.BatchSize = 4, 3
	gen, err := topology.New(topology.Lattice, 20, 4)
	if err != nil {
		t.Fatalf("topology.New: %v", err)
	}
	r, err := NewDriver(p, gen, NewRand(3)).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, b := range r.Batches {
		if want := r.NumEdges - 3*i; b.NumEdges != want {
			t.Errorf("batch %d: NumEdges = %d, want %d", i, b.NumEdges, want)
		}
		if i > 0 && b.Attempts < 3 {
			t.Errorf("batch %d: Attempts = %d, want >= 3", i, b.Attempts)
		}
	}
}

func TestStepError_Message(t *testing.T) {
	tests := []struct {
		err  *StepError
		want string
	}{
		{&StepError{Seed: 1, Phase: PhaseGenerating, Step: -1, Err: ErrGenerationExhausted}, "seed 1: generating: " + ErrGenerationExhausted.Error()},
		{&StepError{Seed: 2, Phase: PhasePruning, Batch: 3, Step: 1, Err: prune.ErrExhausted}, "seed 2: pruning batch 3 step 1: " + prune.ErrExhausted.Error()},
		{&StepError{Seed: 3, Phase: PhaseMeasuring, Batch: 0, Step: -1, Err: context.Canceled}, "seed 3: measuring batch 0: context canceled"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}
