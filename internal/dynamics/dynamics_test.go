package dynamics

import (
	"math/rand/v2"
	"testing"

	"github.com/nvandessel/arcprune/internal/graph"
)

// newRand returns a deterministic generator for tests.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0xda7a))
}

// chordedCycle returns a cycle on n vertices with the chords i->i+2,
// giving every vertex in- and out-degree 2.
func chordedCycle(t *testing.T, n int) *graph.Digraph {
	t.Helper()
	edges := graph.Cycle(n).Edges()
	for i := 0; i < n; i++ {
		edges = append(edges, graph.Edge{From: i, To: (i + 2) % n})
	}
	g, err := graph.New(n, edges)
	if err != nil {
		t.Fatalf("chordedCycle(%d): %v", n, err)
	}
	return g
}

// mutualGraph returns a small undirected graph with mutual arcs.
func mutualGraph(t *testing.T) *graph.Digraph {
	t.Helper()
	g, err := graph.FromUndirected(6, []graph.Edge{
		{From: 0, To: 1}, {From: 1, To: 2}, {From: 2, To: 0},
		{From: 2, To: 3}, {From: 3, To: 4}, {From: 4, To: 5}, {From: 5, To: 3},
	})
	if err != nil {
		t.Fatalf("mutualGraph: %v", err)
	}
	return g
}

func sum(xs []int64) int64 {
	var s int64
	for _, x := range xs {
		s += x
	}
	return s
}
