// Package prune removes arcs from a strongly connected digraph one at a
// time while keeping it strongly connected.
package prune

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/nvandessel/arcprune/internal/graph"
)

// ErrExhausted is returned when no arc can be removed without breaking
// strong connectivity.
var ErrExhausted = errors.New("no removable arc preserves strong connectivity")

// Result is the outcome of a single successful removal.
type Result struct {
	Graph    *graph.Digraph // Snapshot with the arc removed
	Removed  graph.Edge     // The arc that was removed
	Attempts int            // Candidates tried, the successful one included
}

// RemoveArc shuffles the arc indices of g and removes the first candidate
// whose removal keeps the graph strongly connected. g is not modified.
//
// A non-loop candidate whose source has out-degree 1 or whose target has
// in-degree 1 is rejected without a traversal; it still counts as an
// attempt.
func RemoveArc(g *graph.Digraph, rng *rand.Rand) (Result, error) {
	m := g.NumEdges()
	order := rng.Perm(m)
	for i, idx := range order {
		e := g.Edge(idx)
		if e.From != e.To && (g.OutDegree(e.From) <= 1 || g.InDegree(e.To) <= 1) {
			continue
		}
		if !g.StronglyConnectedWithout(idx) {
			continue
		}
		next, err := g.WithoutEdge(idx)
		if err != nil {
			return Result{}, err
		}
		return Result{Graph: next, Removed: e, Attempts: i + 1}, nil
	}
	return Result{}, fmt.Errorf("after %d attempts: %w", m, ErrExhausted)
}

// RemoveBatch applies RemoveArc k times in sequence and returns the final
// snapshot with the total number of attempts. A failure at any step fails
// the whole batch; no partial snapshot is returned.
func RemoveBatch(g *graph.Digraph, k int, rng *rand.Rand) (*graph.Digraph, int, error) {
	cur := g
	total := 0
	for step := 0; step < k; step++ {
		res, err := RemoveArc(cur, rng)
		if err != nil {
			return nil, 0, &BatchError{Step: step, Err: err}
		}
		cur = res.Graph
		total += res.Attempts
	}
	return cur, total, nil
}

// BatchError reports the zero-based in-batch step at which a removal
// failed. Step equals the number of removals that succeeded before it.
type BatchError struct {
	Step int
	Err  error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("removing arc %d of batch: %v", e.Step, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
