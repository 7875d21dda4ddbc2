package dynamics

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/nvandessel/arcprune/internal/graph"
)

// ErrDanglingVertex is returned when a vertex has no outgoing arc, which
// leaves its transition row undefined.
var ErrDanglingVertex = errors.New("vertex has no outgoing arcs")

// WalkParams configures a random walk.
type WalkParams struct {
	// Length is the number of vertices in the walk, start included.
	Length int

	// Trim is the number of leading positions excluded from the counts.
	Trim int
}

// Transition is a row-stochastic matrix stored by row: trans[i][j] is the
// number of arcs i->j divided by the out-degree of i.
type Transition struct {
	targets [][]int     // distinct targets per row, ascending
	cum     [][]float64 // cumulative probabilities aligned with targets
}

// TransitionMatrix builds the transition matrix of g. Every vertex must
// have positive out-degree.
func TransitionMatrix(g *graph.Digraph) (*Transition, error) {
	n := g.NumVertices()
	t := &Transition{
		targets: make([][]int, n),
		cum:     make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		nb := g.OutNeighbors(i)
		if len(nb) == 0 {
			return nil, fmt.Errorf("building transition row %d: %w", i, ErrDanglingVertex)
		}
		sort.Ints(nb)
		deg := float64(len(nb))
		acc := 0.0
		for k := 0; k < len(nb); {
			j := nb[k]
			count := 0
			for k < len(nb) && nb[k] == j {
				count++
				k++
			}
			acc += float64(count) / deg
			t.targets[i] = append(t.targets[i], j)
			t.cum[i] = append(t.cum[i], acc)
		}
		// Pin the last bucket so rounding never leaves a gap below 1.
		t.cum[i][len(t.cum[i])-1] = 1
	}
	return t, nil
}

// Prob returns trans[i][j].
func (t *Transition) Prob(i, j int) float64 {
	prev := 0.0
	for k, target := range t.targets[i] {
		if target == j {
			return t.cum[i][k] - prev
		}
		prev = t.cum[i][k]
	}
	return 0
}

// Next samples the successor of vertex i with one uniform draw.
func (t *Transition) Next(i int, rng *rand.Rand) int {
	u := rng.Float64()
	row := t.cum[i]
	k := sort.Search(len(row), func(k int) bool { return row[k] > u })
	return t.targets[i][k]
}

// RandomWalk returns a walk of length vertices starting at start.
func RandomWalk(t *Transition, length, start int, rng *rand.Rand) []int {
	if length <= 0 {
		return nil
	}
	walk := make([]int, length)
	walk[0] = start
	for i := 1; i < length; i++ {
		walk[i] = t.Next(walk[i-1], rng)
	}
	return walk
}

// Walk runs one random walk on g from a uniformly chosen start vertex and
// returns per-vertex visit counts over positions p.Trim..p.Length-1.
// The counts sum to max(p.Length-p.Trim, 0).
func Walk(g *graph.Digraph, p WalkParams, rng *rand.Rand) ([]int64, error) {
	n := g.NumVertices()
	visits := make([]int64, n)
	if n == 0 {
		return visits, nil
	}
	t, err := TransitionMatrix(g)
	if err != nil {
		return nil, err
	}
	start := rng.IntN(n)
	walk := RandomWalk(t, p.Length, start, rng)
	for i := max(p.Trim, 0); i < len(walk); i++ {
		visits[walk[i]]++
	}
	return visits, nil
}
