package dynamics

import (
	"math/rand/v2"

	"github.com/nvandessel/arcprune/internal/graph"
	"github.com/nvandessel/arcprune/internal/sparse"
)

// chargeSpread scales the threshold into the exclusive upper bound of the
// initial charge distribution.
const chargeSpread = 1.3

// FiringParams configures an integrate-and-fire run.
type FiringParams struct {
	// Threshold is the charge at which a vertex spikes (acc >= Threshold).
	Threshold int64

	// Ticks is the total number of synchronous steps, burn-in included.
	Ticks int

	// Trim is the number of leading steps discarded as burn-in.
	Trim int
}

// FiringResult holds the measured part of an integrate-and-fire run.
type FiringResult struct {
	Fires     []int64 // Spikes per vertex over the measured ticks
	LastFires int     // Vertices spiking in the final tick
}

// Firing is the integrate-and-fire state for one snapshot. Every tick
// updates all vertices simultaneously: spiking vertices reset to zero,
// then every vertex receives one unit of charge per spiking in-neighbor.
type Firing struct {
	a         *sparse.Matrix
	threshold int64
	acc       []int64
	spiking   []bool
	gain      []int64
}

// NewFiring builds the operator for g and draws initial charges uniformly
// in [0, floor(1.3*threshold)).
func NewFiring(g *graph.Digraph, threshold int64, rng *rand.Rand) *Firing {
	n := g.NumVertices()
	return &Firing{
		a:         sparse.FromGraph(g),
		threshold: threshold,
		acc:       InitialCharges(n, threshold, rng),
		spiking:   make([]bool, n),
		gain:      make([]int64, n),
	}
}

// InitialCharges draws n charges uniformly in [0, floor(1.3*threshold)).
// When that bound is not positive all charges are zero and no draw is made.
func InitialCharges(n int, threshold int64, rng *rand.Rand) []int64 {
	acc := make([]int64, n)
	bound := int64(float64(threshold) * chargeSpread)
	if bound <= 0 {
		return acc
	}
	for i := range acc {
		acc[i] = rng.Int64N(bound)
	}
	return acc
}

// Step advances one tick and returns the number of vertices that spiked.
func (f *Firing) Step() int {
	count := 0
	for i, c := range f.acc {
		f.spiking[i] = c >= f.threshold
		if f.spiking[i] {
			count++
		}
	}
	f.a.Propagate(f.spiking, f.gain)
	for i := range f.acc {
		if f.spiking[i] {
			f.acc[i] = 0
		}
		f.acc[i] += f.gain[i]
	}
	return count
}

// Spiking returns the spike mask of the last tick. The slice is owned by
// the Firing and is overwritten by the next Step.
func (f *Firing) Spiking() []bool { return f.spiking }

// Charges returns a copy of the current charge vector.
func (f *Firing) Charges() []int64 {
	out := make([]int64, len(f.acc))
	copy(out, f.acc)
	return out
}

// Fire runs integrate-and-fire on g: p.Trim burn-in ticks followed by
// p.Ticks-p.Trim measured ticks.
func Fire(g *graph.Digraph, p FiringParams, rng *rand.Rand) FiringResult {
	f := NewFiring(g, p.Threshold, rng)
	last := 0
	for i := 0; i < p.Trim; i++ {
		last = f.Step()
	}

	fires := make([]int64, g.NumVertices())
	for i := p.Trim; i < p.Ticks; i++ {
		last = f.Step()
		for v, s := range f.spiking {
			if s {
				fires[v]++
			}
		}
	}
	return FiringResult{Fires: fires, LastFires: last}
}
