// Package experiment drives the degradation experiment: it generates a
// strongly connected graph, measures the three dynamical processes on it,
// and alternates arc-removal batches with measurements until the batch
// budget is spent.
package experiment

import (
	"errors"
	"fmt"

	"github.com/nvandessel/arcprune/internal/graph"
)

// DefaultMaxGenerationAttempts bounds the Generating phase.
const DefaultMaxGenerationAttempts = 100

// preflightFraction is the largest share of the initial arcs the batch
// schedule may remove.
const preflightFraction = 0.75

// Errors
var (
	ErrConfiguration       = errors.New("configuration error")
	ErrGenerationExhausted = errors.New("no strongly connected graph generated")
)

// Params holds everything a realization needs besides its generator and
// its random source.
type Params struct {
	Topology    string           `json:"topology"`     // Label copied into rows
	NumVertices int              `json:"num_vertices"` // Requested size, copied into rows
	DegreeMode  graph.DegreeMode `json:"degree_mode"`

	Batches   int `json:"batches"`
	BatchSize int `json:"batch_size"`

	// TrimFraction of every simulation is discarded as burn-in.
	TrimFraction float64 `json:"trim_fraction"`

	WalkLength      int     `json:"walk_length"`
	FiringTicks     int     `json:"firing_ticks"`
	FiringThreshold int64   `json:"firing_threshold"`
	EpidemicTicks   int     `json:"epidemic_ticks"`
	InitialInfected float64 `json:"initial_infected"` // Fraction of vertices
	Beta            float64 `json:"beta"`
	Gamma           float64 `json:"gamma"`

	MaxGenerationAttempts int `json:"max_generation_attempts"`
}

// Validate reports parameter combinations no realization can run with.
func (p Params) Validate() error {
	switch {
	case p.Batches < 0:
		return fmt.Errorf("%w: negative batch count %d", ErrConfiguration, p.Batches)
	case p.BatchSize < 0:
		return fmt.Errorf("%w: negative batch size %d", ErrConfiguration, p.BatchSize)
	case p.TrimFraction < 0 || p.TrimFraction >= 1:
		return fmt.Errorf("%w: trim fraction %g outside [0, 1)", ErrConfiguration, p.TrimFraction)
	case p.WalkLength < 0 || p.FiringTicks < 0 || p.EpidemicTicks < 0:
		return fmt.Errorf("%w: negative simulation length", ErrConfiguration)
	case p.InitialInfected < 0 || p.InitialInfected > 1:
		return fmt.Errorf("%w: initial infected fraction %g outside [0, 1]", ErrConfiguration, p.InitialInfected)
	case p.Beta < 0 || p.Beta > 1 || p.Gamma < 0 || p.Gamma > 1:
		return fmt.Errorf("%w: beta/gamma outside [0, 1]", ErrConfiguration)
	}
	return nil
}

func (p Params) maxGenerationAttempts() int {
	if p.MaxGenerationAttempts <= 0 {
		return DefaultMaxGenerationAttempts
	}
	return p.MaxGenerationAttempts
}

func (p Params) trim(ticks int) int {
	return int(float64(ticks) * p.TrimFraction)
}

// CheckPreconditions rejects an initial graph the batch schedule cannot
// run on: one that is not strongly connected, or one from which the
// schedule would remove more than three quarters of the arcs.
func CheckPreconditions(p Params, g *graph.Digraph) error {
	removed := p.Batches * p.BatchSize
	if float64(removed) > preflightFraction*float64(g.NumEdges()) {
		return fmt.Errorf("%w: removing %d of %d arcs exceeds %.0f%%",
			ErrConfiguration, removed, g.NumEdges(), preflightFraction*100)
	}
	if !g.IsStronglyConnected() {
		return fmt.Errorf("%w: initial graph is not strongly connected", ErrConfiguration)
	}
	return nil
}
