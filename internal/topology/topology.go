// Package topology generates the random graph families used as starting
// points for the degradation experiment. Every family is built as an
// undirected graph and returned as mutual arcs.
package topology

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/nvandessel/arcprune/internal/graph"
)

// Errors
var (
	ErrUnknownKind       = errors.New("unknown topology")
	ErrUnsupportedDegree = errors.New("unsupported average degree for topology")
	ErrBadSize           = errors.New("bad graph size")
)

// Kind names a graph family.
type Kind string

const (
	Lattice        Kind = "la" // 2-D grid, non-circular
	ErdosRenyi     Kind = "er" // G(n, k/n)
	BarabasiAlbert Kind = "ba" // Preferential attachment, m = round(k/2)
	WattsStrogatz  Kind = "ws" // Grid with endpoints rewired with probability 0.2
	Geometric      Kind = "gr" // Random geometric graph, giant component
	Blocks         Kind = "sb" // Two-block stochastic block model
)

// Kinds lists every supported family.
var Kinds = []Kind{Lattice, ErdosRenyi, BarabasiAlbert, WattsStrogatz, Geometric, Blocks}

// ParseKind maps a config string to a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: la, er, ba, ws, gr, sb)", ErrUnknownKind, s)
}

// Generator produces a graph using randomness drawn from rng.
type Generator interface {
	Generate(rng *rand.Rand) (*graph.Digraph, error)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(rng *rand.Rand) (*graph.Digraph, error)

// Generate calls f(rng).
func (f GeneratorFunc) Generate(rng *rand.Rand) (*graph.Digraph, error) { return f(rng) }

// Fixed returns a Generator that always yields g and draws nothing.
func Fixed(g *graph.Digraph) Generator {
	return GeneratorFunc(func(*rand.Rand) (*graph.Digraph, error) { return g, nil })
}

// rewireProb is the per-edge rewiring probability of WattsStrogatz.
const rewireProb = 0.2

// New returns the generator for the given family with n vertices and
// average degree k.
func New(kind Kind, n int, k float64) (Generator, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d vertices", ErrBadSize, n)
	}
	if k <= 0 {
		return nil, fmt.Errorf("%w: average degree %g", ErrBadSize, k)
	}
	h, w := closestFactors(n)

	switch kind {
	case Lattice:
		return GeneratorFunc(func(*rand.Rand) (*graph.Digraph, error) {
			return graph.FromUndirected(n, grid(w, h))
		}), nil

	case ErdosRenyi:
		p := k / float64(n)
		return GeneratorFunc(func(rng *rand.Rand) (*graph.Digraph, error) {
			pairs, err := erdosRenyi(n, p, rng)
			if err != nil {
				return nil, err
			}
			return graph.FromUndirected(n, pairs)
		}), nil

	case BarabasiAlbert:
		m := int(math.Round(k / 2))
		if m < 1 || m >= n {
			return nil, fmt.Errorf("%w: %s needs 1 <= round(k/2) < n, got m=%d n=%d", ErrBadSize, kind, m, n)
		}
		return GeneratorFunc(func(rng *rand.Rand) (*graph.Digraph, error) {
			pairs, err := barabasi(n, m, rng)
			if err != nil {
				return nil, err
			}
			return graph.FromUndirected(n, pairs)
		}), nil

	case WattsStrogatz:
		return GeneratorFunc(func(rng *rand.Rand) (*graph.Digraph, error) {
			return graph.FromUndirected(n, rewire(n, grid(w, h), rewireProb, rng))
		}), nil

	case Geometric:
		ngr, r := geometricParams(n, k)
		return GeneratorFunc(func(rng *rand.Rand) (*graph.Digraph, error) {
			return bestGeometric(n, ngr, r, rng)
		}), nil

	case Blocks:
		x, ok := blockAffinity[k]
		if !ok {
			return nil, fmt.Errorf("%w: %s with k=%g (valid: 5, 6, 7, 8)", ErrUnsupportedDegree, kind, k)
		}
		return GeneratorFunc(func(rng *rand.Rand) (*graph.Digraph, error) {
			return graph.FromUndirected(n, blocks(n, x, rng))
		}), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// closestFactors returns h <= w with h*w = n and h as close to sqrt(n) as
// possible.
func closestFactors(n int) (int, int) {
	m := int(math.Sqrt(float64(n)))
	for m > 1 && n%m != 0 {
		m--
	}
	if m < 1 {
		m = 1
	}
	return m, n / m
}
