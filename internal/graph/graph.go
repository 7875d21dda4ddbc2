// Package graph provides the directed graph snapshot shared by the
// simulators, the pruner and the experiment driver.
//
// A Digraph is immutable once built: removing an edge produces a new
// snapshot, so a snapshot can be read concurrently without locking.
package graph

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrVertexOutOfRange = errors.New("vertex out of range")
	ErrEdgeOutOfRange   = errors.New("edge index out of range")
	ErrBadDegreeMode    = errors.New("bad degree mode")
)

// Edge is a directed arc From -> To.
type Edge struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// DegreeMode selects which arcs are counted by Degrees.
type DegreeMode string

const (
	DegreeIn  DegreeMode = "in"  // Count incoming arcs
	DegreeOut DegreeMode = "out" // Count outgoing arcs
	DegreeAll DegreeMode = "all" // Count both
)

// ParseDegreeMode maps a config string to a DegreeMode.
func ParseDegreeMode(s string) (DegreeMode, error) {
	switch DegreeMode(s) {
	case DegreeIn, DegreeOut, DegreeAll:
		return DegreeMode(s), nil
	}
	return "", fmt.Errorf("%w: %q (valid: in, out, all)", ErrBadDegreeMode, s)
}

// Digraph is a directed multigraph over the vertices 0..n-1.
type Digraph struct {
	n     int
	edges []Edge
	out   [][]int // edge indices leaving each vertex
	in    [][]int // edge indices entering each vertex
}

// New builds a snapshot from an edge list. The slice is copied.
func New(n int, edges []Edge) (*Digraph, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative vertex count %d", n)
	}
	for i, e := range edges {
		if e.From < 0 || e.From >= n || e.To < 0 || e.To >= n {
			return nil, fmt.Errorf("edge %d (%d->%d): %w", i, e.From, e.To, ErrVertexOutOfRange)
		}
	}
	own := make([]Edge, len(edges))
	copy(own, edges)
	return build(n, own), nil
}

// FromUndirected converts undirected pairs into mutual arcs: each {u, v}
// becomes u->v and v->u. Self loops are dropped.
func FromUndirected(n int, pairs []Edge) (*Digraph, error) {
	arcs := make([]Edge, 0, 2*len(pairs))
	for _, p := range pairs {
		if p.From == p.To {
			continue
		}
		arcs = append(arcs, Edge{From: p.From, To: p.To}, Edge{From: p.To, To: p.From})
	}
	return New(n, arcs)
}

// Cycle returns the directed cycle 0->1->...->n-1->0.
func Cycle(n int) *Digraph {
	edges := make([]Edge, n)
	for i := 0; i < n; i++ {
		edges[i] = Edge{From: i, To: (i + 1) % n}
	}
	return build(n, edges)
}

func build(n int, edges []Edge) *Digraph {
	g := &Digraph{
		n:     n,
		edges: edges,
		out:   make([][]int, n),
		in:    make([][]int, n),
	}
	for i, e := range edges {
		g.out[e.From] = append(g.out[e.From], i)
		g.in[e.To] = append(g.in[e.To], i)
	}
	return g
}

// NumVertices returns n.
func (g *Digraph) NumVertices() int { return g.n }

// NumEdges returns the number of arcs, counting multi-edges.
func (g *Digraph) NumEdges() int { return len(g.edges) }

// Edge returns the arc at index i.
func (g *Digraph) Edge(i int) Edge { return g.edges[i] }

// Edges returns a copy of the arc list.
func (g *Digraph) Edges() []Edge {
	out := make([]Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// OutDegree returns the number of arcs leaving v.
func (g *Digraph) OutDegree(v int) int { return len(g.out[v]) }

// InDegree returns the number of arcs entering v.
func (g *Digraph) InDegree(v int) int { return len(g.in[v]) }

// OutNeighbors returns the targets of the arcs leaving v, one entry per arc.
func (g *Digraph) OutNeighbors(v int) []int {
	nb := make([]int, len(g.out[v]))
	for i, ei := range g.out[v] {
		nb[i] = g.edges[ei].To
	}
	return nb
}

// InNeighbors returns the sources of the arcs entering v, one entry per arc.
func (g *Digraph) InNeighbors(v int) []int {
	nb := make([]int, len(g.in[v]))
	for i, ei := range g.in[v] {
		nb[i] = g.edges[ei].From
	}
	return nb
}

// Degrees returns the per-vertex degree under the given mode.
func (g *Digraph) Degrees(mode DegreeMode) []int64 {
	deg := make([]int64, g.n)
	for v := 0; v < g.n; v++ {
		switch mode {
		case DegreeIn:
			deg[v] = int64(len(g.in[v]))
		case DegreeOut:
			deg[v] = int64(len(g.out[v]))
		default:
			deg[v] = int64(len(g.in[v]) + len(g.out[v]))
		}
	}
	return deg
}

// WithoutEdge returns a new snapshot with the arc at index idx removed.
// Arcs after idx shift down by one.
func (g *Digraph) WithoutEdge(idx int) (*Digraph, error) {
	if idx < 0 || idx >= len(g.edges) {
		return nil, fmt.Errorf("removing edge %d of %d: %w", idx, len(g.edges), ErrEdgeOutOfRange)
	}
	edges := make([]Edge, 0, len(g.edges)-1)
	edges = append(edges, g.edges[:idx]...)
	edges = append(edges, g.edges[idx+1:]...)
	return build(g.n, edges), nil
}
