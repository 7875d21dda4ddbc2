// Package sparse implements the incoming-adjacency operator used to
// propagate charge one synchronous step along the arcs of a graph.
package sparse

import "github.com/nvandessel/arcprune/internal/graph"

// Matrix is an unweighted n x n operator in compressed sparse row form.
// Row i lists the column index j once per arc j->i, so A[i,:]·x sums x
// over every in-neighbor of i and parallel arcs add.
type Matrix struct {
	n      int
	rowPtr []int // len n+1
	colIdx []int // len nnz
}

// NewIncoming builds the operator for the given edge list. An empty edge
// list yields the zero operator.
func NewIncoming(n int, edges []graph.Edge) *Matrix {
	rowPtr := make([]int, n+1)
	for _, e := range edges {
		rowPtr[e.To+1]++
	}
	for i := 0; i < n; i++ {
		rowPtr[i+1] += rowPtr[i]
	}
	colIdx := make([]int, len(edges))
	next := make([]int, n)
	copy(next, rowPtr[:n])
	for _, e := range edges {
		colIdx[next[e.To]] = e.From
		next[e.To]++
	}
	return &Matrix{n: n, rowPtr: rowPtr, colIdx: colIdx}
}

// FromGraph builds the operator for a snapshot.
func FromGraph(g *graph.Digraph) *Matrix {
	return NewIncoming(g.NumVertices(), g.Edges())
}

// Rows returns n.
func (m *Matrix) Rows() int { return m.n }

// NNZ returns the number of stored entries, one per arc.
func (m *Matrix) NNZ() int { return len(m.colIdx) }

// Row returns the in-neighbors stored for row i. The slice aliases the
// matrix and must not be modified.
func (m *Matrix) Row(i int) []int {
	return m.colIdx[m.rowPtr[i]:m.rowPtr[i+1]]
}

// Propagate writes A·mask into dst, treating true as 1. dst must have
// length n; it is overwritten.
func (m *Matrix) Propagate(mask []bool, dst []int64) {
	for i := 0; i < m.n; i++ {
		var sum int64
		for _, j := range m.colIdx[m.rowPtr[i]:m.rowPtr[i+1]] {
			if mask[j] {
				sum++
			}
		}
		dst[i] = sum
	}
}
