package topology

import (
	"cmp"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/graph/graphs/gen"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/nvandessel/arcprune/internal/graph"
)

// grid returns the undirected w x h lattice with 4-neighborhoods.
// Vertex (x, y) has index y*w + x.
func grid(w, h int) []graph.Edge {
	var pairs []graph.Edge
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := y*w + x
			if x+1 < w {
				pairs = append(pairs, graph.Edge{From: v, To: v + 1})
			}
			if y+1 < h {
				pairs = append(pairs, graph.Edge{From: v, To: v + w})
			}
		}
	}
	return pairs
}

// erdosRenyi draws G(n, p) with rng as the source.
func erdosRenyi(n int, p float64, rng *rand.Rand) ([]graph.Edge, error) {
	dst := simple.NewUndirectedGraph()
	if err := gen.Gnp(dst, n, min(p, 1), rng); err != nil {
		return nil, fmt.Errorf("drawing G(n, p): %w", err)
	}
	return undirectedPairs(dst), nil
}

// barabasi grows a preferential-attachment graph in which every vertex
// after the first m links to m distinct earlier vertices.
func barabasi(n, m int, rng *rand.Rand) ([]graph.Edge, error) {
	dst := simple.NewUndirectedGraph()
	if err := gen.PreferentialAttachment(dst, n, m, rng); err != nil {
		return nil, fmt.Errorf("growing preferential attachment: %w", err)
	}
	return undirectedPairs(dst), nil
}

// undirectedPairs returns the edges of g over its vertices relabeled
// 0..len-1 in ID order. Pairs are sorted so the arc order does not depend
// on map iteration.
func undirectedPairs(g *simple.UndirectedGraph) []graph.Edge {
	var ids []int64
	for nodes := g.Nodes(); nodes.Next(); {
		ids = append(ids, nodes.Node().ID())
	}
	slices.Sort(ids)
	index := make(map[int64]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}

	var pairs []graph.Edge
	for edges := g.Edges(); edges.Next(); {
		e := edges.Edge()
		u, v := index[e.From().ID()], index[e.To().ID()]
		if u > v {
			u, v = v, u
		}
		pairs = append(pairs, graph.Edge{From: u, To: v})
	}
	slices.SortFunc(pairs, func(a, b graph.Edge) int {
		if c := cmp.Compare(a.From, b.From); c != 0 {
			return c
		}
		return cmp.Compare(a.To, b.To)
	})
	return pairs
}

// maxRewireTries bounds the search for a fresh endpoint.
const maxRewireTries = 32

// rewire moves the second endpoint of each pair to a uniformly chosen
// vertex with probability p, avoiding loops and parallel edges. A pair
// that finds no free endpoint keeps its original one.
func rewire(n int, pairs []graph.Edge, p float64, rng *rand.Rand) []graph.Edge {
	key := func(a, b int) [2]int {
		if a > b {
			a, b = b, a
		}
		return [2]int{a, b}
	}
	present := make(map[[2]int]bool, len(pairs))
	for _, e := range pairs {
		present[key(e.From, e.To)] = true
	}

	out := make([]graph.Edge, len(pairs))
	copy(out, pairs)
	for i, e := range out {
		if rng.Float64() >= p {
			continue
		}
		for try := 0; try < maxRewireTries; try++ {
			w := rng.IntN(n)
			if w == e.From || present[key(e.From, w)] {
				continue
			}
			delete(present, key(e.From, e.To))
			present[key(e.From, w)] = true
			out[i].To = w
			break
		}
	}
	return out
}

// geometricCatalog holds precomputed (vertices, radius) pairs whose giant
// component has close to the requested size and degree.
var geometricCatalog = map[[2]int]struct {
	n int
	r float64
}{
	{600, 6}: {628, 0.0562},
}

// geometricParams returns how many points to scatter and the connection
// radius for a target size n and average degree k.
func geometricParams(n int, k float64) (int, float64) {
	if k == math.Trunc(k) {
		if p, ok := geometricCatalog[[2]int{n, int(k)}]; ok {
			return p.n, p.r
		}
	}
	return n, math.Sqrt(k / (math.Pi * float64(n)))
}

// geometricTries is how many random geometric graphs are drawn before the
// one closest to the target size is kept.
const geometricTries = 3

func bestGeometric(target, points int, r float64, rng *rand.Rand) (*graph.Digraph, error) {
	var best *graph.Digraph
	bestDiff := math.MaxInt
	for i := 0; i < geometricTries; i++ {
		n, pairs := giant(points, geometric(points, r, rng))
		diff := n - target
		if diff < 0 {
			diff = -diff
		}
		if diff >= bestDiff {
			continue
		}
		g, err := graph.FromUndirected(n, pairs)
		if err != nil {
			return nil, fmt.Errorf("building geometric graph: %w", err)
		}
		best, bestDiff = g, diff
	}
	return best, nil
}

// geometric scatters n points in the unit square and links the pairs
// closer than r.
func geometric(n int, r float64, rng *rand.Rand) []graph.Edge {
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xs[i] = rng.Float64()
		ys[i] = rng.Float64()
	}
	r2 := r * r
	var pairs []graph.Edge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dx, dy := xs[i]-xs[j], ys[i]-ys[j]
			if dx*dx+dy*dy < r2 {
				pairs = append(pairs, graph.Edge{From: i, To: j})
			}
		}
	}
	return pairs
}

// giant restricts an undirected graph to its largest connected component
// and relabels the vertices 0..size-1 in their original order.
func giant(n int, pairs []graph.Edge) (int, []graph.Edge) {
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(x int) int {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, e := range pairs {
		a, b := find(e.From), find(e.To)
		if a != b {
			parent[a] = b
		}
	}

	size := make(map[int]int)
	root, largest := -1, 0
	for v := 0; v < n; v++ {
		r := find(v)
		size[r]++
		if size[r] > largest {
			root, largest = r, size[r]
		}
	}

	label := make([]int, n)
	next := 0
	for v := 0; v < n; v++ {
		label[v] = -1
		if find(v) == root {
			label[v] = next
			next++
		}
	}
	var out []graph.Edge
	for _, e := range pairs {
		if label[e.From] >= 0 {
			out = append(out, graph.Edge{From: label[e.From], To: label[e.To]})
		}
	}
	return largest, out
}

// blockAffinity maps an average degree to the within-block affinity of
// the second block.
var blockAffinity = map[float64]float64{
	5: 4.5,
	6: 8.3,
	7: 12.5,
	8: 16.2,
}

// blocks draws a two-block SBM with preference matrix [[14, 1], [1, x]]/n
// and block sizes n/2 and n-n/2.
func blocks(n int, x float64, rng *rand.Rand) []graph.Edge {
	half := n / 2
	pref := [2][2]float64{
		{14 / float64(n), 1 / float64(n)},
		{1 / float64(n), x / float64(n)},
	}
	block := func(v int) int {
		if v < half {
			return 0
		}
		return 1
	}
	var pairs []graph.Edge
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if rng.Float64() < pref[block(i)][block(j)] {
				pairs = append(pairs, graph.Edge{From: i, To: j})
			}
		}
	}
	return pairs
}
