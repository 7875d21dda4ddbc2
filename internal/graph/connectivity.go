package graph

// IsStronglyConnected reports whether every vertex reaches every other.
// Graphs with zero or one vertex are strongly connected.
func (g *Digraph) IsStronglyConnected() bool {
	return g.StronglyConnectedWithout(-1)
}

// StronglyConnectedWithout reports whether the graph would remain strongly
// connected with the arc at index skip ignored. A negative skip ignores
// nothing. The snapshot is not modified.
//
// A graph is strongly connected iff vertex 0 reaches all vertices along
// the arcs and along the reversed arcs.
func (g *Digraph) StronglyConnectedWithout(skip int) bool {
	if g.n <= 1 {
		return true
	}
	seen := make([]bool, g.n)
	stack := make([]int, 0, g.n)
	if g.reach(g.out, true, skip, seen, stack) != g.n {
		return false
	}
	clear(seen)
	return g.reach(g.in, false, skip, seen, stack[:0]) == g.n
}

// reach runs an iterative DFS from vertex 0 over the given incidence lists
// and returns the number of vertices visited.
func (g *Digraph) reach(incidence [][]int, forward bool, skip int, seen []bool, stack []int) int {
	seen[0] = true
	stack = append(stack, 0)
	count := 1
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, ei := range incidence[v] {
			if ei == skip {
				continue
			}
			w := g.edges[ei].To
			if !forward {
				w = g.edges[ei].From
			}
			if !seen[w] {
				seen[w] = true
				count++
				stack = append(stack, w)
			}
		}
	}
	return count
}
