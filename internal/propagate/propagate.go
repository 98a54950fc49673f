// Package propagate computes the impacted set: every symbol that can
// reach a seed through the dependency edges, found by breadth-first
// search over the reverse adjacency.
package propagate

import "impactmap/internal/graph"

// Closure returns the reverse-reachability closure of the seeds,
// including the seeds themselves, sorted ascending. The traversal is
// sequential and order-fixed (seeds ascending, incoming edges in their
// frozen sorted order), so the result never depends on scheduling.
// Cycles are handled by the shared visited set; depth is unbounded.
func Closure(g *graph.SymbolGraph, seeds []graph.SymbolID) []graph.SymbolID {
	visited := make([]bool, g.Len())
	queue := make([]graph.SymbolID, 0, len(seeds))
	for _, s := range seeds {
		if int(s) < len(visited) && !visited[s] {
			visited[s] = true
			queue = append(queue, s)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, e := range g.Callers(id) {
			if !visited[e.From] {
				visited[e.From] = true
				queue = append(queue, e.From)
			}
		}
	}

	var out []graph.SymbolID
	for id, ok := range visited {
		if ok {
			out = append(out, graph.SymbolID(id))
		}
	}
	return out
}
