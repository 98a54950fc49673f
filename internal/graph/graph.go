package graph

import (
	"errors"
	"fmt"
	"sort"
)

// ErrGraphFrozen is returned by mutating calls after Freeze.
var ErrGraphFrozen = errors.New("graph is frozen")

// ErrGraphInconsistency indicates the forward and reverse adjacency
// indices disagree. This is a builder defect: the caller must abort
// rather than report impact computed from an unsound index.
var ErrGraphInconsistency = errors.New("graph adjacency inconsistency")

// SymbolGraph owns the symbol table and edge set for one analysis run.
//
// Lifecycle: single-writer assembly (AddSymbol/AddEdge), then Freeze,
// then read-only concurrent use. Both the forward and the reverse
// adjacency are built together inside Freeze; neither can be rebuilt
// on its own, which keeps the transpose invariant by construction.
type SymbolGraph struct {
	symbols []*Symbol // indexed by SymbolID
	edges   []Edge

	byFile map[string][]*Symbol
	byName map[string][]*Symbol

	// forward[id] lists outgoing edges, reverse[id] lists incoming ones,
	// both sorted by neighbor ID so traversal order never depends on map
	// iteration. Built once by Freeze.
	forward [][]Edge
	reverse [][]Edge

	frozen bool
}

// NewSymbolGraph creates an empty graph in the assembly state.
func NewSymbolGraph() *SymbolGraph {
	return &SymbolGraph{
		byFile: make(map[string][]*Symbol),
		byName: make(map[string][]*Symbol),
	}
}

// AddSymbol inserts a symbol and assigns it the next dense ID.
// Callers must add symbols in their deterministic order (file path
// ascending, start byte ascending) for IDs to be reproducible.
func (g *SymbolGraph) AddSymbol(s *Symbol) (SymbolID, error) {
	if g.frozen {
		return 0, ErrGraphFrozen
	}
	s.ID = SymbolID(len(g.symbols))
	g.symbols = append(g.symbols, s)
	g.byFile[s.FilePath] = append(g.byFile[s.FilePath], s)
	g.byName[s.Name] = append(g.byName[s.Name], s)
	return s.ID, nil
}

// AddEdge inserts a directed edge. Parallel edges are kept as-is.
func (g *SymbolGraph) AddEdge(from, to SymbolID, kind EdgeKind) error {
	if g.frozen {
		return ErrGraphFrozen
	}
	if !g.valid(from) || !g.valid(to) {
		return fmt.Errorf("edge %d->%d: unknown symbol id", from, to)
	}
	g.edges = append(g.edges, Edge{From: from, To: to, Kind: kind})
	return nil
}

func (g *SymbolGraph) valid(id SymbolID) bool {
	return id >= 0 && int(id) < len(g.symbols)
}

// Freeze ends the assembly phase: it sorts the edge set, builds the
// forward and reverse adjacency together, and makes the graph read-only.
func (g *SymbolGraph) Freeze() {
	if g.frozen {
		return
	}
	sort.Slice(g.edges, func(i, j int) bool {
		a, b := g.edges[i], g.edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})

	g.forward = make([][]Edge, len(g.symbols))
	g.reverse = make([][]Edge, len(g.symbols))
	for _, e := range g.edges {
		g.forward[e.From] = append(g.forward[e.From], e)
		g.reverse[e.To] = append(g.reverse[e.To], e)
	}
	for id := range g.reverse {
		rev := g.reverse[id]
		sort.Slice(rev, func(i, j int) bool {
			if rev[i].From != rev[j].From {
				return rev[i].From < rev[j].From
			}
			return rev[i].Kind < rev[j].Kind
		})
	}
	g.frozen = true
}

// Frozen reports whether assembly has ended.
func (g *SymbolGraph) Frozen() bool { return g.frozen }

// CheckConsistency verifies that the reverse index is the exact
// transpose of the forward index. A mismatch wraps
// ErrGraphInconsistency; callers treat it as fatal.
func (g *SymbolGraph) CheckConsistency() error {
	if !g.frozen {
		return fmt.Errorf("%w: consistency check before freeze", ErrGraphInconsistency)
	}
	fwd := 0
	rev := 0
	for id := range g.forward {
		fwd += len(g.forward[id])
		rev += len(g.reverse[id])
	}
	if fwd != rev || fwd != len(g.edges) {
		return fmt.Errorf("%w: %d forward, %d reverse, %d edges", ErrGraphInconsistency, fwd, rev, len(g.edges))
	}
	counts := make(map[Edge]int, len(g.edges))
	for _, out := range g.forward {
		for _, e := range out {
			counts[e]++
		}
	}
	for _, in := range g.reverse {
		for _, e := range in {
			counts[e]--
		}
	}
	for e, n := range counts {
		if n != 0 {
			return fmt.Errorf("%w: edge %s present %+d times more in forward index", ErrGraphInconsistency, e, n)
		}
	}
	return nil
}

// Symbol returns the symbol for an ID, or nil for an unknown ID.
func (g *SymbolGraph) Symbol(id SymbolID) *Symbol {
	if !g.valid(id) {
		return nil
	}
	return g.symbols[id]
}

// Len returns the number of symbols.
func (g *SymbolGraph) Len() int { return len(g.symbols) }

// EdgeCount returns the number of edges (parallel edges counted).
func (g *SymbolGraph) EdgeCount() int { return len(g.edges) }

// Symbols returns the symbol table in ID order. Callers must not mutate.
func (g *SymbolGraph) Symbols() []*Symbol { return g.symbols }

// Edges returns the edge set. Callers must not mutate.
func (g *SymbolGraph) Edges() []Edge { return g.edges }

// SymbolsInFile returns the symbols declared in a file, in span order.
func (g *SymbolGraph) SymbolsInFile(path string) []*Symbol {
	return g.byFile[path]
}

// SymbolsNamed returns every symbol with the given (unqualified) name.
func (g *SymbolGraph) SymbolsNamed(name string) []*Symbol {
	return g.byName[name]
}

// Callers returns the edges pointing at id (the callers-of index).
// Only valid after Freeze.
func (g *SymbolGraph) Callers(id SymbolID) []Edge {
	if !g.frozen || !g.valid(id) {
		return nil
	}
	return g.reverse[id]
}

// Callees returns the edges leaving id. Only valid after Freeze.
func (g *SymbolGraph) Callees(id SymbolID) []Edge {
	if !g.frozen || !g.valid(id) {
		return nil
	}
	return g.forward[id]
}
