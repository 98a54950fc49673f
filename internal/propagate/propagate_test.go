package propagate

import (
	"testing"

	"impactmap/internal/graph"
)

// chainGraph builds: 3 -> 2 -> 1 -> 0 (each earlier symbol depended on
// by the next), plus 4 isolated.
func chainGraph(t *testing.T) *graph.SymbolGraph {
	t.Helper()
	g := graph.NewSymbolGraph()
	for i := 0; i < 5; i++ {
		if _, err := g.AddSymbol(&graph.Symbol{Name: "s", FilePath: "f.go"}); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []graph.Edge{
		{From: 1, To: 0, Kind: graph.EdgeCall},
		{From: 2, To: 1, Kind: graph.EdgeCall},
		{From: 3, To: 2, Kind: graph.EdgeCall},
	} {
		if err := g.AddEdge(e.From, e.To, e.Kind); err != nil {
			t.Fatal(err)
		}
	}
	g.Freeze()
	return g
}

func equalIDs(a, b []graph.SymbolID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestClosure(t *testing.T) {
	g := chainGraph(t)

	tests := []struct {
		name  string
		seeds []graph.SymbolID
		want  []graph.SymbolID
	}{
		{"transitive chain", []graph.SymbolID{0}, []graph.SymbolID{0, 1, 2, 3}},
		{"mid chain", []graph.SymbolID{2}, []graph.SymbolID{2, 3}},
		{"isolated seed", []graph.SymbolID{4}, []graph.SymbolID{4}},
		{"empty seeds", nil, nil},
		{"duplicate seeds", []graph.SymbolID{2, 2}, []graph.SymbolID{2, 3}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Closure(g, tc.seeds)
			if !equalIDs(got, tc.want) {
				t.Errorf("Closure(%v) = %v, want %v", tc.seeds, got, tc.want)
			}
		})
	}
}

func TestClosureTerminatesOnCycle(t *testing.T) {
	g := graph.NewSymbolGraph()
	for i := 0; i < 3; i++ {
		if _, err := g.AddSymbol(&graph.Symbol{Name: "s", FilePath: "f.go"}); err != nil {
			t.Fatal(err)
		}
	}
	// A and B mutually recursive, test_a depends on A
	if err := g.AddEdge(0, 1, graph.EdgeCall); err != nil { // A -> B
		t.Fatal(err)
	}
	if err := g.AddEdge(1, 0, graph.EdgeCall); err != nil { // B -> A
		t.Fatal(err)
	}
	if err := g.AddEdge(2, 0, graph.EdgeCall); err != nil { // test_a -> A
		t.Fatal(err)
	}
	g.Freeze()

	got := Closure(g, []graph.SymbolID{1}) // change B
	if !equalIDs(got, []graph.SymbolID{0, 1, 2}) {
		t.Errorf("Closure({B}) = %v, want {A, B, test_a}", got)
	}
}

func TestClosureDeterministic(t *testing.T) {
	g := chainGraph(t)
	first := Closure(g, []graph.SymbolID{0, 4})
	for i := 0; i < 10; i++ {
		if got := Closure(g, []graph.SymbolID{0, 4}); !equalIDs(got, first) {
			t.Fatalf("run %d: Closure = %v, want %v", i, got, first)
		}
	}
}
