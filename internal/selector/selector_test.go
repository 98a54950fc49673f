package selector

import (
	"testing"

	"impactmap/internal/graph"
)

func TestSelectTests(t *testing.T) {
	g := graph.NewSymbolGraph()
	for _, s := range []*graph.Symbol{
		{Name: "f", QualifiedName: "lib.f", FilePath: "lib.py", Kind: graph.KindFunction},
		{Name: "test_z", QualifiedName: "lib.test_z", FilePath: "lib.py", Kind: graph.KindFunction, TestKind: "pytest"},
		{Name: "test_a", QualifiedName: "lib.test_a", FilePath: "lib.py", Kind: graph.KindFunction, TestKind: "pytest"},
		{Name: "TestGo", QualifiedName: "pkg.x.TestGo", FilePath: "pkg/x_test.go", Kind: graph.KindFunction, TestKind: "go-test"},
	} {
		if _, err := g.AddSymbol(s); err != nil {
			t.Fatal(err)
		}
	}
	g.Freeze()

	t.Run("filters and orders by qualified name", func(t *testing.T) {
		got := SelectTests(g, []graph.SymbolID{0, 1, 2, 3})
		want := []string{"lib.test_a", "lib.test_z", "pkg.x.TestGo"}
		if len(got) != len(want) {
			t.Fatalf("SelectTests = %v, want %d tests", got, len(want))
		}
		for i, qn := range want {
			if got[i].QualifiedName != qn {
				t.Errorf("test[%d] = %s, want %s", i, got[i].QualifiedName, qn)
			}
		}
	})

	t.Run("empty intersection yields empty list", func(t *testing.T) {
		if got := SelectTests(g, []graph.SymbolID{0}); len(got) != 0 {
			t.Errorf("SelectTests = %v, want none", got)
		}
	})

	t.Run("duplicate ids deduplicate", func(t *testing.T) {
		got := SelectTests(g, []graph.SymbolID{2, 2, 2})
		if len(got) != 1 || got[0].QualifiedName != "lib.test_a" {
			t.Errorf("SelectTests = %v, want just lib.test_a", got)
		}
	})

	t.Run("unknown ids are ignored", func(t *testing.T) {
		if got := SelectTests(g, []graph.SymbolID{99}); len(got) != 0 {
			t.Errorf("SelectTests = %v, want none", got)
		}
	})
}
