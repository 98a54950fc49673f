package resolver

import (
	"context"
	"fmt"
	"testing"

	"impactmap/internal/graph"
	"impactmap/internal/indexer"
)

func buildWorkspace(t *testing.T, files map[string]string) *graph.SymbolGraph {
	t.Helper()
	var srcs []indexer.SourceFile
	for path, content := range files {
		srcs = append(srcs, indexer.SourceFile{Path: path, Content: []byte(content)})
	}
	res, err := indexer.Index(context.Background(), srcs, indexer.DefaultMarkerRules())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	defer res.Close()
	if len(res.Errors) > 0 {
		t.Fatalf("index errors: %v", res.Errors)
	}
	g, err := Build(context.Background(), res)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return g
}

// edgeStrings renders the edge set as "from->to:kind" with qualified
// names, for order-insensitive-free comparison.
func edgeStrings(g *graph.SymbolGraph) []string {
	var out []string
	for _, e := range g.Edges() {
		out = append(out, fmt.Sprintf("%s->%s:%s",
			g.Symbol(e.From).QualifiedName, g.Symbol(e.To).QualifiedName, e.Kind))
	}
	return out
}

func hasEdge(g *graph.SymbolGraph, from, to string, kind graph.EdgeKind) bool {
	for _, e := range g.Edges() {
		if g.Symbol(e.From).QualifiedName == from &&
			g.Symbol(e.To).QualifiedName == to && e.Kind == kind {
			return true
		}
	}
	return false
}

func TestResolveSameFileCall(t *testing.T) {
	g := buildWorkspace(t, map[string]string{
		"lib.py": "def f():\n    return g()\n\ndef g():\n    return 1\n",
	})
	if !hasEdge(g, "lib.f", "lib.g", graph.EdgeCall) {
		t.Errorf("missing call edge lib.f -> lib.g; have %v", edgeStrings(g))
	}
	if hasEdge(g, "lib.g", "lib.f", graph.EdgeCall) {
		t.Error("unexpected reverse call edge")
	}
}

func TestResolveImportedCall(t *testing.T) {
	g := buildWorkspace(t, map[string]string{
		"lib.py": "def f():\n    return 1\n",
		"app.py": "from lib import f\n\ndef use():\n    return f()\n",
	})
	if !hasEdge(g, "app.use", "lib.f", graph.EdgeCall) {
		t.Errorf("missing cross-file call edge; have %v", edgeStrings(g))
	}
}

func TestResolveQualifiedCall(t *testing.T) {
	g := buildWorkspace(t, map[string]string{
		"lib.py": "def f():\n    return 1\n",
		"app.py": "import lib\n\ndef use():\n    return lib.f()\n",
	})
	if !hasEdge(g, "app.use", "lib.f", graph.EdgeCall) {
		t.Errorf("missing qualified call edge; have %v", edgeStrings(g))
	}
}

func TestAmbiguousNameYieldsAllCandidates(t *testing.T) {
	g := buildWorkspace(t, map[string]string{
		"d1.py":   "def dup():\n    return 1\n",
		"d2.py":   "def dup():\n    return 2\n",
		"main.py": "def use():\n    return dup()\n",
	})
	if !hasEdge(g, "main.use", "d1.dup", graph.EdgeCall) || !hasEdge(g, "main.use", "d2.dup", graph.EdgeCall) {
		t.Errorf("ambiguous call should link every candidate; have %v", edgeStrings(g))
	}
}

func TestExternalReferencesDropped(t *testing.T) {
	g := buildWorkspace(t, map[string]string{
		"app.py": "import os\n\ndef use():\n    return os.getcwd()\n",
	})
	if n := g.EdgeCount(); n != 0 {
		t.Errorf("external call produced %d edges: %v", n, edgeStrings(g))
	}
}

func TestSelfReferenceSkipped(t *testing.T) {
	g := buildWorkspace(t, map[string]string{
		"r.py": "def r(n):\n    return r(n - 1)\n",
	})
	if n := g.EdgeCount(); n != 0 {
		t.Errorf("recursion produced %d self edges: %v", n, edgeStrings(g))
	}
}

func TestImplementsClauseEdge(t *testing.T) {
	g := buildWorkspace(t, map[string]string{
		"shape.ts": "interface Shape {\n  area(): number;\n}\nclass Circle implements Shape {\n  area(): number { return 3; }\n}\n",
	})
	if !hasEdge(g, "shape.Circle", "shape.Shape", graph.EdgeTraitImplUse) {
		t.Errorf("missing implements edge; have %v", edgeStrings(g))
	}
}

func TestGoTypeUseAndReference(t *testing.T) {
	g := buildWorkspace(t, map[string]string{
		"pkg/demo.go": "package demo\n\nconst answer = 42\n\ntype Greeter struct{}\n\nfunc (g *Greeter) Greet() int {\n\treturn answer\n}\n",
	})
	if !hasEdge(g, "pkg.demo.Greeter.Greet", "pkg.demo.Greeter", graph.EdgeTypeUse) {
		t.Errorf("missing receiver type-use edge; have %v", edgeStrings(g))
	}
	if !hasEdge(g, "pkg.demo.Greeter.Greet", "pkg.demo.answer", graph.EdgeReference) {
		t.Errorf("missing constant reference edge; have %v", edgeStrings(g))
	}
}

func TestBuildDeterministic(t *testing.T) {
	files := map[string]string{
		"lib.py":  "def f():\n    return g()\n\ndef g():\n    return 1\n",
		"app.py":  "from lib import f\n\ndef use():\n    return f()\n",
		"test.py": "from app import use\n\ndef test_use():\n    assert use() == 1\n",
	}
	first := buildWorkspace(t, files)
	want := edgeStrings(first)
	for i := 0; i < 5; i++ {
		got := edgeStrings(buildWorkspace(t, files))
		if len(got) != len(want) {
			t.Fatalf("run %d: %d edges, want %d", i, len(got), len(want))
		}
		for j := range got {
			if got[j] != want[j] {
				t.Fatalf("run %d: edge[%d] = %s, want %s", i, j, got[j], want[j])
			}
		}
	}
}
