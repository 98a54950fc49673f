package indexer

import (
	"context"
	"testing"

	"impactmap/internal/graph"
)

const goSource = `package demo

import (
	"fmt"
	str "strings"
)

const answer = 42

type Greeter struct{}

func (g *Greeter) Greet() string {
	return fmt.Sprintf("hi %d", answer)
}

func helper() string {
	return str.ToUpper("x")
}
`

const pySource = `class Calc:
    def add(self, a, b):
        return a + b

def run():
    return Calc().add(1, 2)

def _hidden():
    pass

def test_run():
    assert run() == 3
`

const jsSource = `import { helper } from './util.js';
export const LIMIT = 10;
const make = () => helper(LIMIT);
function main() { return make(); }
class Box {
  open() { return main(); }
}
`

const tsSource = `interface Shape {
  area(): number;
}
type ID = string;
class Circle implements Shape {
  area(): number { return 3; }
}
`

func indexOne(t *testing.T, path, source string) *FileIndex {
	t.Helper()
	res, err := Index(context.Background(), []SourceFile{{Path: path, Content: []byte(source)}}, DefaultMarkerRules())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	t.Cleanup(res.Close)
	if len(res.Errors) > 0 {
		t.Fatalf("index errors: %v", res.Errors)
	}
	fi := res.File(path)
	if fi == nil {
		t.Fatalf("no index for %s", path)
	}
	return fi
}

func findSymbol(t *testing.T, fi *FileIndex, name string) *graph.Symbol {
	t.Helper()
	for _, s := range fi.Symbols {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("symbol %q not found in %s (have %v)", name, fi.Path, fi.Symbols)
	return nil
}

func TestIndexGo(t *testing.T) {
	fi := indexOne(t, "pkg/demo.go", goSource)

	t.Run("module symbol spans package clause and imports", func(t *testing.T) {
		mod := findSymbol(t, fi, "demo")
		if mod.Kind != graph.KindModule {
			t.Errorf("kind = %s, want module", mod.Kind)
		}
		if mod.QualifiedName != "pkg.demo" {
			t.Errorf("qualified name = %s, want pkg.demo", mod.QualifiedName)
		}
		if mod.StartLine != 1 || mod.EndLine != 6 {
			t.Errorf("module span = %d-%d, want 1-6", mod.StartLine, mod.EndLine)
		}
	})

	t.Run("declarations", func(t *testing.T) {
		tests := []struct {
			name     string
			kind     graph.SymbolKind
			qname    string
			exported bool
		}{
			{"answer", graph.KindConstant, "pkg.demo.answer", false},
			{"Greeter", graph.KindType, "pkg.demo.Greeter", true},
			{"Greet", graph.KindMethod, "pkg.demo.Greeter.Greet", true},
			{"helper", graph.KindFunction, "pkg.demo.helper", false},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				s := findSymbol(t, fi, tc.name)
				if s.Kind != tc.kind {
					t.Errorf("kind = %s, want %s", s.Kind, tc.kind)
				}
				if s.QualifiedName != tc.qname {
					t.Errorf("qualified name = %s, want %s", s.QualifiedName, tc.qname)
				}
				if s.Exported != tc.exported {
					t.Errorf("exported = %v, want %v", s.Exported, tc.exported)
				}
				if s.Fingerprint == "" {
					t.Error("empty fingerprint")
				}
			})
		}
	})

	t.Run("imports", func(t *testing.T) {
		if fi.Imports["fmt"] != "fmt" {
			t.Errorf(`Imports["fmt"] = %q`, fi.Imports["fmt"])
		}
		if fi.Imports["str"] != "strings" {
			t.Errorf(`Imports["str"] = %q, want strings`, fi.Imports["str"])
		}
	})
}

func TestIndexPython(t *testing.T) {
	fi := indexOne(t, "calc.py", pySource)

	add := findSymbol(t, fi, "add")
	if add.Kind != graph.KindMethod {
		t.Errorf("add kind = %s, want method (nested in class)", add.Kind)
	}
	if add.QualifiedName != "calc.Calc.add" {
		t.Errorf("add qualified name = %s", add.QualifiedName)
	}
	if hidden := findSymbol(t, fi, "_hidden"); hidden.Exported {
		t.Error("_hidden should not be exported")
	}

	t.Run("test classification", func(t *testing.T) {
		if got := findSymbol(t, fi, "test_run").TestKind; got != "pytest" {
			t.Errorf("test_run TestKind = %q, want pytest", got)
		}
		if got := findSymbol(t, fi, "run").TestKind; got != "" {
			t.Errorf("run TestKind = %q, want none", got)
		}
	})
}

func TestIndexJavaScript(t *testing.T) {
	fi := indexOne(t, "app.js", jsSource)

	if s := findSymbol(t, fi, "LIMIT"); s.Kind != graph.KindConstant || !s.Exported {
		t.Errorf("LIMIT = %s exported=%v, want exported constant", s.Kind, s.Exported)
	}
	if s := findSymbol(t, fi, "make"); s.Kind != graph.KindFunction {
		t.Errorf("arrow const make kind = %s, want function", s.Kind)
	}
	if s := findSymbol(t, fi, "Box"); s.Kind != graph.KindType {
		t.Errorf("Box kind = %s, want type", s.Kind)
	}
	if s := findSymbol(t, fi, "open"); s.Kind != graph.KindMethod || s.QualifiedName != "app.Box.open" {
		t.Errorf("open = %s %s", s.Kind, s.QualifiedName)
	}
	if fi.Imports["helper"] != "./util.js.helper" {
		t.Errorf(`Imports["helper"] = %q`, fi.Imports["helper"])
	}
}

func TestIndexTypeScript(t *testing.T) {
	fi := indexOne(t, "shape.ts", tsSource)

	for _, name := range []string{"Shape", "ID", "Circle"} {
		if s := findSymbol(t, fi, name); s.Kind != graph.KindType {
			t.Errorf("%s kind = %s, want type", name, s.Kind)
		}
	}
	if s := findSymbol(t, fi, "area"); s.QualifiedName != "shape.Circle.area" {
		t.Errorf("area qualified name = %s", s.QualifiedName)
	}
}

func TestIndexUnsupportedFile(t *testing.T) {
	res, err := Index(context.Background(), []SourceFile{
		{Path: "notes.txt", Content: []byte("hello")},
		{Path: "ok.py", Content: []byte("def f():\n    pass\n")},
	}, nil)
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	defer res.Close()

	if len(res.Errors) != 1 || res.Errors[0].File != "notes.txt" {
		t.Fatalf("errors = %v, want one for notes.txt", res.Errors)
	}
	if len(res.Files) != 1 || res.Files[0].Path != "ok.py" {
		t.Fatalf("files = %v, want just ok.py", res.Files)
	}
}

func TestFingerprintIgnoresBody(t *testing.T) {
	a := indexOne(t, "a/one.py", "def f():\n    return 1\n")
	b := indexOne(t, "a/two.py", "def f():\n    return 2\n")
	c := indexOne(t, "a/one_v2.py", "def f(x):\n    return 1\n")

	fa := findSymbol(t, a, "f").Fingerprint
	fb := findSymbol(t, b, "f").Fingerprint
	fc := findSymbol(t, c, "f").Fingerprint
	if fa == fb {
		t.Error("fingerprints of same-named symbols in different files should differ")
	}
	if fa == fc {
		t.Error("signature change should change the fingerprint")
	}

	again := indexOne(t, "a/one.py", "def f():\n    return 99\n")
	if got := findSymbol(t, again, "f").Fingerprint; got != fa {
		t.Error("body-only change should keep the fingerprint")
	}
}
