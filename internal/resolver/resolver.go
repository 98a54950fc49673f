// Package resolver builds the symbol graph: it assembles every indexed
// symbol into a SymbolGraph, walks the retained parse trees for
// references, and resolves them into directed edges. Resolution is
// deliberately over-approximate: an ambiguous name yields an edge to
// every candidate, an unresolvable one yields nothing.
package resolver

import (
	"context"
	"runtime"
	"sort"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"impactmap/internal/graph"
	"impactmap/internal/indexer"
)

// Build assembles the frozen symbol graph for an indexing run. Symbol
// IDs are assigned in file-path then start-byte order, so identical
// input always yields the identical graph.
func Build(ctx context.Context, res *indexer.Result) (*graph.SymbolGraph, error) {
	g := graph.NewSymbolGraph()
	for _, fi := range res.Files {
		syms := fi.Symbols
		sort.Slice(syms, func(i, j int) bool {
			if syms[i].StartByte != syms[j].StartByte {
				return syms[i].StartByte < syms[j].StartByte
			}
			return syms[i].EndByte > syms[j].EndByte
		})
		for _, s := range syms {
			if _, err := g.AddSymbol(s); err != nil {
				return nil, err
			}
		}
	}

	rc := newRunContext(g, res)
	perFile := make([][]graph.Edge, len(res.Files))

	eg := new(errgroup.Group)
	eg.SetLimit(runtime.NumCPU())
	for i, fi := range res.Files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			perFile[i] = rc.resolveFile(fi)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, edges := range perFile {
		for _, e := range edges {
			if err := g.AddEdge(e.From, e.To, e.Kind); err != nil {
				return nil, err
			}
		}
	}
	g.Freeze()
	if err := g.CheckConsistency(); err != nil {
		return nil, err
	}
	return g, nil
}

// resolveFile walks one file's tree and emits the resolved edges,
// sorted for deterministic insertion.
func (rc *runContext) resolveFile(fi *indexer.FileIndex) []graph.Edge {
	if fi.Tree == nil {
		return nil
	}
	w := &refWalker{rc: rc, fi: fi}
	w.walk(fi.Tree.RootNode())
	sort.Slice(w.edges, func(i, j int) bool {
		a, b := w.edges[i], w.edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})
	return w.edges
}

type refWalker struct {
	rc    *runContext
	fi    *indexer.FileIndex
	edges []graph.Edge
}

// skipKinds are subtrees that declare names rather than use them.
var skipKinds = map[string]bool{
	"import_declaration":    true,
	"import_statement":      true,
	"import_from_statement": true,
	"package_clause":        true,
}

func (w *refWalker) walk(node *tree_sitter.Node) {
	kind := node.Kind()
	if skipKinds[kind] {
		return
	}
	spec := w.fi.Lang

	if spec.CallKinds[kind] {
		if callee := node.ChildByFieldName("function"); callee != nil {
			qualifier, name, nameNode := w.splitRef(callee)
			w.emit(node, qualifier, name, graph.EdgeCall)
			// the callee's name is consumed; its operand side and the
			// arguments still carry references (chained calls, etc.)
			for i := uint(0); i < callee.NamedChildCount(); i++ {
				c := callee.NamedChild(i)
				if nameNode == nil || c.Id() != nameNode.Id() {
					w.walk(c)
				}
			}
			for i := uint(0); i < node.NamedChildCount(); i++ {
				if c := node.NamedChild(i); c.Id() != callee.Id() {
					w.walk(c)
				}
			}
			return
		}
	}

	if spec.TypeRefKinds[kind] && !w.isDeclName(node) {
		qualifier := ""
		if p := node.Parent(); p != nil && p.Kind() == "qualified_type" {
			if pkg := p.ChildByFieldName("package"); pkg != nil {
				qualifier = pkg.Utf8Text(w.fi.Source)
			}
		}
		edgeKind := graph.EdgeTypeUse
		if underImplementsClause(node) {
			edgeKind = graph.EdgeTraitImplUse
		}
		w.emit(node, qualifier, node.Utf8Text(w.fi.Source), edgeKind)
		return
	}

	if spec.IdentKinds[kind] && !w.isDeclName(node) {
		w.emit(node, "", node.Utf8Text(w.fi.Source), graph.EdgeReference)
		return
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		w.walk(node.NamedChild(i))
	}
}

// splitRef decomposes a callee expression into qualifier and name:
// "f" -> ("", "f"), "lib.f" -> ("lib", "f"), "a.b.f" -> ("a.b", "f").
// nameNode is the node carrying the name, nil for a bare expression.
func (w *refWalker) splitRef(node *tree_sitter.Node) (qualifier, name string, nameNode *tree_sitter.Node) {
	src := w.fi.Source
	var fieldName string
	switch node.Kind() {
	case "selector_expression": // go
		fieldName = "field"
	case "attribute": // python
		fieldName = "attribute"
	case "member_expression": // javascript, typescript
		fieldName = "property"
	default:
		return "", node.Utf8Text(src), nil
	}
	if op := firstField(node, "operand", "object"); op != nil {
		qualifier = op.Utf8Text(src)
	}
	if f := node.ChildByFieldName(fieldName); f != nil {
		name = f.Utf8Text(src)
		nameNode = f
	}
	return qualifier, name, nameNode
}

func firstField(node *tree_sitter.Node, names ...string) *tree_sitter.Node {
	for _, n := range names {
		if c := node.ChildByFieldName(n); c != nil {
			return c
		}
	}
	return nil
}

// isDeclName reports whether node is the name position of a declaration.
func (w *refWalker) isDeclName(node *tree_sitter.Node) bool {
	p := node.Parent()
	if p == nil {
		return false
	}
	if _, isDef := w.fi.Lang.Definitions[p.Kind()]; !isDef {
		return false
	}
	name := p.ChildByFieldName("name")
	return name != nil && name.Id() == node.Id()
}

func underImplementsClause(node *tree_sitter.Node) bool {
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Kind() {
		case "implements_clause":
			return true
		case "class_body", "program":
			return false
		}
	}
	return false
}

// emit attributes the reference to its innermost enclosing symbol and
// records one edge per resolved candidate. References outside any
// symbol span, or to names the workspace does not define, are dropped.
func (w *refWalker) emit(node *tree_sitter.Node, qualifier, name string, kind graph.EdgeKind) {
	if name == "" {
		return
	}
	from := w.rc.enclosing(w.fi.Path, int(node.StartByte()))
	if from == nil {
		return
	}
	for _, target := range w.rc.resolve(w.fi, qualifier, name) {
		if target.ID == from.ID {
			continue
		}
		w.edges = append(w.edges, graph.Edge{From: from.ID, To: target.ID, Kind: kind})
	}
}
