package indexer

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"impactmap/internal/graph"
	"impactmap/util"
)

// indexFile parses one file and extracts its symbols. The returned
// FileIndex retains the parse tree; on failure the tree is closed.
func indexFile(f SourceFile, spec *LangSpec, rules []MarkerRule) (*FileIndex, *IndexError) {
	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(spec.Language()); err != nil {
		return nil, &IndexError{File: f.Path, Reason: "grammar: " + err.Error()}
	}

	tree := parser.Parse(f.Content, nil)
	if tree == nil {
		return nil, &IndexError{File: f.Path, Reason: "parse failed"}
	}
	root := tree.RootNode()
	if root == nil || root.IsError() {
		tree.Close()
		return nil, &IndexError{File: f.Path, Reason: "unparseable file"}
	}

	fi := &FileIndex{
		Path:    f.Path,
		Lang:    spec,
		Source:  f.Content,
		Tree:    tree,
		Imports: make(map[string]string),
	}

	ex := &extractor{fi: fi, spec: spec, rules: rules}
	ex.walk(root)
	collectImports(fi, root)
	return fi, nil
}

type extractor struct {
	fi    *FileIndex
	spec  *LangSpec
	rules []MarkerRule

	// containers is the stack of enclosing declarations, used for
	// qualified names and for reclassifying nested callables.
	containers []*graph.Symbol
}

func (ex *extractor) walk(node *tree_sitter.Node) {
	kind, isDef := ex.spec.Definitions[node.Kind()]
	var sym *graph.Symbol
	if isDef {
		sym = ex.define(node, kind)
	}
	if sym != nil {
		ex.containers = append(ex.containers, sym)
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		ex.walk(node.NamedChild(i))
	}
	if sym != nil {
		ex.containers = ex.containers[:len(ex.containers)-1]
	}
}

func (ex *extractor) define(node *tree_sitter.Node, kind graph.SymbolKind) *graph.Symbol {
	if kind == graph.KindModule {
		return ex.defineModule(node)
	}
	if kind == graph.KindConstant && !constantDeclarator(ex.spec, node, ex.fi.Source) {
		return nil
	}
	name := declName(ex.spec, node, ex.fi.Source)
	if name == "" {
		return nil
	}
	if kind == graph.KindFunction && ex.enclosedByType() {
		kind = graph.KindMethod
	}
	if kind == graph.KindConstant && (ex.spec.Name == "javascript" || ex.spec.Name == "typescript") {
		if fn := node.ChildByFieldName("value"); fn != nil {
			switch fn.Kind() {
			case "arrow_function", "function_expression", "function":
				kind = graph.KindFunction
			}
		}
	}

	s := ex.newSymbol(node, name, kind)
	s.QualifiedName = ex.qualify(node, name, kind)
	s.TestKind = classifyTest(ex.rules, s)
	ex.fi.Symbols = append(ex.fi.Symbols, s)
	return s
}

// defineModule emits the Go package clause as a module symbol whose span
// also covers the contiguous import block that follows it. Changes to
// imports thereby attribute to the module rather than going unmapped.
func (ex *extractor) defineModule(node *tree_sitter.Node) *graph.Symbol {
	name := declName(ex.spec, node, ex.fi.Source)
	if name == "" {
		return nil
	}
	s := ex.newSymbol(node, name, graph.KindModule)
	for sib := node.NextNamedSibling(); sib != nil && sib.Kind() == "import_declaration"; sib = sib.NextNamedSibling() {
		s.EndByte = int(sib.EndByte())
		s.EndLine = int(sib.EndPosition().Row) + 1
	}
	s.QualifiedName = ModulePath(ex.fi.Path)
	ex.fi.Symbols = append(ex.fi.Symbols, s)
	return nil // the module is not a container for nesting purposes
}

func (ex *extractor) newSymbol(node *tree_sitter.Node, name string, kind graph.SymbolKind) *graph.Symbol {
	s := &graph.Symbol{
		Name:      name,
		Kind:      kind,
		FilePath:  ex.fi.Path,
		StartByte: int(node.StartByte()),
		EndByte:   int(node.EndByte()),
		StartLine: int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		Language:  ex.spec.Name,
		Exported:  ex.spec.exported(name, node),
	}
	s.Fingerprint = util.Fingerprint(s.FilePath, string(kind), name, signatureText(node, ex.fi.Source))
	return s
}

func (ex *extractor) enclosedByType() bool {
	for i := len(ex.containers) - 1; i >= 0; i-- {
		if ex.containers[i].Kind == graph.KindType {
			return true
		}
	}
	return false
}

// qualify builds the dotted qualified name: module path, enclosing
// declarations, then the symbol's own name. Go methods qualify by their
// receiver type instead of an enclosing declaration.
func (ex *extractor) qualify(node *tree_sitter.Node, name string, kind graph.SymbolKind) string {
	parts := []string{ModulePath(ex.fi.Path)}
	if kind == graph.KindMethod && ex.spec.Name == "go" {
		if recv := receiverTypeName(node, ex.fi.Source); recv != "" {
			parts = append(parts, recv)
		}
	}
	for _, c := range ex.containers {
		parts = append(parts, c.Name)
	}
	parts = append(parts, name)
	return strings.Join(parts, ".")
}

// ModulePath turns a workspace-relative file path into a dotted module
// path: "a/b/lib.go" -> "a.b.lib".
func ModulePath(path string) string {
	if dot := strings.LastIndex(path, "."); dot > strings.LastIndex(path, "/") {
		path = path[:dot]
	}
	return strings.ReplaceAll(path, "/", ".")
}

// declName reads a declaration's name: the grammar's "name" field when
// present, otherwise the first child of a language-designated name kind.
func declName(spec *LangSpec, node *tree_sitter.Node, source []byte) string {
	if n := node.ChildByFieldName("name"); n != nil {
		return n.Utf8Text(source)
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		c := node.NamedChild(i)
		if spec.NameKinds[c.Kind()] {
			return c.Utf8Text(source)
		}
	}
	return ""
}

// constantDeclarator reports whether a variable_declarator should yield
// a symbol: only top-level const bindings count.
func constantDeclarator(spec *LangSpec, node *tree_sitter.Node, source []byte) bool {
	if spec.Name != "javascript" && spec.Name != "typescript" {
		return true
	}
	decl := node.Parent()
	if decl == nil || decl.Kind() != "lexical_declaration" {
		return false
	}
	if kw := decl.Child(0); kw == nil || kw.Utf8Text(source) != "const" {
		return false
	}
	switch p := decl.Parent(); {
	case p == nil:
		return false
	case p.Kind() == "program":
		return true
	case p.Kind() == "export_statement" && p.Parent() != nil && p.Parent().Kind() == "program":
		return true
	}
	return false
}

// receiverTypeName extracts the bare receiver type of a Go method.
func receiverTypeName(node *tree_sitter.Node, source []byte) string {
	recv := node.ChildByFieldName("receiver")
	if recv == nil {
		return ""
	}
	var found string
	Walk(recv, func(n *tree_sitter.Node) bool {
		if found == "" && n.Kind() == "type_identifier" {
			found = n.Utf8Text(source)
		}
		return found == ""
	})
	return found
}

// signatureText is the declaration text up to (excluding) its body,
// or the whole node for bodiless declarations. Feeds the fingerprint,
// so body-only edits keep a symbol's identity.
func signatureText(node *tree_sitter.Node, source []byte) string {
	start := node.StartByte()
	end := node.EndByte()
	if body := node.ChildByFieldName("body"); body != nil && body.StartByte() > start {
		end = body.StartByte()
	}
	return strings.TrimSpace(string(source[start:end]))
}

// Walk visits node and, when fn returns true, its named descendants.
func Walk(node *tree_sitter.Node, fn func(*tree_sitter.Node) bool) {
	if !fn(node) {
		return
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		Walk(node.NamedChild(i), fn)
	}
}
