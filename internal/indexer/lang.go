package indexer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"impactmap/internal/graph"
)

// LangSpec describes how one language's parse tree maps onto the symbol
// model: which node kinds declare symbols, which ones are references, and
// how names and visibility are read off a declaration.
type LangSpec struct {
	Name       string
	Extensions []string
	Language   func() *tree_sitter.Language

	// Definitions maps a declaration node kind to the symbol kind it
	// produces. Plays the role of a per-language query table.
	Definitions map[string]graph.SymbolKind

	// CallKinds are the node kinds whose "function" field names a callee.
	CallKinds map[string]bool

	// TypeRefKinds are the node kinds whose text names a type in use.
	TypeRefKinds map[string]bool

	// IdentKinds are plain identifier node kinds considered for
	// reference edges when nothing more specific matches.
	IdentKinds map[string]bool

	// NameKinds are the child node kinds that carry a declaration's
	// name when the grammar exposes no "name" field for it.
	NameKinds map[string]bool

	exported func(name string, node *tree_sitter.Node) bool
}

var goSpec = &LangSpec{
	Name:       "go",
	Extensions: []string{".go"},
	Language: func() *tree_sitter.Language {
		return tree_sitter.NewLanguage(tree_sitter_go.Language())
	},
	Definitions: map[string]graph.SymbolKind{
		"function_declaration": graph.KindFunction,
		"method_declaration":   graph.KindMethod,
		"type_spec":            graph.KindType,
		"const_spec":           graph.KindConstant,
		"package_clause":       graph.KindModule,
	},
	CallKinds: map[string]bool{
		"call_expression": true,
	},
	TypeRefKinds: map[string]bool{
		"type_identifier": true,
	},
	IdentKinds: map[string]bool{
		"identifier":       true,
		"field_identifier": true,
	},
	NameKinds: map[string]bool{
		"package_identifier": true,
	},
	exported: func(name string, _ *tree_sitter.Node) bool {
		r, _ := utf8.DecodeRuneInString(name)
		return unicode.IsUpper(r)
	},
}

var pythonSpec = &LangSpec{
	Name:       "python",
	Extensions: []string{".py"},
	Language: func() *tree_sitter.Language {
		return tree_sitter.NewLanguage(tree_sitter_python.Language())
	},
	Definitions: map[string]graph.SymbolKind{
		"function_definition": graph.KindFunction,
		"class_definition":    graph.KindType,
	},
	CallKinds: map[string]bool{
		"call": true,
	},
	IdentKinds: map[string]bool{
		"identifier": true,
	},
	NameKinds: map[string]bool{},
	exported: func(name string, _ *tree_sitter.Node) bool {
		return !strings.HasPrefix(name, "_")
	},
}

var javascriptSpec = &LangSpec{
	Name:       "javascript",
	Extensions: []string{".js", ".jsx", ".mjs"},
	Language: func() *tree_sitter.Language {
		return tree_sitter.NewLanguage(tree_sitter_javascript.Language())
	},
	Definitions: map[string]graph.SymbolKind{
		"function_declaration": graph.KindFunction,
		"class_declaration":    graph.KindType,
		"method_definition":    graph.KindMethod,
		"variable_declarator":  graph.KindConstant,
	},
	CallKinds: map[string]bool{
		"call_expression": true,
		"new_expression":  true,
	},
	IdentKinds: map[string]bool{
		"identifier": true,
	},
	NameKinds: map[string]bool{},
	exported:  jsExported,
}

var typescriptSpec = &LangSpec{
	Name:       "typescript",
	Extensions: []string{".ts", ".tsx"},
	Language: func() *tree_sitter.Language {
		return tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript())
	},
	Definitions: map[string]graph.SymbolKind{
		"function_declaration":   graph.KindFunction,
		"class_declaration":      graph.KindType,
		"method_definition":      graph.KindMethod,
		"variable_declarator":    graph.KindConstant,
		"interface_declaration":  graph.KindType,
		"type_alias_declaration": graph.KindType,
	},
	CallKinds: map[string]bool{
		"call_expression": true,
		"new_expression":  true,
	},
	TypeRefKinds: map[string]bool{
		"type_identifier": true,
	},
	IdentKinds: map[string]bool{
		"identifier": true,
	},
	NameKinds: map[string]bool{},
	exported:  jsExported,
}

// jsExported treats a declaration as exported when it sits under an
// export statement.
func jsExported(_ string, node *tree_sitter.Node) bool {
	for n := node; n != nil; n = n.Parent() {
		if n.Kind() == "export_statement" {
			return true
		}
	}
	return false
}

var specs = []*LangSpec{goSpec, pythonSpec, javascriptSpec, typescriptSpec}

// SpecForPath returns the language spec for a file path, or nil when the
// extension is not a supported source language.
func SpecForPath(path string) *LangSpec {
	dot := strings.LastIndex(path, ".")
	if dot < 0 {
		return nil
	}
	ext := strings.ToLower(path[dot:])
	for _, s := range specs {
		for _, e := range s.Extensions {
			if e == ext {
				return s
			}
		}
	}
	return nil
}

// SupportedExtensions lists every extension the indexer parses.
func SupportedExtensions() []string {
	var exts []string
	for _, s := range specs {
		exts = append(exts, s.Extensions...)
	}
	return exts
}
