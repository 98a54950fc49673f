package indexer

import (
	"path"
	"path/filepath"

	"impactmap/internal/graph"
)

// MarkerRule declares one test-entry-point convention. A function or
// method symbol whose name matches NamePattern (path.Match semantics),
// in a file whose base name matches FilePattern (empty means any file),
// is classified as a test of the given Kind.
type MarkerRule struct {
	Language    string // empty matches every language
	NamePattern string
	FilePattern string
	Kind        string
}

// DefaultMarkerRules covers the stock conventions of the supported
// languages. Config may replace or extend them.
func DefaultMarkerRules() []MarkerRule {
	return []MarkerRule{
		{Language: "go", NamePattern: "Test*", FilePattern: "*_test.go", Kind: "go-test"},
		{Language: "python", NamePattern: "test_*", Kind: "pytest"},
		{Language: "javascript", NamePattern: "test*", Kind: "jest"},
		{Language: "javascript", NamePattern: "*", FilePattern: "*.test.*", Kind: "jest"},
		{Language: "typescript", NamePattern: "test*", Kind: "jest"},
		{Language: "typescript", NamePattern: "*", FilePattern: "*.test.*", Kind: "jest"},
	}
}

// classifyTest returns the matching rule's kind, or "" when the symbol
// is not a test entry point. Only callables are considered; rules apply
// in order and the first match wins.
func classifyTest(rules []MarkerRule, s *graph.Symbol) string {
	if s.Kind != graph.KindFunction && s.Kind != graph.KindMethod {
		return ""
	}
	base := filepath.Base(s.FilePath)
	for _, r := range rules {
		if r.Language != "" && r.Language != s.Language {
			continue
		}
		if ok, _ := path.Match(r.NamePattern, s.Name); !ok {
			continue
		}
		if r.FilePattern != "" {
			if ok, _ := path.Match(r.FilePattern, base); !ok {
				continue
			}
		}
		return r.Kind
	}
	return ""
}
