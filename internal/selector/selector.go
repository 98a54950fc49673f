// Package selector picks the test entry points out of an impacted
// symbol set and orders them for stable output.
package selector

import (
	"sort"

	"impactmap/internal/graph"
)

// SelectedTest is one test to run.
type SelectedTest struct {
	QualifiedName string `json:"qualified_name"`
	FilePath      string `json:"file_path"`
	TestKind      string `json:"test_kind"`
}

// SelectTests filters the impacted set down to test symbols, ordered by
// qualified name (byte order, file path as tiebreak) and deduplicated.
func SelectTests(g *graph.SymbolGraph, impacted []graph.SymbolID) []SelectedTest {
	var out []SelectedTest
	for _, id := range impacted {
		s := g.Symbol(id)
		if s == nil || !s.IsTest() {
			continue
		}
		out = append(out, SelectedTest{
			QualifiedName: s.QualifiedName,
			FilePath:      s.FilePath,
			TestKind:      s.TestKind,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].QualifiedName != out[j].QualifiedName {
			return out[i].QualifiedName < out[j].QualifiedName
		}
		return out[i].FilePath < out[j].FilePath
	})
	dedup := out[:0]
	for _, t := range out {
		if len(dedup) == 0 || dedup[len(dedup)-1] != t {
			dedup = append(dedup, t)
		}
	}
	return dedup
}
