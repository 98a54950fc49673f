// Package analyzer runs the full pipeline: index, build the symbol
// graph, map the diff onto it, propagate impact, select tests.
package analyzer

import (
	"context"
	"errors"
	"log/slog"

	"impactmap/internal/changes"
	"impactmap/internal/graph"
	"impactmap/internal/indexer"
	"impactmap/internal/propagate"
	"impactmap/internal/resolver"
	"impactmap/internal/selector"
)

// ErrNoInput means indexing produced zero usable files. Running the
// pipeline anyway would report "no tests affected" from an empty graph,
// so this is fatal rather than a diagnostic.
var ErrNoInput = errors.New("no files could be indexed")

// Report is the outcome of one analysis run. Recoverable problems
// accumulate in the diagnostic fields instead of failing the run.
type Report struct {
	Tests []selector.SelectedTest `json:"tests"`

	IndexErrors  []indexer.IndexError   `json:"index_errors,omitempty"`
	Unattributed []changes.Unattributed `json:"unattributed,omitempty"`

	FilesIndexed int `json:"files_indexed"`
	SymbolCount  int `json:"symbol_count"`
	EdgeCount    int `json:"edge_count"`
	SeedCount    int `json:"seed_count"`
	ImpactCount  int `json:"impact_count"`
}

// BuildGraph indexes the files and resolves them into a frozen,
// consistency-checked symbol graph.
func BuildGraph(ctx context.Context, files []indexer.SourceFile, rules []indexer.MarkerRule) (*graph.SymbolGraph, []indexer.IndexError, error) {
	res, err := indexer.Index(ctx, files, rules)
	if err != nil {
		return nil, nil, err
	}
	defer res.Close()

	if len(res.Files) == 0 {
		return nil, res.Errors, ErrNoInput
	}
	g, err := resolver.Build(ctx, res)
	if err != nil {
		return nil, res.Errors, err
	}
	slog.Debug("graph built",
		"files", len(res.Files),
		"symbols", g.Len(),
		"edges", g.EdgeCount(),
		"index_errors", len(res.Errors))
	return g, res.Errors, nil
}

// Analyze runs the whole pipeline over the given working-tree files and
// diff hunks. Fatal errors (no input, graph inconsistency) return a nil
// report; everything else lands in the report's diagnostics.
func Analyze(ctx context.Context, files []indexer.SourceFile, hunks []changes.Hunk, rules []indexer.MarkerRule) (*Report, error) {
	g, indexErrs, err := BuildGraph(ctx, files, rules)
	if err != nil {
		return nil, err
	}
	rep := AnalyzeGraph(g, hunks)
	rep.IndexErrors = indexErrs
	rep.FilesIndexed = len(files) - len(indexErrs)
	return rep, nil
}

// AnalyzeGraph runs mapping, propagation and selection against an
// already-built graph. The graph must be frozen.
func AnalyzeGraph(g *graph.SymbolGraph, hunks []changes.Hunk) *Report {
	seeds, missed := changes.MapToSeeds(g, hunks)
	impacted := propagate.Closure(g, seeds)
	tests := selector.SelectTests(g, impacted)
	slog.Debug("impact computed",
		"hunks", len(hunks),
		"seeds", len(seeds),
		"impacted", len(impacted),
		"tests", len(tests))
	return &Report{
		Tests:        tests,
		Unattributed: missed,
		SymbolCount:  g.Len(),
		EdgeCount:    g.EdgeCount(),
		SeedCount:    len(seeds),
		ImpactCount:  len(impacted),
	}
}
