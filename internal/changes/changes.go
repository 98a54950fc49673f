// Package changes maps diff hunks onto the symbol graph, producing the
// seed set for impact propagation.
package changes

import (
	"fmt"
	"sort"

	"impactmap/internal/graph"
)

// Hunk is one change region from a unified diff, with 1-indexed line
// ranges. Only the file path and the new-side range drive mapping; the
// old side is carried for diagnostics.
type Hunk struct {
	FilePath string
	OldStart int
	OldLines int
	NewStart int
	NewLines int
}

// NewRange is the changed line range in the current tree,
// start..start+lines-1. A pure deletion has no surviving lines; it
// collapses to the single position where lines were removed, so
// deleting a call site still seeds the symbol that contained it.
func (h Hunk) NewRange() (start, end int) {
	if h.NewLines == 0 {
		return h.NewStart, h.NewStart
	}
	return h.NewStart, h.NewStart + h.NewLines - 1
}

func (h Hunk) String() string {
	return fmt.Sprintf("%s:@@ -%d,%d +%d,%d @@", h.FilePath, h.OldStart, h.OldLines, h.NewStart, h.NewLines)
}

// Unattributed records a hunk that mapped to no symbol. Recoverable:
// reported as a diagnostic, never fatal.
type Unattributed struct {
	Hunk   Hunk
	Reason string
}

func (u Unattributed) String() string {
	return u.Hunk.String() + ": " + u.Reason
}

// MapToSeeds intersects each hunk's changed line range with the symbol
// spans of its file. Every intersecting symbol becomes a seed; a hunk
// touching no span (or a file with no indexed symbols) is returned as
// unattributed. Seeds are deduplicated and sorted ascending.
func MapToSeeds(g *graph.SymbolGraph, hunks []Hunk) ([]graph.SymbolID, []Unattributed) {
	seen := make(map[graph.SymbolID]bool)
	var seeds []graph.SymbolID
	var missed []Unattributed

	for _, h := range hunks {
		syms := g.SymbolsInFile(h.FilePath)
		if len(syms) == 0 {
			missed = append(missed, Unattributed{Hunk: h, Reason: "file has no indexed symbols"})
			continue
		}
		start, end := h.NewRange()
		matched := false
		for _, s := range syms {
			if s.StartLine > end || s.EndLine < start {
				continue
			}
			matched = true
			if !seen[s.ID] {
				seen[s.ID] = true
				seeds = append(seeds, s.ID)
			}
		}
		if !matched {
			missed = append(missed, Unattributed{Hunk: h, Reason: "changed lines fall outside every symbol span"})
		}
	}

	sort.Slice(seeds, func(i, j int) bool { return seeds[i] < seeds[j] })
	return seeds, missed
}
