// Package indexer parses source files with tree-sitter and extracts the
// span-addressable symbols the rest of the pipeline works on. Parse
// trees are retained on the FileIndex so reference resolution can walk
// them without re-parsing; callers must Close the result.
package indexer

import (
	"context"
	"runtime"
	"sort"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	"golang.org/x/sync/errgroup"

	"impactmap/internal/graph"
)

// SourceFile is one input to an indexing run. Path is the
// workspace-relative slash path used for qualified names and spans.
type SourceFile struct {
	Path    string
	Content []byte
}

// FileIndex is the per-file output: the extracted symbols, the import
// map, and the retained parse tree.
type FileIndex struct {
	Path    string
	Lang    *LangSpec
	Source  []byte
	Tree    *tree_sitter.Tree
	Symbols []*graph.Symbol

	// Imports maps a local name to the module or symbol path it brings
	// into scope, e.g. "lru" -> "github.com/x/lru" or "f" -> "lib.f".
	Imports map[string]string
}

// Result holds every successfully indexed file, sorted by path, plus
// the per-file failures.
type Result struct {
	Files  []*FileIndex
	Errors []IndexError
}

// Close releases the retained parse trees. The symbol data stays valid.
func (r *Result) Close() {
	for _, f := range r.Files {
		if f.Tree != nil {
			f.Tree.Close()
			f.Tree = nil
		}
	}
}

// File returns the index for a path, or nil.
func (r *Result) File(path string) *FileIndex {
	for _, f := range r.Files {
		if f.Path == path {
			return f
		}
	}
	return nil
}

// Index parses the given files concurrently, one worker task per file.
// A file that fails to parse contributes an IndexError instead of
// symbols; only empty input or context cancellation fail the run.
func Index(ctx context.Context, files []SourceFile, rules []MarkerRule) (*Result, error) {
	sorted := make([]SourceFile, len(files))
	copy(sorted, files)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	indexed := make([]*FileIndex, len(sorted))
	failures := make([]*IndexError, len(sorted))

	g := new(errgroup.Group)
	g.SetLimit(runtime.NumCPU())
	for i, f := range sorted {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			spec := SpecForPath(f.Path)
			if spec == nil {
				failures[i] = &IndexError{File: f.Path, Reason: "unsupported language"}
				return nil
			}
			fi, ierr := indexFile(f, spec, rules)
			if ierr != nil {
				failures[i] = ierr
				return nil
			}
			indexed[i] = fi
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		for _, fi := range indexed {
			if fi != nil && fi.Tree != nil {
				fi.Tree.Close()
			}
		}
		return nil, err
	}

	res := &Result{}
	for i := range sorted {
		if failures[i] != nil {
			res.Errors = append(res.Errors, *failures[i])
			continue
		}
		if indexed[i] != nil {
			res.Files = append(res.Files, indexed[i])
		}
	}
	return res, nil
}
