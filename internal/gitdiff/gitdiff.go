// Package gitdiff converts unified diff text into change hunks. The
// analysis core never shells out to git; whoever produced the diff is
// the collaborator, this package only adapts its output.
package gitdiff

import (
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"impactmap/internal/changes"
)

// Parse reads a (possibly multi-file) unified diff and returns its
// hunks with workspace-relative paths. Paths keep the new-side name;
// for deleted files the old-side name is the only one there is.
func Parse(text string) ([]changes.Hunk, error) {
	fds, err := diff.NewMultiFileDiffReader(strings.NewReader(text)).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parse diff: %w", err)
	}
	var hunks []changes.Hunk
	for _, fd := range fds {
		path := stripPrefix(fd.NewName)
		if path == "/dev/null" || path == "" {
			path = stripPrefix(fd.OrigName)
		}
		for _, h := range fd.Hunks {
			hunks = append(hunks, changes.Hunk{
				FilePath: path,
				OldStart: int(h.OrigStartLine),
				OldLines: int(h.OrigLines),
				NewStart: int(h.NewStartLine),
				NewLines: int(h.NewLines),
			})
		}
	}
	return hunks, nil
}

// stripPrefix drops git's a/ and b/ name prefixes.
func stripPrefix(name string) string {
	if strings.HasPrefix(name, "a/") || strings.HasPrefix(name, "b/") {
		return name[2:]
	}
	return name
}
