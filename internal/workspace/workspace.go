// Package workspace discovers the source files of a working tree,
// honoring .gitignore plus the configured include and exclude patterns.
package workspace

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"

	"impactmap/internal/config"
	"impactmap/internal/indexer"
)

// Directories never worth indexing, whatever the config says.
var defaultExcludes = []string{
	".git/",
	"node_modules/",
	"vendor/",
	"dist/",
	"build/",
	"target/",
	"__pycache__/",
	".venv/",
}

// Files larger than this are skipped; generated bundles and vendored
// blobs dominate above it.
const maxFileSize = 2 << 20

// Load walks root and returns every indexable source file with its
// workspace-relative slash path and content.
func Load(root string, cfg *config.Config) ([]indexer.SourceFile, error) {
	excl := compileExcludes(root, cfg)
	var incl *ignore.GitIgnore
	if len(cfg.Include) > 0 {
		incl = ignore.CompileIgnoreLines(cfg.Include...)
	}

	var files []indexer.SourceFile
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, rerr := filepath.Rel(root, p)
		if rerr != nil {
			return rerr
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if d.IsDir() {
			if excl.MatchesPath(rel + "/") {
				return filepath.SkipDir
			}
			return nil
		}
		if indexer.SpecForPath(rel) == nil || excl.MatchesPath(rel) {
			return nil
		}
		if incl != nil && !incl.MatchesPath(rel) {
			return nil
		}
		if info, ierr := d.Info(); ierr == nil && info.Size() > maxFileSize {
			return nil
		}
		content, rerr := os.ReadFile(p)
		if rerr != nil {
			return fmt.Errorf("read %s: %w", rel, rerr)
		}
		files = append(files, indexer.SourceFile{Path: rel, Content: content})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

// compileExcludes merges the built-in exclusions, the workspace's
// .gitignore, and the configured patterns into one matcher.
func compileExcludes(root string, cfg *config.Config) *ignore.GitIgnore {
	lines := append([]string{}, defaultExcludes...)
	if data, err := os.ReadFile(filepath.Join(root, ".gitignore")); err == nil {
		for _, ln := range strings.Split(string(data), "\n") {
			ln = strings.TrimSpace(ln)
			if ln != "" && !strings.HasPrefix(ln, "#") {
				lines = append(lines, ln)
			}
		}
	}
	lines = append(lines, cfg.Exclude...)
	return ignore.CompileIgnoreLines(lines...)
}
