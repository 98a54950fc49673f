package resolver

import (
	"path"
	"sort"
	"strings"

	"impactmap/internal/graph"
	"impactmap/internal/indexer"
)

// runContext is the shared, read-only state of one resolution run.
// Workers consult it concurrently; nothing here mutates after
// newRunContext returns.
type runContext struct {
	g     *graph.SymbolGraph
	files []*indexer.FileIndex

	// byModule maps a dotted module path ("a.b.lib") to its file.
	byModule map[string]*indexer.FileIndex
}

func newRunContext(g *graph.SymbolGraph, res *indexer.Result) *runContext {
	rc := &runContext{
		g:        g,
		files:    res.Files,
		byModule: make(map[string]*indexer.FileIndex, len(res.Files)),
	}
	for _, fi := range res.Files {
		rc.byModule[indexer.ModulePath(fi.Path)] = fi
	}
	return rc
}

// enclosing returns the innermost symbol of the file whose byte span
// contains offset, or nil when the offset sits outside every span.
func (rc *runContext) enclosing(filePath string, offset int) *graph.Symbol {
	var best *graph.Symbol
	for _, s := range rc.g.SymbolsInFile(filePath) {
		if offset < s.StartByte || offset >= s.EndByte {
			continue
		}
		if best == nil || s.EndByte-s.StartByte < best.EndByte-best.StartByte {
			best = s
		}
	}
	return best
}

// resolve maps a (qualifier, name) reference to its candidate symbols.
// Priority: import-qualified match, then direct import of the name,
// then same file, then same directory, then exported names of imported
// modules. The first tier with any candidate wins; within a tier every
// candidate is kept, favoring soundness over precision.
func (rc *runContext) resolve(fi *indexer.FileIndex, qualifier, name string) []*graph.Symbol {
	if qualifier != "" {
		if target, ok := rc.importTarget(fi, qualifier); ok {
			if syms := rc.symbolsInModule(target, name, false); len(syms) > 0 {
				return syms
			}
			// imported but undefined there: external, drop
			return nil
		}
		// a value expression qualifier (receiver, self, local);
		// fall through to unqualified lookup of the member name
	}

	if target, ok := fi.Imports[name]; ok {
		if module, sym := splitTarget(target); sym != "" {
			if syms := rc.symbolsInModule(module, sym, false); len(syms) > 0 {
				return syms
			}
		}
	}

	if syms := symbolsNamed(rc.g.SymbolsInFile(fi.Path), name, false); len(syms) > 0 {
		return syms
	}

	if syms := rc.sameDir(fi, name); len(syms) > 0 {
		return syms
	}

	return rc.importedExports(fi, name)
}

// importTarget looks the qualifier up in the file's import map, trying
// the full dotted qualifier first and then its leading segment.
func (rc *runContext) importTarget(fi *indexer.FileIndex, qualifier string) (string, bool) {
	if t, ok := fi.Imports[qualifier]; ok {
		return t, true
	}
	if head, _, found := strings.Cut(qualifier, "."); found {
		if t, ok := fi.Imports[head]; ok {
			return t, true
		}
	}
	return "", false
}

// symbolsInModule finds symbols named name in the files matching an
// import target. exportedOnly restricts the match to exported symbols.
func (rc *runContext) symbolsInModule(target, name string, exportedOnly bool) []*graph.Symbol {
	var out []*graph.Symbol
	for _, fi := range rc.matchModules(target) {
		out = append(out, symbolsNamed(rc.g.SymbolsInFile(fi.Path), name, exportedOnly)...)
	}
	return dedupeSorted(out)
}

// matchModules maps an import target in source form onto workspace
// files: exact dotted-path match, then relative-path resolution, then
// a last-segment suffix match for hierarchical targets like Go import
// paths.
func (rc *runContext) matchModules(target string) []*indexer.FileIndex {
	target = strings.TrimSuffix(target, ".default")
	// relative imports often carry the file extension ("./util.js")
	if indexer.SpecForPath(target) != nil {
		target = target[:strings.LastIndex(target, ".")]
	}

	dotted := strings.ReplaceAll(strings.TrimPrefix(target, "./"), "/", ".")
	if fi, ok := rc.byModule[dotted]; ok {
		return []*indexer.FileIndex{fi}
	}

	last := dotted
	if idx := strings.LastIndexAny(last, "./"); idx >= 0 {
		last = last[idx+1:]
	}
	var out []*indexer.FileIndex
	var keys []string
	for mp := range rc.byModule {
		if mp == last || strings.HasSuffix(mp, "."+last) {
			keys = append(keys, mp)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, rc.byModule[k])
	}
	return out
}

func (rc *runContext) sameDir(fi *indexer.FileIndex, name string) []*graph.Symbol {
	dir := path.Dir(fi.Path)
	var out []*graph.Symbol
	for _, other := range rc.files {
		if other.Path == fi.Path || path.Dir(other.Path) != dir || other.Lang != fi.Lang {
			continue
		}
		out = append(out, symbolsNamed(rc.g.SymbolsInFile(other.Path), name, false)...)
	}
	return dedupeSorted(out)
}

// importedExports searches the exported names of every module the file
// imports. Covers unqualified use after wildcard-style imports.
func (rc *runContext) importedExports(fi *indexer.FileIndex, name string) []*graph.Symbol {
	targets := make([]string, 0, len(fi.Imports))
	for _, t := range fi.Imports {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	var out []*graph.Symbol
	for _, t := range targets {
		module, _ := splitTarget(t)
		if module == "" {
			module = t
		}
		out = append(out, rc.symbolsInModule(module, name, true)...)
	}
	return dedupeSorted(out)
}

// splitTarget splits "a.b.f" into module "a.b" and symbol "f". Targets
// without a dot have no symbol part.
func splitTarget(target string) (module, sym string) {
	idx := strings.LastIndex(target, ".")
	if idx < 0 {
		return target, ""
	}
	return target[:idx], target[idx+1:]
}

func symbolsNamed(syms []*graph.Symbol, name string, exportedOnly bool) []*graph.Symbol {
	var out []*graph.Symbol
	for _, s := range syms {
		if s.Name != name || s.Kind == graph.KindModule {
			continue
		}
		if exportedOnly && !s.Exported {
			continue
		}
		out = append(out, s)
	}
	return out
}

func dedupeSorted(syms []*graph.Symbol) []*graph.Symbol {
	if len(syms) < 2 {
		return syms
	}
	sort.Slice(syms, func(i, j int) bool { return syms[i].ID < syms[j].ID })
	out := syms[:1]
	for _, s := range syms[1:] {
		if s.ID != out[len(out)-1].ID {
			out = append(out, s)
		}
	}
	return out
}
