package indexer

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// collectImports fills fi.Imports with local-name -> target bindings.
// Targets stay in source form ("./lib", "pkg.mod", "example.com/x");
// the resolver normalizes them against the workspace's module paths.
func collectImports(fi *FileIndex, root *tree_sitter.Node) {
	switch fi.Lang.Name {
	case "go":
		goImports(fi, root)
	case "python":
		pythonImports(fi, root)
	case "javascript", "typescript":
		jsImports(fi, root)
	}
}

func goImports(fi *FileIndex, root *tree_sitter.Node) {
	Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() != "import_spec" {
			return true
		}
		pathNode := n.ChildByFieldName("path")
		if pathNode == nil {
			return false
		}
		target := strings.Trim(pathNode.Utf8Text(fi.Source), `"`)
		local := target
		if idx := strings.LastIndex(local, "/"); idx >= 0 {
			local = local[idx+1:]
		}
		if nameNode := n.ChildByFieldName("name"); nameNode != nil {
			local = nameNode.Utf8Text(fi.Source)
		}
		if local != "_" && local != "." {
			fi.Imports[local] = target
		}
		return false
	})
}

func pythonImports(fi *FileIndex, root *tree_sitter.Node) {
	Walk(root, func(n *tree_sitter.Node) bool {
		switch n.Kind() {
		case "import_statement":
			for i := uint(0); i < n.NamedChildCount(); i++ {
				c := n.NamedChild(i)
				switch c.Kind() {
				case "dotted_name":
					name := c.Utf8Text(fi.Source)
					fi.Imports[name] = name
				case "aliased_import":
					target, alias := aliasedImport(fi, c)
					if alias != "" {
						fi.Imports[alias] = target
					}
				}
			}
			return false
		case "import_from_statement":
			module := ""
			if m := n.ChildByFieldName("module_name"); m != nil {
				module = m.Utf8Text(fi.Source)
			}
			for i := uint(0); i < n.NamedChildCount(); i++ {
				c := n.NamedChild(i)
				switch c.Kind() {
				case "dotted_name":
					name := c.Utf8Text(fi.Source)
					if name == module {
						continue // the module_name child itself
					}
					fi.Imports[name] = module + "." + name
				case "aliased_import":
					target, alias := aliasedImport(fi, c)
					if alias != "" {
						fi.Imports[alias] = module + "." + target
					}
				}
			}
			return false
		}
		return true
	})
}

func aliasedImport(fi *FileIndex, n *tree_sitter.Node) (target, alias string) {
	if name := n.ChildByFieldName("name"); name != nil {
		target = name.Utf8Text(fi.Source)
	}
	if a := n.ChildByFieldName("alias"); a != nil {
		alias = a.Utf8Text(fi.Source)
	}
	return target, alias
}

func jsImports(fi *FileIndex, root *tree_sitter.Node) {
	Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() != "import_statement" {
			return true
		}
		srcNode := n.ChildByFieldName("source")
		if srcNode == nil {
			return false
		}
		target := strings.Trim(srcNode.Utf8Text(fi.Source), `"'`)
		Walk(n, func(c *tree_sitter.Node) bool {
			switch c.Kind() {
			case "import_specifier":
				name := ""
				if nn := c.ChildByFieldName("name"); nn != nil {
					name = nn.Utf8Text(fi.Source)
				}
				local := name
				if a := c.ChildByFieldName("alias"); a != nil {
					local = a.Utf8Text(fi.Source)
				}
				if local != "" {
					fi.Imports[local] = target + "." + name
				}
				return false
			case "namespace_import":
				for i := uint(0); i < c.NamedChildCount(); i++ {
					if id := c.NamedChild(i); id.Kind() == "identifier" {
						fi.Imports[id.Utf8Text(fi.Source)] = target
					}
				}
				return false
			case "import_clause":
				// a bare identifier child is the default import
				for i := uint(0); i < c.NamedChildCount(); i++ {
					if id := c.NamedChild(i); id.Kind() == "identifier" {
						fi.Imports[id.Utf8Text(fi.Source)] = target + ".default"
					}
				}
				return true
			}
			return true
		})
		return false
	})
}
