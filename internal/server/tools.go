package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"impactmap/internal/analyzer"
	"impactmap/internal/gitdiff"
	"impactmap/internal/graph"
	"impactmap/internal/workspace"
	"impactmap/util"
)

// Arguments structs

type IndexArgs struct {
	Force bool `json:"force" jsonschema:"description:Force a full re-index even if one already succeeded"`
}

type IndexStatusArgs struct{}

type SelectTestsArgs struct {
	Diff string `json:"diff" jsonschema:"required,description:Unified diff of the change, as produced by git diff"`
}

type FindImpactArgs struct {
	QualifiedName string `json:"qualified_name" jsonschema:"required,description:Qualified name of the symbol to analyze for impact"`
}

type GetSymbolsInFileArgs struct {
	FilePath string `json:"file_path" jsonschema:"required,description:Workspace-relative path of the file"`
}

type GetSymbolArgs struct {
	QualifiedName string `json:"qualified_name" jsonschema:"required,description:Qualified name of the symbol to locate"`
	WithSource    bool   `json:"with_source" jsonschema:"description:If true, includes the source code of the symbol in the response"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "index",
		Description: "Scans the workspace and rebuilds the symbol graph",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IndexArgs) (*mcp.CallToolResult, any, error) {
		status, _, _ := s.GetIndexStatus()
		if status == IndexStatusInProgress {
			return errorResult("Indexing already in progress"), nil, nil
		}
		if status == IndexStatusReady && !args.Force {
			return textResult("Index is already up; pass force to rebuild"), nil, nil
		}

		s.indexMu.Lock()
		s.indexReady = make(chan struct{})
		s.indexMu.Unlock()

		if err := s.buildIndex(ctx); err != nil {
			return errorResult(fmt.Sprintf("Index failed: %v", err)), nil, nil
		}
		symbols, edges, err := s.store.Stats()
		if err != nil {
			return errorResult(fmt.Sprintf("Index stored but stats failed: %v", err)), nil, nil
		}
		_, _, duration := s.GetIndexStatus()
		return textResult(fmt.Sprintf("Indexed %d symbols and %d edges in %.2fs",
			symbols, edges, duration.Seconds())), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "index_status",
		Description: "Returns the current indexing status of the workspace",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args IndexStatusArgs) (*mcp.CallToolResult, any, error) {
		status, err, duration := s.GetIndexStatus()

		result := map[string]any{
			"status": string(status),
		}
		if duration > 0 {
			result["duration_seconds"] = duration.Seconds()
		}
		if err != nil {
			result["error"] = err.Error()
		}

		jsonBytes, _ := json.MarshalIndent(result, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "select_tests",
		Description: "Selects the tests affected by a unified diff against the current working tree",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args SelectTestsArgs) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(args.Diff) == "" {
			return errorResult("Empty diff"), nil, nil
		}
		hunks, err := gitdiff.Parse(args.Diff)
		if err != nil {
			return errorResult(fmt.Sprintf("Diff parse failed: %v", err)), nil, nil
		}

		// Always analyze the tree as it is now, not the stored graph.
		files, err := workspace.Load(s.root, s.cfg)
		if err != nil {
			return errorResult(fmt.Sprintf("Workspace scan failed: %v", err)), nil, nil
		}
		report, err := analyzer.Analyze(ctx, files, hunks, s.cfg.MarkerRules())
		if err != nil {
			return errorResult(fmt.Sprintf("Analysis failed: %v", err)), nil, nil
		}

		jsonBytes, _ := json.MarshalIndent(report, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_impact",
		Description: "Finds every symbol that transitively depends on a symbol",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FindImpactArgs) (*mcp.CallToolResult, any, error) {
		if res := s.guardIndexed(ctx); res != nil {
			return res, nil, nil
		}

		matches, err := s.store.SymbolsByQualifiedName(args.QualifiedName)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		if len(matches) == 0 {
			return textResult("Symbol not found."), nil, nil
		}

		type ImpactSymbol struct {
			QualifiedName string `json:"qualified_name"`
			FilePath      string `json:"file_path"`
			Kind          string `json:"kind"`
		}
		var impacted []ImpactSymbol
		seen := make(map[graph.SymbolID]bool)
		for _, m := range matches {
			deps, err := s.store.FindImpact(m.ID)
			if err != nil {
				return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
			}
			for _, d := range deps {
				if seen[d.ID] {
					continue
				}
				seen[d.ID] = true
				impacted = append(impacted, ImpactSymbol{
					QualifiedName: d.QualifiedName,
					FilePath:      d.FilePath,
					Kind:          string(d.Kind),
				})
			}
		}
		if len(impacted) == 0 {
			return textResult("No impacted symbols found."), nil, nil
		}

		jsonBytes, _ := json.MarshalIndent(impacted, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_symbols_in_file",
		Description: "Returns the indexed structure of a file",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetSymbolsInFileArgs) (*mcp.CallToolResult, any, error) {
		if res := s.guardIndexed(ctx); res != nil {
			return res, nil, nil
		}

		syms, err := s.store.SymbolsInFile(args.FilePath)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}

		type SimpleSymbol struct {
			Name     string `json:"name"`
			Kind     string `json:"kind"`
			Range    string `json:"range"`
			Exported bool   `json:"exported"`
			TestKind string `json:"test_kind,omitempty"`
		}
		var simple []SimpleSymbol
		for _, sym := range syms {
			simple = append(simple, SimpleSymbol{
				Name:     sym.Name,
				Kind:     string(sym.Kind),
				Range:    fmt.Sprintf("%d-%d", sym.StartLine, sym.EndLine),
				Exported: sym.Exported,
				TestKind: sym.TestKind,
			})
		}

		jsonBytes, _ := json.MarshalIndent(simple, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_symbol",
		Description: "Finds the location and optionally the source code of a symbol",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args GetSymbolArgs) (*mcp.CallToolResult, any, error) {
		if res := s.guardIndexed(ctx); res != nil {
			return res, nil, nil
		}

		matches, err := s.store.SymbolsByQualifiedName(args.QualifiedName)
		if err != nil {
			return errorResult(fmt.Sprintf("Query failed: %v", err)), nil, nil
		}
		if len(matches) == 0 {
			return textResult("Symbol not found."), nil, nil
		}

		type SymbolInfo struct {
			graph.Symbol
			URI    string `json:"uri"`
			Source string `json:"source,omitempty"`
		}
		var info []SymbolInfo
		for _, m := range matches {
			si := SymbolInfo{
				Symbol: m,
				URI:    util.PathToURI(filepath.Join(s.root, m.FilePath)),
			}
			if args.WithSource {
				source, err := s.readSource(m.FilePath, m.StartLine, m.EndLine)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Warning: Failed to read source for %s in %s: %v\n", m.Name, m.FilePath, err)
				} else {
					si.Source = source
				}
			}
			info = append(info, si)
		}

		jsonBytes, _ := json.MarshalIndent(info, "", "  ")
		return textResult(string(jsonBytes)), nil, nil
	})
}

// guardIndexed waits for the initial index; a non-nil result is the
// error the tool should return as-is.
func (s *Server) guardIndexed(ctx context.Context) *mcp.CallToolResult {
	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := s.WaitForIndex(waitCtx); err != nil {
		status, indexErr, _ := s.GetIndexStatus()
		if indexErr != nil {
			return errorResult(fmt.Sprintf("Indexing failed: %v", indexErr))
		}
		if status == IndexStatusInProgress {
			return errorResult("Indexing in progress, please try again")
		}
		return errorResult(fmt.Sprintf("Indexing wait failed: %v", err))
	}
	if _, indexErr, _ := s.GetIndexStatus(); indexErr != nil {
		return errorResult(fmt.Sprintf("Indexing failed: %v", indexErr))
	}
	return nil
}

func (s *Server) readSource(filePath string, lineStart, lineEnd int) (string, error) {
	f, err := os.Open(filepath.Join(s.root, filePath))
	if err != nil {
		return "", err
	}
	defer f.Close()

	var builder strings.Builder
	scanner := bufio.NewScanner(f)
	currentLine := 1
	first := true
	for scanner.Scan() {
		if currentLine >= lineStart && currentLine <= lineEnd {
			if !first {
				builder.WriteByte('\n')
			}
			builder.Write(scanner.Bytes())
			first = false
		}
		if currentLine > lineEnd {
			break
		}
		currentLine++
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return builder.String(), nil
}
