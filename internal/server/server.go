// Package server exposes the impact analyzer over MCP: indexing tools,
// graph browsing, and diff-driven test selection.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"impactmap/internal/analyzer"
	"impactmap/internal/config"
	"impactmap/internal/store"
	"impactmap/internal/workspace"
)

type IndexStatus string

const (
	IndexStatusIdle       IndexStatus = "idle"
	IndexStatusInProgress IndexStatus = "in_progress"
	IndexStatusReady      IndexStatus = "ready"
	IndexStatusFailed     IndexStatus = "failed"
)

const defaultSystemPrompt = `# Impactmap MCP Server

Impactmap indexes a workspace into a symbol graph and selects the tests
affected by a change.

## Workflow

1. Call ` + "`index`" + ` to scan the workspace (also runs automatically at startup).
2. Call ` + "`select_tests`" + ` with a unified diff to get the ordered list of
   affected tests, plus diagnostics for changes that mapped to no symbol.
3. Use ` + "`find_impact`" + `, ` + "`get_symbol`" + ` and ` + "`get_symbols_in_file`" + ` to browse
   the indexed graph.

## Notes

- ` + "`select_tests`" + ` always re-reads the working tree; the stored graph only
  serves the browsing tools.
- Test selection over-approximates: every test that could reach a changed
  symbol is selected, so an empty result means the change is provably
  outside all indexed test paths.
`

// Server wires the analysis pipeline and the graph store into an MCP
// server.
type Server struct {
	mcpServer    *mcp.Server
	root         string
	cfg          *config.Config
	store        *store.Store
	systemPrompt string

	indexMu       sync.RWMutex
	indexStatus   IndexStatus
	indexErr      error
	indexDuration time.Duration
	indexReady    chan struct{}
}

// New creates the server for a workspace root. The store may be backed
// by a file or ":memory:".
func New(root string, cfg *config.Config, st *store.Store) *Server {
	s := &Server{
		root:         root,
		cfg:          cfg,
		store:        st,
		systemPrompt: defaultSystemPrompt,
		indexStatus:  IndexStatusIdle,
		indexReady:   make(chan struct{}),
	}
	s.mcpServer = mcp.NewServer(&mcp.Implementation{
		Name:    "impactmap",
		Version: "0.1.0",
	}, nil)
	s.registerTools()
	s.registerResources()
	return s
}

// Run starts an initial index in the background and serves MCP over
// stdio until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		if err := s.buildIndex(ctx); err != nil {
			slog.Warn("initial index failed", "error", err)
		}
	}()
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// buildIndex scans the workspace, builds the graph and persists it,
// tracking status for the index tools.
func (s *Server) buildIndex(ctx context.Context) error {
	s.setIndexStatus(IndexStatusInProgress, nil, 0)
	start := time.Now()

	err := func() error {
		files, err := workspace.Load(s.root, s.cfg)
		if err != nil {
			return fmt.Errorf("scan workspace: %w", err)
		}
		g, indexErrs, err := analyzer.BuildGraph(ctx, files, s.cfg.MarkerRules())
		if err != nil {
			return err
		}
		for _, ie := range indexErrs {
			slog.Warn("file skipped", "file", ie.File, "reason", ie.Reason)
		}
		if err := s.store.SaveGraph(g); err != nil {
			return fmt.Errorf("persist graph: %w", err)
		}
		return nil
	}()

	if err != nil {
		s.setIndexStatus(IndexStatusFailed, err, time.Since(start))
		return err
	}
	s.setIndexStatus(IndexStatusReady, nil, time.Since(start))
	return nil
}

func (s *Server) setIndexStatus(status IndexStatus, err error, d time.Duration) {
	s.indexMu.Lock()
	defer s.indexMu.Unlock()
	s.indexStatus = status
	s.indexErr = err
	s.indexDuration = d
	if status == IndexStatusReady || status == IndexStatusFailed {
		select {
		case <-s.indexReady:
		default:
			close(s.indexReady)
		}
	}
}

// GetIndexStatus returns the current status, the failure if any, and
// the duration of the last completed run.
func (s *Server) GetIndexStatus() (IndexStatus, error, time.Duration) {
	s.indexMu.RLock()
	defer s.indexMu.RUnlock()
	return s.indexStatus, s.indexErr, s.indexDuration
}

// WaitForIndex blocks until the first index attempt finishes or ctx
// expires.
func (s *Server) WaitForIndex(ctx context.Context) error {
	s.indexMu.RLock()
	ready := s.indexReady
	s.indexMu.RUnlock()
	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func textResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
	}
}

func errorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}
