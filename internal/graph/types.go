package graph

import "fmt"

// SymbolID identifies a symbol within one analysis run. IDs are dense,
// assigned in deterministic order (file path ascending, start byte
// ascending) when the graph is assembled, and stable for the lifetime
// of the run.
type SymbolID int32

// SymbolKind classifies an indexed declaration.
type SymbolKind string

const (
	KindFunction  SymbolKind = "function"
	KindMethod    SymbolKind = "method"
	KindType      SymbolKind = "type"
	KindConstant  SymbolKind = "constant"
	KindTraitImpl SymbolKind = "trait_impl"
	KindModule    SymbolKind = "module"
)

// Symbol represents an indexed, span-addressable declaration.
type Symbol struct {
	ID            SymbolID   `json:"id"`
	Name          string     `json:"name"`
	QualifiedName string     `json:"qualified_name"`
	Kind          SymbolKind `json:"kind"`
	FilePath      string     `json:"file_path"`
	StartByte     int        `json:"start_byte"`
	EndByte       int        `json:"end_byte"`
	StartLine     int        `json:"start_line"`
	EndLine       int        `json:"end_line"`
	Fingerprint   string     `json:"fingerprint"`
	Exported      bool       `json:"exported"`
	Language      string     `json:"language"`

	// TestKind is non-empty when the symbol is a test entry point,
	// naming the convention that matched (e.g. "go-test", "pytest").
	TestKind string `json:"test_kind,omitempty"`
}

// IsTest reports whether the symbol is classified as a test entry point.
func (s *Symbol) IsTest() bool { return s.TestKind != "" }

// ContainsLine reports whether the given 1-indexed line falls inside the
// symbol's line span.
func (s *Symbol) ContainsLine(line int) bool {
	return line >= s.StartLine && line <= s.EndLine
}

// LineSpanLen is the number of lines the symbol covers. Used to pick the
// innermost of several enclosing symbols.
func (s *Symbol) LineSpanLen() int { return s.EndLine - s.StartLine + 1 }

// EdgeKind classifies a dependency between two symbols.
type EdgeKind string

const (
	EdgeCall         EdgeKind = "call"
	EdgeTypeUse      EdgeKind = "type_use"
	EdgeTraitImplUse EdgeKind = "trait_impl_use"
	EdgeReference    EdgeKind = "reference"
)

// Edge is a directed dependency: From refers to To. Multiple edges between
// the same pair are permitted; deduplication happens only when the
// propagator emits its closure.
type Edge struct {
	From SymbolID `json:"from"`
	To   SymbolID `json:"to"`
	Kind EdgeKind `json:"kind"`
}

func (e Edge) String() string {
	return fmt.Sprintf("%d-%s->%d", e.From, e.Kind, e.To)
}
