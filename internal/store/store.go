// Package store persists a built symbol graph in sqlite so server
// queries can run without re-scanning the workspace. It is a serving
// convenience only: select_tests always rebuilds from the working tree,
// the store answers the browsing tools in between.
package store

import (
	"database/sql"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/mattn/go-sqlite3"

	"impactmap/internal/graph"
)

const schema = `
CREATE TABLE IF NOT EXISTS symbols (
	id             INTEGER PRIMARY KEY,
	name           TEXT NOT NULL,
	qualified_name TEXT NOT NULL,
	kind           TEXT NOT NULL,
	file_path      TEXT NOT NULL,
	start_byte     INTEGER NOT NULL,
	end_byte       INTEGER NOT NULL,
	start_line     INTEGER NOT NULL,
	end_line       INTEGER NOT NULL,
	fingerprint    TEXT NOT NULL,
	exported       INTEGER NOT NULL,
	language       TEXT NOT NULL,
	test_kind      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_path);
CREATE INDEX IF NOT EXISTS idx_symbols_qname ON symbols(qualified_name);

CREATE TABLE IF NOT EXISTS edges (
	from_id INTEGER NOT NULL,
	to_id   INTEGER NOT NULL,
	kind    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(to_id);
`

const impactCacheSize = 1024

// Store wraps the sqlite database plus a small LRU in front of the
// recursive impact query.
type Store struct {
	db     *sql.DB
	impact *lru.Cache[graph.SymbolID, []graph.Symbol]
}

// Open opens (or creates) the database at path. ":memory:" works for
// tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	cache, err := lru.New[graph.SymbolID, []graph.Symbol](impactCacheSize)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db, impact: cache}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveGraph replaces the stored graph with g in one transaction and
// drops the impact cache.
func (s *Store) SaveGraph(g *graph.SymbolGraph) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM symbols`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM edges`); err != nil {
		return err
	}

	symStmt, err := tx.Prepare(`INSERT INTO symbols
		(id, name, qualified_name, kind, file_path, start_byte, end_byte,
		 start_line, end_line, fingerprint, exported, language, test_kind)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer symStmt.Close()
	for _, sym := range g.Symbols() {
		if _, err := symStmt.Exec(
			sym.ID, sym.Name, sym.QualifiedName, string(sym.Kind), sym.FilePath,
			sym.StartByte, sym.EndByte, sym.StartLine, sym.EndLine,
			sym.Fingerprint, sym.Exported, sym.Language, sym.TestKind,
		); err != nil {
			return fmt.Errorf("insert symbol %s: %w", sym.QualifiedName, err)
		}
	}

	edgeStmt, err := tx.Prepare(`INSERT INTO edges (from_id, to_id, kind) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer edgeStmt.Close()
	for _, e := range g.Edges() {
		if _, err := edgeStmt.Exec(e.From, e.To, string(e.Kind)); err != nil {
			return fmt.Errorf("insert edge %s: %w", e, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	s.impact.Purge()
	return nil
}

const symbolCols = `id, name, qualified_name, kind, file_path, start_byte,
	end_byte, start_line, end_line, fingerprint, exported, language, test_kind`

func scanSymbol(rows *sql.Rows) (graph.Symbol, error) {
	var sym graph.Symbol
	var kind string
	err := rows.Scan(&sym.ID, &sym.Name, &sym.QualifiedName, &kind,
		&sym.FilePath, &sym.StartByte, &sym.EndByte, &sym.StartLine,
		&sym.EndLine, &sym.Fingerprint, &sym.Exported, &sym.Language,
		&sym.TestKind)
	sym.Kind = graph.SymbolKind(kind)
	return sym, err
}

func (s *Store) querySymbols(query string, args ...any) ([]graph.Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []graph.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

// SymbolsInFile returns the stored symbols of a file in span order.
func (s *Store) SymbolsInFile(path string) ([]graph.Symbol, error) {
	return s.querySymbols(`SELECT `+symbolCols+` FROM symbols
		WHERE file_path = ? ORDER BY start_byte, id`, path)
}

// SymbolsByQualifiedName returns stored symbols with the given
// qualified name. Usually zero or one; shadowed declarations may yield
// more.
func (s *Store) SymbolsByQualifiedName(qn string) ([]graph.Symbol, error) {
	return s.querySymbols(`SELECT `+symbolCols+` FROM symbols
		WHERE qualified_name = ? ORDER BY id`, qn)
}

// FindImpact returns every stored symbol that transitively depends on
// id, excluding id itself, ordered by id. Results are LRU-cached until
// the next SaveGraph.
func (s *Store) FindImpact(id graph.SymbolID) ([]graph.Symbol, error) {
	if cached, ok := s.impact.Get(id); ok {
		return cached, nil
	}
	syms, err := s.querySymbols(`
		WITH RECURSIVE impact(id) AS (
			VALUES(?)
			UNION
			SELECT e.from_id FROM edges e JOIN impact i ON e.to_id = i.id
		)
		SELECT `+symbolCols+` FROM symbols
		WHERE id IN (SELECT id FROM impact) AND id != ?
		ORDER BY id`, id, id)
	if err != nil {
		return nil, err
	}
	s.impact.Add(id, syms)
	return syms, nil
}

// Stats reports the stored graph's size.
func (s *Store) Stats() (symbols, edges int, err error) {
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM symbols`).Scan(&symbols); err != nil {
		return 0, 0, err
	}
	if err = s.db.QueryRow(`SELECT COUNT(*) FROM edges`).Scan(&edges); err != nil {
		return 0, 0, err
	}
	return symbols, edges, nil
}
