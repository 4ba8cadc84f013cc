package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore implements Store as a relational snapshot of the graph.
type SQLiteStore struct {
	db *sql.DB
}

// Compile-time check that SQLiteStore satisfies Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the SQLite database at path. Use
// ":memory:" for a throwaway database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create parent directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes
	// writes.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var sqliteDDL = []string{
	`CREATE TABLE IF NOT EXISTS nodes (
		name          TEXT PRIMARY KEY,
		node_type     TEXT NOT NULL DEFAULT '',
		parent_object TEXT,
		file          TEXT,
		source        TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS edges (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		src       TEXT NOT NULL,
		dst       TEXT NOT NULL,
		edge_type TEXT NOT NULL,
		file      TEXT,
		UNIQUE (src, dst, edge_type)
	)`,
	`CREATE INDEX IF NOT EXISTS edges_dst ON edges (dst, edge_type)`,
}

// InitSchema creates the nodes and edges tables if they do not exist.
func (s *SQLiteStore) InitSchema(ctx context.Context) error {
	for _, stmt := range sqliteDDL {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: init schema: %w", err)
		}
	}
	return nil
}

// nullableProp returns a NULL for absent keys so that upserts leave the
// stored value untouched.
func nullableProp(props map[string]any, key string) sql.NullString {
	if _, ok := props[key]; !ok {
		return sql.NullString{}
	}
	return sql.NullString{String: propString(props, key), Valid: true}
}

// UpsertNode inserts a node or merges it into the existing row.
func (s *SQLiteStore) UpsertNode(ctx context.Context, name string, typ NodeType, props map[string]any) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO nodes (name, node_type, parent_object, file, source)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			node_type     = CASE WHEN nodes.node_type = '' THEN excluded.node_type ELSE nodes.node_type END,
			parent_object = COALESCE(excluded.parent_object, nodes.parent_object),
			file          = COALESCE(excluded.file, nodes.file),
			source        = COALESCE(excluded.source, nodes.source)`,
		name, string(typ),
		nullableProp(props, "parent_object"),
		nullableProp(props, "file"),
		nullableProp(props, "source"),
	)
	if err != nil {
		return fmt.Errorf("sqlite: upsert node %s: %w", name, err)
	}
	return nil
}

// UpsertEdge inserts an edge or updates its properties, creating missing
// endpoints as placeholders.
func (s *SQLiteStore) UpsertEdge(ctx context.Context, from, to string, typ EdgeType, props map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	for _, name := range []string{from, to} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO nodes (name, node_type) VALUES (?, '') ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("sqlite: placeholder %s: %w", name, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO edges (src, dst, edge_type, file) VALUES (?, ?, ?, ?)
		ON CONFLICT (src, dst, edge_type) DO UPDATE SET file = excluded.file`,
		from, to, string(typ), propString(props, "file")); err != nil {
		return fmt.Errorf("sqlite: upsert edge %s->%s: %w", from, to, err)
	}
	return tx.Commit()
}

const nodeColumns = `name, node_type, COALESCE(parent_object, ''), COALESCE(file, ''), COALESCE(source, '')`

func scanNode(row interface{ Scan(...any) error }) (*Node, error) {
	var n Node
	var typ string
	if err := row.Scan(&n.Name, &typ, &n.ParentObject, &n.File, &n.Source); err != nil {
		return nil, err
	}
	n.Type = NodeType(typ)
	return &n, nil
}

// GetNode returns the named node, or nil if not found.
func (s *SQLiteStore) GetNode(ctx context.Context, name string) (*Node, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+nodeColumns+` FROM nodes WHERE name = ?`, name)
	n, err := scanNode(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get node %s: %w", name, err)
	}
	return n, nil
}

// QueryNodes returns nodes whose name contains query (case-insensitive),
// optionally filtered by type, sorted by name.
func (s *SQLiteStore) QueryNodes(ctx context.Context, query string, typ NodeType, limit int) ([]Node, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+nodeColumns+` FROM nodes
		WHERE (? = '' OR instr(lower(name), lower(?)) > 0) AND (? = '' OR node_type = ?)
		ORDER BY name LIMIT ?`,
		query, query, string(typ), string(typ), limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query nodes: %w", err)
	}
	defer rows.Close()

	var out []Node
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan node: %w", err)
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// GetEdges returns all edges in insertion order.
func (s *SQLiteStore) GetEdges(ctx context.Context) ([]Edge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT src, dst, edge_type, COALESCE(file, '') FROM edges ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: get edges: %w", err)
	}
	defer rows.Close()

	var out []Edge
	for rows.Next() {
		var e Edge
		var typ string
		if err := rows.Scan(&e.From, &e.To, &typ, &e.File); err != nil {
			return nil, fmt.Errorf("sqlite: scan edge: %w", err)
		}
		e.Type = EdgeType(typ)
		out = append(out, e)
	}
	return out, rows.Err()
}

// GetNeighbors performs a BFS from name along edges of edgeType (any type
// when empty), up to maxDepth hops.
func (s *SQLiteStore) GetNeighbors(ctx context.Context, name string, direction Direction, edgeType EdgeType, maxDepth int) ([]DependencyChain, error) {
	var q string
	switch direction {
	case DirectionDownstream:
		q = `SELECT dst FROM edges WHERE src = ? AND (? = '' OR edge_type = ?) ORDER BY id`
	case DirectionUpstream:
		q = `SELECT src FROM edges WHERE dst = ? AND (? = '' OR edge_type = ?) ORDER BY id`
	default:
		return nil, fmt.Errorf("sqlite: unknown direction: %s", direction)
	}

	return bfsChains(name, maxDepth, func(id string) ([]string, error) {
		rows, err := s.db.QueryContext(ctx, q, id, string(edgeType), string(edgeType))
		if err != nil {
			return nil, fmt.Errorf("sqlite: neighbors of %s: %w", id, err)
		}
		defer rows.Close()
		var out []string
		for rows.Next() {
			var nb string
			if err := rows.Scan(&nb); err != nil {
				return nil, err
			}
			out = append(out, nb)
		}
		return out, rows.Err()
	})
}

// Stats returns counts of nodes and edges by type.
func (s *SQLiteStore) Stats(ctx context.Context) (*GraphStats, error) {
	st := &GraphStats{
		NodesByType: make(map[NodeType]int),
		EdgesByType: make(map[EdgeType]int),
	}

	counts := func(q string, fn func(typ string, n int)) error {
		rows, err := s.db.QueryContext(ctx, q)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var typ string
			var n int
			if err := rows.Scan(&typ, &n); err != nil {
				return err
			}
			fn(typ, n)
		}
		return rows.Err()
	}

	err := counts(`SELECT node_type, COUNT(*) FROM nodes GROUP BY node_type`, func(typ string, n int) {
		st.NodeCount += n
		if typ == "" {
			st.Placeholders += n
			return
		}
		st.NodesByType[NodeType(typ)] = n
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: node stats: %w", err)
	}
	err = counts(`SELECT edge_type, COUNT(*) FROM edges GROUP BY edge_type`, func(typ string, n int) {
		st.EdgeCount += n
		st.EdgesByType[EdgeType(typ)] = n
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: edge stats: %w", err)
	}
	return st, nil
}
