//go:build cgo

package graph

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	kuzu "github.com/kuzudb/go-kuzu"
)

// KuzuStore implements the Store interface using KuzuDB as the graph backend.
// It requires CGO because the go-kuzu driver wraps KuzuDB's C library.
type KuzuStore struct {
	db   *kuzu.Database
	conn *kuzu.Connection
}

// Compile-time check that KuzuStore satisfies Store.
var _ Store = (*KuzuStore)(nil)

// NewKuzuStore creates a KuzuStore backed by an in-memory KuzuDB instance.
func NewKuzuStore() (*KuzuStore, error) {
	return openKuzu(":memory:")
}

// NewKuzuFileStore creates a KuzuStore backed by a file-based KuzuDB at the
// given path. KuzuDB creates the leaf itself for new databases.
func NewKuzuFileStore(dbPath string) (*KuzuStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("kuzu: create parent directory: %w", err)
	}
	return openKuzu(dbPath)
}

func openKuzu(path string) (*KuzuStore, error) {
	cfg := kuzu.DefaultSystemConfig()
	db, err := kuzu.OpenDatabase(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("kuzu: open database: %w", err)
	}
	conn, err := kuzu.OpenConnection(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("kuzu: open connection: %w", err)
	}
	return &KuzuStore{db: db, conn: conn}, nil
}

// Close releases the KuzuDB connection and database.
func (s *KuzuStore) Close() error {
	if s.conn != nil {
		s.conn.Close()
	}
	if s.db != nil {
		s.db.Close()
	}
	return nil
}

// ---------- Schema setup ----------

// relTables maps each edge type to its relationship table.
var relTables = map[EdgeType]string{
	EdgeTypeBelongsToClass: "BELONGS_TO_CLASS",
	EdgeTypeInheritance:    "INHERITANCE",
	EdgeTypeFunctionArg:    "FUNCTION_ARG",
}

// ddlStatements defines the Cypher DDL executed by InitSchema.
// Order matters: node tables must precede relationship tables.
var ddlStatements = []string{
	`CREATE NODE TABLE IF NOT EXISTS CodeNode(
		name STRING,
		node_type STRING,
		parent_object STRING,
		file STRING,
		source STRING,
		PRIMARY KEY(name)
	)`,
	`CREATE REL TABLE IF NOT EXISTS BELONGS_TO_CLASS(FROM CodeNode TO CodeNode, file STRING)`,
	`CREATE REL TABLE IF NOT EXISTS INHERITANCE(FROM CodeNode TO CodeNode, file STRING)`,
	`CREATE REL TABLE IF NOT EXISTS FUNCTION_ARG(FROM CodeNode TO CodeNode, file STRING)`,
}

// nodeProps are the node properties stored as columns.
var nodeProps = []string{"file", "parent_object", "source"}

// InitSchema creates all node and relationship tables if they do not exist.
func (s *KuzuStore) InitSchema(_ context.Context) error {
	for _, stmt := range ddlStatements {
		res, err := s.conn.Query(stmt)
		if err != nil {
			return fmt.Errorf("kuzu: init schema: %w", err)
		}
		res.Close()
	}
	return nil
}

// ---------- Write operations ----------

// UpsertNode merges a CodeNode by name. The type is only written when the
// node is new or still a placeholder; only the properties present in props
// are written.
func (s *KuzuStore) UpsertNode(_ context.Context, name string, typ NodeType, props map[string]any) error {
	params := map[string]any{"name": name, "node_type": string(typ)}
	sets := []string{}
	for _, key := range nodeProps {
		if _, ok := props[key]; !ok {
			continue
		}
		params[key] = propString(props, key)
		sets = append(sets, fmt.Sprintf("n.%s = $%s", key, key))
	}

	onCreate := append([]string{"n.node_type = $node_type"}, sets...)
	onMatch := append([]string{"n.node_type = CASE WHEN n.node_type IS NULL OR n.node_type = '' THEN $node_type ELSE n.node_type END"}, sets...)
	cypher := fmt.Sprintf(
		"MERGE (n:CodeNode {name: $name}) ON CREATE SET %s ON MATCH SET %s",
		strings.Join(onCreate, ", "),
		strings.Join(onMatch, ", "),
	)
	return s.exec(cypher, params)
}

// UpsertEdge merges a relationship in the table for typ, creating missing
// endpoints as placeholders.
func (s *KuzuStore) UpsertEdge(_ context.Context, from, to string, typ EdgeType, props map[string]any) error {
	table, ok := relTables[typ]
	if !ok {
		return fmt.Errorf("kuzu: unsupported edge type: %s", typ)
	}
	// Table name comes from relTables, not user input.
	cypher := fmt.Sprintf(`MERGE (a:CodeNode {name: $src}) ON CREATE SET a.node_type = ''
		MERGE (b:CodeNode {name: $dst}) ON CREATE SET b.node_type = ''
		MERGE (a)-[r:%s]->(b) ON CREATE SET r.file = $file ON MATCH SET r.file = $file`, table)
	return s.exec(cypher, map[string]any{
		"src":  from,
		"dst":  to,
		"file": propString(props, "file"),
	})
}

// ---------- Read operations ----------

// GetNode retrieves a single node by name, or returns nil if not found.
func (s *KuzuStore) GetNode(_ context.Context, name string) (*Node, error) {
	rows, err := s.query(
		`MATCH (n:CodeNode {name: $name})
		 RETURN n.name, n.node_type, n.parent_object, n.file, n.source`,
		map[string]any{"name": name},
	)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rowToNode(rows[0]), nil
}

// QueryNodes returns nodes whose name contains the query string, ignoring
// case, optionally restricted to one type.
func (s *KuzuStore) QueryNodes(_ context.Context, queryStr string, typ NodeType, limit int) ([]Node, error) {
	if limit <= 0 {
		limit = 100000
	}
	conds := []string{"true"}
	params := map[string]any{"lim": int64(limit)}
	if queryStr != "" {
		conds = append(conds, "lower(n.name) CONTAINS lower($q)")
		params["q"] = queryStr
	}
	if typ != "" {
		conds = append(conds, "n.node_type = $node_type")
		params["node_type"] = string(typ)
	}
	rows, err := s.query(
		`MATCH (n:CodeNode) WHERE `+strings.Join(conds, " AND ")+`
		 RETURN n.name, n.node_type, n.parent_object, n.file, n.source
		 ORDER BY n.name LIMIT $lim`,
		params,
	)
	if err != nil {
		return nil, err
	}
	out := make([]Node, 0, len(rows))
	for _, r := range rows {
		out = append(out, *rowToNode(r))
	}
	return out, nil
}

// GetEdges returns all edges across all relationship tables.
func (s *KuzuStore) GetEdges(_ context.Context) ([]Edge, error) {
	var edges []Edge
	for _, typ := range EdgeTypes {
		cypher := fmt.Sprintf("MATCH (a:CodeNode)-[r:%s]->(b:CodeNode) RETURN a.name, b.name, r.file", relTables[typ])
		rows, err := s.query(cypher, nil)
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			edges = append(edges, Edge{
				From: toString(r[0]),
				To:   toString(r[1]),
				Type: typ,
				File: toString(r[2]),
			})
		}
	}
	return edges, nil
}

// ---------- Graph traversal ----------

// GetNeighbors performs a BFS from name along edges of edgeType (all types
// when empty) and returns one DependencyChain per reachable node.
func (s *KuzuStore) GetNeighbors(_ context.Context, name string, dir Direction, edgeType EdgeType, maxDepth int) ([]DependencyChain, error) {
	tables, err := tablesFor(edgeType)
	if err != nil {
		return nil, err
	}
	return bfsChains(name, maxDepth, func(id string) ([]string, error) {
		return s.neighbors(id, dir, tables)
	})
}

// neighbors returns immediate neighbors of name across the given tables.
func (s *KuzuStore) neighbors(name string, dir Direction, tables []string) ([]string, error) {
	var out []string
	for _, t := range tables {
		var cypher string
		switch dir {
		case DirectionDownstream:
			cypher = fmt.Sprintf("MATCH (a:CodeNode {name: $name})-[:%s]->(b:CodeNode) RETURN b.name", t)
		case DirectionUpstream:
			cypher = fmt.Sprintf("MATCH (a:CodeNode)-[:%s]->(b:CodeNode {name: $name}) RETURN a.name", t)
		default:
			return nil, fmt.Errorf("kuzu: unknown direction: %s", dir)
		}
		rows, err := s.query(cypher, map[string]any{"name": name})
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			out = append(out, toString(r[0]))
		}
	}
	sort.Strings(out)
	return out, nil
}

func tablesFor(edgeType EdgeType) ([]string, error) {
	if edgeType == "" {
		tables := make([]string, 0, len(EdgeTypes))
		for _, t := range EdgeTypes {
			tables = append(tables, relTables[t])
		}
		return tables, nil
	}
	t, ok := relTables[edgeType]
	if !ok {
		return nil, fmt.Errorf("kuzu: unsupported edge type: %s", edgeType)
	}
	return []string{t}, nil
}

// ---------- Stats ----------

// Stats returns counts of nodes and edges by type.
func (s *KuzuStore) Stats(_ context.Context) (*GraphStats, error) {
	st := &GraphStats{
		NodesByType: make(map[NodeType]int),
		EdgesByType: make(map[EdgeType]int),
	}
	rows, err := s.query("MATCH (n:CodeNode) RETURN n.node_type, count(n)", nil)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		typ, count := NodeType(toString(r[0])), toInt(r[1])
		st.NodeCount += count
		if typ == "" {
			st.Placeholders += count
			continue
		}
		st.NodesByType[typ] += count
	}
	for _, typ := range EdgeTypes {
		cypher := fmt.Sprintf("MATCH ()-[r:%s]->() RETURN count(r)", relTables[typ])
		rows, err := s.query(cypher, nil)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 && len(rows[0]) > 0 {
			n := toInt(rows[0][0])
			st.EdgeCount += n
			if n > 0 {
				st.EdgesByType[typ] = n
			}
		}
	}
	return st, nil
}

// ---------- Internal helpers ----------

// exec runs a parameterized Cypher statement that produces no result rows.
func (s *KuzuStore) exec(cypher string, params map[string]any) error {
	stmt, err := s.conn.Prepare(cypher)
	if err != nil {
		return fmt.Errorf("kuzu: prepare: %w", err)
	}
	defer stmt.Close()

	res, err := s.conn.Execute(stmt, params)
	if err != nil {
		return fmt.Errorf("kuzu: execute: %w", err)
	}
	res.Close()
	return nil
}

// query runs a parameterized Cypher statement and collects all result rows.
// Each row is a []any slice with values in column order.
func (s *KuzuStore) query(cypher string, params map[string]any) ([][]any, error) {
	var res *kuzu.QueryResult
	var err error

	if len(params) == 0 {
		res, err = s.conn.Query(cypher)
	} else {
		var stmt *kuzu.PreparedStatement
		stmt, err = s.conn.Prepare(cypher)
		if err != nil {
			return nil, fmt.Errorf("kuzu: prepare: %w", err)
		}
		defer stmt.Close()
		res, err = s.conn.Execute(stmt, params)
	}
	if err != nil {
		return nil, fmt.Errorf("kuzu: query: %w", err)
	}
	defer res.Close()

	var rows [][]any
	for res.HasNext() {
		tuple, err := res.Next()
		if err != nil {
			return nil, fmt.Errorf("kuzu: next: %w", err)
		}
		vals, err := tuple.GetAsSlice()
		if err != nil {
			return nil, fmt.Errorf("kuzu: row values: %w", err)
		}
		rows = append(rows, vals)
	}
	return rows, nil
}

// rowToNode converts a 5-column result row into a Node.
// Column order: name, type, parent_object, file, source.
func rowToNode(r []any) *Node {
	return &Node{
		Name:         toString(r[0]),
		Type:         NodeType(toString(r[1])),
		ParentObject: toString(r[2]),
		File:         toString(r[3]),
		Source:       toString(r[4]),
	}
}

// ---------- Type coercion helpers ----------
// KuzuDB returns typed Go values (int64, float64, bool, string) and nil for
// unset properties.

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case int32:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}
