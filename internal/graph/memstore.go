package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu    sync.RWMutex
	nodes map[string]Node
	edges []Edge
	seen  map[edgeKey]int // index into edges
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		nodes: make(map[string]Node),
		seen:  make(map[edgeKey]int),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// UpsertNode creates or merges a node keyed by name.
func (m *MemStore) UpsertNode(_ context.Context, name string, typ NodeType, props map[string]any) error {
	if name == "" {
		return fmt.Errorf("memstore: empty node name")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[name]
	if !ok {
		n = Node{Name: name}
	}
	if n.Type == "" {
		n.Type = typ
	}
	if v, ok := props["file"]; ok {
		n.File, _ = v.(string)
	}
	if v, ok := props["source"]; ok {
		n.Source, _ = v.(string)
	}
	if v, ok := props["parent_object"]; ok {
		n.ParentObject, _ = v.(string)
	}
	m.nodes[name] = n
	return nil
}

// UpsertEdge creates or merges an edge keyed by (from, to, type). Missing
// endpoints are created as placeholders.
func (m *MemStore) UpsertEdge(_ context.Context, from, to string, typ EdgeType, props map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := Edge{From: from, To: to, Type: typ, File: propString(props, "file")}
	if i, ok := m.seen[e.key()]; ok {
		m.edges[i].File = e.File
		return nil
	}
	for _, name := range []string{from, to} {
		if _, ok := m.nodes[name]; !ok {
			m.nodes[name] = Node{Name: name}
		}
	}
	m.seen[e.key()] = len(m.edges)
	m.edges = append(m.edges, e)
	return nil
}

// GetNode returns the named node, or nil if not found.
func (m *MemStore) GetNode(_ context.Context, name string) (*Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[name]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

// QueryNodes returns nodes whose name contains query (case-insensitive),
// optionally filtered by type, sorted by name. A limit <= 0 returns all
// matches.
func (m *MemStore) QueryNodes(_ context.Context, query string, typ NodeType, limit int) ([]Node, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lowerQuery := strings.ToLower(query)
	var results []Node
	for _, n := range m.nodes {
		if typ != "" && n.Type != typ {
			continue
		}
		if strings.Contains(strings.ToLower(n.Name), lowerQuery) {
			results = append(results, n)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// GetEdges returns a copy of all edges in insertion order.
func (m *MemStore) GetEdges(_ context.Context) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Edge, len(m.edges))
	copy(out, m.edges)
	return out, nil
}

// GetNeighbors performs a BFS from name along edges of edgeType (any type
// when empty), up to maxDepth hops.
func (m *MemStore) GetNeighbors(_ context.Context, name string, direction Direction, edgeType EdgeType, maxDepth int) ([]DependencyChain, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return bfsChains(name, maxDepth, func(id string) ([]string, error) {
		return m.neighbors(id, direction, edgeType), nil
	})
}

// neighbors returns names reachable from id in one hop.
func (m *MemStore) neighbors(id string, direction Direction, edgeType EdgeType) []string {
	var result []string
	for _, e := range m.edges {
		if edgeType != "" && e.Type != edgeType {
			continue
		}
		switch direction {
		case DirectionDownstream:
			if e.From == id {
				result = append(result, e.To)
			}
		case DirectionUpstream:
			if e.To == id {
				result = append(result, e.From)
			}
		}
	}
	return result
}

// Stats returns counts of nodes and edges by type.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := &GraphStats{
		NodeCount:   len(m.nodes),
		EdgeCount:   len(m.edges),
		NodesByType: make(map[NodeType]int),
		EdgesByType: make(map[EdgeType]int),
	}
	for _, n := range m.nodes {
		if n.Placeholder() {
			st.Placeholders++
			continue
		}
		st.NodesByType[n.Type]++
	}
	for _, e := range m.edges {
		st.EdgesByType[e.Type]++
	}
	return st, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}
