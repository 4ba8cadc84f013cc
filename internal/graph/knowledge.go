package graph

import (
	"errors"
	"fmt"
	"sync"
)

// ErrFrozen is returned by write operations on a frozen KnowledgeGraph.
var ErrFrozen = errors.New("knowledge graph is frozen")

// KnowledgeGraph is a directed, typed graph keyed by node name. Nodes and
// edges are kept in insertion order so that sinks see a stable stream.
//
// Node writes are insert-or-update: the type is fixed by the first typed
// write, and every later write overwrites the remaining attributes. Edge
// writes are dedup-on-identity, so re-adding an edge is a no-op.
type KnowledgeGraph struct {
	mu        sync.RWMutex
	nodes     map[string]*Node
	nodeOrder []string
	edges     map[edgeKey]Edge
	edgeOrder []edgeKey
	frozen    bool
}

// NewKnowledgeGraph returns an empty graph.
func NewKnowledgeGraph() *KnowledgeGraph {
	return &KnowledgeGraph{
		nodes: make(map[string]*Node),
		edges: make(map[edgeKey]Edge),
	}
}

// UpsertNode inserts n, or merges it into the existing node of the same name.
// An existing concrete type is never changed.
func (g *KnowledgeGraph) UpsertNode(n Node) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.frozen {
		return ErrFrozen
	}
	if n.Name == "" {
		return fmt.Errorf("upsert node: empty name")
	}

	existing, ok := g.nodes[n.Name]
	if !ok {
		g.insertLocked(n)
		return nil
	}
	if existing.Placeholder() {
		existing.Type = n.Type
	}
	existing.ParentObject = n.ParentObject
	existing.File = n.File
	existing.Source = n.Source
	return nil
}

// EnsureNode creates a node of the given type only when no node with that
// name exists. It reports whether a node was created.
func (g *KnowledgeGraph) EnsureNode(name string, typ NodeType) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.frozen {
		return false, ErrFrozen
	}
	if name == "" {
		return false, fmt.Errorf("ensure node: empty name")
	}
	if _, ok := g.nodes[name]; ok {
		return false, nil
	}
	g.insertLocked(Node{Name: name, Type: typ})
	return true, nil
}

// AddEdge adds e unless an edge with the same (From, To, Type) exists.
// Missing endpoints are created as bare placeholders.
func (g *KnowledgeGraph) AddEdge(e Edge) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.frozen {
		return ErrFrozen
	}
	if e.From == "" || e.To == "" {
		return fmt.Errorf("add edge %q->%q: empty endpoint", e.From, e.To)
	}

	k := e.key()
	if _, ok := g.edges[k]; ok {
		return nil
	}
	for _, name := range []string{e.From, e.To} {
		if _, ok := g.nodes[name]; !ok {
			g.insertLocked(Node{Name: name})
		}
	}
	g.edges[k] = e
	g.edgeOrder = append(g.edgeOrder, k)
	return nil
}

func (g *KnowledgeGraph) insertLocked(n Node) {
	node := n
	g.nodes[n.Name] = &node
	g.nodeOrder = append(g.nodeOrder, n.Name)
}

// Freeze marks the graph read-only.
func (g *KnowledgeGraph) Freeze() {
	g.mu.Lock()
	g.frozen = true
	g.mu.Unlock()
}

// Frozen reports whether Freeze has been called.
func (g *KnowledgeGraph) Frozen() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.frozen
}

// Node returns a copy of the named node.
func (g *KnowledgeGraph) Node(name string) (Node, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	n, ok := g.nodes[name]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// HasEdge reports whether an edge with the given identity exists.
func (g *KnowledgeGraph) HasEdge(from, to string, typ EdgeType) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.edges[edgeKey{from: from, to: to, typ: typ}]
	return ok
}

// Nodes returns copies of all nodes in insertion order.
func (g *KnowledgeGraph) Nodes() []Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Node, 0, len(g.nodeOrder))
	for _, name := range g.nodeOrder {
		out = append(out, *g.nodes[name])
	}
	return out
}

// Edges returns all edges in insertion order.
func (g *KnowledgeGraph) Edges() []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Edge, 0, len(g.edgeOrder))
	for _, k := range g.edgeOrder {
		out = append(out, g.edges[k])
	}
	return out
}

// Len returns the number of nodes and edges.
func (g *KnowledgeGraph) Len() (nodes, edges int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes), len(g.edges)
}

// Stats counts nodes and edges by type.
func (g *KnowledgeGraph) Stats() GraphStats {
	g.mu.RLock()
	defer g.mu.RUnlock()
	st := GraphStats{
		NodeCount:   len(g.nodes),
		EdgeCount:   len(g.edges),
		NodesByType: make(map[NodeType]int),
		EdgesByType: make(map[EdgeType]int),
	}
	for _, n := range g.nodes {
		if n.Placeholder() {
			st.Placeholders++
			continue
		}
		st.NodesByType[n.Type]++
	}
	for _, e := range g.edges {
		st.EdgesByType[e.Type]++
	}
	return st
}
