package graph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Sink consumes a finished knowledge graph as a stream of upserts.
// Implementations must give create-or-merge semantics keyed by node name:
// a node's type is fixed by its first typed upsert and properties are merged
// on later ones. Edge upserts are keyed by (from, to, type).
type Sink interface {
	UpsertNode(ctx context.Context, name string, typ NodeType, props map[string]any) error
	UpsertEdge(ctx context.Context, from, to string, typ EdgeType, props map[string]any) error
}

// Store is a queryable graph backend.
// Implementations: KuzuStore (graph database), SQLiteStore (relational
// snapshot), MemStore (testing).
type Store interface {
	Sink
	io.Closer

	// Schema setup, called once before any data is upserted.
	InitSchema(ctx context.Context) error

	// Read operations.
	GetNode(ctx context.Context, name string) (*Node, error)
	QueryNodes(ctx context.Context, query string, typ NodeType, limit int) ([]Node, error)
	GetEdges(ctx context.Context) ([]Edge, error)

	// Graph traversal.
	GetNeighbors(ctx context.Context, name string, direction Direction, edgeType EdgeType, maxDepth int) ([]DependencyChain, error)

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}

// Direction controls traversal direction.
type Direction string

const (
	DirectionUpstream   Direction = "upstream"   // follow edges backwards
	DirectionDownstream Direction = "downstream" // follow edges forwards
)

// Load streams every node of g (insertion order) and then every edge into
// sink. It stops at the first sink error.
func Load(ctx context.Context, g *KnowledgeGraph, sink Sink, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	nodes := g.Nodes()
	edges := g.Edges()
	logger.Info("loading graph into sink", slog.Int("nodes", len(nodes)), slog.Int("edges", len(edges)))

	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sink.UpsertNode(ctx, n.Name, n.Type, n.Properties()); err != nil {
			return fmt.Errorf("upsert node %s: %w", n.Name, err)
		}
	}
	for _, e := range edges {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := sink.UpsertEdge(ctx, e.From, e.To, e.Type, e.Properties()); err != nil {
			return fmt.Errorf("upsert edge %s-[%s]->%s: %w", e.From, e.Type, e.To, err)
		}
	}
	logger.Info("graph loaded")
	return nil
}

// propString reads a string property, treating absent or non-string values
// as empty.
func propString(props map[string]any, key string) string {
	if s, ok := props[key].(string); ok {
		return s
	}
	return ""
}

// bfsChains walks neighbors breadth-first from start and returns one chain
// per reachable node, up to maxDepth hops.
func bfsChains(start string, maxDepth int, neighbors func(string) ([]string, error)) ([]DependencyChain, error) {
	if maxDepth <= 0 {
		return nil, nil
	}

	type bfsEntry struct {
		id   string
		path []string
	}

	visited := map[string]bool{start: true}
	queue := []bfsEntry{{id: start, path: []string{start}}}
	var chains []DependencyChain

	for depth := 0; depth < maxDepth && len(queue) > 0; depth++ {
		var next []bfsEntry
		for _, entry := range queue {
			nbs, err := neighbors(entry.id)
			if err != nil {
				return nil, err
			}
			for _, nb := range nbs {
				if visited[nb] {
					continue
				}
				visited[nb] = true
				path := make([]string, len(entry.path), len(entry.path)+1)
				copy(path, entry.path)
				path = append(path, nb)
				chains = append(chains, DependencyChain{Nodes: path, Depth: len(path) - 1})
				next = append(next, bfsEntry{id: nb, path: path})
			}
		}
		queue = next
	}
	return chains, nil
}
