package mcptools

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/codegraph/internal/graph"
)

// CodeIntelService holds the graph store used by MCP tool handlers.
type CodeIntelService struct {
	store   graph.Store
	workers int
	logger  *slog.Logger

	// buildMu serializes build_graph calls so loads do not interleave.
	buildMu sync.Mutex
}

// NewCodeIntelService creates a CodeIntelService backed by store. A nil
// logger uses slog.Default.
func NewCodeIntelService(store graph.Store, workers int, logger *slog.Logger) *CodeIntelService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CodeIntelService{store: store, workers: workers, logger: logger}
}

// BuildGraph analyzes a Python project and loads the resulting knowledge
// graph into the store. Repeated builds merge into what is already stored.
func (s *CodeIntelService) BuildGraph(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input BuildGraphInput,
) (*mcp.CallToolResult, BuildGraphOutput, error) {
	if input.RepoPath == "" {
		return nil, BuildGraphOutput{}, fmt.Errorf("repoPath is required")
	}

	info, err := os.Stat(input.RepoPath)
	if err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("cannot access repoPath: %w", err)
	}
	if !info.IsDir() {
		return nil, BuildGraphOutput{}, fmt.Errorf("repoPath is not a directory: %s", input.RepoPath)
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	res, err := graph.Build(ctx, input.RepoPath, graph.BuildOptions{
		Collector: graph.CollectorOptions{
			ExcludeDirs:      input.ExcludeDirs,
			ExcludeGlobs:     input.ExcludeGlobs,
			RespectGitignore: input.RespectGitignore,
		},
		Workers: s.workers,
		Logger:  s.logger,
	})
	if err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("build: %w", err)
	}

	if err := graph.Load(ctx, res.Graph, s.store, s.logger); err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("load: %w", err)
	}

	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, BuildGraphOutput{}, fmt.Errorf("stats: %w", err)
	}

	return nil, BuildGraphOutput{
		Files:        len(res.Files),
		SyntaxErrors: res.SyntaxErrors,
		Complete:     res.Complete,
		Stats:        *stats,
	}, nil
}

// QueryNodes searches for nodes by name substring match.
func (s *CodeIntelService) QueryNodes(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QueryNodesInput,
) (*mcp.CallToolResult, QueryNodesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	typ, err := parseNodeType(input.Type)
	if err != nil {
		return nil, QueryNodesOutput{}, err
	}

	nodes, err := s.store.QueryNodes(ctx, input.Query, typ, limit)
	if err != nil {
		return nil, QueryNodesOutput{}, fmt.Errorf("query nodes: %w", err)
	}
	if nodes == nil {
		nodes = []graph.Node{}
	}

	return nil, QueryNodesOutput{
		Nodes: nodes,
		Total: len(nodes),
	}, nil
}

// GetNode returns a single node by exact name.
func (s *CodeIntelService) GetNode(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetNodeInput,
) (*mcp.CallToolResult, GetNodeOutput, error) {
	if input.Name == "" {
		return nil, GetNodeOutput{}, fmt.Errorf("name is required")
	}

	n, err := s.store.GetNode(ctx, input.Name)
	if err != nil {
		return nil, GetNodeOutput{}, fmt.Errorf("get node: %w", err)
	}
	return nil, GetNodeOutput{Found: n != nil, Node: n}, nil
}

// GetNeighbors traverses the graph from a given node.
func (s *CodeIntelService) GetNeighbors(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetNeighborsInput,
) (*mcp.CallToolResult, GetNeighborsOutput, error) {
	if input.Name == "" {
		return nil, GetNeighborsOutput{}, fmt.Errorf("name is required")
	}

	direction := graph.DirectionDownstream
	if strings.EqualFold(input.Direction, "upstream") {
		direction = graph.DirectionUpstream
	}

	edgeType, err := parseEdgeType(input.EdgeType)
	if err != nil {
		return nil, GetNeighborsOutput{}, err
	}

	maxDepth := input.MaxDepth
	if maxDepth <= 0 {
		maxDepth = 5
	}

	chains, err := s.store.GetNeighbors(ctx, input.Name, direction, edgeType, maxDepth)
	if err != nil {
		return nil, GetNeighborsOutput{}, fmt.Errorf("get neighbors: %w", err)
	}
	if chains == nil {
		chains = []graph.DependencyChain{}
	}

	return nil, GetNeighborsOutput{Chains: chains}, nil
}

// GraphStats returns node and edge counts of the stored graph.
func (s *CodeIntelService) GraphStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ GraphStatsInput,
) (*mcp.CallToolResult, GraphStatsOutput, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, GraphStatsOutput{}, fmt.Errorf("stats: %w", err)
	}
	return nil, GraphStatsOutput{Stats: *stats}, nil
}

func parseNodeType(s string) (graph.NodeType, error) {
	switch t := graph.NodeType(strings.ToLower(s)); t {
	case "", graph.NodeTypeClass, graph.NodeTypeFunction, graph.NodeTypeArgument:
		return t, nil
	default:
		return "", fmt.Errorf("unknown node type %q", s)
	}
}

func parseEdgeType(s string) (graph.EdgeType, error) {
	if s == "" {
		return "", nil
	}
	t := graph.EdgeType(strings.ToLower(s))
	for _, known := range graph.EdgeTypes {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown edge type %q", s)
}
