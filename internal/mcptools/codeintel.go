package mcptools

import "github.com/dusk-indust/codegraph/internal/graph"

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// BuildGraphInput is the input for the build_graph MCP tool.
type BuildGraphInput struct {
	RepoPath         string   `json:"repoPath" jsonschema:"the absolute path to the Python project to index"`
	ExcludeDirs      []string `json:"excludeDirs,omitempty" jsonschema:"directory names to skip (e.g. .venv, __pycache__)"`
	ExcludeGlobs     []string `json:"excludeGlobs,omitempty" jsonschema:"glob patterns over relative paths or base names to skip"`
	RespectGitignore bool     `json:"respectGitignore,omitempty" jsonschema:"apply the root .gitignore"`
}

// BuildGraphOutput is the result of the build_graph MCP tool.
type BuildGraphOutput struct {
	Files        int              `json:"files"`
	SyntaxErrors []string         `json:"syntaxErrors,omitempty"`
	Complete     bool             `json:"complete"`
	Stats        graph.GraphStats `json:"stats"`
}

// QueryNodesInput is the input for the query_nodes MCP tool.
type QueryNodesInput struct {
	Query string `json:"query" jsonschema:"search query for node names (case-insensitive substring match)"`
	Type  string `json:"type,omitempty" jsonschema:"filter by node type: class, function, argument"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// QueryNodesOutput is the result of the query_nodes MCP tool.
type QueryNodesOutput struct {
	Nodes []graph.Node `json:"nodes"`
	Total int          `json:"total"`
}

// GetNodeInput is the input for the get_node MCP tool.
type GetNodeInput struct {
	Name string `json:"name" jsonschema:"node name: a function or argument name, or file_Class for classes"`
}

// GetNodeOutput is the result of the get_node MCP tool.
type GetNodeOutput struct {
	Found bool        `json:"found"`
	Node  *graph.Node `json:"node,omitempty"`
}

// GetNeighborsInput is the input for the get_neighbors MCP tool.
type GetNeighborsInput struct {
	Name      string `json:"name" jsonschema:"node name to start from"`
	Direction string `json:"direction,omitempty" jsonschema:"downstream (follow edges forwards) or upstream (backwards). Default: downstream"`
	EdgeType  string `json:"edgeType,omitempty" jsonschema:"only follow this edge type: belongs_to_class, inheritance, function_arg"`
	MaxDepth  int    `json:"maxDepth,omitempty" jsonschema:"maximum traversal depth (default: 5)"`
}

// GetNeighborsOutput is the result of the get_neighbors MCP tool.
type GetNeighborsOutput struct {
	Chains []graph.DependencyChain `json:"chains"`
}

// GraphStatsInput is the input for the graph_stats MCP tool.
type GraphStatsInput struct{}

// GraphStatsOutput is the result of the graph_stats MCP tool.
type GraphStatsOutput struct {
	Stats graph.GraphStats `json:"stats"`
}
