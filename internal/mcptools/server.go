package mcptools

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// shutdownTimeout bounds how long in-flight tool calls may finish once the
// serving context is cancelled.
const shutdownTimeout = 5 * time.Second

// NewCodeIntelMCPServer returns a server exposing the graph tools of svc:
// build_graph writes to svc's store, the other four only read it.
func NewCodeIntelMCPServer(svc *CodeIntelService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "codegraph", Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name: "build_graph",
		Description: "Analyze a Python project and merge its knowledge graph into the store. " +
			"Records classes, functions and arguments with belongs_to_class, inheritance and function_arg edges. " +
			"Files that fail to parse are listed in syntaxErrors and contribute nothing.",
	}, svc.BuildGraph)

	mcp.AddTool(server, &mcp.Tool{
		Name: "query_nodes",
		Description: "List stored nodes whose name contains query, ignoring case, sorted by name. " +
			"type narrows to class, function or argument; limit defaults to 20.",
	}, svc.QueryNodes)

	mcp.AddTool(server, &mcp.Tool{
		Name: "get_node",
		Description: "Look up one node by exact name. Class names are file-qualified (\"pkg/mod.py_Class\"). " +
			"Placeholders created by inheritance edges have an empty type.",
	}, svc.GetNode)

	mcp.AddTool(server, &mcp.Tool{
		Name: "get_neighbors",
		Description: "Walk edges from a node, downstream by default or upstream, optionally along a single edge type. " +
			"Returns every path found, up to maxDepth hops (default 5).",
	}, svc.GetNeighbors)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "graph_stats",
		Description: "Count stored nodes and edges by type, including placeholder nodes.",
	}, svc.GraphStats)

	return server
}

// RunMCPServer serves the graph tools over streamable HTTP on addr until ctx
// is cancelled.
func RunMCPServer(ctx context.Context, svc *CodeIntelService, addr string) error {
	server := NewCodeIntelMCPServer(svc)
	httpServer := &http.Server{
		Addr: addr,
		Handler: mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
			return server
		}, nil),
	}

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.ListenAndServe() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RunMCPServerStdio serves the graph tools over stdin and stdout until the
// client disconnects or ctx is cancelled.
func RunMCPServerStdio(ctx context.Context, svc *CodeIntelService) error {
	return NewCodeIntelMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}
