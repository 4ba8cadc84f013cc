package export

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/codegraph/internal/graph"
)

const fixtureRoot = "../../testdata/fixtures/py_project"

func buildFixture(t *testing.T) *graph.BuildResult {
	t.Helper()
	res, err := graph.Build(context.Background(), fixtureRoot, graph.BuildOptions{})
	require.NoError(t, err)
	return res
}

func TestExportGraph(t *testing.T) {
	res := buildFixture(t)
	doc := ExportGraph(fixtureRoot, res)

	assert.Equal(t, fixtureRoot, doc.Root)
	assert.True(t, doc.Complete)
	assert.NotEmpty(t, doc.ExportedAt)
	require.Len(t, doc.Files, 5)
	assert.Equal(t, FileExport{Path: "broken.py", SyntaxError: true}, doc.Files[1])
	assert.Equal(t, FileExport{Path: "base.py"}, doc.Files[0])

	nodes, edges := res.Graph.Len()
	assert.Len(t, doc.Nodes, nodes)
	assert.Len(t, doc.Edges, edges)
	assert.Equal(t, nodes, doc.Stats.NodeCount)
}

func TestWriteJSON(t *testing.T) {
	doc := ExportGraph(fixtureRoot, buildFixture(t))

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, doc))
	assert.True(t, strings.HasSuffix(buf.String(), "}\n"))

	var decoded struct {
		Nodes []map[string]any `json:"nodes"`
		Edges []map[string]any `json:"edges"`
		Stats struct {
			NodesByType map[string]int `json:"nodesByType"`
		} `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))

	var square map[string]any
	for _, n := range decoded.Nodes {
		if n["name"] == "shapes/square.py_Square" {
			square = n
		}
	}
	require.NotNil(t, square)
	assert.Equal(t, "class", square["type"])
	assert.Equal(t, "shapes/square.py", square["file"])
	assert.Equal(t, 2, decoded.Stats.NodesByType["class"])
}

func TestGenerateMermaid(t *testing.T) {
	g := graph.NewKnowledgeGraph()
	require.NoError(t, g.UpsertNode(graph.Node{Name: "b.py_Child", Type: graph.NodeTypeClass}))
	require.NoError(t, g.UpsertNode(graph.Node{Name: "m", Type: graph.NodeTypeFunction, ParentObject: "b.py_Child"}))
	require.NoError(t, g.UpsertNode(graph.Node{Name: "helper", Type: graph.NodeTypeFunction}))
	require.NoError(t, g.AddEdge(graph.Edge{From: "b.py_Child", To: "m", Type: graph.EdgeTypeBelongsToClass}))
	require.NoError(t, g.AddEdge(graph.Edge{From: "Base", To: "Child", Type: graph.EdgeTypeInheritance}))
	_, err := g.EnsureNode("x", graph.NodeTypeArgument)
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(graph.Edge{From: "x", To: "helper", Type: graph.EdgeTypeFunctionArg}))

	out := GenerateMermaid(g, MermaidOptions{})
	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `subgraph N0["b.py_Child"]`)
	assert.Contains(t, out, `    N1["m()"]`)
	assert.Contains(t, out, "  end\n")
	assert.Contains(t, out, `["helper()"]`)
	assert.Contains(t, out, `(["Base"])`)
	assert.Contains(t, out, " -.-> ")
	assert.NotContains(t, out, `"x"`, "arguments are omitted by default")
	assert.NotContains(t, out, " --> ")

	withArgs := GenerateMermaid(g, MermaidOptions{Arguments: true})
	assert.Contains(t, withArgs, `>"x"]`)
	assert.Contains(t, withArgs, " --> ")
}

func TestGenerateMermaid_EscapesQuotes(t *testing.T) {
	assert.Equal(t, "say#quot;hi#quot;", label(`say"hi"`))
}
