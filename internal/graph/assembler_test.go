package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestCodebase writes files (relative path -> content) into a temporary
// root and aggregates it. Retained trees are released on cleanup.
func newTestCodebase(t *testing.T, files map[string]string) *Codebase {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		writeFile(t, root, rel, content)
	}
	collector, err := NewCollector(CollectorOptions{}, nil)
	require.NoError(t, err)

	cb := NewAggregator(collector, NewExtractor(nil), 2, nil).Aggregate(context.Background(), root)
	t.Cleanup(cb.Close)
	return cb
}

// assemble runs every phase over files and returns the graph.
func assemble(t *testing.T, files map[string]string) *KnowledgeGraph {
	t.Helper()
	asm := NewAssembler(newTestCodebase(t, files), nil)
	require.True(t, asm.GenerateUnifiedGraph(context.Background()))
	return asm.Graph()
}

func requireNode(t *testing.T, g *KnowledgeGraph, name string) Node {
	t.Helper()
	n, ok := g.Node(name)
	require.True(t, ok, "node %q should exist", name)
	return n
}

// ---------------------------------------------------------------------------
// Scenarios
// ---------------------------------------------------------------------------

func TestAssembler_ClassesMethodsAndInheritance(t *testing.T) {
	g := assemble(t, map[string]string{
		"a.py": "class Base:\n    pass\n",
		"b.py": "class Child(Base):\n    def m(self):\n        pass\n",
	})

	base := requireNode(t, g, "a.py_Base")
	assert.Equal(t, NodeTypeClass, base.Type)
	assert.Equal(t, "a.py", base.File)
	assert.Equal(t, "class Base:\n    pass", base.Source)

	child := requireNode(t, g, "b.py_Child")
	assert.Equal(t, NodeTypeClass, child.Type)
	assert.Equal(t, "b.py", child.File)

	m := requireNode(t, g, "m")
	assert.Equal(t, NodeTypeFunction, m.Type)
	assert.Equal(t, "b.py_Child", m.ParentObject)
	assert.Equal(t, "b.py", m.File)
	assert.Equal(t, "def m(self):\n        pass", m.Source)

	assert.True(t, g.HasEdge("b.py_Child", "m", EdgeTypeBelongsToClass))
	assert.True(t, g.HasEdge("Base", "Child", EdgeTypeInheritance),
		"inheritance edges use bare class names")

	for _, name := range []string{"Base", "Child"} {
		assert.True(t, requireNode(t, g, name).Placeholder(), name)
	}

	_, ok := g.Node("self")
	assert.False(t, ok, "self never becomes an argument node")
	assert.Empty(t, edgesOfType(g, EdgeTypeFunctionArg))
}

func TestAssembler_FunctionArguments(t *testing.T) {
	g := assemble(t, map[string]string{
		"calc.py": "def add(a, b):\n    return a + b\n",
	})

	add := requireNode(t, g, "add")
	assert.Equal(t, NodeTypeFunction, add.Type)
	assert.Empty(t, add.ParentObject)
	assert.Equal(t, "calc.py", add.File)

	for _, arg := range []string{"a", "b"} {
		n := requireNode(t, g, arg)
		assert.Equal(t, NodeTypeArgument, n.Type)
		assert.Empty(t, n.File)
		assert.True(t, g.HasEdge(arg, "add", EdgeTypeFunctionArg), arg)
	}
	assert.Empty(t, edgesOfType(g, EdgeTypeBelongsToClass))
}

func TestAssembler_BelongsToClassEdgeCarriesFile(t *testing.T) {
	g := assemble(t, map[string]string{
		"pkg/svc.py": "class Service:\n    def start(self, port):\n        pass\n",
	})

	edges := edgesOfType(g, EdgeTypeBelongsToClass)
	require.Len(t, edges, 1)
	assert.Equal(t, Edge{From: "pkg/svc.py_Service", To: "start", Type: EdgeTypeBelongsToClass, File: "pkg/svc.py"}, edges[0])
	assert.True(t, g.HasEdge("port", "start", EdgeTypeFunctionArg))
}

func TestAssembler_NameCollisionLastWriteWins(t *testing.T) {
	g := assemble(t, map[string]string{
		"a.py": "def run(x):\n    pass\n",
		"b.py": "def run(y):\n    pass\n",
	})

	run := requireNode(t, g, "run")
	assert.Equal(t, "b.py", run.File, "files are processed in collection order")
	assert.Equal(t, "def run(y):\n    pass", run.Source)

	assert.True(t, g.HasEdge("x", "run", EdgeTypeFunctionArg), "argument edges accumulate")
	assert.True(t, g.HasEdge("y", "run", EdgeTypeFunctionArg))
}

func TestAssembler_MethodCollidesWithFreeFunction(t *testing.T) {
	g := assemble(t, map[string]string{
		"a.py": "class A:\n    def go(self):\n        pass\n",
		"b.py": "def go():\n    pass\n",
	})

	goNode := requireNode(t, g, "go")
	assert.Equal(t, "b.py", goNode.File)
	assert.Empty(t, goNode.ParentObject, "parent is overwritten along with the other attributes")
	assert.True(t, g.HasEdge("a.py_A", "go", EdgeTypeBelongsToClass), "edges are never removed")
}

func TestAssembler_ArgumentNamedLikeFunction(t *testing.T) {
	g := assemble(t, map[string]string{
		"m.py": "def apply(handler):\n    pass\n\ndef handler():\n    pass\n",
	})

	assert.Equal(t, NodeTypeFunction, requireNode(t, g, "handler").Type,
		"argument edges never retype an existing node")
	assert.True(t, g.HasEdge("handler", "apply", EdgeTypeFunctionArg))
}

func TestAssembler_SameClassNameInTwoFiles(t *testing.T) {
	g := assemble(t, map[string]string{
		"a.py": "class Model:\n    pass\n",
		"b.py": "class Model:\n    pass\n",
	})

	assert.Equal(t, "a.py", requireNode(t, g, "a.py_Model").File)
	assert.Equal(t, "b.py", requireNode(t, g, "b.py_Model").File)
}

func TestAssembler_SkipsDegradedFiles(t *testing.T) {
	g := assemble(t, map[string]string{
		"ok.py":     "def ok():\n    pass\n",
		"broken.py": "def broken(:\n",
		"empty.py":  "",
	})

	nodes, edges := g.Len()
	assert.Equal(t, 1, nodes)
	assert.Zero(t, edges)
}

func TestAssembler_EmptyCodebase(t *testing.T) {
	asm := NewAssembler(NewCodebase(t.TempDir()), nil)
	assert.True(t, asm.GenerateUnifiedGraph(context.Background()))

	nodes, edges := asm.Graph().Len()
	assert.Zero(t, nodes)
	assert.Zero(t, edges)
}

func TestAssembler_NilCodebase(t *testing.T) {
	asm := NewAssembler(nil, nil)
	assert.True(t, asm.GenerateUnifiedGraph(context.Background()))
}

// ---------------------------------------------------------------------------
// Phases
// ---------------------------------------------------------------------------

func TestAssembler_PhasesRunIndependently(t *testing.T) {
	cb := newTestCodebase(t, map[string]string{
		"a.py": "class A(Base):\n    def m(self, x):\n        pass\n",
	})
	ctx := context.Background()

	asm := NewAssembler(cb, nil)
	require.True(t, asm.AddNodes(ctx))
	assert.Len(t, edgesOfType(asm.Graph(), EdgeTypeBelongsToClass), 1)
	assert.Empty(t, edgesOfType(asm.Graph(), EdgeTypeInheritance))
	assert.Empty(t, edgesOfType(asm.Graph(), EdgeTypeFunctionArg))

	require.True(t, asm.AddInheritanceEdges(ctx))
	assert.Len(t, edgesOfType(asm.Graph(), EdgeTypeInheritance), 1)
	assert.Empty(t, edgesOfType(asm.Graph(), EdgeTypeFunctionArg))

	require.True(t, asm.AddArgumentEdges(ctx))
	assert.Len(t, edgesOfType(asm.Graph(), EdgeTypeFunctionArg), 1)
}

func TestAssembler_Idempotent(t *testing.T) {
	cb := newTestCodebase(t, map[string]string{
		"a.py": "class Base:\n    def describe(self, verbose):\n        pass\n",
		"b.py": "class Child(Base):\n    pass\n\ndef describe(x):\n    pass\n",
	})
	ctx := context.Background()

	asm := NewAssembler(cb, nil)
	require.True(t, asm.GenerateUnifiedGraph(ctx))
	firstNodes, firstEdges := asm.Graph().Nodes(), asm.Graph().Edges()

	require.True(t, asm.GenerateUnifiedGraph(ctx))
	assert.Equal(t, firstNodes, asm.Graph().Nodes())
	assert.Equal(t, firstEdges, asm.Graph().Edges())

	fresh := NewAssembler(cb, nil)
	require.True(t, fresh.GenerateUnifiedGraph(ctx))
	assert.Equal(t, firstNodes, fresh.Graph().Nodes())
	assert.Equal(t, firstEdges, fresh.Graph().Edges())
}

func TestAssembler_CancelledContext(t *testing.T) {
	cb := newTestCodebase(t, map[string]string{
		"a.py": "def f(x):\n    pass\n",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	asm := NewAssembler(cb, nil)
	assert.False(t, asm.GenerateUnifiedGraph(ctx))

	nodes, _ := asm.Graph().Len()
	assert.Zero(t, nodes)
}

func TestAssembler_PanicIsRecovered(t *testing.T) {
	cb := NewCodebase("")
	cb.Files = []string{"ghost.py"} // listed but never added

	asm := NewAssembler(cb, nil)
	assert.NotPanics(t, func() {
		assert.False(t, asm.AddNodes(context.Background()))
	})
	assert.False(t, asm.GenerateUnifiedGraph(context.Background()))
}

func TestAssembler_FrozenGraphFailsPhases(t *testing.T) {
	cb := newTestCodebase(t, map[string]string{
		"a.py": "def f(x):\n    pass\n",
	})

	asm := NewAssembler(cb, nil)
	asm.Graph().Freeze()
	assert.False(t, asm.AddNodes(context.Background()))
	assert.False(t, asm.AddArgumentEdges(context.Background()))
	assert.True(t, asm.AddInheritanceEdges(context.Background()), "no inheritance to write")
}

func TestClassKey(t *testing.T) {
	assert.Equal(t, "a.py_Base", ClassKey("a.py", "Base"))
	assert.Equal(t, "pkg/mod.py_Thing", ClassKey("pkg/mod.py", "Thing"))
}

// edgesOfType filters g's edges by type.
func edgesOfType(g *KnowledgeGraph, typ EdgeType) []Edge {
	var out []Edge
	for _, e := range g.Edges() {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}
