package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/codegraph/internal/graph"
)

// MermaidOptions tunes GenerateMermaid.
type MermaidOptions struct {
	// Arguments adds argument nodes and function_arg edges.
	Arguments bool
}

// GenerateMermaid produces a Mermaid graph TD diagram of g. Each class is a
// subgraph holding its methods; inheritance edges become dotted arrows.
func GenerateMermaid(g *graph.KnowledgeGraph, opts MermaidOptions) string {
	// Node names are arbitrary text, so Mermaid gets synthetic IDs.
	nodeIDs := make(map[string]string)
	nextID := 0
	getID := func(name string) string {
		if id, ok := nodeIDs[name]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", nextID)
		nextID++
		nodeIDs[name] = id
		return id
	}

	nodes := g.Nodes()
	edges := g.Edges()

	members := make(map[string][]string) // class key -> methods
	inClass := make(map[string]bool)
	for _, e := range edges {
		if e.Type == graph.EdgeTypeBelongsToClass {
			members[e.From] = append(members[e.From], e.To)
			inClass[e.To] = true
		}
	}

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	// Classes as subgraphs.
	for _, n := range nodes {
		if n.Type != graph.NodeTypeClass {
			continue
		}
		fmt.Fprintf(&sb, "  subgraph %s[\"%s\"]\n", getID(n.Name), label(n.Name))
		for _, m := range members[n.Name] {
			fmt.Fprintf(&sb, "    %s[\"%s()\"]\n", getID(m), label(m))
		}
		sb.WriteString("  end\n")
	}

	// Free functions, and the bare names inheritance refers to.
	for _, n := range nodes {
		switch {
		case n.Type == graph.NodeTypeFunction && !inClass[n.Name]:
			fmt.Fprintf(&sb, "  %s[\"%s()\"]\n", getID(n.Name), label(n.Name))
		case n.Placeholder():
			fmt.Fprintf(&sb, "  %s([\"%s\"])\n", getID(n.Name), label(n.Name))
		case n.Type == graph.NodeTypeArgument && opts.Arguments:
			fmt.Fprintf(&sb, "  %s>\"%s\"]\n", getID(n.Name), label(n.Name))
		}
	}

	for _, e := range edges {
		switch e.Type {
		case graph.EdgeTypeInheritance:
			fmt.Fprintf(&sb, "  %s -.-> %s\n", getID(e.From), getID(e.To))
		case graph.EdgeTypeFunctionArg:
			if opts.Arguments {
				fmt.Fprintf(&sb, "  %s --> %s\n", getID(e.From), getID(e.To))
			}
		}
	}

	return sb.String()
}

// label escapes text for a quoted Mermaid label.
func label(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
