package graph

// --- Enums ---

// NodeType classifies nodes in the knowledge graph. The zero value marks a
// bare placeholder created implicitly as an edge endpoint.
type NodeType string

const (
	NodeTypeClass    NodeType = "class"
	NodeTypeFunction NodeType = "function"
	NodeTypeArgument NodeType = "argument"
)

// EdgeType classifies relationships between nodes.
type EdgeType string

const (
	EdgeTypeBelongsToClass EdgeType = "belongs_to_class"
	EdgeTypeInheritance    EdgeType = "inheritance"
	EdgeTypeFunctionArg    EdgeType = "function_arg"
)

// EdgeTypes lists every edge type in a stable order.
var EdgeTypes = []EdgeType{EdgeTypeBelongsToClass, EdgeTypeInheritance, EdgeTypeFunctionArg}

// SourceExt is the file extension of the analyzed language.
const SourceExt = ".py"

// selfParam is the receiver parameter excluded from argument edges.
const selfParam = "self"

// --- Per-file metadata ---

// FunctionInfo describes one function definition.
type FunctionInfo struct {
	Name string   `json:"name"`
	Args []string `json:"args"`
}

// ClassInfo describes one class definition.
type ClassInfo struct {
	Name    string   `json:"name"`
	Bases   []string `json:"bases"`   // direct identifier bases only
	Methods []string `json:"methods"` // functions defined directly in the body
}

// FileMetadata is the structural record extracted from one source file.
type FileMetadata struct {
	Functions   []FunctionInfo `json:"functions"`
	Classes     []ClassInfo    `json:"classes"`
	Imports     []string       `json:"imports"`
	Variables   []string       `json:"variables"`
	Inheritance []string       `json:"inheritance"`
	SyntaxError bool           `json:"syntaxError"`
}

// emptyMetadata returns the all-empty record used on degraded paths.
func emptyMetadata() FileMetadata {
	return FileMetadata{
		Functions:   []FunctionInfo{},
		Classes:     []ClassInfo{},
		Imports:     []string{},
		Variables:   []string{},
		Inheritance: []string{},
	}
}

// IsEmpty reports whether no symbol of any kind was extracted.
func (m FileMetadata) IsEmpty() bool {
	return len(m.Functions) == 0 && len(m.Classes) == 0 && len(m.Imports) == 0 &&
		len(m.Variables) == 0 && len(m.Inheritance) == 0
}

// --- Graph models ---

// Node is a vertex of the knowledge graph, identified by Name.
type Node struct {
	Name         string   `json:"name"`
	Type         NodeType `json:"type,omitempty"`
	ParentObject string   `json:"parentObject,omitempty"` // enclosing class key, functions only
	File         string   `json:"file,omitempty"`
	Source       string   `json:"source,omitempty"`
}

// Placeholder reports whether the node was only created as an edge endpoint.
func (n Node) Placeholder() bool {
	return n.Type == ""
}

// Properties returns the non-type attributes in the shape sinks consume.
// Placeholders carry no properties.
func (n Node) Properties() map[string]any {
	if n.Placeholder() {
		return map[string]any{}
	}
	props := map[string]any{
		"file":   n.File,
		"source": n.Source,
	}
	if n.Type == NodeTypeFunction {
		props["parent_object"] = n.ParentObject
	}
	return props
}

// Edge is a directed, typed relationship. Identity is (From, To, Type).
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Type EdgeType `json:"type"`
	File string   `json:"file,omitempty"`
}

// Properties returns the edge attributes in the shape sinks consume.
func (e Edge) Properties() map[string]any {
	return map[string]any{"file": e.File}
}

type edgeKey struct {
	from, to string
	typ      EdgeType
}

func (e Edge) key() edgeKey {
	return edgeKey{from: e.From, to: e.To, typ: e.Type}
}

// GraphStats summarizes a knowledge graph or a store.
type GraphStats struct {
	NodeCount    int              `json:"nodeCount"`
	EdgeCount    int              `json:"edgeCount"`
	NodesByType  map[NodeType]int `json:"nodesByType"`
	EdgesByType  map[EdgeType]int `json:"edgesByType"`
	Placeholders int              `json:"placeholders"`
}

// DependencyChain is an ordered sequence of node names forming a path.
type DependencyChain struct {
	Nodes []string `json:"nodes"`
	Depth int      `json:"depth"`
}
