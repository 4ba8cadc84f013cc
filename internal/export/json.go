package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/dusk-indust/codegraph/internal/graph"
)

// GraphExport is the top-level JSON export structure.
type GraphExport struct {
	Root       string           `json:"root"`
	ExportedAt string           `json:"exportedAt"`
	Complete   bool             `json:"complete"`
	Files      []FileExport     `json:"files"`
	Nodes      []graph.Node     `json:"nodes"`
	Edges      []graph.Edge     `json:"edges"`
	Stats      graph.GraphStats `json:"stats"`
}

// FileExport describes one analyzed file.
type FileExport struct {
	Path        string `json:"path"`
	SyntaxError bool   `json:"syntaxError,omitempty"`
}

// ExportGraph builds a GraphExport from a build result. Nodes and edges keep
// graph insertion order.
func ExportGraph(root string, res *graph.BuildResult) *GraphExport {
	broken := make(map[string]bool, len(res.SyntaxErrors))
	for _, f := range res.SyntaxErrors {
		broken[f] = true
	}

	out := &GraphExport{
		Root:       root,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Complete:   res.Complete,
		Files:      make([]FileExport, 0, len(res.Files)),
		Nodes:      res.Graph.Nodes(),
		Edges:      res.Graph.Edges(),
		Stats:      res.Graph.Stats(),
	}
	for _, f := range res.Files {
		out.Files = append(out.Files, FileExport{Path: f, SyntaxError: broken[f]})
	}
	return out
}

// WriteJSON writes doc as indented JSON followed by a newline.
func WriteJSON(w io.Writer, doc *GraphExport) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = w.Write(append(data, '\n'))
	return err
}
