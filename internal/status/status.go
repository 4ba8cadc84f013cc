package status

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dusk-indust/codegraph/internal/graph"
)

// StoreStatus describes the persisted graph of one project.
type StoreStatus struct {
	Kind   graph.StoreKind
	Path   string // empty for the memory store
	Exists bool
	Stats  *graph.GraphStats // nil unless Exists
}

// Inspect reports on the store of the given kind at path. A store that has
// not been built yet is not an error. Inspect never creates a database.
func Inspect(ctx context.Context, kind graph.StoreKind, path string) (StoreStatus, error) {
	st := StoreStatus{Kind: kind, Path: path}
	if kind == graph.StoreMemory || path == "" {
		return st, nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return st, nil
		}
		return st, fmt.Errorf("stat %s: %w", path, err)
	}
	st.Exists = true

	store, err := graph.OpenStore(ctx, kind, path)
	if err != nil {
		return st, fmt.Errorf("open %s store: %w", kind, err)
	}
	defer store.Close()

	st.Stats, err = store.Stats(ctx)
	if err != nil {
		return st, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// Print writes st as a short human-readable report.
func Print(w io.Writer, st StoreStatus) {
	fmt.Fprintf(w, "store: %s\n", st.Kind)
	switch {
	case st.Path == "":
		fmt.Fprintln(w, "path:  (in memory, nothing persisted)")
		return
	case !st.Exists:
		fmt.Fprintf(w, "path:  %s (not built)\n", st.Path)
		return
	}
	fmt.Fprintf(w, "path:  %s\n", st.Path)
	fmt.Fprintf(w, "nodes: %d (%d placeholders)\n", st.Stats.NodeCount, st.Stats.Placeholders)
	fmt.Fprintf(w, "edges: %d\n", st.Stats.EdgeCount)
}
