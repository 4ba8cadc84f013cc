package graph

import (
	"context"
	"log/slog"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// FileEntry is the extraction result for one collected file.
type FileEntry struct {
	// Path is the path the file was read from.
	Path     string
	Metadata FileMetadata
	// Tree is nil when extraction degraded.
	Tree *ParsedTree
}

// Codebase maps root-relative file keys to their extraction results.
type Codebase struct {
	Root string
	// Files holds the entry keys in collection order.
	Files   []string
	Entries map[string]*FileEntry
}

// NewCodebase returns an empty Codebase for root.
func NewCodebase(root string) *Codebase {
	return &Codebase{Root: root, Entries: make(map[string]*FileEntry)}
}

// Add appends an entry under key, replacing any previous entry for it.
func (c *Codebase) Add(key string, entry *FileEntry) {
	if old, ok := c.Entries[key]; ok {
		old.Tree.Close()
	} else {
		c.Files = append(c.Files, key)
	}
	c.Entries[key] = entry
}

// Metadata returns the key -> metadata view of the codebase.
func (c *Codebase) Metadata() map[string]FileMetadata {
	out := make(map[string]FileMetadata, len(c.Entries))
	for k, e := range c.Entries {
		out[k] = e.Metadata
	}
	return out
}

// Close releases every retained tree.
func (c *Codebase) Close() {
	for _, e := range c.Entries {
		e.Tree.Close()
	}
}

// Aggregator drives a Collector and an Extractor over a whole directory.
type Aggregator struct {
	collector *Collector
	extractor *Extractor
	workers   int
	logger    *slog.Logger
}

// NewAggregator wires collector and extractor. workers <= 0 uses GOMAXPROCS.
func NewAggregator(collector *Collector, extractor *Extractor, workers int, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Aggregator{
		collector: collector,
		extractor: extractor,
		workers:   workers,
		logger:    logger,
	}
}

// Aggregate collects the files under root and extracts each one. Every
// collected file gets an entry keyed by its slash-separated path relative to
// root, even when extraction degraded. Files are extracted in parallel but
// entries keep collection order. If ctx is cancelled, files not yet
// extracted get the empty record.
func (a *Aggregator) Aggregate(ctx context.Context, root string) *Codebase {
	cb := NewCodebase(root)
	paths := a.collector.Collect(root)

	entries := make([]*FileEntry, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)

	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			meta, tree := a.extractor.Extract(path)
			entries[i] = &FileEntry{Path: path, Metadata: meta, Tree: tree}
			return nil
		})
	}
	_ = g.Wait()

	for i, path := range paths {
		entry := entries[i]
		if entry == nil {
			a.logger.Warn("extraction skipped", slog.String("file", path), slog.Any("error", ctx.Err()))
			entry = &FileEntry{Path: path, Metadata: emptyMetadata()}
		}
		cb.Add(fileKey(root, path), entry)
	}

	a.logger.Info("codebase extracted",
		slog.String("root", root),
		slog.Int("files", len(cb.Files)))
	return cb
}

// fileKey converts a collected path to its root-relative key.
func fileKey(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
