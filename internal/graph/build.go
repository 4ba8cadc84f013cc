package graph

import (
	"context"
	"log/slog"
)

// BuildOptions configures Build.
type BuildOptions struct {
	Collector CollectorOptions
	Workers   int
	Logger    *slog.Logger
}

// BuildResult is the outcome of one analysis run.
type BuildResult struct {
	Graph *KnowledgeGraph
	// Files holds the root-relative keys of every analyzed file.
	Files []string
	// SyntaxErrors holds the keys of files that failed to parse.
	SyntaxErrors []string
	// Complete is false when any assembly phase failed.
	Complete bool
}

// Build runs the whole pipeline over root: collect, extract, assemble. The
// returned graph is frozen. An error is only returned for invalid options;
// analysis faults degrade the result instead.
func Build(ctx context.Context, root string, opts BuildOptions) (*BuildResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	collector, err := NewCollector(opts.Collector, logger)
	if err != nil {
		return nil, err
	}

	agg := NewAggregator(collector, NewExtractor(logger), opts.Workers, logger)
	cb := agg.Aggregate(ctx, root)
	defer cb.Close()

	asm := NewAssembler(cb, logger)
	complete := asm.GenerateUnifiedGraph(ctx)
	g := asm.Graph()
	g.Freeze()

	res := &BuildResult{Graph: g, Files: cb.Files, Complete: complete}
	for _, f := range cb.Files {
		if cb.Entries[f].Metadata.SyntaxError {
			res.SyntaxErrors = append(res.SyntaxErrors, f)
		}
	}
	return res, nil
}
