package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/codegraph/internal/graph"
)

type buildFlags struct {
	Store   string
	DBPath  string
	Workers int
}

func newBuildCmd(global *globalFlags) *cobra.Command {
	var flags buildFlags

	cmd := &cobra.Command{
		Use:   "build <root>",
		Short: "Analyze a Python project and load its graph into the configured store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			cfg, logger, err := setup(cmd, global, root)
			if err != nil {
				return err
			}
			if flags.Store != "" {
				cfg.Store = graph.StoreKind(flags.Store)
			}
			if flags.DBPath != "" {
				cfg.DBPath = flags.DBPath
			}
			if flags.Workers > 0 {
				cfg.Workers = flags.Workers
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			res, err := graph.Build(ctx, root, graph.BuildOptions{
				Collector: cfg.CollectorOptions(),
				Workers:   cfg.Workers,
				Logger:    logger,
			})
			if err != nil {
				return err
			}

			store, err := graph.OpenStore(ctx, cfg.StoreKind(), cfg.ResolveDBPath(root))
			if err != nil {
				return fmt.Errorf("open %s store: %w", cfg.StoreKind(), err)
			}
			defer store.Close()

			if err := graph.Load(ctx, res.Graph, store, logger); err != nil {
				return err
			}
			stats, err := store.Stats(ctx)
			if err != nil {
				return fmt.Errorf("stats: %w", err)
			}

			printSummary(cmd.OutOrStdout(), res, stats)
			if !res.Complete {
				return fmt.Errorf("graph is incomplete: an assembly phase failed")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flags.Store, "store", "", "graph store: kuzu, sqlite or memory (overrides config)")
	cmd.Flags().StringVar(&flags.DBPath, "db", "", "database path (overrides config)")
	cmd.Flags().IntVar(&flags.Workers, "workers", 0, "parallel extraction workers (default: GOMAXPROCS)")
	return cmd
}

func printSummary(w io.Writer, res *graph.BuildResult, stats *graph.GraphStats) {
	fmt.Fprintf(w, "files:         %d\n", len(res.Files))
	fmt.Fprintf(w, "syntax errors: %d\n", len(res.SyntaxErrors))
	for _, f := range res.SyntaxErrors {
		fmt.Fprintf(w, "  %s\n", f)
	}
	fmt.Fprintf(w, "nodes:         %d (%d placeholders)\n", stats.NodeCount, stats.Placeholders)
	for _, t := range []graph.NodeType{graph.NodeTypeClass, graph.NodeTypeFunction, graph.NodeTypeArgument} {
		fmt.Fprintf(w, "  %-16s %d\n", t, stats.NodesByType[t])
	}
	fmt.Fprintf(w, "edges:         %d\n", stats.EdgeCount)
	for _, t := range graph.EdgeTypes {
		fmt.Fprintf(w, "  %-16s %d\n", t, stats.EdgesByType[t])
	}
}
