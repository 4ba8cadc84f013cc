package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/codegraph/internal/export"
	"github.com/dusk-indust/codegraph/internal/graph"
)

type exportFlags struct {
	Format    string
	Output    string
	Arguments bool
}

func newExportCmd(global *globalFlags) *cobra.Command {
	var flags exportFlags

	cmd := &cobra.Command{
		Use:   "export <root>",
		Short: "Print the knowledge graph of a Python project as JSON or Mermaid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]
			if flags.Format != "json" && flags.Format != "mermaid" {
				return fmt.Errorf("unknown format %q (want json or mermaid)", flags.Format)
			}
			cfg, logger, err := setup(cmd, global, root)
			if err != nil {
				return err
			}

			res, err := graph.Build(cmd.Context(), root, graph.BuildOptions{
				Collector: cfg.CollectorOptions(),
				Workers:   cfg.Workers,
				Logger:    logger,
			})
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if flags.Output != "" {
				f, err := os.Create(flags.Output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}

			if flags.Format == "mermaid" {
				_, err = io.WriteString(w, export.GenerateMermaid(res.Graph, export.MermaidOptions{Arguments: flags.Arguments}))
				return err
			}
			if err := export.WriteJSON(w, export.ExportGraph(root, res)); err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.Format, "format", "f", "json", "output format: json or mermaid")
	cmd.Flags().StringVarP(&flags.Output, "output", "o", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&flags.Arguments, "arguments", false, "include argument nodes in Mermaid output")
	return cmd
}
