package main

import (
	"github.com/spf13/cobra"

	"github.com/dusk-indust/codegraph/internal/graph"
	"github.com/dusk-indust/codegraph/internal/status"
)

func newStatusCmd(global *globalFlags) *cobra.Command {
	var storeKind, dbPath string

	cmd := &cobra.Command{
		Use:   "status [root]",
		Short: "Show whether a graph has been built for a project and how large it is",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			cfg, _, err := setup(cmd, global, root)
			if err != nil {
				return err
			}
			if storeKind != "" {
				cfg.Store = graph.StoreKind(storeKind)
			}
			if dbPath != "" {
				cfg.DBPath = dbPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			st, err := status.Inspect(cmd.Context(), cfg.StoreKind(), cfg.ResolveDBPath(root))
			if err != nil {
				return err
			}
			status.Print(cmd.OutOrStdout(), st)
			return nil
		},
	}

	cmd.Flags().StringVar(&storeKind, "store", "", "graph store: kuzu, sqlite or memory (overrides config)")
	cmd.Flags().StringVar(&dbPath, "db", "", "database path (overrides config)")
	return cmd
}
