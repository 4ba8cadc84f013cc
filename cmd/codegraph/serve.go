package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/codegraph/internal/config"
	"github.com/dusk-indust/codegraph/internal/graph"
	"github.com/dusk-indust/codegraph/internal/mcptools"
)

type serveFlags struct {
	Addr  string
	Stdio bool
}

func newServeMCPCmd(global *globalFlags) *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Run the knowledge graph tools as an MCP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd, global, ".")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := graph.OpenStore(ctx, cfg.StoreKind(), cfg.ResolveDBPath("."))
			if err != nil {
				return fmt.Errorf("open %s store: %w", cfg.StoreKind(), err)
			}
			defer store.Close()

			svc := mcptools.NewCodeIntelService(store, cfg.Workers, logger)
			if flags.Stdio {
				return mcptools.RunMCPServerStdio(ctx, svc)
			}

			addr := cfg.ListenAddr()
			if flags.Addr != "" {
				addr = flags.Addr
			}
			logger.Info("serving MCP over HTTP", slog.String("addr", addr), slog.String("store", string(cfg.StoreKind())))
			return mcptools.RunMCPServer(ctx, svc, addr)
		},
	}

	cmd.Flags().StringVar(&flags.Addr, "addr", "", "HTTP listen address (default: config mcpAddr or "+config.DefaultMCPAddr+")")
	cmd.Flags().BoolVar(&flags.Stdio, "stdio", false, "serve over stdin/stdout instead of HTTP")
	return cmd
}
