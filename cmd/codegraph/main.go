package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/codegraph/internal/config"
	"github.com/dusk-indust/codegraph/internal/logging"
)

// version is set by goreleaser at build time.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	ConfigDir string
	Verbose   bool
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "codegraph",
		Short:         "Build a knowledge graph of a Python codebase",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.ConfigDir, "config-dir", "", "directory holding codegraph.yml and .env (default: the analyzed root, or the working directory)")
	root.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newBuildCmd(&flags),
		newExportCmd(&flags),
		newDumpCmd(&flags),
		newServeMCPCmd(&flags),
		newStatusCmd(&flags),
		newVersionCmd(),
	)
	return root
}

// setup loads the project config from flags.ConfigDir, or fallbackDir when
// unset, and builds the logger. The logger writes to the command's error
// stream so that tests can capture it.
func setup(cmd *cobra.Command, flags *globalFlags, fallbackDir string) (*config.ProjectConfig, *slog.Logger, error) {
	dir := flags.ConfigDir
	if dir == "" {
		dir = fallbackDir
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger := logging.NewWriter(cmd.ErrOrStderr(), flags.Verbose || cfg.Verbose)
	return cfg, logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
