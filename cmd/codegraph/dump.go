package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/codegraph/internal/graph"
	"github.com/dusk-indust/codegraph/internal/logging"
)

func newDumpCmd(global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file.py>",
		Short: "Print the syntax tree of one Python file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewWriter(cmd.ErrOrStderr(), global.Verbose)
			out := graph.NewExtractor(logger).Dump(args[0])
			if out == "" {
				return fmt.Errorf("cannot parse %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
