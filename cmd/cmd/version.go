package cmd

import (
	"fmt"

	"github.com/ostafen/pronomid/internal/env"
	"github.com/spf13/cobra"
)

func DefineVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit %s, built %s)\n",
				env.AppName, env.Version, env.CommitHash, env.BuildTime)
		},
	}
}
