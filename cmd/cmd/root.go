package cmd

import (
	"context"

	"github.com/ostafen/pronomid/internal/env"
	"github.com/spf13/cobra"
)

func Execute(ctx context.Context) error {
	rootCmd := &cobra.Command{
		Use:   env.AppName,
		Short: env.AppName + " - PRONOM file format identification tool",
	}

	rootCmd.PersistentFlags().String("log-level", "INFO", "minimum log level (DEBUG, INFO, WARN, ERROR)")

	rootCmd.AddCommand(
		DefineIdentifyCommand(),
		DefineFormatsCommand(),
		DefineMountCommand(),
		DefineVersionCommand(),
	)

	return rootCmd.ExecuteContext(ctx)
}
