package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the hello-audit CLI. Subcommands are attached in wire.go.
var rootCmd = &cobra.Command{
	Use:           "hello-audit",
	Short:         "hello-audit developer CLI",
	Long:          "Developer utilities for the hello-audit API (dev tokens, session keys).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
