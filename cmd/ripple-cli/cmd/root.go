package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ripple-cli",
	Short: "Ripple CLI tool",
	Long: `Ripple CLI is a command-line interface for operating the Ripple chat server.

Available commands:
  topics    Discover and inspect the event bus topics the server publishes

Use "ripple-cli [command] --help" for more information about a specific command.`,
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
