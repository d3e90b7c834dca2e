package cmd

import (
	"github.com/spf13/cobra"
)

// topicsCmd groups the topic discovery subcommands.
var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "Manage and explore Ripple event bus topics",
	Long: `The topics command provides tools for discovering and inspecting the
topics Ripple publishes on its event bus. Topics carry message lifecycle
events, presence transitions, and websocket lifecycle notifications.

Available subcommands:
  list  List all registered topics with optional filtering
  get   Get detailed information about a specific topic

Examples:
  # List all topics
  ripple-cli topics list

  # List framework-level topics only
  ripple-cli topics list --scope=framework

  # Get detailed information about a topic
  ripple-cli topics get chat.message.new

Use "ripple-cli topics [command] --help" for more information about a specific command.`,
}

func init() {
	rootCmd.AddCommand(topicsCmd)
}
