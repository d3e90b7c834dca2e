package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ripplechat/ripple/cmd/ripple-cli/internal/topics"
	"github.com/ripplechat/ripple/internal/topicmgr"
)

var getOutputFormat string

// topicsGetCmd represents the topics get command
var topicsGetCmd = &cobra.Command{
	Use:   "get <topic-name>",
	Short: "Get detailed information about a specific topic",
	Long: `Get detailed information about a single topic: name, scope, owning
module, description, and an example payload.

Examples:
  ripple-cli topics get chat.message.new
  ripple-cli topics get presence.user.status --format json`,
	Args: cobra.ExactArgs(1),
	Run:  topicsGetHandler,
}

func topicsGetHandler(cmd *cobra.Command, args []string) {
	topicName := args[0]

	if err := topics.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize topics: %v\n", err)
		os.Exit(1)
	}

	topic, found := topicmgr.Default().Get(topicName)
	if !found {
		fmt.Fprintf(os.Stderr, "Error: Topic '%s' not found\n", topicName)
		fmt.Fprintf(os.Stderr, "\nUse 'ripple-cli topics list' to see all available topics.\n")
		os.Exit(1)
	}

	if err := topics.DisplayTopicDetails(topic, getOutputFormat); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to display topic details: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	topicsCmd.AddCommand(topicsGetCmd)

	topicsGetCmd.Flags().StringVarP(&getOutputFormat, "format", "f", "table", "Output format (table, json)")
}
