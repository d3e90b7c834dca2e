package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ripplechat/ripple/cmd/ripple-cli/internal/topics"
	"github.com/ripplechat/ripple/internal/topicmgr"
)

var (
	listOutputFormat string
	listModuleFilter string
	listScopeFilter  string
)

// topicsListCmd represents the topics list command
var topicsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all registered topics",
	Long: `List all topics the Ripple server registers on its event bus. This
command helps operators discover what flows through the bus without
reading the source.

Examples:
  ripple-cli topics list                      # List all topics in table format
  ripple-cli topics list --format json       # List all topics in JSON format
  ripple-cli topics list --module chat       # Show only chat module topics
  ripple-cli topics list --scope framework   # Show only framework-level topics

Output formats:
  table - Human-readable table format (default)
  json  - Machine-readable JSON format`,
	Run: topicsListHandler,
}

func topicsListHandler(cmd *cobra.Command, args []string) {
	if err := topics.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize topics: %v\n", err)
		os.Exit(1)
	}

	manager := topicmgr.Default()
	var topicList []topicmgr.Topic

	switch {
	case listModuleFilter != "" && listScopeFilter != "":
		scope := parseScope(listScopeFilter)
		if scope == "" {
			fmt.Fprintf(os.Stderr, "Error: Invalid scope '%s'. Valid scopes: framework, module\n", listScopeFilter)
			os.Exit(1)
		}
		for _, topic := range manager.ListByModule(listModuleFilter) {
			if topic.Scope() == scope {
				topicList = append(topicList, topic)
			}
		}
	case listModuleFilter != "":
		topicList = manager.ListByModule(listModuleFilter)
	case listScopeFilter != "":
		scope := parseScope(listScopeFilter)
		if scope == "" {
			fmt.Fprintf(os.Stderr, "Error: Invalid scope '%s'. Valid scopes: framework, module\n", listScopeFilter)
			os.Exit(1)
		}
		topicList = manager.ListByScope(scope)
	default:
		topicList = manager.List()
	}

	if len(topicList) == 0 {
		message := "No topics found"
		var filters []string
		if listModuleFilter != "" {
			filters = append(filters, fmt.Sprintf("module '%s'", listModuleFilter))
		}
		if listScopeFilter != "" {
			filters = append(filters, fmt.Sprintf("scope '%s'", listScopeFilter))
		}
		if len(filters) > 0 {
			message += " matching: " + strings.Join(filters, ", ")
		}
		fmt.Println(message)
		return
	}

	switch listOutputFormat {
	case "json":
		if err := topics.DisplayTopicsJSON(topicList); err != nil {
			fmt.Fprintf(os.Stderr, "Error: Failed to encode JSON: %v\n", err)
			os.Exit(1)
		}
	case "table":
		topics.DisplayTopicsTable(topicList)
	default:
		fmt.Fprintf(os.Stderr, "Error: Unsupported output format '%s'. Use 'table' or 'json'\n", listOutputFormat)
		os.Exit(1)
	}
}

// parseScope converts string scope to topicmgr.TopicScope
func parseScope(scopeStr string) topicmgr.TopicScope {
	switch strings.ToLower(scopeStr) {
	case "framework":
		return topicmgr.ScopeFramework
	case "module":
		return topicmgr.ScopeModule
	default:
		return ""
	}
}

func init() {
	topicsCmd.AddCommand(topicsListCmd)

	topicsListCmd.Flags().StringVarP(&listOutputFormat, "format", "f", "table", "Output format (table, json)")
	topicsListCmd.Flags().StringVarP(&listModuleFilter, "module", "m", "", "Filter topics by module name")
	topicsListCmd.Flags().StringVarP(&listScopeFilter, "scope", "s", "", "Filter topics by scope (framework, module)")
}
