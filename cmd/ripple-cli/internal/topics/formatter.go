package topics

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ripplechat/ripple/internal/topicmgr"
)

// TopicDisplay represents a topic for display purposes
type TopicDisplay struct {
	Name        string `json:"name"`
	Scope       string `json:"scope"`
	Module      string `json:"module"`
	Description string `json:"description"`
	Example     string `json:"example"`
}

func newTopicDisplay(topic topicmgr.Topic) TopicDisplay {
	return TopicDisplay{
		Name:        topic.Name(),
		Scope:       string(topic.Scope()),
		Module:      topic.Module(),
		Description: topic.Description(),
		Example:     topic.Example(),
	}
}

// DisplayTopicsTable displays topics in a formatted table
func DisplayTopicsTable(topics []topicmgr.Topic) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NAME\tSCOPE\tMODULE\tDESCRIPTION\tEXAMPLE")
	fmt.Fprintln(w, "----\t-----\t------\t-----------\t-------")

	for _, topic := range topics {
		module := topic.Module()
		if module == "" {
			module = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			topic.Name(),
			topic.Scope(),
			module,
			truncateString(topic.Description(), 40),
			truncateString(topic.Example(), 30))
	}
}

// DisplayTopicsJSON displays topics in JSON format
func DisplayTopicsJSON(topics []topicmgr.Topic) error {
	topicDisplays := make([]TopicDisplay, len(topics))
	for i, topic := range topics {
		topicDisplays[i] = newTopicDisplay(topic)
	}

	output := struct {
		Topics []TopicDisplay `json:"topics"`
		Count  int            `json:"count"`
	}{
		Topics: topicDisplays,
		Count:  len(topicDisplays),
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// DisplayTopicDetails displays detailed information for a specific topic
func DisplayTopicDetails(topic topicmgr.Topic, format string) error {
	if format == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(newTopicDisplay(topic))
	}

	fmt.Printf("Name:        %s\n", topic.Name())
	fmt.Printf("Scope:       %s\n", topic.Scope())
	fmt.Printf("Module:      %s\n", topic.Module())
	fmt.Printf("Description: %s\n", topic.Description())
	fmt.Printf("Example:     %s\n", topic.Example())
	return nil
}

// truncateString truncates a string to maxLen characters, adding "..." if truncated
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return "..."
	}
	return s[:maxLen-3] + "..."
}
