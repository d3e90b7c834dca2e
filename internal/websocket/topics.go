package websocket

import (
	"strings"

	"github.com/ripplechat/ripple/internal/topicmgr"
)

// Framework topics published by the bridge around the socket lifecycle.
// Feature code can subscribe to these without touching the transport.

var (
	// TopicClientReady is published when a connection is accepted and its
	// pumps are running.
	TopicClientReady = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.ready",
		Description: "Published when a WebSocket client successfully connects and is ready",
		Example:     `{"userID":"user123","connectionID":"conn456"}`,
	})

	// TopicClientDisconnected is published after a connection is fully
	// torn down.
	TopicClientDisconnected = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "ws.client.disconnected",
		Description: "Published when a WebSocket client disconnects",
		Example:     `{"userID":"user123","connectionID":"conn456","reason":"client_closed"}`,
	})
)

// RegisterTopics registers the bridge's lifecycle topics with the given
// manager. Idempotent: an already-registered topic is skipped.
func RegisterTopics(manager *topicmgr.Manager) error {
	topics := []topicmgr.Topic{
		TopicClientReady,
		TopicClientDisconnected,
	}

	for _, topic := range topics {
		if err := manager.Register(topic); err != nil {
			if strings.Contains(err.Error(), "already registered") {
				continue
			}
			return err
		}
	}
	return nil
}
