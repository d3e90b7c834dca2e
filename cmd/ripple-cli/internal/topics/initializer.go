package topics

import (
	"github.com/ripplechat/ripple/internal/realtime"
	"github.com/ripplechat/ripple/internal/topicmgr"
	"github.com/ripplechat/ripple/internal/websocket"
)

// Initialize registers every topic the server publishes with the default
// topic manager, without starting the server itself. Safe to call more
// than once.
func Initialize() error {
	manager := topicmgr.Default()
	if err := realtime.RegisterTopics(manager); err != nil {
		return err
	}
	return websocket.RegisterTopics(manager)
}
