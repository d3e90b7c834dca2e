package realtime

import "github.com/ripplechat/ripple/internal/topicmgr"

// Topics carried on the pub/sub bus by the real-time layer. The lifecycle
// topic is published by the HTTP handlers after each durable mutation; the
// gateway subscribes and fans the events out to rooms.

var (
	// TopicPresenceStatus carries global presence transitions.
	TopicPresenceStatus = topicmgr.DefineFramework(topicmgr.TopicConfig{
		Name:        "presence.user.status",
		Description: "Published when a user's availability changes (online, away, offline)",
		Example:     `{"userId":"user123","status":"online","lastSeen":"2024-01-01T00:00:00Z"}`,
	})

	// TopicMessageLifecycle carries every message mutation: new, edit,
	// delete, reaction. All kinds share one topic so a single ordered
	// subscription sees them in publish order; an edit or delete can
	// never overtake the creation it references. The event's Kind field
	// discriminates.
	TopicMessageLifecycle = topicmgr.DefineModule(topicmgr.TopicConfig{
		Name:        "chat.message.lifecycle",
		Description: "A message was created, edited, deleted, or had a reaction change; fanned out to its conversation room",
		Example:     `{"kind":"new","conversationId":"conv1","payload":{...}}`,
	})
)

// RegisterTopics registers all real-time topics with the default topic
// manager. Safe to call once at startup.
func RegisterTopics(manager *topicmgr.Manager) error {
	topics := []topicmgr.Topic{
		TopicPresenceStatus,
		TopicMessageLifecycle,
	}

	for _, topic := range topics {
		if err := manager.Register(topic); err != nil {
			return err
		}
	}
	return nil
}
