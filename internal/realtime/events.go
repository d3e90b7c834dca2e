package realtime

import (
	"encoding/json"
	"time"

	"github.com/ripplechat/ripple/internal/domain"
)

// Wire event names shared by inbound signals and outbound broadcasts.
const (
	EventUserConnect       = "user:connect"
	EventUserStatus        = "user:status"
	EventConversationJoin  = "conversation:join"
	EventConversationLeave = "conversation:leave"
	EventTypingStart       = "typing:start"
	EventTypingStop        = "typing:stop"
	EventMessageNew        = "message:new"
	EventMessageEdit       = "message:edit"
	EventMessageDelete     = "message:delete"
	EventMessageReaction   = "message:reaction"
	EventHistory           = "conversation:history"
)

// Frame is the envelope every outbound socket payload travels in.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewFrame marshals data into a wire-ready frame.
func NewFrame(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}

// EventKind classifies a message-lifecycle event for fan-out.
type EventKind string

const (
	KindMessageNew      EventKind = "new"
	KindMessageEdit     EventKind = "edit"
	KindMessageDelete   EventKind = "delete"
	KindMessageReaction EventKind = "reaction"
)

// WireEvent maps a lifecycle kind to the socket event name clients receive.
func (k EventKind) WireEvent() string {
	switch k {
	case KindMessageEdit:
		return EventMessageEdit
	case KindMessageDelete:
		return EventMessageDelete
	case KindMessageReaction:
		return EventMessageReaction
	default:
		return EventMessageNew
	}
}

// MessageEvent is the immutable envelope handed to the dispatcher once per
// persistence operation. The core consumes it exactly once for fan-out and
// never stores it; durability belongs to the persistence layer.
type MessageEvent struct {
	Kind           EventKind       `json:"kind"`
	ConversationID string          `json:"conversationId"`
	Payload        json.RawMessage `json:"payload"`
}

// PresenceUpdate is broadcast globally whenever a user's availability changes.
type PresenceUpdate struct {
	UserID   string                `json:"userId"`
	Status   domain.PresenceStatus `json:"status"`
	LastSeen time.Time             `json:"lastSeen"`
}

// TypingEvent is broadcast to a conversation's room when a member starts or
// stops typing.
type TypingEvent struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
}
