package realtime

import (
	"log/slog"
)

// Sender delivers a payload to a single connection. The websocket bridge
// implements it by enqueueing onto the connection's ordered send channel,
// which is what gives dispatch its per-connection FIFO guarantee.
type Sender interface {
	Send(connID string, payload []byte) error
}

// Dispatcher receives message-lifecycle events from the persistence path
// and fans them out to exactly the connections subscribed to the relevant
// conversation at dispatch time.
//
// A delivery failure to one member never aborts delivery to the rest; the
// failed connection is handed to onFailure for cleanup as if disconnected.
type Dispatcher struct {
	rooms     *Rooms
	sender    Sender
	onFailure func(connID string)
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher. onFailure may be nil.
func NewDispatcher(rooms *Rooms, sender Sender, onFailure func(connID string)) *Dispatcher {
	return &Dispatcher{
		rooms:     rooms,
		sender:    sender,
		onFailure: onFailure,
		logger:    slog.Default().With("component", "dispatcher"),
	}
}

// Dispatch fans a lifecycle event out to the event's conversation room.
// Every member connection receives it, including the sender's own other
// connections: that is what keeps multiple devices in sync. Clients
// tolerate the echo of their own send by applying events idempotently by
// message ID.
func (d *Dispatcher) Dispatch(event MessageEvent) {
	payload, err := NewFrame(event.Kind.WireEvent(), event.Payload)
	if err != nil {
		d.logger.Error("Failed to encode message event", "kind", event.Kind, "error", err)
		return
	}

	members := d.rooms.MembersOf(event.ConversationID)
	d.logger.Debug("Dispatching message event",
		"kind", event.Kind,
		"conversationID", event.ConversationID,
		"recipients", len(members))

	for _, connID := range members {
		d.deliver(connID, payload)
	}
}

// BroadcastTyping relays a typing transition to a conversation's room.
// excludeConn is the originating connection ("" for expiry stops): the
// typist's own tab already shows their state locally.
func (d *Dispatcher) BroadcastTyping(conversationID, userID string, start bool, excludeConn string) {
	event := EventTypingStop
	if start {
		event = EventTypingStart
	}

	payload, err := NewFrame(event, TypingEvent{ConversationID: conversationID, UserID: userID})
	if err != nil {
		d.logger.Error("Failed to encode typing event", "error", err)
		return
	}

	for _, connID := range d.rooms.MembersOf(conversationID) {
		if connID == excludeConn {
			continue
		}
		d.deliver(connID, payload)
	}
}

// SendTo delivers a payload to one specific connection, with the same
// failure cleanup as room fan-out. Used for targeted sends such as the
// history backfill on join.
func (d *Dispatcher) SendTo(connID string, payload []byte) {
	d.deliver(connID, payload)
}

func (d *Dispatcher) deliver(connID string, payload []byte) {
	if err := d.sender.Send(connID, payload); err != nil {
		d.logger.Warn("Delivery failed, scheduling connection cleanup", "connID", connID, "error", err)
		if d.onFailure != nil {
			d.onFailure(connID)
		}
	}
}
