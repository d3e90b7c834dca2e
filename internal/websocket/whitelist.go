package websocket

import (
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/ripplechat/ripple/internal/realtime"
)

var (
	// ErrEventAlreadyExists is returned when adding a duplicate event.
	ErrEventAlreadyExists = errors.New("event already exists in whitelist")
	// ErrInvalidEvent is returned when an empty event is provided.
	ErrInvalidEvent = errors.New("event cannot be empty")
)

// signalWhitelist is the set of events clients are allowed to send.
// Anything outside it is dropped before any payload decoding happens.
type signalWhitelist struct {
	mu            sync.RWMutex
	allowedEvents []string
}

// NewSignalWhitelist creates a whitelist with the given allowed events.
func NewSignalWhitelist(allowedEvents ...string) *signalWhitelist {
	valid := make([]string, 0, len(allowedEvents))
	for _, event := range allowedEvents {
		if event != "" {
			valid = append(valid, event)
		}
	}

	return &signalWhitelist{allowedEvents: valid}
}

// IsAllowed checks if an event is in the whitelist in a thread-safe manner.
func (w *signalWhitelist) IsAllowed(event string) bool {
	if event == "" {
		return false
	}

	w.mu.RLock()
	defer w.mu.RUnlock()

	return slices.Contains(w.allowedEvents, event)
}

// AddEvent adds an event to the whitelist in a thread-safe manner.
func (w *signalWhitelist) AddEvent(event string) error {
	if event == "" {
		slog.Warn("attempted to add empty event to whitelist")
		return ErrInvalidEvent
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if slices.Contains(w.allowedEvents, event) {
		return ErrEventAlreadyExists
	}

	w.allowedEvents = append(w.allowedEvents, event)
	return nil
}

// DefaultSignalWhitelist allows exactly the real-time signals the gateway
// understands. Message sends deliberately stay off this list: messages
// enter over HTTP and reach sockets only via the dispatcher.
func DefaultSignalWhitelist() *signalWhitelist {
	return NewSignalWhitelist(
		realtime.EventUserConnect,
		realtime.EventUserStatus,
		realtime.EventConversationJoin,
		realtime.EventConversationLeave,
		realtime.EventTypingStart,
		realtime.EventTypingStop,
	)
}
