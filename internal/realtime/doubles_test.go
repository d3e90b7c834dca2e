package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/ripplechat/ripple/internal/domain"
	"github.com/ripplechat/ripple/internal/pubsub"
)

// mockSender records every payload delivered per connection and can be
// told to fail specific connections.
type mockSender struct {
	mu      sync.Mutex
	sent    map[string][][]byte
	failing map[string]bool
}

func newMockSender() *mockSender {
	return &mockSender{
		sent:    make(map[string][][]byte),
		failing: make(map[string]bool),
	}
}

func (m *mockSender) Send(connID string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failing[connID] {
		return errors.New("send buffer full")
	}
	m.sent[connID] = append(m.sent[connID], payload)
	return nil
}

func (m *mockSender) fail(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[connID] = true
}

func (m *mockSender) payloads(connID string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([][]byte, len(m.sent[connID]))
	copy(out, m.sent[connID])
	return out
}

// frames decodes every payload a connection received into wire frames.
func (m *mockSender) frames(connID string) []Frame {
	var frames []Frame
	for _, payload := range m.payloads(connID) {
		var f Frame
		if err := json.Unmarshal(payload, &f); err == nil {
			frames = append(frames, f)
		}
	}
	return frames
}

// countEvent returns how many frames with the given event name a
// connection received.
func (m *mockSender) countEvent(connID, event string) int {
	n := 0
	for _, f := range m.frames(connID) {
		if f.Event == event {
			n++
		}
	}
	return n
}

// mockPublisher captures bus messages by topic.
type mockPublisher struct {
	mu       sync.Mutex
	messages []pubsub.Message
}

func (m *mockPublisher) Publish(_ context.Context, msg pubsub.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) byTopic(topic string) []pubsub.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []pubsub.Message
	for _, msg := range m.messages {
		if msg.Topic == topic {
			out = append(out, msg)
		}
	}
	return out
}

// staticAuthorizer answers joins from a fixed map of userID -> allowed
// conversation IDs.
type staticAuthorizer struct {
	allowed map[string][]string
}

func (a *staticAuthorizer) AuthorizeRoomJoin(_ context.Context, userID, conversationID string) (bool, error) {
	for _, id := range a.allowed[userID] {
		if id == conversationID {
			return true, nil
		}
	}
	return false, nil
}

// allowAll authorizes every join.
type allowAll struct{}

func (allowAll) AuthorizeRoomJoin(context.Context, string, string) (bool, error) {
	return true, nil
}

// stubMessages serves a fixed history slice for every conversation.
type stubMessages struct {
	domain.MessageRepository
	history []*domain.Message
}

func (s *stubMessages) ListRecent(context.Context, string, time.Time, int) ([]*domain.Message, error) {
	return s.history, nil
}
