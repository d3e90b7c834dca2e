package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ripplechat/ripple/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, sender Sender, pub *mockPublisher) *Gateway {
	t.Helper()
	if pub == nil {
		pub = &mockPublisher{}
	}
	g := NewGateway(GatewayConfig{
		Sender:        sender,
		Presence:      NewPresence(pub, nil),
		Authorizer:    allowAll{},
		TypingTimeout: time.Minute,
	})
	t.Cleanup(g.Close)
	return g
}

func TestGateway_MultiConnectionPresence(t *testing.T) {
	pub := &mockPublisher{}
	g := newTestGateway(t, newMockSender(), pub)

	// Two tabs for the same user: online fires once, on the first.
	g.Connect("tab-1")
	g.Connect("tab-2")
	g.Announce("tab-1", "alice")
	g.Announce("tab-2", "alice")

	require.Len(t, pub.byTopic(TopicPresenceStatus.Name()), 1)
	assert.True(t, g.IsOnline("alice"))

	// Closing one tab changes nothing; closing the last flips offline.
	g.Disconnect("tab-1")
	assert.True(t, g.IsOnline("alice"))
	require.Len(t, pub.byTopic(TopicPresenceStatus.Name()), 1)

	g.Disconnect("tab-2")
	assert.False(t, g.IsOnline("alice"))

	msgs := pub.byTopic(TopicPresenceStatus.Name())
	require.Len(t, msgs, 2)
	last := decodePresence(t, msgs[1].Payload)
	assert.Equal(t, domain.StatusOffline, last.Status)
}

func TestGateway_JoinAuthorization(t *testing.T) {
	sender := newMockSender()
	g := NewGateway(GatewayConfig{
		Sender:   sender,
		Presence: NewPresence(&mockPublisher{}, nil),
		Authorizer: &staticAuthorizer{allowed: map[string][]string{
			"alice": {"conv-1"},
		}},
	})
	defer g.Close()

	g.Connect("conn-1")
	g.Announce("conn-1", "alice")

	require.NoError(t, g.Join(context.Background(), "conn-1", "conv-1"))
	assert.True(t, g.rooms.Contains("conn-1", "conv-1"))

	err := g.Join(context.Background(), "conn-1", "conv-secret")
	assert.ErrorIs(t, err, domain.ErrNotMember)
	assert.False(t, g.rooms.Contains("conn-1", "conv-secret"))
}

func TestGateway_JoinUnannouncedIsNoOp(t *testing.T) {
	g := newTestGateway(t, newMockSender(), nil)
	g.Connect("conn-1")

	require.NoError(t, g.Join(context.Background(), "conn-1", "conv-1"))
	assert.False(t, g.rooms.Contains("conn-1", "conv-1"))
}

func TestGateway_JoinBackfillsHistory(t *testing.T) {
	sender := newMockSender()
	pub := &mockPublisher{}
	g := NewGateway(GatewayConfig{
		Sender:     sender,
		Presence:   NewPresence(pub, nil),
		Authorizer: allowAll{},
		Messages: &stubMessages{history: []*domain.Message{
			{ID: "msg-1", ConversationID: "conv-1", Content: "hello"},
			{ID: "msg-2", ConversationID: "conv-1", Content: "world"},
		}},
	})
	defer g.Close()

	g.Connect("conn-1")
	g.Announce("conn-1", "alice")
	require.NoError(t, g.Join(context.Background(), "conn-1", "conv-1"))

	frames := sender.frames("conn-1")
	require.Len(t, frames, 1)
	assert.Equal(t, EventHistory, frames[0].Event)

	var payload HistoryPayload
	require.NoError(t, json.Unmarshal(frames[0].Data, &payload))
	assert.Equal(t, "conv-1", payload.ConversationID)
	require.Len(t, payload.Messages, 2)
	assert.Equal(t, "msg-1", payload.Messages[0].ID)
}

func TestGateway_TypingFlow(t *testing.T) {
	sender := newMockSender()
	g := newTestGateway(t, sender, nil)

	g.Connect("conn-alice")
	g.Connect("conn-bob")
	g.Announce("conn-alice", "alice")
	g.Announce("conn-bob", "bob")
	require.NoError(t, g.Join(context.Background(), "conn-alice", "conv-1"))
	require.NoError(t, g.Join(context.Background(), "conn-bob", "conv-1"))

	g.TypingStart("conn-alice", "conv-1")
	g.TypingStart("conn-alice", "conv-1") // keystroke refresh

	assert.Equal(t, 1, sender.countEvent("conn-bob", EventTypingStart), "one start per session")
	assert.Equal(t, 0, sender.countEvent("conn-alice", EventTypingStart), "typist excluded")

	g.TypingStop("conn-alice", "conv-1")
	assert.Equal(t, 1, sender.countEvent("conn-bob", EventTypingStop))
}

func TestGateway_TypingExpiryEmitsSingleStop(t *testing.T) {
	sender := newMockSender()
	g := NewGateway(GatewayConfig{
		Sender:        sender,
		Presence:      NewPresence(&mockPublisher{}, nil),
		Authorizer:    allowAll{},
		TypingTimeout: 20 * time.Millisecond,
	})
	defer g.Close()

	g.Connect("conn-alice")
	g.Connect("conn-bob")
	g.Announce("conn-alice", "alice")
	g.Announce("conn-bob", "bob")
	require.NoError(t, g.Join(context.Background(), "conn-alice", "conv-1"))
	require.NoError(t, g.Join(context.Background(), "conn-bob", "conv-1"))

	g.TypingStart("conn-alice", "conv-1")

	assert.Eventually(t, func() bool {
		return sender.countEvent("conn-bob", EventTypingStop) == 1
	}, time.Second, 5*time.Millisecond)

	// A stop arriving after the expiry must not produce a second event.
	g.TypingStop("conn-alice", "conv-1")
	assert.Equal(t, 1, sender.countEvent("conn-bob", EventTypingStop))
}

func TestGateway_TypingRequiresRoomMembership(t *testing.T) {
	sender := newMockSender()
	g := newTestGateway(t, sender, nil)

	g.Connect("conn-alice")
	g.Connect("conn-bob")
	g.Announce("conn-alice", "alice")
	g.Announce("conn-bob", "bob")
	require.NoError(t, g.Join(context.Background(), "conn-bob", "conv-1"))

	// Alice never joined conv-1; her typing signal is dropped.
	g.TypingStart("conn-alice", "conv-1")
	assert.Equal(t, 0, sender.countEvent("conn-bob", EventTypingStart))
}

func TestGateway_DisconnectClearsTyping(t *testing.T) {
	sender := newMockSender()
	g := newTestGateway(t, sender, nil)

	g.Connect("conn-alice")
	g.Connect("conn-bob")
	g.Announce("conn-alice", "alice")
	g.Announce("conn-bob", "bob")
	require.NoError(t, g.Join(context.Background(), "conn-alice", "conv-1"))
	require.NoError(t, g.Join(context.Background(), "conn-bob", "conv-1"))

	g.TypingStart("conn-alice", "conv-1")
	g.Disconnect("conn-alice")

	assert.Equal(t, 1, sender.countEvent("conn-bob", EventTypingStop),
		"disconnect must clear the ghost typing indicator")
	assert.Empty(t, g.typing.TypingIn("conv-1"))
	assert.False(t, g.rooms.Contains("conn-alice", "conv-1"))
}

func TestGateway_DisconnectWithRemainingConnectionKeepsTyping(t *testing.T) {
	sender := newMockSender()
	g := newTestGateway(t, sender, nil)

	g.Connect("tab-1")
	g.Connect("tab-2")
	g.Connect("conn-bob")
	g.Announce("tab-1", "alice")
	g.Announce("tab-2", "alice")
	g.Announce("conn-bob", "bob")
	require.NoError(t, g.Join(context.Background(), "tab-1", "conv-1"))
	require.NoError(t, g.Join(context.Background(), "conn-bob", "conv-1"))

	g.TypingStart("tab-1", "conv-1")
	g.Disconnect("tab-2")

	assert.Equal(t, 0, sender.countEvent("conn-bob", EventTypingStop),
		"typing survives while another connection remains")
	assert.ElementsMatch(t, []string{"alice"}, g.typing.TypingIn("conv-1"))
}

func TestGateway_DispatchReachesAllOwnConnections(t *testing.T) {
	sender := newMockSender()
	g := newTestGateway(t, sender, nil)

	g.Connect("tab-1")
	g.Connect("tab-2")
	g.Announce("tab-1", "alice")
	g.Announce("tab-2", "alice")
	require.NoError(t, g.Join(context.Background(), "tab-1", "conv-1"))
	require.NoError(t, g.Join(context.Background(), "tab-2", "conv-1"))

	g.Dispatch(MessageEvent{
		Kind:           KindMessageNew,
		ConversationID: "conv-1",
		Payload:        json.RawMessage(`{"id":"msg-1"}`),
	})

	// Both devices receive the event, including the one that sent it.
	assert.Equal(t, 1, sender.countEvent("tab-1", EventMessageNew))
	assert.Equal(t, 1, sender.countEvent("tab-2", EventMessageNew))
}

func TestGateway_DeliveryFailureDisconnects(t *testing.T) {
	sender := newMockSender()
	pub := &mockPublisher{}
	g := newTestGateway(t, sender, pub)

	g.Connect("conn-bad")
	g.Announce("conn-bad", "alice")
	require.NoError(t, g.Join(context.Background(), "conn-bad", "conv-1"))

	sender.fail("conn-bad")
	g.Dispatch(MessageEvent{Kind: KindMessageNew, ConversationID: "conv-1", Payload: json.RawMessage(`{}`)})

	assert.Eventually(t, func() bool {
		return !g.IsOnline("alice")
	}, time.Second, 5*time.Millisecond, "failed connection cleaned up as if disconnected")
}

func TestGateway_OfflineDebounce(t *testing.T) {
	pub := &mockPublisher{}
	g := NewGateway(GatewayConfig{
		Sender:          newMockSender(),
		Presence:        NewPresence(pub, nil),
		Authorizer:      allowAll{},
		OfflineDebounce: 30 * time.Millisecond,
	})
	defer g.Close()

	g.Connect("conn-1")
	g.Announce("conn-1", "alice")
	g.Disconnect("conn-1")

	// A reload reconnects well inside the grace window.
	g.Connect("conn-2")
	g.Announce("conn-2", "alice")

	time.Sleep(80 * time.Millisecond)

	for _, msg := range pub.byTopic(TopicPresenceStatus.Name()) {
		update := decodePresence(t, msg.Payload)
		assert.NotEqual(t, domain.StatusOffline, update.Status,
			"a reload inside the grace window must not flap offline")
	}

	// A real departure flips offline after the window.
	g.Disconnect("conn-2")
	assert.Eventually(t, func() bool {
		msgs := pub.byTopic(TopicPresenceStatus.Name())
		if len(msgs) == 0 {
			return false
		}
		last := decodePresence(t, msgs[len(msgs)-1].Payload)
		return last.Status == domain.StatusOffline
	}, time.Second, 5*time.Millisecond)
}

func TestGateway_StatusOverrideLifecycle(t *testing.T) {
	g := newTestGateway(t, newMockSender(), nil)

	g.Connect("conn-1")
	g.Announce("conn-1", "alice")
	assert.Equal(t, domain.StatusOnline, g.StatusOf("alice"))

	g.SetStatus("conn-1", domain.StatusAway)
	assert.Equal(t, domain.StatusAway, g.StatusOf("alice"))

	g.Disconnect("conn-1")
	assert.Equal(t, domain.StatusOffline, g.StatusOf("alice"))

	// Overrides from unannounced connections are dropped.
	g.Connect("conn-2")
	g.SetStatus("conn-2", domain.StatusAway)
	assert.Equal(t, domain.StatusOffline, g.StatusOf("alice"))
}
