package realtime

import (
	"encoding/json"
	"testing"

	"github.com/ripplechat/ripple/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodePresence(t *testing.T, payload []byte) PresenceUpdate {
	t.Helper()
	var update PresenceUpdate
	require.NoError(t, json.Unmarshal(payload, &update))
	return update
}

func TestPresence_OnlineOfflineTransitions(t *testing.T) {
	pub := &mockPublisher{}
	p := NewPresence(pub, nil)

	p.HandleOnline("alice")
	p.HandleOffline("alice")

	msgs := pub.byTopic(TopicPresenceStatus.Name())
	require.Len(t, msgs, 2)

	first := decodePresence(t, msgs[0].Payload)
	assert.Equal(t, "alice", first.UserID)
	assert.Equal(t, domain.StatusOnline, first.Status)

	second := decodePresence(t, msgs[1].Payload)
	assert.Equal(t, domain.StatusOffline, second.Status)
	assert.False(t, second.LastSeen.IsZero())
}

func TestPresence_AwayOverride(t *testing.T) {
	pub := &mockPublisher{}
	p := NewPresence(pub, nil)

	p.HandleOnline("alice")
	p.SetStatus("alice", domain.StatusAway)

	assert.Equal(t, domain.StatusAway, p.StatusOf("alice", true))

	// Coming back online clears the override.
	p.SetStatus("alice", domain.StatusOnline)
	assert.Equal(t, domain.StatusOnline, p.StatusOf("alice", true))
}

func TestPresence_ReconnectClearsOverride(t *testing.T) {
	pub := &mockPublisher{}
	p := NewPresence(pub, nil)

	p.SetStatus("alice", domain.StatusAway)
	p.HandleOnline("alice")

	assert.Equal(t, domain.StatusOnline, p.StatusOf("alice", true))
}

func TestPresence_ExplicitOfflineIgnored(t *testing.T) {
	pub := &mockPublisher{}
	p := NewPresence(pub, nil)

	p.HandleOnline("alice")
	before := len(pub.byTopic(TopicPresenceStatus.Name()))

	p.SetStatus("alice", domain.StatusOffline)

	assert.Len(t, pub.byTopic(TopicPresenceStatus.Name()), before, "offline cannot be requested")
	assert.Equal(t, domain.StatusOnline, p.StatusOf("alice", true))
}

func TestPresence_StatusOfOfflineUser(t *testing.T) {
	p := NewPresence(&mockPublisher{}, nil)

	assert.Equal(t, domain.StatusOffline, p.StatusOf("nobody", false))

	// An override never survives into offline resolution.
	p.SetStatus("alice", domain.StatusAway)
	assert.Equal(t, domain.StatusOffline, p.StatusOf("alice", false))
}

func TestPresence_LastSeenTracked(t *testing.T) {
	p := NewPresence(&mockPublisher{}, nil)

	_, ok := p.LastSeen("alice")
	assert.False(t, ok)

	p.HandleOnline("alice")
	ts, ok := p.LastSeen("alice")
	assert.True(t, ok)
	assert.False(t, ts.IsZero())
}
