package websocket

import (
	"testing"

	"github.com/ripplechat/ripple/internal/realtime"
	"github.com/stretchr/testify/assert"
)

func TestSignalWhitelist_IsAllowed(t *testing.T) {
	w := NewSignalWhitelist("typing:start", "typing:stop")

	assert.True(t, w.IsAllowed("typing:start"))
	assert.True(t, w.IsAllowed("typing:stop"))
	assert.False(t, w.IsAllowed("message:new"))
	assert.False(t, w.IsAllowed(""))
}

func TestSignalWhitelist_EmptyEventsFiltered(t *testing.T) {
	w := NewSignalWhitelist("typing:start", "", "typing:stop")

	assert.True(t, w.IsAllowed("typing:start"))
	assert.False(t, w.IsAllowed(""))
}

func TestSignalWhitelist_AddEvent(t *testing.T) {
	w := NewSignalWhitelist()

	assert.NoError(t, w.AddEvent("custom:event"))
	assert.True(t, w.IsAllowed("custom:event"))

	assert.ErrorIs(t, w.AddEvent("custom:event"), ErrEventAlreadyExists)
	assert.ErrorIs(t, w.AddEvent(""), ErrInvalidEvent)
}

func TestDefaultSignalWhitelist_MessageSendsExcluded(t *testing.T) {
	w := DefaultSignalWhitelist()

	assert.True(t, w.IsAllowed(realtime.EventUserConnect))
	assert.True(t, w.IsAllowed(realtime.EventConversationJoin))
	assert.True(t, w.IsAllowed(realtime.EventTypingStart))

	// Messages travel over HTTP, never as raw socket signals.
	assert.False(t, w.IsAllowed(realtime.EventMessageNew))
	assert.False(t, w.IsAllowed(realtime.EventMessageEdit))
}
