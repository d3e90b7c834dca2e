package pubsub

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillBridge_PublishSubscribe(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan Message, 1)
	err := bridge.Subscribe(ctx, "chat.message.new", func(ctx context.Context, msg Message) error {
		received <- msg
		return nil
	})
	require.NoError(t, err)

	err = bridge.Publish(ctx, Message{
		Topic:   "chat.message.new",
		UserID:  "user1",
		Payload: []byte(`{"content":"hello"}`),
		Metadata: map[string]string{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
	require.NoError(t, err)

	select {
	case msg := <-received:
		assert.Equal(t, "chat.message.new", msg.Topic)
		assert.Equal(t, "user1", msg.UserID)
		assert.JSONEq(t, `{"content":"hello"}`, string(msg.Payload))
		assert.NotEmpty(t, msg.Metadata["timestamp"])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
}

func TestWatermillBridge_TopicsAreIsolated(t *testing.T) {
	bridge := NewWatermillBridge()
	defer bridge.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	err := bridge.Subscribe(ctx, "presence.user.status", func(ctx context.Context, msg Message) error {
		mu.Lock()
		got = append(got, msg.Topic)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)

	require.NoError(t, bridge.Publish(ctx, Message{Topic: "chat.message.new", Payload: []byte(`{}`)}))
	require.NoError(t, bridge.Publish(ctx, Message{Topic: "presence.user.status", Payload: []byte(`{}`)}))

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1 && got[0] == "presence.user.status"
	}, 2*time.Second, 10*time.Millisecond)
}
