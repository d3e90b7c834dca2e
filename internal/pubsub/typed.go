package pubsub

import (
	"context"
	"encoding/json"

	"github.com/ripplechat/ripple/internal/topicmgr"
)

// Event[T] wraps a topic and provides type-safe publishing: the compiler
// guarantees that only payloads of type T are published to it.
type Event[T any] struct {
	topic topicmgr.Topic
}

// NewEvent creates a typed event bound to an already-registered topic.
func NewEvent[T any](topic topicmgr.Topic) Event[T] {
	return Event[T]{topic: topic}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topic.Name()
}

// Publish sends a typed event. The 'payload' must match T at compile time.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return p.Publish(ctx, Message{
		Topic:   event.Name(),
		Payload: data,
	})
}

// Decode unmarshals a bus message into the event's payload type.
func Decode[T any](e Event[T], msg Message) (T, error) {
	var payload T
	err := json.Unmarshal(msg.Payload, &payload)
	return payload, err
}
