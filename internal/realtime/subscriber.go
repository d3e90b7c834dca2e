package realtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ripplechat/ripple/internal/pubsub"
)

// MessageLifecycleEvent binds the lifecycle topic to its payload shape.
// The HTTP handlers publish through it; the subscriber decodes through it.
var MessageLifecycleEvent = pubsub.NewEvent[MessageEvent](TopicMessageLifecycle)

// Subscriber bridges the pub/sub bus to the gateway: every persisted
// message mutation published by the HTTP layer arrives here and is handed
// to the dispatcher for room fan-out. This keeps the socket layer a pure
// consumer; clients never re-broadcast their own messages.
type Subscriber struct {
	gateway *Gateway
	bus     pubsub.Subscriber
	logger  *slog.Logger
}

func NewSubscriber(gateway *Gateway, bus pubsub.Subscriber) *Subscriber {
	return &Subscriber{
		gateway: gateway,
		bus:     bus,
		logger:  slog.Default().With("component", "realtime_subscriber"),
	}
}

// Start subscribes to the message lifecycle topic. The single
// subscription matters: all kinds arrive on one queue, so dispatch order
// matches publish order and an edit never reaches a room before the
// message it edits. The handler runs until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	err := s.bus.Subscribe(ctx, MessageLifecycleEvent.Name(), func(ctx context.Context, msg pubsub.Message) error {
		return s.handle(msg)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", MessageLifecycleEvent.Name(), err)
	}

	s.logger.Info("Real-time subscriber started", "topic", MessageLifecycleEvent.Name())
	return nil
}

func (s *Subscriber) handle(msg pubsub.Message) error {
	payload, err := pubsub.Decode(MessageLifecycleEvent, msg)
	if err != nil {
		s.logger.Error("Failed to decode message event", "topic", msg.Topic, "error", err)
		// Malformed payloads are dropped, not retried.
		return nil
	}

	s.gateway.Dispatch(payload)
	return nil
}
