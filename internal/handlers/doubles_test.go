package handlers

import (
	"context"
	"sync"

	"github.com/ripplechat/ripple/internal/pubsub"
)

// capturePublisher records every bus message by topic.
type capturePublisher struct {
	mu       sync.Mutex
	messages []pubsub.Message
}

func (p *capturePublisher) Publish(_ context.Context, msg pubsub.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) byTopic(topic string) []pubsub.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []pubsub.Message
	for _, msg := range p.messages {
		if msg.Topic == topic {
			out = append(out, msg)
		}
	}
	return out
}
