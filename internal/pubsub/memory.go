package pubsub

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/codebattle-go/internal/model"
)

// subscriberBuffer is the per-subscriber event buffer size. A slow consumer
// drops events rather than blocking publishers; the relay's poll observer
// reconciles any gap.
const subscriberBuffer = 64

// MemoryBus is an in-process PubSub implementation. It backs single-node
// deployments and deterministic tests.
type MemoryBus struct {
	mu     sync.RWMutex
	topics map[string]map[*memorySubscription]bool
	logger *slog.Logger
}

// Ensure MemoryBus implements PubSub
var _ PubSub = (*MemoryBus)(nil)

// NewMemoryBus creates a new in-process bus
func NewMemoryBus(logger *slog.Logger) *MemoryBus {
	return &MemoryBus{
		topics: make(map[string]map[*memorySubscription]bool),
		logger: logger.With(slog.String("component", "pubsub")),
	}
}

// Publish sends the event to all current subscribers of the topic
func (b *MemoryBus) Publish(ctx context.Context, topic string, event model.ProgressEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.topics[topic] {
		select {
		case sub.events <- event:
		default:
			b.logger.Warn("event dropped - subscriber buffer full",
				slog.String("topic", topic),
				slog.String("player_id", string(event.PlayerID)),
			)
		}
	}
	return nil
}

// Subscribe registers a new subscription for the topic
func (b *MemoryBus) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	sub := &memorySubscription{
		bus:    b,
		topic:  topic,
		events: make(chan model.ProgressEvent, subscriberBuffer),
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[*memorySubscription]bool)
	}
	b.topics[topic][sub] = true
	return sub, nil
}

// SubscriberCount returns the number of live subscriptions for a topic
func (b *MemoryBus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.topics[topic])
}

type memorySubscription struct {
	bus    *MemoryBus
	topic  string
	events chan model.ProgressEvent

	closeOnce sync.Once
}

func (s *memorySubscription) Events() <-chan model.ProgressEvent {
	return s.events
}

func (s *memorySubscription) Close() error {
	s.closeOnce.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.topics[s.topic], s)
		if len(s.bus.topics[s.topic]) == 0 {
			delete(s.bus.topics, s.topic)
		}
		s.bus.mu.Unlock()
		close(s.events)
	})
	return nil
}
