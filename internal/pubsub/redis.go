package pubsub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/codebattle-go/internal/model"
)

// RedisBus is a Redis pub/sub backed implementation of PubSub, for
// deployments where sessions for the two participants may live on
// different nodes.
type RedisBus struct {
	client *redis.Client
	logger *slog.Logger
}

// Ensure RedisBus implements PubSub
var _ PubSub = (*RedisBus)(nil)

// NewRedisBus creates a bus on an existing Redis client
func NewRedisBus(client *redis.Client, logger *slog.Logger) *RedisBus {
	return &RedisBus{
		client: client,
		logger: logger.With(slog.String("component", "pubsub")),
	}
}

// Publish sends the event to the Redis channel for the topic
func (b *RedisBus) Publish(ctx context.Context, topic string, event model.ProgressEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.client.Publish(ctx, topic, data).Err()
}

// Subscribe opens a Redis subscription and decodes events off it
func (b *RedisBus) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	ps := b.client.Subscribe(ctx, topic)

	// Confirm the subscription before returning so callers do not miss
	// events published immediately after Subscribe
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}

	sub := &redisSubscription{
		ps:     ps,
		events: make(chan model.ProgressEvent, subscriberBuffer),
	}

	go func() {
		defer close(sub.events)
		for msg := range ps.Channel() {
			var event model.ProgressEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				b.logger.Warn("dropping malformed progress event",
					slog.String("topic", topic),
					slog.String("error", err.Error()),
				)
				continue
			}
			select {
			case sub.events <- event:
			default:
				b.logger.Warn("event dropped - subscriber buffer full",
					slog.String("topic", topic),
					slog.String("player_id", string(event.PlayerID)),
				)
			}
		}
	}()

	return sub, nil
}

type redisSubscription struct {
	ps     *redis.PubSub
	events chan model.ProgressEvent

	closeOnce sync.Once
	closeErr  error
}

func (s *redisSubscription) Events() <-chan model.ProgressEvent {
	return s.events
}

func (s *redisSubscription) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.ps.Close()
	})
	return s.closeErr
}
