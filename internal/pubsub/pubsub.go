package pubsub

import (
	"context"

	"github.com/mcoot/codebattle-go/internal/model"
)

// PubSub is the real-time event channel carrying progress events between
// participants of a match. Delivery is best-effort; the relay's pull-based
// reconciliation covers missed events.
type PubSub interface {
	// Publish sends an event to all current subscribers of the topic
	Publish(ctx context.Context, topic string, event model.ProgressEvent) error

	// Subscribe returns a subscription delivering events for the topic.
	// The caller must Close the subscription on every exit path.
	Subscribe(ctx context.Context, topic string) (Subscription, error)
}

// Subscription is a live subscription to a single topic
type Subscription interface {
	// Events returns the channel events are delivered on. The channel is
	// closed when the subscription is closed.
	Events() <-chan model.ProgressEvent

	// Close releases the subscription
	Close() error
}
