package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/pubsub"
)

// PushObserver receives opponent progress over the event bus. Events for
// the session's own player or other matches are dropped. If the
// subscription fails or closes, it retries with capped backoff until the
// context is cancelled.
type PushObserver struct {
	bus        pubsub.PubSub
	matchID    model.MatchID
	opponentID model.PlayerID
	handler    Handler
	cfg        Config
	logger     *slog.Logger
}

// Ensure PushObserver implements Observer
var _ Observer = (*PushObserver)(nil)

// NewPushObserver creates a push-based progress observer
func NewPushObserver(bus pubsub.PubSub, matchID model.MatchID, opponentID model.PlayerID, handler Handler, cfg Config, logger *slog.Logger) *PushObserver {
	return &PushObserver{
		bus:        bus,
		matchID:    matchID,
		opponentID: opponentID,
		handler:    handler,
		cfg:        cfg,
		logger:     logger.With(slog.String("observer", "push")),
	}
}

// Run subscribes and forwards matching events until the context is cancelled
func (o *PushObserver) Run(ctx context.Context) {
	backoff := o.cfg.ResubscribeMin
	for {
		if ctx.Err() != nil {
			return
		}

		sub, err := o.bus.Subscribe(ctx, model.ProgressTopic(o.matchID))
		if err != nil {
			o.logger.Warn("progress subscription failed, backing off",
				slog.Duration("backoff", backoff),
				slog.Any("error", err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, o.cfg.ResubscribeMax)
			continue
		}
		backoff = o.cfg.ResubscribeMin

		if !o.consume(ctx, sub) {
			return
		}
		// Subscription closed underneath us; resubscribe
		o.logger.Warn("progress subscription closed, resubscribing")
	}
}

// consume forwards events until the subscription closes (returns true) or
// the context is cancelled (returns false)
func (o *PushObserver) consume(ctx context.Context, sub pubsub.Subscription) bool {
	defer func() {
		_ = sub.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return false
		case event, ok := <-sub.Events():
			if !ok {
				return true
			}
			if event.MatchID != o.matchID || event.PlayerID != o.opponentID {
				continue
			}
			o.handler(event)
		}
	}
}
