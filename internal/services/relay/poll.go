package relay

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/codebattle-go/internal/dependencies/clock"
	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/storage"
)

// PollObserver periodically reads the opponent's authoritative progress
// snapshot from storage. It corrects for any push events lost in transit;
// the snapshot always wins over stale pushed state.
type PollObserver struct {
	storage    storage.Storage
	clock      clock.Clock
	matchID    model.MatchID
	opponentID model.PlayerID
	handler    Handler
	interval   time.Duration
	logger     *slog.Logger
}

// Ensure PollObserver implements Observer
var _ Observer = (*PollObserver)(nil)

// NewPollObserver creates a poll-based progress observer
func NewPollObserver(storage storage.Storage, clock clock.Clock, matchID model.MatchID, opponentID model.PlayerID, handler Handler, interval time.Duration, logger *slog.Logger) *PollObserver {
	return &PollObserver{
		storage:    storage,
		clock:      clock,
		matchID:    matchID,
		opponentID: opponentID,
		handler:    handler,
		interval:   interval,
		logger:     logger.With(slog.String("observer", "poll")),
	}
}

// Run polls until the context is cancelled
func (o *PollObserver) Run(ctx context.Context) {
	ticker := o.clock.NewTicker(o.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			o.poll(ctx)
		}
	}
}

func (o *PollObserver) poll(ctx context.Context) {
	progress, err := o.storage.GetProgress(ctx, o.matchID, o.opponentID)
	if err != nil {
		// No snapshot yet is normal early in a match
		if !errors.Is(err, model.ErrProgressNotFound) {
			o.logger.Warn("progress poll failed", slog.Any("error", err))
		}
		return
	}

	o.handler(model.ProgressEvent{
		MatchID:             progress.MatchID,
		PlayerID:            progress.PlayerID,
		ChallengeIndex:      progress.CurrentChallengeIndex,
		ChallengesCompleted: progress.ChallengesCompleted,
		SentAt:              progress.LastActivityAt,
	})
}
