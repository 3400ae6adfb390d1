package battle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/codebattle-go/internal/dependencies/clock"
	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/storage"
)

// RetryWorker flushes rating profile writes that failed during match
// finalization. Sessions never block on or roll back for persistence;
// the authoritative rating update lands here until it succeeds or the
// attempt budget is exhausted.
type RetryWorker struct {
	storage     storage.Storage
	clock       clock.Clock
	interval    time.Duration
	maxAttempts int
	logger      *slog.Logger

	mu      sync.Mutex
	pending []retryTask
}

type retryTask struct {
	profile  *model.RatingProfile
	attempts int
}

// DefaultRetryInterval is how often the worker retries pending writes
const DefaultRetryInterval = 5 * time.Second

// DefaultMaxRetryAttempts bounds retries per profile write before the
// worker gives up and logs the loss
const DefaultMaxRetryAttempts = 10

// NewRetryWorker creates a retry worker
func NewRetryWorker(storage storage.Storage, clock clock.Clock, interval time.Duration, maxAttempts int, logger *slog.Logger) *RetryWorker {
	return &RetryWorker{
		storage:     storage,
		clock:       clock,
		interval:    interval,
		maxAttempts: maxAttempts,
		logger:      logger.With(slog.String("component", "rating_retry")),
	}
}

// Enqueue schedules a profile write for retry. A newer write for the same
// player supersedes any queued one.
func (w *RetryWorker) Enqueue(profile *model.RatingProfile) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, task := range w.pending {
		if task.profile.PlayerID == profile.PlayerID {
			w.pending[i] = retryTask{profile: profile}
			return
		}
	}
	w.pending = append(w.pending, retryTask{profile: profile})
}

// PendingCount returns the number of queued writes
func (w *RetryWorker) PendingCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

// Run retries pending writes on an interval until the context is cancelled
func (w *RetryWorker) Run(ctx context.Context) {
	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			w.Flush(ctx)
		}
	}
}

// Flush attempts every pending write once. Writes that fail again are
// requeued with their attempt count incremented.
func (w *RetryWorker) Flush(ctx context.Context) {
	w.mu.Lock()
	tasks := w.pending
	w.pending = nil
	w.mu.Unlock()

	var requeue []retryTask
	for _, task := range tasks {
		err := w.storage.SaveRatingProfile(ctx, task.profile)
		if err == nil {
			w.logger.Info("deferred rating write succeeded",
				slog.String("player_id", string(task.profile.PlayerID)),
				slog.Int("attempts", task.attempts+1))
			continue
		}

		task.attempts++
		if task.attempts >= w.maxAttempts {
			w.logger.Error("abandoning rating write after max attempts",
				slog.String("player_id", string(task.profile.PlayerID)),
				slog.Int("attempts", task.attempts),
				slog.Any("error", err))
			continue
		}
		requeue = append(requeue, task)
	}

	if len(requeue) == 0 {
		return
	}
	w.mu.Lock()
	// Enqueues that raced the flush are newer; keep them over the requeue
	for _, task := range requeue {
		if !w.hasPlayerLocked(task.profile.PlayerID) {
			w.pending = append(w.pending, task)
		}
	}
	w.mu.Unlock()
}

func (w *RetryWorker) hasPlayerLocked(playerID model.PlayerID) bool {
	for _, task := range w.pending {
		if task.profile.PlayerID == playerID {
			return true
		}
	}
	return false
}
