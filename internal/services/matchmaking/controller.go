package matchmaking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/codebattle-go/internal/dependencies/clock"
	"github.com/mcoot/codebattle-go/internal/dependencies/random"
	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/services/challenge"
	"github.com/mcoot/codebattle-go/internal/services/rating"
	"github.com/mcoot/codebattle-go/internal/storage"
)

// Config holds matchmaking behavior settings
type Config struct {
	// TickInterval is how often the pairing pass runs in the background
	TickInterval time.Duration

	// SequenceLength is the number of challenges per match
	SequenceLength int

	// MatchDuration is the shared countdown for created matches
	MatchDuration time.Duration
}

// DefaultConfig returns default matchmaking configuration
func DefaultConfig() Config {
	return Config{
		TickInterval:   2 * time.Second,
		SequenceLength: challenge.DefaultSequenceLength,
		MatchDuration:  model.DefaultMatchDuration,
	}
}

// queueEntry is one waiting player in the pool
type queueEntry struct {
	playerID    model.PlayerID
	rating      int
	gamesPlayed int
	enqueuedAt  time.Time
}

// QueueState describes where a player is in the matchmaking flow
type QueueState string

const (
	QueueStateWaiting QueueState = "waiting"
	QueueStateMatched QueueState = "matched"
)

// Status is a player's current matchmaking status
type Status struct {
	State       QueueState
	WaitSeconds int
	WindowLow   int
	WindowHigh  int
	MatchID     model.MatchID // Set when State is matched
}

// Controller maintains the waiting pool and pairs compatible players.
// The pool mutex is the single point of mutual exclusion across concurrent
// pairing attempts: a player can never be selected into two matches.
type Controller struct {
	storage    storage.Storage
	rating     *rating.Service
	challenges *challenge.Service
	clock      clock.Clock
	random     random.Random
	logger     *slog.Logger
	cfg        Config

	mu      sync.Mutex
	pool    map[model.PlayerID]*queueEntry
	matched map[model.PlayerID]model.MatchID
}

// NewController creates a new matchmaking Controller
func NewController(
	storage storage.Storage,
	ratingService *rating.Service,
	challengeService *challenge.Service,
	clock clock.Clock,
	random random.Random,
	cfg Config,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		storage:    storage,
		rating:     ratingService,
		challenges: challengeService,
		clock:      clock,
		random:     random,
		logger:     logger.With(slog.String("component", "matchmaking")),
		cfg:        cfg,
		pool:       make(map[model.PlayerID]*queueEntry),
		matched:    make(map[model.PlayerID]model.MatchID),
	}
}

// Run drives periodic pairing passes until the context is cancelled
func (c *Controller) Run(ctx context.Context) {
	ticker := c.clock.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	c.logger.Info("matchmaking loop started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("matchmaking loop stopped")
			return
		case <-ticker.C():
			c.pairingPass(ctx)
		}
	}
}

// Enqueue adds a player to the waiting pool and immediately attempts a
// pairing pass
func (c *Controller) Enqueue(ctx context.Context, playerID model.PlayerID) error {
	profile, err := c.storage.GetRatingProfile(ctx, playerID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	matchID, wasMatched := c.matched[playerID]
	c.mu.Unlock()
	if wasMatched {
		match, err := c.storage.GetMatch(ctx, matchID)
		if err == nil && match.Status != model.MatchStatusCompleted {
			return model.ErrQueuedInMatch
		}
	}

	c.mu.Lock()
	if _, queued := c.pool[playerID]; queued {
		c.mu.Unlock()
		return model.ErrAlreadyQueued
	}
	// Any surviving matched marker is stale; a fresh enqueue clears it
	delete(c.matched, playerID)

	c.pool[playerID] = &queueEntry{
		playerID:    playerID,
		rating:      profile.Rating,
		gamesPlayed: profile.GamesPlayed,
		enqueuedAt:  c.clock.Now(),
	}
	c.mu.Unlock()

	c.logger.Info("player enqueued",
		slog.String("player_id", string(playerID)),
		slog.Int("rating", profile.Rating),
	)

	c.pairingPass(ctx)
	return nil
}

// Cancel removes a player from the waiting pool without pairing
func (c *Controller) Cancel(ctx context.Context, playerID model.PlayerID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, queued := c.pool[playerID]; !queued {
		return model.ErrNotQueued
	}
	delete(c.pool, playerID)

	c.logger.Info("player left queue", slog.String("player_id", string(playerID)))
	return nil
}

// Status returns a player's current matchmaking status
func (c *Controller) Status(ctx context.Context, playerID model.PlayerID) (*Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if matchID, ok := c.matched[playerID]; ok {
		return &Status{State: QueueStateMatched, MatchID: matchID}, nil
	}

	entry, ok := c.pool[playerID]
	if !ok {
		return nil, model.ErrNotQueued
	}

	waitSeconds := c.waitSeconds(entry)
	low, high := c.rating.MatchingRange(entry.rating, waitSeconds)
	return &Status{
		State:       QueueStateWaiting,
		WaitSeconds: waitSeconds,
		WindowLow:   low,
		WindowHigh:  high,
	}, nil
}

// PoolSize returns the number of waiting players
func (c *Controller) PoolSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pool)
}

// pairingPass repeatedly selects and removes the best compatible pair until
// none remains. Selection and removal happen under the pool lock; match
// record creation happens outside it, with the pair re-queued on failure.
func (c *Controller) pairingPass(ctx context.Context) {
	for {
		first, second, ok := c.takeBestPair()
		if !ok {
			return
		}

		match, err := c.createMatch(ctx, first, second)
		if err != nil {
			c.logger.Error("failed to create match, re-queueing pair",
				slog.String("player1", string(first.playerID)),
				slog.String("player2", string(second.playerID)),
				slog.String("error", err.Error()),
			)
			c.requeue(first, second)
			return
		}

		c.mu.Lock()
		c.matched[first.playerID] = match.ID
		c.matched[second.playerID] = match.ID
		c.mu.Unlock()

		c.logger.Info("match created",
			slog.String("match_id", string(match.ID)),
			slog.String("player1", string(first.playerID)),
			slog.String("player2", string(second.playerID)),
			slog.Int("rating_diff", abs(first.rating-second.rating)),
		)
	}
}

// takeBestPair finds the mutually compatible pair with the smallest rating
// difference (ties broken by earliest combined enqueue time) and atomically
// removes both entries from the pool
func (c *Controller) takeBestPair() (*queueEntry, *queueEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]*queueEntry, 0, len(c.pool))
	for _, entry := range c.pool {
		entries = append(entries, entry)
	}

	var best, bestOther *queueEntry
	bestDiff := 0
	var bestCombined int64

	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if !c.compatible(a, b) {
				continue
			}

			diff := abs(a.rating - b.rating)
			// FIFO fairness: combined enqueue time breaks rating-diff ties
			combined := a.enqueuedAt.UnixNano() + b.enqueuedAt.UnixNano()
			if best == nil || diff < bestDiff || (diff == bestDiff && combined < bestCombined) {
				best, bestOther = a, b
				bestDiff = diff
				bestCombined = combined
			}
		}
	}

	if best == nil {
		return nil, nil, false
	}

	delete(c.pool, best.playerID)
	delete(c.pool, bestOther.playerID)
	return best, bestOther, true
}

// compatible reports mutual range compatibility: each player's rating must
// fall inside the other's current window
func (c *Controller) compatible(a, b *queueEntry) bool {
	lowA, highA := c.rating.MatchingRange(a.rating, c.waitSeconds(a))
	lowB, highB := c.rating.MatchingRange(b.rating, c.waitSeconds(b))
	return b.rating >= lowA && b.rating <= highA && a.rating >= lowB && a.rating <= highB
}

func (c *Controller) waitSeconds(entry *queueEntry) int {
	return int(c.clock.Now().Sub(entry.enqueuedAt) / time.Second)
}

func (c *Controller) createMatch(ctx context.Context, first, second *queueEntry) (*model.MatchRecord, error) {
	sequence, err := c.challenges.SelectSequence(ctx, c.cfg.SequenceLength)
	if err != nil {
		return nil, err
	}

	now := c.clock.Now()
	match := &model.MatchRecord{
		ID:                model.MatchID(c.random.String(12, "abcdefghijklmnopqrstuvwxyz0123456789")),
		Player1ID:         first.playerID,
		Player2ID:         second.playerID,
		ChallengeSequence: sequence,
		DurationSeconds:   int(c.cfg.MatchDuration / time.Second),
		Status:            model.MatchStatusPending,
		Ready:             make(map[model.PlayerID]bool),
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := c.storage.SaveMatch(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}

func (c *Controller) requeue(entries ...*queueEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, entry := range entries {
		c.pool[entry.playerID] = entry
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
