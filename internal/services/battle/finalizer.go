package battle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/codebattle-go/internal/dependencies/clock"
	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/services/rating"
	"github.com/mcoot/codebattle-go/internal/storage"
)

// Finalizer resolves a match outcome exactly once. The MatchRecord's status
// is the idempotence guard: an already-Completed record returns its stored
// outcome and writes nothing, so both sessions can race to finalize safely.
// The mutex serializes the status check against the completing write for
// sessions sharing this process.
type Finalizer struct {
	storage storage.Storage
	rating  *rating.Service
	retries *RetryWorker
	clock   clock.Clock
	logger  *slog.Logger

	mu sync.Mutex
}

// NewFinalizer creates a finalizer
func NewFinalizer(storage storage.Storage, rating *rating.Service, retries *RetryWorker, clock clock.Clock, logger *slog.Logger) *Finalizer {
	return &Finalizer{
		storage: storage,
		rating:  rating,
		retries: retries,
		clock:   clock,
		logger:  logger.With(slog.String("component", "finalizer")),
	}
}

// Finalize resolves the match from the perspective of playerID, who
// finishes with the given result while their opponent gets opponentResult.
// The two are usually inverses; a timed-out tie scores Defeat on both
// sides. It computes both players' rating updates, marks the record
// Completed, and persists profiles and history.
//
// Rating and history writes are best-effort here: failures are logged and
// handed to the retry worker rather than unwinding the completed match.
func (f *Finalizer) Finalize(ctx context.Context, matchID model.MatchID, playerID model.PlayerID, result, opponentResult model.BattleResult) (*model.BattleOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	match, err := f.storage.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("loading match for finalization: %w", err)
	}
	if !match.HasPlayer(playerID) {
		return nil, model.ErrNotParticipant
	}
	if match.Status == model.MatchStatusCompleted {
		// The other session got there first; its resolution stands
		return match.Result, nil
	}

	now := f.clock.Now()
	opponentID := match.Opponent(playerID)

	profile, err := f.loadOrCreateProfile(ctx, playerID, now)
	if err != nil {
		return nil, err
	}
	opponentProfile, err := f.loadOrCreateProfile(ctx, opponentID, now)
	if err != nil {
		return nil, err
	}

	// Each side scores its own result with its own K-factor
	update := f.rating.Update(
		profile.Rating, opponentProfile.Rating,
		rating.ScoreForResult(result), profile.GamesPlayed,
	)
	opponentUpdate := f.rating.Update(
		opponentProfile.Rating, profile.Rating,
		rating.ScoreForResult(opponentResult), opponentProfile.GamesPlayed,
	)

	outcome := &model.BattleOutcome{
		Outcomes: map[model.PlayerID]model.PlayerOutcome{
			playerID:   {Result: result, EloDelta: update.Delta, NewRating: update.NewRating},
			opponentID: {Result: opponentResult, EloDelta: opponentUpdate.Delta, NewRating: opponentUpdate.NewRating},
		},
		ResolvedBy: playerID,
		ResolvedAt: now,
	}

	match.Status = model.MatchStatusCompleted
	match.Result = outcome
	match.CompletedAt = now
	match.UpdatedAt = now
	if err := f.storage.SaveMatch(ctx, match); err != nil {
		return nil, fmt.Errorf("completing match record: %w", err)
	}

	f.applyProfileUpdate(ctx, profile, outcome.Outcomes[playerID], now)
	f.applyProfileUpdate(ctx, opponentProfile, outcome.Outcomes[opponentID], now)
	f.appendHistory(ctx, match, outcome, now)

	f.logger.Info("match resolved",
		slog.String("match_id", string(matchID)),
		slog.String("resolved_by", string(playerID)),
		slog.String("result", string(result)))
	return outcome, nil
}

func (f *Finalizer) loadOrCreateProfile(ctx context.Context, playerID model.PlayerID, now time.Time) (*model.RatingProfile, error) {
	profile, err := f.storage.GetRatingProfile(ctx, playerID)
	if errors.Is(err, model.ErrProfileNotFound) {
		return model.NewRatingProfile(playerID, now), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading rating profile: %w", err)
	}
	return profile, nil
}

// applyProfileUpdate records the result on the profile and persists it.
// A failed write goes to the retry worker; the resolution stands regardless.
func (f *Finalizer) applyProfileUpdate(ctx context.Context, profile *model.RatingProfile, outcome model.PlayerOutcome, now time.Time) {
	profile.RecordResult(outcome.Result)
	profile.Rating = outcome.NewRating
	profile.UpdatedAt = now

	if err := f.storage.SaveRatingProfile(ctx, profile); err != nil {
		f.logger.Warn("rating write failed, deferring to retry worker",
			slog.String("player_id", string(profile.PlayerID)),
			slog.Any("error", err))
		f.retries.Enqueue(profile)
	}
}

// appendHistory writes each player's summary of the completed match.
// History is a convenience view; failures are logged and dropped.
func (f *Finalizer) appendHistory(ctx context.Context, match *model.MatchRecord, outcome *model.BattleOutcome, now time.Time) {
	for _, playerID := range []model.PlayerID{match.Player1ID, match.Player2ID} {
		playerOutcome := outcome.Outcomes[playerID]
		summary := &model.MatchSummary{
			MatchID:     match.ID,
			PlayerID:    playerID,
			OpponentID:  match.Opponent(playerID),
			Result:      playerOutcome.Result,
			EloDelta:    playerOutcome.EloDelta,
			RatingAfter: playerOutcome.NewRating,
			CompletedAt: now,
		}
		if progress, err := f.storage.GetProgress(ctx, match.ID, playerID); err == nil {
			summary.ChallengesDone = progress.ChallengesCompleted
		}
		if err := f.storage.AppendMatchHistory(ctx, summary); err != nil {
			f.logger.Warn("match history write failed",
				slog.String("match_id", string(match.ID)),
				slog.String("player_id", string(playerID)),
				slog.Any("error", err))
		}
	}
}
