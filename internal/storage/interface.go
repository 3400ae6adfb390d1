package storage

import (
	"context"

	"github.com/mcoot/codebattle-go/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Registered player operations
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)

	// Rating profile operations
	SaveRatingProfile(ctx context.Context, profile *model.RatingProfile) error
	GetRatingProfile(ctx context.Context, playerID model.PlayerID) (*model.RatingProfile, error)

	// Challenge operations
	SaveChallenge(ctx context.Context, challenge *model.Challenge) error
	GetChallenge(ctx context.Context, id model.ChallengeID) (*model.Challenge, error)
	ListChallenges(ctx context.Context) ([]*model.Challenge, error)

	// Match operations
	SaveMatch(ctx context.Context, match *model.MatchRecord) error
	GetMatch(ctx context.Context, id model.MatchID) (*model.MatchRecord, error)

	// Participant progress operations (authoritative snapshots for the
	// relay's pull-based reconciliation)
	SaveProgress(ctx context.Context, progress *model.ParticipantProgress) error
	GetProgress(ctx context.Context, matchID model.MatchID, playerID model.PlayerID) (*model.ParticipantProgress, error)

	// Match history operations
	AppendMatchHistory(ctx context.Context, summary *model.MatchSummary) error
	GetMatchHistory(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.MatchSummary, error)
}
