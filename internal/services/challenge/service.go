package challenge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"

	"github.com/mcoot/codebattle-go/internal/dependencies/random"
	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/storage"
)

// DefaultSequenceLength is the number of challenges selected for a match
const DefaultSequenceLength = 5

// Service manages the challenge catalog and selects challenge sequences
// for new matches. Challenge authoring and correctness judging live outside
// this system; the catalog only carries presentation data.
type Service struct {
	storage storage.Storage
	random  random.Random
	logger  *slog.Logger
}

// New creates a new challenge Service
func New(storage storage.Storage, random random.Random, logger *slog.Logger) *Service {
	return &Service{
		storage: storage,
		random:  random,
		logger:  logger.With(slog.String("component", "challenge")),
	}
}

// Get retrieves a single challenge
func (s *Service) Get(ctx context.Context, id model.ChallengeID) (*model.Challenge, error) {
	return s.storage.GetChallenge(ctx, id)
}

// List returns all challenges in the catalog
func (s *Service) List(ctx context.Context) ([]*model.Challenge, error) {
	return s.storage.ListChallenges(ctx)
}

// Seed stores a set of challenges
func (s *Service) Seed(ctx context.Context, challenges []*model.Challenge) error {
	for _, c := range challenges {
		if err := s.storage.SaveChallenge(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// LoadFromFile seeds the catalog from a JSON file containing an array of
// challenges
func (s *Service) LoadFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var challenges []*model.Challenge
	if err := json.Unmarshal(data, &challenges); err != nil {
		return err
	}

	if err := s.Seed(ctx, challenges); err != nil {
		return err
	}

	s.logger.Info("challenge catalog loaded",
		slog.String("path", path),
		slog.Int("count", len(challenges)),
	)
	return nil
}

// SelectSequence picks a random challenge sequence of the given length for
// a new match. The sequence is fixed at match creation and immutable after.
// Selection is without replacement; if the catalog is smaller than the
// requested length the whole catalog is used in random order.
func (s *Service) SelectSequence(ctx context.Context, length int) ([]model.ChallengeID, error) {
	challenges, err := s.storage.ListChallenges(ctx)
	if err != nil {
		return nil, err
	}
	if len(challenges) == 0 {
		return nil, model.ErrNoChallenges
	}

	ids := make([]model.ChallengeID, len(challenges))
	for i, c := range challenges {
		ids[i] = c.ID
	}

	// Fisher-Yates with the injected random source
	for i := len(ids) - 1; i > 0; i-- {
		j := s.random.Intn(i + 1)
		ids[i], ids[j] = ids[j], ids[i]
	}

	if length > len(ids) {
		length = len(ids)
	}
	return ids[:length], nil
}

// ResolveSequence loads the challenges for a match's sequence. Individual
// missing challenges are skipped with a warning rather than failing the
// whole sequence; the session runs on whatever remains.
func (s *Service) ResolveSequence(ctx context.Context, matchID model.MatchID, ids []model.ChallengeID) ([]*model.Challenge, error) {
	challenges := make([]*model.Challenge, 0, len(ids))
	for _, id := range ids {
		c, err := s.storage.GetChallenge(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrChallengeNotFound) {
				s.logger.Warn("skipping missing challenge",
					slog.String("match_id", string(matchID)),
					slog.String("challenge_id", string(id)),
				)
				continue
			}
			return nil, err
		}
		challenges = append(challenges, c)
	}
	return challenges, nil
}
