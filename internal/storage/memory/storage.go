package memory

import (
	"context"
	"sync"

	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players           map[model.PlayerID]*model.Player
	registeredPlayers map[model.PlayerID]*model.RegisteredPlayer
	usernameIndex     map[string]model.PlayerID
	profiles          map[model.PlayerID]*model.RatingProfile
	challenges        map[model.ChallengeID]*model.Challenge
	challengeOrder    []model.ChallengeID
	matches           map[model.MatchID]*model.MatchRecord
	progress          map[progressKey]*model.ParticipantProgress
	history           map[model.PlayerID][]*model.MatchSummary
}

type progressKey struct {
	matchID  model.MatchID
	playerID model.PlayerID
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:           make(map[model.PlayerID]*model.Player),
		registeredPlayers: make(map[model.PlayerID]*model.RegisteredPlayer),
		usernameIndex:     make(map[string]model.PlayerID),
		profiles:          make(map[model.PlayerID]*model.RatingProfile),
		challenges:        make(map[model.ChallengeID]*model.Challenge),
		matches:           make(map[model.MatchID]*model.MatchRecord),
		progress:          make(map[progressKey]*model.ParticipantProgress),
		history:           make(map[model.PlayerID][]*model.MatchSummary),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.ID] = player
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	return nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registeredPlayers[rp.PlayerID] = rp
	s.usernameIndex[rp.Username] = rp.PlayerID
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return rp, nil
}

// Rating profile operations

func (s *Storage) SaveRatingProfile(ctx context.Context, profile *model.RatingProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *profile
	s.profiles[profile.PlayerID] = &copied
	return nil
}

func (s *Storage) GetRatingProfile(ctx context.Context, playerID model.PlayerID) (*model.RatingProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[playerID]
	if !ok {
		return nil, model.ErrProfileNotFound
	}
	copied := *profile
	return &copied, nil
}

// Challenge operations

func (s *Storage) SaveChallenge(ctx context.Context, challenge *model.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.challenges[challenge.ID]; !exists {
		s.challengeOrder = append(s.challengeOrder, challenge.ID)
	}
	s.challenges[challenge.ID] = challenge
	return nil
}

func (s *Storage) GetChallenge(ctx context.Context, id model.ChallengeID) (*model.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	challenge, ok := s.challenges[id]
	if !ok {
		return nil, model.ErrChallengeNotFound
	}
	return challenge, nil
}

func (s *Storage) ListChallenges(ctx context.Context) ([]*model.Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	challenges := make([]*model.Challenge, 0, len(s.challengeOrder))
	for _, id := range s.challengeOrder {
		challenges = append(challenges, s.challenges[id])
	}
	return challenges, nil
}

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, match *model.MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[match.ID] = cloneMatch(match)
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.MatchID) (*model.MatchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	return cloneMatch(match), nil
}

// cloneMatch deep-copies a match record so callers cannot mutate stored
// state outside SaveMatch. Both sessions of a match share this storage.
func cloneMatch(m *model.MatchRecord) *model.MatchRecord {
	copied := *m
	copied.ChallengeSequence = append([]model.ChallengeID(nil), m.ChallengeSequence...)
	copied.Ready = make(map[model.PlayerID]bool, len(m.Ready))
	for k, v := range m.Ready {
		copied.Ready[k] = v
	}
	if m.Result != nil {
		result := *m.Result
		result.Outcomes = make(map[model.PlayerID]model.PlayerOutcome, len(m.Result.Outcomes))
		for k, v := range m.Result.Outcomes {
			result.Outcomes[k] = v
		}
		copied.Result = &result
	}
	return &copied
}

// Participant progress operations

func (s *Storage) SaveProgress(ctx context.Context, progress *model.ParticipantProgress) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *progress
	s.progress[progressKey{progress.MatchID, progress.PlayerID}] = &copied
	return nil
}

func (s *Storage) GetProgress(ctx context.Context, matchID model.MatchID, playerID model.PlayerID) (*model.ParticipantProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	progress, ok := s.progress[progressKey{matchID, playerID}]
	if !ok {
		return nil, model.ErrProgressNotFound
	}
	copied := *progress
	return &copied, nil
}

// Match history operations

func (s *Storage) AppendMatchHistory(ctx context.Context, summary *model.MatchSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *summary
	// Most recent first
	s.history[summary.PlayerID] = append([]*model.MatchSummary{&copied}, s.history[summary.PlayerID]...)
	return nil
}

func (s *Storage) GetMatchHistory(ctx context.Context, playerID model.PlayerID, limit int) ([]*model.MatchSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.history[playerID]
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	result := make([]*model.MatchSummary, len(entries))
	for i, e := range entries {
		copied := *e
		result[i] = &copied
	}
	return result, nil
}
