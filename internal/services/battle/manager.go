package battle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mcoot/codebattle-go/internal/dependencies/clock"
	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/pubsub"
	"github.com/mcoot/codebattle-go/internal/services/challenge"
	"github.com/mcoot/codebattle-go/internal/services/rating"
	"github.com/mcoot/codebattle-go/internal/services/relay"
	"github.com/mcoot/codebattle-go/internal/storage"
)

// Manager owns the battle sessions running in this process. Each participant
// gets an independent session actor; the manager wires readiness
// confirmation so the countdown starts only once both sides have joined.
type Manager struct {
	storage    storage.Storage
	bus        pubsub.PubSub
	challenges *challenge.Service
	finalizer  *Finalizer
	retries    *RetryWorker
	relays     relay.Provider
	clock      clock.Clock
	logger     *slog.Logger

	mu       sync.Mutex
	sessions map[sessionKey]*Session
}

type sessionKey struct {
	matchID  model.MatchID
	playerID model.PlayerID
}

// NewManager creates a battle session manager
func NewManager(
	storage storage.Storage,
	bus pubsub.PubSub,
	challenges *challenge.Service,
	ratingService *rating.Service,
	relays relay.Provider,
	clock clock.Clock,
	logger *slog.Logger,
) *Manager {
	retries := NewRetryWorker(storage, clock, DefaultRetryInterval, DefaultMaxRetryAttempts, logger)
	return &Manager{
		storage:    storage,
		bus:        bus,
		challenges: challenges,
		finalizer:  NewFinalizer(storage, ratingService, retries, clock, logger),
		retries:    retries,
		relays:     relays,
		clock:      clock,
		logger:     logger.With(slog.String("component", "battle_manager")),
		sessions:   make(map[sessionKey]*Session),
	}
}

// RetryWorker exposes the rating retry worker so the server can run it
func (m *Manager) RetryWorker() *RetryWorker {
	return m.retries
}

// Join creates (or returns) the player's session for a match and confirms
// their readiness. When the second participant joins, the match record goes
// Active and both sessions start their countdown.
func (m *Manager) Join(ctx context.Context, matchID model.MatchID, playerID model.PlayerID) (*Session, error) {
	match, err := m.storage.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("loading match: %w", err)
	}
	if !match.HasPlayer(playerID) {
		return nil, model.ErrNotParticipant
	}
	if match.Status == model.MatchStatusCompleted {
		return nil, model.ErrMatchCompleted
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey{matchID: matchID, playerID: playerID}
	if existing, ok := m.sessions[key]; ok {
		return existing, nil
	}

	// Missing challenges are skipped with a warning rather than failing
	// the whole session
	sequence, err := m.challenges.ResolveSequence(ctx, matchID, match.ChallengeSequence)
	if err != nil {
		return nil, fmt.Errorf("resolving challenge sequence: %w", err)
	}

	session := newSession(match, playerID, sequence, m.storage, m.bus, m.finalizer, m.relays, m.clock, m.logger)
	session.start(ctx)
	m.sessions[key] = session

	if err := m.confirmReady(ctx, match, playerID); err != nil {
		m.logger.Error("readiness confirmation failed",
			slog.String("match_id", string(matchID)),
			slog.String("player_id", string(playerID)),
			slog.Any("error", err))
	}
	return session, nil
}

// confirmReady marks the player ready on the record and activates both
// sessions once the pair is complete. Called with m.mu held; the reload
// under the lock picks up the other participant's readiness write.
func (m *Manager) confirmReady(ctx context.Context, stale *model.MatchRecord, playerID model.PlayerID) error {
	match, err := m.storage.GetMatch(ctx, stale.ID)
	if err != nil {
		return err
	}
	if match.Ready == nil {
		match.Ready = make(map[model.PlayerID]bool)
	}
	match.Ready[playerID] = true
	match.UpdatedAt = m.clock.Now()

	if match.Status == model.MatchStatusPending && match.BothReady() {
		match.Status = model.MatchStatusActive
		match.StartedAt = match.UpdatedAt
		if err := m.storage.SaveMatch(ctx, match); err != nil {
			return err
		}
		m.logger.Info("match active", slog.String("match_id", string(match.ID)))
		for _, id := range []model.PlayerID{match.Player1ID, match.Player2ID} {
			if session, ok := m.sessions[sessionKey{matchID: match.ID, playerID: id}]; ok {
				session.activate()
			}
		}
		return nil
	}
	return m.storage.SaveMatch(ctx, match)
}

// Get returns the player's session for a match
func (m *Manager) Get(matchID model.MatchID, playerID model.PlayerID) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[sessionKey{matchID: matchID, playerID: playerID}]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return session, nil
}

// Leave forfeits the player's session and releases it
func (m *Manager) Leave(ctx context.Context, matchID model.MatchID, playerID model.PlayerID) error {
	session, err := m.Get(matchID, playerID)
	if err != nil {
		return err
	}
	if err := session.Abandon(ctx); err != nil {
		return err
	}
	m.release(matchID, playerID)
	return nil
}

// Release drops a completed session from the manager. The session must have
// reached its terminal state; live sessions are left alone.
func (m *Manager) Release(ctx context.Context, matchID model.MatchID, playerID model.PlayerID) error {
	session, err := m.Get(matchID, playerID)
	if err != nil {
		return err
	}
	snapshot, err := session.Snapshot(ctx)
	if err != nil {
		return err
	}
	if snapshot.State != StateCompleted {
		return model.ErrMatchNotActive
	}
	session.close()
	m.release(matchID, playerID)
	return nil
}

func (m *Manager) release(matchID model.MatchID, playerID model.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey{matchID: matchID, playerID: playerID})
}

// Shutdown stops every session without forfeiting. Matches in flight stay
// Active in storage; a restarted server lets players rejoin them.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessions = make(map[sessionKey]*Session)
	m.mu.Unlock()

	for _, session := range sessions {
		session.close()
	}
}

// SessionCount returns the number of live sessions
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
