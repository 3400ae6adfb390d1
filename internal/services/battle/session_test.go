package battle

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/codebattle-go/internal/dependencies/mocks"
	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/pubsub"
	"github.com/mcoot/codebattle-go/internal/services/challenge"
	"github.com/mcoot/codebattle-go/internal/services/rating"
	"github.com/mcoot/codebattle-go/internal/services/relay"
	"github.com/mcoot/codebattle-go/internal/storage/memory"
	"github.com/mcoot/codebattle-go/internal/testutil"
)

// fakeRelays hands out inert relays and captures each session's handler so
// tests can inject opponent progress directly
type fakeRelays struct {
	mu       sync.Mutex
	clock    *mocks.MockClock
	handlers map[model.PlayerID]relay.Handler // Keyed by the session's opponent
}

func newFakeRelays(clk *mocks.MockClock) *fakeRelays {
	return &fakeRelays{clock: clk, handlers: make(map[model.PlayerID]relay.Handler)}
}

func (f *fakeRelays) NewRelay(matchID model.MatchID, opponentID model.PlayerID, handler relay.Handler) *relay.Relay {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[opponentID] = handler
	return relay.NewRelay(testutil.NopLogger())
}

// deliver injects a progress event from the named player into the session
// watching them
func (f *fakeRelays) deliver(matchID model.MatchID, playerID model.PlayerID, completed int) {
	f.mu.Lock()
	handler := f.handlers[playerID]
	f.mu.Unlock()
	handler(model.ProgressEvent{
		MatchID:             matchID,
		PlayerID:            playerID,
		ChallengeIndex:      completed,
		ChallengesCompleted: completed,
		SentAt:              f.clock.Now(),
	})
}

type SessionSuite struct {
	suite.Suite
	ctx     context.Context
	storage *memory.Storage
	bus     *pubsub.MemoryBus
	clock   *mocks.MockClock
	relays  *fakeRelays
	manager *Manager
	matchID model.MatchID
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.ctx = context.Background()
	s.storage = memory.New()
	s.bus = pubsub.NewMemoryBus(testutil.NopLogger())
	s.clock = mocks.NewMockClock(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	s.relays = newFakeRelays(s.clock)

	challenges := challenge.New(s.storage, mocks.NewMockRandom(), testutil.NopLogger())
	s.manager = NewManager(s.storage, s.bus, challenges, rating.New(), s.relays, s.clock, testutil.NopLogger())
	s.matchID = model.MatchID("match-1")
	s.seedMatch(300)
}

// seedMatch stores five challenges, two default-rated profiles, and a
// pending match record between p1 and p2
func (s *SessionSuite) seedMatch(durationSeconds int) {
	sequence := make([]model.ChallengeID, 0, 5)
	for i := 1; i <= 5; i++ {
		id := model.ChallengeID(fmt.Sprintf("c%d", i))
		s.Require().NoError(s.storage.SaveChallenge(s.ctx, &model.Challenge{
			ID:         id,
			Title:      fmt.Sprintf("Challenge %d", i),
			Difficulty: model.DifficultyMedium,
			CreatedAt:  s.clock.Now(),
		}))
		sequence = append(sequence, id)
	}
	for _, playerID := range []model.PlayerID{"p1", "p2"} {
		s.Require().NoError(s.storage.SaveRatingProfile(s.ctx, model.NewRatingProfile(playerID, s.clock.Now())))
	}
	s.Require().NoError(s.storage.SaveMatch(s.ctx, &model.MatchRecord{
		ID:                s.matchID,
		Player1ID:         "p1",
		Player2ID:         "p2",
		ChallengeSequence: sequence,
		DurationSeconds:   durationSeconds,
		Status:            model.MatchStatusPending,
		Ready:             make(map[model.PlayerID]bool),
		CreatedAt:         s.clock.Now(),
	}))
}

func (s *SessionSuite) joinBoth() (*Session, *Session) {
	s1, err := s.manager.Join(s.ctx, s.matchID, "p1")
	s.Require().NoError(err)
	s2, err := s.manager.Join(s.ctx, s.matchID, "p2")
	s.Require().NoError(err)
	// Activation is queued through each session's inbox; wait for both
	// countdown tickers to register before tests start ticking the clock
	s.Require().Eventually(func() bool { return s.clock.TickerCount() == 2 },
		time.Second, 5*time.Millisecond)
	return s1, s2
}

func (s *SessionSuite) snapshot(session *Session) Snapshot {
	snapshot, err := session.Snapshot(s.ctx)
	s.Require().NoError(err)
	return snapshot
}

func (s *SessionSuite) TestJoinUnknownMatch() {
	_, err := s.manager.Join(s.ctx, "nope", "p1")
	s.Require().ErrorIs(err, model.ErrMatchNotFound)
}

func (s *SessionSuite) TestJoinNotParticipant() {
	_, err := s.manager.Join(s.ctx, s.matchID, "intruder")
	s.Require().ErrorIs(err, model.ErrNotParticipant)
}

func (s *SessionSuite) TestFirstJoinWaitsForOpponent() {
	s1, err := s.manager.Join(s.ctx, s.matchID, "p1")
	s.Require().NoError(err)

	snapshot := s.snapshot(s1)
	s.Equal(StateInitializing, snapshot.State)

	match, err := s.storage.GetMatch(s.ctx, s.matchID)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusPending, match.Status)
	s.True(match.Ready["p1"])
	s.False(match.Ready["p2"])
}

func (s *SessionSuite) TestSecondJoinActivatesBoth() {
	s1, s2 := s.joinBoth()

	snap1 := s.snapshot(s1)
	snap2 := s.snapshot(s2)
	s.Equal(StateActive, snap1.State)
	s.Equal(StateActive, snap2.State)
	s.Equal(300, snap1.Remaining)
	s.Equal(5, snap1.TotalChallenges)
	s.NotNil(snap1.CurrentChallenge)
	s.Equal(model.ChallengeID("c1"), snap1.CurrentChallenge.ID)

	match, err := s.storage.GetMatch(s.ctx, s.matchID)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusActive, match.Status)
	s.False(match.StartedAt.IsZero())
}

func (s *SessionSuite) TestRejoinReturnsSameSession() {
	s1, _ := s.joinBoth()
	again, err := s.manager.Join(s.ctx, s.matchID, "p1")
	s.Require().NoError(err)
	s.Same(s1, again)
	s.Equal(2, s.manager.SessionCount())
}

func (s *SessionSuite) TestCountdownExpiresAfterExactTicks() {
	s1, _ := s.joinBoth()

	s.clock.TickN(299)
	snapshot := s.snapshot(s1)
	s.Equal(StateActive, snapshot.State)
	s.Equal(1, snapshot.Remaining)

	s.clock.Tick()
	snapshot = s.snapshot(s1)
	s.Equal(StateCompleted, snapshot.State)
	s.Equal(0, snapshot.Remaining)
}

func (s *SessionSuite) TestWarningRaisesAtSixtySeconds() {
	s1, _ := s.joinBoth()

	s.clock.TickN(239)
	s.False(s.snapshot(s1).Warning)

	s.clock.Tick()
	snapshot := s.snapshot(s1)
	s.Equal(60, snapshot.Remaining)
	s.True(snapshot.Warning)
}

func (s *SessionSuite) TestTieAtExpiryIsDefeatForBoth() {
	s1, s2 := s.joinBoth()

	s.clock.TickN(300)
	s.Equal(model.ResultDefeat, s.snapshot(s1).Result)
	s.Equal(model.ResultDefeat, s.snapshot(s2).Result)

	match, err := s.storage.GetMatch(s.ctx, s.matchID)
	s.Require().NoError(err)
	s.Require().NotNil(match.Result)
	s.Equal(model.ResultDefeat, match.Result.Outcomes["p1"].Result)
	s.Equal(model.ResultDefeat, match.Result.Outcomes["p2"].Result)

	// Both sides score a loss: equal provisional players each drop 20
	for _, playerID := range []model.PlayerID{"p1", "p2"} {
		profile, err := s.storage.GetRatingProfile(s.ctx, playerID)
		s.Require().NoError(err)
		s.Equal(1180, profile.Rating)
		s.Equal(1, profile.Losses)
	}
}

func (s *SessionSuite) TestExpiryDefeatWhenBehind() {
	s1, _ := s.joinBoth()
	s.relays.deliver(s.matchID, "p2", 3)

	s.clock.TickN(300)
	snapshot := s.snapshot(s1)
	s.Equal(StateCompleted, snapshot.State)
	s.Equal(model.ResultDefeat, snapshot.Result)
}

func (s *SessionSuite) TestOptimisticVictoryWhenPullingAhead() {
	s1, _ := s.joinBoth()
	s.relays.deliver(s.matchID, "p2", 2)

	snapshot, err := s1.CompleteChallenge(s.ctx)
	s.Require().NoError(err)
	s.Equal(StateActive, snapshot.State)
	s.Equal(1, snapshot.OwnCompleted)

	snapshot, err = s1.CompleteChallenge(s.ctx)
	s.Require().NoError(err)
	s.Equal(StateActive, snapshot.State)

	// Third completion takes p1 past the last known opponent count
	snapshot, err = s1.CompleteChallenge(s.ctx)
	s.Require().NoError(err)
	s.Equal(StateCompleted, snapshot.State)
	s.Equal(model.ResultVictory, snapshot.Result)
}

func (s *SessionSuite) TestFullSequenceIsVictory() {
	s1, _ := s.joinBoth()
	s.relays.deliver(s.matchID, "p2", 5)

	var snapshot Snapshot
	var err error
	for i := 0; i < 5; i++ {
		snapshot, err = s1.CompleteChallenge(s.ctx)
		s.Require().NoError(err)
	}
	s.Equal(StateCompleted, snapshot.State)
	s.Equal(model.ResultVictory, snapshot.Result)
}

func (s *SessionSuite) TestOpponentProgressAloneNeverResolves() {
	s1, _ := s.joinBoth()
	s.relays.deliver(s.matchID, "p2", 5)

	snapshot := s.snapshot(s1)
	s.Equal(StateActive, snapshot.State)
	s.Equal(5, snapshot.OpponentCompleted)
	s.True(snapshot.OpponentOnline)
}

func (s *SessionSuite) TestStaleOpponentEventNeverRegresses() {
	s1, _ := s.joinBoth()
	s.relays.deliver(s.matchID, "p2", 3)
	s.relays.deliver(s.matchID, "p2", 1)

	s.Equal(3, s.snapshot(s1).OpponentCompleted)
}

func (s *SessionSuite) TestOpponentGoesOfflineAfterSilence() {
	s1, _ := s.joinBoth()
	s.relays.deliver(s.matchID, "p2", 1)
	s.True(s.snapshot(s1).OpponentOnline)

	s.clock.TickN(30)
	s.True(s.snapshot(s1).OpponentOnline)

	s.clock.Tick()
	s.False(s.snapshot(s1).OpponentOnline)
}

func (s *SessionSuite) TestSilentOpponentGoesOfflineDespitePolling() {
	// Production relay wiring: push over the bus plus the storage poller.
	// The poller re-reads the opponent's snapshot every interval; only the
	// snapshot's own activity time may count towards liveness.
	relays := relay.NewFactory(s.bus, s.storage, s.clock, relay.DefaultConfig(), testutil.NopLogger())
	challenges := challenge.New(s.storage, mocks.NewMockRandom(), testutil.NopLogger())
	manager := NewManager(s.storage, s.bus, challenges, rating.New(), relays, s.clock, testutil.NopLogger())
	defer manager.Shutdown()

	s1, err := manager.Join(s.ctx, s.matchID, "p1")
	s.Require().NoError(err)
	_, err = manager.Join(s.ctx, s.matchID, "p2")
	s.Require().NoError(err)

	// Two countdown tickers plus two poll tickers once both are active
	s.Require().Eventually(func() bool { return s.clock.TickerCount() == 4 },
		time.Second, 5*time.Millisecond)

	// The activation snapshot is fresh, so p2 shows up online at first
	s.clock.Tick()
	s.Require().Eventually(func() bool { return s.snapshot(s1).OpponentOnline },
		time.Second, 5*time.Millisecond)

	// p2 never acts again; 35s of polling the same stale snapshot must not
	// keep them online
	s.clock.TickN(34)
	s.False(s.snapshot(s1).OpponentOnline)
}

func (s *SessionSuite) TestCompletionBeforeActivationRejected() {
	s1, err := s.manager.Join(s.ctx, s.matchID, "p1")
	s.Require().NoError(err)

	_, err = s1.CompleteChallenge(s.ctx)
	s.Require().ErrorIs(err, model.ErrMatchNotActive)
}

func (s *SessionSuite) TestCompletionAfterCompletionIsSilentNoOp() {
	s1, _ := s.joinBoth()
	s.clock.TickN(300)

	snapshot, err := s1.CompleteChallenge(s.ctx)
	s.Require().NoError(err)
	s.Equal(StateCompleted, snapshot.State)
	s.Equal(0, snapshot.OwnCompleted)
	s.Equal(model.ResultDefeat, snapshot.Result)
}

func (s *SessionSuite) TestAbandonIsForfeit() {
	_, s2 := s.joinBoth()

	s.Require().NoError(s.manager.Leave(s.ctx, s.matchID, "p1"))
	s.Equal(1, s.manager.SessionCount())

	match, err := s.storage.GetMatch(s.ctx, s.matchID)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusCompleted, match.Status)
	s.Equal(model.ResultDefeat, match.Result.Outcomes["p1"].Result)
	s.Equal(model.ResultVictory, match.Result.Outcomes["p2"].Result)
	s.Equal(model.PlayerID("p1"), match.Result.ResolvedBy)

	// The remaining session runs on and adopts the stored outcome when it
	// eventually resolves
	s.clock.TickN(300)
	s.Equal(model.ResultVictory, s.snapshot(s2).Result)
}

func (s *SessionSuite) TestRatingsAppliedOnResolution() {
	s1, _ := s.joinBoth()
	s.relays.deliver(s.matchID, "p2", 5)
	for i := 0; i < 5; i++ {
		_, err := s1.CompleteChallenge(s.ctx)
		s.Require().NoError(err)
	}

	// Equal provisional players: K=40, expected 0.5, so a 20 point swing
	winner, err := s.storage.GetRatingProfile(s.ctx, "p1")
	s.Require().NoError(err)
	s.Equal(1220, winner.Rating)
	s.Equal(1, winner.GamesPlayed)
	s.Equal(1, winner.Wins)
	s.Equal(1, winner.Streak)

	loser, err := s.storage.GetRatingProfile(s.ctx, "p2")
	s.Require().NoError(err)
	s.Equal(1180, loser.Rating)
	s.Equal(1, loser.GamesPlayed)
	s.Equal(1, loser.Losses)
	s.Equal(-1, loser.Streak)
}

func (s *SessionSuite) TestHistoryAppendedForBothPlayers() {
	s1, _ := s.joinBoth()
	s.relays.deliver(s.matchID, "p2", 5)
	for i := 0; i < 5; i++ {
		_, err := s1.CompleteChallenge(s.ctx)
		s.Require().NoError(err)
	}

	history, err := s.storage.GetMatchHistory(s.ctx, "p1", 10)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(s.matchID, history[0].MatchID)
	s.Equal(model.ResultVictory, history[0].Result)
	s.Equal(model.PlayerID("p2"), history[0].OpponentID)
	s.Equal(20, history[0].EloDelta)

	history, err = s.storage.GetMatchHistory(s.ctx, "p2", 10)
	s.Require().NoError(err)
	s.Require().Len(history, 1)
	s.Equal(model.ResultDefeat, history[0].Result)
}

func (s *SessionSuite) TestJoinCompletedMatchRejected() {
	s1, _ := s.joinBoth()
	s.Require().NoError(s1.Abandon(s.ctx))

	_, err := s.manager.Join(s.ctx, s.matchID, "p1")
	s.Require().ErrorIs(err, model.ErrMatchCompleted)
}

func (s *SessionSuite) TestShutdownPreservesActiveMatch() {
	s1, _ := s.joinBoth()

	// Keep p1 level with the known opponent count so completing a
	// challenge does not trigger the optimistic win
	s.relays.deliver(s.matchID, "p2", 2)
	_, err := s1.CompleteChallenge(s.ctx)
	s.Require().NoError(err)

	s.manager.Shutdown()
	s.Equal(0, s.manager.SessionCount())

	match, err := s.storage.GetMatch(s.ctx, s.matchID)
	s.Require().NoError(err)
	s.Equal(model.MatchStatusActive, match.Status)
	s.Nil(match.Result)
}
