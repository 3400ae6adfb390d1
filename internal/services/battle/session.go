package battle

import (
	"context"
	"log/slog"
	"time"

	"github.com/mcoot/codebattle-go/internal/dependencies/clock"
	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/pubsub"
	"github.com/mcoot/codebattle-go/internal/services/relay"
	"github.com/mcoot/codebattle-go/internal/storage"
)

// State is a session's lifecycle phase
type State string

const (
	StateInitializing State = "initializing" // Joined, waiting for both players to be ready
	StateActive       State = "active"       // Countdown running
	StateCompleted    State = "completed"    // Terminal
)

// WarningThresholdSeconds is the remaining time at which the low-time
// warning flag raises
const WarningThresholdSeconds = 60

const inboxSize = 64

// Snapshot is a point-in-time view of a session, safe to hand to callers
type Snapshot struct {
	MatchID    model.MatchID
	PlayerID   model.PlayerID
	OpponentID model.PlayerID

	State     State
	Remaining int
	Warning   bool
	Result    model.BattleResult // Empty until Completed

	TotalChallenges   int
	OwnCompleted      int
	OwnIndex          int
	OpponentCompleted int
	OpponentOnline    bool
	OpponentLastSeen  time.Time

	// CurrentChallenge is the challenge the player is on, nil once the
	// sequence is exhausted or before activation
	CurrentChallenge *model.Challenge
}

// Session is one participant's view of a live match. All mutable state is
// owned by the run loop and driven by a single serialized message stream:
// timer ticks, local completions, relayed opponent updates, snapshots, and
// abandonment all pass through the same inbox.
type Session struct {
	matchID    model.MatchID
	playerID   model.PlayerID
	opponentID model.PlayerID

	storage   storage.Storage
	bus       pubsub.PubSub
	finalizer *Finalizer
	clock     clock.Clock
	logger    *slog.Logger

	sequence        []*model.Challenge
	durationSeconds int

	inbox  chan message
	done   chan struct{}
	cancel context.CancelFunc

	// Run-loop-owned state; never touched outside run()
	state        State
	remaining    int
	warning      bool
	result       model.BattleResult
	ownCompleted int
	ownIndex     int
	oppCompleted int
	oppIndex     int
	oppLastSeen  time.Time
	oppOnline    bool
	ticker       clock.Ticker
	tickCh       <-chan time.Time
	rel          *relay.Relay
}

type message interface{ sessionMessage() }

type activateMsg struct{}

type completionMsg struct {
	resp chan completionReply
}

type completionReply struct {
	snapshot Snapshot
	err      error
}

type opponentMsg struct {
	event model.ProgressEvent
}

type snapshotMsg struct {
	resp chan Snapshot
}

type abandonMsg struct {
	resp chan error
}

func (activateMsg) sessionMessage()   {}
func (completionMsg) sessionMessage() {}
func (opponentMsg) sessionMessage()   {}
func (snapshotMsg) sessionMessage()   {}
func (abandonMsg) sessionMessage()    {}

func newSession(
	match *model.MatchRecord,
	playerID model.PlayerID,
	sequence []*model.Challenge,
	storage storage.Storage,
	bus pubsub.PubSub,
	finalizer *Finalizer,
	relays relay.Provider,
	clock clock.Clock,
	logger *slog.Logger,
) *Session {
	s := &Session{
		matchID:         match.ID,
		playerID:        playerID,
		opponentID:      match.Opponent(playerID),
		storage:         storage,
		bus:             bus,
		finalizer:       finalizer,
		clock:           clock,
		sequence:        sequence,
		durationSeconds: match.DurationSeconds,
		inbox:           make(chan message, inboxSize),
		done:            make(chan struct{}),
		state:           StateInitializing,
		remaining:       match.DurationSeconds,
	}
	s.logger = logger.With(
		slog.String("component", "battle_session"),
		slog.String("match_id", string(match.ID)),
		slog.String("player_id", string(playerID)),
	)
	s.rel = relays.NewRelay(match.ID, s.opponentID, s.deliverOpponent)
	return s
}

// start seeds the initial opponent view and launches the run loop
func (s *Session) start(ctx context.Context) {
	if progress, err := s.storage.GetProgress(ctx, s.matchID, s.opponentID); err == nil {
		s.oppCompleted = progress.ChallengesCompleted
		s.oppIndex = progress.CurrentChallengeIndex
		s.oppLastSeen = progress.LastActivityAt
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	go s.run(runCtx)
}

// deliverOpponent feeds relayed opponent progress into the inbox. The send
// never blocks: a full inbox drops the event and the poll observer's next
// snapshot corrects the view.
func (s *Session) deliverOpponent(event model.ProgressEvent) {
	select {
	case s.inbox <- opponentMsg{event: event}:
	default:
		s.logger.Warn("inbox full, dropping opponent progress event")
	}
}

// Snapshot returns the session's current state
func (s *Session) Snapshot(ctx context.Context) (Snapshot, error) {
	resp := make(chan Snapshot, 1)
	select {
	case s.inbox <- snapshotMsg{resp: resp}:
	case <-s.done:
		return Snapshot{}, model.ErrSessionNotFound
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case snapshot := <-resp:
		return snapshot, nil
	case <-s.done:
		return Snapshot{}, model.ErrSessionNotFound
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// CompleteChallenge records that the player solved their current challenge.
// The correctness judgement happened upstream; this is the already-resolved
// completion signal.
func (s *Session) CompleteChallenge(ctx context.Context) (Snapshot, error) {
	resp := make(chan completionReply, 1)
	select {
	case s.inbox <- completionMsg{resp: resp}:
	case <-s.done:
		return Snapshot{}, model.ErrSessionNotFound
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
	select {
	case reply := <-resp:
		return reply.snapshot, reply.err
	case <-s.done:
		return Snapshot{}, model.ErrSessionNotFound
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Abandon forfeits the match for this session's player. The opponent's
// session is unaffected and resolves on its own terms.
func (s *Session) Abandon(ctx context.Context) error {
	resp := make(chan error, 1)
	select {
	case s.inbox <- abandonMsg{resp: resp}:
	case <-s.done:
		return model.ErrSessionNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-resp:
		return err
	case <-s.done:
		return model.ErrSessionNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

// activate starts the countdown; called by the manager once both players
// have confirmed readiness
func (s *Session) activate() {
	select {
	case s.inbox <- activateMsg{}:
	case <-s.done:
	}
}

// close tears the session down without forfeiting; used on server shutdown
func (s *Session) close() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.done
}

func (s *Session) run(ctx context.Context) {
	defer close(s.done)
	defer s.teardown()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-s.tickCh:
			s.handleTick(ctx, now)
		case msg := <-s.inbox:
			switch m := msg.(type) {
			case activateMsg:
				s.handleActivate(ctx)
			case completionMsg:
				m.resp <- s.handleCompletion(ctx)
			case opponentMsg:
				s.handleOpponent(m.event)
			case snapshotMsg:
				m.resp <- s.currentSnapshot()
			case abandonMsg:
				m.resp <- s.handleAbandon(ctx)
			}
		}
	}
}

func (s *Session) teardown() {
	if s.ticker != nil {
		s.ticker.Stop()
		s.ticker = nil
		s.tickCh = nil
	}
	s.rel.Stop()
}

func (s *Session) handleActivate(ctx context.Context) {
	if s.state != StateInitializing {
		return
	}
	s.state = StateActive
	s.remaining = s.durationSeconds
	s.ticker = s.clock.NewTicker(time.Second)
	s.tickCh = s.ticker.C()
	s.rel.Start(ctx)
	s.publishOwnProgress(ctx)
	s.logger.Info("session active", slog.Int("duration_seconds", s.durationSeconds))
}

func (s *Session) handleTick(ctx context.Context, now time.Time) {
	if s.state != StateActive {
		return
	}

	s.remaining--
	if !s.warning && s.remaining <= WarningThresholdSeconds && s.remaining > 0 {
		s.warning = true
	}
	if s.oppOnline && now.Sub(s.oppLastSeen) > relay.OfflineThreshold {
		s.oppOnline = false
	}

	if s.remaining <= 0 {
		switch {
		case s.ownCompleted > s.oppCompleted:
			s.complete(ctx, model.ResultVictory, model.ResultDefeat)
		case s.ownCompleted < s.oppCompleted:
			s.complete(ctx, model.ResultDefeat, model.ResultVictory)
		default:
			// A timed-out tie is a defeat for both sides
			s.complete(ctx, model.ResultDefeat, model.ResultDefeat)
		}
	}
}

func (s *Session) handleCompletion(ctx context.Context) completionReply {
	switch s.state {
	case StateCompleted:
		// A completion landing after resolution is dropped without error;
		// the caller just sees the final state
		return completionReply{snapshot: s.currentSnapshot()}
	case StateInitializing:
		return completionReply{snapshot: s.currentSnapshot(), err: model.ErrMatchNotActive}
	}

	s.ownCompleted++
	s.ownIndex++
	s.publishOwnProgress(ctx)

	// Optimistic local-first win check against the last known opponent count
	if s.ownCompleted >= len(s.sequence) || s.ownCompleted > s.oppCompleted {
		s.complete(ctx, model.ResultVictory, model.ResultDefeat)
	}
	return completionReply{snapshot: s.currentSnapshot()}
}

func (s *Session) handleOpponent(event model.ProgressEvent) {
	if s.state == StateCompleted {
		return
	}
	// Counts only move forward; a stale push never regresses the view
	if event.ChallengesCompleted > s.oppCompleted {
		s.oppCompleted = event.ChallengesCompleted
		s.oppIndex = event.ChallengeIndex
	}
	// Liveness follows the opponent's own activity time, not event arrival:
	// the poll observer re-reads the same snapshot every interval, and that
	// must not keep a silent opponent marked online
	if event.SentAt.After(s.oppLastSeen) {
		s.oppLastSeen = event.SentAt
	}
	s.oppOnline = s.clock.Now().Sub(s.oppLastSeen) <= relay.OfflineThreshold
}

func (s *Session) handleAbandon(ctx context.Context) error {
	if s.state == StateCompleted {
		return nil
	}
	s.logger.Info("session abandoned, forfeiting")
	s.complete(ctx, model.ResultDefeat, model.ResultVictory)
	return nil
}

// complete moves the session to its terminal state and finalizes the match.
// Finalization is idempotent across the two racing sessions; whichever
// resolution lands first is authoritative for the stored outcome.
func (s *Session) complete(ctx context.Context, result, opponentResult model.BattleResult) {
	if s.state == StateCompleted {
		return
	}
	s.state = StateCompleted
	s.result = result
	s.teardown()
	s.persistProgress(ctx, false)

	outcome, err := s.finalizer.Finalize(ctx, s.matchID, s.playerID, result, opponentResult)
	if err != nil {
		s.logger.Error("match finalization failed",
			slog.String("result", string(result)),
			slog.Any("error", err))
		return
	}
	// The stored outcome wins if the opposing session resolved first
	if stored, ok := outcome.Outcomes[s.playerID]; ok && stored.Result != result {
		s.logger.Warn("local resolution superseded by stored outcome",
			slog.String("local", string(result)),
			slog.String("stored", string(stored.Result)))
		s.result = stored.Result
	}
}

// publishOwnProgress persists the snapshot and publishes the push event.
// Both are fire-and-forget relative to the state machine.
func (s *Session) publishOwnProgress(ctx context.Context) {
	now := s.clock.Now()
	progress := &model.ParticipantProgress{
		MatchID:               s.matchID,
		PlayerID:              s.playerID,
		ChallengesCompleted:   s.ownCompleted,
		CurrentChallengeIndex: s.ownIndex,
		LastActivityAt:        now,
		Online:                true,
	}
	event := model.ProgressEvent{
		MatchID:             s.matchID,
		PlayerID:            s.playerID,
		ChallengeIndex:      s.ownIndex,
		ChallengesCompleted: s.ownCompleted,
		SentAt:              now,
	}

	go func() {
		if err := s.storage.SaveProgress(ctx, progress); err != nil {
			s.logger.Warn("progress snapshot write failed", slog.Any("error", err))
		}
		if err := s.bus.Publish(ctx, model.ProgressTopic(s.matchID), event); err != nil {
			s.logger.Warn("progress publish failed", slog.Any("error", err))
		}
	}()
}

// persistProgress writes the final frozen snapshot synchronously
func (s *Session) persistProgress(ctx context.Context, online bool) {
	progress := &model.ParticipantProgress{
		MatchID:               s.matchID,
		PlayerID:              s.playerID,
		ChallengesCompleted:   s.ownCompleted,
		CurrentChallengeIndex: s.ownIndex,
		LastActivityAt:        s.clock.Now(),
		Online:                online,
	}
	if err := s.storage.SaveProgress(ctx, progress); err != nil {
		s.logger.Warn("final progress write failed", slog.Any("error", err))
	}
}

func (s *Session) currentSnapshot() Snapshot {
	var current *model.Challenge
	if s.state == StateActive && s.ownIndex >= 0 && s.ownIndex < len(s.sequence) {
		current = s.sequence[s.ownIndex]
	}
	return Snapshot{
		CurrentChallenge:  current,
		MatchID:           s.matchID,
		PlayerID:          s.playerID,
		OpponentID:        s.opponentID,
		State:             s.state,
		Remaining:         s.remaining,
		Warning:           s.warning,
		Result:            s.result,
		TotalChallenges:   len(s.sequence),
		OwnCompleted:      s.ownCompleted,
		OwnIndex:          s.ownIndex,
		OpponentCompleted: s.oppCompleted,
		OpponentOnline:    s.oppOnline,
		OpponentLastSeen:  s.oppLastSeen,
	}
}
