package model

import "time"

// MatchID uniquely identifies a match
type MatchID string

// MatchStatus represents the lifecycle phase of a match record.
// Transitions are monotonic: Pending -> Active -> Completed.
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"   // Created by matchmaking, waiting for both sessions
	MatchStatusActive    MatchStatus = "active"    // Both sessions confirmed ready, countdown running
	MatchStatusCompleted MatchStatus = "completed" // Outcome resolved; terminal
)

// BattleResult is one participant's result in a completed match
type BattleResult string

const (
	ResultVictory BattleResult = "victory"
	ResultDefeat  BattleResult = "defeat"
	ResultDraw    BattleResult = "draw"
)

// Inverse returns the result from the opponent's perspective
func (r BattleResult) Inverse() BattleResult {
	switch r {
	case ResultVictory:
		return ResultDefeat
	case ResultDefeat:
		return ResultVictory
	default:
		return ResultDraw
	}
}

// DefaultMatchDuration is the shared countdown for a match
const DefaultMatchDuration = 300 * time.Second

// PlayerOutcome is one player's share of a match outcome
type PlayerOutcome struct {
	Result    BattleResult
	EloDelta  int
	NewRating int
}

// BattleOutcome is the resolved outcome of a match, computed exactly once
type BattleOutcome struct {
	Outcomes   map[PlayerID]PlayerOutcome
	ResolvedBy PlayerID // The participant whose session finalized the match
	ResolvedAt time.Time
}

// MatchRecord pairs two players over a fixed challenge sequence.
// The challenge sequence and duration are immutable after creation.
type MatchRecord struct {
	ID        MatchID
	Player1ID PlayerID
	Player2ID PlayerID

	ChallengeSequence []ChallengeID
	DurationSeconds   int

	Status MatchStatus
	Ready  map[PlayerID]bool // Readiness confirmations while Pending

	Result *BattleOutcome // nil until Completed

	CreatedAt   time.Time
	StartedAt   time.Time // Zero until Active
	CompletedAt time.Time // Zero until Completed
	UpdatedAt   time.Time
}

// HasPlayer reports whether the given player is a participant
func (m *MatchRecord) HasPlayer(playerID PlayerID) bool {
	return m.Player1ID == playerID || m.Player2ID == playerID
}

// Opponent returns the other participant's ID
func (m *MatchRecord) Opponent(playerID PlayerID) PlayerID {
	if m.Player1ID == playerID {
		return m.Player2ID
	}
	return m.Player1ID
}

// BothReady reports whether both participants have confirmed readiness
func (m *MatchRecord) BothReady() bool {
	return m.Ready[m.Player1ID] && m.Ready[m.Player2ID]
}

// MatchSummary is a lightweight per-player record of a completed match,
// appended to the player's match history
type MatchSummary struct {
	MatchID        MatchID
	PlayerID       PlayerID
	OpponentID     PlayerID
	Result         BattleResult
	EloDelta       int
	RatingAfter    int
	ChallengesDone int
	CompletedAt    time.Time
}
