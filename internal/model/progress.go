package model

import "time"

// ParticipantProgress tracks one player's progress within a match.
// ChallengesCompleted is monotonically non-decreasing for the match's
// lifetime; once the match completes the progress is frozen.
type ParticipantProgress struct {
	MatchID  MatchID
	PlayerID PlayerID

	ChallengesCompleted   int
	CurrentChallengeIndex int

	LastActivityAt time.Time
	Online         bool // Derived from relay liveness, not persisted authority
}
