package model

import "time"

// ProgressEvent is the wire format published on a match's progress topic
// whenever a participant completes a challenge
type ProgressEvent struct {
	MatchID             MatchID   `json:"match_id"`
	PlayerID            PlayerID  `json:"player_id"`
	ChallengeIndex      int       `json:"challenge_index"`
	ChallengesCompleted int       `json:"challenges_completed"`
	SentAt              time.Time `json:"sent_at"`
}

// ProgressTopic returns the pub/sub topic for a match's progress events
func ProgressTopic(matchID MatchID) string {
	return "match:" + string(matchID) + ":progress"
}
