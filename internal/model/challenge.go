package model

import "time"

// ChallengeID uniquely identifies a challenge
type ChallengeID string

// ChallengeDifficulty buckets challenges for sequence selection
type ChallengeDifficulty string

const (
	DifficultyEasy   ChallengeDifficulty = "easy"
	DifficultyMedium ChallengeDifficulty = "medium"
	DifficultyHard   ChallengeDifficulty = "hard"
)

// Challenge is the content of a single coding challenge.
// Authoring and correctness judging happen outside this system; the server
// only needs enough to present the sequence and track completion.
type Challenge struct {
	ID         ChallengeID
	Title      string
	Prompt     string
	Difficulty ChallengeDifficulty
	CreatedAt  time.Time
}
