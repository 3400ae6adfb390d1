package model

import "time"

// Rating bounds enforced everywhere a rating is written
const (
	MinRating = 400
	MaxRating = 3000

	// DefaultRating is the starting rating for a new profile
	DefaultRating = 1200

	// ProvisionalGames is the number of games in the provisional period
	ProvisionalGames = 20
)

// RatingProfile holds a player's skill rating and match statistics.
// Mutated exactly once per completed match.
type RatingProfile struct {
	PlayerID    PlayerID
	Rating      int
	GamesPlayed int
	Wins        int
	Losses      int
	Draws       int

	// Streak sign encodes the run direction: positive = win run, negative = loss run
	Streak     int
	BestStreak int

	UpdatedAt time.Time
}

// NewRatingProfile creates a profile at the default rating
func NewRatingProfile(playerID PlayerID, now time.Time) *RatingProfile {
	return &RatingProfile{
		PlayerID:  playerID,
		Rating:    DefaultRating,
		UpdatedAt: now,
	}
}

// Provisional reports whether the profile is still in its provisional period
func (p *RatingProfile) Provisional() bool {
	return p.GamesPlayed < ProvisionalGames
}

// RecordResult applies a single match result to the profile's counters.
// The rating itself is set by the caller from the rating engine's output.
func (p *RatingProfile) RecordResult(result BattleResult) {
	p.GamesPlayed++
	switch result {
	case ResultVictory:
		p.Wins++
		if p.Streak > 0 {
			p.Streak++
		} else {
			p.Streak = 1
		}
		if p.Streak > p.BestStreak {
			p.BestStreak = p.Streak
		}
	case ResultDefeat:
		p.Losses++
		if p.Streak < 0 {
			p.Streak--
		} else {
			p.Streak = -1
		}
	case ResultDraw:
		p.Draws++
		p.Streak = 0
	}
}
