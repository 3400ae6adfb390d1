package rating

import (
	"math"

	"github.com/mcoot/codebattle-go/internal/model"
)

// Score values for the standard ELO outcome scale
const (
	ScoreWin  = 1.0
	ScoreLoss = 0.0
	ScoreDraw = 0.5
)

// K-factor tiers. Provisional players move fastest regardless of rating;
// established players slow down as rating climbs.
const (
	kProvisional = 40
	kLow         = 32
	kMid         = 24
	kHigh        = 16
	kLowCeiling  = 1200
	kMidCeiling  = 1800
)

// Matching window parameters: base width plus growth per second waited
const (
	rangeBase         = 200
	rangeGrowthPerSec = 2
)

// Service computes ELO rating updates and matchmaking windows.
// All methods are pure and total over valid input ranges.
type Service struct{}

// New creates a new rating Service
func New() *Service {
	return &Service{}
}

// UpdateResult is the outcome of a single-sided rating update
type UpdateResult struct {
	NewRating int
	Delta     int
	Expected  float64
}

// ExpectedScore returns the probability-like expected score for a player
// rated ratingA against an opponent rated ratingB.
// ExpectedScore(a, b) + ExpectedScore(b, a) == 1 for all inputs.
func (s *Service) ExpectedScore(ratingA, ratingB int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
}

// KFactor returns the rating sensitivity for a player.
// Provisional players get the maximum K independent of rating.
func (s *Service) KFactor(gamesPlayed, rating int) int {
	if s.IsProvisional(gamesPlayed) {
		return kProvisional
	}
	switch {
	case rating < kLowCeiling:
		return kLow
	case rating < kMidCeiling:
		return kMid
	default:
		return kHigh
	}
}

// Update computes a player's new rating from a match score in [0, 1]
func (s *Service) Update(rating, opponentRating int, score float64, gamesPlayed int) UpdateResult {
	expected := s.ExpectedScore(rating, opponentRating)
	k := s.KFactor(gamesPlayed, rating)
	delta := int(math.Round(float64(k) * (score - expected)))

	return UpdateResult{
		NewRating: clampRating(rating + delta),
		Delta:     delta,
		Expected:  expected,
	}
}

// MatchOutcome computes both sides of a match independently. Each side uses
// its own K-factor: rating volatility is driven by a player's own experience,
// not the opponent's. score1 is player 1's score; player 2 scores 1 - score1.
func (s *Service) MatchOutcome(rating1, rating2 int, score1 float64, games1, games2 int) (UpdateResult, UpdateResult) {
	result1 := s.Update(rating1, rating2, score1, games1)
	result2 := s.Update(rating2, rating1, 1.0-score1, games2)
	return result1, result2
}

// MatchingRange returns the inclusive rating window a waiting player will
// accept opponents from. The window widens with wait time and is symmetric
// around the player's rating before clamping to the valid rating bounds.
func (s *Service) MatchingRange(rating, waitSeconds int) (low, high int) {
	width := rangeBase + rangeGrowthPerSec*waitSeconds
	return clampRating(rating - width), clampRating(rating + width)
}

// IsProvisional reports whether a player is still in the provisional period
func (s *Service) IsProvisional(gamesPlayed int) bool {
	return gamesPlayed < model.ProvisionalGames
}

// ScoreForResult maps a battle result to its ELO score value
func ScoreForResult(result model.BattleResult) float64 {
	switch result {
	case model.ResultVictory:
		return ScoreWin
	case model.ResultDraw:
		return ScoreDraw
	default:
		return ScoreLoss
	}
}

func clampRating(rating int) int {
	if rating < model.MinRating {
		return model.MinRating
	}
	if rating > model.MaxRating {
		return model.MaxRating
	}
	return rating
}
