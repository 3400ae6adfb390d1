package rating

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/codebattle-go/internal/model"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New()
}

// ExpectedScore tests

func (s *ServiceSuite) TestExpectedScoreEqualRatings() {
	s.InDelta(0.5, s.service.ExpectedScore(1200, 1200), 1e-9)
}

func (s *ServiceSuite) TestExpectedScoreHigherRatedFavoured() {
	expected := s.service.ExpectedScore(1400, 1000)
	s.Greater(expected, 0.5)
	s.InDelta(0.909, expected, 0.001)
}

func (s *ServiceSuite) TestExpectedScoresSumToOne() {
	pairs := [][2]int{
		{1200, 1200},
		{1000, 1400},
		{400, 3000},
		{3000, 400},
		{1850, 1849},
	}
	for _, pair := range pairs {
		sum := s.service.ExpectedScore(pair[0], pair[1]) + s.service.ExpectedScore(pair[1], pair[0])
		s.InDelta(1.0, sum, 1e-9, "ratings %d vs %d", pair[0], pair[1])
	}
}

// KFactor tests

func (s *ServiceSuite) TestKFactorProvisionalIgnoresRating() {
	for _, rating := range []int{400, 1200, 1800, 3000} {
		s.Equal(40, s.service.KFactor(0, rating))
		s.Equal(40, s.service.KFactor(19, rating))
	}
}

func (s *ServiceSuite) TestKFactorEstablishedTiers() {
	s.Equal(32, s.service.KFactor(20, 400))
	s.Equal(32, s.service.KFactor(20, 1199))
	s.Equal(24, s.service.KFactor(20, 1200))
	s.Equal(24, s.service.KFactor(20, 1799))
	s.Equal(16, s.service.KFactor(20, 1800))
	s.Equal(16, s.service.KFactor(100, 3000))
}

// Update tests

func (s *ServiceSuite) TestUpdateWinAtEqualRating() {
	result := s.service.Update(1200, 1200, ScoreWin, 25)

	s.InDelta(0.5, result.Expected, 1e-9)
	s.Equal(12, result.Delta) // K=24, round(24 * 0.5)
	s.Equal(1212, result.NewRating)
}

func (s *ServiceSuite) TestUpdateClampsToMinimum() {
	result := s.service.Update(model.MinRating, 3000, ScoreLoss, 5)
	s.Equal(model.MinRating, result.NewRating)
}

func (s *ServiceSuite) TestUpdateClampsToMaximum() {
	result := s.service.Update(model.MaxRating, 400, ScoreWin, 5)
	s.Equal(model.MaxRating, result.NewRating)
}

func (s *ServiceSuite) TestUpdateBoundsHoldAcrossExtremes() {
	for _, rating := range []int{400, 401, 1200, 2999, 3000} {
		for _, opp := range []int{400, 1200, 3000} {
			for _, score := range []float64{ScoreLoss, ScoreDraw, ScoreWin} {
				for _, games := range []int{0, 19, 20, 500} {
					result := s.service.Update(rating, opp, score, games)
					s.GreaterOrEqual(result.NewRating, model.MinRating)
					s.LessOrEqual(result.NewRating, model.MaxRating)
				}
			}
		}
	}
}

// MatchOutcome tests

func (s *ServiceSuite) TestMatchOutcomeUsesOwnKFactorPerSide() {
	// A: 1200 rated, 18 games (provisional, K=40) beats
	// B: 1200 rated, 25 games (established, K=24).
	// Expected score is 0.5 both ways, so the deltas differ only by K.
	resultA, resultB := s.service.MatchOutcome(1200, 1200, ScoreWin, 18, 25)

	s.InDelta(0.5, resultA.Expected, 1e-9)
	s.InDelta(0.5, resultB.Expected, 1e-9)
	s.Equal(20, resultA.Delta) // round(40 * 0.5)
	s.Equal(1220, resultA.NewRating)
	s.Equal(-12, resultB.Delta) // round(24 * -0.5)
	s.Equal(1188, resultB.NewRating)
}

func (s *ServiceSuite) TestMatchOutcomeDraw() {
	resultA, resultB := s.service.MatchOutcome(1300, 1300, ScoreDraw, 30, 30)
	s.Equal(0, resultA.Delta)
	s.Equal(0, resultB.Delta)
}

// MatchingRange tests

func (s *ServiceSuite) TestMatchingRangeAtZeroWait() {
	low, high := s.service.MatchingRange(1200, 0)
	s.Equal(1000, low)
	s.Equal(1400, high)
}

func (s *ServiceSuite) TestMatchingRangeWidensWithWait() {
	low0, high0 := s.service.MatchingRange(1200, 0)
	low100, high100 := s.service.MatchingRange(1200, 100)

	s.Equal(800, low100)
	s.Equal(1600, high100)
	s.Less(low100, low0)
	s.Greater(high100, high0)
}

func (s *ServiceSuite) TestMatchingRangeWidthNonDecreasing() {
	prevWidth := -1
	for wait := 0; wait <= 600; wait += 10 {
		low, high := s.service.MatchingRange(1700, wait)
		width := high - low
		s.GreaterOrEqual(width, prevWidth)
		prevWidth = width
	}
}

func (s *ServiceSuite) TestMatchingRangeSymmetricBeforeClamp() {
	low, high := s.service.MatchingRange(1700, 50)
	s.Equal(1700-low, high-1700)
}

func (s *ServiceSuite) TestMatchingRangeClampsToBounds() {
	low, _ := s.service.MatchingRange(500, 0)
	s.Equal(model.MinRating, low)

	_, high := s.service.MatchingRange(2950, 0)
	s.Equal(model.MaxRating, high)
}

// Provisional tests

func (s *ServiceSuite) TestIsProvisional() {
	s.True(s.service.IsProvisional(0))
	s.True(s.service.IsProvisional(19))
	s.False(s.service.IsProvisional(20))
	s.False(s.service.IsProvisional(100))
}

// ScoreForResult tests

func (s *ServiceSuite) TestScoreForResult() {
	s.Equal(1.0, ScoreForResult(model.ResultVictory))
	s.Equal(0.5, ScoreForResult(model.ResultDraw))
	s.Equal(0.0, ScoreForResult(model.ResultDefeat))
}
