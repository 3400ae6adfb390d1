package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/codebattle-go/internal/model"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:          "player-1",
		DisplayName: "Alice",
		IsGuest:     false,
		CreatedAt:   time.Now(),
	}

	err := s.storage.SavePlayer(s.ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetPlayer(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(player.ID, retrieved.ID)
	s.Equal(player.DisplayName, retrieved.DisplayName)
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestDeletePlayer() {
	player := &model.Player{ID: "player-1", DisplayName: "Alice"}
	_ = s.storage.SavePlayer(s.ctx, player)

	err := s.storage.DeletePlayer(s.ctx, "player-1")
	s.Require().NoError(err)

	_, err = s.storage.GetPlayer(s.ctx, "player-1")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Registered player tests

func (s *StorageSuite) TestSaveAndGetRegisteredPlayer() {
	rp := &model.RegisteredPlayer{
		PlayerID:     "player-1",
		Username:     "alice",
		PasswordHash: "hash123",
		CreatedAt:    time.Now(),
	}

	err := s.storage.SaveRegisteredPlayer(s.ctx, rp)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRegisteredPlayer(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(rp.Username, retrieved.Username)
}

func (s *StorageSuite) TestGetRegisteredPlayerByUsername() {
	rp := &model.RegisteredPlayer{
		PlayerID: "player-1",
		Username: "alice",
	}
	_ = s.storage.SaveRegisteredPlayer(s.ctx, rp)

	retrieved, err := s.storage.GetRegisteredPlayerByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), retrieved.PlayerID)
}

func (s *StorageSuite) TestGetRegisteredPlayerByUsernameNotFound() {
	_, err := s.storage.GetRegisteredPlayerByUsername(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

// Rating profile tests

func (s *StorageSuite) TestSaveAndGetRatingProfile() {
	profile := model.NewRatingProfile("player-1", time.Now())
	profile.Rating = 1450
	profile.Wins = 3
	profile.GamesPlayed = 5

	err := s.storage.SaveRatingProfile(s.ctx, profile)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRatingProfile(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(1450, retrieved.Rating)
	s.Equal(3, retrieved.Wins)
}

func (s *StorageSuite) TestGetRatingProfileNotFound() {
	_, err := s.storage.GetRatingProfile(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrProfileNotFound)
}

func (s *StorageSuite) TestRatingProfileIsCopiedOnReadAndWrite() {
	profile := model.NewRatingProfile("player-1", time.Now())
	_ = s.storage.SaveRatingProfile(s.ctx, profile)

	// Mutating the caller's copy must not leak into storage
	profile.Rating = 9999

	retrieved, err := s.storage.GetRatingProfile(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(model.DefaultRating, retrieved.Rating)

	retrieved.Rating = 1
	again, err := s.storage.GetRatingProfile(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(model.DefaultRating, again.Rating)
}

// Challenge tests

func (s *StorageSuite) TestSaveAndGetChallenge() {
	challenge := &model.Challenge{
		ID:         "fizzbuzz",
		Title:      "FizzBuzz",
		Difficulty: model.DifficultyEasy,
	}

	err := s.storage.SaveChallenge(s.ctx, challenge)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetChallenge(s.ctx, "fizzbuzz")
	s.Require().NoError(err)
	s.Equal("FizzBuzz", retrieved.Title)
}

func (s *StorageSuite) TestGetChallengeNotFound() {
	_, err := s.storage.GetChallenge(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrChallengeNotFound)
}

func (s *StorageSuite) TestListChallengesPreservesInsertionOrder() {
	ids := []model.ChallengeID{"two-sum", "fizzbuzz", "lru-cache"}
	for _, id := range ids {
		_ = s.storage.SaveChallenge(s.ctx, &model.Challenge{ID: id})
	}

	challenges, err := s.storage.ListChallenges(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(challenges, 3)
	for i, id := range ids {
		s.Equal(id, challenges[i].ID)
	}
}

func (s *StorageSuite) TestResaveChallengeKeepsSinglePosition() {
	_ = s.storage.SaveChallenge(s.ctx, &model.Challenge{ID: "fizzbuzz", Title: "FizzBuzz"})
	_ = s.storage.SaveChallenge(s.ctx, &model.Challenge{ID: "two-sum", Title: "Two Sum"})
	_ = s.storage.SaveChallenge(s.ctx, &model.Challenge{ID: "fizzbuzz", Title: "FizzBuzz (revised)"})

	challenges, err := s.storage.ListChallenges(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(challenges, 2)
	s.Equal("FizzBuzz (revised)", challenges[0].Title)
}

// Match tests

func (s *StorageSuite) TestSaveAndGetMatch() {
	match := &model.MatchRecord{
		ID:                "match-1",
		Player1ID:         "p1",
		Player2ID:         "p2",
		ChallengeSequence: []model.ChallengeID{"fizzbuzz", "two-sum"},
		DurationSeconds:   300,
		Status:            model.MatchStatusPending,
		Ready:             map[model.PlayerID]bool{},
		CreatedAt:         time.Now(),
	}

	err := s.storage.SaveMatch(s.ctx, match)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetMatch(s.ctx, "match-1")
	s.Require().NoError(err)
	s.Equal(match.ID, retrieved.ID)
	s.Equal(match.ChallengeSequence, retrieved.ChallengeSequence)
}

func (s *StorageSuite) TestGetMatchNotFound() {
	_, err := s.storage.GetMatch(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *StorageSuite) TestMatchIsClonedOnReadAndWrite() {
	match := &model.MatchRecord{
		ID:        "match-1",
		Player1ID: "p1",
		Player2ID: "p2",
		Status:    model.MatchStatusPending,
		Ready:     map[model.PlayerID]bool{},
	}
	_ = s.storage.SaveMatch(s.ctx, match)

	// Both sessions of a match read the same record; mutation through a
	// returned copy must not be visible until it is saved back.
	retrieved, err := s.storage.GetMatch(s.ctx, "match-1")
	s.Require().NoError(err)
	retrieved.Ready["p1"] = true
	retrieved.Status = model.MatchStatusActive

	again, err := s.storage.GetMatch(s.ctx, "match-1")
	s.Require().NoError(err)
	s.False(again.Ready["p1"])
	s.Equal(model.MatchStatusPending, again.Status)
}

func (s *StorageSuite) TestMatchOutcomeRoundTrip() {
	match := &model.MatchRecord{
		ID:        "match-1",
		Player1ID: "p1",
		Player2ID: "p2",
		Status:    model.MatchStatusCompleted,
		Result: &model.BattleOutcome{
			Outcomes: map[model.PlayerID]model.PlayerOutcome{
				"p1": {Result: model.ResultVictory, EloDelta: 20, NewRating: 1220},
				"p2": {Result: model.ResultDefeat, EloDelta: -20, NewRating: 1180},
			},
			ResolvedBy: "p1",
		},
	}
	_ = s.storage.SaveMatch(s.ctx, match)

	retrieved, err := s.storage.GetMatch(s.ctx, "match-1")
	s.Require().NoError(err)
	s.Require().NotNil(retrieved.Result)
	s.Equal(model.ResultDefeat, retrieved.Result.Outcomes["p2"].Result)
	s.Equal(model.PlayerID("p1"), retrieved.Result.ResolvedBy)
}

// Participant progress tests

func (s *StorageSuite) TestSaveAndGetProgress() {
	progress := &model.ParticipantProgress{
		MatchID:               "match-1",
		PlayerID:              "p1",
		ChallengesCompleted:   2,
		CurrentChallengeIndex: 2,
		Online:                true,
	}

	err := s.storage.SaveProgress(s.ctx, progress)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetProgress(s.ctx, "match-1", "p1")
	s.Require().NoError(err)
	s.Equal(2, retrieved.ChallengesCompleted)
	s.True(retrieved.Online)
}

func (s *StorageSuite) TestGetProgressNotFound() {
	_, err := s.storage.GetProgress(s.ctx, "match-1", "nonexistent")
	s.ErrorIs(err, model.ErrProgressNotFound)
}

func (s *StorageSuite) TestProgressIsPerParticipant() {
	_ = s.storage.SaveProgress(s.ctx, &model.ParticipantProgress{
		MatchID: "match-1", PlayerID: "p1", ChallengesCompleted: 3,
	})
	_ = s.storage.SaveProgress(s.ctx, &model.ParticipantProgress{
		MatchID: "match-1", PlayerID: "p2", ChallengesCompleted: 1,
	})

	p1, err := s.storage.GetProgress(s.ctx, "match-1", "p1")
	s.Require().NoError(err)
	p2, err := s.storage.GetProgress(s.ctx, "match-1", "p2")
	s.Require().NoError(err)

	s.Equal(3, p1.ChallengesCompleted)
	s.Equal(1, p2.ChallengesCompleted)
}

// Match history tests

func (s *StorageSuite) TestMatchHistoryNewestFirst() {
	for i := 1; i <= 3; i++ {
		_ = s.storage.AppendMatchHistory(s.ctx, &model.MatchSummary{
			MatchID:  model.MatchID(fmt.Sprintf("match-%d", i)),
			PlayerID: "p1",
			Result:   model.ResultVictory,
		})
	}

	entries, err := s.storage.GetMatchHistory(s.ctx, "p1", 10)
	s.Require().NoError(err)
	s.Require().Len(entries, 3)
	s.Equal(model.MatchID("match-3"), entries[0].MatchID)
	s.Equal(model.MatchID("match-1"), entries[2].MatchID)
}

func (s *StorageSuite) TestMatchHistoryLimit() {
	for i := 0; i < 5; i++ {
		_ = s.storage.AppendMatchHistory(s.ctx, &model.MatchSummary{
			MatchID:  model.MatchID(fmt.Sprintf("match-%d", i)),
			PlayerID: "p1",
		})
	}

	entries, err := s.storage.GetMatchHistory(s.ctx, "p1", 2)
	s.Require().NoError(err)
	s.Len(entries, 2)
	s.Equal(model.MatchID("match-4"), entries[0].MatchID)
}

func (s *StorageSuite) TestMatchHistoryEmpty() {
	entries, err := s.storage.GetMatchHistory(s.ctx, "nonexistent", 10)
	s.Require().NoError(err)
	s.Empty(entries)
}
