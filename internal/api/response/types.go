package response

import (
	"time"

	"github.com/mcoot/codebattle-go/internal/model"
	"github.com/mcoot/codebattle-go/internal/services/auth"
	"github.com/mcoot/codebattle-go/internal/services/battle"
	"github.com/mcoot/codebattle-go/internal/services/matchmaking"
)

// Player represents a player in API responses
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:          string(p.ID),
		DisplayName: p.DisplayName,
		IsGuest:     p.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
	}
}

// RatingProfile represents a player's skill profile
type RatingProfile struct {
	PlayerID    string `json:"player_id"`
	Rating      int    `json:"rating"`
	GamesPlayed int    `json:"games_played"`
	Wins        int    `json:"wins"`
	Losses      int    `json:"losses"`
	Draws       int    `json:"draws"`
	Streak      int    `json:"streak"`
	BestStreak  int    `json:"best_streak"`
	Provisional bool   `json:"provisional"`
}

// RatingProfileFromModel converts a model.RatingProfile
func RatingProfileFromModel(p *model.RatingProfile) RatingProfile {
	return RatingProfile{
		PlayerID:    string(p.PlayerID),
		Rating:      p.Rating,
		GamesPlayed: p.GamesPlayed,
		Wins:        p.Wins,
		Losses:      p.Losses,
		Draws:       p.Draws,
		Streak:      p.Streak,
		BestStreak:  p.BestStreak,
		Provisional: p.Provisional(),
	}
}

// QueueStatus is a player's matchmaking status
type QueueStatus struct {
	State       string `json:"state"`
	WaitSeconds int    `json:"wait_seconds"`
	WindowLow   int    `json:"window_low"`
	WindowHigh  int    `json:"window_high"`
	MatchID     string `json:"match_id,omitempty"`
}

// QueueStatusFromService converts a matchmaking.Status
func QueueStatusFromService(s *matchmaking.Status) QueueStatus {
	return QueueStatus{
		State:       string(s.State),
		WaitSeconds: s.WaitSeconds,
		WindowLow:   s.WindowLow,
		WindowHigh:  s.WindowHigh,
		MatchID:     string(s.MatchID),
	}
}

// Challenge represents a challenge in API responses
type Challenge struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Prompt     string `json:"prompt,omitempty"`
	Difficulty string `json:"difficulty"`
}

// ChallengeFromModel converts a model.Challenge
func ChallengeFromModel(c *model.Challenge) Challenge {
	return Challenge{
		ID:         string(c.ID),
		Title:      c.Title,
		Prompt:     c.Prompt,
		Difficulty: string(c.Difficulty),
	}
}

// PlayerOutcome is one player's share of a resolved match
type PlayerOutcome struct {
	Result    string `json:"result"`
	EloDelta  int    `json:"elo_delta"`
	NewRating int    `json:"new_rating"`
}

// MatchRecord represents a match record
type MatchRecord struct {
	ID              string                   `json:"id"`
	Player1ID       string                   `json:"player1_id"`
	Player2ID       string                   `json:"player2_id"`
	Status          string                   `json:"status"`
	DurationSeconds int                      `json:"duration_seconds"`
	ChallengeIDs    []string                 `json:"challenge_ids"`
	Outcomes        map[string]PlayerOutcome `json:"outcomes,omitempty"`
	CreatedAt       time.Time                `json:"created_at"`
	StartedAt       *time.Time               `json:"started_at,omitempty"`
	CompletedAt     *time.Time               `json:"completed_at,omitempty"`
}

// MatchRecordFromModel converts a model.MatchRecord
func MatchRecordFromModel(m *model.MatchRecord) MatchRecord {
	record := MatchRecord{
		ID:              string(m.ID),
		Player1ID:       string(m.Player1ID),
		Player2ID:       string(m.Player2ID),
		Status:          string(m.Status),
		DurationSeconds: m.DurationSeconds,
		CreatedAt:       m.CreatedAt,
	}
	for _, id := range m.ChallengeSequence {
		record.ChallengeIDs = append(record.ChallengeIDs, string(id))
	}
	if !m.StartedAt.IsZero() {
		startedAt := m.StartedAt
		record.StartedAt = &startedAt
	}
	if !m.CompletedAt.IsZero() {
		completedAt := m.CompletedAt
		record.CompletedAt = &completedAt
	}
	if m.Result != nil {
		record.Outcomes = make(map[string]PlayerOutcome, len(m.Result.Outcomes))
		for playerID, outcome := range m.Result.Outcomes {
			record.Outcomes[string(playerID)] = PlayerOutcome{
				Result:    string(outcome.Result),
				EloDelta:  outcome.EloDelta,
				NewRating: outcome.NewRating,
			}
		}
	}
	return record
}

// BattleState is a session snapshot for the participating player
type BattleState struct {
	MatchID    string `json:"match_id"`
	OpponentID string `json:"opponent_id"`
	State      string `json:"state"`
	Remaining  int    `json:"remaining_seconds"`
	Warning    bool   `json:"warning"`
	Result     string `json:"result,omitempty"`

	TotalChallenges   int        `json:"total_challenges"`
	OwnCompleted      int        `json:"own_completed"`
	CurrentChallenge  *Challenge `json:"current_challenge,omitempty"`
	OpponentCompleted int        `json:"opponent_completed"`
	OpponentOnline    bool       `json:"opponent_online"`
}

// BattleStateFromSnapshot converts a battle.Snapshot
func BattleStateFromSnapshot(s battle.Snapshot) BattleState {
	state := BattleState{
		MatchID:           string(s.MatchID),
		OpponentID:        string(s.OpponentID),
		State:             string(s.State),
		Remaining:         s.Remaining,
		Warning:           s.Warning,
		Result:            string(s.Result),
		TotalChallenges:   s.TotalChallenges,
		OwnCompleted:      s.OwnCompleted,
		OpponentCompleted: s.OpponentCompleted,
		OpponentOnline:    s.OpponentOnline,
	}
	if s.CurrentChallenge != nil {
		current := ChallengeFromModel(s.CurrentChallenge)
		state.CurrentChallenge = &current
	}
	return state
}

// MatchSummary is one entry in a player's match history
type MatchSummary struct {
	MatchID        string    `json:"match_id"`
	OpponentID     string    `json:"opponent_id"`
	Result         string    `json:"result"`
	EloDelta       int       `json:"elo_delta"`
	RatingAfter    int       `json:"rating_after"`
	ChallengesDone int       `json:"challenges_done"`
	CompletedAt    time.Time `json:"completed_at"`
}

// MatchSummaryFromModel converts a model.MatchSummary
func MatchSummaryFromModel(s *model.MatchSummary) MatchSummary {
	return MatchSummary{
		MatchID:        string(s.MatchID),
		OpponentID:     string(s.OpponentID),
		Result:         string(s.Result),
		EloDelta:       s.EloDelta,
		RatingAfter:    s.RatingAfter,
		ChallengesDone: s.ChallengesDone,
		CompletedAt:    s.CompletedAt,
	}
}
