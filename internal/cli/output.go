package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case RatingProfile:
		o.printRatingProfile(v)
	case QueueStatus:
		o.printQueueStatus(v)
	case Challenge:
		o.printChallenge(v)
	case []Challenge:
		o.printChallengeList(v)
	case MatchRecord:
		o.printMatchRecord(v)
	case BattleState:
		o.printBattleState(v)
	case []MatchSummary:
		o.printHistory(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// RatingProfile response type
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

// QueueStatus response type
type QueueStatus struct {
	State       string `json:"state"`
	WaitSeconds int    `json:"wait_seconds"`
	WindowLow   int    `json:"window_low"`
	WindowHigh  int    `json:"window_high"`
	MatchID     string `json:"match_id,omitempty"`
}

// Challenge response type
type Challenge struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Prompt     string `json:"prompt,omitempty"`
	Difficulty string `json:"difficulty"`
}

// PlayerOutcome response type
type PlayerOutcome struct {
	Result    string `json:"result"`
	EloDelta  int    `json:"elo_delta"`
	NewRating int    `json:"new_rating"`
}

// MatchRecord response type
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

// BattleState response type
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

// MatchSummary response type
type MatchSummary struct {
	MatchID        string    `json:"match_id"`
	OpponentID     string    `json:"opponent_id"`
	Result         string    `json:"result"`
	EloDelta       int       `json:"elo_delta"`
	RatingAfter    int       `json:"rating_after"`
	ChallengesDone int       `json:"challenges_done"`
	CompletedAt    time.Time `json:"completed_at"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p Player) {
	guestStr := "no"
	if p.IsGuest {
		guestStr = "yes"
	}
	fmt.Printf("Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Printf("Guest: %s\n", guestStr)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printRatingProfile(p RatingProfile) {
	fmt.Printf("Rating: %d", p.Rating)
	if p.Provisional {
		fmt.Print(" (provisional)")
	}
	fmt.Println()
	fmt.Printf("Record: %dW / %dL / %dD over %d games\n", p.Wins, p.Losses, p.Draws, p.GamesPlayed)
	fmt.Printf("Streak: %s (best %d)\n", formatStreak(p.Streak), p.BestStreak)
}

func formatStreak(streak int) string {
	switch {
	case streak > 0:
		return fmt.Sprintf("%d wins", streak)
	case streak < 0:
		return fmt.Sprintf("%d losses", -streak)
	default:
		return "none"
	}
}

func (o *Output) printQueueStatus(q QueueStatus) {
	fmt.Printf("State: %s\n", q.State)
	if q.State == "matched" {
		fmt.Printf("Match: %s\n", q.MatchID)
		return
	}
	fmt.Printf("Waiting: %ds\n", q.WaitSeconds)
	fmt.Printf("Window: %d-%d\n", q.WindowLow, q.WindowHigh)
}

func (o *Output) printChallenge(c Challenge) {
	fmt.Printf("Challenge: %s (%s)\n", c.Title, c.ID)
	fmt.Printf("Difficulty: %s\n", c.Difficulty)
	if c.Prompt != "" {
		fmt.Printf("\n%s\n", c.Prompt)
	}
}

func (o *Output) printChallengeList(challenges []Challenge) {
	fmt.Printf("Challenges (%d):\n", len(challenges))
	for _, c := range challenges {
		fmt.Printf("  - %s (%s) [%s]\n", c.Title, c.ID, c.Difficulty)
	}
}

func (o *Output) printMatchRecord(m MatchRecord) {
	fmt.Printf("Match: %s\n", m.ID)
	fmt.Printf("Status: %s\n", m.Status)
	fmt.Printf("Players: %s vs %s\n", m.Player1ID, m.Player2ID)
	fmt.Printf("Duration: %ds\n", m.DurationSeconds)
	fmt.Printf("Challenges: %s\n", strings.Join(m.ChallengeIDs, ", "))
	if m.StartedAt != nil {
		fmt.Printf("Started: %s\n", m.StartedAt.Format(time.RFC3339))
	}
	if m.CompletedAt != nil {
		fmt.Printf("Completed: %s\n", m.CompletedAt.Format(time.RFC3339))
	}
	if len(m.Outcomes) > 0 {
		fmt.Println("Outcomes:")
		for playerID, outcome := range m.Outcomes {
			fmt.Printf("  %s: %s (%+d -> %d)\n", playerID, outcome.Result, outcome.EloDelta, outcome.NewRating)
		}
	}
}

func (o *Output) printBattleState(b BattleState) {
	fmt.Printf("Match: %s (vs %s)\n", b.MatchID, b.OpponentID)
	fmt.Printf("State: %s\n", b.State)

	if b.Result != "" {
		fmt.Printf("Result: %s\n", b.Result)
	}

	remaining := fmt.Sprintf("%d:%02d", b.Remaining/60, b.Remaining%60)
	if b.Warning {
		remaining += " [time running out]"
	}
	fmt.Printf("Remaining: %s\n", remaining)

	fmt.Printf("You: %d/%d\n", b.OwnCompleted, b.TotalChallenges)
	if b.CurrentChallenge != nil {
		fmt.Printf("Current: %s (%s)\n", b.CurrentChallenge.Title, b.CurrentChallenge.ID)
	}

	onlineStr := "online"
	if !b.OpponentOnline {
		onlineStr = "offline"
	}
	fmt.Printf("Opponent: %d/%d (%s)\n", b.OpponentCompleted, b.TotalChallenges, onlineStr)
}

func (o *Output) printHistory(summaries []MatchSummary) {
	fmt.Printf("History (%d):\n", len(summaries))
	for _, s := range summaries {
		fmt.Printf("  %s  %s vs %s: %s (%+d -> %d, %d done)\n",
			s.CompletedAt.Format("2006-01-02 15:04"),
			s.MatchID, s.OpponentID, s.Result, s.EloDelta, s.RatingAfter, s.ChallengesDone)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
