package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func newMatchWatchCmd() *cobra.Command {
	var (
		jsonOutput bool
		interval   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch <match-id>",
		Short: "Watch a battle's state until it resolves",
		Long: `Poll the battle state endpoint and print a line whenever something changes.

Reported changes include:
  - the countdown entering its final minute
  - your own and your opponent's completed challenge counts
  - the opponent going offline or coming back
  - the match resolving

Press Ctrl+C to stop watching. Watching exits on its own once the match
completes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return watchMatch(args[0], interval, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output updates as JSON lines")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "Poll interval")

	return cmd
}

// watchUpdate is one printed state change
type watchUpdate struct {
	Time    time.Time   `json:"time"`
	Message string      `json:"message"`
	State   BattleState `json:"state"`
}

func watchMatch(matchID string, interval time.Duration, jsonOutput bool) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		cancel()
	}()

	path := fmt.Sprintf("/api/v1/matches/%s/state", matchID)

	var prev *BattleState
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if !jsonOutput {
		fmt.Printf("Watching match %s\n", matchID)
	}

	for {
		var state BattleState
		if err := client.Get(path, &state); err != nil {
			return err
		}

		for _, msg := range describeChanges(prev, state) {
			printUpdate(msg, state, jsonOutput)
		}
		prev = &state

		if state.State == "completed" {
			return nil
		}

		select {
		case <-ctx.Done():
			if !jsonOutput {
				fmt.Println("\nStopped watching")
			}
			return nil
		case <-ticker.C:
		}
	}
}

// describeChanges compares two polled states and reports what changed
func describeChanges(prev *BattleState, cur BattleState) []string {
	if prev == nil {
		return []string{fmt.Sprintf("state %s, you %d/%d, opponent %d/%d",
			cur.State, cur.OwnCompleted, cur.TotalChallenges, cur.OpponentCompleted, cur.TotalChallenges)}
	}

	var changes []string
	if cur.State != prev.State {
		changes = append(changes, fmt.Sprintf("state %s", cur.State))
	}
	if cur.OwnCompleted != prev.OwnCompleted {
		changes = append(changes, fmt.Sprintf("you completed a challenge (%d/%d)", cur.OwnCompleted, cur.TotalChallenges))
	}
	if cur.OpponentCompleted != prev.OpponentCompleted {
		changes = append(changes, fmt.Sprintf("opponent completed a challenge (%d/%d)", cur.OpponentCompleted, cur.TotalChallenges))
	}
	if cur.OpponentOnline != prev.OpponentOnline {
		if cur.OpponentOnline {
			changes = append(changes, "opponent is back online")
		} else {
			changes = append(changes, "opponent went offline")
		}
	}
	if cur.Warning && !prev.Warning {
		changes = append(changes, fmt.Sprintf("less than a minute remaining (%ds)", cur.Remaining))
	}
	if cur.Result != "" && cur.Result != prev.Result {
		changes = append(changes, fmt.Sprintf("match resolved: %s", cur.Result))
	}
	return changes
}

func printUpdate(msg string, state BattleState, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		update := watchUpdate{
			Time:    now,
			Message: msg,
			State:   state,
		}
		data, _ := json.Marshal(update)
		fmt.Println(string(data))
	} else {
		fmt.Printf("[%s] %s\n", now.Format("2006-01-02 15:04:05"), msg)
	}
}
