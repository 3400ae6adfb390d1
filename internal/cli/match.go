package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Battle session commands",
	}

	cmd.AddCommand(newMatchGetCmd())
	cmd.AddCommand(newMatchJoinCmd())
	cmd.AddCommand(newMatchStateCmd())
	cmd.AddCommand(newMatchCompleteCmd())
	cmd.AddCommand(newMatchLeaveCmd())
	cmd.AddCommand(newMatchWatchCmd())

	return cmd
}

func newMatchGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <match-id>",
		Short: "Get the match record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID := args[0]

			var result MatchRecord

			if err := client.Get(fmt.Sprintf("/api/v1/matches/%s", matchID), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchJoinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <match-id>",
		Short: "Join a match you were paired into",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID := args[0]

			var result BattleState

			if err := client.Post(fmt.Sprintf("/api/v1/matches/%s/join", matchID), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchStateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "state <match-id>",
		Short: "Get your live battle state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID := args[0]

			var result BattleState

			if err := client.Get(fmt.Sprintf("/api/v1/matches/%s/state", matchID), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchCompleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "complete <match-id>",
		Short: "Mark your current challenge as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID := args[0]

			var result BattleState

			if err := client.Post(fmt.Sprintf("/api/v1/matches/%s/complete", matchID), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newMatchLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <match-id>",
		Short: "Abandon the match (counts as a defeat)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			matchID := args[0]

			if err := client.Post(fmt.Sprintf("/api/v1/matches/%s/leave", matchID), nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage(fmt.Sprintf("Left match %s", matchID))
			return nil
		},
	}
}
