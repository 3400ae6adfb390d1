package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newChallengeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Challenge catalog commands",
	}

	cmd.AddCommand(newChallengeListCmd())
	cmd.AddCommand(newChallengeGetCmd())

	return cmd
}

func newChallengeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the challenge catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result []Challenge

			if err := client.Get("/api/v1/challenges", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newChallengeGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <challenge-id>",
		Short: "Show a challenge including its prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]

			var result Challenge

			if err := client.Get(fmt.Sprintf("/api/v1/challenges/%s", id), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
