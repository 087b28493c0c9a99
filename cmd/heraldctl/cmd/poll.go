package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func pollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Trigger a poll cycle",
		Long:  "Asks the server to run one full poll cycle outside the schedule.",
		RunE: func(_ *cobra.Command, _ []string) error {
			c := newClient()
			if err := c.TriggerPoll(context.Background()); err != nil {
				return err
			}

			fmt.Println("Poll cycle completed.")
			return nil
		},
	}
}
