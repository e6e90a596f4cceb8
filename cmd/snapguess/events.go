package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent events, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)
		limit, _ := cmd.Flags().GetInt("limit")

		list, err := client.Events(limit)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}

		if jsonOutput {
			printJSON(list)
			return nil
		}
		if len(list.Items) == 0 {
			fmt.Println("No events.")
			return nil
		}
		for _, e := range list.Items {
			fmt.Printf("%s  %-20s  %s/%s\n", e.OccurredAt, e.EventType, e.EntityType, e.EntityID)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.Flags().Int("limit", 50, "Maximum events to show")
}
