package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Manage catalog imports",
}

var importStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a new catalog import",
	Long: `Start a new catalog import.

The server refuses to start a second import while one is pending,
running, or paused.

Examples:
  snapguess import start
  snapguess import start --min-quality 85 --target 500
  snapguess import start --batch-size 40 --screenshots 3`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)

		req := &StartImportRequest{}
		req.BatchSize, _ = cmd.Flags().GetInt("batch-size")
		req.MinQuality, _ = cmd.Flags().GetInt("min-quality")
		req.ScreenshotsPerGame, _ = cmd.Flags().GetInt("screenshots")
		req.TargetGames, _ = cmd.Flags().GetInt("target")

		job, err := client.StartImport(req)
		if err != nil {
			return fmt.Errorf("start import: %w", err)
		}

		if jsonOutput {
			printJSON(job)
			return nil
		}
		fmt.Printf("Import %s started (batch %d, quality >= %d, %d screenshots/game)\n",
			job.ID, job.BatchSize, job.MinQuality, job.ScreenshotsPerGame)
		return nil
	},
}

var importPauseCmd = &cobra.Command{
	Use:   "pause [import-id]",
	Short: "Pause the running import at its next batch boundary",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)

		id, err := resolveImportID(client, args)
		if err != nil {
			return err
		}

		job, err := client.PauseImport(id)
		if err != nil {
			return fmt.Errorf("pause import: %w", err)
		}

		if jsonOutput {
			printJSON(job)
			return nil
		}
		fmt.Printf("Import %s pausing (%d/%s games processed)\n",
			job.ID, job.GamesProcessed, totalOrUnknown(job.TotalAvailable))
		return nil
	},
}

var importResumeCmd = &cobra.Command{
	Use:   "resume [import-id]",
	Short: "Resume a paused import from its checkpoint",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)

		id, err := resolveImportID(client, args)
		if err != nil {
			return err
		}

		job, err := client.ResumeImport(id)
		if err != nil {
			return fmt.Errorf("resume import: %w", err)
		}

		if jsonOutput {
			printJSON(job)
			return nil
		}
		fmt.Printf("Import %s resumed at page %d\n", job.ID, job.CurrentPage)
		return nil
	},
}

var importListCmd = &cobra.Command{
	Use:   "list",
	Short: "List import jobs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)
		limit, _ := cmd.Flags().GetInt("limit")

		list, err := client.ListImports(limit)
		if err != nil {
			return fmt.Errorf("list imports: %w", err)
		}

		if jsonOutput {
			printJSON(list)
			return nil
		}
		if len(list.Items) == 0 {
			fmt.Println("No imports.")
			return nil
		}
		for _, j := range list.Items {
			fmt.Printf("%s  %-9s  processed %d  imported %d  skipped %d\n",
				j.ID, j.Status, j.GamesProcessed, j.GamesImported, j.GamesSkipped)
		}
		return nil
	},
}

var importShowCmd = &cobra.Command{
	Use:   "show [import-id]",
	Short: "Show one import's progress and history",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)

		id, err := resolveImportID(client, args)
		if err != nil {
			return err
		}

		job, err := client.GetImport(id)
		if err != nil {
			return fmt.Errorf("get import: %w", err)
		}

		if jsonOutput {
			printJSON(job)
			return nil
		}
		printJob(job)

		withEvents, _ := cmd.Flags().GetBool("events")
		if withEvents {
			evts, err := client.ImportEvents(id)
			if err != nil {
				return fmt.Errorf("import events: %w", err)
			}
			fmt.Println("\nEvents:")
			for _, e := range evts.Items {
				fmt.Printf("  %s  %s\n", e.OccurredAt, e.EventType)
			}
		}
		return nil
	},
}

// resolveImportID uses the explicit argument, or falls back to the
// active import.
func resolveImportID(client *Client, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	job, err := client.ActiveImport()
	if err != nil {
		return "", fmt.Errorf("no import ID given and no active import found: %w", err)
	}
	return job.ID, nil
}

func printJob(j *JobResponse) {
	fmt.Printf("Import %s\n", j.ID)
	fmt.Printf("  Status:       %s\n", j.Status)
	fmt.Printf("  Batch:        %d/%s (size %d)\n", j.CurrentBatch, totalOrUnknown(j.TotalBatches), j.BatchSize)
	fmt.Printf("  Processed:    %d/%s\n", j.GamesProcessed, totalOrUnknown(j.TotalAvailable))
	fmt.Printf("  Imported:     %d\n", j.GamesImported)
	fmt.Printf("  Skipped:      %d\n", j.GamesSkipped)
	fmt.Printf("  Screenshots:  %d downloaded, %d failed\n", j.ScreenshotsDownloaded, j.FailedCount)
	if j.StartedAt != nil {
		fmt.Printf("  Started:      %s\n", *j.StartedAt)
	}
	if j.PausedAt != nil && j.Status == "paused" {
		fmt.Printf("  Paused:       %s\n", *j.PausedAt)
	}
	if j.CompletedAt != nil {
		fmt.Printf("  Finished:     %s\n", *j.CompletedAt)
	}
}

func totalOrUnknown(n *int) string {
	if n == nil {
		return "?"
	}
	return fmt.Sprint(*n)
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importStartCmd)
	importCmd.AddCommand(importPauseCmd)
	importCmd.AddCommand(importResumeCmd)
	importCmd.AddCommand(importListCmd)
	importCmd.AddCommand(importShowCmd)

	importStartCmd.Flags().Int("batch-size", 0, "Candidates per page (server default if 0)")
	importStartCmd.Flags().Int("min-quality", 0, "Quality floor (server default if 0)")
	importStartCmd.Flags().Int("screenshots", 0, "Screenshots per game (server default if 0)")
	importStartCmd.Flags().Int("target", 0, "Stop after this many candidates (0 = all)")
	importListCmd.Flags().Int("limit", 20, "Maximum jobs to list")
	importShowCmd.Flags().Bool("events", false, "Include the import's event history")
}
