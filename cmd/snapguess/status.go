package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Server status and catalog verification",
	Long: `Show server status and optionally verify catalog integrity.

Examples:
  snapguess status            # Catalog counts and active import
  snapguess status --verify   # Also check screenshot files on disk`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)
		runVerify, _ := cmd.Flags().GetBool("verify")

		st, err := client.Status()
		if err != nil {
			return fmt.Errorf("status check failed: %w", err)
		}

		active, _ := client.ActiveImport()

		if jsonOutput {
			out := map[string]any{"status": st}
			if active != nil {
				out["active_import"] = active
			}
			if runVerify {
				verify, err := client.Verify(nil)
				if err != nil {
					return fmt.Errorf("verify failed: %w", err)
				}
				out["verify"] = verify
			}
			printJSON(out)
			return nil
		}

		fmt.Printf("snapguess | Server: %s\n\n", serverURL)
		fmt.Println("Catalog")
		fmt.Printf("  Games:        %d\n", st.Games)
		fmt.Printf("  Screenshots:  %d\n", st.Screenshots)
		fmt.Println()

		if active != nil {
			fmt.Println("Active import")
			printJob(active)
		} else {
			fmt.Println("No active import.")
		}

		if runVerify {
			fmt.Println()
			return runVerifyCatalog(client)
		}
		return nil
	},
}

func runVerifyCatalog(client *Client) error {
	result, err := client.Verify(nil)
	if err != nil {
		return fmt.Errorf("verify failed: %w", err)
	}

	if jsonOutput {
		printJSON(result)
		return nil
	}

	providerStatus := "ok"
	if !result.Connections.Provider {
		providerStatus = "FAIL " + result.Connections.ProviderErr
	}
	fmt.Printf("Verification (%d games checked):\n\n", result.Checked)
	fmt.Printf("  Provider: %s\n", providerStatus)
	fmt.Printf("  Passed:   %d/%d\n", result.Passed, result.Checked)
	fmt.Println()

	if len(result.Problems) == 0 {
		fmt.Println("No problems detected.")
		return nil
	}

	fmt.Printf("Problems (%d):\n\n", len(result.Problems))
	for i := range result.Problems {
		p := &result.Problems[i]
		fmt.Printf("  ID %d | %s\n", p.GameID, p.Title)
		fmt.Printf("    Issue: %s\n", p.Issue)
		for _, fix := range p.Fixes {
			fmt.Printf("    Fix: %s\n", fix)
		}
		fmt.Println()
	}
	return nil
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().Bool("verify", false, "Verify screenshot assets on disk")
}
