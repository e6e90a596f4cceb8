package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var gamesCmd = &cobra.Command{
	Use:   "games",
	Short: "Browse the imported game catalog",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)
		minScore, _ := cmd.Flags().GetInt("min-score")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		list, err := client.Games(minScore, limit, offset)
		if err != nil {
			return fmt.Errorf("list games: %w", err)
		}

		if jsonOutput {
			printJSON(list)
			return nil
		}
		if len(list.Items) == 0 {
			fmt.Println("No games in catalog. Run 'snapguess import start' first.")
			return nil
		}
		for _, g := range list.Items {
			fmt.Printf("%4d  %-40s  score %3d  %s\n",
				g.ID, g.Title, g.QualityScore, strings.Join(g.Genres, ","))
		}
		fmt.Printf("\n%d of %d games\n", len(list.Items), list.Total)
		return nil
	},
}

var gamesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy-search catalog titles",
	Long: `Fuzzy-search catalog titles the way a guess is checked.

Examples:
  snapguess games search "half life"
  snapguess games search hlaf-life      # typos still match`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL)
		limit, _ := cmd.Flags().GetInt("limit")

		matches, err := client.SearchGames(strings.Join(args, " "), limit)
		if err != nil {
			return fmt.Errorf("search games: %w", err)
		}

		if jsonOutput {
			printJSON(matches)
			return nil
		}
		if len(matches) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, m := range matches {
			fmt.Printf("%.2f  %-30s  %s\n", m.Score, m.Title, m.Slug)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(gamesCmd)
	gamesCmd.AddCommand(gamesSearchCmd)

	gamesCmd.Flags().Int("min-score", 0, "Only games at or above this score")
	gamesCmd.Flags().Int("limit", 50, "Maximum games to list")
	gamesCmd.Flags().Int("offset", 0, "Listing offset")
	gamesSearchCmd.Flags().Int("limit", 10, "Maximum matches")
}
