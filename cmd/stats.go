package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lyfeline/internal/lessons"
	"github.com/abhisek/lyfeline/internal/progress"
	"github.com/abhisek/lyfeline/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats <user-id>",
	Short: "Show a user's points, rank and lesson progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		history, _ := cmd.Flags().GetInt("history")

		st, err := openStore(cmd)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer st.Close()

		ctx := cmd.Context()
		sum, err := progress.NewService(st, lessons.Default()).Summary(ctx, args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(sum)
		}

		fmt.Printf("%s %s  %d points  streak %d\n", sum.Rank.Icon, sum.Rank.Rank, sum.TotalPoints, sum.Streak)
		fmt.Printf("Completed %d of %d lessons\n\n", sum.CompletedCount, sum.TotalLessons)

		fmt.Printf("%-10s  %-5s  %8s  %5s  %5s  %6s\n", "Lesson", "Done", "Attempts", "Best", "Last", "Points")
		fmt.Println(strings.Repeat("─", 50))
		for _, lp := range sum.Lessons {
			if lp.Attempts == 0 {
				continue
			}
			done := ""
			if lp.Completed {
				done = "✓"
			}
			fmt.Printf("%-10s  %-5s  %4d/%-3d  %5d  %5d  %6d\n",
				lp.LessonID, done, lp.Attempts, lp.MaxAttempts, lp.BestScore, lp.LastScore, lp.PointsEarned)
		}

		if history <= 0 {
			return nil
		}
		purchases, err := st.ListPurchases(ctx, args[0], store.QueryOpts{Limit: history})
		if err != nil {
			return fmt.Errorf("list purchases: %w", err)
		}
		if len(purchases) > 0 {
			fmt.Println("\nPurchases")
			fmt.Println(strings.Repeat("─", 50))
			for _, p := range purchases {
				fmt.Printf("%-19s  %-28s  -%d\n", p.CreatedAt.Local().Format("2006-01-02 15:04:05"), truncate(p.ItemName, 28), p.PointsSpent)
			}
		}
		return nil
	},
}

func init() {
	statsCmd.Flags().Bool("json", false, "Print the summary as JSON")
	statsCmd.Flags().Int("history", 10, "Number of recent purchases to show (0 hides them)")
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
