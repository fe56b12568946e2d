package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/lyfeline/internal/lessons"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List the lesson catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, _ := cmd.Flags().GetString("category")

		catalog := lessons.Default()
		list := catalog.All()
		if cat != "" {
			list = catalog.ByCategory(lessons.Category(cat))
			if len(list) == 0 {
				return fmt.Errorf("no lessons in category %q", cat)
			}
		}

		fmt.Printf("%-10s  %-16s  %-12s  %6s  %5s  %s\n", "ID", "Category", "Difficulty", "Points", "Tries", "Title")
		fmt.Println(strings.Repeat("─", 90))
		for _, l := range list {
			fmt.Printf("%-10s  %-16s  %-12s  %6d  %5d  %s\n",
				l.ID, l.Category.DisplayName(), l.Difficulty.DisplayName(),
				l.PointsReward, l.Difficulty.MaxAttempts(), l.Title)
		}
		return nil
	},
}

func init() {
	lessonsCmd.Flags().StringP("category", "c", "", "Only show one category (health, science, social, legal, myths)")
}
