package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/abhisek/lyfeline/internal/rank"
)

var rankCmd = &cobra.Command{
	Use:   "rank [points]",
	Short: "Show the rank for a point total, or the rank table",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			for _, r := range rank.AllRanks() {
				fmt.Printf("%s %-13s from %d\n", r.Icon(), r, r.LowerBound())
			}
			return nil
		}

		points, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid points %q: %w", args[0], err)
		}
		info, err := rank.For(points)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s (%d points)\n", info.Icon, info.Rank, info.Points)
		if info.UpperBound < 0 {
			fmt.Println("Top rank reached.")
			return nil
		}
		fmt.Printf("%d points to %s (%.0f%% of the way)\n", info.PointsToNext, info.NextRank, info.Progress*100)
		return nil
	},
}
