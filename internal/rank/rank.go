// Package rank maps cumulative point totals to named tiers.
package rank

import (
	"math"

	"github.com/abhisek/lyfeline/internal/apperr"
)

// Rank is a named band of cumulative points.
type Rank string

const (
	RankBeginner     Rank = "Beginner"
	RankNovice       Rank = "Novice"
	RankIntermediate Rank = "Intermediate"
	RankAdvanced     Rank = "Advanced"
	RankLegend       Rank = "Legend"
)

// AllRanks returns all ranks from lowest to highest.
func AllRanks() []Rank {
	return []Rank{RankBeginner, RankNovice, RankIntermediate, RankAdvanced, RankLegend}
}

// Icon returns the display icon for the rank.
func (r Rank) Icon() string {
	switch r {
	case RankBeginner:
		return "🌱"
	case RankNovice:
		return "⭐"
	case RankIntermediate:
		return "🔥"
	case RankAdvanced:
		return "💎"
	case RankLegend:
		return "👑"
	default:
		return "✦"
	}
}

// LowerBound returns the first point total in the rank.
func (r Rank) LowerBound() int {
	switch r {
	case RankNovice:
		return 500
	case RankIntermediate:
		return 1000
	case RankAdvanced:
		return 2000
	case RankLegend:
		return 5000
	default:
		return 0
	}
}

// Next returns the rank above r. Legend is terminal and returns itself.
func (r Rank) Next() Rank {
	switch r {
	case RankBeginner:
		return RankNovice
	case RankNovice:
		return RankIntermediate
	case RankIntermediate:
		return RankAdvanced
	default:
		return RankLegend
	}
}

// Terminal reports whether no rank follows r.
func (r Rank) Terminal() bool { return r == RankLegend }

// ForPoints returns the rank containing points. Negative totals map to
// Beginner; use For to reject them.
func ForPoints(points int) Rank {
	switch {
	case points >= 5000:
		return RankLegend
	case points >= 2000:
		return RankAdvanced
	case points >= 1000:
		return RankIntermediate
	case points >= 500:
		return RankNovice
	default:
		return RankBeginner
	}
}

// Info is the rank metadata shown next to a point total.
type Info struct {
	Points       int     `json:"points"`
	Rank         Rank    `json:"rank"`
	NextRank     Rank    `json:"nextRank"`
	PointsToNext int     `json:"pointsToNext"`
	Progress     float64 `json:"progress"`
	LowerBound   int     `json:"lowerBound"`
	// UpperBound is exclusive; -1 for the terminal rank.
	UpperBound int    `json:"upperBound"`
	Icon       string `json:"icon"`
}

// For computes rank metadata for a non-negative point total.
func For(points int) (Info, error) {
	if points < 0 {
		return Info{}, apperr.New(apperr.KindInvalidInput, "points must be non-negative, got %d", points)
	}

	r := ForPoints(points)
	info := Info{
		Points:     points,
		Rank:       r,
		NextRank:   r.Next(),
		LowerBound: r.LowerBound(),
		UpperBound: -1,
		Progress:   1.0,
		Icon:       r.Icon(),
	}
	if r.Terminal() {
		return info, nil
	}

	upper := r.Next().LowerBound()
	info.UpperBound = upper
	info.PointsToNext = upper - points
	info.Progress = clamp(float64(points-info.LowerBound) / float64(upper-info.LowerBound))
	return info, nil
}

func clamp(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
