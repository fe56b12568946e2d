// Package scoring implements the quiz completion policy: score, attempt
// limited points, and daily streaks. Everything here is pure.
package scoring

import (
	"time"

	"github.com/abhisek/lyfeline/internal/apperr"
	"github.com/abhisek/lyfeline/internal/lessons"
)

// PassPercentage is the minimum percentage that counts as passing.
const PassPercentage = 60

// ProfileState is the part of a profile the policy reads.
type ProfileState struct {
	TotalPoints  int
	Streak       int
	LastActivity *time.Time
}

// Input describes one finished quiz attempt.
type Input struct {
	Selected      []int
	Correct       []int
	Difficulty    lessons.Difficulty
	Reward        int
	PriorAttempts int
	Profile       ProfileState
	Today         time.Time
}

// Outcome is the result of Evaluate.
type Outcome struct {
	RawScore          int  `json:"rawScore"`
	TotalQuestions    int  `json:"totalQuestions"`
	Percentage        int  `json:"percentage"`
	PointsEarned      int  `json:"pointsEarned"`
	NewAttemptCount   int  `json:"newAttemptCount"`
	MaxAttempts       int  `json:"maxAttempts"`
	AttemptsRemaining int  `json:"attemptsRemaining"`
	Passed            bool `json:"passed"`
	Streak            int  `json:"streak"`
	NewTotalPoints    int  `json:"newTotalPoints"`
	// ActivityDate is the UTC day recorded as the last activity.
	ActivityDate time.Time `json:"-"`
}

// Evaluate applies the completion policy to in.
func Evaluate(in Input) (Outcome, error) {
	if err := in.validate(); err != nil {
		return Outcome{}, err
	}

	score := Score(in.Selected, in.Correct)
	total := len(in.Correct)
	pct := Percentage(score, total)
	attempt := in.PriorAttempts + 1
	maxAttempts := in.Difficulty.MaxAttempts()

	points := 0
	if attempt <= maxAttempts {
		points = Points(pct, in.Reward)
	}

	return Outcome{
		RawScore:          score,
		TotalQuestions:    total,
		Percentage:        pct,
		PointsEarned:      points,
		NewAttemptCount:   attempt,
		MaxAttempts:       maxAttempts,
		AttemptsRemaining: max(maxAttempts-attempt, 0),
		Passed:            pct >= PassPercentage,
		Streak:            NextStreak(in.Profile.Streak, in.Profile.LastActivity, in.Today),
		NewTotalPoints:    in.Profile.TotalPoints + points,
		ActivityDate:      Day(in.Today),
	}, nil
}

func (in Input) validate() error {
	switch {
	case len(in.Correct) == 0:
		return apperr.New(apperr.KindInvalidInput, "no answers submitted")
	case len(in.Selected) != len(in.Correct):
		return apperr.New(apperr.KindInvalidInput, "got %d answers for %d questions", len(in.Selected), len(in.Correct))
	case !in.Difficulty.Valid():
		return apperr.New(apperr.KindInvalidInput, "unknown difficulty %q", in.Difficulty)
	case in.Reward <= 0:
		return apperr.New(apperr.KindInvalidInput, "reward must be positive, got %d", in.Reward)
	case in.PriorAttempts < 0:
		return apperr.New(apperr.KindInvalidInput, "prior attempts must be non-negative, got %d", in.PriorAttempts)
	case in.Profile.TotalPoints < 0 || in.Profile.Streak < 0:
		return apperr.New(apperr.KindInvalidInput, "profile totals must be non-negative")
	}
	return nil
}

// Score counts positions where selected equals correct.
func Score(selected, correct []int) int {
	n := 0
	for i := range correct {
		if i < len(selected) && selected[i] == correct[i] {
			n++
		}
	}
	return n
}

// Percentage returns round(100*score/total), rounding halves up.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return roundDiv(100*score, total)
}

// Points returns the reward earned for a percentage on an attempt that is
// within the limit.
func Points(percentage, reward int) int {
	switch {
	case percentage >= 80:
		return reward
	case percentage >= 60:
		return roundDiv(reward*7, 10)
	case percentage >= 40:
		return roundDiv(reward*5, 10)
	default:
		return 0
	}
}

// NextStreak returns the streak after activity on today. A last activity
// date after today is treated as the same day.
func NextStreak(streak int, last *time.Time, today time.Time) int {
	if last == nil {
		return 1
	}
	switch diff := DaysBetween(*last, today); {
	case diff <= 0:
		return max(streak, 1)
	case diff == 1:
		return streak + 1
	default:
		return 1
	}
}

// roundDiv returns n/d rounded half up for non-negative n and positive d.
func roundDiv(n, d int) int {
	return (2*n + d) / (2 * d)
}
