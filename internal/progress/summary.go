package progress

import (
	"context"
	"time"

	"github.com/abhisek/lyfeline/internal/lessons"
	"github.com/abhisek/lyfeline/internal/rank"
	"github.com/abhisek/lyfeline/internal/store"
)

// LessonProgress aggregates a user's attempts on one lesson.
type LessonProgress struct {
	LessonID     string     `json:"lessonId"`
	Title        string     `json:"title"`
	Category     string     `json:"category"`
	Attempts     int        `json:"attempts"`
	MaxAttempts  int        `json:"maxAttempts"`
	BestScore    int        `json:"bestScore"`
	LastScore    int        `json:"lastScore"`
	PointsEarned int        `json:"pointsEarned"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// Summary is a user's progress through the catalog.
type Summary struct {
	TotalPoints      int              `json:"totalPoints"`
	Streak           int              `json:"streak"`
	LastActivityDate string           `json:"lastActivityDate,omitempty"`
	Rank             rank.Info        `json:"rank"`
	CompletedCount   int              `json:"completedCount"`
	TotalLessons     int              `json:"totalLessons"`
	Lessons          []LessonProgress `json:"lessons"`
}

// Summary reports userID's points, rank and per-lesson progress in catalog
// order. Lessons the user never touched are included with zero attempts.
func (s *Service) Summary(ctx context.Context, userID string) (*Summary, error) {
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, upstream("get profile", err)
	}
	completions, err := s.store.ListCompletions(ctx, userID)
	if err != nil {
		return nil, upstream("list completions", err)
	}
	attempts, err := s.store.ListAttempts(ctx, userID, store.QueryOpts{})
	if err != nil {
		return nil, upstream("list attempts", err)
	}

	info, err := rank.For(profile.TotalPoints)
	if err != nil {
		return nil, err
	}

	byLesson := make(map[string]*LessonProgress)
	all := s.catalog.All()
	out := &Summary{
		TotalPoints:  profile.TotalPoints,
		Streak:       profile.CurrentStreak,
		Rank:         info,
		TotalLessons: len(all),
		Lessons:      make([]LessonProgress, len(all)),
	}
	if profile.LastActivityDate != nil {
		out.LastActivityDate = profile.LastActivityDate.Format(time.DateOnly)
	}
	for i, l := range all {
		out.Lessons[i] = newLessonProgress(l)
		byLesson[l.ID] = &out.Lessons[i]
	}

	// Attempts arrive newest first, so the first one seen is the last score.
	for _, a := range attempts {
		lp, ok := byLesson[a.LessonID]
		if !ok {
			continue
		}
		if lp.Attempts == 0 {
			lp.LastScore = a.Score
		}
		lp.Attempts++
		lp.BestScore = max(lp.BestScore, a.Score)
		lp.PointsEarned += a.PointsEarned
	}
	for _, c := range completions {
		lp, ok := byLesson[c.LessonID]
		if !ok {
			continue
		}
		at := c.CompletedAt
		lp.Completed = true
		lp.CompletedAt = &at
		out.CompletedCount++
	}
	return out, nil
}

func newLessonProgress(l lessons.Lesson) LessonProgress {
	return LessonProgress{
		LessonID:    l.ID,
		Title:       l.Title,
		Category:    string(l.Category),
		MaxAttempts: l.Difficulty.MaxAttempts(),
	}
}
