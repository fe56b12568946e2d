// Package progress records quiz completions and reports a user's progress
// through the lesson catalog.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/abhisek/lyfeline/internal/apperr"
	"github.com/abhisek/lyfeline/internal/lessons"
	"github.com/abhisek/lyfeline/internal/logger"
	"github.com/abhisek/lyfeline/internal/rank"
	"github.com/abhisek/lyfeline/internal/scoring"
	"github.com/abhisek/lyfeline/internal/store"
)

// Store is the persistence the completion flow needs. Each call is
// independent; no atomicity across calls is assumed.
type Store interface {
	GetProfile(ctx context.Context, userID string) (*store.Profile, error)
	CountAttempts(ctx context.Context, userID, lessonID string) (int, error)
	IsCompleted(ctx context.Context, userID, lessonID string) (bool, error)
	UpsertCompletion(ctx context.Context, userID, lessonID string) error
	InsertAttempt(ctx context.Context, data store.AttemptData) (*store.Attempt, error)
	UpdateProfile(ctx context.Context, userID string, upd store.ProfileUpdate) error
	ListCompletions(ctx context.Context, userID string) ([]store.Completion, error)
	ListAttempts(ctx context.Context, userID string, opts store.QueryOpts) ([]store.Attempt, error)
}

// Leaderboard mirrors point totals. Failures never fail a completion.
type Leaderboard interface {
	Set(ctx context.Context, userID string, total int) error
}

// Service runs the quiz completion flow.
type Service struct {
	store   Store
	catalog *lessons.Catalog
	board   Leaderboard
	log     *logger.Logger
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithLeaderboard mirrors point changes into board.
func WithLeaderboard(board Leaderboard) Option {
	return func(s *Service) { s.board = board }
}

// WithLogger sets the service logger.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithClock overrides the current time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a completion service over st and catalog.
func NewService(st Store, catalog *lessons.Catalog, opts ...Option) *Service {
	s := &Service{
		store:   st,
		catalog: catalog,
		log:     logger.Nop(),
		now:     time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Result is what a finished quiz returns to the caller.
type Result struct {
	LessonID string `json:"lessonId"`
	scoring.Outcome
	// FirstCompletion is true when this attempt created the completion mark.
	FirstCompletion bool      `json:"firstCompletion"`
	Rank            rank.Info `json:"rank"`
}

// CompleteQuiz scores a finished quiz for userID and persists the outcome:
// the completion mark, the attempt record and the profile update, in that
// order. A failing side effect stops the sequence and is reported as a
// *PartialCompletionError; effects already applied are not rolled back.
func (s *Service) CompleteQuiz(ctx context.Context, userID, lessonID string, selected, correct []int) (*Result, error) {
	lesson, ok := s.catalog.Get(lessonID)
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "lesson %q not found", lessonID)
	}

	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		return nil, upstream("get profile", err)
	}
	prior, err := s.store.CountAttempts(ctx, userID, lessonID)
	if err != nil {
		return nil, upstream("count attempts", err)
	}
	done, err := s.store.IsCompleted(ctx, userID, lessonID)
	if err != nil {
		return nil, upstream("check completion", err)
	}

	out, err := scoring.Evaluate(scoring.Input{
		Selected:      selected,
		Correct:       correct,
		Difficulty:    lesson.Difficulty,
		Reward:        lesson.PointsReward,
		PriorAttempts: prior,
		Profile: scoring.ProfileState{
			TotalPoints:  profile.TotalPoints,
			Streak:       profile.CurrentStreak,
			LastActivity: profile.LastActivityDate,
		},
		Today: s.now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	if err := s.persist(ctx, userID, lessonID, out); err != nil {
		s.log.Error("quiz completion partially applied", "user_id", userID, "lesson_id", lessonID, "error", err)
		return nil, err
	}

	// Points are added in the database, so concurrent purchases or
	// completions may have moved the total since the first read.
	if fresh, err := s.store.GetProfile(ctx, userID); err != nil {
		s.log.Warn("re-read profile failed, reporting pre-update total", "user_id", userID, "error", err)
	} else {
		out.NewTotalPoints = fresh.TotalPoints
		if s.board != nil {
			if err := s.board.Set(ctx, userID, fresh.TotalPoints); err != nil {
				s.log.Warn("leaderboard update failed", "user_id", userID, "error", err)
			}
		}
	}

	info, err := rank.For(out.NewTotalPoints)
	if err != nil {
		return nil, err
	}

	s.log.Info("quiz completed",
		"user_id", userID,
		"lesson_id", lessonID,
		"score", out.RawScore,
		"points", out.PointsEarned,
		"attempt", out.NewAttemptCount,
		"streak", out.Streak,
	)

	return &Result{
		LessonID:        lessonID,
		Outcome:         out,
		FirstCompletion: !done,
		Rank:            info,
	}, nil
}

func (s *Service) persist(ctx context.Context, userID, lessonID string, out scoring.Outcome) error {
	var applied []Step

	if err := s.store.UpsertCompletion(ctx, userID, lessonID); err != nil {
		return &PartialCompletionError{Applied: applied, Failed: StepMarkCompleted, Err: err}
	}
	applied = append(applied, StepMarkCompleted)

	_, err := s.store.InsertAttempt(ctx, store.AttemptData{
		UserID:         userID,
		LessonID:       lessonID,
		Score:          out.RawScore,
		TotalQuestions: out.TotalQuestions,
		Percentage:     out.Percentage,
		PointsEarned:   out.PointsEarned,
	})
	if err != nil {
		return &PartialCompletionError{Applied: applied, Failed: StepInsertAttempt, Err: err}
	}
	applied = append(applied, StepInsertAttempt)

	err = s.store.UpdateProfile(ctx, userID, store.ProfileUpdate{
		PointsDelta:      out.PointsEarned,
		Streak:           out.Streak,
		LastActivityDate: out.ActivityDate,
	})
	if err != nil {
		return &PartialCompletionError{Applied: applied, Failed: StepUpdateProfile, Err: err}
	}
	return nil
}

// AttemptStatus describes how many graded attempts remain for a lesson.
type AttemptStatus struct {
	LessonID    string `json:"lessonId"`
	Count       int    `json:"attemptCount"`
	Max         int    `json:"maxAttempts"`
	Remaining   int    `json:"attemptsRemaining"`
	Completed   bool   `json:"completed"`
	CanEarnMore bool   `json:"canEarnPoints"`
}

// Attempts reports userID's attempt count against the lesson's limit.
func (s *Service) Attempts(ctx context.Context, userID, lessonID string) (*AttemptStatus, error) {
	lesson, ok := s.catalog.Get(lessonID)
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "lesson %q not found", lessonID)
	}
	n, err := s.store.CountAttempts(ctx, userID, lessonID)
	if err != nil {
		return nil, upstream("count attempts", err)
	}
	done, err := s.store.IsCompleted(ctx, userID, lessonID)
	if err != nil {
		return nil, upstream("check completion", err)
	}
	limit := lesson.Difficulty.MaxAttempts()
	return &AttemptStatus{
		LessonID:    lessonID,
		Count:       n,
		Max:         limit,
		Remaining:   max(limit-n, 0),
		Completed:   done,
		CanEarnMore: n < limit,
	}, nil
}

// upstream classifies an unclassified store error as an upstream failure.
func upstream(op string, err error) error {
	err = fmt.Errorf("%s: %w", op, err)
	if apperr.KindOf(err) != apperr.KindUnknown {
		return err
	}
	return apperr.Wrap(apperr.KindUpstreamFailure, err)
}
