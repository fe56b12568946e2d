package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/lyfeline/internal/apperr"
	"github.com/abhisek/lyfeline/internal/lessons"
	"github.com/abhisek/lyfeline/internal/rank"
	"github.com/abhisek/lyfeline/internal/store"
)

// memStore is an in-memory Store with per-method failure injection.
type memStore struct {
	mu          sync.Mutex
	profiles    map[string]*store.Profile
	completions map[[2]string]time.Time
	attempts    []store.Attempt
	seq         int64
	fail        map[string]error
	// afterUpdate runs once UpdateProfile has applied, standing in for a
	// concurrent writer.
	afterUpdate func(p *store.Profile)
}

func newMemStore() *memStore {
	return &memStore{
		profiles:    make(map[string]*store.Profile),
		completions: make(map[[2]string]time.Time),
		fail:        make(map[string]error),
	}
}

func (m *memStore) addProfile(id string, points, streak int, last *time.Time) {
	m.profiles[id] = &store.Profile{ID: id, TotalPoints: points, CurrentStreak: streak, LastActivityDate: last}
}

func (m *memStore) GetProfile(_ context.Context, userID string) (*store.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["GetProfile"]; err != nil {
		return nil, err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memStore) CountAttempts(_ context.Context, userID, lessonID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.attempts {
		if a.UserID == userID && a.LessonID == lessonID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) IsCompleted(_ context.Context, userID, lessonID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.completions[[2]string{userID, lessonID}]
	return ok, nil
}

func (m *memStore) UpsertCompletion(_ context.Context, userID, lessonID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["UpsertCompletion"]; err != nil {
		return err
	}
	key := [2]string{userID, lessonID}
	if _, ok := m.completions[key]; !ok {
		m.completions[key] = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(len(m.completions)) * time.Hour)
	}
	return nil
}

func (m *memStore) InsertAttempt(_ context.Context, data store.AttemptData) (*store.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["InsertAttempt"]; err != nil {
		return nil, err
	}
	m.seq++
	a := store.Attempt{ID: "a", Sequence: m.seq, AttemptData: data}
	m.attempts = append(m.attempts, a)
	return &a, nil
}

func (m *memStore) UpdateProfile(_ context.Context, userID string, upd store.ProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail["UpdateProfile"]; err != nil {
		return err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return store.ErrNotFound
	}
	p.TotalPoints += upd.PointsDelta
	p.CurrentStreak = upd.Streak
	d := upd.LastActivityDate
	p.LastActivityDate = &d
	if m.afterUpdate != nil {
		m.afterUpdate(p)
	}
	return nil
}

func (m *memStore) ListCompletions(_ context.Context, userID string) ([]store.Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Completion
	for k, at := range m.completions {
		if k[0] == userID {
			out = append(out, store.Completion{UserID: k[0], LessonID: k[1], CompletedAt: at})
		}
	}
	return out, nil
}

func (m *memStore) ListAttempts(_ context.Context, userID string, _ store.QueryOpts) ([]store.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []store.Attempt
	for i := len(m.attempts) - 1; i >= 0; i-- {
		if m.attempts[i].UserID == userID {
			out = append(out, m.attempts[i])
		}
	}
	return out, nil
}

type fakeBoard struct {
	totals map[string]int
	err    error
}

func (b *fakeBoard) Set(_ context.Context, userID string, total int) error {
	if b.err != nil {
		return b.err
	}
	if b.totals == nil {
		b.totals = make(map[string]int)
	}
	b.totals[userID] = total
	return nil
}

var today = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)

func newTestService(st Store, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return today })}, opts...)
	return NewService(st, lessons.Default(), opts...)
}

func answers(correct int) (selected, key []int) {
	key = []int{0, 1, 2, 3, 0}
	selected = make([]int, len(key))
	for i := range key {
		if i < correct {
			selected[i] = key[i]
		} else {
			selected[i] = (key[i] + 1) % 4
		}
	}
	return selected, key
}

func daysAgo(n int) *time.Time {
	d := time.Date(2026, 10, 17-n, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestCompleteQuiz_PerfectFirstAttempt(t *testing.T) {
	st := newMemStore()
	st.addProfile("u1", 0, 0, nil)
	svc := newTestService(st)

	sel, key := answers(5)
	res, err := svc.CompleteQuiz(context.Background(), "u1", "health-1", sel, key)
	require.NoError(t, err)

	assert.Equal(t, 5, res.RawScore)
	assert.Equal(t, 100, res.Percentage)
	assert.Equal(t, 100, res.PointsEarned)
	assert.True(t, res.Passed)
	assert.Equal(t, 1, res.NewAttemptCount)
	assert.Equal(t, 4, res.AttemptsRemaining)
	assert.Equal(t, 1, res.Streak)
	assert.True(t, res.FirstCompletion)
	assert.Equal(t, rank.RankBeginner, res.Rank.Rank)

	p := st.profiles["u1"]
	assert.Equal(t, 100, p.TotalPoints)
	assert.Equal(t, 1, p.CurrentStreak)
	require.NotNil(t, p.LastActivityDate)
	assert.Equal(t, "2026-10-17", p.LastActivityDate.Format(time.DateOnly))
}

func TestCompleteQuiz_PartialCredit(t *testing.T) {
	st := newMemStore()
	st.addProfile("u1", 0, 0, nil)
	svc := newTestService(st)

	sel, key := answers(3)
	res, err := svc.CompleteQuiz(context.Background(), "u1", "health-1", sel, key)
	require.NoError(t, err)
	assert.Equal(t, 60, res.Percentage)
	assert.Equal(t, 70, res.PointsEarned)
	assert.True(t, res.Passed)
}

func TestCompleteQuiz_OverAttemptLimit(t *testing.T) {
	st := newMemStore()
	st.addProfile("u1", 0, 0, nil)
	svc := newTestService(st)
	ctx := context.Background()

	sel, key := answers(5)
	for i := 0; i < 5; i++ {
		_, err := svc.CompleteQuiz(ctx, "u1", "health-1", sel, key)
		require.NoError(t, err)
	}

	res, err := svc.CompleteQuiz(ctx, "u1", "health-1", sel, key)
	require.NoError(t, err)
	assert.Equal(t, 6, res.NewAttemptCount)
	assert.Equal(t, 0, res.PointsEarned)
	assert.Equal(t, 0, res.AttemptsRemaining)
	assert.False(t, res.FirstCompletion)

	// Every attempt is recorded, the completion mark is not duplicated.
	assert.Len(t, st.attempts, 6)
	assert.Len(t, st.completions, 1)
	assert.Equal(t, 500, st.profiles["u1"].TotalPoints)
}

func TestCompleteQuiz_Streaks(t *testing.T) {
	tests := []struct {
		name   string
		streak int
		last   *time.Time
		want   int
	}{
		{"first ever", 0, nil, 1},
		{"same day", 4, daysAgo(0), 4},
		{"same day zero", 0, daysAgo(0), 1},
		{"yesterday", 4, daysAgo(1), 5},
		{"two days ago", 10, daysAgo(2), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newMemStore()
			st.addProfile("u1", 0, tt.streak, tt.last)
			svc := newTestService(st)

			sel, key := answers(1)
			res, err := svc.CompleteQuiz(context.Background(), "u1", "health-1", sel, key)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Streak)
			assert.Equal(t, tt.want, st.profiles["u1"].CurrentStreak)
		})
	}
}

func TestCompleteQuiz_Errors(t *testing.T) {
	st := newMemStore()
	st.addProfile("u1", 0, 0, nil)
	svc := newTestService(st)
	ctx := context.Background()
	sel, key := answers(5)

	_, err := svc.CompleteQuiz(ctx, "u1", "no-such-lesson", sel, key)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "unknown lesson: %v", err)

	_, err = svc.CompleteQuiz(ctx, "ghost", "health-1", sel, key)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "unknown user: %v", err)

	_, err = svc.CompleteQuiz(ctx, "u1", "health-1", sel[:3], key)
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput), "length mismatch: %v", err)

	_, err = svc.CompleteQuiz(ctx, "u1", "health-1", nil, nil)
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput), "empty: %v", err)

	assert.Empty(t, st.attempts, "invalid submissions must not be recorded")

	st.fail["GetProfile"] = errors.New("connection reset")
	_, err = svc.CompleteQuiz(ctx, "u1", "health-1", sel, key)
	assert.True(t, apperr.Is(err, apperr.KindUpstreamFailure), "store down: %v", err)
}

func TestCompleteQuiz_PartialFailure(t *testing.T) {
	boom := errors.New("write timeout")
	tests := []struct {
		failAt      string
		wantStep    Step
		wantApplied []Step
		attempts    int
	}{
		{"UpsertCompletion", StepMarkCompleted, nil, 0},
		{"InsertAttempt", StepInsertAttempt, []Step{StepMarkCompleted}, 0},
		{"UpdateProfile", StepUpdateProfile, []Step{StepMarkCompleted, StepInsertAttempt}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.failAt, func(t *testing.T) {
			st := newMemStore()
			st.addProfile("u1", 0, 0, nil)
			st.fail[tt.failAt] = boom
			board := &fakeBoard{}
			svc := newTestService(st, WithLeaderboard(board))

			sel, key := answers(5)
			res, err := svc.CompleteQuiz(context.Background(), "u1", "health-1", sel, key)
			require.Error(t, err)
			assert.Nil(t, res)

			var perr *PartialCompletionError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantStep, perr.Failed)
			assert.Equal(t, tt.wantApplied, perr.Applied)
			assert.ErrorIs(t, err, boom)
			assert.Equal(t, apperr.KindUpstreamFailure, apperr.KindOf(err))

			assert.Len(t, st.attempts, tt.attempts)
			assert.Equal(t, 0, st.profiles["u1"].TotalPoints)
			assert.Empty(t, board.totals, "leaderboard must not move on failure")
		})
	}
}

func TestCompleteQuiz_Leaderboard(t *testing.T) {
	st := newMemStore()
	st.addProfile("u1", 0, 0, nil)
	board := &fakeBoard{}
	svc := newTestService(st, WithLeaderboard(board))

	sel, key := answers(5)
	_, err := svc.CompleteQuiz(context.Background(), "u1", "science-3", sel, key)
	require.NoError(t, err)
	assert.Equal(t, 200, board.totals["u1"])

	board.err = errors.New("redis down")
	_, err = svc.CompleteQuiz(context.Background(), "u1", "science-3", sel, key)
	assert.NoError(t, err, "leaderboard failure must not fail completion")
	assert.Equal(t, 400, st.profiles["u1"].TotalPoints)
}

func TestCompleteQuiz_ReportsStoredTotal(t *testing.T) {
	st := newMemStore()
	st.addProfile("u1", 5600, 0, nil)
	// A purchase lands between the first read and the re-read.
	st.afterUpdate = func(p *store.Profile) { p.TotalPoints -= 5000 }
	board := &fakeBoard{}
	svc := newTestService(st, WithLeaderboard(board))

	sel, key := answers(5)
	res, err := svc.CompleteQuiz(context.Background(), "u1", "health-1", sel, key)
	require.NoError(t, err)
	assert.Equal(t, 100, res.PointsEarned)
	assert.Equal(t, 700, res.NewTotalPoints)
	assert.Equal(t, rank.RankNovice, res.Rank.Rank)
	assert.Equal(t, 700, board.totals["u1"])
}

func TestCompleteQuiz_ReReadFailureKeepsComputedTotal(t *testing.T) {
	st := newMemStore()
	st.addProfile("u1", 300, 0, nil)
	board := &fakeBoard{}
	svc := newTestService(st, WithLeaderboard(board))
	st.afterUpdate = func(*store.Profile) { st.fail["GetProfile"] = errors.New("connection reset") }

	sel, key := answers(5)
	res, err := svc.CompleteQuiz(context.Background(), "u1", "health-1", sel, key)
	require.NoError(t, err)
	assert.Equal(t, 400, res.NewTotalPoints)
	assert.Empty(t, board.totals)
}

func TestCompleteQuiz_Deterministic(t *testing.T) {
	run := func() *Result {
		st := newMemStore()
		st.addProfile("u1", 250, 2, daysAgo(1))
		res, err := newTestService(st).CompleteQuiz(context.Background(), "u1", "health-3", []int{0, 1, 2, 0, 0}, []int{0, 1, 2, 3, 0})
		require.NoError(t, err)
		return res
	}
	a, b := run(), run()
	assert.Equal(t, a.PointsEarned, b.PointsEarned)
	assert.Equal(t, a.NewAttemptCount, b.NewAttemptCount)
	assert.Equal(t, a.Streak, b.Streak)
	assert.Equal(t, 150, a.PointsEarned) // 80% of an intermediate lesson worth 150
	assert.Equal(t, 400, a.NewTotalPoints)
}

func TestAttempts(t *testing.T) {
	st := newMemStore()
	st.addProfile("u1", 0, 0, nil)
	svc := newTestService(st)
	ctx := context.Background()

	status, err := svc.Attempts(ctx, "u1", "science-3")
	require.NoError(t, err)
	assert.Equal(t, AttemptStatus{LessonID: "science-3", Count: 0, Max: 10, Remaining: 10, CanEarnMore: true}, *status)

	sel, key := answers(2)
	_, err = svc.CompleteQuiz(ctx, "u1", "science-3", sel, key)
	require.NoError(t, err)

	status, err = svc.Attempts(ctx, "u1", "science-3")
	require.NoError(t, err)
	assert.Equal(t, 1, status.Count)
	assert.Equal(t, 9, status.Remaining)
	assert.True(t, status.Completed)

	_, err = svc.Attempts(ctx, "u1", "nope")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSummary(t *testing.T) {
	st := newMemStore()
	st.addProfile("u1", 0, 0, nil)
	svc := newTestService(st)
	ctx := context.Background()

	for _, correct := range []int{2, 5, 3} {
		sel, key := answers(correct)
		_, err := svc.CompleteQuiz(ctx, "u1", "health-1", sel, key)
		require.NoError(t, err)
	}

	sum, err := svc.Summary(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, lessons.Default().Len(), sum.TotalLessons)
	assert.Equal(t, 1, sum.CompletedCount)
	assert.Equal(t, 1, sum.Streak)
	assert.Equal(t, "2026-10-17", sum.LastActivityDate)

	// 2/5 -> 40% -> 50, 5/5 -> 100, 3/5 -> 60% -> 70.
	assert.Equal(t, 220, sum.TotalPoints)

	var h1 LessonProgress
	for _, lp := range sum.Lessons {
		if lp.LessonID == "health-1" {
			h1 = lp
		}
	}
	assert.Equal(t, 3, h1.Attempts)
	assert.Equal(t, 5, h1.BestScore)
	assert.Equal(t, 3, h1.LastScore)
	assert.Equal(t, 220, h1.PointsEarned)
	assert.True(t, h1.Completed)
	assert.NotNil(t, h1.CompletedAt)

	_, err = svc.Summary(ctx, "ghost")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
