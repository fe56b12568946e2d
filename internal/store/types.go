package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/lyfeline/internal/apperr"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound error = &apperr.Error{Kind: apperr.KindNotFound, Err: errors.New("store: not found")}

	// ErrInsufficientBalance is returned by DeductPoints when the profile
	// holds fewer points than the requested cost.
	ErrInsufficientBalance error = &apperr.Error{Kind: apperr.KindInsufficientBalance, Err: errors.New("store: insufficient points")}
)

// QueryOpts configures ledger queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// Profile is a user's persisted gamification state.
type Profile struct {
	ID            string
	Email         string
	Username      string
	DisplayName   string
	Bio           string
	Avatar        string
	TotalPoints   int
	CurrentStreak int
	// LastActivityDate is the UTC calendar day of the last completed quiz,
	// nil if the user never completed one.
	LastActivityDate *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewProfile seeds a profile the first time a user is seen.
type NewProfile struct {
	ID       string
	Email    string
	Username string
}

// ProfileUpdate is the post-quiz change to a profile. PointsDelta is added
// atomically; Streak and LastActivityDate replace the stored values.
type ProfileUpdate struct {
	PointsDelta      int
	Streak           int
	LastActivityDate time.Time
}

// ProfileSettings carries user-editable fields. Nil fields are unchanged.
type ProfileSettings struct {
	DisplayName *string
	Bio         *string
	Avatar      *string
}

// Completion marks a lesson as completed by a user.
type Completion struct {
	UserID      string
	LessonID    string
	CompletedAt time.Time
}

// AttemptData is one quiz submission to record.
type AttemptData struct {
	UserID         string
	LessonID       string
	Score          int
	TotalQuestions int
	Percentage     int
	PointsEarned   int
}

// Attempt is a recorded quiz submission.
type Attempt struct {
	ID       string
	Sequence int64
	AttemptData
	CreatedAt time.Time
}

// PurchaseData is one shop redemption to record.
type PurchaseData struct {
	UserID      string
	ItemID      string
	ItemName    string
	ItemType    string
	PointsSpent int
}

// Purchase is a recorded shop redemption.
type Purchase struct {
	ID       string
	Sequence int64
	PurchaseData
	CreatedAt time.Time
}

// LeaderEntry is one row of the points leaderboard.
type LeaderEntry struct {
	UserID      string
	Username    string
	DisplayName string
	TotalPoints int
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a recorded LLM request.
type LLMEvent struct {
	ID        int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM calls for one purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM calls for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append access to the LLM request log.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
}
