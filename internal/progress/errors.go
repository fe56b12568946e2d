package progress

import (
	"fmt"
	"strings"

	"github.com/abhisek/lyfeline/internal/apperr"
)

// Step names one persistence side effect of a completion.
type Step string

const (
	StepMarkCompleted Step = "mark_completed"
	StepInsertAttempt Step = "insert_attempt"
	StepUpdateProfile Step = "update_profile"
)

// PartialCompletionError reports a completion whose side effects stopped
// part way. Applied lists the effects that went through. When the attempt was
// recorded but the profile update failed, re-drive the profile update
// rather than resubmitting the quiz.
type PartialCompletionError struct {
	Applied []Step
	Failed  Step
	Err     error
}

func (e *PartialCompletionError) Error() string {
	applied := "none"
	if len(e.Applied) > 0 {
		parts := make([]string, len(e.Applied))
		for i, s := range e.Applied {
			parts[i] = string(s)
		}
		applied = strings.Join(parts, ",")
	}
	return fmt.Sprintf("completion failed at %s (applied: %s): %v", e.Failed, applied, e.Err)
}

func (e *PartialCompletionError) Unwrap() error { return e.Err }

func (e *PartialCompletionError) Kind() apperr.Kind { return apperr.KindUpstreamFailure }
