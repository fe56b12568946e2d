package quiz

import (
	"fmt"

	"github.com/abhisek/lyfeline/internal/apperr"
)

// MalformedResponseError means the generated text was not a JSON object
// with a questions array.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed quiz response: %s: %v", e.Reason, e.Err)
	}
	return "malformed quiz response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) Kind() apperr.Kind { return apperr.KindMalformedResponse }

// InsufficientQuestionsError means fewer than QuestionCount questions came back.
type InsufficientQuestionsError struct {
	Got int
}

func (e *InsufficientQuestionsError) Error() string {
	return fmt.Sprintf("only %d questions generated, need %d", e.Got, QuestionCount)
}

func (e *InsufficientQuestionsError) Kind() apperr.Kind { return apperr.KindInsufficientQuestions }

// ValidationError describes why a question failed validation. Index is
// 0-based; the message shows it 1-based.
type ValidationError struct {
	Validator string // Name of the validator that failed
	Index     int
	Message   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("question %d has invalid structure: %s", e.Index+1, e.Message)
}

func (e *ValidationError) Kind() apperr.Kind { return apperr.KindInvalidQuestionStructure }
