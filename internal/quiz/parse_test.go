package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/abhisek/lyfeline/internal/apperr"
)

func question(n int) map[string]any {
	return map[string]any{
		"question":      fmt.Sprintf("Question %d?", n),
		"options":       []any{"A", "B", "C", "D"},
		"correctAnswer": n % 4,
		"explanation":   "Because the lesson says so.",
	}
}

func quizText(t *testing.T, n int, mutate func(qs []map[string]any)) string {
	t.Helper()
	qs := make([]map[string]any, n)
	for i := range qs {
		qs[i] = question(i + 1)
	}
	if mutate != nil {
		mutate(qs)
	}
	b, err := json.Marshal(map[string]any{"questions": qs})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestParse_Valid(t *testing.T) {
	q, err := ParseResponse(quizText(t, 5, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Questions) != QuestionCount {
		t.Fatalf("got %d questions, want %d", len(q.Questions), QuestionCount)
	}
	if q.Questions[2].Question != "Question 3?" || q.Questions[2].CorrectAnswer != 3 {
		t.Errorf("question 3 = %+v", q.Questions[2])
	}
	want := []int{1, 2, 3, 0, 1}
	for i, got := range q.CorrectAnswers() {
		if got != want[i] {
			t.Errorf("CorrectAnswers()[%d] = %d, want %d", i, got, want[i])
		}
	}
}

func TestParse_StripsFences(t *testing.T) {
	body := quizText(t, 5, nil)
	inputs := map[string]string{
		"json fence":       "```json\n" + body + "\n```",
		"bare fence":       "```\n" + body + "\n```",
		"fence no newline": "```json" + body + "```",
		"padded":           "\n\n  " + body + "  \n",
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseResponse(in); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestParse_TruncatesExtraQuestions(t *testing.T) {
	q, err := ParseResponse(quizText(t, 7, func(qs []map[string]any) {
		// Broken questions past the fifth are dropped before validation.
		qs[6]["options"] = []any{"only one"}
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(q.Questions) != QuestionCount {
		t.Errorf("got %d questions, want %d", len(q.Questions), QuestionCount)
	}
	if q.Questions[4].Question != "Question 5?" {
		t.Errorf("kept the wrong questions: last = %q", q.Questions[4].Question)
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := map[string]string{
		"truncated json":   `{"questions": [{"question": "What is`,
		"empty":            "   ",
		"not an object":    `[1, 2, 3]`,
		"missing key":      `{"items": []}`,
		"null questions":   `{"questions": null}`,
		"questions string": `{"questions": "five"}`,
		"prose":            "Sure! Here is your quiz.",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			q, err := ParseResponse(in)
			if q != nil {
				t.Errorf("expected no quiz, got %+v", q)
			}
			var merr *MalformedResponseError
			if !errors.As(err, &merr) {
				t.Fatalf("expected MalformedResponseError, got %T: %v", err, err)
			}
			if apperr.KindOf(err) != apperr.KindMalformedResponse {
				t.Errorf("KindOf = %q", apperr.KindOf(err))
			}
		})
	}
}

func TestParse_InsufficientQuestions(t *testing.T) {
	for _, n := range []int{0, 1, 4} {
		_, err := ParseResponse(quizText(t, n, nil))
		var ierr *InsufficientQuestionsError
		if !errors.As(err, &ierr) {
			t.Fatalf("n=%d: expected InsufficientQuestionsError, got %v", n, err)
		}
		if ierr.Got != n {
			t.Errorf("Got = %d, want %d", ierr.Got, n)
		}
		if apperr.KindOf(err) != apperr.KindInsufficientQuestions {
			t.Errorf("KindOf = %q", apperr.KindOf(err))
		}
	}
}

func TestParse_InvalidQuestionStructure(t *testing.T) {
	tests := []struct {
		name    string
		index   int
		mutate  func(q map[string]any)
		message string
	}{
		{"empty question", 0, func(q map[string]any) { q["question"] = "" }, "question is empty"},
		{"blank question", 1, func(q map[string]any) { q["question"] = "   " }, "question is empty"},
		{"missing question", 2, func(q map[string]any) { delete(q, "question") }, "question is missing"},
		{"numeric question", 3, func(q map[string]any) { q["question"] = 42 }, "question must be a string"},
		{"three options", 4, func(q map[string]any) { q["options"] = []any{"A", "B", "C"} }, "exactly 4"},
		{"five options", 0, func(q map[string]any) { q["options"] = []any{"A", "B", "C", "D", "E"} }, "exactly 4"},
		{"options not array", 1, func(q map[string]any) { q["options"] = "A,B,C,D" }, "array of 4 strings"},
		{"non-string option", 2, func(q map[string]any) { q["options"] = []any{"A", 2, "C", "D"} }, "option 2 is not a string"},
		{"answer too high", 3, func(q map[string]any) { q["correctAnswer"] = 4 }, "0, 1, 2, or 3"},
		{"answer negative", 4, func(q map[string]any) { q["correctAnswer"] = -1 }, "0, 1, 2, or 3"},
		{"answer fractional", 0, func(q map[string]any) { q["correctAnswer"] = 1.5 }, "must be an integer"},
		{"answer string", 1, func(q map[string]any) { q["correctAnswer"] = "2" }, "must be a number"},
		{"answer huge", 2, func(q map[string]any) { q["correctAnswer"] = 1e300 }, "0, 1, 2, or 3"},
		{"missing explanation", 3, func(q map[string]any) { delete(q, "explanation") }, "explanation is missing"},
		{"empty explanation", 4, func(q map[string]any) { q["explanation"] = "" }, "explanation is empty"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseResponse(quizText(t, 5, func(qs []map[string]any) { tt.mutate(qs[tt.index]) }))
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			if verr.Index != tt.index {
				t.Errorf("Index = %d, want %d", verr.Index, tt.index)
			}
			if !strings.Contains(verr.Message, tt.message) {
				t.Errorf("Message = %q, want it to contain %q", verr.Message, tt.message)
			}
			if want := fmt.Sprintf("question %d ", tt.index+1); !strings.HasPrefix(err.Error(), want) {
				t.Errorf("Error() = %q, want 1-based prefix %q", err.Error(), want)
			}
			if apperr.KindOf(err) != apperr.KindInvalidQuestionStructure {
				t.Errorf("KindOf = %q", apperr.KindOf(err))
			}
		})
	}
}

func TestParse_NonObjectEntry(t *testing.T) {
	text := `{"questions": [1, 2, 3, 4, 5]}`
	_, err := ParseResponse(text)
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Index != 0 || verr.Validator != "decode" {
		t.Fatalf("expected decode error at index 0, got %v", err)
	}
}

type rejectAll struct{}

func (rejectAll) Name() string { return "reject" }
func (rejectAll) Validate(*Question) *ValidationError {
	return &ValidationError{Validator: "reject", Message: "nope"}
}

func TestParse_CustomValidatorChain(t *testing.T) {
	text := quizText(t, 5, nil)

	if _, err := Parse(text, nil); err != nil {
		t.Fatalf("empty chain should accept decodable quiz: %v", err)
	}

	_, err := Parse(text, []Validator{&StructuralValidator{}, rejectAll{}})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Validator != "reject" {
		t.Fatalf("expected reject validator failure, got %v", err)
	}
}
