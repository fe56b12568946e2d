package quiz

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// fences removes Markdown code-fence markers wherever they appear.
var fences = strings.NewReplacer("```json\n", "", "```json", "", "```\n", "", "```", "")

// ParseResponse parses generated text with the default validator chain.
func ParseResponse(raw string) (*Quiz, error) {
	return Parse(raw, DefaultValidators())
}

// Parse turns raw generated text into a Quiz. Surplus questions beyond
// QuestionCount are dropped; every kept question must pass decoding and each
// validator in order. Parse never retries and has no side effects.
func Parse(raw string, validators []Validator) (*Quiz, error) {
	text := strings.TrimSpace(fences.Replace(raw))
	if text == "" {
		return nil, &MalformedResponseError{Reason: "empty response"}
	}
	if !json.Valid([]byte(text)) {
		var v any
		err := json.Unmarshal([]byte(text), &v)
		return nil, &MalformedResponseError{Reason: "invalid JSON", Err: err}
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &top); err != nil {
		return nil, &MalformedResponseError{Reason: "top level is not an object"}
	}
	rawQs, ok := top["questions"]
	if !ok || isNull(rawQs) {
		return nil, &MalformedResponseError{Reason: "response missing questions array"}
	}
	var entries []json.RawMessage
	if err := json.Unmarshal(rawQs, &entries); err != nil {
		return nil, &MalformedResponseError{Reason: "questions is not an array"}
	}

	if len(entries) < QuestionCount {
		return nil, &InsufficientQuestionsError{Got: len(entries)}
	}
	entries = entries[:QuestionCount]

	quiz := &Quiz{Questions: make([]Question, 0, QuestionCount)}
	for i, entry := range entries {
		q, verr := decodeQuestion(entry)
		if verr == nil {
			verr = runValidators(&q, validators)
		}
		if verr != nil {
			verr.Index = i
			return nil, verr
		}
		quiz.Questions = append(quiz.Questions, q)
	}
	return quiz, nil
}

func runValidators(q *Question, validators []Validator) *ValidationError {
	for _, v := range validators {
		if verr := v.Validate(q); verr != nil {
			return verr
		}
	}
	return nil
}

// rawQuestion keeps field types open so wrong JSON types are reported per
// question instead of failing the whole document.
type rawQuestion struct {
	Question      any `json:"question"`
	Options       any `json:"options"`
	CorrectAnswer any `json:"correctAnswer"`
	Explanation   any `json:"explanation"`
}

func decodeQuestion(entry json.RawMessage) (Question, *ValidationError) {
	fail := func(format string, args ...any) (Question, *ValidationError) {
		return Question{}, &ValidationError{Validator: "decode", Message: fmt.Sprintf(format, args...)}
	}

	var r rawQuestion
	if err := json.Unmarshal(entry, &r); err != nil {
		return fail("not an object")
	}

	var q Question
	switch v := r.Question.(type) {
	case nil:
		return fail("question is missing")
	case string:
		q.Question = v
	default:
		return fail("question must be a string")
	}

	opts, ok := r.Options.([]any)
	if !ok {
		return fail("options must be an array of 4 strings")
	}
	for i, o := range opts {
		s, ok := o.(string)
		if !ok {
			return fail("option %d is not a string", i+1)
		}
		q.Options = append(q.Options, s)
	}

	n, ok := r.CorrectAnswer.(float64)
	if !ok {
		return fail("correctAnswer must be a number")
	}
	if n != math.Trunc(n) {
		return fail("correctAnswer must be an integer")
	}
	q.CorrectAnswer = -1
	if n >= 0 && n < OptionCount {
		q.CorrectAnswer = int(n)
	}

	switch v := r.Explanation.(type) {
	case nil:
		return fail("explanation is missing")
	case string:
		q.Explanation = v
	default:
		return fail("explanation must be a string")
	}
	return q, nil
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
