package quiz

import "strings"

// Validator checks a decoded question. Implementations should be stateless
// and safe for concurrent use.
type Validator interface {
	// Name returns a short identifier used in errors and logs.
	Name() string

	// Validate returns nil if q passes. The caller fills in the index of
	// the offending question.
	Validate(q *Question) *ValidationError
}

// DefaultValidators is the chain every parsed quiz runs through.
func DefaultValidators() []Validator {
	return []Validator{&StructuralValidator{}}
}

// StructuralValidator checks that the question and explanation are present,
// there are exactly OptionCount options and the correct index is in range.
type StructuralValidator struct{}

func (v *StructuralValidator) Name() string { return "structural" }

func (v *StructuralValidator) Validate(q *Question) *ValidationError {
	fail := func(msg string) *ValidationError {
		return &ValidationError{Validator: v.Name(), Message: msg}
	}
	if strings.TrimSpace(q.Question) == "" {
		return fail("question is empty")
	}
	if len(q.Options) != OptionCount {
		return fail("options must have exactly 4 entries")
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= OptionCount {
		return fail("correctAnswer must be 0, 1, 2, or 3")
	}
	if strings.TrimSpace(q.Explanation) == "" {
		return fail("explanation is empty")
	}
	return nil
}
