// Package apperr classifies domain errors into a small set of kinds that the
// HTTP layer and CLI map to responses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a class of failure.
type Kind string

const (
	KindUnknown                  Kind = ""
	KindMalformedResponse        Kind = "malformed_response"
	KindInsufficientQuestions    Kind = "insufficient_questions"
	KindInvalidQuestionStructure Kind = "invalid_question_structure"
	KindInvalidInput             Kind = "invalid_input"
	KindInsufficientBalance      Kind = "insufficient_balance"
	KindNotFound                 Kind = "not_found"
	KindUnauthorized             Kind = "unauthorized"
	KindUpstreamFailure          Kind = "upstream_failure"
)

// Error attaches a Kind to an underlying error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap tags err with kind. A nil err stays nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// kinded is implemented by typed errors in other packages that carry their
// own classification.
type kinded interface {
	Kind() Kind
}

// KindOf walks the error chain and returns the first classification found.
func KindOf(err error) Kind {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Kind
		case kinded:
			return e.Kind()
		}
		err = errors.Unwrap(err)
	}
	return KindUnknown
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// HTTPStatus maps a kind to a response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidInput, KindInsufficientBalance:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
