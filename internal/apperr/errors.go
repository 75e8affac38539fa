// Package apperr defines the error taxonomy shared by the client, cache and editors.
package apperr

import (
	"errors"
	"fmt"
)

// Kinds surfaced by the API client.
var (
	ErrNetwork         = errors.New("network failure")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrValidation      = errors.New("validation failed")
	ErrServer          = errors.New("server fault")
	ErrNotFound        = errors.New("not found")
)

// Local conditions raised by the cache and editors.
var (
	ErrBusy      = errors.New("operation already in progress")
	ErrNotLoaded = errors.New("portfolio not loaded")
	ErrStale     = errors.New("response discarded: state was reset")
)

// Error is a classified failure. Kind is one of the sentinels above.
type Error struct {
	Kind    error
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// New returns a classified error with a user-facing message.
func New(kind error, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Validation is shorthand for a local validation failure.
func Validation(op string, format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Retryable reports whether the failure may succeed if the caller tries again.
func Retryable(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// UserMessage returns the text an editor should display for err.
// Validation messages are shown verbatim; server faults get a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *Error
	switch {
	case errors.Is(err, ErrServer):
		return "The server failed to process the request. Please try again later."
	case errors.Is(err, ErrNetwork):
		return "The server could not be reached. Check your connection and retry."
	case errors.Is(err, ErrUnauthenticated):
		if errors.As(err, &ae) && ae.Message != "" {
			return ae.Message
		}
		return "Your session has expired. Please log in again."
	case errors.As(err, &ae) && ae.Message != "":
		return ae.Message
	default:
		return err.Error()
	}
}
