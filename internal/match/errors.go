package match

import (
	"errors"
	"fmt"
)

var (
	// ErrPlayerRoster marks roster derivation failures
	ErrPlayerRoster = errors.New("player roster unavailable")

	// ErrTimeout marks provider or generation calls that ran out of time
	ErrTimeout = errors.New("operation timed out")
)

// RosterError is returned when the home/away teams cannot be identified
type RosterError struct {
	Reason string
}

func (e *RosterError) Error() string {
	return fmt.Sprintf("error getting players: %s", e.Reason)
}

// Is lets errors.Is(err, ErrPlayerRoster) match any RosterError
func (e *RosterError) Is(target error) bool {
	return target == ErrPlayerRoster
}

// Result is the outcome of a fallible data operation. Callers decide
// whether a failure degrades into a marker or aborts the request.
type Result[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful value
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Fail wraps an error
func Fail[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// OK reports whether the operation succeeded
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Unwrap returns the value and error in the usual Go shape
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}

// Payload returns the value, or an {"error": ...} marker on failure
func (r Result[T]) Payload() any {
	if r.Err != nil {
		return map[string]string{"error": r.Err.Error()}
	}
	return r.Value
}
