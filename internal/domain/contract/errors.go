package contract

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyText is returned when acquisition produced nothing to analyse.
	ErrEmptyText = errors.New("no text produced")
	// ErrNoFields is returned when the model reply matched no label.
	ErrNoFields = errors.New("no fields recognised in model reply")
	// ErrUnsupportedMode is returned for an unknown input mode.
	ErrUnsupportedMode = errors.New("unsupported input mode")
)

// ErrorKind tags which stage failed.
type ErrorKind string

const (
	KindAcquisition ErrorKind = "acquisition"
	KindExtraction  ErrorKind = "extraction"
	KindGeneration  ErrorKind = "generation"
	KindRendering   ErrorKind = "rendering"
)

// StageError is the failure side of a Result.
type StageError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Result is what every pipeline stage returns: a value or a StageError.
type Result[T any] struct {
	Value T
	Err   *StageError
}

// OK wraps a successful value.
func OK[T any](v T) Result[T] { return Result[T]{Value: v} }

// Fail builds a failed result.
func Fail[T any](kind ErrorKind, msg string, err error) Result[T] {
	return Result[T]{Err: &StageError{Kind: kind, Message: msg, Err: err}}
}

// Failed reports whether the stage failed.
func (r Result[T]) Failed() bool { return r.Err != nil }

// Unpack converts back to the usual (value, error) pair.
func (r Result[T]) Unpack() (T, error) {
	if r.Err != nil {
		var zero T
		return zero, r.Err
	}
	return r.Value, nil
}
