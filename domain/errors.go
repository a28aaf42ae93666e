package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest       = errors.New("invalid request")
	ErrInferenceFailed      = errors.New("inference failed")
	ErrInferenceTimedOut    = errors.New("inference timed out")
	ErrRecommendationFailed = errors.New("recommendation failed")
)

// InferenceFailureKind says which part of a classification run went wrong.
type InferenceFailureKind string

const (
	InferenceSpawn    InferenceFailureKind = "spawn"
	InferenceExit     InferenceFailureKind = "exit"
	InferenceTimedOut InferenceFailureKind = "timed_out"
	InferenceCanceled InferenceFailureKind = "canceled"
	InferenceEmpty    InferenceFailureKind = "empty_output"
)

// InferenceError is returned by classifiers. Detail holds whatever the process
// wrote to its diagnostic channel.
type InferenceError struct {
	Kind     InferenceFailureKind
	ExitCode int
	Detail   string
	Err      error
}

func (e *InferenceError) Error() string {
	switch e.Kind {
	case InferenceExit:
		return fmt.Sprintf("classifier exited with code %d", e.ExitCode)
	case InferenceTimedOut:
		return "classifier timed out"
	case InferenceEmpty:
		return "classifier produced no output"
	}
	if e.Err != nil {
		return fmt.Sprintf("classifier %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("classifier %s", e.Kind)
}

func (e *InferenceError) Unwrap() error { return e.Err }

func (e *InferenceError) Is(target error) bool {
	if target == ErrInferenceFailed {
		return true
	}
	return target == ErrInferenceTimedOut && e.Kind == InferenceTimedOut
}

// RecommendationError wraps a failed generation call. StatusCode and Body are
// set when the provider returned an HTTP response.
type RecommendationError struct {
	Err        error
	StatusCode int
	Body       string
}

func (e *RecommendationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation failed (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("generation failed: %v", e.Err)
}

func (e *RecommendationError) Unwrap() error { return e.Err }

func (e *RecommendationError) Is(target error) bool {
	return target == ErrRecommendationFailed
}
