package classifier

import (
	"errors"
	"fmt"

	"mlcompose/internal/data"
)

// Sentinel errors. Every typed error below unwraps to exactly one of them so
// callers can branch with errors.Is.
var (
	// ErrState is returned when a learned classifier is used before Train.
	ErrState = errors.New("classifier not trained")

	// ErrShapeMismatch is returned when sequences that must run parallel
	// disagree in length. It is the same value as data.ErrShapeMismatch.
	ErrShapeMismatch = data.ErrShapeMismatch

	// ErrMapping is returned when a prediction cannot be mapped into a
	// declared label group, or when label groups overlap.
	ErrMapping = errors.New("label mapping failed")

	// ErrConfiguration is returned when a composite is built from missing or
	// invalid parts.
	ErrConfiguration = errors.New("invalid classifier configuration")

	// ErrNoConsensus is returned by UnanimousVote when children disagree.
	ErrNoConsensus = errors.New("children disagree")
)

// StateError reports an operation attempted before the classifier was
// trained.
type StateError struct {
	Classifier string
	Op         string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s called before train", e.Classifier, e.Op)
}

func (e *StateError) Unwrap() error {
	return ErrState
}

// ShapeMismatchError reports two sequences of incompatible length.
type ShapeMismatchError struct {
	Classifier string
	What       string
	Expected   int
	Got        int
	// Err is the underlying cause, if any.
	Err error
}

func (e *ShapeMismatchError) Error() string {
	msg := fmt.Sprintf("%s: shape mismatch in %s", e.Classifier, e.What)
	if e.Expected != e.Got {
		msg += fmt.Sprintf(": expected %d, got %d", e.Expected, e.Got)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ShapeMismatchError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrShapeMismatch, e.Err}
	}
	return []error{ErrShapeMismatch}
}

// MappingError reports a value that does not map onto a label group.
type MappingError struct {
	Classifier string
	// Index is the sample position, or -1 when the error is not tied to a
	// sample.
	Index  int
	Value  data.Label
	Reason string
	Err    error
}

func (e *MappingError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Classifier, e.Reason)
	if e.Index >= 0 {
		msg = fmt.Sprintf("%s: sample %d: %s (value %v)", e.Classifier, e.Index, e.Reason, e.Value)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MappingError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMapping, e.Err}
	}
	return []error{ErrMapping}
}

// ConfigurationError reports an invalid composite construction.
type ConfigurationError struct {
	Classifier string
	Reason     string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Classifier, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}
