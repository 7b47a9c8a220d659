// Package mapper holds feature-space transforms applied to samples before
// they reach a classifier.
package mapper

import (
	"errors"
	"fmt"

	"mlcompose/internal/data"
)

var (
	// ErrDimension is returned when a sample does not have the dimensionality
	// a mapper was built for. It wraps data.ErrShapeMismatch.
	ErrDimension = fmt.Errorf("%w: sample dimensionality", data.ErrShapeMismatch)

	// ErrEmptyMask is returned for a mask that is empty or selects no
	// dimension.
	ErrEmptyMask = errors.New("mask selects no dimensions")

	// ErrNotFitted is returned by trainable mappers used before Fit.
	ErrNotFitted = errors.New("mapper must be fitted before use")
)

// FeatureMapper transforms a sample from an input space of InDim dimensions
// to an output space of OutDim dimensions. Implementations must be
// deterministic.
type FeatureMapper interface {
	Forward(sample data.Sample) (data.Sample, error)
	InDim() int
	OutDim() int
}

// Reverser is implemented by mappers that can project a mapped sample back
// into the input space.
type Reverser interface {
	Reverse(sample data.Sample) (data.Sample, error)
}

// Trainable is implemented by mappers that learn their parameters from data.
type Trainable interface {
	Fit(samples []data.Sample) error
	IsFitted() bool
}

// Cloner is implemented by mappers with mutable fitted state. Immutable
// mappers are shared between clones instead.
type Cloner interface {
	CloneMapper() FeatureMapper
}

// ForwardAll maps every sample, preserving order.
func ForwardAll(m FeatureMapper, samples []data.Sample) ([]data.Sample, error) {
	out := make([]data.Sample, len(samples))
	for i, sample := range samples {
		mapped, err := m.Forward(sample)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}
		out[i] = mapped
	}
	return out, nil
}
