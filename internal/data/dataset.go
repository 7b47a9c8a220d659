package data

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// ErrShapeMismatch is returned when two parallel sequences (samples and
	// labels, or samples of different dimensionality) disagree in length.
	ErrShapeMismatch = errors.New("shape mismatch")

	// ErrEmptyDataset is returned by operations that need at least one sample.
	ErrEmptyDataset = errors.New("dataset is empty")
)

// Sample is one feature vector.
type Sample []decimal.Decimal

// NewSample builds a Sample from float values.
func NewSample(values ...float64) Sample {
	s := make(Sample, len(values))
	for i, v := range values {
		s[i] = decimal.NewFromFloat(v)
	}
	return s
}

// NewSamples builds a sample sequence from float rows.
func NewSamples(rows ...[]float64) []Sample {
	samples := make([]Sample, len(rows))
	for i, row := range rows {
		samples[i] = NewSample(row...)
	}
	return samples
}

func (s Sample) Clone() Sample {
	out := make(Sample, len(s))
	copy(out, s)
	return out
}

// Dataset pairs samples with their ground-truth labels. Classifiers only read
// a Dataset; derived datasets are built with Subset, WithSamples or
// WithLabels and never alias the receiver's slices.
type Dataset struct {
	Samples []Sample
	Labels  []Label
}

// NewDataset validates and wraps samples and labels.
func NewDataset(samples []Sample, labels []Label) (*Dataset, error) {
	ds := &Dataset{Samples: samples, Labels: labels}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return ds, nil
}

func (ds *Dataset) Len() int {
	if ds == nil {
		return 0
	}
	return len(ds.Samples)
}

// Dim returns the dimensionality of the samples, or 0 for an empty dataset.
func (ds *Dataset) Dim() int {
	if ds.Len() == 0 {
		return 0
	}
	return len(ds.Samples[0])
}

// Validate checks that labels run parallel to samples and that every sample
// has the same dimensionality.
func (ds *Dataset) Validate() error {
	if ds == nil {
		return nil
	}

	if len(ds.Samples) != len(ds.Labels) {
		return fmt.Errorf("%w: %d samples vs %d labels", ErrShapeMismatch, len(ds.Samples), len(ds.Labels))
	}

	return CheckDim(ds.Samples)
}

// CheckDim reports the first sample whose length differs from the first one.
func CheckDim(samples []Sample) error {
	if len(samples) == 0 {
		return nil
	}

	nFeatures := len(samples[0])
	for i, sample := range samples {
		if len(sample) != nFeatures {
			return fmt.Errorf("%w: inconsistent feature count at sample %d: expected %d, got %d",
				ErrShapeMismatch, i, nFeatures, len(sample))
		}
	}

	return nil
}

// Subset returns the rows at the given indices, in that order.
func (ds *Dataset) Subset(indices []int) *Dataset {
	out := &Dataset{
		Samples: make([]Sample, len(indices)),
		Labels:  make([]Label, len(indices)),
	}
	for i, idx := range indices {
		out.Samples[i] = ds.Samples[idx]
		out.Labels[i] = ds.Labels[idx]
	}
	return out
}

// WithSamples returns a dataset with the same labels and replaced samples.
func (ds *Dataset) WithSamples(samples []Sample) (*Dataset, error) {
	labels := make([]Label, len(ds.Labels))
	copy(labels, ds.Labels)
	return NewDataset(samples, labels)
}

// WithLabels returns a dataset with the same samples and replaced labels.
func (ds *Dataset) WithLabels(labels []Label) (*Dataset, error) {
	samples := make([]Sample, len(ds.Samples))
	copy(samples, ds.Samples)
	return NewDataset(samples, labels)
}

// UniqueLabels returns the distinct labels in order of first appearance.
func (ds *Dataset) UniqueLabels() []Label {
	if ds == nil {
		return nil
	}
	return UniqueLabels(ds.Labels)
}
