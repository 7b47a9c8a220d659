package models

import (
	"github.com/shopspring/decimal"

	"mlcompose/internal/classifier"
	"mlcompose/internal/data"
)

var one = decimal.NewFromInt(1)

// SameSign predicts +1 when the first two features share a sign (zero counts
// as positive) and -1 otherwise. It has no parameters; Train is a no-op.
type SameSign struct {
	classifier.BaseClassifier
}

func NewSameSign() *SameSign {
	return &SameSign{BaseClassifier: classifier.NewBaseClassifier("SameSign", nil)}
}

func (c *SameSign) Train(*data.Dataset) error { return nil }

func (c *SameSign) Predict(samples []data.Sample) ([]data.Label, error) {
	predictions := make([]data.Label, len(samples))
	for i, s := range samples {
		if len(s) < 2 {
			return nil, &classifier.ShapeMismatchError{Classifier: c.Name(), What: "sample", Expected: 2, Got: len(s)}
		}
		if (s[0].Sign() >= 0) == (s[1].Sign() >= 0) {
			predictions[i] = 1
		} else {
			predictions[i] = -1
		}
	}

	c.RecordPredictions(predictions)
	return predictions, nil
}

func (c *SameSign) Clone() (classifier.Classifier, error) {
	return &SameSign{BaseClassifier: c.CloneBase()}, nil
}

// Less1 predicts +1 when the largest feature is at most 1 and -1 otherwise.
type Less1 struct {
	classifier.BaseClassifier
}

func NewLess1() *Less1 {
	return &Less1{BaseClassifier: classifier.NewBaseClassifier("Less1", nil)}
}

func (c *Less1) Train(*data.Dataset) error { return nil }

func (c *Less1) Predict(samples []data.Sample) ([]data.Label, error) {
	predictions := make([]data.Label, len(samples))
	for i, s := range samples {
		if len(s) == 0 {
			return nil, &classifier.ShapeMismatchError{Classifier: c.Name(), What: "sample", Expected: 1, Got: 0}
		}
		max := s[0]
		for _, v := range s[1:] {
			if v.GreaterThan(max) {
				max = v
			}
		}
		if max.LessThanOrEqual(one) {
			predictions[i] = 1
		} else {
			predictions[i] = -1
		}
	}

	c.RecordPredictions(predictions)
	return predictions, nil
}

func (c *Less1) Clone() (classifier.Classifier, error) {
	return &Less1{BaseClassifier: c.CloneBase()}, nil
}
