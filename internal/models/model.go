// Package models holds leaf classifiers: fixed-rule classifiers that need no
// training and learned models that fit parameters in Train. Every model
// satisfies classifier.Classifier and classifier.Cloner.
package models

import (
	"fmt"
	"sort"

	"mlcompose/internal/classifier"
	"mlcompose/internal/data"
	"mlcompose/internal/preprocessing"
)

// fitted is the state shared by learned models: the label encoding and the
// dimensionality of the training samples.
type fitted struct {
	encoder *preprocessing.LabelEncoder
	Classes []int
	Dim     int
}

// prepare validates ds and encodes its labels for a learned model.
func prepare(name string, ds *data.Dataset) ([]data.Sample, []int, fitted, error) {
	if ds.Len() == 0 {
		return nil, nil, fitted{}, fmt.Errorf("%s: %w", name, data.ErrEmptyDataset)
	}
	if err := ds.Validate(); err != nil {
		return nil, nil, fitted{}, &classifier.ShapeMismatchError{Classifier: name, What: "training dataset", Err: err}
	}

	encoder := preprocessing.NewLabelEncoder()
	y, err := encoder.FitTransform(ds.Labels)
	if err != nil {
		return nil, nil, fitted{}, fmt.Errorf("%s: %w", name, err)
	}

	return ds.Samples, y, fitted{encoder: encoder, Classes: ExtractClasses(y), Dim: ds.Dim()}, nil
}

// checkSamples rejects samples whose dimensionality differs from training.
func (f fitted) checkSamples(name string, samples []data.Sample) error {
	for i, s := range samples {
		if len(s) != f.Dim {
			return &classifier.ShapeMismatchError{
				Classifier: name,
				What:       fmt.Sprintf("sample %d", i),
				Expected:   f.Dim,
				Got:        len(s),
			}
		}
	}
	return nil
}

func (f fitted) decode(name string, y []int) ([]data.Label, error) {
	labels, err := f.encoder.InverseTransform(y)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return labels, nil
}

func (f fitted) clone() fitted {
	return fitted{
		encoder: f.encoder.Clone(),
		Classes: append([]int(nil), f.Classes...),
		Dim:     f.Dim,
	}
}

// ExtractClasses returns the distinct classes in ascending order.
func ExtractClasses(y []int) []int {
	classMap := make(map[int]bool)
	for _, label := range y {
		classMap[label] = true
	}

	classes := make([]int, 0, len(classMap))
	for class := range classMap {
		classes = append(classes, class)
	}
	sort.Ints(classes)

	return classes
}

// mostCommon returns the most frequent class; ties go to the smallest class.
func mostCommon(y []int) int {
	if len(y) == 0 {
		return 0
	}

	counts := make(map[int]int)
	for _, class := range y {
		counts[class]++
	}

	best, bestCount := 0, -1
	for _, class := range ExtractClasses(y) {
		if counts[class] > bestCount {
			best, bestCount = class, counts[class]
		}
	}
	return best
}
