package preprocessing

import (
	"fmt"

	"mlcompose/internal/data"
)

// LabelEncoder maps opaque labels to dense ints in order of first
// appearance, so learned models can index classes.
type LabelEncoder struct {
	ClassToInt map[string]int
	IntToClass []data.Label
	IsFitted   bool
}

func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{
		ClassToInt: make(map[string]int),
		IsFitted:   false,
	}
}

func (le *LabelEncoder) Fit(labels []data.Label) {
	le.ClassToInt = make(map[string]int)
	le.IntToClass = nil

	for _, label := range labels {
		key := data.LabelKey(label)
		if _, ok := le.ClassToInt[key]; ok {
			continue
		}
		le.ClassToInt[key] = len(le.IntToClass)
		le.IntToClass = append(le.IntToClass, label)
	}

	le.IsFitted = true
}

func (le *LabelEncoder) Transform(labels []data.Label) ([]int, error) {
	if !le.IsFitted {
		return nil, fmt.Errorf("LabelEncoder must be fitted before transform")
	}

	result := make([]int, len(labels))
	for i, label := range labels {
		val, ok := le.ClassToInt[data.LabelKey(label)]
		if !ok {
			return nil, fmt.Errorf("unknown label: %v", label)
		}
		result[i] = val
	}

	return result, nil
}

func (le *LabelEncoder) FitTransform(labels []data.Label) ([]int, error) {
	le.Fit(labels)
	return le.Transform(labels)
}

func (le *LabelEncoder) InverseTransform(encoded []int) ([]data.Label, error) {
	if !le.IsFitted {
		return nil, fmt.Errorf("LabelEncoder must be fitted before inverse transform")
	}

	result := make([]data.Label, len(encoded))
	for i, val := range encoded {
		if val < 0 || val >= len(le.IntToClass) {
			return nil, fmt.Errorf("unknown encoding: %d", val)
		}
		result[i] = le.IntToClass[val]
	}

	return result, nil
}

func (le *LabelEncoder) NumClasses() int {
	return len(le.IntToClass)
}

// Clone returns an independent copy of the encoding.
func (le *LabelEncoder) Clone() *LabelEncoder {
	if le == nil {
		return nil
	}
	out := &LabelEncoder{
		ClassToInt: make(map[string]int, len(le.ClassToInt)),
		IntToClass: append([]data.Label(nil), le.IntToClass...),
		IsFitted:   le.IsFitted,
	}
	for k, v := range le.ClassToInt {
		out.ClassToInt[k] = v
	}
	return out
}
