// Package classifier defines the classifier contract and the composites that
// combine or adapt classifiers without touching their code: an ensemble
// (BoostedClassifier), a label-regrouping decorator
// (BinaryClassifierDecorator), a feature-space decorator (MappedClassifier)
// and a one-vs-one multiclass ensemble (BoostedMulticlassClassifier).
// Composites accept any Classifier, including other composites, so they nest
// to arbitrary depth.
//
// A classifier instance has a single owner. Train and Predict mutate the
// instance's fitted parameters and state store, so calls on one instance
// must be serialised by the caller. Distinct instances are independent.
package classifier

import (
	"fmt"
	"strings"

	"mlcompose/internal/data"
)

// Classifier is the contract shared by leaf classifiers and composites.
//
// Train replaces any previously fitted parameters. Classifiers with a fixed
// rule accept any dataset, including nil, and ignore it.
//
// Predict returns exactly one label per input sample, in input order, and
// records the result in States() under StatePredictions. A learned
// classifier returns a *StateError when called before Train.
type Classifier interface {
	Name() string
	Train(ds *data.Dataset) error
	Predict(samples []data.Sample) ([]data.Label, error)
	States() *StateStore
}

// Cloner is implemented by classifiers that can produce an independent deep
// copy of themselves, including fitted parameters.
type Cloner interface {
	Clone() (Classifier, error)
}

// Composite is implemented by classifiers that wrap other classifiers.
type Composite interface {
	Children() []Classifier
}

// Clone deep-copies c, or returns a ConfigurationError if c cannot be
// copied.
func Clone(c Classifier) (Classifier, error) {
	if c == nil {
		return nil, &ConfigurationError{Classifier: "clone", Reason: "nil classifier"}
	}
	cl, ok := c.(Cloner)
	if !ok {
		return nil, &ConfigurationError{Classifier: c.Name(), Reason: "classifier does not support cloning"}
	}
	return cl.Clone()
}

// BaseClassifier carries the name, parameters, trained flag and state store
// shared by every classifier. Embed it and call RecordPredictions at the end
// of Predict.
type BaseClassifier struct {
	name    string
	Params  map[string]any
	states  *StateStore
	trained bool
}

func NewBaseClassifier(name string, params map[string]any) BaseClassifier {
	if params == nil {
		params = map[string]any{}
	}
	return BaseClassifier{
		name:   name,
		Params: params,
		states: NewStateStore(),
	}
}

func (b *BaseClassifier) Name() string {
	return b.name
}

func (b *BaseClassifier) GetParams() map[string]any {
	return b.Params
}

func (b *BaseClassifier) States() *StateStore {
	if b.states == nil {
		b.states = NewStateStore()
	}
	return b.states
}

func (b *BaseClassifier) IsTrained() bool {
	return b.trained
}

// ResetTraining clears the trained flag and all recorded state. Call it at
// the start of Train.
func (b *BaseClassifier) ResetTraining() {
	b.trained = false
	b.States().Reset()
}

// MarkTrained records a successful Train over n samples.
func (b *BaseClassifier) MarkTrained(n int) {
	b.trained = true
	b.States().Set(StateTrainedSamples, n)
}

// RequireTrained returns a StateError when Train has not succeeded yet.
func (b *BaseClassifier) RequireTrained(op string) error {
	if !b.trained {
		return &StateError{Classifier: b.name, Op: op}
	}
	return nil
}

// RecordPredictions stores a copy of predictions under StatePredictions.
func (b *BaseClassifier) RecordPredictions(predictions []data.Label) {
	stored := make([]data.Label, len(predictions))
	copy(stored, predictions)
	b.States().Set(StatePredictions, stored)
}

// CheckLength returns a ShapeMismatchError when a delegate returned a
// prediction sequence of the wrong length.
func (b *BaseClassifier) CheckLength(what string, expected, got int) error {
	if expected != got {
		return &ShapeMismatchError{Classifier: b.name, What: what, Expected: expected, Got: got}
	}
	return nil
}

// CloneBase copies the base for use in a cloned classifier.
func (b *BaseClassifier) CloneBase() BaseClassifier {
	params := make(map[string]any, len(b.Params))
	for k, v := range b.Params {
		params[k] = v
	}
	return BaseClassifier{
		name:    b.name,
		Params:  params,
		states:  b.States().Clone(),
		trained: b.trained,
	}
}

// Describe renders c and its children as an indented tree.
func Describe(c Classifier) string {
	var sb strings.Builder
	describe(&sb, c, 0)
	return sb.String()
}

func describe(sb *strings.Builder, c Classifier, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	if s, ok := c.(fmt.Stringer); ok {
		sb.WriteString(s.String())
	} else {
		sb.WriteString(c.Name())
	}
	sb.WriteString("\n")

	if comp, ok := c.(Composite); ok {
		for _, child := range comp.Children() {
			describe(sb, child, depth+1)
		}
	}
}
