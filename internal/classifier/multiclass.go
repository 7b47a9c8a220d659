package classifier

import (
	"fmt"

	"mlcompose/internal/data"
)

// BoostedMulticlassClassifier solves a multiclass problem with binary
// classifiers, one per pair of labels. Each pair is a
// BinaryClassifierDecorator over its own clone of the base classifier, and
// the pairs are combined by a BoostedClassifier using MemberVote, so a sample
// gets the label named by the most pairs. Ties go to the label
// named by the earliest pair.
//
// When labels are not given they are taken from the training dataset, in
// order of first appearance, and Predict fails with a StateError until Train
// has run.
type BoostedMulticlassClassifier struct {
	BaseClassifier
	base     Classifier
	labels   []data.Label
	fixed    bool
	opts     []BoostedOption
	ensemble *BoostedClassifier
}

func NewBoostedMulticlassClassifier(base Classifier, labels []data.Label, opts ...BoostedOption) (*BoostedMulticlassClassifier, error) {
	const name = "BoostedMulticlassClassifier"

	if base == nil {
		return nil, &ConfigurationError{Classifier: name, Reason: "base classifier is nil"}
	}
	if _, ok := base.(Cloner); !ok {
		return nil, &ConfigurationError{Classifier: name, Reason: fmt.Sprintf("base classifier %s does not support cloning", base.Name())}
	}

	m := &BoostedMulticlassClassifier{
		BaseClassifier: NewBaseClassifier(name, map[string]any{"base": base.Name()}),
		base:           base,
		opts:           opts,
	}

	if len(labels) > 0 {
		m.labels = data.UniqueLabels(labels)
		m.fixed = true
		ensemble, err := m.build(m.labels)
		if err != nil {
			return nil, err
		}
		m.ensemble = ensemble
		m.Params["labels"] = fmt.Sprint(m.labels)
	}

	return m, nil
}

// build pairs every label with every later one. The positive group of a pair
// is the earlier label.
func (m *BoostedMulticlassClassifier) build(labels []data.Label) (*BoostedClassifier, error) {
	if len(labels) < 2 {
		return nil, &ConfigurationError{
			Classifier: m.Name(),
			Reason:     fmt.Sprintf("at least two labels are required, got %d", len(labels)),
		}
	}

	var pairs []Classifier
	for i := 0; i < len(labels); i++ {
		for j := i + 1; j < len(labels); j++ {
			clf, err := Clone(m.base)
			if err != nil {
				return nil, err
			}
			pair, err := NewBinaryClassifierDecorator(clf, []data.Label{labels[i]}, []data.Label{labels[j]})
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, pair)
		}
	}

	opts := append([]BoostedOption{WithCombiner(MemberVote{})}, m.opts...)
	return NewBoostedClassifier(pairs, opts...)
}

// Train rebuilds the pairs from fresh clones of the base classifier and
// trains each on the samples of its two labels.
func (m *BoostedMulticlassClassifier) Train(ds *data.Dataset) error {
	m.ResetTraining()
	if !m.fixed {
		m.ensemble = nil
	}

	if ds.Len() == 0 {
		return &ShapeMismatchError{Classifier: m.Name(), What: "training dataset", Err: data.ErrEmptyDataset}
	}

	labels := m.labels
	if !m.fixed {
		labels = ds.UniqueLabels()
	}

	ensemble, err := m.build(labels)
	if err != nil {
		return err
	}
	if err := ensemble.Train(ds); err != nil {
		return fmt.Errorf("%s: %w", m.Name(), err)
	}

	m.labels = labels
	m.ensemble = ensemble
	m.Params["labels"] = fmt.Sprint(labels)
	m.MarkTrained(ds.Len())
	return nil
}

func (m *BoostedMulticlassClassifier) Predict(samples []data.Sample) ([]data.Label, error) {
	if m.ensemble == nil {
		return nil, m.RequireTrained("predict")
	}

	predictions, err := m.ensemble.Predict(samples)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name(), err)
	}
	// Every pair votes a one-label group; a unanimous vote comes back as
	// that group.
	for i, p := range predictions {
		if g, ok := p.(data.LabelGroup); ok && len(g) == 1 {
			predictions[i] = g[0]
		}
	}

	m.RecordPredictions(predictions)
	return predictions, nil
}

// Labels returns the labels the pairs are built over, or nil before they
// are known.
func (m *BoostedMulticlassClassifier) Labels() []data.Label {
	return append([]data.Label(nil), m.labels...)
}

func (m *BoostedMulticlassClassifier) Children() []Classifier {
	if m.ensemble == nil {
		return nil
	}
	return m.ensemble.Children()
}

func (m *BoostedMulticlassClassifier) Clone() (Classifier, error) {
	base, err := Clone(m.base)
	if err != nil {
		return nil, err
	}

	out := &BoostedMulticlassClassifier{
		BaseClassifier: m.CloneBase(),
		base:           base,
		labels:         append([]data.Label(nil), m.labels...),
		fixed:          m.fixed,
		opts:           m.opts,
	}
	if m.ensemble != nil {
		ensemble, err := m.ensemble.Clone()
		if err != nil {
			return nil, err
		}
		out.ensemble = ensemble.(*BoostedClassifier)
	}
	return out, nil
}

func (m *BoostedMulticlassClassifier) String() string {
	return fmt.Sprintf("%s(base=%s, labels=%v)", m.Name(), m.base.Name(), data.LabelGroup(m.labels))
}
