package classifier

import (
	"errors"
	"fmt"

	"mlcompose/internal/data"
	"mlcompose/internal/mapper"
)

// MappedClassifier applies a FeatureMapper to every sample before handing it
// to the wrapped classifier. Callers work in the original feature space; the
// wrapped classifier only ever sees the mapped space. Labels are never
// mapped.
type MappedClassifier struct {
	BaseClassifier
	clf    Classifier
	mapper mapper.FeatureMapper
}

func NewMappedClassifier(clf Classifier, m mapper.FeatureMapper) (*MappedClassifier, error) {
	const name = "MappedClassifier"

	if clf == nil {
		return nil, &ConfigurationError{Classifier: name, Reason: "wrapped classifier is nil"}
	}
	if m == nil {
		return nil, &ConfigurationError{Classifier: name, Reason: "feature mapper is nil"}
	}

	return &MappedClassifier{
		BaseClassifier: NewBaseClassifier(name, map[string]any{"mapper": fmt.Sprint(m)}),
		clf:            clf,
		mapper:         m,
	}, nil
}

// Train fits a trainable mapper on ds.Samples, maps the samples and trains
// the wrapped classifier on the mapped dataset.
func (m *MappedClassifier) Train(ds *data.Dataset) error {
	m.ResetTraining()

	if ds == nil {
		if err := m.clf.Train(nil); err != nil {
			return fmt.Errorf("%s: %w", m.Name(), err)
		}
		m.MarkTrained(0)
		return nil
	}

	if t, ok := m.mapper.(mapper.Trainable); ok {
		if err := t.Fit(ds.Samples); err != nil {
			return fmt.Errorf("%s: fitting mapper: %w", m.Name(), err)
		}
	}

	mapped, err := m.forward(ds.Samples)
	if err != nil {
		return err
	}

	mds, err := ds.WithSamples(mapped)
	if err != nil {
		return &ShapeMismatchError{Classifier: m.Name(), What: "mapped dataset", Err: err}
	}

	if err := m.clf.Train(mds); err != nil {
		return fmt.Errorf("%s: %w", m.Name(), err)
	}

	m.MarkTrained(mds.Len())
	return nil
}

func (m *MappedClassifier) Predict(samples []data.Sample) ([]data.Label, error) {
	if t, ok := m.mapper.(mapper.Trainable); ok && !t.IsFitted() {
		return nil, &StateError{Classifier: m.Name(), Op: "predict"}
	}

	mapped, err := m.forward(samples)
	if err != nil {
		return nil, err
	}

	predictions, err := m.clf.Predict(mapped)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", m.Name(), err)
	}
	if err := m.CheckLength("wrapped predictions", len(samples), len(predictions)); err != nil {
		return nil, err
	}

	m.RecordPredictions(predictions)
	return predictions, nil
}

func (m *MappedClassifier) forward(samples []data.Sample) ([]data.Sample, error) {
	mapped, err := mapper.ForwardAll(m.mapper, samples)
	if err != nil {
		if errors.Is(err, data.ErrShapeMismatch) {
			return nil, &ShapeMismatchError{Classifier: m.Name(), What: "mapper input", Err: err}
		}
		return nil, fmt.Errorf("%s: %w", m.Name(), err)
	}
	return mapped, nil
}

func (m *MappedClassifier) Mapper() mapper.FeatureMapper {
	return m.mapper
}

func (m *MappedClassifier) Children() []Classifier {
	return []Classifier{m.clf}
}

// Clone deep-copies the wrapped classifier. Immutable mappers are shared;
// mappers implementing mapper.Cloner are copied.
func (m *MappedClassifier) Clone() (Classifier, error) {
	inner, err := Clone(m.clf)
	if err != nil {
		return nil, err
	}

	fm := m.mapper
	if c, ok := fm.(mapper.Cloner); ok {
		fm = c.CloneMapper()
	}

	return &MappedClassifier{
		BaseClassifier: m.CloneBase(),
		clf:            inner,
		mapper:         fm,
	}, nil
}

func (m *MappedClassifier) String() string {
	return fmt.Sprintf("%s(%v)", m.Name(), m.mapper)
}
