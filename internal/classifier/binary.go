package classifier

import (
	"fmt"

	"mlcompose/internal/data"
)

// BinaryClassifierDecorator turns a two-valued classifier into a chooser
// between two label groups. Each prediction is the complete matching group,
// as a data.LabelGroup, never a partial one.
//
// A positive wrapped output (number > 0 or true) selects the positive group,
// a negative one (number < 0 or false) the negative group. Anything else is a
// MappingError.
type BinaryClassifierDecorator struct {
	BaseClassifier
	clf       Classifier
	posLabels data.LabelGroup
	negLabels data.LabelGroup
}

func NewBinaryClassifierDecorator(clf Classifier, posLabels, negLabels []data.Label) (*BinaryClassifierDecorator, error) {
	const name = "BinaryClassifierDecorator"

	if clf == nil {
		return nil, &ConfigurationError{Classifier: name, Reason: "wrapped classifier is nil"}
	}

	pos := data.NewLabelGroup(posLabels...)
	neg := data.NewLabelGroup(negLabels...)
	if len(pos) == 0 || len(neg) == 0 {
		return nil, &ConfigurationError{Classifier: name, Reason: "both label groups must be non-empty"}
	}
	if pos.Intersects(neg) {
		return nil, &MappingError{
			Classifier: name,
			Index:      -1,
			Reason:     fmt.Sprintf("positive labels %v and negative labels %v overlap", pos, neg),
		}
	}

	return &BinaryClassifierDecorator{
		BaseClassifier: NewBaseClassifier(name, map[string]any{
			"poslabels": pos.String(),
			"neglabels": neg.String(),
		}),
		clf:       clf,
		posLabels: pos,
		negLabels: neg,
	}, nil
}

// Train relabels ds to +1 for positive-group labels and -1 for negative-group
// labels, drops samples in neither group, and trains the wrapped classifier
// on the result. A nil dataset is passed through for fixed-rule classifiers.
func (d *BinaryClassifierDecorator) Train(ds *data.Dataset) error {
	d.ResetTraining()

	if ds == nil {
		if err := d.clf.Train(nil); err != nil {
			return fmt.Errorf("%s: %w", d.Name(), err)
		}
		d.MarkTrained(0)
		return nil
	}

	if err := ds.Validate(); err != nil {
		return &ShapeMismatchError{Classifier: d.Name(), What: "training dataset", Err: err}
	}

	var keep []int
	var labels []data.Label
	for i, l := range ds.Labels {
		switch {
		case d.posLabels.Contains(l):
			keep = append(keep, i)
			labels = append(labels, 1)
		case d.negLabels.Contains(l):
			keep = append(keep, i)
			labels = append(labels, -1)
		}
	}

	if ds.Len() > 0 && len(keep) == 0 {
		return &MappingError{Classifier: d.Name(), Index: -1, Reason: "no training label belongs to either group"}
	}

	binary, err := ds.Subset(keep).WithLabels(labels)
	if err != nil {
		return &ShapeMismatchError{Classifier: d.Name(), What: "relabeled dataset", Err: err}
	}

	if err := d.clf.Train(binary); err != nil {
		return fmt.Errorf("%s: %w", d.Name(), err)
	}

	d.MarkTrained(binary.Len())
	return nil
}

func (d *BinaryClassifierDecorator) Predict(samples []data.Sample) ([]data.Label, error) {
	raw, err := d.clf.Predict(samples)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Name(), err)
	}
	if err := d.CheckLength("wrapped predictions", len(samples), len(raw)); err != nil {
		return nil, err
	}

	predictions := make([]data.Label, len(raw))
	for i, v := range raw {
		positive, ok := sign(v)
		if !ok {
			return nil, &MappingError{
				Classifier: d.Name(),
				Index:      i,
				Value:      v,
				Reason:     "wrapped output is neither positive nor negative",
			}
		}
		if positive {
			predictions[i] = d.posLabels.Clone()
		} else {
			predictions[i] = d.negLabels.Clone()
		}
	}

	d.RecordPredictions(predictions)
	return predictions, nil
}

// sign reports whether v is positive; ok is false for zero and for values
// that have no sign.
func sign(v data.Label) (positive bool, ok bool) {
	if b, isBool := v.(bool); isBool {
		return b, true
	}
	dec, isNum := data.AsDecimal(v)
	if !isNum {
		return false, false
	}
	switch dec.Sign() {
	case 1:
		return true, true
	case -1:
		return false, true
	default:
		return false, false
	}
}

func (d *BinaryClassifierDecorator) PosLabels() data.LabelGroup { return d.posLabels.Clone() }
func (d *BinaryClassifierDecorator) NegLabels() data.LabelGroup { return d.negLabels.Clone() }

func (d *BinaryClassifierDecorator) Children() []Classifier {
	return []Classifier{d.clf}
}

func (d *BinaryClassifierDecorator) Clone() (Classifier, error) {
	inner, err := Clone(d.clf)
	if err != nil {
		return nil, err
	}
	return &BinaryClassifierDecorator{
		BaseClassifier: d.CloneBase(),
		clf:            inner,
		posLabels:      d.posLabels.Clone(),
		negLabels:      d.negLabels.Clone(),
	}, nil
}

func (d *BinaryClassifierDecorator) String() string {
	return fmt.Sprintf("%s(pos=%v, neg=%v)", d.Name(), d.posLabels, d.negLabels)
}
