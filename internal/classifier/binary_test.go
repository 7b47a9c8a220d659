package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlcompose/internal/data"
)

func TestBinaryDecoratorGroups(t *testing.T) {
	d, err := NewBinaryClassifierDecorator(newSignLeaf(), []data.Label{"sp", "sn"}, []data.Label{"dp", "dn"})
	require.NoError(t, err)
	require.NoError(t, d.Train(nil))

	preds, err := d.Predict(testdata2)
	require.NoError(t, err)
	require.Len(t, preds, 5)

	pos := data.LabelGroup{"sn", "sp"}
	neg := data.LabelGroup{"dn", "dp"}
	for i, expect := range []data.LabelGroup{pos, pos, pos, neg, neg} {
		assert.True(t, data.LabelsEqual(expect, preds[i]), "sample %d: got %v", i, preds[i])
		assert.ElementsMatch(t, expect, preds[i])
	}

	stored, ok := d.States().Predictions()
	require.True(t, ok)
	assert.Equal(t, preds, stored)
}

func TestBinaryDecoratorConstruction(t *testing.T) {
	_, err := NewBinaryClassifierDecorator(nil, []data.Label{"a"}, []data.Label{"b"})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewBinaryClassifierDecorator(newSignLeaf(), nil, []data.Label{"b"})
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewBinaryClassifierDecorator(newSignLeaf(), []data.Label{"a", "b"}, []data.Label{"b", "c"})
	assert.ErrorIs(t, err, ErrMapping)

	d, err := NewBinaryClassifierDecorator(newSignLeaf(), []data.Label{"a", "a", "b"}, []data.Label{1, 1.0})
	require.NoError(t, err)
	assert.Equal(t, data.LabelGroup{"a", "b"}, d.PosLabels())
	assert.Len(t, d.NegLabels(), 1)
}

func TestBinaryDecoratorUnmappableOutput(t *testing.T) {
	tests := []struct {
		name string
		out  []data.Label
	}{
		{"zero", []data.Label{1, 0}},
		{"string", []data.Label{"yes", 1}},
		{"nil", []data.Label{nil, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewBinaryClassifierDecorator(newFixedLeaf("fixed", tt.out...), []data.Label{"p"}, []data.Label{"n"})
			require.NoError(t, err)

			_, err = d.Predict(testdata2[:2])
			assert.ErrorIs(t, err, ErrMapping)
		})
	}
}

func TestBinaryDecoratorBoolAndFloatOutputs(t *testing.T) {
	d, err := NewBinaryClassifierDecorator(newFixedLeaf("fixed", true, false, 0.5, -2.5), []data.Label{"p"}, []data.Label{"n"})
	require.NoError(t, err)

	preds, err := d.Predict(make([]data.Sample, 4))
	require.NoError(t, err)
	assert.Equal(t, []data.Label{
		data.LabelGroup{"p"}, data.LabelGroup{"n"}, data.LabelGroup{"p"}, data.LabelGroup{"n"},
	}, preds)
}

func TestBinaryDecoratorLengthMismatch(t *testing.T) {
	d, err := NewBinaryClassifierDecorator(newFixedLeaf("fixed", 1), []data.Label{"p"}, []data.Label{"n"})
	require.NoError(t, err)

	_, err = d.Predict(testdata2)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestBinaryDecoratorTrainRelabels(t *testing.T) {
	leaf := newFixedLeaf("fixed")
	d, err := NewBinaryClassifierDecorator(leaf, []data.Label{"sp", "sn"}, []data.Label{"dp", "dn"})
	require.NoError(t, err)

	ds := mustDataset(t, testdata2[:4], "sp", "dn", "other", "sn")
	require.NoError(t, d.Train(ds))

	require.NotNil(t, leaf.trainedOn)
	assert.Equal(t, []data.Label{1, -1, 1}, leaf.trainedOn.Labels)
	assert.Equal(t, []data.Sample{testdata2[0], testdata2[1], testdata2[3]}, leaf.trainedOn.Samples)

	n, ok := d.States().Get(StateTrainedSamples)
	require.True(t, ok)
	assert.Equal(t, 3, n)

	err = d.Train(mustDataset(t, testdata2[:1], "other"))
	assert.ErrorIs(t, err, ErrMapping)
	assert.False(t, d.IsTrained())
}

func TestBinaryDecoratorNested(t *testing.T) {
	inner, err := NewBinaryClassifierDecorator(newSignLeaf(), []data.Label{"sp", "sn"}, []data.Label{"dp", "dn"})
	require.NoError(t, err)
	dup, err := Clone(inner)
	require.NoError(t, err)

	ens, err := NewBoostedClassifier([]Classifier{inner, dup})
	require.NoError(t, err)

	preds, err := ens.Predict(testdata2)
	require.NoError(t, err)
	direct, err := inner.Predict(testdata2)
	require.NoError(t, err)
	assert.Equal(t, direct, preds)
}
