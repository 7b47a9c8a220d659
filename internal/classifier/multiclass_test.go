package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlcompose/internal/data"
)

func threeClusters(t *testing.T) *data.Dataset {
	t.Helper()
	return mustDataset(t,
		data.NewSamples([]float64{0}, []float64{1}, []float64{10}, []float64{11}, []float64{20}, []float64{21}),
		"a", "a", "b", "b", "c", "c",
	)
}

func TestBoostedMulticlassOneVsOne(t *testing.T) {
	m, err := NewBoostedMulticlassClassifier(newCentroidLeaf(), nil)
	require.NoError(t, err)

	_, err = m.Predict(data.NewSamples([]float64{0}))
	assert.ErrorIs(t, err, ErrState)
	assert.Nil(t, m.Children())

	require.NoError(t, m.Train(threeClusters(t)))
	assert.Equal(t, []data.Label{"a", "b", "c"}, m.Labels())
	require.Len(t, m.Children(), 3)

	probes := data.NewSamples([]float64{-1}, []float64{9}, []float64{25})
	preds, err := m.Predict(probes)
	require.NoError(t, err)
	assert.Equal(t, []data.Label{"a", "b", "c"}, preds)

	stored, ok := m.States().Get(StatePredictions)
	require.True(t, ok)
	assert.Equal(t, preds, stored)

	pair, ok := m.Children()[0].(*BinaryClassifierDecorator)
	require.True(t, ok)
	assert.Equal(t, data.LabelGroup{"a"}, pair.PosLabels())
	assert.Equal(t, data.LabelGroup{"b"}, pair.NegLabels())
	n, ok := pair.States().Get(StateTrainedSamples)
	require.True(t, ok)
	assert.Equal(t, 4, n)

	assert.Contains(t, Describe(m), "  BinaryClassifierDecorator(pos=[b], neg=[c])")
}

func TestBoostedMulticlassTwoLabelsReturnScalars(t *testing.T) {
	m, err := NewBoostedMulticlassClassifier(newCentroidLeaf(), nil)
	require.NoError(t, err)

	ds := mustDataset(t, data.NewSamples([]float64{0}, []float64{10}), "lo", "hi")
	require.NoError(t, m.Train(ds))

	preds, err := m.Predict(data.NewSamples([]float64{-3}, []float64{12}))
	require.NoError(t, err)
	assert.Equal(t, []data.Label{"lo", "hi"}, preds)
}

func TestBoostedMulticlassFixedLabels(t *testing.T) {
	m, err := NewBoostedMulticlassClassifier(newSignLeaf(), []data.Label{"same", "differ", "same"})
	require.NoError(t, err)
	assert.Equal(t, []data.Label{"same", "differ"}, m.Labels())

	preds, err := m.Predict(testdata)
	require.NoError(t, err)
	assert.Equal(t, []data.Label{"same", "same", "same", "differ", "differ"}, preds)
}

func TestBoostedMulticlassErrors(t *testing.T) {
	_, err := NewBoostedMulticlassClassifier(nil, nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewBoostedMulticlassClassifier(&opaqueLeaf{BaseClassifier: NewBaseClassifier("opaque", nil)}, nil)
	assert.ErrorIs(t, err, ErrConfiguration)

	_, err = NewBoostedMulticlassClassifier(newSignLeaf(), []data.Label{"only"})
	assert.ErrorIs(t, err, ErrConfiguration)

	m, err := NewBoostedMulticlassClassifier(newCentroidLeaf(), nil)
	require.NoError(t, err)
	err = m.Train(mustDataset(t, data.NewSamples([]float64{0}, []float64{1}), "a", "a"))
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.False(t, m.IsTrained())

	err = m.Train(nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestBoostedMulticlassClone(t *testing.T) {
	m, err := NewBoostedMulticlassClassifier(newCentroidLeaf(), nil)
	require.NoError(t, err)
	require.NoError(t, m.Train(threeClusters(t)))

	cloned, err := Clone(m)
	require.NoError(t, err)

	other := mustDataset(t, data.NewSamples([]float64{0}, []float64{100}), "x", "y")
	require.NoError(t, m.Train(other))

	preds, err := cloned.Predict(data.NewSamples([]float64{9}))
	require.NoError(t, err)
	assert.Equal(t, []data.Label{"b"}, preds)
}

func TestMemberVote(t *testing.T) {
	label, err := MemberVote{}.Combine([]data.Label{data.LabelGroup{"a"}, data.LabelGroup{"b"}, data.LabelGroup{"b", "c"}})
	require.NoError(t, err)
	assert.Equal(t, "b", label)

	label, err = MemberVote{}.Combine([]data.Label{data.LabelGroup{"a", "b"}, data.LabelGroup{"a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, data.LabelGroup{"a", "b"}, label)

	label, err = MemberVote{}.Combine([]data.Label{data.LabelGroup{"a"}, "c", data.LabelGroup{"c"}})
	require.NoError(t, err)
	assert.Equal(t, "c", label)

	_, err = MemberVote{}.Combine(nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
