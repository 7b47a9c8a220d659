package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlcompose/internal/classifier"
	"mlcompose/internal/data"
)

var testdata = data.NewSamples(
	[]float64{0, 0},
	[]float64{-10, -1},
	[]float64{1, 0.1},
	[]float64{1, -1},
	[]float64{-1, 1},
)

// clusters returns two well separated classes along the diagonal.
func clusters(t *testing.T) *data.Dataset {
	t.Helper()

	var samples []data.Sample
	var labels []data.Label
	for i := 0; i < 10; i++ {
		v := 0.1 * float64(i)
		samples = append(samples, data.NewSample(v, v))
		labels = append(labels, "a")
		samples = append(samples, data.NewSample(10+v, 10+v))
		labels = append(labels, "b")
	}

	ds, err := data.NewDataset(samples, labels)
	require.NoError(t, err)
	return ds
}

var probes = data.NewSamples([]float64{-0.5, -0.5}, []float64{12, 12}, []float64{0.45, 0.45})

func TestSameSign(t *testing.T) {
	clf := NewSameSign()
	require.NoError(t, clf.Train(nil))

	preds, err := clf.Predict(testdata)
	require.NoError(t, err)
	assert.Equal(t, []data.Label{1, 1, 1, -1, -1}, preds)

	stored, ok := clf.States().Predictions()
	require.True(t, ok)
	assert.Equal(t, preds, stored)

	_, err = clf.Predict(data.NewSamples([]float64{1}))
	assert.ErrorIs(t, err, classifier.ErrShapeMismatch)
}

func TestLess1(t *testing.T) {
	clf := NewLess1()

	preds, err := clf.Predict(data.NewSamples(
		[]float64{0, 0},
		[]float64{2, 0},
		[]float64{1, 1},
		[]float64{-5, 1.5},
	))
	require.NoError(t, err)
	assert.Equal(t, []data.Label{1, -1, 1, -1}, preds)

	_, err = clf.Predict([]data.Sample{{}})
	assert.ErrorIs(t, err, classifier.ErrShapeMismatch)
}

func TestLearnedModels(t *testing.T) {
	tests := []struct {
		name string
		clf  classifier.Classifier
	}{
		{"knn", NewKNN(3, "euclidean")},
		{"knn manhattan", NewKNN(3, "manhattan")},
		{"tree", NewDecisionTree(5, 2)},
		{"bayes", NewNaiveBayes(1e-9)},
		{"forest", NewRandomForest(15, 5, 2).WithSeed(7).WithWorkers(4)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.clf.Predict(probes)
			assert.ErrorIs(t, err, classifier.ErrState)

			require.NoError(t, tt.clf.Train(clusters(t)))

			preds, err := tt.clf.Predict(probes)
			require.NoError(t, err)
			assert.Equal(t, []data.Label{"a", "b", "a"}, preds)

			_, err = tt.clf.Predict(data.NewSamples([]float64{1, 2, 3}))
			assert.ErrorIs(t, err, classifier.ErrShapeMismatch)

			n, ok := tt.clf.States().Get(classifier.StateTrainedSamples)
			require.True(t, ok)
			assert.Equal(t, 20, n)
		})
	}
}

func TestLearnedModelsRejectEmptyDataset(t *testing.T) {
	for _, clf := range []classifier.Classifier{
		NewKNN(3, "euclidean"),
		NewDecisionTree(5, 2),
		NewNaiveBayes(0),
		NewRandomForest(3, 5, 2),
	} {
		err := clf.Train(&data.Dataset{})
		assert.ErrorIs(t, err, data.ErrEmptyDataset, clf.Name())
	}
}

func TestCloneIsIndependent(t *testing.T) {
	knn := NewKNN(1, "euclidean")
	require.NoError(t, knn.Train(clusters(t)))

	cloned, err := classifier.Clone(knn)
	require.NoError(t, err)

	flipped, err := clusters(t).WithLabels(func() []data.Label {
		labels := make([]data.Label, 20)
		for i := range labels {
			labels[i] = "x"
		}
		return labels
	}())
	require.NoError(t, err)
	require.NoError(t, knn.Train(flipped))

	preds, err := cloned.Predict(probes)
	require.NoError(t, err)
	assert.Equal(t, []data.Label{"a", "b", "a"}, preds)

	preds, err = knn.Predict(probes)
	require.NoError(t, err)
	assert.Equal(t, []data.Label{"x", "x", "x"}, preds)
}

func TestKNNPredictProba(t *testing.T) {
	knn := NewKNN(3, "euclidean")
	require.NoError(t, knn.Train(clusters(t)))

	proba, err := knn.PredictProba(probes[:2])
	require.NoError(t, err)
	require.Len(t, proba, 2)

	assert.True(t, proba[0][0].Equal(decimal.NewFromInt(1)))
	assert.True(t, proba[0][1].IsZero())
	assert.True(t, proba[1][1].Equal(decimal.NewFromInt(1)))
}

func TestNaiveBayesPredictProba(t *testing.T) {
	nb := NewNaiveBayes(1e-9)
	require.NoError(t, nb.Train(clusters(t)))

	proba, err := nb.PredictProba(probes)
	require.NoError(t, err)
	for _, row := range proba {
		sum := decimal.Zero
		for _, p := range row {
			sum = sum.Add(p)
		}
		assert.InDelta(t, 1.0, sum.InexactFloat64(), 1e-9)
	}
	assert.Greater(t, proba[0][0].InexactFloat64(), proba[0][1].InexactFloat64())
}

func TestDecisionTreePrune(t *testing.T) {
	dt := NewDecisionTree(5, 2)
	require.NoError(t, dt.Train(clusters(t)))
	assert.Equal(t, 1, dt.Depth())

	require.NoError(t, dt.Prune(clusters(t)))

	preds, err := dt.Predict(probes)
	require.NoError(t, err)
	assert.Equal(t, []data.Label{"a", "b", "a"}, preds)

	cloned, err := dt.Clone()
	require.NoError(t, err)
	assert.Equal(t, dt.Depth(), cloned.(*DecisionTree).Depth())
}

func TestDecisionTreeDeterministic(t *testing.T) {
	a := NewDecisionTree(3, 2)
	b := NewDecisionTree(3, 2)
	require.NoError(t, a.Train(clusters(t)))
	require.NoError(t, b.Train(clusters(t)))
	assert.Equal(t, a.Root.Threshold.String(), b.Root.Threshold.String())
	assert.Equal(t, a.Root.Feature, b.Root.Feature)
}

func TestRandomForestStructure(t *testing.T) {
	rf := NewRandomForest(6, 4, 2).WithSeed(3).WithWorkers(1)
	assert.Nil(t, rf.Children())

	require.NoError(t, rf.Train(clusters(t)))

	children := rf.Children()
	require.Len(t, children, 6)
	for _, child := range children {
		mc, ok := child.(*classifier.MappedClassifier)
		require.True(t, ok)
		assert.Equal(t, 2, mc.Mapper().InDim())
		assert.Equal(t, 1, mc.Mapper().OutDim())
	}

	again := NewRandomForest(6, 4, 2).WithSeed(3).WithWorkers(3)
	require.NoError(t, again.Train(clusters(t)))

	for i := range children {
		assert.Equal(t, children[i].(*classifier.MappedClassifier).Mapper(),
			again.Children()[i].(*classifier.MappedClassifier).Mapper())
	}

	assert.Contains(t, classifier.Describe(rf), "DecisionTree")
}
