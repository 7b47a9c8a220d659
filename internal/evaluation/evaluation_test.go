package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlcompose/internal/classifier"
	"mlcompose/internal/data"
	"mlcompose/internal/models"
)

func labels(values ...any) []data.Label {
	return values
}

func TestCalculateMetrics(t *testing.T) {
	yTrue := labels("a", "a", "b", "b", "c")
	yPred := labels("a", "b", "b", "b", "a")

	m, err := CalculateMetrics(yTrue, yPred, nil)
	require.NoError(t, err)

	assert.InDelta(t, 0.6, m.Accuracy, 1e-9)
	assert.Equal(t, labels("a", "b", "c"), m.Classes)
	assert.Equal(t, [][]int{
		{1, 1, 0},
		{0, 2, 0},
		{1, 0, 0},
	}, m.ConfusionMatrix)

	assert.InDelta(t, 0.5, m.PerClassMetrics["a"].Precision, 1e-9)
	assert.InDelta(t, 0.5, m.PerClassMetrics["a"].Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, m.PerClassMetrics["b"].Precision, 1e-9)
	assert.InDelta(t, 1.0, m.PerClassMetrics["b"].Recall, 1e-9)
	assert.Equal(t, 0.0, m.PerClassMetrics["c"].F1Score)
	assert.Equal(t, map[string]int{"a": 2, "b": 2, "c": 1}, m.ClassSupport)
	assert.InDelta(t, 0.5, m.BalancedAccuracy, 1e-9)
	assert.Contains(t, m.FormatMetrics(), "Accuracy: 0.6000")
	assert.Contains(t, m.FormatConfusionMatrix(), "true\\pred")
}

func TestCalculateMetricsGroupsAndNumbers(t *testing.T) {
	pos := data.LabelGroup{"sp", "sn"}
	yTrue := labels(pos, data.LabelGroup{"sn", "sp"}, 1)
	yPred := labels(pos, pos, 1.0)

	m, err := CalculateMetrics(yTrue, yPred, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.Accuracy)
	assert.Equal(t, 2, m.NumClasses)
}

func TestCalculateMetricsErrors(t *testing.T) {
	_, err := CalculateMetrics(labels("a"), labels("a", "b"), nil)
	assert.ErrorIs(t, err, data.ErrShapeMismatch)

	_, err = CalculateMetrics(nil, nil, nil)
	assert.ErrorIs(t, err, data.ErrEmptyDataset)
}

func dataset(t *testing.T, n int) *data.Dataset {
	t.Helper()
	samples := make([]data.Sample, n)
	ls := make([]data.Label, n)
	for i := 0; i < n; i++ {
		if i%2 == 0 {
			samples[i] = data.NewSample(float64(i)/100, float64(i)/100)
			ls[i] = "low"
		} else {
			samples[i] = data.NewSample(10+float64(i)/100, 10+float64(i)/100)
			ls[i] = "high"
		}
	}
	ds, err := data.NewDataset(samples, ls)
	require.NoError(t, err)
	return ds
}

func TestTrainTestSplit(t *testing.T) {
	ds := dataset(t, 10)

	train, test, err := NewTrainTestSplitter(0.3, 1, true).Split(ds)
	require.NoError(t, err)
	assert.Equal(t, 7, train.Len())
	assert.Equal(t, 3, test.Len())

	again, _, err := NewTrainTestSplitter(0.3, 1, true).Split(ds)
	require.NoError(t, err)
	assert.Equal(t, train.Labels, again.Labels)

	train, test, err = NewTrainTestSplitter(0.2, 0, false).Split(ds)
	require.NoError(t, err)
	assert.Equal(t, ds.Samples[8:], test.Samples)
	assert.Equal(t, ds.Samples[:8], train.Samples)

	_, _, err = NewTrainTestSplitter(1.5, 0, false).Split(ds)
	assert.Error(t, err)
	_, _, err = NewTrainTestSplitter(0.2, 0, false).Split(&data.Dataset{})
	assert.ErrorIs(t, err, data.ErrEmptyDataset)
}

func TestStratifiedSplit(t *testing.T) {
	ds := dataset(t, 10)

	train, test, err := NewTrainTestSplitter(0.2, 3, true).StratifiedSplit(ds)
	require.NoError(t, err)
	assert.Equal(t, 8, train.Len())
	assert.Equal(t, 2, test.Len())
	assert.ElementsMatch(t, labels("low", "high"), test.Labels)
}

func TestKFold(t *testing.T) {
	ds := dataset(t, 11)

	for _, stratified := range []bool{false, true} {
		folds, err := NewKFoldSplitter(3, true, 5).Stratified(stratified).TestIndices(ds)
		require.NoError(t, err)
		require.Len(t, folds, 3)

		seen := make(map[int]int)
		for _, fold := range folds {
			assert.NotEmpty(t, fold)
			for _, idx := range fold {
				seen[idx]++
			}
		}
		assert.Len(t, seen, 11)
		for idx, count := range seen {
			assert.Equal(t, 1, count, "index %d", idx)
		}
	}

	split, err := NewKFoldSplitter(3, false, 0).Split(ds)
	require.NoError(t, err)
	for _, fold := range split {
		assert.Equal(t, 11, fold.Train.Len()+fold.Test.Len())
	}

	_, err = NewKFoldSplitter(1, false, 0).Split(ds)
	assert.Error(t, err)
	_, err = NewKFoldSplitter(12, false, 0).Split(ds)
	assert.Error(t, err)
}

func TestCrossValidate(t *testing.T) {
	ds := dataset(t, 20)

	for _, parallel := range []bool{false, true} {
		cv := NewCrossValidator(4, true)
		cv.Parallel = parallel

		result, err := cv.CrossValidate(ds, FromPrototype(models.NewKNN(1, "euclidean")))
		require.NoError(t, err)
		assert.Len(t, result.Scores, 4)
		assert.Equal(t, 1.0, result.Mean)
		assert.Equal(t, 0.0, result.Std)
	}
}

func TestCrossValidateFactoryError(t *testing.T) {
	cv := NewCrossValidator(2, false)
	_, err := cv.CrossValidate(dataset(t, 4), func() (classifier.Classifier, error) {
		return nil, &classifier.ConfigurationError{Classifier: "test", Reason: "broken"}
	})
	assert.ErrorIs(t, err, classifier.ErrConfiguration)
}

func TestCalculateStats(t *testing.T) {
	mean, std := calculateStats([]float64{1, 2, 3})
	assert.InDelta(t, 2.0, mean, 1e-9)
	assert.InDelta(t, 1.0, std, 1e-9)
}
