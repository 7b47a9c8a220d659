package classifier

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"mlcompose/internal/data"
	"mlcompose/internal/mapper"
)

// signLeaf predicts 1 when the first two features share a sign, else -1.
type signLeaf struct {
	BaseClassifier
}

func newSignLeaf() *signLeaf {
	return &signLeaf{BaseClassifier: NewBaseClassifier("sign", nil)}
}

func (c *signLeaf) Train(*data.Dataset) error { return nil }

func (c *signLeaf) Predict(samples []data.Sample) ([]data.Label, error) {
	out := make([]data.Label, len(samples))
	for i, s := range samples {
		if len(s) < 2 {
			return nil, &ShapeMismatchError{Classifier: c.Name(), What: "sample", Expected: 2, Got: len(s)}
		}
		if (s[0].Sign() >= 0) == (s[1].Sign() >= 0) {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	c.RecordPredictions(out)
	return out, nil
}

func (c *signLeaf) Clone() (Classifier, error) {
	return &signLeaf{BaseClassifier: c.CloneBase()}, nil
}

// fixedLeaf returns the same predictions whatever the input and remembers the
// dataset it was last trained on.
type fixedLeaf struct {
	BaseClassifier
	out       []data.Label
	trainedOn *data.Dataset
}

func newFixedLeaf(name string, out ...data.Label) *fixedLeaf {
	return &fixedLeaf{BaseClassifier: NewBaseClassifier(name, nil), out: out}
}

func (c *fixedLeaf) Train(ds *data.Dataset) error {
	c.ResetTraining()
	c.trainedOn = ds
	c.MarkTrained(ds.Len())
	return nil
}

func (c *fixedLeaf) Predict([]data.Sample) ([]data.Label, error) {
	out := append([]data.Label(nil), c.out...)
	c.RecordPredictions(out)
	return out, nil
}

func (c *fixedLeaf) Clone() (Classifier, error) {
	return &fixedLeaf{BaseClassifier: c.CloneBase(), out: c.out, trainedOn: c.trainedOn}, nil
}

// constLeaf predicts the first label it was trained on and refuses to predict
// before Train.
type constLeaf struct {
	BaseClassifier
	label data.Label
	dim   int
}

func newConstLeaf() *constLeaf {
	return &constLeaf{BaseClassifier: NewBaseClassifier("const", nil)}
}

func (c *constLeaf) Clone() (Classifier, error) {
	return &constLeaf{BaseClassifier: c.CloneBase(), label: c.label, dim: c.dim}, nil
}

func (c *constLeaf) Train(ds *data.Dataset) error {
	c.ResetTraining()
	c.label = ds.Labels[0]
	c.dim = ds.Dim()
	c.MarkTrained(ds.Len())
	return nil
}

func (c *constLeaf) Predict(samples []data.Sample) ([]data.Label, error) {
	if err := c.RequireTrained("predict"); err != nil {
		return nil, err
	}
	out := make([]data.Label, len(samples))
	for i, s := range samples {
		if len(s) != c.dim {
			return nil, &ShapeMismatchError{Classifier: c.Name(), What: "sample", Expected: c.dim, Got: len(s)}
		}
		out[i] = c.label
	}
	c.RecordPredictions(out)
	return out, nil
}

// opaqueLeaf cannot be cloned.
type opaqueLeaf struct {
	BaseClassifier
}

func (c *opaqueLeaf) Train(*data.Dataset) error { return nil }

func (c *opaqueLeaf) Predict(samples []data.Sample) ([]data.Label, error) {
	return make([]data.Label, len(samples)), nil
}

var testdata = data.NewSamples(
	[]float64{0, 0},
	[]float64{-10, -1},
	[]float64{1, 0.1},
	[]float64{1, -1},
	[]float64{-1, 1},
)

var testdata2 = data.NewSamples(
	[]float64{0, 0},
	[]float64{10, 10},
	[]float64{-10, -1},
	[]float64{0.1, -0.1},
	[]float64{-0.2, 0.2},
)

var testdata3 = data.NewSamples(
	[]float64{0, 0, -1},
	[]float64{1, 0, 1},
	[]float64{-1, -1, 1},
	[]float64{-1, 0, 1},
	[]float64{1, -1, 1},
)

func mustDataset(t *testing.T, samples []data.Sample, labels ...data.Label) *data.Dataset {
	t.Helper()
	ds, err := data.NewDataset(samples, labels)
	require.NoError(t, err)
	return ds
}

// centroidLeaf predicts the label whose mean first feature is nearest. Ties
// go to the label seen first in training.
type centroidLeaf struct {
	BaseClassifier
	labels []data.Label
	means  []decimal.Decimal
}

func newCentroidLeaf() *centroidLeaf {
	return &centroidLeaf{BaseClassifier: NewBaseClassifier("centroid", nil)}
}

func (c *centroidLeaf) Train(ds *data.Dataset) error {
	c.ResetTraining()
	c.labels = ds.UniqueLabels()
	c.means = make([]decimal.Decimal, len(c.labels))
	for i, l := range c.labels {
		sum, n := decimal.Zero, int64(0)
		for j, s := range ds.Samples {
			if data.LabelsEqual(ds.Labels[j], l) {
				sum = sum.Add(s[0])
				n++
			}
		}
		c.means[i] = sum.Div(decimal.NewFromInt(n))
	}
	c.MarkTrained(ds.Len())
	return nil
}

func (c *centroidLeaf) Predict(samples []data.Sample) ([]data.Label, error) {
	if err := c.RequireTrained("predict"); err != nil {
		return nil, err
	}
	out := make([]data.Label, len(samples))
	for i, s := range samples {
		best := 0
		for k := range c.means {
			if s[0].Sub(c.means[k]).Abs().LessThan(s[0].Sub(c.means[best]).Abs()) {
				best = k
			}
		}
		out[i] = c.labels[best]
	}
	c.RecordPredictions(out)
	return out, nil
}

func (c *centroidLeaf) Clone() (Classifier, error) {
	return &centroidLeaf{
		BaseClassifier: c.CloneBase(),
		labels:         append([]data.Label(nil), c.labels...),
		means:          append([]decimal.Decimal(nil), c.means...),
	}, nil
}

func identityMask(t *testing.T, dim int) *mapper.MaskMapper {
	t.Helper()
	mask := make([]bool, dim)
	for i := range mask {
		mask[i] = true
	}
	m, err := mapper.NewMaskMapper(mask)
	require.NoError(t, err)
	return m
}
