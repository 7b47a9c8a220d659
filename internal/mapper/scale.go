package mapper

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"mlcompose/internal/data"
)

// ScaleMapper rescales every dimension with parameters learned by Fit. It
// keeps the dimensionality unchanged.
type ScaleMapper struct {
	ScaleType   string
	IsFit       bool
	FeatureMin  []decimal.Decimal
	FeatureMax  []decimal.Decimal
	FeatureMean []decimal.Decimal
	FeatureStd  []decimal.Decimal
}

// NewScaleMapper accepts "minmax"/"normalized", "standard"/"standardized"
// or "raw"/"none".
func NewScaleMapper(scaleType string) (*ScaleMapper, error) {
	switch scaleType {
	case "minmax", "normalized", "standard", "standardized", "raw", "none":
	default:
		return nil, fmt.Errorf("unknown scale type: %s", scaleType)
	}
	return &ScaleMapper{ScaleType: scaleType}, nil
}

func (s *ScaleMapper) Fit(X []data.Sample) error {
	if len(X) == 0 {
		return data.ErrEmptyDataset
	}
	if err := data.CheckDim(X); err != nil {
		return err
	}

	nFeatures := len(X[0])
	s.FeatureMin = make([]decimal.Decimal, nFeatures)
	s.FeatureMax = make([]decimal.Decimal, nFeatures)
	s.FeatureMean = make([]decimal.Decimal, nFeatures)
	s.FeatureStd = make([]decimal.Decimal, nFeatures)

	switch s.ScaleType {
	case "minmax", "normalized":
		s.fitMinMax(X)
	case "standard", "standardized":
		s.fitStandard(X)
	}

	s.IsFit = true
	return nil
}

func (s *ScaleMapper) IsFitted() bool { return s.IsFit }

func (s *ScaleMapper) Forward(sample data.Sample) (data.Sample, error) {
	if !s.IsFit {
		return nil, ErrNotFitted
	}
	if len(sample) != len(s.FeatureMin) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimension, len(s.FeatureMin), len(sample))
	}

	out := make(data.Sample, len(sample))
	for j, v := range sample {
		switch s.ScaleType {
		case "minmax", "normalized":
			out[j] = s.transformMinMax(v, j)
		case "standard", "standardized":
			out[j] = s.transformStandard(v, j)
		default:
			out[j] = v
		}
	}
	return out, nil
}

func (s *ScaleMapper) CloneMapper() FeatureMapper {
	return &ScaleMapper{
		ScaleType:   s.ScaleType,
		IsFit:       s.IsFit,
		FeatureMin:  append([]decimal.Decimal(nil), s.FeatureMin...),
		FeatureMax:  append([]decimal.Decimal(nil), s.FeatureMax...),
		FeatureMean: append([]decimal.Decimal(nil), s.FeatureMean...),
		FeatureStd:  append([]decimal.Decimal(nil), s.FeatureStd...),
	}
}

func (s *ScaleMapper) InDim() int  { return len(s.FeatureMin) }
func (s *ScaleMapper) OutDim() int { return len(s.FeatureMin) }

func (s *ScaleMapper) String() string {
	return fmt.Sprintf("scale(%s)", s.ScaleType)
}

func (s *ScaleMapper) fitMinMax(X []data.Sample) {
	for j := range s.FeatureMin {
		s.FeatureMin[j] = X[0][j]
		s.FeatureMax[j] = X[0][j]

		for i := 1; i < len(X); i++ {
			if X[i][j].LessThan(s.FeatureMin[j]) {
				s.FeatureMin[j] = X[i][j]
			}
			if X[i][j].GreaterThan(s.FeatureMax[j]) {
				s.FeatureMax[j] = X[i][j]
			}
		}
	}
}

func (s *ScaleMapper) fitStandard(X []data.Sample) {
	nSamples := decimal.NewFromInt(int64(len(X)))

	for j := range s.FeatureMean {
		sum := decimal.Zero
		for i := range X {
			sum = sum.Add(X[i][j])
		}
		s.FeatureMean[j] = sum.Div(nSamples)
	}

	for j := range s.FeatureStd {
		variance := decimal.Zero
		for i := range X {
			diff := X[i][j].Sub(s.FeatureMean[j])
			variance = variance.Add(diff.Mul(diff))
		}
		variance = variance.Div(nSamples)

		s.FeatureStd[j] = decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64()))
		if s.FeatureStd[j].IsZero() {
			s.FeatureStd[j] = decimal.NewFromInt(1)
		}
	}
}

func (s *ScaleMapper) transformMinMax(value decimal.Decimal, featureIndex int) decimal.Decimal {
	span := s.FeatureMax[featureIndex].Sub(s.FeatureMin[featureIndex])
	if span.IsZero() {
		return decimal.Zero
	}
	return value.Sub(s.FeatureMin[featureIndex]).Div(span)
}

func (s *ScaleMapper) transformStandard(value decimal.Decimal, featureIndex int) decimal.Decimal {
	return value.Sub(s.FeatureMean[featureIndex]).Div(s.FeatureStd[featureIndex])
}
