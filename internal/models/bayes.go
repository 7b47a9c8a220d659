package models

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"mlcompose/internal/classifier"
	"mlcompose/internal/data"
)

// NaiveBayes is a Gaussian naive Bayes model evaluated in log space.
type NaiveBayes struct {
	classifier.BaseClassifier
	fitted
	ClassLogPriors map[int]float64
	FeatureMeans   map[int][]decimal.Decimal
	FeatureVars    map[int][]decimal.Decimal
	VarSmoothing   decimal.Decimal
}

func NewNaiveBayes(varSmoothing float64) *NaiveBayes {
	if varSmoothing <= 0 {
		varSmoothing = 1e-9
	}

	return &NaiveBayes{
		VarSmoothing: decimal.NewFromFloat(varSmoothing),
		BaseClassifier: classifier.NewBaseClassifier("NaiveBayes", map[string]any{
			"var_smoothing": varSmoothing,
		}),
	}
}

func (nb *NaiveBayes) Train(ds *data.Dataset) error {
	nb.ResetTraining()
	nb.ClassLogPriors, nb.FeatureMeans, nb.FeatureVars = nil, nil, nil

	X, y, f, err := prepare(nb.Name(), ds)
	if err != nil {
		return err
	}

	nFeatures := f.Dim
	priors := make(map[int]float64)
	means := make(map[int][]decimal.Decimal)
	vars := make(map[int][]decimal.Decimal)

	for _, class := range f.Classes {
		var classData []data.Sample
		for i, label := range y {
			if label == class {
				classData = append(classData, X[i])
			}
		}

		if len(classData) == 0 {
			return fmt.Errorf("%s: class %d has no samples", nb.Name(), class)
		}

		priors[class] = math.Log(float64(len(classData)) / float64(len(y)))
		means[class] = make([]decimal.Decimal, nFeatures)
		vars[class] = make([]decimal.Decimal, nFeatures)

		count := decimal.NewFromInt(int64(len(classData)))
		for j := 0; j < nFeatures; j++ {
			sum := decimal.Zero
			for _, row := range classData {
				sum = sum.Add(row[j])
			}
			mean := sum.Div(count)
			means[class][j] = mean

			variance := decimal.Zero
			for _, row := range classData {
				diff := row[j].Sub(mean)
				variance = variance.Add(diff.Mul(diff))
			}
			vars[class][j] = variance.Div(count).Add(nb.VarSmoothing)
		}
	}

	nb.fitted = f
	nb.ClassLogPriors = priors
	nb.FeatureMeans = means
	nb.FeatureVars = vars
	nb.MarkTrained(len(X))
	return nil
}

func (nb *NaiveBayes) logGaussianPDF(x, mean, variance decimal.Decimal) float64 {
	if variance.IsZero() {
		variance = nb.VarSmoothing
	}

	xFloat := x.InexactFloat64()
	meanFloat := mean.InexactFloat64()
	varFloat := variance.InexactFloat64()

	logTwoPiVar := math.Log(2 * math.Pi * varFloat)
	diff := xFloat - meanFloat
	exponent := -(diff * diff) / (2 * varFloat)

	return -0.5*logTwoPiVar + exponent
}

func (nb *NaiveBayes) jointLogLikelihood(sample data.Sample) []float64 {
	logProbs := make([]float64, len(nb.Classes))
	for k, class := range nb.Classes {
		logProb := nb.ClassLogPriors[class]
		for j, feature := range sample {
			logProb += nb.logGaussianPDF(feature, nb.FeatureMeans[class][j], nb.FeatureVars[class][j])
		}
		logProbs[k] = logProb
	}
	return logProbs
}

func (nb *NaiveBayes) Predict(X []data.Sample) ([]data.Label, error) {
	if err := nb.RequireTrained("predict"); err != nil {
		return nil, err
	}
	if err := nb.checkSamples(nb.Name(), X); err != nil {
		return nil, err
	}

	encoded := make([]int, len(X))
	for i, sample := range X {
		logProbs := nb.jointLogLikelihood(sample)

		// Strict comparison keeps the first class on ties.
		best := 0
		for k := 1; k < len(logProbs); k++ {
			if logProbs[k] > logProbs[best] {
				best = k
			}
		}
		encoded[i] = nb.Classes[best]
	}

	predictions, err := nb.decode(nb.Name(), encoded)
	if err != nil {
		return nil, err
	}

	nb.RecordPredictions(predictions)
	return predictions, nil
}

func (nb *NaiveBayes) PredictProba(X []data.Sample) ([][]decimal.Decimal, error) {
	if err := nb.RequireTrained("predict_proba"); err != nil {
		return nil, err
	}
	if err := nb.checkSamples(nb.Name(), X); err != nil {
		return nil, err
	}

	proba := make([][]decimal.Decimal, len(X))
	for i, sample := range X {
		logProbs := nb.jointLogLikelihood(sample)

		maxLogProb := logProbs[0]
		for _, lp := range logProbs[1:] {
			maxLogProb = math.Max(maxLogProb, lp)
		}

		sumExp := 0.0
		for _, lp := range logProbs {
			sumExp += math.Exp(lp - maxLogProb)
		}

		proba[i] = make([]decimal.Decimal, len(nb.Classes))
		for j, lp := range logProbs {
			proba[i][j] = decimal.NewFromFloat(math.Exp(lp-maxLogProb) / sumExp)
		}
	}

	return proba, nil
}

func (nb *NaiveBayes) Clone() (classifier.Classifier, error) {
	out := &NaiveBayes{
		BaseClassifier: nb.CloneBase(),
		fitted:         nb.fitted.clone(),
		VarSmoothing:   nb.VarSmoothing,
	}
	if nb.ClassLogPriors != nil {
		out.ClassLogPriors = make(map[int]float64, len(nb.ClassLogPriors))
		out.FeatureMeans = make(map[int][]decimal.Decimal, len(nb.FeatureMeans))
		out.FeatureVars = make(map[int][]decimal.Decimal, len(nb.FeatureVars))
		for class, p := range nb.ClassLogPriors {
			out.ClassLogPriors[class] = p
			out.FeatureMeans[class] = append([]decimal.Decimal(nil), nb.FeatureMeans[class]...)
			out.FeatureVars[class] = append([]decimal.Decimal(nil), nb.FeatureVars[class]...)
		}
	}
	return out, nil
}
