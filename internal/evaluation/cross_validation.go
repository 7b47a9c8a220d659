package evaluation

import (
	"fmt"
	"log/slog"
	"math"

	"golang.org/x/sync/errgroup"

	"mlcompose/internal/classifier"
	"mlcompose/internal/data"
)

// Factory returns a fresh, untrained classifier for one fold.
type Factory func() (classifier.Classifier, error)

// FromPrototype builds a Factory that deep-copies prototype for every fold.
func FromPrototype(prototype classifier.Classifier) Factory {
	return func() (classifier.Classifier, error) {
		return classifier.Clone(prototype)
	}
}

type CrossValidator struct {
	NFolds     int
	Stratified bool
	Shuffle    bool
	RandomSeed int64
	Parallel   bool
	MaxWorkers int
	Logger     *slog.Logger
}

func NewCrossValidator(nFolds int, stratified bool) *CrossValidator {
	return &CrossValidator{
		NFolds:     nFolds,
		Stratified: stratified,
		Shuffle:    true,
		RandomSeed: 42,
		Parallel:   true,
		MaxWorkers: 4,
		Logger:     slog.Default(),
	}
}

// CVResult holds one accuracy score per fold.
type CVResult struct {
	Scores []float64
	Mean   float64
	Std    float64
}

// CrossValidate trains a classifier from newClassifier on every fold and
// scores it on the held-out part. Every fold gets its own instance, so folds
// may run in parallel.
func (cv *CrossValidator) CrossValidate(ds *data.Dataset, newClassifier Factory) (*CVResult, error) {
	folds, err := NewKFoldSplitter(cv.NFolds, cv.Shuffle, cv.RandomSeed).
		Stratified(cv.Stratified).
		Split(ds)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(folds))
	logger := cv.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var g errgroup.Group
	if cv.Parallel && cv.MaxWorkers > 1 {
		g.SetLimit(cv.MaxWorkers)
	} else {
		g.SetLimit(1)
	}

	for i, fold := range folds {
		g.Go(func() error {
			score, err := cv.evaluateFold(fold, newClassifier)
			if err != nil {
				return fmt.Errorf("fold %d failed: %w", i, err)
			}
			logger.Debug("fold evaluated", "fold", i, "train", fold.Train.Len(), "test", fold.Test.Len(), "accuracy", score)
			scores[i] = score
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	mean, std := calculateStats(scores)
	return &CVResult{Scores: scores, Mean: mean, Std: std}, nil
}

func (cv *CrossValidator) evaluateFold(fold Fold, newClassifier Factory) (float64, error) {
	clf, err := newClassifier()
	if err != nil {
		return 0, err
	}

	if err := clf.Train(fold.Train); err != nil {
		return 0, err
	}

	predictions, err := clf.Predict(fold.Test.Samples)
	if err != nil {
		return 0, err
	}

	return Accuracy(fold.Test.Labels, predictions), nil
}

// calculateStats returns the mean and the sample standard deviation.
func calculateStats(scores []float64) (mean, std float64) {
	if len(scores) == 0 {
		return 0, 0
	}

	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	mean = sum / float64(len(scores))

	if len(scores) > 1 {
		variance := 0.0
		for _, s := range scores {
			diff := s - mean
			variance += diff * diff
		}
		variance /= float64(len(scores) - 1)
		std = math.Sqrt(variance)
	}

	return mean, std
}
