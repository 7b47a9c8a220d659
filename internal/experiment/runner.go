// Package experiment runs a configured composition against a labelled CSV
// dataset and reports hold-out and cross-validated scores.
package experiment

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"mlcompose/internal/classifier"
	"mlcompose/internal/config"
	"mlcompose/internal/data"
	"mlcompose/internal/evaluation"
	"mlcompose/internal/models"
)

type ExperimentRunner struct {
	Config *config.Config
	Logger *slog.Logger
}

func NewRunner(cfg *config.Config, logger *slog.Logger) *ExperimentRunner {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExperimentRunner{Config: cfg, Logger: logger}
}

type ExperimentResult struct {
	RunID          string
	Dataset        string
	Algorithm      string
	Parameters     string
	TrainTestSplit string
	Accuracy       float64
	Precision      float64
	Recall         float64
	F1Score        float64
	CVMean         float64
	CVStd          float64
	TrainingTimeMs int64
	Metrics        *evaluation.ClassificationMetrics
}

// LoadDataset reads a labelled CSV file as configured.
func (r *ExperimentRunner) LoadDataset(dataFile string) (*data.Dataset, error) {
	reader, err := data.NewCSVReader(dataFile)
	if err != nil {
		return nil, err
	}
	reader.NumericLabels = r.Config.Experiment.NumericLabels

	ds, _, err := reader.LoadData()
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dataFile, err)
	}
	return ds, nil
}

// RunAllExperiments evaluates the configured model on dataFile once per
// configured train/test split.
func (r *ExperimentRunner) RunAllExperiments(dataFile string) ([]ExperimentResult, error) {
	ds, err := r.LoadDataset(dataFile)
	if err != nil {
		return nil, err
	}

	return r.Run(ds, filepath.Base(dataFile))
}

func (r *ExperimentRunner) Run(ds *data.Dataset, name string) ([]ExperimentResult, error) {
	if err := data.NewDataValidator().ValidateDataset(ds); err != nil {
		return nil, err
	}

	runID := uuid.NewString()[:8]
	logger := r.Logger.With("run", runID)
	logger.Info("running experiments",
		"dataset", name, "samples", ds.Len(), "features", ds.Dim(),
		"algorithm", r.Config.Model.Algorithm, "splits", len(r.Config.Experiment.TrainTestSplits))

	stats := data.NewDataValidator().GetDatasetStats(ds)
	logger.Debug("dataset summary", "classes", stats["classes"], "distribution", stats["class_distribution"])

	var results []ExperimentResult
	for _, split := range r.Config.Experiment.TrainTestSplits {
		result, err := r.evaluateModel(ds, split, logger)
		if err != nil {
			return nil, fmt.Errorf("split %.2f: %w", split, err)
		}
		result.RunID = runID
		result.Dataset = name
		results = append(results, result)
	}

	return results, nil
}

// NewClassifier builds a fresh instance of the configured composition.
func (r *ExperimentRunner) NewClassifier() (classifier.Classifier, error) {
	return models.CreateModelWithLogger(r.Config.Model, r.Logger)
}

func (r *ExperimentRunner) evaluateModel(ds *data.Dataset, split float64, logger *slog.Logger) (ExperimentResult, error) {
	exp := r.Config.Experiment
	result := ExperimentResult{
		TrainTestSplit: fmt.Sprintf("%.0f-%.0f", split*100, (1-split)*100),
	}

	splitter := evaluation.NewTrainTestSplitter(1-split, exp.Seed, true)
	splitFn := splitter.Split
	if exp.Stratified {
		splitFn = splitter.StratifiedSplit
	}
	train, test, err := splitFn(ds)
	if err != nil {
		return result, err
	}
	if test.Len() == 0 {
		return result, fmt.Errorf("split %.2f leaves no test samples", split)
	}
	if err := data.NewDataValidator().ValidateTrainTestSplit(train, test); err != nil {
		return result, err
	}

	clf, err := r.NewClassifier()
	if err != nil {
		return result, err
	}
	result.Algorithm = clf.Name()
	result.Parameters = describeParams(clf)

	startTime := time.Now()
	if err := clf.Train(train); err != nil {
		return result, fmt.Errorf("train: %w", err)
	}
	result.TrainingTimeMs = time.Since(startTime).Milliseconds()

	predictions, err := PredictBatched(clf, test.Samples, exp.BatchSize)
	if err != nil {
		return result, fmt.Errorf("predict: %w", err)
	}

	metrics, err := evaluation.CalculateMetrics(test.Labels, predictions, nil)
	if err != nil {
		return result, err
	}
	result.Metrics = metrics
	result.Accuracy = metrics.Accuracy
	result.Precision = metrics.MacroPrecision
	result.Recall = metrics.MacroRecall
	result.F1Score = metrics.MacroF1

	logger.Info("split evaluated",
		"split", result.TrainTestSplit, "train", train.Len(), "test", test.Len(),
		"accuracy", result.Accuracy, "training_ms", result.TrainingTimeMs)

	if exp.CrossValidation.Folds > 0 {
		cv := evaluation.NewCrossValidator(exp.CrossValidation.Folds, exp.CrossValidation.Stratified)
		cv.RandomSeed = exp.Seed
		cv.MaxWorkers = exp.CrossValidation.Workers
		cv.Parallel = exp.CrossValidation.Workers > 1
		cv.Logger = logger

		cvResult, err := cv.CrossValidate(ds, r.NewClassifier)
		if err != nil {
			return result, fmt.Errorf("cross-validation: %w", err)
		}
		result.CVMean = cvResult.Mean
		result.CVStd = cvResult.Std

		logger.Info("cross-validation finished",
			"folds", exp.CrossValidation.Folds, "mean", cvResult.Mean, "std", cvResult.Std)
	}

	return result, nil
}

// PredictBatched predicts samples in batches of batchSize and concatenates
// the results in input order.
func PredictBatched(clf classifier.Classifier, samples []data.Sample, batchSize int) ([]data.Label, error) {
	predictions := make([]data.Label, 0, len(samples))

	err := data.NewBatchProcessor(batchSize).ProcessBatches(samples, func(offset int, batch []data.Sample) error {
		preds, err := clf.Predict(batch)
		if err != nil {
			return err
		}
		if len(preds) != len(batch) {
			return &classifier.ShapeMismatchError{
				Classifier: clf.Name(),
				What:       fmt.Sprintf("batch at offset %d", offset),
				Expected:   len(batch),
				Got:        len(preds),
			}
		}
		predictions = append(predictions, preds...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return predictions, nil
}

func describeParams(clf classifier.Classifier) string {
	p, ok := clf.(interface{ GetParams() map[string]any })
	if !ok {
		return ""
	}
	return fmt.Sprintf("%v", p.GetParams())
}

func (r *ExperimentRunner) ExportResults(results []ExperimentResult, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	writer.Write([]string{
		"RunID", "Dataset", "Algorithm", "Parameters", "TrainTestSplit",
		"Accuracy", "Precision", "Recall", "F1Score",
		"CVMean", "CVStd", "TrainingTimeMs",
	})

	for _, result := range results {
		writer.Write([]string{
			result.RunID,
			result.Dataset,
			result.Algorithm,
			result.Parameters,
			result.TrainTestSplit,
			fmt.Sprintf("%.4f", result.Accuracy),
			fmt.Sprintf("%.4f", result.Precision),
			fmt.Sprintf("%.4f", result.Recall),
			fmt.Sprintf("%.4f", result.F1Score),
			fmt.Sprintf("%.4f", result.CVMean),
			fmt.Sprintf("%.4f", result.CVStd),
			fmt.Sprintf("%d", result.TrainingTimeMs),
		})
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}

	r.Logger.Info("results exported", "file", filename, "rows", len(results))
	return nil
}

// Summary renders results as aligned text lines.
func Summary(results []ExperimentResult) string {
	var sb strings.Builder
	for _, res := range results {
		fmt.Fprintf(&sb, "%-20s %-8s acc=%.4f f1=%.4f", res.Algorithm, res.TrainTestSplit, res.Accuracy, res.F1Score)
		if res.CVMean > 0 || res.CVStd > 0 {
			fmt.Fprintf(&sb, " cv=%.4f±%.4f", res.CVMean, res.CVStd)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
