package data

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type DataValidator struct {
	MinClasses int
}

func NewDataValidator() *DataValidator {
	return &DataValidator{MinClasses: 2}
}

// ValidateDataset applies the stricter checks needed before fitting a learned
// model: non-empty, non-zero dimensionality and enough distinct classes.
func (dv *DataValidator) ValidateDataset(ds *Dataset) error {
	if ds.Len() == 0 {
		return ErrEmptyDataset
	}

	if err := ds.Validate(); err != nil {
		return err
	}

	if ds.Dim() == 0 {
		return fmt.Errorf("features cannot be empty")
	}

	return dv.ValidateLabels(ds.Labels)
}

func (dv *DataValidator) ValidateLabels(y []Label) error {
	if len(y) == 0 {
		return fmt.Errorf("labels are empty")
	}

	classes := UniqueLabels(y)
	if len(classes) < dv.MinClasses {
		return fmt.Errorf("dataset must have at least %d classes, found %d", dv.MinClasses, len(classes))
	}

	return nil
}

func (dv *DataValidator) ValidateTrainTestSplit(train, test *Dataset) error {
	if err := dv.ValidateDataset(train); err != nil {
		return fmt.Errorf("training set validation failed: %w", err)
	}

	if err := test.Validate(); err != nil {
		return fmt.Errorf("test set validation failed: %w", err)
	}

	if test.Len() > 0 && train.Dim() != test.Dim() {
		return fmt.Errorf("%w: train and test sets have different feature counts: %d vs %d",
			ErrShapeMismatch, train.Dim(), test.Dim())
	}

	return nil
}

// GetDatasetStats summarises a dataset for display.
func (dv *DataValidator) GetDatasetStats(ds *Dataset) map[string]any {
	if ds.Len() == 0 {
		return map[string]any{}
	}

	stats := make(map[string]any)
	stats["samples"] = ds.Len()
	stats["features"] = ds.Dim()

	classCount := make(map[string]int)
	for _, label := range ds.Labels {
		classCount[fmt.Sprint(label)]++
	}
	stats["classes"] = len(classCount)
	stats["class_distribution"] = classCount

	nFeatures := ds.Dim()
	featureStats := make([]map[string]decimal.Decimal, nFeatures)

	for j := 0; j < nFeatures; j++ {
		values := make([]decimal.Decimal, ds.Len())
		for i, sample := range ds.Samples {
			values[i] = sample[j]
		}

		featureStats[j] = map[string]decimal.Decimal{
			"min":  decimal.Min(values[0], values[1:]...),
			"max":  decimal.Max(values[0], values[1:]...),
			"mean": decimal.Avg(values[0], values[1:]...),
		}
	}
	stats["feature_stats"] = featureStats

	return stats
}
