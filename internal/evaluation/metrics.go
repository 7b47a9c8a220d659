// Package evaluation scores classifiers: metrics over opaque labels,
// train/test splitting and k-fold cross-validation.
package evaluation

import (
	"fmt"
	"math"
	"strings"

	"mlcompose/internal/data"
)

type ClassificationMetrics struct {
	Accuracy          float64                 `json:"accuracy"`
	BalancedAccuracy  float64                 `json:"balanced_accuracy"`
	WeightedAccuracy  float64                 `json:"weighted_accuracy"`
	Precision         float64                 `json:"precision"`
	Recall            float64                 `json:"recall"`
	F1Score           float64                 `json:"f1_score"`
	MacroPrecision    float64                 `json:"macro_precision"`
	MacroRecall       float64                 `json:"macro_recall"`
	MacroF1           float64                 `json:"macro_f1"`
	MicroPrecision    float64                 `json:"micro_precision"`
	MicroRecall       float64                 `json:"micro_recall"`
	MicroF1           float64                 `json:"micro_f1"`
	WeightedPrecision float64                 `json:"weighted_precision"`
	WeightedRecall    float64                 `json:"weighted_recall"`
	WeightedF1        float64                 `json:"weighted_f1"`
	Classes           []data.Label            `json:"classes"`
	PerClassMetrics   map[string]ClassMetrics `json:"per_class_metrics"`
	ConfusionMatrix   [][]int                 `json:"confusion_matrix"`
	ClassSupport      map[string]int          `json:"class_support"`
	NumSamples        int                     `json:"num_samples"`
	NumClasses        int                     `json:"num_classes"`
}

type ClassMetrics struct {
	Precision   float64 `json:"precision"`
	Recall      float64 `json:"recall"`
	F1Score     float64 `json:"f1_score"`
	Specificity float64 `json:"specificity"`
	Support     int     `json:"support"`
}

// ClassName is the key used for a label in PerClassMetrics and
// ClassSupport.
func ClassName(l data.Label) string {
	return fmt.Sprint(l)
}

// CalculateMetrics compares predictions with the true labels. When classes
// is nil the classes are taken from yTrue followed by any unseen predicted
// labels, in order of first appearance. Rows of the confusion matrix are
// true classes, columns predicted classes.
func CalculateMetrics(yTrue, yPred []data.Label, classes []data.Label) (*ClassificationMetrics, error) {
	if len(yTrue) != len(yPred) {
		return nil, fmt.Errorf("%w: %d labels, %d predictions", data.ErrShapeMismatch, len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return nil, data.ErrEmptyDataset
	}

	if classes == nil {
		all := append(append([]data.Label(nil), yTrue...), yPred...)
		classes = data.UniqueLabels(all)
	}

	numSamples := len(yTrue)
	numClasses := len(classes)

	confusionMatrix := BuildConfusionMatrix(yTrue, yPred, classes)

	classSupport := make(map[string]int)
	for i, class := range classes {
		for _, count := range confusionMatrix[i] {
			classSupport[ClassName(class)] += count
		}
	}

	perClassMetrics := make(map[string]ClassMetrics)
	var macroPrec, macroRec, macroF1 float64
	var weightedPrec, weightedRec, weightedF1 float64
	totalSupport := 0

	for i, class := range classes {
		tp := confusionMatrix[i][i]
		fp, fn, tn := 0, 0, 0

		for j := range classes {
			if j != i {
				fp += confusionMatrix[j][i]
				fn += confusionMatrix[i][j]
			}
		}

		for j := range classes {
			for k := range classes {
				if j != i && k != i {
					tn += confusionMatrix[j][k]
				}
			}
		}

		precision := safeDivide(float64(tp), float64(tp+fp))
		recall := safeDivide(float64(tp), float64(tp+fn))
		f1 := safeDivide(2*precision*recall, precision+recall)
		specificity := safeDivide(float64(tn), float64(tn+fp))

		support := classSupport[ClassName(class)]
		perClassMetrics[ClassName(class)] = ClassMetrics{
			Precision:   precision,
			Recall:      recall,
			F1Score:     f1,
			Specificity: specificity,
			Support:     support,
		}

		macroPrec += precision
		macroRec += recall
		macroF1 += f1

		weightedPrec += precision * float64(support)
		weightedRec += recall * float64(support)
		weightedF1 += f1 * float64(support)
		totalSupport += support
	}

	macroPrec = safeDivide(macroPrec, float64(numClasses))
	macroRec = safeDivide(macroRec, float64(numClasses))
	macroF1 = safeDivide(macroF1, float64(numClasses))

	weightedPrec = safeDivide(weightedPrec, float64(totalSupport))
	weightedRec = safeDivide(weightedRec, float64(totalSupport))
	weightedF1 = safeDivide(weightedF1, float64(totalSupport))

	accuracy := Accuracy(yTrue, yPred)

	// Balanced accuracy only averages classes that occur in yTrue.
	balancedAccuracy, present := 0.0, 0
	for _, class := range classes {
		m := perClassMetrics[ClassName(class)]
		if m.Support > 0 {
			balancedAccuracy += m.Recall
			present++
		}
	}
	balancedAccuracy = safeDivide(balancedAccuracy, float64(present))

	return &ClassificationMetrics{
		Accuracy:          accuracy,
		BalancedAccuracy:  balancedAccuracy,
		WeightedAccuracy:  weightedRec,
		Precision:         macroPrec,
		Recall:            macroRec,
		F1Score:           macroF1,
		MacroPrecision:    macroPrec,
		MacroRecall:       macroRec,
		MacroF1:           macroF1,
		MicroPrecision:    accuracy,
		MicroRecall:       accuracy,
		MicroF1:           accuracy,
		WeightedPrecision: weightedPrec,
		WeightedRecall:    weightedRec,
		WeightedF1:        weightedF1,
		Classes:           classes,
		PerClassMetrics:   perClassMetrics,
		ConfusionMatrix:   confusionMatrix,
		ClassSupport:      classSupport,
		NumSamples:        numSamples,
		NumClasses:        numClasses,
	}, nil
}

// Accuracy is the fraction of predictions equal to the true label.
func Accuracy(yTrue, yPred []data.Label) float64 {
	if len(yTrue) == 0 || len(yTrue) != len(yPred) {
		return 0
	}
	correct := 0
	for i, pred := range yPred {
		if data.LabelsEqual(pred, yTrue[i]) {
			correct++
		}
	}
	return float64(correct) / float64(len(yTrue))
}

// BuildConfusionMatrix counts (true, predicted) pairs. Pairs involving a
// label outside classes are skipped.
func BuildConfusionMatrix(yTrue, yPred []data.Label, classes []data.Label) [][]int {
	numClasses := len(classes)
	matrix := make([][]int, numClasses)
	for i := range matrix {
		matrix[i] = make([]int, numClasses)
	}

	classToIdx := make(map[string]int)
	for i, class := range classes {
		classToIdx[data.LabelKey(class)] = i
	}

	for i := range yTrue {
		trueIdx, trueOk := classToIdx[data.LabelKey(yTrue[i])]
		predIdx, predOk := classToIdx[data.LabelKey(yPred[i])]
		if trueOk && predOk {
			matrix[trueIdx][predIdx]++
		}
	}

	return matrix
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0.0
	}
	result := numerator / denominator
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0.0
	}
	return result
}

func (m *ClassificationMetrics) FormatMetrics() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Accuracy: %.4f\n", m.Accuracy)
	fmt.Fprintf(&sb, "Balanced Accuracy: %.4f\n", m.BalancedAccuracy)
	fmt.Fprintf(&sb, "Macro Avg - Precision: %.4f, Recall: %.4f, F1: %.4f\n",
		m.MacroPrecision, m.MacroRecall, m.MacroF1)
	fmt.Fprintf(&sb, "Weighted Avg - Precision: %.4f, Recall: %.4f, F1: %.4f\n",
		m.WeightedPrecision, m.WeightedRecall, m.WeightedF1)
	return sb.String()
}

// FormatConfusionMatrix renders the matrix with class names as headers.
func (m *ClassificationMetrics) FormatConfusionMatrix() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%12s", "true\\pred")
	for _, class := range m.Classes {
		fmt.Fprintf(&sb, " %10s", ClassName(class))
	}
	sb.WriteString("\n")

	for i, class := range m.Classes {
		fmt.Fprintf(&sb, "%12s", ClassName(class))
		for _, count := range m.ConfusionMatrix[i] {
			fmt.Fprintf(&sb, " %10d", count)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
