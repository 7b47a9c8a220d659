package models

import (
	"fmt"

	"github.com/shopspring/decimal"

	"mlcompose/internal/classifier"
	"mlcompose/internal/data"
)

type TreeNode struct {
	IsLeaf           bool
	Class            int
	Feature          int
	Threshold        decimal.Decimal
	Left             *TreeNode
	Right            *TreeNode
	Samples          int
	Impurity         float64
	ImpurityDecrease float64
}

func (n *TreeNode) clone() *TreeNode {
	if n == nil {
		return nil
	}
	out := *n
	out.Left = n.Left.clone()
	out.Right = n.Right.clone()
	return &out
}

type DecisionTree struct {
	classifier.BaseClassifier
	fitted
	Root                *TreeNode
	MaxDepth            int
	MinSamplesSplit     int
	MinImpurityDecrease float64
	EnablePruning       bool
}

func NewDecisionTree(maxDepth, minSamplesSplit int) *DecisionTree {
	if maxDepth <= 0 {
		maxDepth = 10
	}

	if minSamplesSplit <= 0 {
		minSamplesSplit = 2
	}

	return &DecisionTree{
		MaxDepth:            maxDepth,
		MinSamplesSplit:     minSamplesSplit,
		MinImpurityDecrease: 0.01,
		EnablePruning:       true,
		BaseClassifier: classifier.NewBaseClassifier("DecisionTree", map[string]any{
			"max_depth":         maxDepth,
			"min_samples_split": minSamplesSplit,
		}),
	}
}

func (dt *DecisionTree) Train(ds *data.Dataset) error {
	dt.ResetTraining()
	dt.Root = nil

	X, y, f, err := prepare(dt.Name(), ds)
	if err != nil {
		return err
	}

	dt.fitted = f
	dt.Root = dt.buildTree(X, y, 0)
	dt.MarkTrained(len(X))
	return nil
}

func (dt *DecisionTree) Predict(X []data.Sample) ([]data.Label, error) {
	encoded, err := dt.predictEncoded("predict", X)
	if err != nil {
		return nil, err
	}

	predictions, err := dt.decode(dt.Name(), encoded)
	if err != nil {
		return nil, err
	}

	dt.RecordPredictions(predictions)
	return predictions, nil
}

func (dt *DecisionTree) PredictProba(X []data.Sample) ([][]decimal.Decimal, error) {
	encoded, err := dt.predictEncoded("predict_proba", X)
	if err != nil {
		return nil, err
	}

	proba := make([][]decimal.Decimal, len(X))
	for i, prediction := range encoded {
		proba[i] = make([]decimal.Decimal, len(dt.Classes))
		for j, class := range dt.Classes {
			if class == prediction {
				proba[i][j] = one
			} else {
				proba[i][j] = decimal.Zero
			}
		}
	}

	return proba, nil
}

func (dt *DecisionTree) predictEncoded(op string, X []data.Sample) ([]int, error) {
	if err := dt.RequireTrained(op); err != nil {
		return nil, err
	}
	if err := dt.checkSamples(dt.Name(), X); err != nil {
		return nil, err
	}

	encoded := make([]int, len(X))
	for i, sample := range X {
		encoded[i] = dt.predictSample(sample, dt.Root)
	}
	return encoded, nil
}

// Prune collapses subtrees that do not beat their own majority class on the
// validation set. Labels unseen during training count as misses.
func (dt *DecisionTree) Prune(val *data.Dataset) error {
	if !dt.EnablePruning || dt.Root == nil {
		return nil
	}
	if err := dt.RequireTrained("prune"); err != nil {
		return err
	}
	if err := val.Validate(); err != nil {
		return &classifier.ShapeMismatchError{Classifier: dt.Name(), What: "validation dataset", Err: err}
	}
	if err := dt.checkSamples(dt.Name(), val.Samples); err != nil {
		return err
	}

	yVal := make([]int, len(val.Labels))
	for i, l := range val.Labels {
		encoded, err := dt.encoder.Transform([]data.Label{l})
		if err != nil {
			yVal[i] = -1
			continue
		}
		yVal[i] = encoded[0]
	}

	dt.pruneNode(dt.Root, val.Samples, yVal)
	return nil
}

func (dt *DecisionTree) pruneNode(node *TreeNode, XVal []data.Sample, yVal []int) {
	if node.IsLeaf {
		return
	}

	accuracyWithSubtrees := dt.calculateAccuracy(node, XVal, yVal)

	node.IsLeaf = true
	accuracyAsLeaf := dt.calculateAccuracy(node, XVal, yVal)

	if accuracyAsLeaf >= accuracyWithSubtrees {
		node.Left = nil
		node.Right = nil
		return
	}

	node.IsLeaf = false
	dt.pruneNode(node.Left, XVal, yVal)
	dt.pruneNode(node.Right, XVal, yVal)
}

func (dt *DecisionTree) buildTree(X []data.Sample, y []int, depth int) *TreeNode {
	node := &TreeNode{
		Samples:  len(y),
		Impurity: calculateGini(y),
		Class:    mostCommon(y),
	}

	if depth >= dt.MaxDepth ||
		len(y) < dt.MinSamplesSplit ||
		isPure(y) ||
		node.Impurity < dt.MinImpurityDecrease {
		node.IsLeaf = true
		return node
	}

	bestFeature, bestThreshold, bestImpurityDecrease := dt.findBestSplit(X, y)

	if bestImpurityDecrease < dt.MinImpurityDecrease {
		node.IsLeaf = true
		return node
	}

	leftIndices, rightIndices := splitData(X, bestFeature, bestThreshold)
	if len(leftIndices) == 0 || len(rightIndices) == 0 {
		node.IsLeaf = true
		return node
	}

	node.Feature = bestFeature
	node.Threshold = bestThreshold
	node.ImpurityDecrease = bestImpurityDecrease

	XLeft, yLeft := selectData(X, y, leftIndices)
	XRight, yRight := selectData(X, y, rightIndices)

	node.Left = dt.buildTree(XLeft, yLeft, depth+1)
	node.Right = dt.buildTree(XRight, yRight, depth+1)

	return node
}

// findBestSplit scans features in order and thresholds in ascending order;
// the first split with the largest decrease wins.
func (dt *DecisionTree) findBestSplit(X []data.Sample, y []int) (int, decimal.Decimal, float64) {
	bestFeature := 0
	bestThreshold := decimal.Zero
	bestImpurityDecrease := 0.0

	parentImpurity := calculateGini(y)
	n := float64(len(y))

	for feature := range X[0] {
		for _, threshold := range uniqueValues(X, feature) {
			leftIndices, rightIndices := splitData(X, feature, threshold)
			if len(leftIndices) == 0 || len(rightIndices) == 0 {
				continue
			}

			_, yLeft := selectData(nil, y, leftIndices)
			_, yRight := selectData(nil, y, rightIndices)

			weightedImpurity := (float64(len(leftIndices))/n)*calculateGini(yLeft) +
				(float64(len(rightIndices))/n)*calculateGini(yRight)

			impurityDecrease := parentImpurity - weightedImpurity
			if impurityDecrease > bestImpurityDecrease {
				bestImpurityDecrease = impurityDecrease
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestImpurityDecrease
}

func (dt *DecisionTree) predictSample(sample data.Sample, node *TreeNode) int {
	if node.IsLeaf {
		return node.Class
	}

	if sample[node.Feature].LessThan(node.Threshold) {
		return dt.predictSample(sample, node.Left)
	}
	return dt.predictSample(sample, node.Right)
}

func (dt *DecisionTree) calculateAccuracy(node *TreeNode, XVal []data.Sample, yVal []int) float64 {
	if len(XVal) == 0 {
		return 0.0
	}

	correct := 0
	for i, sample := range XVal {
		if dt.predictSample(sample, node) == yVal[i] {
			correct++
		}
	}

	return float64(correct) / float64(len(XVal))
}

// Depth returns the depth of the fitted tree; a single leaf has depth 0.
func (dt *DecisionTree) Depth() int {
	var depth func(n *TreeNode) int
	depth = func(n *TreeNode) int {
		if n == nil || n.IsLeaf {
			return 0
		}
		return 1 + max(depth(n.Left), depth(n.Right))
	}
	return depth(dt.Root)
}

func (dt *DecisionTree) Clone() (classifier.Classifier, error) {
	return &DecisionTree{
		BaseClassifier:      dt.CloneBase(),
		fitted:              dt.fitted.clone(),
		Root:                dt.Root.clone(),
		MaxDepth:            dt.MaxDepth,
		MinSamplesSplit:     dt.MinSamplesSplit,
		MinImpurityDecrease: dt.MinImpurityDecrease,
		EnablePruning:       dt.EnablePruning,
	}, nil
}

func (dt *DecisionTree) String() string {
	return fmt.Sprintf("%s(max_depth=%d, min_samples_split=%d)", dt.Name(), dt.MaxDepth, dt.MinSamplesSplit)
}

func calculateGini(y []int) float64 {
	if len(y) == 0 {
		return 0.0
	}

	classCounts := make(map[int]int)
	for _, class := range y {
		classCounts[class]++
	}

	impurity := 1.0
	n := float64(len(y))
	for _, count := range classCounts {
		p := float64(count) / n
		impurity -= p * p
	}

	return impurity
}

func isPure(y []int) bool {
	for _, class := range y {
		if class != y[0] {
			return false
		}
	}
	return true
}

// uniqueValues returns the distinct values of a feature in ascending order.
func uniqueValues(X []data.Sample, feature int) []decimal.Decimal {
	seen := make(map[string]bool)
	var values []decimal.Decimal

	for _, sample := range X {
		key := sample[feature].String()
		if !seen[key] {
			seen[key] = true
			values = append(values, sample[feature])
		}
	}

	sortDecimals(values)
	return values
}

func sortDecimals(values []decimal.Decimal) {
	for i := 1; i < len(values); i++ {
		for j := i; j > 0 && values[j].LessThan(values[j-1]); j-- {
			values[j], values[j-1] = values[j-1], values[j]
		}
	}
}

func splitData(X []data.Sample, feature int, threshold decimal.Decimal) ([]int, []int) {
	var leftIndices, rightIndices []int

	for i, sample := range X {
		if sample[feature].LessThan(threshold) {
			leftIndices = append(leftIndices, i)
		} else {
			rightIndices = append(rightIndices, i)
		}
	}

	return leftIndices, rightIndices
}

// selectData picks rows by index; X may be nil when only labels are needed.
func selectData(X []data.Sample, y []int, indices []int) ([]data.Sample, []int) {
	var selectedX []data.Sample
	if X != nil {
		selectedX = make([]data.Sample, len(indices))
	}
	selectedY := make([]int, len(indices))

	for i, idx := range indices {
		if X != nil {
			selectedX[i] = X[idx]
		}
		selectedY[i] = y[idx]
	}

	return selectedX, selectedY
}
