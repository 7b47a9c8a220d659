package models

import (
	"math"
	"sort"

	"github.com/shopspring/decimal"

	"mlcompose/internal/classifier"
	"mlcompose/internal/data"
)

type KNN struct {
	classifier.BaseClassifier
	fitted
	K        int
	Distance string
	XTrain   []data.Sample
	yTrain   []int
}

func NewKNN(k int, distance string) *KNN {
	if k <= 0 {
		k = 5
	}

	if distance != "euclidean" && distance != "manhattan" {
		distance = "euclidean"
	}

	return &KNN{
		K:        k,
		Distance: distance,
		BaseClassifier: classifier.NewBaseClassifier("KNN", map[string]any{
			"k":        k,
			"distance": distance,
		}),
	}
}

func (knn *KNN) Train(ds *data.Dataset) error {
	knn.ResetTraining()
	knn.XTrain, knn.yTrain = nil, nil

	X, y, f, err := prepare(knn.Name(), ds)
	if err != nil {
		return err
	}

	knn.XTrain = make([]data.Sample, len(X))
	for i := range X {
		knn.XTrain[i] = X[i].Clone()
	}

	knn.yTrain = make([]int, len(y))
	copy(knn.yTrain, y)

	knn.fitted = f
	knn.MarkTrained(len(X))
	return nil
}

func (knn *KNN) Predict(X []data.Sample) ([]data.Label, error) {
	if err := knn.RequireTrained("predict"); err != nil {
		return nil, err
	}
	if err := knn.checkSamples(knn.Name(), X); err != nil {
		return nil, err
	}

	encoded := make([]int, len(X))
	for i, sample := range X {
		neighbors := knn.findNeighbors(sample)
		encoded[i] = knn.majorityVote(neighbors)
	}

	predictions, err := knn.decode(knn.Name(), encoded)
	if err != nil {
		return nil, err
	}

	knn.RecordPredictions(predictions)
	return predictions, nil
}

// PredictProba returns per-class neighbour frequencies, classes in encoder
// order.
func (knn *KNN) PredictProba(X []data.Sample) ([][]decimal.Decimal, error) {
	if err := knn.RequireTrained("predict_proba"); err != nil {
		return nil, err
	}
	if err := knn.checkSamples(knn.Name(), X); err != nil {
		return nil, err
	}

	proba := make([][]decimal.Decimal, len(X))
	for i, sample := range X {
		neighbors := knn.findNeighbors(sample)
		proba[i] = knn.calculateProbabilities(neighbors)
	}

	return proba, nil
}

// findNeighbors returns the indices of the K nearest training samples,
// nearest first. Equal distances keep training order.
func (knn *KNN) findNeighbors(sample data.Sample) []int {
	type neighbor struct {
		index    int
		distance float64
	}

	neighbors := make([]neighbor, len(knn.XTrain))

	for i, trainSample := range knn.XTrain {
		dist := knn.calculateDistance(sample, trainSample)
		neighbors[i] = neighbor{index: i, distance: dist}
	}

	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].distance < neighbors[j].distance
	})

	k := knn.K
	if k > len(neighbors) {
		k = len(neighbors)
	}

	kNeighbors := make([]int, k)
	for i := 0; i < k; i++ {
		kNeighbors[i] = neighbors[i].index
	}

	return kNeighbors
}

func (knn *KNN) calculateDistance(a, b data.Sample) float64 {
	sum := 0.0
	switch knn.Distance {
	case "manhattan":
		for i := range a {
			sum += a[i].Sub(b[i]).Abs().InexactFloat64()
		}
		return sum
	default:
		for i := range a {
			diff := a[i].Sub(b[i]).InexactFloat64()
			sum += diff * diff
		}
		return math.Sqrt(sum)
	}
}

// majorityVote counts neighbour classes. Ties go to the class of the nearest
// neighbour among the tied classes.
func (knn *KNN) majorityVote(neighbors []int) int {
	votes := make(map[int]int)
	for _, neighborIdx := range neighbors {
		votes[knn.yTrain[neighborIdx]]++
	}

	maxVotes := 0
	bestClass := knn.Classes[0]
	for _, neighborIdx := range neighbors {
		class := knn.yTrain[neighborIdx]
		if votes[class] > maxVotes {
			maxVotes = votes[class]
			bestClass = class
		}
	}

	return bestClass
}

func (knn *KNN) calculateProbabilities(neighbors []int) []decimal.Decimal {
	votes := make(map[int]int)
	for _, neighborIdx := range neighbors {
		votes[knn.yTrain[neighborIdx]]++
	}

	proba := make([]decimal.Decimal, len(knn.Classes))
	totalVotes := decimal.NewFromInt(int64(len(neighbors)))

	for i, class := range knn.Classes {
		proba[i] = decimal.NewFromInt(int64(votes[class])).Div(totalVotes)
	}

	return proba
}

func (knn *KNN) Clone() (classifier.Classifier, error) {
	out := &KNN{
		BaseClassifier: knn.CloneBase(),
		fitted:         knn.fitted.clone(),
		K:              knn.K,
		Distance:       knn.Distance,
		XTrain:         make([]data.Sample, len(knn.XTrain)),
		yTrain:         append([]int(nil), knn.yTrain...),
	}
	for i, s := range knn.XTrain {
		out.XTrain[i] = s.Clone()
	}
	return out, nil
}
