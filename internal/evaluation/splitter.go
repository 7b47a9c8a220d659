package evaluation

import (
	"fmt"
	"math/rand"

	"mlcompose/internal/data"
)

type TrainTestSplitter struct {
	testSize   float64
	randomSeed int64
	shuffle    bool
}

func NewTrainTestSplitter(testSize float64, randomSeed int64, shuffle bool) *TrainTestSplitter {
	return &TrainTestSplitter{
		testSize:   testSize,
		randomSeed: randomSeed,
		shuffle:    shuffle,
	}
}

func (tts *TrainTestSplitter) validate(ds *data.Dataset) error {
	if ds.Len() == 0 {
		return fmt.Errorf("cannot split: %w", data.ErrEmptyDataset)
	}
	if err := ds.Validate(); err != nil {
		return err
	}
	if tts.testSize <= 0 || tts.testSize >= 1 {
		return fmt.Errorf("test size must be between 0 and 1, got %v", tts.testSize)
	}
	return nil
}

// Split holds out the last testSize fraction of ds, after an optional seeded
// shuffle.
func (tts *TrainTestSplitter) Split(ds *data.Dataset) (train, test *data.Dataset, err error) {
	if err := tts.validate(ds); err != nil {
		return nil, nil, err
	}

	n := ds.Len()
	indices := seq(n)
	if tts.shuffle {
		rng := rand.New(rand.NewSource(tts.randomSeed))
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	testCount := int(float64(n) * tts.testSize)
	trainCount := n - testCount

	return ds.Subset(indices[:trainCount]), ds.Subset(indices[trainCount:]), nil
}

// StratifiedSplit holds out testSize of every class, at least one sample per
// class. Classes are visited in order of first appearance.
func (tts *TrainTestSplitter) StratifiedSplit(ds *data.Dataset) (train, test *data.Dataset, err error) {
	if err := tts.validate(ds); err != nil {
		return nil, nil, err
	}

	var trainIndices, testIndices []int

	rng := rand.New(rand.NewSource(tts.randomSeed))
	for _, indices := range classIndices(ds.Labels) {
		if tts.shuffle {
			rng.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}

		testCount := int(float64(len(indices)) * tts.testSize)
		if testCount == 0 {
			testCount = 1
		}
		trainCount := len(indices) - testCount

		trainIndices = append(trainIndices, indices[:trainCount]...)
		testIndices = append(testIndices, indices[trainCount:]...)
	}

	if tts.shuffle {
		rng.Shuffle(len(trainIndices), func(i, j int) {
			trainIndices[i], trainIndices[j] = trainIndices[j], trainIndices[i]
		})
		rng.Shuffle(len(testIndices), func(i, j int) {
			testIndices[i], testIndices[j] = testIndices[j], testIndices[i]
		})
	}

	return ds.Subset(trainIndices), ds.Subset(testIndices), nil
}

// Fold is one train/test partition produced by KFoldSplitter.
type Fold struct {
	Train *data.Dataset
	Test  *data.Dataset
}

type KFoldSplitter struct {
	nFolds     int
	shuffle    bool
	randomSeed int64
	stratified bool
}

func NewKFoldSplitter(nFolds int, shuffle bool, randomSeed int64) *KFoldSplitter {
	return &KFoldSplitter{
		nFolds:     nFolds,
		shuffle:    shuffle,
		randomSeed: randomSeed,
	}
}

// Stratified deals each class round-robin over the folds so every fold keeps
// roughly the class proportions of the dataset.
func (kfs *KFoldSplitter) Stratified(on bool) *KFoldSplitter {
	kfs.stratified = on
	return kfs
}

func (kfs *KFoldSplitter) Split(ds *data.Dataset) ([]Fold, error) {
	testFolds, err := kfs.TestIndices(ds)
	if err != nil {
		return nil, err
	}

	folds := make([]Fold, len(testFolds))
	for i, testIndices := range testFolds {
		folds[i] = Fold{
			Train: ds.Subset(complement(ds.Len(), testIndices)),
			Test:  ds.Subset(testIndices),
		}
	}
	return folds, nil
}

// TestIndices returns the held-out indices of every fold. The folds
// partition the dataset.
func (kfs *KFoldSplitter) TestIndices(ds *data.Dataset) ([][]int, error) {
	n := ds.Len()
	if n == 0 {
		return nil, fmt.Errorf("cannot split: %w", data.ErrEmptyDataset)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	if kfs.nFolds <= 1 || kfs.nFolds > n {
		return nil, fmt.Errorf("number of folds must be between 2 and %d, got %d", n, kfs.nFolds)
	}

	rng := rand.New(rand.NewSource(kfs.randomSeed))
	folds := make([][]int, kfs.nFolds)

	if kfs.stratified {
		next := 0
		for _, indices := range classIndices(ds.Labels) {
			if kfs.shuffle {
				rng.Shuffle(len(indices), func(i, j int) {
					indices[i], indices[j] = indices[j], indices[i]
				})
			}
			for _, idx := range indices {
				folds[next] = append(folds[next], idx)
				next = (next + 1) % kfs.nFolds
			}
		}
		return folds, nil
	}

	indices := seq(n)
	if kfs.shuffle {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	foldSize := n / kfs.nFolds
	for fold := 0; fold < kfs.nFolds; fold++ {
		testStart := fold * foldSize
		testEnd := testStart + foldSize
		if fold == kfs.nFolds-1 {
			testEnd = n
		}
		folds[fold] = append([]int(nil), indices[testStart:testEnd]...)
	}
	return folds, nil
}

func seq(n int) []int {
	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	return indices
}

// classIndices groups sample indices by label, classes in order of first
// appearance.
func classIndices(labels []data.Label) [][]int {
	pos := make(map[string]int)
	var groups [][]int
	for i, l := range labels {
		key := data.LabelKey(l)
		g, ok := pos[key]
		if !ok {
			g = len(groups)
			pos[key] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}
	return groups
}

func complement(n int, exclude []int) []int {
	skip := make(map[int]bool, len(exclude))
	for _, idx := range exclude {
		skip[idx] = true
	}
	out := make([]int, 0, n-len(exclude))
	for i := 0; i < n; i++ {
		if !skip[i] {
			out = append(out, i)
		}
	}
	return out
}
