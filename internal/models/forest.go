package models

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"mlcompose/internal/classifier"
	"mlcompose/internal/data"
	"mlcompose/internal/mapper"
)

// RandomForest is a BoostedClassifier of decision trees, each wrapped in a
// MappedClassifier that exposes a random feature subset to the tree. Every
// tree is trained on its own bootstrap sample. Tree i draws from a source
// seeded with Seed+i, so a forest is reproducible for a fixed Seed.
type RandomForest struct {
	classifier.BaseClassifier
	NTrees          int
	MaxDepth        int
	MinSamplesSplit int
	MaxFeatures     int
	Seed            int64
	MaxWorkers      int
	ensemble        *classifier.BoostedClassifier
	logger          *slog.Logger
}

func NewRandomForest(nTrees, maxDepth, minSamplesSplit int) *RandomForest {
	if nTrees <= 0 {
		nTrees = 100
	}

	return &RandomForest{
		NTrees:          nTrees,
		MaxDepth:        maxDepth,
		MinSamplesSplit: minSamplesSplit,
		MaxWorkers:      4,
		logger:          slog.Default(),
		BaseClassifier: classifier.NewBaseClassifier("RandomForest", map[string]any{
			"n_trees":           nTrees,
			"max_depth":         maxDepth,
			"min_samples_split": minSamplesSplit,
		}),
	}
}

func (rf *RandomForest) WithSeed(seed int64) *RandomForest {
	rf.Seed = seed
	rf.Params["seed"] = seed
	return rf
}

// WithWorkers bounds how many trees train or predict concurrently. Values
// below 2 keep the forest sequential.
func (rf *RandomForest) WithWorkers(workers int) *RandomForest {
	rf.MaxWorkers = workers
	rf.Params["workers"] = workers
	return rf
}

func (rf *RandomForest) WithLogger(logger *slog.Logger) *RandomForest {
	if logger != nil {
		rf.logger = logger
	}
	return rf
}

func (rf *RandomForest) Train(ds *data.Dataset) error {
	rf.ResetTraining()
	rf.ensemble = nil

	if ds.Len() == 0 {
		return fmt.Errorf("%s: %w", rf.Name(), data.ErrEmptyDataset)
	}
	if err := ds.Validate(); err != nil {
		return &classifier.ShapeMismatchError{Classifier: rf.Name(), What: "training dataset", Err: err}
	}

	nFeatures := ds.Dim()
	rf.MaxFeatures = int(math.Sqrt(float64(nFeatures)))
	if rf.MaxFeatures < 1 {
		rf.MaxFeatures = 1
	}

	trees := make([]classifier.Classifier, rf.NTrees)

	var g errgroup.Group
	if rf.MaxWorkers > 1 {
		g.SetLimit(rf.MaxWorkers)
	} else {
		g.SetLimit(1)
	}

	rf.logger.Debug("training random forest",
		"trees", rf.NTrees, "features", nFeatures, "max_features", rf.MaxFeatures, "workers", rf.MaxWorkers)

	for i := 0; i < rf.NTrees; i++ {
		g.Go(func() error {
			tree, err := rf.trainSingleTree(ds, rf.Seed+int64(i))
			if err != nil {
				return fmt.Errorf("%s: tree %d training failed: %w", rf.Name(), i, err)
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	ensemble, err := classifier.NewBoostedClassifier(trees,
		classifier.WithParallel(rf.MaxWorkers),
		classifier.WithLogger(rf.logger),
	)
	if err != nil {
		return err
	}

	rf.ensemble = ensemble
	rf.MarkTrained(ds.Len())
	return nil
}

func (rf *RandomForest) trainSingleTree(ds *data.Dataset, seed int64) (classifier.Classifier, error) {
	r := rand.New(rand.NewSource(seed))

	n := ds.Len()
	boot := make([]int, n)
	for i := range boot {
		boot[i] = r.Intn(n)
	}

	mask, err := mapper.NewMaskMapper(rf.selectRandomFeatures(ds.Dim(), r))
	if err != nil {
		return nil, err
	}

	tree, err := classifier.NewMappedClassifier(NewDecisionTree(rf.MaxDepth, rf.MinSamplesSplit), mask)
	if err != nil {
		return nil, err
	}

	if err := tree.Train(ds.Subset(boot)); err != nil {
		return nil, err
	}
	return tree, nil
}

// selectRandomFeatures draws MaxFeatures distinct dimensions with a partial
// Fisher-Yates shuffle and returns them as a mask.
func (rf *RandomForest) selectRandomFeatures(nFeatures int, r *rand.Rand) []bool {
	features := make([]int, nFeatures)
	for i := range features {
		features[i] = i
	}

	k := min(rf.MaxFeatures, nFeatures)
	for i := 0; i < k; i++ {
		j := i + r.Intn(nFeatures-i)
		features[i], features[j] = features[j], features[i]
	}

	mask := make([]bool, nFeatures)
	for _, feat := range features[:k] {
		mask[feat] = true
	}
	return mask
}

func (rf *RandomForest) Predict(X []data.Sample) ([]data.Label, error) {
	if err := rf.RequireTrained("predict"); err != nil {
		return nil, err
	}

	predictions, err := rf.ensemble.Predict(X)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", rf.Name(), err)
	}

	rf.RecordPredictions(predictions)
	return predictions, nil
}

// Children returns the fitted trees, or nil before Train.
func (rf *RandomForest) Children() []classifier.Classifier {
	if rf.ensemble == nil {
		return nil
	}
	return rf.ensemble.Children()
}

func (rf *RandomForest) Clone() (classifier.Classifier, error) {
	out := &RandomForest{
		BaseClassifier:  rf.CloneBase(),
		NTrees:          rf.NTrees,
		MaxDepth:        rf.MaxDepth,
		MinSamplesSplit: rf.MinSamplesSplit,
		MaxFeatures:     rf.MaxFeatures,
		Seed:            rf.Seed,
		MaxWorkers:      rf.MaxWorkers,
		logger:          rf.logger,
	}
	if rf.ensemble != nil {
		ens, err := rf.ensemble.Clone()
		if err != nil {
			return nil, err
		}
		out.ensemble = ens.(*classifier.BoostedClassifier)
	}
	return out, nil
}

func (rf *RandomForest) String() string {
	return fmt.Sprintf("%s(n_trees=%d, seed=%d)", rf.Name(), rf.NTrees, rf.Seed)
}
