package models

import (
	"fmt"
	"log/slog"

	"mlcompose/internal/classifier"
	"mlcompose/internal/data"
	"mlcompose/internal/mapper"
)

// ModelConfig describes one node of a composition tree. Leaf algorithms use
// the hyperparameter fields; composites use Children (boosted) or Classifier
// (binary, mapped, multiclass).
type ModelConfig struct {
	Algorithm    string        `yaml:"algorithm" validate:"required,oneof=same_sign less1 knn tree forest bayes boosted binary mapped multiclass"`
	K            int           `yaml:"k,omitempty" validate:"gte=0"`
	Distance     string        `yaml:"distance,omitempty" validate:"omitempty,oneof=euclidean manhattan"`
	MaxDepth     int           `yaml:"max_depth,omitempty" validate:"gte=0"`
	MinSplit     int           `yaml:"min_split,omitempty" validate:"gte=0"`
	NTrees       int           `yaml:"n_trees,omitempty" validate:"gte=0"`
	VarSmoothing float64       `yaml:"var_smoothing,omitempty" validate:"gte=0"`
	Seed         int64         `yaml:"seed,omitempty"`
	Workers      int           `yaml:"workers,omitempty" validate:"gte=0"`
	Combiner     string        `yaml:"combiner,omitempty" validate:"omitempty,oneof=majority mean unanimous member weighted"`
	Weights      []float64     `yaml:"weights,omitempty" validate:"omitempty,dive,gte=0"`
	Children     []ModelConfig `yaml:"children,omitempty" validate:"omitempty,dive"`
	Classifier   *ModelConfig  `yaml:"classifier,omitempty"`
	Mask         []int         `yaml:"mask,omitempty" validate:"omitempty,dive,oneof=0 1"`
	Scale        string        `yaml:"scale,omitempty" validate:"omitempty,oneof=minmax standard"`
	PosLabels    []any         `yaml:"pos_labels,omitempty"`
	NegLabels    []any         `yaml:"neg_labels,omitempty"`
	// Labels fixes the classes of a multiclass node; when empty they are
	// taken from the training data.
	Labels       []any         `yaml:"labels,omitempty"`
}

// CreateModel builds the classifier tree described by config, filling unset
// hyperparameters with defaults.
func CreateModel(config ModelConfig) (classifier.Classifier, error) {
	return createModel(config, slog.Default())
}

// CreateModelWithLogger is CreateModel with an explicit logger, passed on to
// ensembles and forests.
func CreateModelWithLogger(config ModelConfig, logger *slog.Logger) (classifier.Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	return createModel(config, logger)
}

func createModel(config ModelConfig, logger *slog.Logger) (classifier.Classifier, error) {
	switch config.Algorithm {
	case "same_sign":
		return NewSameSign(), nil

	case "less1":
		return NewLess1(), nil

	case "knn":
		if config.K <= 0 {
			config.K = 5
		}
		if config.Distance == "" {
			config.Distance = "euclidean"
		}
		return NewKNN(config.K, config.Distance), nil

	case "tree":
		if config.MaxDepth <= 0 {
			config.MaxDepth = 10
		}
		if config.MinSplit <= 0 {
			config.MinSplit = 2
		}
		return NewDecisionTree(config.MaxDepth, config.MinSplit), nil

	case "forest":
		if config.NTrees <= 0 {
			config.NTrees = 100
		}
		if config.MaxDepth <= 0 {
			config.MaxDepth = 10
		}
		if config.MinSplit <= 0 {
			config.MinSplit = 2
		}
		if config.Workers <= 0 {
			config.Workers = 4
		}
		return NewRandomForest(config.NTrees, config.MaxDepth, config.MinSplit).
			WithSeed(config.Seed).
			WithWorkers(config.Workers).
			WithLogger(logger), nil

	case "bayes":
		if config.VarSmoothing <= 0 {
			config.VarSmoothing = 1e-9
		}
		return NewNaiveBayes(config.VarSmoothing), nil

	case "boosted":
		return createBoosted(config, logger)

	case "binary":
		inner, err := createInner(config, logger)
		if err != nil {
			return nil, err
		}
		binary, err := classifier.NewBinaryClassifierDecorator(inner, toLabels(config.PosLabels), toLabels(config.NegLabels))
		if err != nil {
			return nil, err
		}
		return binary, nil

	case "mapped":
		return createMapped(config, logger)

	case "multiclass":
		base, err := createInner(config, logger)
		if err != nil {
			return nil, err
		}
		multi, err := classifier.NewBoostedMulticlassClassifier(base, toLabels(config.Labels),
			classifier.WithParallel(config.Workers), classifier.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		logger.Debug("multiclass ensemble created", "base", base.Name(), "labels", len(config.Labels))
		return multi, nil

	default:
		return nil, &classifier.ConfigurationError{
			Classifier: "factory",
			Reason:     fmt.Sprintf("unknown algorithm: %s", config.Algorithm),
		}
	}
}

func createBoosted(config ModelConfig, logger *slog.Logger) (classifier.Classifier, error) {
	children := make([]classifier.Classifier, len(config.Children))
	for i, childConfig := range config.Children {
		child, err := createModel(childConfig, logger)
		if err != nil {
			return nil, fmt.Errorf("boosted child %d: %w", i, err)
		}
		children[i] = child
	}

	var combiner classifier.Combiner
	var err error
	if config.Combiner == "weighted" || (config.Combiner == "" && len(config.Weights) > 0) {
		combiner, err = classifier.NewWeightedVote(config.Weights...)
	} else {
		combiner, err = classifier.CombinerByName(config.Combiner)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("building ensemble", "children", len(children), "combiner", combiner.Name(), "workers", config.Workers)

	boosted, err := classifier.NewBoostedClassifier(children,
		classifier.WithCombiner(combiner),
		classifier.WithParallel(config.Workers),
		classifier.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}
	return boosted, nil
}

// createMapped wraps the inner classifier in a scaler when Scale is set and
// then in a mask when Mask is set, so the mask applies first.
func createMapped(config ModelConfig, logger *slog.Logger) (classifier.Classifier, error) {
	if len(config.Mask) == 0 && config.Scale == "" {
		return nil, &classifier.ConfigurationError{Classifier: "mapped", Reason: "mask or scale is required"}
	}

	clf, err := createInner(config, logger)
	if err != nil {
		return nil, err
	}

	if config.Scale != "" {
		scaler, err := mapper.NewScaleMapper(config.Scale)
		if err != nil {
			return nil, &classifier.ConfigurationError{Classifier: "mapped", Reason: err.Error()}
		}
		scaled, err := classifier.NewMappedClassifier(clf, scaler)
		if err != nil {
			return nil, err
		}
		clf = scaled
	}

	if len(config.Mask) > 0 {
		mask, err := mapper.NewMaskMapperFromInts(config.Mask)
		if err != nil {
			return nil, &classifier.ConfigurationError{Classifier: "mapped", Reason: err.Error()}
		}
		masked, err := classifier.NewMappedClassifier(clf, mask)
		if err != nil {
			return nil, err
		}
		clf = masked
	}

	return clf, nil
}

func createInner(config ModelConfig, logger *slog.Logger) (classifier.Classifier, error) {
	if config.Classifier == nil {
		return nil, &classifier.ConfigurationError{
			Classifier: config.Algorithm,
			Reason:     "wrapped classifier is required",
		}
	}
	inner, err := createModel(*config.Classifier, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", config.Algorithm, err)
	}
	return inner, nil
}

func toLabels(values []any) []data.Label {
	labels := make([]data.Label, len(values))
	copy(labels, values)
	return labels
}

func DefaultConfig(algorithm string) ModelConfig {
	config := ModelConfig{Algorithm: algorithm}

	switch algorithm {
	case "knn":
		config.K = 5
		config.Distance = "euclidean"
	case "tree":
		config.MaxDepth = 10
		config.MinSplit = 2
	case "forest":
		config.NTrees = 100
		config.MaxDepth = 10
		config.MinSplit = 2
		config.Workers = 4
	case "bayes":
		config.VarSmoothing = 1e-9
	}

	return config
}
