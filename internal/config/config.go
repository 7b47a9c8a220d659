// Package config loads composition files: a YAML document describing the
// classifier tree and how to evaluate it.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"mlcompose/internal/models"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// validate is shared; validator.Validate caches struct metadata and is safe
// for concurrent use.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

type Config struct {
	Model      models.ModelConfig `yaml:"model"`
	Experiment ExperimentConfig   `yaml:"experiment"`
}

type ExperimentConfig struct {
	// TrainTestSplits lists training fractions, e.g. 0.8 for an 80-20 split.
	TrainTestSplits []float64       `yaml:"train_test_splits" validate:"omitempty,dive,gt=0,lt=1"`
	Stratified      bool            `yaml:"stratified"`
	NumericLabels   bool            `yaml:"numeric_labels"`
	Seed            int64           `yaml:"seed"`
	BatchSize       int             `yaml:"batch_size" validate:"gte=0"`
	CrossValidation CrossValidation `yaml:"cross_validation"`
	Output          string          `yaml:"output"`
}

type CrossValidation struct {
	// Folds of 0 disables cross-validation.
	Folds      int  `yaml:"folds" validate:"omitempty,gte=2"`
	Stratified bool `yaml:"stratified"`
	Workers    int  `yaml:"workers" validate:"gte=0"`
}

// Default returns the experiment settings used when a file leaves them
// unset. The model has no default and must be given.
func Default() *Config {
	return &Config{
		Experiment: ExperimentConfig{
			TrainTestSplits: []float64{0.8},
			Seed:            42,
			BatchSize:       1000,
			CrossValidation: CrossValidation{Workers: 4},
		},
	}
}

// Load reads, defaults, overrides from the environment and validates the
// file at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if len(cfg.Experiment.TrainTestSplits) == 0 {
		cfg.Experiment.TrainTestSplits = []float64{0.8}
	}

	loadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromEnv applies MLCOMPOSE_* overrides. Unparseable values are ignored.
func loadFromEnv(cfg *Config) {
	if v := os.Getenv("MLCOMPOSE_SEED"); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Experiment.Seed = i
		}
	}
	if v := os.Getenv("MLCOMPOSE_BATCH_SIZE"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Experiment.BatchSize = i
		}
	}
	if v := os.Getenv("MLCOMPOSE_CV_FOLDS"); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			cfg.Experiment.CrossValidation.Folds = i
		}
	}
	if v := os.Getenv("MLCOMPOSE_OUTPUT"); v != "" {
		cfg.Experiment.Output = v
	}
}

// Validate checks field constraints and then the shape of the classifier
// tree.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := ValidateModel(c.Model); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// ValidateModel checks that every composite node has the parts it wraps.
func ValidateModel(m models.ModelConfig) error {
	return validateModel(m, "model")
}

func validateModel(m models.ModelConfig, path string) error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	switch m.Algorithm {
	case "boosted":
		if len(m.Children) == 0 {
			return fmt.Errorf("%s: boosted needs at least one child", path)
		}
		if len(m.Weights) > 0 && len(m.Weights) != len(m.Children) {
			return fmt.Errorf("%s: %d weights for %d children", path, len(m.Weights), len(m.Children))
		}
		for i, child := range m.Children {
			if err := validateModel(child, fmt.Sprintf("%s.children[%d]", path, i)); err != nil {
				return err
			}
		}
	case "binary", "mapped", "multiclass":
		if m.Classifier == nil {
			return fmt.Errorf("%s: %s needs a classifier", path, m.Algorithm)
		}
		if m.Algorithm == "binary" && (len(m.PosLabels) == 0 || len(m.NegLabels) == 0) {
			return fmt.Errorf("%s: binary needs pos_labels and neg_labels", path)
		}
		if m.Algorithm == "mapped" && len(m.Mask) == 0 && m.Scale == "" {
			return fmt.Errorf("%s: mapped needs a mask or a scale", path)
		}
		return validateModel(*m.Classifier, path+".classifier")
	}
	return nil
}
