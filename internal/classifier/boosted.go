package classifier

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"golang.org/x/sync/errgroup"

	"mlcompose/internal/data"
)

// BoostedClassifier runs every child on the same input and combines their
// predictions sample by sample. Children are combined in declared order, also
// when they are evaluated in parallel.
type BoostedClassifier struct {
	BaseClassifier
	children []Classifier
	combiner Combiner
	workers  int
	logger   *slog.Logger
	// shared is set when one instance occurs more than once in the child
	// trees; such ensembles are always evaluated sequentially.
	shared bool
}

type BoostedOption func(*BoostedClassifier)

// WithCombiner replaces the default MajorityVote.
func WithCombiner(c Combiner) BoostedOption {
	return func(b *BoostedClassifier) {
		if c != nil {
			b.combiner = c
		}
	}
}

// WithParallel evaluates up to workers children concurrently. Values below 2
// keep evaluation sequential, as does an ensemble that holds the same
// instance more than once.
func WithParallel(workers int) BoostedOption {
	return func(b *BoostedClassifier) { b.workers = workers }
}

func WithLogger(logger *slog.Logger) BoostedOption {
	return func(b *BoostedClassifier) {
		if logger != nil {
			b.logger = logger
		}
	}
}

func NewBoostedClassifier(children []Classifier, opts ...BoostedOption) (*BoostedClassifier, error) {
	if len(children) == 0 {
		return nil, &ConfigurationError{Classifier: "BoostedClassifier", Reason: "at least one child classifier is required"}
	}

	b := &BoostedClassifier{
		BaseClassifier: NewBaseClassifier("BoostedClassifier", map[string]any{}),
		children:       make([]Classifier, len(children)),
		combiner:       MajorityVote{},
		logger:         slog.Default(),
	}
	for i, child := range children {
		if child == nil {
			return nil, &ConfigurationError{Classifier: "BoostedClassifier", Reason: fmt.Sprintf("child %d is nil", i)}
		}
		b.children[i] = child
	}

	for _, opt := range opts {
		opt(b)
	}

	if w, ok := b.combiner.(*WeightedVote); ok && len(w.weights) != len(children) {
		return nil, &ConfigurationError{
			Classifier: "BoostedClassifier",
			Reason:     fmt.Sprintf("%d weights for %d children", len(w.weights), len(children)),
		}
	}

	b.shared = sharesInstances(b.children)
	if b.shared && b.workers > 1 {
		b.logger.Debug("ensemble repeats a child instance, evaluating sequentially",
			"children", len(children), "workers", b.workers)
	}

	b.Params["children"] = len(children)
	b.Params["combiner"] = b.combiner.Name()
	b.Params["workers"] = b.workers
	return b, nil
}

// Train trains every child on ds. A child failure aborts training and leaves
// the ensemble untrained.
func (b *BoostedClassifier) Train(ds *data.Dataset) error {
	b.ResetTraining()

	for i, child := range b.children {
		if err := child.Train(ds); err != nil {
			return fmt.Errorf("%s: training child %d (%s): %w", b.Name(), i, child.Name(), err)
		}
	}

	b.MarkTrained(ds.Len())
	return nil
}

// Predict combines the children's predictions for samples. The ensemble has
// no parameters of its own, so it may be used with pre-trained children
// without calling Train.
func (b *BoostedClassifier) Predict(samples []data.Sample) ([]data.Label, error) {
	raw, err := b.collect(samples)
	if err != nil {
		return nil, err
	}

	predictions := make([]data.Label, len(samples))
	votes := make([]data.Label, len(b.children))
	for i := range samples {
		for j := range b.children {
			votes[j] = raw[j][i]
		}

		label, err := b.combiner.Combine(votes)
		if err != nil {
			return nil, &MappingError{
				Classifier: b.Name(),
				Index:      i,
				Value:      append([]data.Label(nil), votes...),
				Reason:     fmt.Sprintf("%s combiner rejected votes", b.combiner.Name()),
				Err:        err,
			}
		}
		predictions[i] = label
	}

	b.States().Set(StateRawPredictions, raw)
	b.RecordPredictions(predictions)
	return predictions, nil
}

func (b *BoostedClassifier) collect(samples []data.Sample) ([][]data.Label, error) {
	raw := make([][]data.Label, len(b.children))

	predictChild := func(j int) error {
		child := b.children[j]
		preds, err := child.Predict(samples)
		if err != nil {
			return fmt.Errorf("%s: child %d (%s): %w", b.Name(), j, child.Name(), err)
		}
		if len(preds) != len(samples) {
			return &ShapeMismatchError{
				Classifier: b.Name(),
				What:       fmt.Sprintf("predictions of child %d (%s)", j, child.Name()),
				Expected:   len(samples),
				Got:        len(preds),
			}
		}
		raw[j] = preds
		return nil
	}

	if b.workers < 2 || len(b.children) < 2 || b.shared {
		for j := range b.children {
			if err := predictChild(j); err != nil {
				return nil, err
			}
		}
		return raw, nil
	}

	b.logger.Debug("evaluating ensemble children in parallel",
		"children", len(b.children), "workers", b.workers, "samples", len(samples))

	var g errgroup.Group
	g.SetLimit(b.workers)
	for j := range b.children {
		g.Go(func() error { return predictChild(j) })
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return raw, nil
}

func (b *BoostedClassifier) Children() []Classifier {
	out := make([]Classifier, len(b.children))
	copy(out, b.children)
	return out
}

func (b *BoostedClassifier) Combiner() Combiner {
	return b.combiner
}

// Clone deep-copies the ensemble and all of its children.
func (b *BoostedClassifier) Clone() (Classifier, error) {
	children := make([]Classifier, len(b.children))
	for i, child := range b.children {
		c, err := Clone(child)
		if err != nil {
			return nil, err
		}
		children[i] = c
	}

	return &BoostedClassifier{
		BaseClassifier: b.CloneBase(),
		children:       children,
		combiner:       b.combiner,
		workers:        b.workers,
		logger:         b.logger,
		shared:         sharesInstances(children),
	}, nil
}

// sharesInstances reports whether any pointer classifier appears more than
// once among classifiers and their descendants.
func sharesInstances(classifiers []Classifier) bool {
	seen := make(map[uintptr]bool)
	var walk func(c Classifier) bool
	walk = func(c Classifier) bool {
		if v := reflect.ValueOf(c); v.Kind() == reflect.Pointer {
			if seen[v.Pointer()] {
				return true
			}
			seen[v.Pointer()] = true
		}
		if comp, ok := c.(Composite); ok {
			for _, child := range comp.Children() {
				if child != nil && walk(child) {
					return true
				}
			}
		}
		return false
	}

	for _, c := range classifiers {
		if walk(c) {
			return true
		}
	}
	return false
}

func (b *BoostedClassifier) String() string {
	names := make([]string, len(b.children))
	for i, c := range b.children {
		names[i] = c.Name()
	}
	return fmt.Sprintf("%s(combiner=%s, children=[%s])", b.Name(), b.combiner.Name(), strings.Join(names, ", "))
}
