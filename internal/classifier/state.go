package classifier

import (
	"sort"

	"mlcompose/internal/data"
)

// Well-known state keys.
const (
	// StatePredictions holds the []data.Label returned by the last Predict.
	StatePredictions = "predictions"
	// StateRawPredictions holds the per-child [][]data.Label an ensemble
	// combined on its last Predict.
	StateRawPredictions = "raw_predictions"
	// StateTrainedSamples holds the number of samples seen by the last Train.
	StateTrainedSamples = "trained_samples"
)

// StateStore is a per-classifier record of the most recent diagnostic
// outputs. It is the only side channel a classifier exposes. Like the
// classifier that owns it, it is not safe for concurrent use.
type StateStore struct {
	values map[string]any
}

func NewStateStore() *StateStore {
	return &StateStore{values: make(map[string]any)}
}

func (s *StateStore) Set(key string, value any) {
	if s.values == nil {
		s.values = make(map[string]any)
	}
	s.values[key] = value
}

func (s *StateStore) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *StateStore) Has(key string) bool {
	_, ok := s.values[key]
	return ok
}

func (s *StateStore) Delete(key string) {
	delete(s.values, key)
}

// Keys returns the stored keys in sorted order.
func (s *StateStore) Keys() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *StateStore) Reset() {
	s.values = make(map[string]any)
}

// Predictions returns the last recorded predictions.
func (s *StateStore) Predictions() ([]data.Label, bool) {
	v, ok := s.values[StatePredictions]
	if !ok {
		return nil, false
	}
	p, ok := v.([]data.Label)
	return p, ok
}

// Clone copies the key set. Values are shared; classifiers replace state
// values rather than mutating them.
func (s *StateStore) Clone() *StateStore {
	out := NewStateStore()
	for k, v := range s.values {
		out.values[k] = v
	}
	return out
}
