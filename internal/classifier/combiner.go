package classifier

import (
	"fmt"

	"github.com/shopspring/decimal"

	"mlcompose/internal/data"
)

// Combiner reduces the per-child votes for one sample to a single label.
// Votes arrive in the ensemble's declared child order. When every vote is
// the same label, a Combiner must return that label unchanged.
type Combiner interface {
	Name() string
	Combine(votes []data.Label) (data.Label, error)
}

// CombinerByName resolves the built-in combiners used by configuration
// files.
func CombinerByName(name string) (Combiner, error) {
	switch name {
	case "", "majority":
		return MajorityVote{}, nil
	case "mean":
		return MeanVote{}, nil
	case "unanimous":
		return UnanimousVote{}, nil
	case "member":
		return MemberVote{}, nil
	default:
		return nil, &ConfigurationError{Classifier: "combiner", Reason: fmt.Sprintf("unknown combiner %q", name)}
	}
}

func unanimous(votes []data.Label) bool {
	if len(votes) == 0 {
		return false
	}
	first := data.LabelKey(votes[0])
	for _, v := range votes[1:] {
		if data.LabelKey(v) != first {
			return false
		}
	}
	return true
}

// MajorityVote returns the most frequent label. Ties go to the label whose
// first vote came from the earliest child.
type MajorityVote struct{}

func (MajorityVote) Name() string { return "majority" }

func (MajorityVote) Combine(votes []data.Label) (data.Label, error) {
	weights := make([]decimal.Decimal, len(votes))
	for i := range weights {
		weights[i] = decimal.NewFromInt(1)
	}
	return weightedMajority(votes, weights)
}

// WeightedVote is MajorityVote with one non-negative weight per child.
type WeightedVote struct {
	weights []decimal.Decimal
}

func NewWeightedVote(weights ...float64) (*WeightedVote, error) {
	if len(weights) == 0 {
		return nil, &ConfigurationError{Classifier: "weighted", Reason: "no weights given"}
	}
	w := &WeightedVote{weights: make([]decimal.Decimal, len(weights))}
	for i, v := range weights {
		if v < 0 {
			return nil, &ConfigurationError{Classifier: "weighted", Reason: fmt.Sprintf("weight %d is negative", i)}
		}
		w.weights[i] = decimal.NewFromFloat(v)
	}
	return w, nil
}

func (w *WeightedVote) Name() string { return "weighted" }

func (w *WeightedVote) Combine(votes []data.Label) (data.Label, error) {
	if len(votes) != len(w.weights) {
		return nil, fmt.Errorf("%w: %d votes for %d weights", ErrShapeMismatch, len(votes), len(w.weights))
	}
	return weightedMajority(votes, w.weights)
}

func weightedMajority(votes []data.Label, weights []decimal.Decimal) (data.Label, error) {
	if len(votes) == 0 {
		return nil, fmt.Errorf("%w: no votes", ErrShapeMismatch)
	}
	if unanimous(votes) {
		return votes[0], nil
	}

	type tally struct {
		label data.Label
		score decimal.Decimal
	}

	var order []string
	tallies := make(map[string]*tally)
	for i, v := range votes {
		key := data.LabelKey(v)
		t, ok := tallies[key]
		if !ok {
			t = &tally{label: v}
			tallies[key] = t
			order = append(order, key)
		}
		t.score = t.score.Add(weights[i])
	}

	best := tallies[order[0]]
	for _, key := range order[1:] {
		if tallies[key].score.GreaterThan(best.score) {
			best = tallies[key]
		}
	}
	return best.label, nil
}

// MemberVote counts one vote for every member of a label group vote and one
// for a scalar vote, and returns the single label with the most votes. Ties
// go to the label counted first. Identical votes are returned unchanged.
type MemberVote struct{}

func (MemberVote) Name() string { return "member" }

func (MemberVote) Combine(votes []data.Label) (data.Label, error) {
	if len(votes) == 0 {
		return nil, fmt.Errorf("%w: no votes", ErrShapeMismatch)
	}
	if unanimous(votes) {
		return votes[0], nil
	}

	var members []data.Label
	for _, v := range votes {
		if g, ok := v.(data.LabelGroup); ok {
			members = append(members, g...)
			continue
		}
		members = append(members, v)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: every vote is an empty group", ErrMapping)
	}

	weights := make([]decimal.Decimal, len(members))
	for i := range weights {
		weights[i] = decimal.NewFromInt(1)
	}
	return weightedMajority(members, weights)
}

// MeanVote averages numeric votes. The result is a decimal.Decimal unless
// all votes agree, in which case the shared vote is returned as is.
type MeanVote struct{}

func (MeanVote) Name() string { return "mean" }

func (MeanVote) Combine(votes []data.Label) (data.Label, error) {
	if len(votes) == 0 {
		return nil, fmt.Errorf("%w: no votes", ErrShapeMismatch)
	}
	if unanimous(votes) {
		return votes[0], nil
	}

	values := make([]decimal.Decimal, len(votes))
	for i, v := range votes {
		d, ok := data.AsDecimal(v)
		if !ok {
			return nil, fmt.Errorf("%w: vote %d (%v) is not numeric", ErrMapping, i, v)
		}
		values[i] = d
	}
	return decimal.Avg(values[0], values[1:]...), nil
}

// UnanimousVote accepts a sample only when every child agrees.
type UnanimousVote struct{}

func (UnanimousVote) Name() string { return "unanimous" }

func (UnanimousVote) Combine(votes []data.Label) (data.Label, error) {
	if len(votes) == 0 {
		return nil, fmt.Errorf("%w: no votes", ErrShapeMismatch)
	}
	if !unanimous(votes) {
		return nil, fmt.Errorf("%w: %v", ErrNoConsensus, votes)
	}
	return votes[0], nil
}
