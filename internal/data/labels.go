package data

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Label is an opaque, comparable class value. Numbers, strings, bools and
// decimals are the common cases; a LabelGroup is itself a Label so that a
// regrouping decorator can be wrapped again.
type Label = any

// LabelGroup is a set of original labels treated as one class. Order is
// preserved for display but ignored for equality.
type LabelGroup []Label

// NewLabelGroup copies labels into a group, dropping repeats and keeping the
// first occurrence of each.
func NewLabelGroup(labels ...Label) LabelGroup {
	seen := make(map[string]bool, len(labels))
	group := make(LabelGroup, 0, len(labels))
	for _, l := range labels {
		key := LabelKey(l)
		if seen[key] {
			continue
		}
		seen[key] = true
		group = append(group, l)
	}
	return group
}

func (g LabelGroup) Contains(l Label) bool {
	key := LabelKey(l)
	for _, member := range g {
		if LabelKey(member) == key {
			return true
		}
	}
	return false
}

// Intersects reports whether the two groups share a label.
func (g LabelGroup) Intersects(other LabelGroup) bool {
	for _, l := range other {
		if g.Contains(l) {
			return true
		}
	}
	return false
}

// Clone returns an independent copy so callers cannot alias a decorator's
// configured group.
func (g LabelGroup) Clone() LabelGroup {
	out := make(LabelGroup, len(g))
	copy(out, g)
	return out
}

func (g LabelGroup) String() string {
	parts := make([]string, len(g))
	for i, l := range g {
		parts[i] = fmt.Sprint(l)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// LabelKey returns a canonical key for a label. Numerically equal values of
// different Go types share a key, and groups compare as sets.
func LabelKey(l Label) string {
	switch v := l.(type) {
	case nil:
		return "nil"
	case string:
		return "s:" + v
	case bool:
		if v {
			return "b:true"
		}
		return "b:false"
	case LabelGroup:
		return groupKey(v)
	case []Label:
		return groupKey(v)
	case []string:
		group := make([]Label, len(v))
		for i, s := range v {
			group[i] = s
		}
		return groupKey(group)
	}
	if d, ok := AsDecimal(l); ok {
		return "n:" + d.String()
	}
	return fmt.Sprintf("%T:%v", l, l)
}

func groupKey(group []Label) string {
	keys := make([]string, 0, len(group))
	seen := make(map[string]bool, len(group))
	for _, l := range group {
		k := LabelKey(l)
		if seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "{" + strings.Join(keys, ",") + "}"
}

// LabelsEqual compares two labels by key.
func LabelsEqual(a, b Label) bool {
	return LabelKey(a) == LabelKey(b)
}

// AsDecimal converts a numeric label. NaN and infinities are rejected.
func AsDecimal(l Label) (decimal.Decimal, bool) {
	switch v := l.(type) {
	case decimal.Decimal:
		return v, true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int8:
		return decimal.NewFromInt(int64(v)), true
	case int16:
		return decimal.NewFromInt(int64(v)), true
	case int32:
		return decimal.NewFromInt32(v), true
	case int64:
		return decimal.NewFromInt(v), true
	case uint:
		return decimal.NewFromUint64(uint64(v)), true
	case uint8:
		return decimal.NewFromInt(int64(v)), true
	case uint16:
		return decimal.NewFromInt(int64(v)), true
	case uint32:
		return decimal.NewFromInt(int64(v)), true
	case uint64:
		return decimal.NewFromUint64(v), true
	case float32:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat32(v), true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(v), true
	}
	return decimal.Zero, false
}

// UniqueLabels returns the distinct labels in order of first appearance.
func UniqueLabels(labels []Label) []Label {
	seen := make(map[string]bool)
	out := make([]Label, 0)
	for _, l := range labels {
		key := LabelKey(l)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, l)
	}
	return out
}
