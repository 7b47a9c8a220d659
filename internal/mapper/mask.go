package mapper

import (
	"fmt"

	"github.com/shopspring/decimal"

	"mlcompose/internal/data"
)

// MaskMapper keeps the dimensions selected by a boolean mask, in their
// original order. It is immutable after construction and safe to share
// between classifiers and goroutines.
type MaskMapper struct {
	mask []bool
	kept []int
}

// NewMaskMapper builds a mapper from a boolean mask.
func NewMaskMapper(mask []bool) (*MaskMapper, error) {
	if len(mask) == 0 {
		return nil, fmt.Errorf("%w: mask is empty", ErrEmptyMask)
	}

	m := &MaskMapper{mask: make([]bool, len(mask))}
	copy(m.mask, mask)
	for i, keep := range mask {
		if keep {
			m.kept = append(m.kept, i)
		}
	}

	if len(m.kept) == 0 {
		return nil, fmt.Errorf("%w: all %d entries are off", ErrEmptyMask, len(mask))
	}

	return m, nil
}

// NewMaskMapperFromInts builds a mapper from a 0/1 mask. Any non-zero entry
// selects its dimension.
func NewMaskMapperFromInts(mask []int) (*MaskMapper, error) {
	b := make([]bool, len(mask))
	for i, v := range mask {
		b[i] = v != 0
	}
	return NewMaskMapper(b)
}

func (m *MaskMapper) Forward(sample data.Sample) (data.Sample, error) {
	if len(sample) != len(m.mask) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimension, len(m.mask), len(sample))
	}

	out := make(data.Sample, len(m.kept))
	for j, idx := range m.kept {
		out[j] = sample[idx]
	}
	return out, nil
}

// Reverse re-inflates a reduced sample, filling dropped dimensions with zero.
func (m *MaskMapper) Reverse(sample data.Sample) (data.Sample, error) {
	if len(sample) != len(m.kept) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimension, len(m.kept), len(sample))
	}

	out := make(data.Sample, len(m.mask))
	for i := range out {
		out[i] = decimal.Zero
	}
	for j, idx := range m.kept {
		out[idx] = sample[j]
	}
	return out, nil
}

func (m *MaskMapper) InDim() int  { return len(m.mask) }
func (m *MaskMapper) OutDim() int { return len(m.kept) }

// Kept returns the retained input dimensions in ascending order.
func (m *MaskMapper) Kept() []int {
	out := make([]int, len(m.kept))
	copy(out, m.kept)
	return out
}

func (m *MaskMapper) Mask() []bool {
	out := make([]bool, len(m.mask))
	copy(out, m.mask)
	return out
}

func (m *MaskMapper) String() string {
	bits := make([]byte, len(m.mask))
	for i, keep := range m.mask {
		bits[i] = '0'
		if keep {
			bits[i] = '1'
		}
	}
	return fmt.Sprintf("mask(%s)", bits)
}
