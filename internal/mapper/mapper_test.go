package mapper

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlcompose/internal/data"
)

func TestMaskMapperForward(t *testing.T) {
	tests := []struct {
		mask   []int
		in     []float64
		expect []float64
	}{
		{[]int{1, 1, 0}, []float64{0, 0, -1}, []float64{0, 0}},
		{[]int{1, 0, 1}, []float64{1, 0, 1}, []float64{1, 1}},
		{[]int{1, 0, 1}, []float64{-1, -1, 1}, []float64{-1, 1}},
		{[]int{0, 1, 1}, []float64{1, -1, 1}, []float64{-1, 1}},
	}

	for _, tt := range tests {
		m, err := NewMaskMapperFromInts(tt.mask)
		require.NoError(t, err)

		out, err := m.Forward(data.NewSample(tt.in...))
		require.NoError(t, err)
		assert.Equal(t, data.NewSample(tt.expect...), out)
		assert.Equal(t, len(tt.expect), m.OutDim())
		assert.Equal(t, len(tt.mask), m.InDim())
	}
}

func TestMaskMapperDeterministic(t *testing.T) {
	m, err := NewMaskMapper([]bool{false, true, true})
	require.NoError(t, err)

	x := data.NewSample(3, 4, 5)
	first, err := m.Forward(x)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := m.Forward(x)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, data.NewSample(3, 4, 5), x, "input must not be modified")
}

func TestMaskMapperReverse(t *testing.T) {
	m, err := NewMaskMapperFromInts([]int{1, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, m.Kept())
	assert.Equal(t, "mask(101)", m.String())

	back, err := m.Reverse(data.NewSample(7, 9))
	require.NoError(t, err)
	assert.True(t, back[0].Equal(decimal.NewFromInt(7)))
	assert.True(t, back[1].IsZero())
	assert.True(t, back[2].Equal(decimal.NewFromInt(9)))

	_, err = m.Reverse(data.NewSample(1))
	assert.ErrorIs(t, err, ErrDimension)
}

func TestMaskMapperErrors(t *testing.T) {
	_, err := NewMaskMapper(nil)
	assert.ErrorIs(t, err, ErrEmptyMask)

	_, err = NewMaskMapperFromInts([]int{0, 0})
	assert.ErrorIs(t, err, ErrEmptyMask)
	assert.False(t, errors.Is(err, data.ErrShapeMismatch))

	m, err := NewMaskMapperFromInts([]int{1, 1})
	require.NoError(t, err)
	_, err = m.Forward(data.NewSample(1, 2, 3))
	assert.ErrorIs(t, err, ErrDimension)
	assert.True(t, errors.Is(err, data.ErrShapeMismatch))
}

func TestMaskMapperCopiesMask(t *testing.T) {
	mask := []bool{true, false}
	m, err := NewMaskMapper(mask)
	require.NoError(t, err)

	mask[1] = true
	assert.Equal(t, 1, m.OutDim())
	assert.Equal(t, []bool{true, false}, m.Mask())
}

func TestForwardAll(t *testing.T) {
	m, err := NewMaskMapperFromInts([]int{0, 1})
	require.NoError(t, err)

	out, err := ForwardAll(m, data.NewSamples([]float64{1, 2}, []float64{3, 4}))
	require.NoError(t, err)
	assert.Equal(t, data.NewSamples([]float64{2}, []float64{4}), out)

	_, err = ForwardAll(m, data.NewSamples([]float64{1, 2}, []float64{3}))
	assert.ErrorIs(t, err, ErrDimension)
}

func TestScaleMapper(t *testing.T) {
	_, err := NewScaleMapper("log")
	assert.Error(t, err)

	s, err := NewScaleMapper("minmax")
	require.NoError(t, err)

	_, err = s.Forward(data.NewSample(1, 2))
	assert.ErrorIs(t, err, ErrNotFitted)

	require.NoError(t, s.Fit(data.NewSamples([]float64{0, 5}, []float64{10, 5})))
	assert.True(t, s.IsFitted())

	out, err := s.Forward(data.NewSample(5, 5))
	require.NoError(t, err)
	assert.True(t, out[0].Equal(decimal.NewFromFloat(0.5)))
	assert.True(t, out[1].IsZero())

	std, err := NewScaleMapper("standard")
	require.NoError(t, err)
	require.NoError(t, std.Fit(data.NewSamples([]float64{-1}, []float64{1})))
	out, err = std.Forward(data.NewSample(1))
	require.NoError(t, err)
	assert.True(t, out[0].Equal(decimal.NewFromInt(1)))

	assert.ErrorIs(t, std.Fit(nil), data.ErrEmptyDataset)
}
