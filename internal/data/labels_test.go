package data

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLabelKey(t *testing.T) {
	tests := []struct {
		name  string
		a, b  Label
		equal bool
	}{
		{"int and float", 1, 1.0, true},
		{"int and decimal", -1, decimal.NewFromInt(-1), true},
		{"different ints", 1, -1, false},
		{"strings", "sp", "sp", true},
		{"string vs number", "1", 1, false},
		{"groups ignore order", LabelGroup{"dp", "dn"}, LabelGroup{"dn", "dp"}, true},
		{"group vs string slice", LabelGroup{"a", "b"}, []string{"b", "a"}, true},
		{"groups differ", LabelGroup{"a"}, LabelGroup{"a", "b"}, false},
		{"bools", true, true, true},
		{"bool vs int", true, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, LabelsEqual(tt.a, tt.b))
		})
	}
}

func TestAsDecimal(t *testing.T) {
	d, ok := AsDecimal(int64(3))
	assert.True(t, ok)
	assert.True(t, d.Equal(decimal.NewFromInt(3)))

	_, ok = AsDecimal(math.NaN())
	assert.False(t, ok)

	_, ok = AsDecimal(math.Inf(1))
	assert.False(t, ok)

	_, ok = AsDecimal("1")
	assert.False(t, ok)
}

func TestLabelGroup(t *testing.T) {
	g := NewLabelGroup("sp", "sn", "sp")
	assert.Equal(t, LabelGroup{"sp", "sn"}, g)
	assert.True(t, g.Contains("sn"))
	assert.False(t, g.Contains("dp"))
	assert.True(t, g.Intersects(LabelGroup{"dp", "sp"}))
	assert.False(t, g.Intersects(LabelGroup{"dp", "dn"}))

	c := g.Clone()
	c[0] = "changed"
	assert.Equal(t, "sp", g[0])
	assert.Equal(t, "[sp sn]", g.String())
}

func TestUniqueLabels(t *testing.T) {
	assert.Equal(t, []Label{1, -1, "x"}, UniqueLabels([]Label{1, -1, 1.0, "x", -1}))
}
