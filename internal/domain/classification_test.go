package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelFromClass(t *testing.T) {
	l, err := LabelFromClass(1)
	require.NoError(t, err)
	assert.Equal(t, LabelHigh, l)

	l, err = LabelFromClass(0)
	require.NoError(t, err)
	assert.Equal(t, LabelLow, l)

	_, err = LabelFromClass(2)
	assert.ErrorIs(t, err, ErrClassification)
}

func TestProbabilityPercent(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"rounds to two places", 0.123456, 12.35},
		{"zero", 0, 0},
		{"one", 1, 100},
		{"clamps above", 1.7, 100},
		{"clamps below", -0.2, 0},
		{"nan", math.NaN(), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProbabilityPercent(tt.in))
		})
	}
}

func TestProbabilityPercent_TwoDecimalPlaces(t *testing.T) {
	for p := 0.0; p <= 1.0; p += 0.0137 {
		pct := ProbabilityPercent(p)
		assert.GreaterOrEqual(t, pct, 0.0)
		assert.LessOrEqual(t, pct, 100.0)
		assert.InDelta(t, math.Round(pct*100), pct*100, 1e-6, "%v has more than 2 decimals", pct)
	}
}

func TestUnscoredResult(t *testing.T) {
	r := UnscoredResult()
	assert.Equal(t, LabelLow, r.Label)
	assert.Equal(t, 0.0, r.Probability)
	assert.False(t, r.Confident)
}
