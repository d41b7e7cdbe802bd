package precast

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatINR(t *testing.T) {
	tests := []struct {
		amount float64
		want   string
	}{
		{999, "₹999"},
		{12345, "₹12,345"},
		{99999.4, "₹99,999"},
		{5_000_000, "₹50.00 L"},
		{25_000_000, "₹2.50 Cr"},
		{123_456_789, "₹12.35 Cr"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatINR(tt.amount))
		})
	}
}

func TestRounding(t *testing.T) {
	assert.Equal(t, 54.6, RoundDays(54.55))
	assert.Equal(t, 2912345.68, RoundCost(2912345.6789))
	assert.Equal(t, 0.753, RoundTo(0.75251, 3))
}

func TestRoundingNonFinite(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.True(t, math.IsNaN(RoundDays(math.NaN())))
		assert.True(t, math.IsInf(RoundCost(math.Inf(1)), 1))
		assert.True(t, math.IsInf(RoundTo(math.Inf(-1), 3), -1))
		assert.Equal(t, "₹NaN", FormatINR(math.NaN()))
		assert.Equal(t, "₹+Inf", FormatINR(math.Inf(1)))
	})
}
