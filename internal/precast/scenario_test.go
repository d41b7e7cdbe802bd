package precast

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeaturesOrder(t *testing.T) {
	s := DefaultScenario()
	got := s.Features(Chemical)

	want := []float64{50, 4.0, 32.0, 65.0, 600.0, 0.75, 40000.0, 2, 200.0, 6500.0, 0.18}
	require.Len(t, got, FeatureCount)
	assert.Equal(t, want, got)
}

func TestFeaturesMethodCode(t *testing.T) {
	s := DefaultScenario()
	for _, m := range Methods() {
		assert.Equal(t, float64(m), s.Features(m)[7])
	}
}

func TestWithAndValue(t *testing.T) {
	base := DefaultScenario()
	for _, name := range SignalNames() {
		t.Run(name, func(t *testing.T) {
			sig, ok := LookupSignal(name)
			require.True(t, ok)

			next, ok := base.With(name, sig.Max)
			require.True(t, ok)
			v, ok := next.Value(name)
			require.True(t, ok)
			assert.Equal(t, sig.Max, v)
		})
	}
}

func TestWithRoundsIntegerSignal(t *testing.T) {
	s, ok := DefaultScenario().With(SignalNumElements, 41.6)
	require.True(t, ok)
	assert.Equal(t, 42, s.NumElements)
}

func TestWithUnknownSignal(t *testing.T) {
	_, ok := DefaultScenario().With("slump", 1)
	assert.False(t, ok)
	_, ok = DefaultScenario().Value("slump")
	assert.False(t, ok)
}

func TestSignalsTable(t *testing.T) {
	sigs := Signals()
	require.Len(t, sigs, 10)
	assert.Equal(t, SignalNumElements, sigs[0].Name)
	assert.Equal(t, KindInt, sigs[0].Kind)
	assert.Equal(t, SignalOverhead, sigs[9].Name)

	// callers get a copy
	sigs[0].Min = -1
	again, _ := LookupSignal(SignalNumElements)
	assert.Equal(t, 5.0, again.Min)
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultScenario().Validate())

	s := DefaultScenario()
	s.WaterBudget = 1e7 // open-ended
	require.NoError(t, s.Validate())

	s.Complexity = 11
	s.Overhead = 0.05
	err := s.Validate()
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Fields, 2)
	assert.Contains(t, err.Error(), SignalComplexity)
	assert.Contains(t, err.Error(), SignalOverhead)
}

func TestValidateNegativeWaterBudget(t *testing.T) {
	s := DefaultScenario()
	s.WaterBudget = -1
	assert.Error(t, s.Validate())
}

func TestValidateRejectsNonFinite(t *testing.T) {
	tests := []struct {
		name   string
		signal string
		value  float64
	}{
		{"infinite open-ended budget", SignalWaterBudget, math.Inf(1)},
		{"nan temperature", SignalTemperature, math.NaN()},
		{"negative infinite humidity", SignalHumidity, math.Inf(-1)},
		{"nan overhead", SignalOverhead, math.NaN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ok := DefaultScenario().With(tt.signal, tt.value)
			require.True(t, ok)

			var verr *ValidationError
			require.ErrorAs(t, s.Validate(), &verr)
			require.Len(t, verr.Fields, 1)
			assert.Contains(t, verr.Fields[0], tt.signal)
			assert.Contains(t, verr.Fields[0], "finite")
		})
	}
}

func TestIsPositiveFinite(t *testing.T) {
	assert.True(t, IsPositiveFinite(1e308))
	assert.True(t, IsPositiveFinite(0.5))
	assert.False(t, IsPositiveFinite(0))
	assert.False(t, IsPositiveFinite(-2))
	assert.False(t, IsPositiveFinite(math.Inf(1)))
	assert.False(t, IsPositiveFinite(math.NaN()))
}

func TestParseCuringMethod(t *testing.T) {
	for _, m := range Methods() {
		got, err := ParseCuringMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}

	_, err := ParseCuringMethod("ponding")
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestMethodLabels(t *testing.T) {
	assert.Equal(t, map[string]string{"0": "water", "1": "steam", "2": "chemical"}, MethodLabels())
}
