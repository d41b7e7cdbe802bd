package precast

import (
	"math"
	"math/rand/v2"

	"github.com/kartoza/precast-yard/internal/regression"
)

// Label noise bounds applied multiplicatively to oracle outputs
const (
	noiseLow  = 0.97
	noiseHigh = 1.03
)

// TrainingSet is a labelled sample of scenario/method rows
type TrainingSet struct {
	X    [][]float64
	Days []float64
	Cost []float64
}

// Len returns the number of rows
func (t *TrainingSet) Len() int {
	return len(t.X)
}

// Sample draws n scenarios uniformly over the signal ranges and labels each
// with all three curing methods, returning 3n rows.
func Sample(n int, seed uint64) *TrainingSet {
	rng := regression.NewRand(seed)
	ts := &TrainingSet{
		X:    make([][]float64, 0, 3*n),
		Days: make([]float64, 0, 3*n),
		Cost: make([]float64, 0, 3*n),
	}

	for i := 0; i < n; i++ {
		s := randomScenario(rng)
		for _, m := range Methods() {
			out := GroundTruth(s, m)
			ts.X = append(ts.X, s.Features(m))
			ts.Days = append(ts.Days, out.Days*uniform(rng, noiseLow, noiseHigh))
			ts.Cost = append(ts.Cost, out.Cost*uniform(rng, noiseLow, noiseHigh))
		}
	}
	return ts
}

func randomScenario(rng *rand.Rand) Scenario {
	var s Scenario
	for _, sig := range signals {
		v := uniform(rng, sig.Min, sig.Max)
		if sig.Kind == KindInt {
			v = math.Round(v)
		}
		next, ok := s.With(sig.Name, v)
		if !ok {
			panic("precast: signal table names unknown signal " + sig.Name)
		}
		s = next
	}
	return s
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}
