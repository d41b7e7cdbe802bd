package simulator

import (
	"math"

	"github.com/kartoza/precast-yard/internal/precast"
)

// Predictor is the read side of a trained pipeline
type Predictor interface {
	Predict(X [][]float64) ([]float64, error)
}

// Metric selects which prediction an inverse search matches against
type Metric int

const (
	// ByCost finds the cell whose predicted cost is closest to the target
	ByCost Metric = iota
	// ByDays finds the cell whose predicted duration is closest to the target
	ByDays
)

func (m Metric) String() string {
	if m == ByDays {
		return "days"
	}
	return "cost"
}

// Grid sets the sweep over complexity and equipment availability. Each axis
// lays Resolution evenly spaced points over the signal range and keeps every
// Stride-th one starting at the low end. The upper bound is only sampled
// when Stride divides Resolution-1; the default grid stops short of it.
type Grid struct {
	Resolution int `json:"resolution" yaml:"resolution"`
	Stride     int `json:"stride" yaml:"stride"`
}

// DefaultGrid gives 125 points per axis
func DefaultGrid() Grid {
	return Grid{Resolution: 500, Stride: 4}
}

// Axis returns the sampled values between lo and hi
func (g Grid) Axis(lo, hi float64) []float64 {
	res, stride := g.Resolution, g.Stride
	if res < 2 {
		res = 2
	}
	if stride < 1 {
		stride = 1
	}

	step := (hi - lo) / float64(res-1)
	out := make([]float64, 0, (res+stride-1)/stride)
	for i := 0; i < res; i += stride {
		out = append(out, lo+float64(i)*step)
	}
	return out
}

// Match is the grid cell selected by an inverse search
type Match struct {
	Days       float64 `json:"predicted_days"`
	Cost       float64 `json:"predicted_cost"`
	Complexity float64 `json:"recommended_complexity"`
	Equipment  float64 `json:"recommended_equip"`
}

// Search sweeps complexity (outer) and equipment availability (inner) with
// every other field taken from base, predicts both targets for every cell,
// and returns the first cell whose metric is nearest to target.
func Search(days, cost Predictor, base precast.Scenario, m precast.CuringMethod, metric Metric, target float64, g Grid) (Match, error) {
	cx, _ := precast.LookupSignal(precast.SignalComplexity)
	eq, _ := precast.LookupSignal(precast.SignalEquipmentAvailability)
	complexities := g.Axis(cx.Min, cx.Max)
	equipment := g.Axis(eq.Min, eq.Max)

	X := make([][]float64, 0, len(complexities)*len(equipment))
	for _, c := range complexities {
		for _, e := range equipment {
			s := base
			s.Complexity = c
			s.EquipmentAvailability = e
			X = append(X, s.Features(m))
		}
	}

	predDays, err := days.Predict(X)
	if err != nil {
		return Match{}, err
	}
	predCost, err := cost.Predict(X)
	if err != nil {
		return Match{}, err
	}

	metricValues := predCost
	if metric == ByDays {
		metricValues = predDays
	}

	best, bestDiff := 0, math.Inf(1)
	for i, v := range metricValues {
		if d := math.Abs(v - target); d < bestDiff {
			best, bestDiff = i, d
		}
	}

	row, col := best/len(equipment), best%len(equipment)
	return Match{
		Days:       precast.RoundDays(predDays[best]),
		Cost:       precast.RoundCost(predCost[best]),
		Complexity: precast.RoundTo(complexities[row], 2),
		Equipment:  precast.RoundTo(equipment[col], 3),
	}, nil
}
