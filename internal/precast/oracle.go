package precast

import "math"

// EquipmentDayCost is the fleet hire rate in INR per day
// (crane, batching plant, vibrators) at full availability.
const EquipmentDayCost = 18000.0

// Outcome is the analytical schedule and cost for one scenario and method
type Outcome struct {
	Method     CuringMethod  `json:"-"`
	Days       float64       `json:"days"`
	Cost       float64       `json:"cost"`
	CuringDays float64       `json:"curing_days"`
	FellBack   bool          `json:"fell_back"`
	Breakdown  CostBreakdown `json:"breakdown"`
}

// CostBreakdown splits the total cost into its components (labour excluded)
type CostBreakdown struct {
	Material  float64 `json:"material"`
	Equipment float64 `json:"equipment"`
	Curing    float64 `json:"curing"`
	Overhead  float64 `json:"overhead"`
}

// GroundTruth evaluates the yard model for one curing method. It is pure:
// no randomness and no shared state. When water curing needs more water
// than the budget allows, the curing phase uses chemical-compound days and
// rates while the outcome still reports the water method.
func GroundTruth(s Scenario, m CuringMethod) Outcome {
	props := m.Props()

	// concurrent casting slots
	footprint := 5.0 + 2.0*s.Complexity
	slots := math.Max(1, math.Floor(s.YardArea/footprint))

	// daily production rate
	baseRate := s.EquipmentAvailability * 2.5
	penalty := 1.0 + (s.Complexity-1)*0.18
	rate := math.Max(0.1, math.Min(baseRate/penalty, slots))

	tempFactor := 1.0 - 0.008*math.Max(0, math.Abs(s.Temperature-28))
	humidFactor := 1.0 - 0.004*math.Max(0, s.Humidity-65)
	rate *= math.Max(0.45, tempFactor) * math.Max(0.55, humidFactor)

	productionDays := float64(s.NumElements) / rate

	env := EnvironmentFactor(s)
	curingDays := props.BaseDays * env
	curingRate := props.CostPerM3PerDay

	fellBack := false
	if m == Water && s.ConcreteVolume*props.WaterPerM3 > s.WaterBudget {
		fb := Chemical.Props()
		curingDays = fb.BaseDays * env
		curingRate = fb.CostPerM3PerDay
		fellBack = true
	}

	totalDays := productionDays + curingDays

	b := CostBreakdown{
		Material:  s.ConcreteVolume * s.MaterialUnitCost,
		Equipment: s.EquipmentAvailability * EquipmentDayCost * totalDays,
		Curing:    s.ConcreteVolume * curingRate * curingDays,
	}
	direct := b.Material + b.Equipment + b.Curing
	b.Overhead = direct * s.Overhead

	return Outcome{
		Method:     m,
		Days:       totalDays,
		Cost:       direct * (1 + s.Overhead),
		CuringDays: curingDays,
		FellBack:   fellBack,
		Breakdown:  b,
	}
}

// GroundTruthAll evaluates every curing method, in code order
func GroundTruthAll(s Scenario) []Outcome {
	out := make([]Outcome, 0, 3)
	for _, m := range Methods() {
		out = append(out, GroundTruth(s, m))
	}
	return out
}

// EnvironmentFactor scales curing duration: heat shortens it, dry air
// lengthens it. Floored at 0.4.
func EnvironmentFactor(s Scenario) float64 {
	env := 1.0 - 0.012*math.Max(0, s.Temperature-20) + 0.006*math.Max(0, 60-s.Humidity)
	return math.Max(0.4, env)
}
