package precast

import (
	"fmt"
	"math"
	"strings"
)

// Signal names, in feature-table order
const (
	SignalNumElements           = "num_elements"
	SignalComplexity            = "element_complexity"
	SignalTemperature           = "temperature"
	SignalHumidity              = "humidity"
	SignalYardArea              = "yard_area_m2"
	SignalEquipmentAvailability = "equipment_availability"
	SignalWaterBudget           = "water_budget_liters"
	SignalConcreteVolume        = "concrete_m3"
	SignalMaterialUnitCost      = "material_unit_cost"
	SignalOverhead              = "overhead_pct"
)

// FeatureCount is the width of an encoded scenario
const FeatureCount = 11

// SignalKind distinguishes integer from continuous signals
type SignalKind string

const (
	KindInt   SignalKind = "int"
	KindFloat SignalKind = "float"
)

// Signal describes one scenario input and its declared range
type Signal struct {
	Name        string     `json:"name"`
	Kind        SignalKind `json:"type"`
	Min         float64    `json:"min"`
	Max         float64    `json:"max"`
	Description string     `json:"description"`

	// OpenMax marks signals whose Max is only the sampling and sweep
	// ceiling; any value >= Min is a valid input.
	OpenMax bool `json:"-"`
}

var signals = []Signal{
	{SignalNumElements, KindInt, 5, 300, "Number of precast elements to produce", false},
	{SignalComplexity, KindFloat, 1, 10, "Complexity 1-10 (encodes element size & dimensions)", false},
	{SignalTemperature, KindFloat, 10, 45, "Ambient temperature in °C (Indian sites 25-40°C)", false},
	{SignalHumidity, KindFloat, 20, 95, "Relative humidity in %", false},
	{SignalYardArea, KindFloat, 100, 3000, "Available casting area in m²", false},
	{SignalEquipmentAvailability, KindFloat, 0.1, 1.0, "Fraction of full equipment fleet available (0-1)", false},
	{SignalWaterBudget, KindFloat, 0, 80000, "Max water for curing; water curing falls back to chemical if insufficient", true},
	{SignalConcreteVolume, KindFloat, 10, 1200, "Total concrete volume in m³", false},
	{SignalMaterialUnitCost, KindFloat, 5000, 9000, "Cost per m³ of concrete (INR); M25 ≈ 5000, M50 ≈ 9000", false},
	{SignalOverhead, KindFloat, 0.10, 0.30, "Overhead as fraction of direct cost", false},
}

// Signals returns the signal table in feature order
func Signals() []Signal {
	out := make([]Signal, len(signals))
	copy(out, signals)
	return out
}

// LookupSignal finds a signal by name
func LookupSignal(name string) (Signal, bool) {
	for _, s := range signals {
		if s.Name == name {
			return s, true
		}
	}
	return Signal{}, false
}

// SignalNames lists every signal name in feature order
func SignalNames() []string {
	names := make([]string, len(signals))
	for i, s := range signals {
		names[i] = s.Name
	}
	return names
}

// Scenario is one yard sizing and conditions configuration.
// Curing method is not part of it: every method is evaluated.
type Scenario struct {
	NumElements           int     `json:"num_elements" yaml:"num_elements"`
	Complexity            float64 `json:"element_complexity" yaml:"element_complexity"`
	Temperature           float64 `json:"temperature" yaml:"temperature"`
	Humidity              float64 `json:"humidity" yaml:"humidity"`
	YardArea              float64 `json:"yard_area_m2" yaml:"yard_area_m2"`
	EquipmentAvailability float64 `json:"equipment_availability" yaml:"equipment_availability"`
	WaterBudget           float64 `json:"water_budget_liters" yaml:"water_budget_liters"`
	ConcreteVolume        float64 `json:"concrete_m3" yaml:"concrete_m3"`
	MaterialUnitCost      float64 `json:"material_unit_cost" yaml:"material_unit_cost"`
	Overhead              float64 `json:"overhead_pct" yaml:"overhead_pct"`
}

// DefaultScenario is a typical mid-size yard on an Indian site
func DefaultScenario() Scenario {
	return Scenario{
		NumElements:           50,
		Complexity:            4.0,
		Temperature:           32.0,
		Humidity:              65.0,
		YardArea:              600.0,
		EquipmentAvailability: 0.75,
		WaterBudget:           40000.0,
		ConcreteVolume:        200.0,
		MaterialUnitCost:      6500.0,
		Overhead:              0.18,
	}
}

// Features encodes the scenario for the given method. The method code sits
// between water budget and concrete volume; trained models depend on it.
func (s Scenario) Features(m CuringMethod) []float64 {
	return []float64{
		float64(s.NumElements),
		s.Complexity,
		s.Temperature,
		s.Humidity,
		s.YardArea,
		s.EquipmentAvailability,
		s.WaterBudget,
		m.Code(),
		s.ConcreteVolume,
		s.MaterialUnitCost,
		s.Overhead,
	}
}

// Value reads a signal by name
func (s Scenario) Value(name string) (float64, bool) {
	switch name {
	case SignalNumElements:
		return float64(s.NumElements), true
	case SignalComplexity:
		return s.Complexity, true
	case SignalTemperature:
		return s.Temperature, true
	case SignalHumidity:
		return s.Humidity, true
	case SignalYardArea:
		return s.YardArea, true
	case SignalEquipmentAvailability:
		return s.EquipmentAvailability, true
	case SignalWaterBudget:
		return s.WaterBudget, true
	case SignalConcreteVolume:
		return s.ConcreteVolume, true
	case SignalMaterialUnitCost:
		return s.MaterialUnitCost, true
	case SignalOverhead:
		return s.Overhead, true
	}
	return 0, false
}

// With returns a copy of the scenario with one signal replaced.
// Integer signals are rounded to the nearest whole number.
func (s Scenario) With(name string, v float64) (Scenario, bool) {
	switch name {
	case SignalNumElements:
		s.NumElements = int(math.Round(v))
	case SignalComplexity:
		s.Complexity = v
	case SignalTemperature:
		s.Temperature = v
	case SignalHumidity:
		s.Humidity = v
	case SignalYardArea:
		s.YardArea = v
	case SignalEquipmentAvailability:
		s.EquipmentAvailability = v
	case SignalWaterBudget:
		s.WaterBudget = v
	case SignalConcreteVolume:
		s.ConcreteVolume = v
	case SignalMaterialUnitCost:
		s.MaterialUnitCost = v
	case SignalOverhead:
		s.Overhead = v
	default:
		return s, false
	}
	return s, true
}

// IsPositiveFinite reports whether v can serve as a budget or deadline
func IsPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

// ValidationError lists every field outside its declared range
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "invalid scenario: " + strings.Join(e.Fields, "; ")
}

// Validate checks every field against the signal table. The estimation
// core assumes in-range input; callers at the boundary run this first.
func (s Scenario) Validate() error {
	var bad []string
	for _, sig := range signals {
		v, _ := s.Value(sig.Name)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			bad = append(bad, fmt.Sprintf("%s must be a finite number, got %g", sig.Name, v))
			continue
		}
		if v < sig.Min || (!sig.OpenMax && v > sig.Max) {
			if sig.OpenMax {
				bad = append(bad, fmt.Sprintf("%s must be >= %g, got %g", sig.Name, sig.Min, v))
			} else {
				bad = append(bad, fmt.Sprintf("%s must be in [%g, %g], got %g", sig.Name, sig.Min, sig.Max, v))
			}
		}
	}
	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}
