package precast

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMethod is returned when a curing method label is not recognised
var ErrUnknownMethod = errors.New("unknown curing method")

// CuringMethod is one of the three hydration curing strategies
type CuringMethod int

const (
	// Water is ponding or wet-burlap curing
	Water CuringMethod = iota
	// Steam is pressurised steam curing
	Steam
	// Chemical is a membrane-forming curing compound spray
	Chemical
)

// CuringProps holds the fixed economics of a curing method
type CuringProps struct {
	BaseDays        float64 // curing duration before environment adjustment
	WaterPerM3      float64 // litres of water per m³ of concrete
	CostPerM3PerDay float64 // INR per m³ per curing day
}

var curingProps = [...]CuringProps{
	Water:    {BaseDays: 14.0, WaterPerM3: 30.0, CostPerM3PerDay: 180.0},
	Steam:    {BaseDays: 2.0, WaterPerM3: 2.0, CostPerM3PerDay: 900.0},
	Chemical: {BaseDays: 8.0, WaterPerM3: 0.0, CostPerM3PerDay: 280.0},
}

// Methods returns every curing method in code order
func Methods() []CuringMethod {
	return []CuringMethod{Water, Steam, Chemical}
}

// Props returns the property row for the method
func (m CuringMethod) Props() CuringProps {
	switch m {
	case Water, Steam, Chemical:
		return curingProps[m]
	}
	panic(fmt.Sprintf("precast: invalid curing method %d", int(m)))
}

// Code is the numeric value placed in the feature vector
func (m CuringMethod) Code() float64 {
	return float64(m)
}

func (m CuringMethod) String() string {
	switch m {
	case Water:
		return "water"
	case Steam:
		return "steam"
	case Chemical:
		return "chemical"
	}
	return fmt.Sprintf("CuringMethod(%d)", int(m))
}

// ParseCuringMethod converts a label such as "steam" back to a method
func ParseCuringMethod(label string) (CuringMethod, error) {
	for _, m := range Methods() {
		if strings.EqualFold(label, m.String()) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMethod, label)
}

// MethodLabels maps the numeric code (as a string) to its label,
// the shape clients use to build forms
func MethodLabels() map[string]string {
	labels := make(map[string]string, 3)
	for _, m := range Methods() {
		labels[fmt.Sprintf("%d", int(m))] = m.String()
	}
	return labels
}
