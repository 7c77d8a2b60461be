// Package material holds the physical constants and per-composition
// material property tables used by every calculation stage. The tables
// are fixed at compile time and never mutated.
package material

import "fmt"

// Physical constants shared across the engine.
const (
	// JoulesPerMegaton converts joules to megatons of TNT (1 Mt = 4.184e15 J).
	JoulesPerMegaton = 4.184e15

	// Gravity is surface gravitational acceleration in m/s².
	Gravity = 9.81

	// SeaLevelAirDensity in kg/m³ (ISA).
	SeaLevelAirDensity = 1.225

	// SeaLevelPressure in Pa (ISA).
	SeaLevelPressure = 101325.0

	// SeaLevelTemperature in K (ISA).
	SeaLevelTemperature = 288.15

	// TropopauseAltitude in meters. Below this the ISA temperature lapse
	// applies; above it the model atmosphere is isothermal.
	TropopauseAltitude = 11000.0

	// TemperatureLapseRate in K/m for the troposphere.
	TemperatureLapseRate = 0.0065

	// SpecificGasConstantAir in J/(kg·K).
	SpecificGasConstantAir = 287.05

	// EarthRadius in meters (mean).
	EarthRadius = 6.371e6

	// TargetDensityDefault is the assumed density of the impacted surface
	// in kg/m³ when the caller does not supply one (continental crust).
	TargetDensityDefault = 2500.0
)

// Composition identifies the bulk material class of an asteroid.
// The set is closed: every Composition maps to exactly one Properties
// record, and anything else fails validation up front.
type Composition string

const (
	Rocky        Composition = "rocky"
	Iron         Composition = "iron"
	StonyIron    Composition = "stony-iron"
	Carbonaceous Composition = "carbonaceous"
	Icy          Composition = "icy"
)

// Properties describes the material behavior of one composition class
// during atmospheric entry and impact.
type Properties struct {
	Density               float64 // kg/m³
	Strength              float64 // compressive strength, Pa
	Porosity              float64 // volume fraction
	FragmentationPressure float64 // dynamic pressure at breakup, Pa
	DragCoefficient       float64 // subsonic baseline
	HeatCapacity          float64 // J/(kg·K)
	ThermalConductivity   float64 // W/(m·K)
	MeltingPoint          float64 // K
	VaporizationPoint     float64 // K
}

// properties is the total mapping from composition to material record.
var properties = map[Composition]Properties{
	Rocky: {
		Density:               3300,
		Strength:              1e7,
		Porosity:              0.10,
		FragmentationPressure: 2e6,
		DragCoefficient:       0.47,
		HeatCapacity:          800,
		ThermalConductivity:   2.0,
		MeltingPoint:          1700,
		VaporizationPoint:     3100,
	},
	Iron: {
		Density:               7800,
		Strength:              5e8,
		Porosity:              0.02,
		FragmentationPressure: 5e7,
		DragCoefficient:       0.47,
		HeatCapacity:          450,
		ThermalConductivity:   80.0,
		MeltingPoint:          1800,
		VaporizationPoint:     3100,
	},
	StonyIron: {
		Density:               5000,
		Strength:              1e8,
		Porosity:              0.05,
		FragmentationPressure: 1e7,
		DragCoefficient:       0.47,
		HeatCapacity:          600,
		ThermalConductivity:   20.0,
		MeltingPoint:          1750,
		VaporizationPoint:     3100,
	},
	Carbonaceous: {
		Density:               2200,
		Strength:              1e6,
		Porosity:              0.30,
		FragmentationPressure: 5e5,
		DragCoefficient:       0.50,
		HeatCapacity:          1000,
		ThermalConductivity:   1.5,
		MeltingPoint:          1500,
		VaporizationPoint:     2800,
	},
	Icy: {
		Density:               900,
		Strength:              1e5,
		Porosity:              0.40,
		FragmentationPressure: 1e5,
		DragCoefficient:       0.50,
		HeatCapacity:          2100,
		ThermalConductivity:   2.3,
		MeltingPoint:          273,
		VaporizationPoint:     373,
	},
}

// Lookup returns the property record for a composition. Unknown
// compositions are an error, never a silent fallback.
func Lookup(c Composition) (Properties, error) {
	p, ok := properties[c]
	if !ok {
		return Properties{}, fmt.Errorf("unknown composition %q", c)
	}
	return p, nil
}

// Compositions returns the valid composition values in a stable order.
func Compositions() []Composition {
	return []Composition{Rocky, Iron, StonyIron, Carbonaceous, Icy}
}

// Valid reports whether c names a known composition.
func Valid(c Composition) bool {
	_, ok := properties[c]
	return ok
}
