package entry

import (
	"math"

	"github.com/meteor/madness/internal/material"
)

// Model atmosphere: ISA temperature lapse up to the tropopause, isothermal
// above, density from the ideal gas law. Good enough for an educational
// entry simulation; real profiles diverge above ~50 km.

// AirTemperature returns the model air temperature in K at the given
// altitude in meters.
func AirTemperature(altitude float64) float64 {
	if altitude < 0 {
		altitude = 0
	}
	if altitude < material.TropopauseAltitude {
		return material.SeaLevelTemperature - material.TemperatureLapseRate*altitude
	}
	return material.SeaLevelTemperature - material.TemperatureLapseRate*material.TropopauseAltitude
}

// AirPressure returns the model air pressure in Pa at the given altitude
// in meters.
func AirPressure(altitude float64) float64 {
	if altitude < 0 {
		altitude = 0
	}
	t0 := material.SeaLevelTemperature
	if altitude < material.TropopauseAltitude {
		t := AirTemperature(altitude)
		// Barometric formula with linear lapse: p = p0·(T/T0)^(g/(L·R)).
		exp := material.Gravity / (material.TemperatureLapseRate * material.SpecificGasConstantAir)
		return material.SeaLevelPressure * math.Pow(t/t0, exp)
	}

	tTrop := AirTemperature(material.TropopauseAltitude)
	pTrop := material.SeaLevelPressure * math.Pow(tTrop/t0,
		material.Gravity/(material.TemperatureLapseRate*material.SpecificGasConstantAir))
	// Isothermal layer: exponential decay above the tropopause.
	h := altitude - material.TropopauseAltitude
	return pTrop * math.Exp(-material.Gravity*h/(material.SpecificGasConstantAir*tTrop))
}

// AirDensity returns the model air density in kg/m³ at the given altitude
// in meters, from the ideal gas law.
func AirDensity(altitude float64) float64 {
	return AirPressure(altitude) / (material.SpecificGasConstantAir * AirTemperature(altitude))
}

// SpeedOfSound returns the speed of sound in m/s for air at temperature
// tempK.
func SpeedOfSound(tempK float64) float64 {
	return math.Sqrt(1.4 * material.SpecificGasConstantAir * tempK)
}

// MachDragFactor scales a material's subsonic drag coefficient for
// compressibility. Unity below Mach 0.8, rising through the transonic
// regime, settling slightly above unity when fully supersonic.
func MachDragFactor(mach float64) float64 {
	switch {
	case mach < 0.8:
		return 1.0
	case mach < 1.2:
		// Transonic ramp up to the drag peak.
		t := (mach - 0.8) / 0.4
		return 1.0 + 0.5*t
	case mach < 3.0:
		// Ease back down from the peak.
		t := (mach - 1.2) / 1.8
		return 1.5 - 0.3*t
	default:
		return 1.2
	}
}
