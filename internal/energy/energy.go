// Package energy computes impactor mass, kinetic energy, and TNT
// equivalence. All functions are pure; the only failure mode is a
// non-positive input.
package energy

import (
	"fmt"
	"math"

	"github.com/meteor/madness/internal/material"
)

// Mass returns the mass in kg of a spherical body with the given
// diameter (m) and bulk density (kg/m³).
func Mass(diameter, density float64) (float64, error) {
	if diameter <= 0 {
		return 0, fmt.Errorf("diameter must be positive, got %g", diameter)
	}
	if density <= 0 {
		return 0, fmt.Errorf("density must be positive, got %g", density)
	}
	r := diameter / 2
	volume := (4.0 / 3.0) * math.Pi * r * r * r
	return density * volume, nil
}

// Kinetic returns the kinetic energy in joules for a mass in kg moving
// at velocity in m/s.
func Kinetic(mass, velocityMS float64) (float64, error) {
	if mass <= 0 {
		return 0, fmt.Errorf("mass must be positive, got %g", mass)
	}
	if velocityMS <= 0 {
		return 0, fmt.Errorf("velocity must be positive, got %g", velocityMS)
	}
	return 0.5 * mass * velocityMS * velocityMS, nil
}

// ToMegatons converts joules to megatons of TNT.
func ToMegatons(joules float64) float64 {
	return joules / material.JoulesPerMegaton
}

// FromMegatons converts megatons of TNT to joules.
func FromMegatons(megatons float64) float64 {
	return megatons * material.JoulesPerMegaton
}

// CrossSection returns the frontal area in m² of a sphere with the given
// diameter in meters.
func CrossSection(diameter float64) float64 {
	r := diameter / 2
	return math.Pi * r * r
}
