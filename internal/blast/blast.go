// Package blast computes blast overpressure rings, thermal radiation
// radius, and seismic magnitude from released energy.
//
// The overpressure model is a Sedov-Taylor-style point release: the
// characteristic radius for a threshold pressure p is (E/p)^(1/3), which
// makes overpressure fall off as E/d³. Ring ordering (lethal ≤ severe ≤
// moderate ≤ light) follows directly from the cube-root law.
package blast

import (
	"math"

	"github.com/meteor/madness/internal/material"
)

// Overpressure thresholds for the four named rings, in Pa.
// 1 psi = 6894.76 Pa.
const (
	psi = 6894.76

	LethalOverpressure   = 20 * psi
	SevereOverpressure   = 5 * psi
	ModerateOverpressure = 2 * psi
	LightOverpressure    = 0.5 * psi
)

// Thermal radius power law in TNT megatons.
const (
	thermalCoefficient = 1500.0 // meters at 1 Mt
	thermalExponent    = 0.41
)

// Rings holds the four blast ring radii in meters.
type Rings struct {
	Lethal   float64 `json:"lethal"`
	Severe   float64 `json:"severe"`
	Moderate float64 `json:"moderate"`
	Light    float64 `json:"light"`
}

// Effects is the combined blast/thermal/seismic output.
type Effects struct {
	BlastRadius      Rings   `json:"blastRadius"`
	ThermalRadius    float64 `json:"thermalRadiationRadius"` // meters
	SeismicMagnitude float64 `json:"seismicMagnitude"`

	energy float64
}

// Compute derives blast effects. Rings and thermal radius scale with the
// total released energy in joules; the seismic magnitude uses the energy
// actually coupled into the ground (for airbursts this is far below the
// total).
func Compute(energyJ, groundEnergyJ float64) Effects {
	if energyJ < 0 {
		energyJ = 0
	}
	megatons := energyJ / material.JoulesPerMegaton

	return Effects{
		BlastRadius: Rings{
			Lethal:   RadiusAtOverpressure(energyJ, LethalOverpressure),
			Severe:   RadiusAtOverpressure(energyJ, SevereOverpressure),
			Moderate: RadiusAtOverpressure(energyJ, ModerateOverpressure),
			Light:    RadiusAtOverpressure(energyJ, LightOverpressure),
		},
		ThermalRadius:    thermalCoefficient * math.Pow(megatons, thermalExponent),
		SeismicMagnitude: SeismicMagnitude(groundEnergyJ),
		energy:           energyJ,
	}
}

// RadiusAtOverpressure returns the distance in meters at which the blast
// wave from an energyJ release decays to the given overpressure in Pa.
func RadiusAtOverpressure(energyJ, overpressure float64) float64 {
	if energyJ <= 0 || overpressure <= 0 {
		return 0
	}
	return math.Cbrt(energyJ / overpressure)
}

// OverpressureAt returns the blast overpressure in Pa at distance meters
// from the release point. The model diverges as distance approaches zero;
// callers displaying values must guard distance > 0 themselves, and a
// non-positive distance here reports +Inf explicitly rather than NaN.
func (e Effects) OverpressureAt(distance float64) float64 {
	if e.energy <= 0 {
		return 0
	}
	if distance <= 0 {
		return math.Inf(1)
	}
	return e.energy / (distance * distance * distance)
}

// SeismicMagnitude converts coupled ground energy in joules to an
// equivalent earthquake magnitude, floored at zero.
func SeismicMagnitude(energyJ float64) float64 {
	if energyJ <= 0 {
		return 0
	}
	m := math.Log10(energyJ)/1.5 - 3.2
	if m < 0 {
		return 0
	}
	return m
}
