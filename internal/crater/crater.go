// Package crater estimates crater geometry from the ground-impact state
// using a Collins-style empirical scaling law: diameter goes as the cube
// root of impact energy, corrected by the impactor/target density ratio
// and the sine of the impact angle. Zero-energy input yields a zero-size
// crater, not an error.
package crater

import "math"

// Scaling constants. The cube-root exponent set is the canonical one;
// depth, ejecta, and rim are fixed fractions of the crater body.
const (
	diameterCoefficient = 1.3e-3 // meters per J^(1/3)
	depthFraction       = 0.2
	ejectaVolumeFactor  = 2.0
	rimHeightFraction   = 0.04
)

// Crater holds the computed crater geometry.
type Crater struct {
	Diameter     float64 `json:"craterDiameter"` // meters
	Depth        float64 `json:"craterDepth"`    // meters
	Volume       float64 `json:"craterVolume"`   // m³
	EjectaVolume float64 `json:"ejectaVolume"`   // m³
	EjectaMass   float64 `json:"ejectaMass"`     // kg
	RimHeight    float64 `json:"rimHeight"`      // meters
}

// Compute returns the crater produced by a body of impactMass kg hitting
// at impactVelocity m/s and angleDeg from horizontal, with the given
// impactor and target densities in kg/m³.
func Compute(impactVelocity, impactMass, angleDeg, impactorDensity, targetDensity float64) Crater {
	if impactVelocity <= 0 || impactMass <= 0 || targetDensity <= 0 {
		return Crater{}
	}

	energy := 0.5 * impactMass * impactVelocity * impactVelocity
	densityRatio := impactorDensity / targetDensity
	angleFactor := math.Sin(angleDeg * math.Pi / 180)
	if angleFactor < 0 {
		angleFactor = 0
	}

	d := diameterCoefficient * math.Cbrt(energy) * math.Cbrt(densityRatio) * math.Cbrt(angleFactor)
	depth := depthFraction * d
	// Paraboloid bowl: V = π/8 · D² · depth.
	volume := math.Pi / 8 * d * d * depth
	ejectaVolume := ejectaVolumeFactor * volume

	return Crater{
		Diameter:     d,
		Depth:        depth,
		Volume:       volume,
		EjectaVolume: ejectaVolume,
		EjectaMass:   ejectaVolume * targetDensity,
		RimHeight:    rimHeightFraction * d,
	}
}
