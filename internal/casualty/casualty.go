// Package casualty estimates population losses and economic damage from
// the blast rings. Population density comes from the caller when a
// provider is available; otherwise a global-average constant adjusted by
// a coarse latitude-band heuristic stands in. These are explicit
// approximations, not demographics.
package casualty

import "math"

// Defaults used when no population data provider is available.
const (
	// GlobalAveragePopulationDensity in people per km² of land.
	GlobalAveragePopulationDensity = 60.0

	// PerCapitaInfrastructureValue in USD, used for direct damage.
	PerCapitaInfrastructureValue = 50_000.0

	// indirectMultiplierCap bounds the indirect/direct damage ratio.
	indirectMultiplierCap = 10.0

	temperateFactor = 2.0
	polarFactor     = 0.1
	polarLatitude   = 70.0
	temperateLowLat = 23.5
	temperateHiLat  = 66.5
)

// RingRadii is the blast ring input in meters, innermost first.
type RingRadii struct {
	Lethal   float64
	Severe   float64
	Moderate float64
	Light    float64
}

// Casualties holds the banded casualty estimate (people).
type Casualties struct {
	Immediate float64 `json:"immediate"`
	ShortTerm float64 `json:"shortTerm"`
	LongTerm  float64 `json:"longTerm"`
	Total     float64 `json:"total"`
}

// EconomicDamage holds the damage estimate in USD.
type EconomicDamage struct {
	Direct   float64 `json:"direct"`
	Indirect float64 `json:"indirect"`
	Total    float64 `json:"total"`
}

// AdjustDensity applies the latitude-band heuristic to a base population
// density: temperate zones are denser, polar regions nearly empty.
func AdjustDensity(base, latitude float64) float64 {
	abs := math.Abs(latitude)
	switch {
	case abs > polarLatitude:
		return base * polarFactor
	case abs >= temperateLowLat && abs <= temperateHiLat:
		return base * temperateFactor
	default:
		return base
	}
}

// annularArea returns the area in km² of the ring between the inner and
// outer radii in meters.
func annularArea(innerM, outerM float64) float64 {
	if outerM <= innerM {
		return 0
	}
	inner := innerM / 1000
	outer := outerM / 1000
	return math.Pi * (outer*outer - inner*inner)
}

// Estimate computes casualties from the blast rings. Each band applies its
// fatality/injury rates over the ring's annular area so no one is counted
// twice. densityPerKm2 ≤ 0 selects the global-average default; latitude is
// only used for the band adjustment when hasLocation is true.
func Estimate(rings RingRadii, densityPerKm2, latitude float64, hasLocation bool) Casualties {
	density := densityPerKm2
	if density <= 0 {
		density = GlobalAveragePopulationDensity
	}
	if hasLocation {
		density = AdjustDensity(density, latitude)
	}

	lethalArea := math.Pi * (rings.Lethal / 1000) * (rings.Lethal / 1000)
	severeArea := annularArea(rings.Lethal, rings.Severe)
	moderateArea := annularArea(rings.Severe, rings.Moderate)
	lightArea := annularArea(rings.Moderate, rings.Light)

	lethalPop := lethalArea * density
	severePop := severeArea * density
	moderatePop := moderateArea * density
	lightPop := lightArea * density

	// Band rates: lethal 90% fatal; severe 50% fatal + 30% injured;
	// moderate 10% fatal + 60% injured; light 1% fatal + 20% long-term.
	c := Casualties{
		Immediate: 0.9*lethalPop + 0.5*severePop + 0.1*moderatePop + 0.01*lightPop,
		ShortTerm: 0.3*severePop + 0.6*moderatePop,
		LongTerm:  0.2 * lightPop,
	}
	c.Total = c.Immediate + c.ShortTerm + c.LongTerm
	return c
}

// EstimateEconomic computes damage from the affected population and the
// casualty total. Direct damage is the population inside the light ring
// times per-capita infrastructure value; indirect damage scales with the
// casualty burden, capped at 10x direct.
func EstimateEconomic(rings RingRadii, c Casualties, densityPerKm2, latitude float64, hasLocation bool) EconomicDamage {
	density := densityPerKm2
	if density <= 0 {
		density = GlobalAveragePopulationDensity
	}
	if hasLocation {
		density = AdjustDensity(density, latitude)
	}

	affectedArea := math.Pi * (rings.Light / 1000) * (rings.Light / 1000)
	affectedPop := affectedArea * density

	direct := affectedPop * PerCapitaInfrastructureValue

	multiplier := 0.0
	if affectedPop > 0 {
		multiplier = math.Min(indirectMultiplierCap, 2*c.Total/affectedPop*indirectMultiplierCap)
	}
	indirect := direct * multiplier

	return EconomicDamage{
		Direct:   direct,
		Indirect: indirect,
		Total:    direct + indirect,
	}
}
