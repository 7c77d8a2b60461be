// Package environ estimates large-scale environmental consequences: dust
// cloud, climate cooling, ozone depletion, tsunami risk, and the
// global-catastrophe flag. The climate and ozone effects are deliberately
// discrete thresholds, matching the tool's educational model: below the
// threshold the effect is exactly zero, not a smaller nonzero value.
package environ

import (
	"math"

	"github.com/meteor/madness/internal/material"
)

// Energy thresholds in TNT megatons.
const (
	ClimateThresholdMt = 1000.0
	OzoneThresholdMt   = 10000.0
	GlobalThresholdMt  = 1_000_000.0
	TsunamiThresholdMt = 100.0

	// Tsunami heuristic: impacts poleward of this latitude are treated as
	// land/ice. A stand-in for an ocean lookup, not geography.
	tsunamiMaxLatitude = 60.0

	ozoneDepletionCap = 50.0 // percent
)

// DustCloud describes the lofted dust footprint.
type DustCloud struct {
	Radius   float64 `json:"radius"`   // meters
	Duration float64 `json:"duration"` // days
}

// ClimateImpact describes global cooling.
type ClimateImpact struct {
	Temperature float64 `json:"temperature"` // °C change (negative = cooling)
	Duration    float64 `json:"duration"`    // years
}

// Effects is the combined environmental output.
type Effects struct {
	DustCloud      DustCloud     `json:"dustCloud"`
	ClimateImpact  ClimateImpact `json:"climateImpact"`
	OzoneDepletion float64       `json:"ozoneDepletion"` // percent
	TsunamiRisk    bool          `json:"tsunamiRisk"`
	GlobalEffects  bool          `json:"globalEffects"`
}

// Compute derives environmental effects from the released energy in
// joules. Latitude is in degrees; hasLocation is false when the caller
// supplied no impact site, which disables the tsunami heuristic.
func Compute(energyJ float64, latitude float64, hasLocation bool) Effects {
	mt := energyJ / material.JoulesPerMegaton
	if mt < 0 {
		mt = 0
	}

	fx := Effects{
		DustCloud: DustCloud{
			Radius:   10000 * math.Sqrt(mt),
			Duration: 30 * math.Pow(mt, 0.3),
		},
	}

	if mt > ClimateThresholdMt {
		fx.ClimateImpact = ClimateImpact{
			Temperature: -0.002 * math.Sqrt(mt),
			Duration:    math.Max(1, math.Log10(mt)),
		}
	}

	if mt > OzoneThresholdMt {
		depletion := 10 * math.Pow(mt/OzoneThresholdMt, 0.3)
		fx.OzoneDepletion = math.Min(depletion, ozoneDepletionCap)
	}

	if hasLocation && mt > TsunamiThresholdMt && math.Abs(latitude) < tsunamiMaxLatitude {
		fx.TsunamiRisk = true
	}

	fx.GlobalEffects = mt > GlobalThresholdMt

	return fx
}
