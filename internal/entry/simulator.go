// Package entry integrates an asteroid's descent through the model
// atmosphere: drag deceleration, aerodynamic heating, ablation mass loss,
// and a single fragmentation event. The integration is fixed-step Euler
// with a hard simulated-time cutoff, so it terminates for any input.
package entry

import (
	"math"

	"github.com/meteor/madness/internal/energy"
	"github.com/meteor/madness/internal/material"
)

// Tuning constants for the heating and ablation models. These are
// calibrated for plausible airburst behavior, not derived from first
// principles; the whole stage is an educational approximation.
const (
	// heatingCoefficient scales q = C·√ρ·v³ (Sutton-Graves form), W/m².
	heatingCoefficient = 1.742e-4

	// heatedShellDepth is the effective thickness in meters of the surface
	// layer the heating raises in temperature.
	heatedShellDepth = 0.01

	// ablationCoefficient converts aerodynamic load (ρ·v²·A, newtons) into
	// mass loss rate, kg/(N·s), once the surface is molten.
	ablationCoefficient = 5e-5

	// massFloorFraction is the fraction of the original mass below which
	// ablation stops removing material.
	massFloorFraction = 0.10

	// Fragmentation pancakes the body into a spreading fragment swarm:
	// effective diameter grows by fragmentSpreadScale, mass is conserved.
	// Bodies wider than fragmentMaxDiameter are thicker than the dense
	// atmosphere and stay coherent; breakup never applies to them.
	fragmentSpreadScale = 3.5
	fragmentMaxDiameter = 1000.0
)

// Config holds entry integration settings.
type Config struct {
	Step          float64 // integration time step, seconds
	MaxDuration   float64 // simulated-time safety cutoff, seconds
	StartAltitude float64 // default entry altitude, meters
}

// DefaultConfig returns the standard integration settings.
func DefaultConfig() Config {
	return Config{
		Step:          0.05,
		MaxDuration:   600,
		StartAltitude: 100_000,
	}
}

// Input holds the state an entry simulation starts from. Velocity is in
// m/s, angle in degrees from horizontal, altitude in meters.
type Input struct {
	Diameter  float64
	Density   float64
	Mass      float64
	Velocity  float64
	AngleDeg  float64
	Altitude  float64 // 0 means use Config.StartAltitude
	Material  material.Properties
	StartTemp float64 // 0 means ambient at start altitude
}

// TrajectoryPoint is one integration step of the descent.
type TrajectoryPoint struct {
	Time            float64 `json:"time"`
	Altitude        float64 `json:"altitude"`
	Velocity        float64 `json:"velocity"`
	Mass            float64 `json:"mass"`
	Temperature     float64 `json:"temperature"`
	DynamicPressure float64 `json:"dynamicPressure"`
}

// Result is the outcome of an entry simulation.
type Result struct {
	FinalVelocity    float64           `json:"finalVelocity"`
	FinalMass        float64           `json:"finalMass"`
	FinalTemperature float64           `json:"finalTemperature"`
	FinalAltitude    float64           `json:"finalAltitude"`
	AblatedMass      float64           `json:"ablatedMass"`
	Fragmented       bool              `json:"fragmentationOccurred"`
	FragmentationAlt float64           `json:"fragmentationAltitude,omitempty"`
	ReachedGround    bool              `json:"reachedGround"`
	Incomplete       bool              `json:"incomplete"`
	Duration         float64           `json:"entryDuration"`
	Trajectory       []TrajectoryPoint `json:"trajectory"`
}

// Simulate integrates the descent until the body reaches the ground,
// loses all velocity, or the simulated-time cutoff expires. It never
// fails for inputs that passed engine validation; a cutoff expiry is
// reported via Result.Incomplete, not an error.
func Simulate(cfg Config, in Input) Result {
	dt := cfg.Step
	if dt <= 0 {
		dt = DefaultConfig().Step
	}
	maxT := cfg.MaxDuration
	if maxT <= 0 {
		maxT = DefaultConfig().MaxDuration
	}

	alt := in.Altitude
	if alt <= 0 {
		alt = cfg.StartAltitude
		if alt <= 0 {
			alt = DefaultConfig().StartAltitude
		}
	}

	sinA := math.Sin(in.AngleDeg * math.Pi / 180)

	massFloor := in.Mass * massFloorFraction
	v := in.Velocity
	mass := in.Mass
	diameter := in.Diameter
	temp := in.StartTemp
	if temp <= 0 {
		temp = AirTemperature(alt)
	}

	steps := int(maxT/dt) + 1
	res := Result{
		Trajectory: make([]TrajectoryPoint, 0, min(steps, 16384)),
	}

	fragScale := 1.0
	var t float64

	for i := 0; i < steps; i++ {
		rhoAir := AirDensity(alt)
		airTemp := AirTemperature(alt)
		dynP := 0.5 * rhoAir * v * v

		// One-time fragmentation when dynamic pressure exceeds the
		// material threshold. The swarm presents a larger effective
		// cross-section but keeps all of its mass.
		if !res.Fragmented && diameter < fragmentMaxDiameter && dynP > in.Material.FragmentationPressure {
			res.Fragmented = true
			res.FragmentationAlt = alt
			fragScale = fragmentSpreadScale
			diameter *= fragmentSpreadScale
		}

		area := energy.CrossSection(diameter)

		// Drag with compressibility correction above Mach 1.
		mach := v / SpeedOfSound(airTemp)
		cd := in.Material.DragCoefficient * MachDragFactor(mach)
		drag := 0.5 * rhoAir * v * v * area * cd

		// Aerodynamic heating of a thin surface shell; surface temperature
		// is capped at the vaporization point (excess energy feeds ablation).
		q := heatingCoefficient * math.Sqrt(rhoAir) * v * v * v
		temp += q / (in.Material.HeatCapacity * in.Density * heatedShellDepth) * dt
		if temp > in.Material.VaporizationPoint {
			temp = in.Material.VaporizationPoint
		}

		// Ablation once molten, floored at 10% of original mass.
		if temp >= in.Material.MeltingPoint && mass > massFloor {
			dm := ablationCoefficient * rhoAir * v * v * area * dt
			if mass-dm < massFloor {
				dm = mass - massFloor
			}
			mass -= dm
			res.AblatedMass += dm
			// Shrink with constant bulk density, keeping any fragmentation
			// spread applied on top.
			diameter = fragScale * math.Cbrt(6*mass/(math.Pi*in.Density))
		}

		// Euler velocity update: gravity accelerates along the flight path,
		// drag decelerates.
		accel := material.Gravity*sinA - drag/mass
		v += accel * dt
		if v <= 0 || math.IsNaN(v) {
			v = 0
		}

		alt -= v * sinA * dt
		t += dt

		res.Trajectory = append(res.Trajectory, TrajectoryPoint{
			Time:            t,
			Altitude:        math.Max(alt, 0),
			Velocity:        v,
			Mass:            mass,
			Temperature:     temp,
			DynamicPressure: dynP,
		})

		if alt <= 0 {
			res.ReachedGround = true
			break
		}
		if v == 0 {
			break
		}
	}

	res.Incomplete = !res.ReachedGround && v > 0
	res.FinalVelocity = v
	res.FinalMass = mass
	res.FinalTemperature = temp
	res.FinalAltitude = math.Max(alt, 0)
	res.Duration = t
	return res
}
