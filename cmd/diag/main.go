// Command diag runs named impact scenarios through the full pipeline
// and prints a summary of each, for eyeballing the physics after model
// changes.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/meteor/madness/internal/engine"
	"github.com/meteor/madness/internal/material"
)

type scenario struct {
	name   string
	params engine.AsteroidParameters
}

var scenarios = []scenario{
	{"chelyabinsk", engine.AsteroidParameters{
		Diameter: 20, Density: 3300, Velocity: 19, Angle: 18,
		Composition: material.Rocky,
		Location:    &engine.Location{Latitude: 54.8, Longitude: 61.1},
	}},
	{"tunguska", engine.AsteroidParameters{
		Diameter: 60, Density: 2200, Velocity: 27, Angle: 30,
		Composition: material.Carbonaceous,
		Location:    &engine.Location{Latitude: 60.9, Longitude: 101.9},
	}},
	{"barringer", engine.AsteroidParameters{
		Diameter: 50, Density: 7800, Velocity: 12.8, Angle: 80,
		Composition: material.Iron,
		Location:    &engine.Location{Latitude: 35.0, Longitude: -111.0},
	}},
	{"chicxulub", engine.AsteroidParameters{
		Diameter: 10_000, Density: 3000, Velocity: 20, Angle: 60,
		Composition: material.Rocky,
		Location:    &engine.Location{Latitude: 21.4, Longitude: -89.5},
	}},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	eng := engine.New(logger, engine.DefaultConfig())
	ctx := context.Background()

	names := os.Args[1:]
	if len(names) == 0 {
		for _, sc := range scenarios {
			names = append(names, sc.name)
		}
	}

	for _, name := range names {
		sc, ok := lookup(name)
		if !ok {
			fmt.Printf("unknown scenario %q\n", name)
			os.Exit(1)
		}

		res, err := eng.Calculate(ctx, sc.params)
		if err != nil {
			fmt.Printf("%s: ERROR %v\n", sc.name, err)
			os.Exit(1)
		}

		fmt.Printf("=== %s ===\n", sc.name)
		fmt.Printf("  energy:    %.3g J (%.3g Mt)\n", res.ImpactEnergy, res.EnergyMegatons)
		fmt.Printf("  entry:     fragmented=%v reachedGround=%v finalVelocity=%.0f m/s\n",
			res.Fragmented, res.ReachedGround, lastVelocity(res))
		fmt.Printf("  crater:    diameter=%.0f m depth=%.0f m\n", res.Crater.Diameter, res.Crater.Depth)
		fmt.Printf("  blast:     lethal=%.0f m light=%.0f m thermal=%.0f m\n",
			res.BlastRadius.Lethal, res.BlastRadius.Light, res.ThermalRadius)
		fmt.Printf("  seismic:   M%.1f\n", res.SeismicMagnitude)
		fmt.Printf("  climate:   %+.2f C  global=%v tsunami=%v\n",
			res.EnvironmentalEffects.ClimateImpact.Temperature,
			res.EnvironmentalEffects.GlobalEffects,
			res.EnvironmentalEffects.TsunamiRisk)
		fmt.Printf("  losses:    %.3g people, $%.3g\n", res.Casualties.Total, res.EconomicDamage.Total)
		fmt.Printf("  compare:   %s\n\n", res.HistoricalComparison.Comparison)
	}
}

func lookup(name string) (scenario, bool) {
	for _, sc := range scenarios {
		if sc.name == name {
			return sc, true
		}
	}
	return scenario{}, false
}

func lastVelocity(res *engine.ImpactResult) float64 {
	if len(res.Trajectory) == 0 {
		return 0
	}
	return res.Trajectory[len(res.Trajectory)-1].Velocity
}
