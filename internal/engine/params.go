package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meteor/madness/internal/material"
)

// Input caps. These bound the numerical models, not physics: nothing in
// the scaling laws is validated beyond these ranges.
const (
	MaxDiameter = 1e5   // meters
	MaxVelocity = 300.0 // km/s
)

// Location is an impact site in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AsteroidParameters is the full input to a calculation. Diameter is in
// meters, velocity in km/s, angle in degrees from horizontal. Density and
// Composition interact: a zero density selects the composition's bulk
// density, an explicit density overrides it.
type AsteroidParameters struct {
	Diameter    float64              `json:"diameter"`
	Density     float64              `json:"density,omitempty"`
	Velocity    float64              `json:"velocity"`
	Angle       float64              `json:"angle"`
	Composition material.Composition `json:"composition,omitempty"`

	// EntryAltitude is the starting altitude in km; zero selects the
	// engine default.
	EntryAltitude float64 `json:"entryAltitude,omitempty"`

	// Location is optional; without it the tsunami heuristic and the
	// latitude population adjustment are disabled.
	Location *Location `json:"impactLocation,omitempty"`

	// TargetDensity is the surface density in kg/m³; zero selects the
	// continental-crust default.
	TargetDensity float64 `json:"targetDensity,omitempty"`

	// PopulationDensity in people per km²; zero selects the global
	// average.
	PopulationDensity float64 `json:"populationDensity,omitempty"`

	// LiveData marks parameters sourced from a live feed rather than
	// user input. Informational: it nudges the confidence score only.
	LiveData bool `json:"liveData,omitempty"`
}

// ValidationError reports every invalid field at once so API clients can
// surface all problems in a single round trip.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid parameters: " + strings.Join(e.Problems, "; ")
}

// Normalize fills defaulted fields in place: composition defaults to
// rocky, density to the composition's bulk density.
func (p *AsteroidParameters) Normalize() {
	if p.Composition == "" {
		p.Composition = material.Rocky
	}
	if p.Density == 0 {
		if props, err := material.Lookup(p.Composition); err == nil {
			p.Density = props.Density
		}
	}
	if p.TargetDensity == 0 {
		p.TargetDensity = material.TargetDensityDefault
	}
}

// Validate checks every field and returns a ValidationError listing all
// problems, or nil. Call Normalize first; Validate treats a still-zero
// density as invalid.
func (p *AsteroidParameters) Validate() error {
	var problems []string

	if p.Diameter <= 0 {
		problems = append(problems, fmt.Sprintf("diameter must be positive, got %g", p.Diameter))
	} else if p.Diameter > MaxDiameter {
		problems = append(problems, fmt.Sprintf("diameter %g m exceeds maximum %g m", p.Diameter, MaxDiameter))
	}

	if p.Density <= 0 {
		problems = append(problems, fmt.Sprintf("density must be positive, got %g", p.Density))
	}

	if p.Velocity <= 0 {
		problems = append(problems, fmt.Sprintf("velocity must be positive, got %g", p.Velocity))
	} else if p.Velocity > MaxVelocity {
		problems = append(problems, fmt.Sprintf("velocity %g km/s exceeds maximum %g km/s", p.Velocity, MaxVelocity))
	}

	if p.Angle < 0 || p.Angle > 90 {
		problems = append(problems, fmt.Sprintf("angle must be in [0, 90] degrees, got %g", p.Angle))
	}

	if !material.Valid(p.Composition) {
		problems = append(problems, fmt.Sprintf("unknown composition %q", p.Composition))
	}

	if p.EntryAltitude < 0 {
		problems = append(problems, fmt.Sprintf("entry altitude must be non-negative, got %g", p.EntryAltitude))
	}

	if p.TargetDensity < 0 {
		problems = append(problems, fmt.Sprintf("target density must be non-negative, got %g", p.TargetDensity))
	}

	if p.PopulationDensity < 0 {
		problems = append(problems, fmt.Sprintf("population density must be non-negative, got %g", p.PopulationDensity))
	}

	if p.Location != nil {
		if p.Location.Latitude < -90 || p.Location.Latitude > 90 {
			problems = append(problems, fmt.Sprintf("latitude must be in [-90, 90], got %g", p.Location.Latitude))
		}
		if p.Location.Longitude < -180 || p.Location.Longitude > 180 {
			problems = append(problems, fmt.Sprintf("longitude must be in [-180, 180], got %g", p.Location.Longitude))
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// cacheKey is the canonical serialization of every output-affecting
// field, in fixed order. Two parameter sets produce the same key exactly
// when they produce the same result.
func (p *AsteroidParameters) cacheKey() string {
	var b strings.Builder
	f := func(v float64) {
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		b.WriteByte('|')
	}

	f(p.Diameter)
	f(p.Density)
	f(p.Velocity)
	f(p.Angle)
	b.WriteString(string(p.Composition))
	b.WriteByte('|')
	f(p.EntryAltitude)
	f(p.TargetDensity)
	f(p.PopulationDensity)

	if p.Location != nil {
		b.WriteString("loc|")
		f(p.Location.Latitude)
		f(p.Location.Longitude)
	} else {
		b.WriteString("noloc|")
	}

	if p.LiveData {
		b.WriteString("live")
	}
	return b.String()
}
