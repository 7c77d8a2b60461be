package neo

import (
	"time"

	"github.com/meteor/madness/internal/engine"
	"github.com/meteor/madness/internal/material"
)

// Object is one near-Earth object from the feed, flattened to the
// fields the engine can use.
type Object struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	DiameterMinM   float64 `json:"diameterMin"` // meters
	DiameterMaxM   float64 `json:"diameterMax"` // meters
	VelocityKmS    float64 `json:"velocity"`    // km/s relative
	MissDistanceKm float64 `json:"missDistance"`
	Hazardous      bool    `json:"hazardous"`
	ApproachDate   string  `json:"approachDate"` // YYYY-MM-DD
}

// Diameter returns the mean of the feed's min/max estimate.
func (o Object) Diameter() float64 {
	return (o.DiameterMinM + o.DiameterMaxM) / 2
}

// Parameters converts the object into calculation input using a rocky
// composition and a 45 degree default entry angle. LiveData is set so
// the result carries the live-feed confidence bump.
func (o Object) Parameters() engine.AsteroidParameters {
	return engine.AsteroidParameters{
		Diameter:    o.Diameter(),
		Velocity:    o.VelocityKmS,
		Angle:       45,
		Composition: material.Rocky,
		LiveData:    true,
	}
}

// Dataset is a complete feed snapshot.
type Dataset struct {
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetchedAt"`
	Fallback  bool      `json:"fallback"`
	Objects   []Object  `json:"objects"`
}
