// Package tracking propagates satellite positions for the observation
// endpoints. The SGP4 model comes from github.com/joshuaferrara/go-satellite;
// TLE input is pre-validated because the library terminates the process
// on malformed lines, and propagation output is checked for NaN and
// unreasonable magnitudes because the by-value API hides SGP4 error
// codes.
package tracking

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// Embedded ISS elements used when no TLE source is configured. Epoch
// 2024 day 100; adequate for demonstration tracking, not operations.
const (
	ISSNoradID = 25544

	issLine1 = "1 25544U 98067A   24100.50000000  .00016717  00000-0  10270-3 0  9005"
	issLine2 = "2 25544  51.6400 100.0000 0001000   0.0000   0.0000 15.50000000    09"
)

// Position is a geodetic satellite fix.
type Position struct {
	NoradID    int       `json:"noradId"`
	Name       string    `json:"name"`
	Latitude   float64   `json:"latitude"`  // degrees
	Longitude  float64   `json:"longitude"` // degrees, [-180, 180)
	AltitudeKm float64   `json:"altitude"`
	Timestamp  time.Time `json:"timestamp"`
}

// Tracker propagates one satellite.
type Tracker struct {
	sat     satellite.Satellite
	noradID int
	name    string
}

// NewTracker creates a tracker from TLE lines.
func NewTracker(name, line1, line2 string, noradID int) (*Tracker, error) {
	if err := validateTLELines(line1, line2); err != nil {
		return nil, fmt.Errorf("invalid TLE for NORAD %d: %w", noradID, err)
	}

	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for NORAD %d: code=%d %s", noradID, sat.Error, sat.ErrorStr)
	}
	return &Tracker{sat: sat, noradID: noradID, name: name}, nil
}

// NewISSTracker creates a tracker for the ISS from the embedded
// elements.
func NewISSTracker() (*Tracker, error) {
	return NewTracker("ISS", issLine1, issLine2, ISSNoradID)
}

// validateTLELines performs basic format validation so garbage never
// reaches the library.
func validateTLELines(line1, line2 string) error {
	line1 = strings.TrimSpace(line1)
	line2 = strings.TrimSpace(line2)

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// PositionAt returns the geodetic position at the given time.
func (t *Tracker) PositionAt(ts time.Time) (Position, error) {
	ts = ts.UTC()
	pos, _ := satellite.Propagate(t.sat,
		ts.Year(), int(ts.Month()), ts.Day(),
		ts.Hour(), ts.Minute(), ts.Second(),
	)

	if math.IsNaN(pos.X) || math.IsNaN(pos.Y) || math.IsNaN(pos.Z) ||
		math.IsInf(pos.X, 0) || math.IsInf(pos.Y, 0) || math.IsInf(pos.Z, 0) {
		return Position{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: output is NaN/Inf", t.noradID)
	}

	// Position magnitude for anything in Earth orbit sits between LEO
	// and a bit past GEO.
	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < 6200.0 || mag > 50000.0 {
		return Position{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: unreasonable position magnitude %.1f km", t.noradID, mag)
	}

	gmst := satellite.GSTimeFromDate(
		ts.Year(), int(ts.Month()), ts.Day(),
		ts.Hour(), ts.Minute(), ts.Second(),
	)
	altitude, _, latlng := satellite.ECIToLLA(pos, gmst)

	return Position{
		NoradID:    t.noradID,
		Name:       t.name,
		Latitude:   latlng.Latitude * 180 / math.Pi,
		Longitude:  normalizeLongitude(latlng.Longitude * 180 / math.Pi),
		AltitudeKm: altitude,
		Timestamp:  ts,
	}, nil
}

// GroundTrack samples positions over a window. Steps that fail the
// propagation sanity checks are skipped rather than aborting the track.
func (t *Tracker) GroundTrack(start time.Time, duration, step time.Duration) []Position {
	if step <= 0 {
		step = time.Minute
	}
	var track []Position
	for offset := time.Duration(0); offset <= duration; offset += step {
		p, err := t.PositionAt(start.Add(offset))
		if err != nil {
			continue
		}
		track = append(track, p)
	}
	return track
}

func normalizeLongitude(deg float64) float64 {
	for deg >= 180 {
		deg -= 360
	}
	for deg < -180 {
		deg += 360
	}
	return deg
}
