// Package histcomp compares an impact energy against a small table of
// reference events. Nearest event is chosen by log-energy distance, with
// ties broken by listed order.
package histcomp

import (
	"fmt"
	"math"
)

// Event is a reference impact or explosion with a known yield.
type Event struct {
	Name     string  `json:"name"`
	Megatons float64 `json:"megatons"`
	Year     int     `json:"year"`
}

// events is ordered; the order is the tie-break.
var events = []Event{
	{Name: "Hiroshima", Megatons: 0.015, Year: 1945},
	{Name: "Tunguska", Megatons: 12, Year: 1908},
	{Name: "Chelyabinsk", Megatons: 0.5, Year: 2013},
	{Name: "Barringer Crater", Megatons: 10, Year: -50000},
	{Name: "Chicxulub", Megatons: 1e8, Year: -66_000_000},
}

// Comparison relates a calculated energy to the nearest known event.
type Comparison struct {
	Event      Event   `json:"event"`
	Ratio      float64 `json:"ratio"` // calculated / event yield
	Comparison string  `json:"comparison"`
}

// Events returns the reference table in listed order.
func Events() []Event {
	out := make([]Event, len(events))
	copy(out, events)
	return out
}

// Nearest returns the comparison for the given energy in TNT megatons.
// Non-positive energies compare against the smallest event with a zero
// ratio rather than failing.
func Nearest(megatons float64) Comparison {
	if megatons <= 0 {
		smallest := events[0]
		for _, e := range events[1:] {
			if e.Megatons < smallest.Megatons {
				smallest = e
			}
		}
		return Comparison{
			Event:      smallest,
			Ratio:      0,
			Comparison: fmt.Sprintf("negligible compared to %s", smallest.Name),
		}
	}

	logE := math.Log10(megatons)
	best := events[0]
	bestDist := math.Abs(logE - math.Log10(events[0].Megatons))
	for _, e := range events[1:] {
		d := math.Abs(logE - math.Log10(e.Megatons))
		if d < bestDist {
			best = e
			bestDist = d
		}
	}

	ratio := megatons / best.Megatons
	return Comparison{
		Event:      best,
		Ratio:      ratio,
		Comparison: describe(best, ratio),
	}
}

func describe(e Event, ratio float64) string {
	switch {
	case ratio >= 0.5 && ratio <= 2:
		return fmt.Sprintf("comparable to %s", e.Name)
	case ratio > 2:
		return fmt.Sprintf("%.1fx the energy of %s", ratio, e.Name)
	default:
		return fmt.Sprintf("%.1f%% of the energy of %s", ratio*100, e.Name)
	}
}
