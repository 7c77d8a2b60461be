package neo

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"
)

// Feed JSON shape as served by the NASA NEO API. Velocities and miss
// distances arrive as strings.
type feedDocument struct {
	ElementCount     int                     `json:"element_count"`
	NearEarthObjects map[string][]feedObject `json:"near_earth_objects"`
}

type feedObject struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	EstimatedDiameter struct {
		Meters struct {
			Min float64 `json:"estimated_diameter_min"`
			Max float64 `json:"estimated_diameter_max"`
		} `json:"meters"`
	} `json:"estimated_diameter"`
	Hazardous         bool `json:"is_potentially_hazardous_asteroid"`
	CloseApproachData []struct {
		Date             string `json:"close_approach_date"`
		RelativeVelocity struct {
			KmPerSec string `json:"kilometers_per_second"`
		} `json:"relative_velocity"`
		MissDistance struct {
			Km string `json:"kilometers"`
		} `json:"miss_distance"`
	} `json:"close_approach_data"`
}

// Parse converts raw feed JSON into a Dataset. Malformed individual
// objects are skipped; the parse only fails when the document itself is
// unreadable or yields no usable objects. Dates are walked in sorted
// order so identical input produces an identically ordered dataset.
func Parse(data []byte, source string) (*Dataset, error) {
	var doc feedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding NEO feed: %w", err)
	}

	dates := make([]string, 0, len(doc.NearEarthObjects))
	for d := range doc.NearEarthObjects {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	ds := &Dataset{
		Source:    source,
		FetchedAt: time.Now().UTC(),
	}

	for _, date := range dates {
		for _, raw := range doc.NearEarthObjects[date] {
			obj := Object{
				ID:           raw.ID,
				Name:         raw.Name,
				DiameterMinM: raw.EstimatedDiameter.Meters.Min,
				DiameterMaxM: raw.EstimatedDiameter.Meters.Max,
				Hazardous:    raw.Hazardous,
				ApproachDate: date,
			}
			if obj.Diameter() <= 0 {
				continue
			}

			if len(raw.CloseApproachData) > 0 {
				ca := raw.CloseApproachData[0]
				v, err := strconv.ParseFloat(ca.RelativeVelocity.KmPerSec, 64)
				if err != nil || v <= 0 {
					continue
				}
				obj.VelocityKmS = v
				if km, err := strconv.ParseFloat(ca.MissDistance.Km, 64); err == nil {
					obj.MissDistanceKm = km
				}
			} else {
				continue
			}

			ds.Objects = append(ds.Objects, obj)
		}
	}

	if len(ds.Objects) == 0 {
		return nil, fmt.Errorf("NEO feed contained no usable objects")
	}
	return ds, nil
}
