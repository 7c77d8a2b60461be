package neo

import (
	"testing"
)

const sampleFeed = `{
  "element_count": 3,
  "near_earth_objects": {
    "2025-08-02": [
      {
        "id": "3542519",
        "name": "(2010 PK9)",
        "estimated_diameter": {"meters": {"estimated_diameter_min": 110, "estimated_diameter_max": 250}},
        "is_potentially_hazardous_asteroid": true,
        "close_approach_data": [
          {
            "close_approach_date": "2025-08-02",
            "relative_velocity": {"kilometers_per_second": "21.3"},
            "miss_distance": {"kilometers": "6100000"}
          }
        ]
      }
    ],
    "2025-08-01": [
      {
        "id": "2465633",
        "name": "465633 (2009 JR5)",
        "estimated_diameter": {"meters": {"estimated_diameter_min": 300, "estimated_diameter_max": 700}},
        "is_potentially_hazardous_asteroid": false,
        "close_approach_data": [
          {
            "close_approach_date": "2025-08-01",
            "relative_velocity": {"kilometers_per_second": "18.1"},
            "miss_distance": {"kilometers": "45000000"}
          }
        ]
      },
      {
        "id": "9999999",
        "name": "bad velocity",
        "estimated_diameter": {"meters": {"estimated_diameter_min": 10, "estimated_diameter_max": 20}},
        "is_potentially_hazardous_asteroid": false,
        "close_approach_data": [
          {
            "close_approach_date": "2025-08-01",
            "relative_velocity": {"kilometers_per_second": "not-a-number"},
            "miss_distance": {"kilometers": "1"}
          }
        ]
      }
    ]
  }
}`

func TestParseFeed(t *testing.T) {
	ds, err := Parse([]byte(sampleFeed), "test")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	// The malformed-velocity object is skipped.
	if len(ds.Objects) != 2 {
		t.Fatalf("got %d objects, want 2", len(ds.Objects))
	}

	// Dates walk in sorted order.
	if ds.Objects[0].ApproachDate != "2025-08-01" || ds.Objects[1].ApproachDate != "2025-08-02" {
		t.Errorf("objects not date-ordered: %s, %s", ds.Objects[0].ApproachDate, ds.Objects[1].ApproachDate)
	}

	first := ds.Objects[0]
	if first.Name != "465633 (2009 JR5)" {
		t.Errorf("name = %q", first.Name)
	}
	if first.VelocityKmS != 18.1 {
		t.Errorf("velocity = %g, want 18.1", first.VelocityKmS)
	}
	if first.MissDistanceKm != 45_000_000 {
		t.Errorf("miss distance = %g", first.MissDistanceKm)
	}
	if first.Diameter() != 500 {
		t.Errorf("mean diameter = %g, want 500", first.Diameter())
	}
	if first.Hazardous {
		t.Error("JR5 flagged hazardous")
	}
	if !ds.Objects[1].Hazardous {
		t.Error("PK9 not flagged hazardous")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json"), "test"); err == nil {
		t.Error("expected error for invalid JSON")
	}
	if _, err := Parse([]byte(`{"near_earth_objects": {}}`), "test"); err == nil {
		t.Error("expected error for empty feed")
	}
}

func TestObjectParameters(t *testing.T) {
	ds, err := Parse([]byte(sampleFeed), "test")
	if err != nil {
		t.Fatal(err)
	}
	p := ds.Objects[0].Parameters()
	p.Normalize()
	if err := p.Validate(); err != nil {
		t.Errorf("feed object produced invalid parameters: %v", err)
	}
	if !p.LiveData {
		t.Error("feed parameters not marked live")
	}
}

func TestFallbackParameters(t *testing.T) {
	fb := Fallback()
	if !fb.Fallback {
		t.Error("fallback dataset not flagged")
	}
	for _, o := range fb.Objects {
		p := o.Parameters()
		p.Normalize()
		if err := p.Validate(); err != nil {
			t.Errorf("fallback object %s produces invalid parameters: %v", o.Name, err)
		}
	}
}
