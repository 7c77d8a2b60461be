package metrics

import "testing"

func TestNormalizeRoute(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		// Known exact routes.
		{"/healthz", "/healthz"},
		{"/readyz", "/readyz"},
		{"/metrics", "/metrics"},
		{"/api/v1/impact/calculate", "/api/v1/impact/calculate"},
		{"/api/meteors/calculate-impact", "/api/meteors/calculate-impact"},
		{"/api/v1/simulations/run", "/api/v1/simulations/run"},
		{"/api/v1/stream/trajectory", "/api/v1/stream/trajectory"},

		// Parameterized simulation routes collapse to one label.
		{"/api/v1/simulations/6a1f6e0e-1111-2222-3333-444455556666", "/api/v1/simulations/{id}"},
		{"/api/v1/simulations/abc", "/api/v1/simulations/{id}"},

		// Unknown/bot paths collapse to "other".
		{"/wp-admin", "other"},
		{"/.env", "other"},
		{"/favicon.ico", "other"},
		{"/api/v2/something", "other"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got := normalizeRoute(tt.path)
			if got != tt.want {
				t.Errorf("normalizeRoute(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

// TestSimulationLabelCardinality verifies many run IDs produce a single
// path label.
func TestSimulationLabelCardinality(t *testing.T) {
	seen := make(map[string]bool)
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		seen[normalizeRoute("/api/v1/simulations/"+id)] = true
	}
	if len(seen) != 1 {
		t.Errorf("expected 1 unique label, got %d: %v", len(seen), seen)
	}
}
