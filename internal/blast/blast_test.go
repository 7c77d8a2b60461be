package blast

import (
	"math"
	"testing"
)

// TestRingOrdering verifies lethal ≤ severe ≤ moderate ≤ light over a wide
// energy range.
func TestRingOrdering(t *testing.T) {
	for _, e := range []float64{1e10, 1e15, 4.184e15, 1e20, 1e24} {
		fx := Compute(e, e)
		r := fx.BlastRadius
		if !(r.Lethal <= r.Severe && r.Severe <= r.Moderate && r.Moderate <= r.Light) {
			t.Errorf("energy %g: ring ordering violated: %+v", e, r)
		}
		if r.Lethal <= 0 {
			t.Errorf("energy %g: lethal radius %g, want > 0", e, r.Lethal)
		}
	}
}

// TestCubeRootLaw verifies ring radius doubles for 8x energy.
func TestCubeRootLaw(t *testing.T) {
	r1 := RadiusAtOverpressure(1e15, LethalOverpressure)
	r8 := RadiusAtOverpressure(8e15, LethalOverpressure)
	if math.Abs(r8/r1-2.0) > 1e-9 {
		t.Errorf("8x energy radius ratio = %g, want 2.0", r8/r1)
	}
}

// TestOverpressureAtDistance checks the ring radii are consistent with the
// continuous overpressure function and the distance→0 edge case.
func TestOverpressureAtDistance(t *testing.T) {
	fx := Compute(1e18, 1e18)

	// At the lethal ring radius the overpressure equals the threshold.
	p := fx.OverpressureAt(fx.BlastRadius.Lethal)
	if math.Abs(p-LethalOverpressure)/LethalOverpressure > 1e-9 {
		t.Errorf("overpressure at lethal radius = %g, want %g", p, LethalOverpressure)
	}

	// Monotonic decay with distance.
	if fx.OverpressureAt(1000) <= fx.OverpressureAt(10000) {
		t.Error("overpressure does not decay with distance")
	}

	// Distance zero reports +Inf, never NaN.
	if !math.IsInf(fx.OverpressureAt(0), 1) {
		t.Errorf("overpressure at 0 = %g, want +Inf", fx.OverpressureAt(0))
	}
}

// TestSeismicMagnitude checks the log law, its floor, and the airburst
// split between total and coupled energy.
func TestSeismicMagnitude(t *testing.T) {
	// log10(1e15)/1.5 - 3.2 = 10 - 3.2 = 6.8.
	if m := SeismicMagnitude(1e15); math.Abs(m-6.8) > 1e-9 {
		t.Errorf("magnitude(1e15 J) = %g, want 6.8", m)
	}

	// Tiny energies floor at zero, never negative.
	if m := SeismicMagnitude(1); m != 0 {
		t.Errorf("magnitude(1 J) = %g, want 0", m)
	}
	if m := SeismicMagnitude(0); m != 0 {
		t.Errorf("magnitude(0 J) = %g, want 0", m)
	}

	// An airburst couples little energy to the ground: the magnitude must
	// reflect the coupled energy, not the full release.
	fx := Compute(2e15, 2e11)
	if fx.SeismicMagnitude >= SeismicMagnitude(2e15) {
		t.Errorf("airburst magnitude %g not below full-coupling %g",
			fx.SeismicMagnitude, SeismicMagnitude(2e15))
	}
}

// TestThermalRadiusGrowsWithEnergy verifies the power law direction.
func TestThermalRadiusGrowsWithEnergy(t *testing.T) {
	small := Compute(4.184e15, 0)  // 1 Mt
	large := Compute(4.184e18, 0)  // 1000 Mt
	if large.ThermalRadius <= small.ThermalRadius {
		t.Errorf("thermal radius did not grow: %g vs %g", small.ThermalRadius, large.ThermalRadius)
	}
	if math.Abs(small.ThermalRadius-thermalCoefficient) > 1e-6 {
		t.Errorf("thermal radius at 1 Mt = %g, want %g", small.ThermalRadius, thermalCoefficient)
	}
}
