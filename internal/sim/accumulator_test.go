package sim

import (
	"math"
	"testing"
)

func TestAccumulatorCarriesRemainder(t *testing.T) {
	a := NewAccumulator(0.01)

	if n := a.Advance(0.025); n != 2 {
		t.Errorf("Advance(0.025) = %d, want 2", n)
	}
	if r := a.Remainder(); math.Abs(r-0.005) > 1e-12 {
		t.Errorf("remainder = %v, want 0.005", r)
	}
	if n := a.Advance(0.006); n != 1 {
		t.Errorf("Advance(0.006) = %d, want 1", n)
	}
	if r := a.Remainder(); math.Abs(r-0.001) > 1e-12 {
		t.Errorf("remainder = %v, want 0.001", r)
	}
}

func TestAccumulatorIgnoresBadInput(t *testing.T) {
	a := NewAccumulator(0.01)
	for _, e := range []float64{0, -1, math.NaN()} {
		if n := a.Advance(e); n != 0 {
			t.Errorf("Advance(%v) = %d", e, n)
		}
	}
	if a.Remainder() != 0 {
		t.Errorf("remainder = %v", a.Remainder())
	}
}

func TestAccumulatorMaxSteps(t *testing.T) {
	a := NewAccumulator(0.1)
	a.SetMaxSteps(3)

	if n := a.Advance(1.05); n != 3 {
		t.Errorf("Advance = %d, want 3", n)
	}
	if d := a.Dropped(); math.Abs(d-0.7) > 1e-9 {
		t.Errorf("dropped = %v, want 0.7", d)
	}
	if r := a.Remainder(); math.Abs(r-0.05) > 1e-9 {
		t.Errorf("remainder = %v, want 0.05", r)
	}

	a.Reset()
	if a.Remainder() != 0 || a.Dropped() != 0 {
		t.Error("Reset left state behind")
	}
}

func TestAccumulatorTotalSteps(t *testing.T) {
	a := NewAccumulator(1.0 / 60)
	total := 0
	for i := 0; i < 100; i++ {
		total += a.Advance(1.0 / 30)
	}
	if total < 199 || total > 200 {
		t.Errorf("total steps = %d, want ~200", total)
	}
}
