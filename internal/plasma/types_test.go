package plasma

import (
	"errors"
	"math"
	"sync/atomic"
	"testing"
)

func TestVec3_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		vec   Vec3
		valid bool
	}{
		{"zeros", Vec3{}, true},
		{"normal", Vec3{1, 2, 3}, true},
		{"with NaN", Vec3{1, math.NaN(), 0}, false},
		{"with +Inf", Vec3{math.Inf(1), 0, 0}, false},
		{"with -Inf", Vec3{0, 0, math.Inf(-1)}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vec.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestVec3_Arithmetic(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	if got := a.Add(b); got != (Vec3{5, 7, 9}) {
		t.Errorf("Add failed: got %v", got)
	}
	if got := b.Sub(a); got != (Vec3{3, 3, 3}) {
		t.Errorf("Sub failed: got %v", got)
	}
	if got := a.Scale(2); got != (Vec3{2, 4, 6}) {
		t.Errorf("Scale failed: got %v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot = %v, want 32", got)
	}
	if got := (Vec3{1, 0, 0}).Cross(Vec3{0, 1, 0}); got != (Vec3{0, 0, 1}) {
		t.Errorf("Cross(x, y) = %v, want z", got)
	}
	if got := (Vec3{3, 4, 0}).Norm(); math.Abs(got-5) > 1e-12 {
		t.Errorf("Norm = %v, want 5", got)
	}
}

func TestLookupSpecies(t *testing.T) {
	tests := []struct {
		name   string
		charge float64
	}{
		{"p", ElementaryCharge},
		{"e-", -ElementaryCharge},
		{"He-4 2+", 2 * ElementaryCharge},
		{" D+ ", ElementaryCharge},
	}

	for _, tt := range tests {
		s, err := LookupSpecies(tt.name)
		if err != nil {
			t.Fatalf("LookupSpecies(%q): %v", tt.name, err)
		}
		if s.Charge != tt.charge {
			t.Errorf("LookupSpecies(%q).Charge = %g, want %g", tt.name, s.Charge, tt.charge)
		}
	}

	if _, err := LookupSpecies("muon"); !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("expected ErrUnknownSpecies, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero dt", Config{Dt: 0, Duration: 1}},
		{"negative dt", Config{Dt: -1, Duration: 1}},
		{"zero duration", Config{Dt: 1, Duration: 0}},
		{"negative snapshot", Config{Dt: 1, Duration: 1, SnapshotEvery: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig invalid: %v", err)
	}
}

func TestConfigSteps(t *testing.T) {
	cfg := Config{Dt: 1e-5, Duration: 1e-4}
	if got := cfg.Steps(); got != 10 {
		t.Errorf("Steps() = %d, want 10", got)
	}
}

func TestSolutionVectorNorm(t *testing.T) {
	sol := NewSolution(Proton, "boris", 2)
	x := []Vec3{{3, 4, 0}, {0, 0, 2}}
	zero := []Vec3{{}, {}}
	sol.Record(0, x, x, zero, zero)

	norms, err := sol.VectorNorm(KeyPosition)
	if err != nil {
		t.Fatalf("VectorNorm: %v", err)
	}
	if norms[0][0] != 5 || norms[0][1] != 2 {
		t.Errorf("VectorNorm(x) = %v", norms)
	}

	bn, err := sol.VectorNorm(KeyBField)
	if err != nil {
		t.Fatalf("VectorNorm: %v", err)
	}
	if bn[0][0] != 0 || bn[0][1] != 0 {
		t.Errorf("VectorNorm(B) = %v, want zeros", bn)
	}

	if _, err := sol.VectorNorm("rho"); !errors.Is(err, ErrUnknownQuantity) {
		t.Errorf("expected ErrUnknownQuantity, got %v", err)
	}
}

func TestSolutionRecordCopies(t *testing.T) {
	sol := NewSolution(Proton, "boris", 1)
	x := []Vec3{{1, 2, 3}}
	sol.Record(0, x, x, x, x)
	x[0][0] = 99

	if sol.X[0][0][0] == 99 {
		t.Error("Record did not copy positions")
	}
}

func TestSolutionComponent(t *testing.T) {
	sol := NewSolution(Proton, "boris", 2)
	sol.Record(0, []Vec3{{1, 2, 3}}, []Vec3{{}}, []Vec3{{}}, []Vec3{{}})
	sol.Record(1, []Vec3{{4, 5, 6}}, []Vec3{{}}, []Vec3{{}}, []Vec3{{}})

	ys, err := sol.Component(KeyPosition, 0, 1)
	if err != nil {
		t.Fatalf("Component: %v", err)
	}
	if ys[0] != 2 || ys[1] != 5 {
		t.Errorf("Component = %v, want [2 5]", ys)
	}

	if _, err := sol.Component(KeyPosition, 3, 0); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestParallelFor(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		var sum atomic.Int64
		ParallelFor(n, 8, 4, func(start, end int) {
			for i := start; i < end; i++ {
				sum.Add(int64(i))
			}
		})
		want := int64(n * (n - 1) / 2)
		if sum.Load() != want {
			t.Errorf("n=%d: sum = %d, want %d", n, sum.Load(), want)
		}
	}
}

func TestTrackError(t *testing.T) {
	err := &TrackError{Step: 3, Time: 1.5e-6, Particle: 2, Wrapped: ErrInvalidState}
	if !errors.Is(err, ErrInvalidState) {
		t.Error("TrackError does not unwrap to ErrInvalidState")
	}
	want := "step 3 (t=1.5000e-06 s) particle 2: plasma: invalid particle state (NaN or Inf detected)"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
