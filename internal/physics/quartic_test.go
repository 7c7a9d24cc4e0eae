package physics

import (
	"math"
	"testing"

	"github.com/san-kum/quartic/internal/dynamo"
)

func TestQuarticDerive(t *testing.T) {
	q := NewQuartic()

	tests := []struct {
		name   string
		x, p   float64
		dx, dp float64
	}{
		{"turning point", 1, 0, 0, -4},
		{"origin moving", 0, 1, 2, 0},
		{"generic", 2, 3, 6, -32},
		{"negative", -1, -0.5, -1, 4},
		{"rest", 0, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := q.Derive(dynamo.State{tt.x, tt.p}, 0)
			if len(d) != 2 {
				t.Fatalf("expected 2 components, got %d", len(d))
			}
			if d[0] != tt.dx || d[1] != tt.dp {
				t.Errorf("expected (%g, %g), got (%g, %g)", tt.dx, tt.dp, d[0], d[1])
			}
		})
	}
}

func TestQuarticDeriveIgnoresTime(t *testing.T) {
	q := NewQuartic()
	x := dynamo.State{0.7, -0.3}

	a := q.Derive(x, 0)
	b := q.Derive(x, 123.4)
	if a[0] != b[0] || a[1] != b[1] {
		t.Errorf("autonomous system depends on t: %v vs %v", a, b)
	}
	if x[0] != 0.7 || x[1] != -0.3 {
		t.Errorf("Derive mutated its input: %v", x)
	}
}

func TestQuarticDeriveBatch(t *testing.T) {
	q := NewQuartic()
	xs := []float64{1, 0, 2, -1.5}
	ps := []float64{0, 1, 3, 0.25}

	dxs, dps := q.DeriveBatch(xs, ps, 0)
	for i := range xs {
		d := q.Derive(dynamo.State{xs[i], ps[i]}, 0)
		if dxs[i] != d[0] || dps[i] != d[1] {
			t.Errorf("column %d: batch (%g, %g) != scalar (%g, %g)", i, dxs[i], dps[i], d[0], d[1])
		}
	}

	// perturbing one column leaves the others untouched
	xs[2] = 100
	dxs2, dps2 := q.DeriveBatch(xs, ps, 0)
	for i := range xs {
		if i == 2 {
			continue
		}
		if dxs2[i] != dxs[i] || dps2[i] != dps[i] {
			t.Errorf("column %d changed after perturbing column 2", i)
		}
	}
}

func TestQuarticDeriveBatchMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic on mismatched columns")
		}
	}()
	NewQuartic().DeriveBatch([]float64{1, 2}, []float64{1}, 0)
}

func TestQuarticEnergy(t *testing.T) {
	q := NewQuartic()

	if e := q.Energy(q.DefaultState()); e != 1 {
		t.Errorf("expected initial energy 1, got %f", e)
	}
	if e := q.Energy(dynamo.State{2, 3}); e != 25 {
		t.Errorf("expected energy 25, got %f", e)
	}
}

func TestQuarticDefaultState(t *testing.T) {
	q := NewQuartic()
	if q.StateDim() != 2 {
		t.Errorf("expected state dim 2, got %d", q.StateDim())
	}
	s := q.DefaultState()
	if s[0] != 1 || s[1] != 0 {
		t.Errorf("expected (1, 0), got %v", s)
	}
}

func TestQuarticPeriod(t *testing.T) {
	q := NewQuartic()

	if got := q.Period(1); math.Abs(got-2.6220575542921198) > 1e-12 {
		t.Errorf("expected period 2.62205755, got %.12f", got)
	}

	// T scales as E^(-1/4)
	if got := q.Period(16); math.Abs(got-q.Period(1)/2) > 1e-12 {
		t.Errorf("expected half period at E=16, got %f", got)
	}

	if !math.IsInf(q.Period(0), 1) {
		t.Error("expected infinite period at rest")
	}
}
