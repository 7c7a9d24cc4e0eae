package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/quartic/internal/dynamo"
)

type harmonicOscillator struct{}

func (h *harmonicOscillator) StateDim() int { return 2 }

func (h *harmonicOscillator) Derive(x dynamo.State, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (h *harmonicOscillator) Energy(x dynamo.State) float64 {
	return 0.5 * (x[0]*x[0] + x[1]*x[1])
}

func TestRK4Accuracy(t *testing.T) {
	dyn := &harmonicOscillator{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-4 {
		t.Errorf("position error too large: got %.6f, expected %.6f", x[0], expectedX)
	}

	if math.Abs(x[1]-expectedV) > 1e-4 {
		t.Errorf("velocity error too large: got %.6f, expected %.6f", x[1], expectedV)
	}
}

func TestRK4DoesNotMutateInput(t *testing.T) {
	integ := NewRK4()
	x := dynamo.State{1.0, 0.0}
	_ = integ.Step(&harmonicOscillator{}, x, 0, 0.1)
	if x[0] != 1.0 || x[1] != 0.0 {
		t.Errorf("Step mutated input state: %v", x)
	}
}

func TestRK4FourthOrder(t *testing.T) {
	dyn := &harmonicOscillator{}
	exact := math.Cos(1)

	errAt := func(dt float64) float64 {
		x := integrate(NewRK4(), dyn, dynamo.State{1, 0}, dt, int(math.Round(1/dt)))
		return math.Abs(x[0] - exact)
	}

	ratio := errAt(0.1) / errAt(0.05)
	if ratio < 14 || ratio > 18 {
		t.Errorf("expected error ratio near 16 when halving dt, got %.3f", ratio)
	}
}

// sharedBuffer writes every derivative into the same slice.
type sharedBuffer struct {
	out dynamo.State
}

func (s *sharedBuffer) StateDim() int { return 2 }

func (s *sharedBuffer) Derive(x dynamo.State, t float64) dynamo.State {
	s.out[0], s.out[1] = x[1], -x[0]
	return s.out
}

func TestRK4SharedDerivativeBuffer(t *testing.T) {
	x0 := dynamo.State{1, 0}
	want := NewRK4().Step(&harmonicOscillator{}, x0, 0, 0.1)
	got := NewRK4().Step(&sharedBuffer{out: make(dynamo.State, 2)}, x0, 0, 0.1)

	for i := range want {
		if got[i] != want[i] {
			t.Errorf("component %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}
