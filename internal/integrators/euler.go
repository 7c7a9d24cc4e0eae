package integrators

import (
	"github.com/san-kum/quartic/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Euler is the explicit first-order method. It is kept as a baseline for
// comparing integrator error, not for production runs.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	next := make(dynamo.State, len(x))
	floats.AddScaledTo(next, x, dt, dyn.Derive(x, t))
	return next
}
