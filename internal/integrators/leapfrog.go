package integrators

import "github.com/san-kum/quartic/internal/dynamo"

// Leapfrog is the kick-drift-kick Störmer–Verlet scheme for separable
// Hamiltonian systems whose state is laid out as (q..., p...), with dq/dt
// depending only on p and dp/dt only on q. It is symplectic, so energy error
// stays bounded over long runs.
type Leapfrog struct {
	scratch dynamo.State
}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	n := len(x)
	half := n / 2
	if len(l.scratch) != n {
		l.scratch = make(dynamo.State, n)
	}
	halfDt := 0.5 * dt

	// kick
	d0 := dyn.Derive(x, t)
	copy(l.scratch[:half], x[:half])
	for i := half; i < n; i++ {
		l.scratch[i] = x[i] + halfDt*d0[i]
	}

	// drift
	d1 := dyn.Derive(l.scratch, t+halfDt)
	result := make(dynamo.State, n)
	for i := 0; i < half; i++ {
		result[i] = x[i] + dt*d1[i]
		l.scratch[i] = result[i]
	}

	// kick
	d2 := dyn.Derive(l.scratch, t+dt)
	for i := half; i < n; i++ {
		result[i] = l.scratch[i] + halfDt*d2[i]
	}

	return result
}
