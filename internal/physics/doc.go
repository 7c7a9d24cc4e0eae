// Package physics provides the quartic oscillator H = p² + x⁴.
//
// [Quartic] implements [dynamo.System] and [dynamo.Hamiltonian]. Its vector
// field is (dx/dt, dp/dt) = (2p, -4x³), and [Quartic.DeriveBatch] evaluates
// it over many phase points at once for plotting direction fields.
//
// The exact period at energy E is available from [Quartic.Period]:
//
//	q := physics.NewQuartic()
//	e := q.Energy(dynamo.State{1, 0})
//	t := q.Period(e) // ≈ 2.62206
package physics
