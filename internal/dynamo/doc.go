// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the fundamental interfaces and types for numerical
// integration of ordinary differential equations (ODEs):
//
//   - [State]: vector representing a phase-space point
//   - [System]: interface for ODE systems (dX/dt = f(X, t))
//   - [Integrator], [AdaptiveIntegrator]: numerical steppers
//   - [Result]: the sampled trajectory produced by a run
//
// # Example
//
//	dyn := physics.NewQuartic()
//	s := sim.New(dyn, integrators.NewRK45())
//	result, err := s.Run(ctx, dyn.DefaultState(), dynamo.DefaultConfig())
//
// A [Result] is never modified after the run that produced it returns, so it
// may be shared freely between presentation and export code.
package dynamo
