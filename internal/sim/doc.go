// Package sim runs a [dynamo.System] through an integrator and records the
// resulting trajectory.
//
// Adaptive integrators ([dynamo.AdaptiveIntegrator]) choose their own steps
// bounded by the configured maximum; any other integrator is stepped at
// exactly the maximum step. Either way the last sample lands on the
// configured end time. A Simulator is not safe for concurrent use.
package sim
