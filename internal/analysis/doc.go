// Package analysis measures properties of sampled trajectories.
//
// [Period] locates upward zero crossings by linear interpolation and averages
// their spacing. [DominantPeriod] gives an independent estimate from the
// Fourier spectrum of the resampled signal. [Summarize] collects both with
// energy and range statistics for a finished run:
//
//	s, err := analysis.Summarize(res, physics.NewQuartic())
//	fmt.Printf("period %.6f (exact %.6f)\n", s.Period, s.ExactPeriod)
package analysis
