package analysis

import (
	"errors"
	"fmt"
)

// ErrNoPeriod indicates a signal with fewer than two upward zero crossings.
var ErrNoPeriod = errors.New("analysis: signal has fewer than two upward zero crossings")

// ZeroCrossings returns the interpolated times at which values changes sign
// from negative to non-negative.
func ZeroCrossings(times, values []float64) []float64 {
	n := min(len(times), len(values))
	crossings := make([]float64, 0)
	for i := 1; i < n; i++ {
		v0, v1 := values[i-1], values[i]
		if v0 < 0 && v1 >= 0 {
			frac := -v0 / (v1 - v0)
			crossings = append(crossings, times[i-1]+frac*(times[i]-times[i-1]))
		}
	}
	return crossings
}

// Period estimates the oscillation period of a sampled signal as the mean
// spacing of its upward zero crossings.
func Period(times, values []float64) (float64, error) {
	if len(times) != len(values) {
		return 0, fmt.Errorf("analysis: %d times but %d values", len(times), len(values))
	}
	c := ZeroCrossings(times, values)
	if len(c) < 2 {
		return 0, ErrNoPeriod
	}
	return (c[len(c)-1] - c[0]) / float64(len(c)-1), nil
}
