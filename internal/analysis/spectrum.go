package analysis

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// ErrShortSignal indicates a signal too short for spectral analysis.
var ErrShortSignal = errors.New("analysis: signal too short for spectrum")

// Resample linearly interpolates values onto n evenly spaced points spanning
// [times[0], times[len-1]]. times must be increasing.
func Resample(times, values []float64, n int) []float64 {
	out := make([]float64, n)
	if len(times) == 0 || n == 0 {
		return out
	}
	if n == 1 || len(times) == 1 {
		for i := range out {
			out[i] = values[0]
		}
		return out
	}

	t0, t1 := times[0], times[len(times)-1]
	dt := (t1 - t0) / float64(n-1)
	j := 0
	for i := range out {
		t := t0 + float64(i)*dt
		if i == n-1 {
			t = t1
		}
		for j < len(times)-2 && times[j+1] < t {
			j++
		}
		span := times[j+1] - times[j]
		if span == 0 {
			out[i] = values[j+1]
			continue
		}
		frac := (t - times[j]) / span
		out[i] = values[j] + frac*(values[j+1]-values[j])
	}
	return out
}

// PowerSpectrum returns the magnitudes of the one-sided Fourier coefficients
// of the mean-removed signal.
func PowerSpectrum(values []float64) []float64 {
	centered := make([]float64, len(values))
	mean := stat.Mean(values, nil)
	for i, v := range values {
		centered[i] = v - mean
	}

	fft := fourier.NewFFT(len(values))
	coeff := fft.Coefficients(nil, centered)
	mag := make([]float64, len(coeff))
	for i, c := range coeff {
		mag[i] = cmplx.Abs(c)
	}
	return mag
}

// DominantPeriod estimates the period of the strongest non-constant Fourier
// component, refined by parabolic interpolation around the peak bin.
func DominantPeriod(times, values []float64) (float64, error) {
	n := min(len(times), len(values))
	if n < 8 || times[n-1] <= times[0] {
		return 0, ErrShortSignal
	}

	uniform := Resample(times[:n], values[:n], n)
	dt := (times[n-1] - times[0]) / float64(n-1)
	mag := PowerSpectrum(uniform)

	peak := 1
	for k := 2; k < len(mag); k++ {
		if mag[k] > mag[peak] {
			peak = k
		}
	}
	if mag[peak] == 0 {
		return 0, ErrNoPeriod
	}

	bin := float64(peak)
	if peak+1 < len(mag) {
		a, b, c := mag[peak-1], mag[peak], mag[peak+1]
		if denom := a - 2*b + c; denom != 0 {
			bin += 0.5 * (a - c) / denom
		}
	}

	return float64(n) * dt / bin, nil
}
