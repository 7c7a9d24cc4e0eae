package report

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/san-kum/quartic/internal/analysis"
	"github.com/san-kum/quartic/internal/automation"
	"github.com/san-kum/quartic/internal/config"
	"github.com/san-kum/quartic/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFmtFloat(t *testing.T) {
	assert.Equal(t, "-", fmtFloat(math.NaN()))
	assert.Equal(t, "inf", fmtFloat(math.Inf(1)))
	assert.Equal(t, "2.6220576", fmtFloat(2.62205755429212))
	assert.Equal(t, "1e-06", fmtFloat(1e-6))
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	s := analysis.Summary{
		Samples:       1003,
		Steps:         1002,
		EndTime:       10,
		InitialEnergy: 1,
		FinalEnergy:   1,
		Period:        2.6220576,
		ExactPeriod:   2.62205755429212,
	}
	require.NoError(t, Summary(&buf, s))

	out := buf.String()
	assert.Contains(t, out, "samples")
	assert.Contains(t, out, "1003")
	assert.Contains(t, out, "period (exact)")
	assert.Contains(t, out, "2.6220576")
}

func TestRuns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Runs(&buf, nil))
	assert.Equal(t, "no runs found\n", buf.String())

	buf.Reset()
	runs := []storage.RunMetadata{{
		ID:         "quartic_1",
		Timestamp:  time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Integrator: "rk45",
		Duration:   10,
		Samples:    1003,
	}}
	require.NoError(t, Runs(&buf, runs))
	assert.Contains(t, buf.String(), "quartic_1")
	assert.Contains(t, buf.String(), "2026-01-02 03:04:05")
}

func TestPresets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Presets(&buf, config.ListPresets()))

	for _, name := range config.ListPresets() {
		assert.Contains(t, buf.String(), name)
	}
}

func TestSweep(t *testing.T) {
	var buf bytes.Buffer
	results := []automation.SweepResult{
		{Position: 1, Energy: 1, Period: 2.6220576, ExactPeriod: 2.62205755429212, PeriodError: 2e-8, Steps: 1002},
		{Position: 0, Period: math.NaN(), ExactPeriod: math.Inf(1), PeriodError: math.NaN()},
	}
	require.NoError(t, Sweep(&buf, results))

	out := buf.String()
	assert.Contains(t, out, "2.6220576")
	assert.Contains(t, out, "1002")
	assert.Contains(t, out, "inf")
}
