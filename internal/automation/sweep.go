// Package automation runs batches of experiments described in YAML.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/san-kum/quartic/internal/analysis"
	"github.com/san-kum/quartic/internal/config"
	"github.com/san-kum/quartic/internal/experiment"
	"gopkg.in/yaml.v3"
)

var ErrInvalidSweep = errors.New("invalid sweep")

// Sweep varies the initial position across a range, starting every run at
// rest, and measures the oscillation period at each amplitude.
type Sweep struct {
	Name        string  `yaml:"name"`
	Integrator  string  `yaml:"integrator"`
	EndTime     float64 `yaml:"end_time"`
	MaxStep     float64 `yaml:"max_step"`
	PositionMin float64 `yaml:"position_min"`
	PositionMax float64 `yaml:"position_max"`
	NumSteps    int     `yaml:"num_steps"`
}

func DefaultSweep() *Sweep {
	return &Sweep{
		Name:        "amplitude",
		Integrator:  config.DefaultIntegrator,
		EndTime:     20,
		MaxStep:     config.DefaultMaxStep,
		PositionMin: 0.5,
		PositionMax: 2,
		NumSteps:    7,
	}
}

// LoadSweep reads a sweep file. Fields missing from the file keep the
// values of DefaultSweep.
func LoadSweep(path string) (*Sweep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	sweep := DefaultSweep()
	if err := yaml.Unmarshal(data, sweep); err != nil {
		return nil, fmt.Errorf("parse sweep %s: %w", path, err)
	}
	return sweep, nil
}

func (s *Sweep) Validate() error {
	switch {
	case s.NumSteps < 1:
		return fmt.Errorf("%w: num_steps %d must be at least 1", ErrInvalidSweep, s.NumSteps)
	case s.NumSteps > 1 && s.PositionMax <= s.PositionMin:
		return fmt.Errorf("%w: position_max %v must exceed position_min %v", ErrInvalidSweep, s.PositionMax, s.PositionMin)
	}
	return nil
}

// Positions returns NumSteps evenly spaced initial positions.
func (s *Sweep) Positions() []float64 {
	if s.NumSteps == 1 {
		return []float64{s.PositionMin}
	}
	out := make([]float64, s.NumSteps)
	step := (s.PositionMax - s.PositionMin) / float64(s.NumSteps-1)
	for i := range out {
		out[i] = s.PositionMin + float64(i)*step
	}
	out[len(out)-1] = s.PositionMax
	return out
}

// Configs expands the sweep into one run configuration per position.
func (s *Sweep) Configs() ([]*config.Config, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	positions := s.Positions()
	cfgs := make([]*config.Config, len(positions))
	for i, x0 := range positions {
		cfg := config.DefaultConfig()
		cfg.Name = fmt.Sprintf("%s_%d", s.Name, i)
		cfg.Integrator = s.Integrator
		cfg.EndTime = s.EndTime
		cfg.MaxStep = s.MaxStep
		cfg.InitState = config.InitStateConfig{Position: x0}
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("sweep point %d: %w", i, err)
		}
		cfgs[i] = cfg
	}
	return cfgs, nil
}

type SweepResult struct {
	Position    float64
	Energy      float64
	Period      float64
	ExactPeriod float64
	PeriodError float64
	MaxDrift    float64
	Steps       int
}

// RunSweep runs every point of the sweep in order. A failed point aborts the
// sweep and the results gathered so far are returned with the error.
func RunSweep(ctx context.Context, sweep *Sweep, registry *experiment.Registry, logger *slog.Logger) ([]SweepResult, error) {
	cfgs, err := sweep.Configs()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	results := make([]SweepResult, 0, len(cfgs))
	for i, cfg := range cfgs {
		exp := experiment.New(cfg)
		if err := exp.Setup(registry, logger); err != nil {
			return results, fmt.Errorf("sweep point %d setup: %w", i, err)
		}

		res, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("sweep point %d run: %w", i, err)
		}

		sum, err := analysis.Summarize(res, exp.System())
		if err != nil {
			return results, fmt.Errorf("sweep point %d: %w", i, err)
		}

		results = append(results, SweepResult{
			Position:    cfg.InitState.Position,
			Energy:      sum.InitialEnergy,
			Period:      sum.Period,
			ExactPeriod: sum.ExactPeriod,
			PeriodError: sum.PeriodError(),
			MaxDrift:    sum.MaxDrift,
			Steps:       sum.Steps,
		})

		logger.Info("sweep point done",
			"point", fmt.Sprintf("%d/%d", i+1, len(cfgs)),
			"position", cfg.InitState.Position,
			"period", sum.Period,
		)
	}

	return results, nil
}
