package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/quartic/internal/dynamo"
)

type Simulator struct {
	dyn        dynamo.System
	integrator dynamo.Integrator
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
	logger     *slog.Logger
}

func New(dyn dynamo.System, integrator dynamo.Integrator) *Simulator {
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
		logger:     slog.Default(),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }
func (s *Simulator) SetLogger(l *slog.Logger)      { s.logger = l }

// Run integrates from x0 at t=0 to cfg.Duration and records every accepted
// sample. On error the partial trajectory recorded so far is returned with it.
func (s *Simulator) Run(ctx context.Context, x0 dynamo.State, cfg dynamo.Config) (*dynamo.Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	estimate := int(cfg.Duration/cfg.MaxStep) + 2
	result := &dynamo.Result{
		States:  make([]dynamo.State, 0, estimate),
		Times:   make([]float64, 0, estimate),
		Metrics: make(map[string]float64),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	dyn := &countingSystem{System: s.dyn}
	s.record(result, x0.Clone(), 0)
	initialEnergy := s.computeEnergy(x0)

	s.logger.Debug("simulation started",
		"integrator", fmt.Sprintf("%T", s.integrator),
		"duration", cfg.Duration,
		"max_step", cfg.MaxStep,
		"rtol", cfg.Rtol,
		"atol", cfg.Atol,
	)

	var err error
	if adaptive, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok {
		err = s.runAdaptive(ctx, adaptive, dyn, result, cfg)
	} else {
		err = s.runFixed(ctx, dyn, result, cfg)
	}

	result.Evaluations = dyn.calls

	finalEnergy := s.computeEnergy(result.Final())
	result.EnergyDrift = math.Abs(finalEnergy - initialEnergy)
	if initialEnergy != 0 {
		result.EnergyDrift /= math.Abs(initialEnergy)
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	s.logger.Debug("simulation finished",
		"samples", result.Len(),
		"steps", result.StepsTaken,
		"rejected", result.Rejected,
		"evaluations", result.Evaluations,
		"energy_drift", result.EnergyDrift,
	)

	return result, err
}

func (s *Simulator) runAdaptive(ctx context.Context, integ dynamo.AdaptiveIntegrator, dyn dynamo.System, result *dynamo.Result, cfg dynamo.Config) error {
	ctl := cfg.Control()
	x := result.Final()
	t := 0.0

	h := cfg.FirstStep
	if h <= 0 {
		h = integ.InitialStep(dyn, x, t, ctl)
	}

	for i := 0; t < cfg.Duration; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		step, err := integ.StepAdaptive(dyn, x, t, h, ctl)
		result.Rejected += step.Rejected
		if err != nil {
			return &dynamo.SimulationError{Step: i, Time: t, State: x.Clone(), Wrapped: err}
		}

		if cfg.ValidateState && !step.X.IsValid() {
			return &dynamo.SimulationError{Step: i, Time: step.T, State: step.X, Wrapped: dynamo.ErrUnstable}
		}

		x, t, h = step.X, step.T, step.Next
		result.StepsTaken++
		s.record(result, x, t)
	}

	return nil
}

// runFixed advances in steps of cfg.MaxStep. Sample times are computed as
// multiples of the step, not accumulated, and the last one is cfg.Duration.
func (s *Simulator) runFixed(ctx context.Context, dyn dynamo.System, result *dynamo.Result, cfg dynamo.Config) error {
	x := result.Final()
	t := 0.0
	steps := int(math.Ceil(cfg.Duration/cfg.MaxStep - 1e-9))

	for i := 1; i <= steps; i++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		tNew := math.Min(float64(i)*cfg.MaxStep, cfg.Duration)
		if i == steps {
			tNew = cfg.Duration
		}

		newX := s.integrator.Step(dyn, x, t, tNew-t)
		if cfg.ValidateState && !newX.IsValid() {
			return &dynamo.SimulationError{Step: i - 1, Time: t, State: newX, Wrapped: dynamo.ErrUnstable}
		}

		x, t = newX, tNew
		result.StepsTaken++
		s.record(result, x, t)
	}

	return nil
}

func (s *Simulator) record(result *dynamo.Result, x dynamo.State, t float64) {
	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	for _, m := range s.metrics {
		m.Observe(x, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, t)
	}
}

func (s *Simulator) validate(x0 dynamo.State, cfg dynamo.Config) error {
	if math.IsNaN(cfg.Duration) || cfg.Duration < 0 {
		return fmt.Errorf("%w: duration must be non-negative, got %f", dynamo.ErrInvalidConfig, cfg.Duration)
	}
	if !(cfg.MaxStep > 0) {
		return fmt.Errorf("%w: max step must be positive, got %f", dynamo.ErrInvalidConfig, cfg.MaxStep)
	}
	if _, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok {
		if !(cfg.Rtol > 0) || !(cfg.Atol > 0) {
			return fmt.Errorf("%w: tolerances must be positive for adaptive stepping", dynamo.ErrInvalidConfig)
		}
	}
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("%w: state has %d components, system expects %d", dynamo.ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	if !x0.IsValid() {
		return fmt.Errorf("initial state %v: %w", x0, dynamo.ErrInvalidState)
	}
	return nil
}

func (s *Simulator) computeEnergy(x dynamo.State) float64 {
	if h, ok := s.dyn.(dynamo.Hamiltonian); ok {
		return h.Energy(x)
	}
	return 0
}

// countingSystem counts derivative evaluations made by the integrator.
type countingSystem struct {
	dynamo.System
	calls int
}

func (c *countingSystem) Derive(x dynamo.State, t float64) dynamo.State {
	c.calls++
	return c.System.Derive(x, t)
}
