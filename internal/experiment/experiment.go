package experiment

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/quartic/internal/config"
	"github.com/san-kum/quartic/internal/dynamo"
	"github.com/san-kum/quartic/internal/metrics"
	"github.com/san-kum/quartic/internal/physics"
	"github.com/san-kum/quartic/internal/sim"
)

// Experiment binds a validated config to a ready-to-run simulator for the
// quartic oscillator.
type Experiment struct {
	cfg       *config.Config
	system    *physics.Quartic
	simulator *sim.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg, system: physics.NewQuartic()}
}

func (e *Experiment) Setup(registry *Registry, logger *slog.Logger) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	integ, err := registry.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}

	e.simulator = sim.New(e.system, integ)
	e.simulator.AddMetric(metrics.NewEnergyDrift(e.system))
	if logger != nil {
		e.simulator.SetLogger(logger)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.cfg.InitialState(), e.cfg.SimConfig())
}

func (e *Experiment) Config() *config.Config { return e.cfg }

func (e *Experiment) System() *physics.Quartic { return e.system }

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator {
	return e.simulator
}
