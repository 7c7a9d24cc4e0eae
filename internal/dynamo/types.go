package dynamo

import "math"

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// System is an autonomous or time-dependent ODE dX/dt = f(X, t).
type System interface {
	Derive(x State, t float64) State
	StateDim() int
}

type Hamiltonian interface {
	Energy(x State) float64
}

type Integrator interface {
	Step(dyn System, x State, t float64, dt float64) State
}

// StepControl bounds a single adaptive step.
type StepControl struct {
	Rtol    float64
	Atol    float64
	MaxStep float64
	MinStep float64
	End     float64
}

// Step is the outcome of one accepted adaptive step.
type Step struct {
	X        State
	T        float64
	Next     float64
	Rejected int
}

type AdaptiveIntegrator interface {
	Integrator
	InitialStep(dyn System, x0 State, t0 float64, ctl StepControl) float64
	StepAdaptive(dyn System, x State, t, h float64, ctl StepControl) (Step, error)
}

type Metric interface {
	Name() string
	Observe(x State, t float64)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(x State, t float64)
}

type Config struct {
	Duration      float64
	MaxStep       float64
	FirstStep     float64
	MinStep       float64
	Rtol          float64
	Atol          float64
	ValidateState bool
}

func DefaultConfig() Config {
	return Config{
		Duration:      10.0,
		MaxStep:       0.01,
		Rtol:          1e-3,
		Atol:          1e-6,
		ValidateState: true,
	}
}

// Control derives the per-step bounds for a run starting at t=0.
func (c Config) Control() StepControl {
	return StepControl{
		Rtol:    c.Rtol,
		Atol:    c.Atol,
		MaxStep: c.MaxStep,
		MinStep: c.MinStep,
		End:     c.Duration,
	}
}

type Result struct {
	States      []State
	Times       []float64
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
	Rejected    int
	Evaluations int
}

func (r *Result) Len() int { return len(r.Times) }

// Component returns the i-th state coordinate across all samples.
func (r *Result) Component(i int) []float64 {
	out := make([]float64, len(r.States))
	for k, s := range r.States {
		if i < len(s) {
			out[k] = s[i]
		}
	}
	return out
}

func (r *Result) Final() State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}
