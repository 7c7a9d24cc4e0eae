package physics

import (
	"math"

	"github.com/san-kum/quartic/internal/dynamo"
)

// Quartic models a unit-mass particle in the potential V(x) = x⁴ with
// Hamiltonian H = p² + x⁴, giving dx/dt = 2p and dp/dt = -4x³.
type Quartic struct {
	Position, Momentum float64
}

func NewQuartic() *Quartic {
	return &Quartic{Position: 1.0, Momentum: 0.0}
}

func (q *Quartic) StateDim() int { return 2 }

// Derive is pure; t is ignored because the system is autonomous.
func (q *Quartic) Derive(s dynamo.State, _ float64) dynamo.State {
	x, p := s[0], s[1]
	return dynamo.State{2 * p, -4 * x * x * x}
}

// DeriveBatch evaluates the equations of motion for many phase-space points
// at once. Column i of the output depends only on column i of the input.
func (q *Quartic) DeriveBatch(xs, ps []float64, _ float64) (dxs, dps []float64) {
	if len(xs) != len(ps) {
		panic("physics: DeriveBatch column length mismatch")
	}
	dxs = make([]float64, len(xs))
	dps = make([]float64, len(ps))
	for i := range xs {
		dxs[i] = 2 * ps[i]
		dps[i] = -4 * xs[i] * xs[i] * xs[i]
	}
	return dxs, dps
}

func (q *Quartic) DefaultState() dynamo.State { return dynamo.State{q.Position, q.Momentum} }

func (q *Quartic) Energy(s dynamo.State) float64 {
	x, p := s[0], s[1]
	return p*p + x*x*x*x
}

// lemniscate is ∫₀¹ (1-u⁴)^(-1/2) du = Γ(1/4)² / (4√(2π)).
var lemniscate = math.Pow(math.Gamma(0.25), 2) / (4 * math.Sqrt(2*math.Pi))

// Period returns the exact oscillation period on the energy shell H = energy.
// The orbit reaches |x| = energy^(1/4), and T = 2·K·energy^(-1/4).
func (q *Quartic) Period(energy float64) float64 {
	if energy <= 0 {
		return math.Inf(1)
	}
	return 2 * lemniscate * math.Pow(energy, -0.25)
}
