package analysis

import (
	"errors"
	"math"

	"github.com/san-kum/quartic/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Oscillator is a conservative system with a known closed-form period.
type Oscillator interface {
	dynamo.Hamiltonian
	Period(energy float64) float64
}

type Summary struct {
	Samples     int
	Steps       int
	Rejected    int
	Evaluations int
	EndTime     float64

	InitialEnergy float64
	FinalEnergy   float64
	MaxDrift      float64

	MinPosition, MaxPosition float64
	MinMomentum, MaxMomentum float64

	// Period is NaN when the trajectory is too short to contain two
	// upward zero crossings of the position.
	Period      float64
	ExactPeriod float64
}

// PeriodError is the relative deviation of the measured period from the
// exact one, or NaN when either is unavailable.
func (s Summary) PeriodError() float64 {
	if math.IsNaN(s.Period) || math.IsInf(s.ExactPeriod, 0) || s.ExactPeriod == 0 {
		return math.NaN()
	}
	return math.Abs(s.Period-s.ExactPeriod) / s.ExactPeriod
}

func Summarize(res *dynamo.Result, osc Oscillator) (Summary, error) {
	if res == nil || res.Len() == 0 {
		return Summary{}, errors.New("analysis: empty trajectory")
	}

	xs := res.Component(0)
	ps := res.Component(1)

	s := Summary{
		Samples:     res.Len(),
		Steps:       res.StepsTaken,
		Rejected:    res.Rejected,
		Evaluations: res.Evaluations,
		EndTime:     res.Times[res.Len()-1],
		MinPosition: floats.Min(xs),
		MaxPosition: floats.Max(xs),
		MinMomentum: floats.Min(ps),
		MaxMomentum: floats.Max(ps),
	}

	energies := make([]float64, res.Len())
	for i, x := range res.States {
		energies[i] = osc.Energy(x)
	}
	s.InitialEnergy = energies[0]
	s.FinalEnergy = energies[len(energies)-1]

	deviation := make([]float64, len(energies))
	copy(deviation, energies)
	floats.AddConst(-s.InitialEnergy, deviation)
	s.MaxDrift = math.Max(math.Abs(floats.Min(deviation)), math.Abs(floats.Max(deviation)))
	if s.InitialEnergy != 0 {
		s.MaxDrift /= math.Abs(s.InitialEnergy)
	}

	s.ExactPeriod = osc.Period(s.InitialEnergy)
	period, err := Period(res.Times, xs)
	switch {
	case errors.Is(err, ErrNoPeriod):
		s.Period = math.NaN()
	case err != nil:
		return Summary{}, err
	default:
		s.Period = period
	}

	return s, nil
}
