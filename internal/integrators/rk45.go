package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/quartic/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Dormand-Prince coefficients (RK45)
var (
	a2 = 1.0 / 5.0
	a3 = 3.0 / 10.0
	a4 = 4.0 / 5.0
	a5 = 8.0 / 9.0

	b21 = 1.0 / 5.0
	b31 = 3.0 / 40.0
	b32 = 9.0 / 40.0
	b41 = 44.0 / 45.0
	b42 = -56.0 / 15.0
	b43 = 32.0 / 9.0
	b51 = 19372.0 / 6561.0
	b52 = -25360.0 / 2187.0
	b53 = 64448.0 / 6561.0
	b54 = -212.0 / 729.0
	b61 = 9017.0 / 3168.0
	b62 = -355.0 / 33.0
	b63 = 46732.0 / 5247.0
	b64 = 49.0 / 176.0
	b65 = -5103.0 / 18656.0

	c1 = 35.0 / 384.0
	c3 = 500.0 / 1113.0
	c4 = 125.0 / 192.0
	c5 = -2187.0 / 6784.0
	c6 = 11.0 / 84.0

	dc1 = c1 - 5179.0/57600.0
	dc3 = c3 - 7571.0/16695.0
	dc4 = c4 - 393.0/640.0
	dc5 = c5 - -92097.0/339200.0
	dc6 = c6 - 187.0/2100.0
	dc7 = -1.0 / 40.0
)

// errorOrder is the order of the embedded error estimator.
const errorOrder = 4

var errorExponent = -1.0 / (errorOrder + 1)

type RK45 struct {
	safety    float64
	minFactor float64
	maxFactor float64
}

func NewRK45() *RK45 {
	return &RK45{
		safety:    0.9,
		minFactor: 0.2,
		maxFactor: 10.0,
	}
}

func (r *RK45) Step(dyn dynamo.System, x dynamo.State, t, dt float64) dynamo.State {
	xNew, _ := r.stages(dyn, x, t, dt)
	return xNew
}

// stages evaluates the seven Dormand-Prince stages of a step of size dt and
// returns the fifth-order solution. k[6] is the derivative at the new point.
func (r *RK45) stages(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, [7]dynamo.State) {
	n := len(x)
	var k [7]dynamo.State

	k[0] = dyn.Derive(x, t)

	x2 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x2[i] = x[i] + dt*b21*k[0][i]
	}
	k[1] = dyn.Derive(x2, t+a2*dt)

	x3 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x3[i] = x[i] + dt*(b31*k[0][i]+b32*k[1][i])
	}
	k[2] = dyn.Derive(x3, t+a3*dt)

	x4 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x4[i] = x[i] + dt*(b41*k[0][i]+b42*k[1][i]+b43*k[2][i])
	}
	k[3] = dyn.Derive(x4, t+a4*dt)

	x5 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x5[i] = x[i] + dt*(b51*k[0][i]+b52*k[1][i]+b53*k[2][i]+b54*k[3][i])
	}
	k[4] = dyn.Derive(x5, t+a5*dt)

	x6 := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		x6[i] = x[i] + dt*(b61*k[0][i]+b62*k[1][i]+b63*k[2][i]+b64*k[3][i]+b65*k[4][i])
	}
	k[5] = dyn.Derive(x6, t+dt)

	xNew := make(dynamo.State, n)
	for i := 0; i < n; i++ {
		xNew[i] = x[i] + dt*(c1*k[0][i]+c3*k[2][i]+c4*k[3][i]+c5*k[4][i]+c6*k[5][i])
	}

	k[6] = dyn.Derive(xNew, t+dt)

	return xNew, k
}

// errorNorm is the RMS of the embedded error estimate, each component scaled
// by atol + rtol*max(|x|, |xNew|). A step is acceptable when it is below 1.
func (r *RK45) errorNorm(x, xNew dynamo.State, k [7]dynamo.State, dt float64, ctl dynamo.StepControl) float64 {
	n := len(x)
	scaled := make([]float64, n)
	for i := 0; i < n; i++ {
		errEst := dt * (dc1*k[0][i] + dc3*k[2][i] + dc4*k[3][i] + dc5*k[4][i] + dc6*k[5][i] + dc7*k[6][i])
		scale := ctl.Atol + math.Max(math.Abs(x[i]), math.Abs(xNew[i]))*ctl.Rtol
		scaled[i] = errEst / scale
	}
	return rms(scaled)
}

// InitialStep picks the first step from the local behaviour of the solution:
// a tentative explicit Euler step estimates the second derivative, and the
// step is sized so the leading error term is about 1% of the tolerance.
func (r *RK45) InitialStep(dyn dynamo.System, x0 dynamo.State, t0 float64, ctl dynamo.StepControl) float64 {
	interval := ctl.End - t0
	if interval <= 0 {
		return 0
	}
	if len(x0) == 0 {
		return math.Inf(1)
	}

	n := len(x0)
	f0 := dyn.Derive(x0, t0)

	scale := make([]float64, n)
	for i := range x0 {
		scale[i] = ctl.Atol + math.Abs(x0[i])*ctl.Rtol
	}

	d0 := rms(divide(x0, scale))
	d1 := rms(divide(f0, scale))

	h0 := 1e-6
	if d0 >= 1e-5 && d1 >= 1e-5 {
		h0 = 0.01 * d0 / d1
	}
	h0 = math.Min(h0, interval)

	x1 := make(dynamo.State, n)
	for i := range x0 {
		x1[i] = x0[i] + h0*f0[i]
	}
	f1 := dyn.Derive(x1, t0+h0)

	diff := make([]float64, n)
	for i := range f0 {
		diff[i] = (f1[i] - f0[i]) / scale[i]
	}
	d2 := rms(diff) / h0

	var h1 float64
	if d1 <= 1e-15 && d2 <= 1e-15 {
		h1 = math.Max(1e-6, h0*1e-3)
	} else {
		h1 = math.Pow(0.01/math.Max(d1, d2), 1.0/(errorOrder+1))
	}

	h := math.Min(100*h0, h1)
	h = math.Min(h, interval)
	if ctl.MaxStep > 0 {
		h = math.Min(h, ctl.MaxStep)
	}
	return h
}

// StepAdaptive advances x from t by one accepted step of at most h. Rejected
// attempts shrink h and retry. The step never exceeds ctl.MaxStep and never
// crosses ctl.End, so a run lands exactly on its end time.
func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, t, h float64, ctl dynamo.StepControl) (dynamo.Step, error) {
	if t >= ctl.End {
		return dynamo.Step{X: x.Clone(), T: t, Next: h}, nil
	}

	minStep := 10 * math.Abs(math.Nextafter(t, math.Inf(1))-t)
	if ctl.MinStep > minStep {
		minStep = ctl.MinStep
	}

	hAbs := h
	if ctl.MaxStep > 0 && hAbs > ctl.MaxStep {
		hAbs = ctl.MaxStep
	} else if hAbs < minStep {
		hAbs = minStep
	}

	rejected := 0
	for {
		if hAbs < minStep {
			return dynamo.Step{X: x, T: t, Rejected: rejected},
				fmt.Errorf("%w: h=%g at t=%g", dynamo.ErrStepTooSmall, hAbs, t)
		}

		tNew := t + hAbs
		if tNew > ctl.End {
			tNew = ctl.End
		}
		dt := tNew - t
		hAbs = dt

		xNew, k := r.stages(dyn, x, t, dt)
		errNorm := r.errorNorm(x, xNew, k, dt, ctl)

		if errNorm < 1 {
			factor := r.maxFactor
			if errNorm > 0 {
				factor = math.Min(r.maxFactor, r.safety*math.Pow(errNorm, errorExponent))
			}
			if rejected > 0 {
				factor = math.Min(1, factor)
			}
			return dynamo.Step{X: xNew, T: tNew, Next: hAbs * factor, Rejected: rejected}, nil
		}

		shrink := r.safety * math.Pow(errNorm, errorExponent)
		if math.IsNaN(shrink) || shrink < r.minFactor {
			shrink = r.minFactor
		}
		hAbs *= shrink
		rejected++
	}
}

func rms(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return floats.Norm(v, 2) / math.Sqrt(float64(len(v)))
}

func divide(num dynamo.State, den []float64) []float64 {
	out := make([]float64, len(num))
	floats.DivTo(out, num, den)
	return out
}
