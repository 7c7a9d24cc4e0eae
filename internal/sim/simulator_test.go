package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/quartic/internal/dynamo"
	"github.com/san-kum/quartic/internal/integrators"
	"github.com/san-kum/quartic/internal/metrics"
	"github.com/san-kum/quartic/internal/physics"
	"github.com/san-kum/quartic/internal/sim"
)

// blowUp is well defined until t=0.5 and returns NaN afterwards.
type blowUp struct{}

func (blowUp) StateDim() int { return 2 }
func (blowUp) Derive(x dynamo.State, t float64) dynamo.State {
	if t > 0.5 {
		return dynamo.State{math.NaN(), math.NaN()}
	}
	return dynamo.State{x[1], -x[0]}
}

type recorder struct {
	times []float64
}

func (r *recorder) OnStep(x dynamo.State, t float64) { r.times = append(r.times, t) }

var _ = Describe("Simulator", func() {
	var (
		ctx context.Context
		dyn *physics.Quartic
		cfg dynamo.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		dyn = physics.NewQuartic()
		cfg = dynamo.DefaultConfig()
	})

	Context("with the adaptive Dormand-Prince integrator", func() {
		var result *dynamo.Result

		BeforeEach(func() {
			var err error
			result, err = sim.New(dyn, integrators.NewRK45()).Run(ctx, dyn.DefaultState(), cfg)
			Expect(err).NotTo(HaveOccurred())
		})

		It("starts at t=0 from the initial state", func() {
			Expect(result.Times[0]).To(Equal(0.0))
			Expect(result.States[0]).To(Equal(dynamo.State{1, 0}))
		})

		It("ends exactly at the configured end time", func() {
			Expect(result.Times[result.Len()-1]).To(Equal(10.0))
		})

		It("produces strictly increasing times bounded by the max step", func() {
			for i := 1; i < result.Len(); i++ {
				dt := result.Times[i] - result.Times[i-1]
				Expect(dt).To(BeNumerically(">", 0), "sample %d", i)
				Expect(dt).To(BeNumerically("<=", cfg.MaxStep*(1+1e-9)), "sample %d", i)
			}
		})

		It("keeps one sample per accepted step", func() {
			Expect(result.Len()).To(Equal(result.StepsTaken + 1))
			Expect(result.States).To(HaveLen(result.Len()))
			Expect(result.Len()).To(BeNumerically(">=", 1001))
		})

		It("conserves p² + x⁴ within 1%", func() {
			for i, s := range result.States {
				Expect(dyn.Energy(s)).To(BeNumerically("~", 1.0, 0.01), "sample %d", i)
			}
			Expect(result.EnergyDrift).To(BeNumerically("<", 0.01))
		})

		It("counts derivative evaluations", func() {
			// six new stages per attempt plus the FSAL stage
			Expect(result.Evaluations).To(BeNumerically(">=", 7*result.StepsTaken))
		})

		It("is deterministic", func() {
			again, err := sim.New(dyn, integrators.NewRK45()).Run(ctx, dyn.DefaultState(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(again.Times).To(Equal(result.Times))
			Expect(again.States).To(Equal(result.States))
		})
	})

	Context("with the fixed-step RK4 integrator", func() {
		It("steps exactly at the max step and lands on the end time", func() {
			result, err := sim.New(dyn, integrators.NewRK4()).Run(ctx, dyn.DefaultState(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Len()).To(Equal(1001))
			Expect(result.Times[500]).To(BeNumerically("~", 5.0, 1e-12))
			Expect(result.Times[1000]).To(Equal(10.0))
			Expect(result.Evaluations).To(Equal(4 * 1000))
			Expect(result.EnergyDrift).To(BeNumerically("<", 0.01))
		})

		It("clips the last step when the duration is not a multiple", func() {
			cfg.Duration = 0.025
			result, err := sim.New(dyn, integrators.NewRK4()).Run(ctx, dyn.DefaultState(), cfg)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Times).To(HaveLen(4))
			Expect(result.Times[3]).To(Equal(0.025))
		})
	})

	It("returns a single sample for a zero end time", func() {
		cfg.Duration = 0
		result, err := sim.New(dyn, integrators.NewRK45()).Run(ctx, dynamo.State{1, 0}, cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Times).To(Equal([]float64{0}))
		Expect(result.States).To(Equal([]dynamo.State{{1, 0}}))
		Expect(result.StepsTaken).To(BeZero())
		Expect(result.EnergyDrift).To(BeZero())
	})

	It("does not alias the caller's initial state", func() {
		x0 := dynamo.State{1, 0}
		result, err := sim.New(dyn, integrators.NewRK45()).Run(ctx, x0, cfg)
		Expect(err).NotTo(HaveOccurred())
		result.States[0][0] = 42
		Expect(x0[0]).To(Equal(1.0))
	})

	It("feeds every sample to observers and metrics", func() {
		rec := &recorder{}
		drift := metrics.NewEnergyDrift(dyn)

		s := sim.New(dyn, integrators.NewRK45())
		s.AddObserver(rec)
		s.AddMetric(drift)

		result, err := s.Run(ctx, dyn.DefaultState(), cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.times).To(Equal(result.Times))
		Expect(result.Metrics).To(HaveKeyWithValue("energy_drift", drift.Value()))
		Expect(drift.Value()).To(BeNumerically("<", 0.01))
	})

	DescribeTable("rejects invalid configuration",
		func(mutate func(*dynamo.Config)) {
			mutate(&cfg)
			_, err := sim.New(dyn, integrators.NewRK45()).Run(ctx, dyn.DefaultState(), cfg)
			Expect(err).To(MatchError(dynamo.ErrInvalidConfig))
		},
		Entry("negative duration", func(c *dynamo.Config) { c.Duration = -1 }),
		Entry("NaN duration", func(c *dynamo.Config) { c.Duration = math.NaN() }),
		Entry("zero max step", func(c *dynamo.Config) { c.MaxStep = 0 }),
		Entry("negative max step", func(c *dynamo.Config) { c.MaxStep = -0.01 }),
		Entry("zero rtol", func(c *dynamo.Config) { c.Rtol = 0 }),
		Entry("zero atol", func(c *dynamo.Config) { c.Atol = 0 }),
	)

	It("rejects a state of the wrong dimension", func() {
		_, err := sim.New(dyn, integrators.NewRK45()).Run(ctx, dynamo.State{1}, cfg)
		Expect(err).To(MatchError(dynamo.ErrDimensionMismatch))
	})

	It("rejects a non-finite initial state", func() {
		_, err := sim.New(dyn, integrators.NewRK45()).Run(ctx, dynamo.State{math.NaN(), 0}, cfg)
		Expect(err).To(MatchError(dynamo.ErrInvalidState))
	})

	It("stops on a canceled context and keeps the partial trajectory", func() {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		result, err := sim.New(dyn, integrators.NewRK45()).Run(canceled, dyn.DefaultState(), cfg)
		Expect(err).To(MatchError(dynamo.ErrContextCanceled))
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		Expect(result).NotTo(BeNil())
		Expect(result.Len()).To(Equal(1))
	})

	It("reports divergence with the step and time it happened", func() {
		cfg.Duration = 1
		result, err := sim.New(blowUp{}, integrators.NewRK4()).Run(ctx, dynamo.State{1, 0}, cfg)

		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(err).To(MatchError(dynamo.ErrUnstable))
		Expect(simErr.Time).To(BeNumerically("~", 0.5, 0.02))
		Expect(result.Times[result.Len()-1]).To(BeNumerically("<=", 0.51))
	})

	It("gives up when the adaptive step collapses", func() {
		cfg.Duration = 1
		cfg.MinStep = 1e-6
		_, err := sim.New(blowUp{}, integrators.NewRK45()).Run(ctx, dynamo.State{1, 0}, cfg)
		Expect(err).To(MatchError(dynamo.ErrStepTooSmall))
	})
})
