package sim_test

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gasbox/internal/collision"
	"github.com/san-kum/gasbox/internal/integrators"
	"github.com/san-kum/gasbox/internal/scene"
	"github.com/san-kum/gasbox/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

var quiet = log.New(io.Discard)

func opts(dt float64) sim.Options {
	o := sim.DefaultOptions()
	o.Dt = dt
	o.Logger = quiet
	return o
}

// gasInBox fills an L×L box with an n×n lattice of particles moving in
// random directions at speed v.
func gasInBox(L float64, n int, v float64, wall scene.Wall, seed int64) *scene.Scene {
	rng := rand.New(rand.NewSource(seed))
	proto := scene.Particle{Mass: 1, Radius: 0.03}
	span := L * 0.7
	origin := r2.Vec{X: (L - span) / 2, Y: (L - span) / 2}
	ps := scene.Grid(origin, r2.Vec{X: 1}, span, span, n-1, n-1, proto, 0, func(r2.Vec) r2.Vec {
		a := rng.Float64() * 2 * math.Pi
		return r2.Vec{X: v * math.Cos(a), Y: v * math.Sin(a)}
	})
	return &scene.Scene{
		Particles: ps,
		Walls:     scene.Box(r2.Vec{}, r2.Vec{X: L, Y: L}, wall),
	}
}

func elastic() scene.Wall { return scene.NewWall(r2.Vec{}, r2.Vec{X: 1}) }

func run(eng *sim.Engine, steps int) []sim.Frame {
	frames := make([]sim.Frame, 0, steps)
	for i := 0; i < steps; i++ {
		f, err := eng.Step()
		Expect(err).NotTo(HaveOccurred())
		frames = append(frames, f)
	}
	return frames
}

type collector struct{ frames []sim.Frame }

func (c *collector) OnFrame(f sim.Frame) { c.frames = append(c.frames, f) }

type countMetric struct{ n int }

func (c *countMetric) Name() string      { return "count" }
func (c *countMetric) Observe(sim.Frame) { c.n++ }
func (c *countMetric) Value() float64    { return float64(c.n) }
func (c *countMetric) Reset()            { c.n = 0 }

// funcIntegrator lets a test hook into the integration phase.
type funcIntegrator func(s *scene.Scene, dt float64)

func (f funcIntegrator) Name() string                       { return "func" }
func (f funcIntegrator) Advance(s *scene.Scene, dt float64) { f(s, dt) }

type blindDetector struct{}

func (blindDetector) Find(*scene.Scene, *collision.Sweep) []collision.Contact { return nil }
func (blindDetector) Test(_ *scene.Scene, _ *collision.Sweep, c collision.Contact) (collision.Contact, bool) {
	return c, false
}

var _ = Describe("Engine", func() {
	Describe("construction", func() {
		It("rejects invalid scenes", func() {
			sc := gasInBox(2, 3, 1, elastic(), 1)
			sc.Particles[2].Mass = -1
			_, err := sim.New(sc, opts(0.01))
			Expect(errors.Is(err, sim.ErrInvalidScene)).To(BeTrue())
			Expect(errors.Is(err, scene.ErrInvalid)).To(BeTrue())
		})

		It("rejects a non-positive dt", func() {
			_, err := sim.New(gasInBox(2, 2, 1, elastic(), 1), opts(0))
			Expect(err).To(MatchError(sim.ErrInvalidOptions))
		})

		It("does not alias the caller's scene", func() {
			sc := gasInBox(2, 2, 1, elastic(), 1)
			before := sc.Particles[0]
			eng, err := sim.New(sc, opts(0.01))
			Expect(err).NotTo(HaveOccurred())
			run(eng, 10)
			Expect(sc.Particles[0]).To(Equal(before))
		})

		It("numbers frames from FirstFrame", func() {
			o := opts(0.01)
			o.FirstFrame = 41
			o.Epoch = 3
			eng, err := sim.New(gasInBox(2, 2, 1, elastic(), 1), o)
			Expect(err).NotTo(HaveOccurred())
			Expect(eng.Frame().Number).To(Equal(uint64(41)))
			f := run(eng, 2)
			Expect(f[0].Number).To(Equal(uint64(42)))
			Expect(f[1].Number).To(Equal(uint64(43)))
			Expect(f[1].Epoch).To(Equal(3))
			Expect(f[1].Time).To(BeNumerically("~", 0.02, 1e-12))
		})
	})

	Describe("conservation in an elastic box", func() {
		var frames []sim.Frame
		var initial sim.Frame

		BeforeEach(func() {
			eng, err := sim.New(gasInBox(3, 6, 1, elastic(), 7), opts(0.005))
			Expect(err).NotTo(HaveOccurred())
			initial = eng.Frame()
			frames = run(eng, 1500)
		})

		It("keeps kinetic energy", func() {
			e0 := initial.Stats.KineticEnergy
			for _, f := range frames {
				Expect(f.Stats.KineticEnergy).To(BeNumerically("~", e0, 1e-9*e0))
			}
		})

		It("keeps every particle inside and apart", func() {
			for _, f := range frames {
				wallGap, pairGap := math.Inf(1), math.Inf(1)
				for i, p := range f.Particles {
					gap := math.Min(
						math.Min(p.Position.X, 3-p.Position.X),
						math.Min(p.Position.Y, 3-p.Position.Y),
					) - p.Radius
					wallGap = math.Min(wallGap, gap)
					for _, q := range f.Particles[i+1:] {
						d := r2.Norm(q.Position.Sub(p.Position)) - p.Radius - q.Radius
						pairGap = math.Min(pairGap, d)
					}
				}
				Expect(wallGap).To(BeNumerically(">=", -1e-6), "frame %d", f.Number)
				Expect(pairGap).To(BeNumerically(">=", -1e-6), "frame %d", f.Number)
				Expect(f.Warnings).To(BeEmpty())
			}
		})

		It("numbers frames strictly increasing", func() {
			for i := 1; i < len(frames); i++ {
				Expect(frames[i].Number).To(Equal(frames[i-1].Number + 1))
			}
		})
	})

	It("is deterministic for a given seed", func() {
		hot := scene.NewThermalWall(r2.Vec{}, r2.Vec{X: 1}, 3, 0.8)
		mk := func() []sim.Frame {
			o := opts(0.005)
			o.Seed = 99
			eng, err := sim.New(gasInBox(2, 5, 1, hot, 3), o)
			Expect(err).NotTo(HaveOccurred())
			return run(eng, 400)
		}
		a, b := mk(), mk()
		for i := range a {
			Expect(a[i].Particles).To(Equal(b[i].Particles))
		}
	})

	It("relaxes toward the wall temperature", func() {
		const T = 2.0
		hot := scene.NewThermalWall(r2.Vec{}, r2.Vec{X: 1}, T, 1)
		o := opts(0.005)
		o.Seed = 5
		eng, err := sim.New(gasInBox(2, 8, 1, hot, 11), o)
		Expect(err).NotTo(HaveOccurred())
		Expect(eng.Frame().Stats.Temperature).To(BeNumerically("~", 0.5, 1e-9))

		frames := run(eng, 6000)
		var sum float64
		tail := frames[2000:]
		for _, f := range tail {
			sum += f.Stats.Temperature
		}
		mean := sum / float64(len(tail))
		Expect(mean).To(BeNumerically(">", 0.7*T))
		Expect(mean).To(BeNumerically("<", 1.3*T))
	})

	Describe("step size independence", func() {
		final := func(sc *scene.Scene, dt float64, steps int) []scene.Particle {
			eng, err := sim.New(sc, opts(dt))
			Expect(err).NotTo(HaveOccurred())
			f := run(eng, steps)
			return f[len(f)-1].Particles
		}

		It("resolves a head-on pair the same in one step or many", func() {
			sc := &scene.Scene{Particles: []scene.Particle{
				{ID: 0, Velocity: r2.Vec{X: 1}, Mass: 1, Radius: 0.1},
				{ID: 1, Position: r2.Vec{X: 1}, Velocity: r2.Vec{X: -1}, Mass: 1, Radius: 0.1},
			}}
			big := final(sc, 1, 1)
			small := final(sc, 0.01, 100)
			Expect(big[0].Position.X).To(BeNumerically("~", -0.2, 1e-9))
			Expect(big[1].Position.X).To(BeNumerically("~", 1.2, 1e-9))
			for i := range big {
				Expect(big[i].Position.X).To(BeNumerically("~", small[i].Position.X, 1e-9))
				Expect(big[i].Velocity.X).To(BeNumerically("~", small[i].Velocity.X, 1e-9))
			}
		})

		It("bounces off a wall the same in one step or many", func() {
			sc := &scene.Scene{
				Particles: []scene.Particle{{ID: 0, Position: r2.Vec{X: 1, Y: 1}, Velocity: r2.Vec{X: 3, Y: 1.3}, Mass: 1, Radius: 0.1}},
				Walls:     scene.Box(r2.Vec{}, r2.Vec{X: 2, Y: 2}, elastic()),
			}
			big := final(sc, 0.5, 1)
			small := final(sc, 0.005, 100)
			Expect(big[0].Position.X).To(BeNumerically("~", 1.3, 1e-9))
			Expect(big[0].Position.Y).To(BeNumerically("~", 1.65, 1e-9))
			Expect(small[0].Position.X).To(BeNumerically("~", 1.3, 1e-9))
			Expect(small[0].Velocity.X).To(BeNumerically("~", -3, 1e-12))
		})
	})

	Describe("iteration bound", func() {
		// a moves into b, which rests against c: a full transfer needs two
		// passes of the resolution loop
		cradle := func() *scene.Scene {
			return &scene.Scene{Particles: []scene.Particle{
				{ID: 0, Velocity: r2.Vec{X: 1}, Mass: 1, Radius: 0.1},
				{ID: 1, Position: r2.Vec{X: 0.3}, Mass: 1, Radius: 0.1},
				{ID: 2, Position: r2.Vec{X: 0.5}, Mass: 1, Radius: 0.1},
			}}
		}

		It("transfers momentum through the chain", func() {
			eng, err := sim.New(cradle(), opts(0.2))
			Expect(err).NotTo(HaveOccurred())
			f, err := eng.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Warnings).To(BeEmpty())
			Expect(f.Particles[0].Velocity.X).To(BeNumerically("~", 0, 1e-12))
			Expect(f.Particles[1].Velocity.X).To(BeNumerically("~", 0, 1e-12))
			Expect(f.Particles[2].Velocity.X).To(BeNumerically("~", 1, 1e-12))
			Expect(f.Particles[2].Position.X).To(BeNumerically("~", 0.6, 1e-9))
		})

		It("warns with the unresolved contacts when exhausted", func() {
			o := opts(0.2)
			o.MaxIterations = 1
			eng, err := sim.New(cradle(), o)
			Expect(err).NotTo(HaveOccurred())
			f, err := eng.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Warnings).To(HaveLen(1))
			w := f.Warnings[0]
			Expect(w.Kind).To(Equal(sim.WarnIterationLimit))
			Expect(w.Contacts).To(HaveLen(1))
			Expect(w.Contacts[0].A).To(Equal(1))
			Expect(w.Contacts[0].B).To(Equal(2))
		})
	})

	Describe("repairs", func() {
		It("restores a particle that went non-finite", func() {
			o := opts(0.1)
			o.Integrator = funcIntegrator(func(s *scene.Scene, dt float64) {
				integrators.NewEuler().Advance(s, dt)
				s.Particles[1].Velocity.X = math.NaN()
			})
			sc := gasInBox(2, 2, 0.5, elastic(), 2)
			eng, err := sim.New(sc, o)
			Expect(err).NotTo(HaveOccurred())
			f, err := eng.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Warnings).To(ContainElement(sim.Warning{Kind: sim.WarnNonFinite, Particle: 1, Wall: -1}))
			Expect(f.Particles[1]).To(Equal(sc.Particles[1]))
		})

		It("pulls back a particle that crossed a wall", func() {
			o := opts(0.1)
			o.Detector = blindDetector{}
			sc := &scene.Scene{
				Particles: []scene.Particle{{ID: 0, Position: r2.Vec{X: 0.5, Y: 0.05}, Velocity: r2.Vec{Y: -1}, Mass: 1, Radius: 0.01}},
				Walls:     []scene.Wall{elastic()},
			}
			eng, err := sim.New(sc, o)
			Expect(err).NotTo(HaveOccurred())
			f, err := eng.Step()
			Expect(err).NotTo(HaveOccurred())
			Expect(f.Warnings).To(ContainElement(sim.Warning{Kind: sim.WarnEscaped, Particle: 0, Wall: 0}))
			Expect(f.Particles[0].Position).To(Equal(r2.Vec{X: 0.5, Y: 0.05}))
			Expect(f.Particles[0].Velocity.Y).To(BeNumerically("~", 1, 1e-12))
		})
	})

	It("rejects a re-entrant step", func() {
		var eng *sim.Engine
		var inner error
		o := opts(0.01)
		o.Integrator = funcIntegrator(func(s *scene.Scene, dt float64) {
			_, inner = eng.Step()
		})
		var err error
		eng, err = sim.New(gasInBox(2, 2, 1, elastic(), 1), o)
		Expect(err).NotTo(HaveOccurred())
		_, err = eng.Step()
		Expect(err).NotTo(HaveOccurred())
		Expect(inner).To(MatchError(sim.ErrBusy))
		Expect(eng.State()).To(Equal(sim.Idle))
	})

	Describe("Run", func() {
		It("feeds metrics and observers with every frame", func() {
			eng, err := sim.New(gasInBox(2, 3, 1, elastic(), 1), opts(0.01))
			Expect(err).NotTo(HaveOccurred())
			m := &countMetric{}
			c := &collector{}
			eng.AddMetric(m)
			eng.AddObserver(c)

			res, err := eng.Run(context.Background(), 50)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.StepsTaken).To(Equal(50))
			Expect(res.Samples).To(HaveLen(51))
			Expect(res.Metrics).To(HaveKeyWithValue("count", 51.0))
			Expect(c.frames).To(HaveLen(51))
			Expect(res.Final.Number).To(Equal(uint64(50)))
			Expect(res.EnergyDrift).To(BeNumerically("<", 1e-9))
		})

		It("stops on a cancelled context", func() {
			eng, err := sim.New(gasInBox(2, 3, 1, elastic(), 1), opts(0.01))
			Expect(err).NotTo(HaveOccurred())
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			res, err := eng.Run(ctx, 100)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			var se *sim.SimulationError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(res.StepsTaken).To(Equal(0))
		})
	})

	It("runs an ensemble with distinct seeds", func() {
		hot := scene.NewThermalWall(r2.Vec{}, r2.Vec{X: 1}, 2, 1)
		ens := sim.NewEnsemble(gasInBox(2, 3, 1, hot, 4), opts(0.01), 3, 10, func() []sim.Metric {
			return []sim.Metric{&countMetric{}}
		})
		results, err := ens.Run(context.Background(), 200)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))
		for _, r := range results {
			Expect(r.Metrics["count"]).To(Equal(201.0))
		}
		Expect(results[0].Final.Particles).NotTo(Equal(results[1].Final.Particles))
	})
})
