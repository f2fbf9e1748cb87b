package playback_test

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/charmbracelet/log"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gasbox/internal/integrators"
	"github.com/san-kum/gasbox/internal/playback"
	"github.com/san-kum/gasbox/internal/scene"
	"github.com/san-kum/gasbox/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

func box(n int) *scene.Scene {
	proto := scene.Particle{Mass: 1, Radius: 0.05}
	return &scene.Scene{
		Particles: scene.Grid(r2.Vec{X: 0.5, Y: 0.5}, r2.Vec{X: 1}, 1, 1, n, n, proto, 0,
			scene.ConstantVelocity(r2.Vec{X: 0.7, Y: 0.3})),
		Walls: scene.Box(r2.Vec{}, r2.Vec{X: 2, Y: 2}, scene.NewWall(r2.Vec{}, r2.Vec{X: 1})),
	}
}

func options() playback.Options {
	o := playback.DefaultOptions()
	o.Logger = log.New(io.Discard)
	o.Engine.Dt = 0.01
	return o
}

type hookIntegrator func(s *scene.Scene, dt float64)

func (h hookIntegrator) Name() string                       { return "hook" }
func (h hookIntegrator) Advance(s *scene.Scene, dt float64) { h(s, dt) }

// drain reads whatever is buffered right now.
func drain(ch <-chan sim.Frame) []sim.Frame {
	var out []sim.Frame
	for {
		select {
		case f, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, f)
		default:
			return out
		}
	}
}

// collect keeps reading until want frames arrived or the timeout passed.
func collect(ch <-chan sim.Frame, want int) []sim.Frame {
	var out []sim.Frame
	Eventually(func() int {
		out = append(out, drain(ch)...)
		return len(out)
	}).WithTimeout(2 * time.Second).Should(BeNumerically(">=", want))
	return out
}

var _ = Describe("Scheduler", func() {
	var (
		s   *playback.Scheduler
		ctx context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
	})

	AfterEach(func() {
		if s != nil {
			_ = s.Shutdown()
			Eventually(s.Done()).WithTimeout(2 * time.Second).Should(BeClosed())
			s = nil
		}
	})

	start := func(sc *scene.Scene, o playback.Options) {
		var err error
		s, err = playback.Start(ctx, sc, o)
		Expect(err).NotTo(HaveOccurred())
	}

	It("rejects an invalid scene synchronously", func() {
		sc := box(2)
		sc.Particles[0].Radius = 0
		_, err := playback.Start(ctx, sc, options())
		Expect(errors.Is(err, sim.ErrInvalidScene)).To(BeTrue())
	})

	It("starts paused with the initial frame published", func() {
		start(box(2), options())
		Expect(s.State()).To(Equal(playback.Paused))
		f := collect(s.Frames(), 1)
		Expect(f).To(HaveLen(1))
		Expect(f[0].Number).To(Equal(uint64(0)))
		Consistently(func() []sim.Frame { return drain(s.Frames()) }, "150ms").Should(BeEmpty())
	})

	It("advances exactly one frame per StepOnce while paused", func() {
		start(box(2), options())
		collect(s.Frames(), 1)

		const n = 5
		for i := 0; i < n; i++ {
			Expect(s.StepOnce()).To(Succeed())
		}
		frames := collect(s.Frames(), n)
		Consistently(func() []sim.Frame { return drain(s.Frames()) }, "200ms").Should(BeEmpty())
		Expect(frames).To(HaveLen(n))
		for i, f := range frames {
			Expect(f.Number).To(Equal(uint64(i + 1)))
		}
		Eventually(s.State).Should(Equal(playback.Paused))
	})

	It("plays until paused", func() {
		o := options()
		o.Speed = 0
		start(box(2), o)
		Expect(s.Play()).To(Succeed())
		collect(s.Frames(), 20)

		Expect(s.Pause()).To(Succeed())
		Eventually(s.State).Should(Equal(playback.Paused))
		// whatever was in flight before the pause landed is drained here
		Eventually(func() []sim.Frame { return drain(s.Frames()) }).Should(BeEmpty())
		Consistently(func() []sim.Frame { return drain(s.Frames()) }, "150ms").Should(BeEmpty())
	})

	It("autoplays when asked", func() {
		o := options()
		o.Autoplay = true
		o.Speed = 0
		start(box(2), o)
		Expect(s.State()).To(Equal(playback.Playing))
		collect(s.Frames(), 10)
	})

	It("paces playback by dt over speed", func() {
		o := options()
		o.Engine.Dt = 0.05
		o.Speed = 1
		o.FrameBuffer = 1000
		start(box(1), o)
		Expect(s.Play()).To(Succeed())
		time.Sleep(300 * time.Millisecond)
		Expect(s.Pause()).To(Succeed())
		Eventually(s.State).Should(Equal(playback.Paused))
		got := drain(s.Frames())
		// one initial frame plus about six paced steps
		Expect(len(got)).To(BeNumerically(">=", 2))
		Expect(len(got)).To(BeNumerically("<=", 12))
	})

	It("rejects a negative speed synchronously", func() {
		start(box(1), options())
		Expect(s.SetSpeed(-1)).To(MatchError(playback.ErrInvalidSpeed))
		Expect(s.SetSpeed(4)).To(Succeed())
		Eventually(s.Speed).Should(Equal(4.0))
	})

	It("keeps frame numbers increasing across a reset", func() {
		start(box(2), options())
		for i := 0; i < 3; i++ {
			Expect(s.StepOnce()).To(Succeed())
		}
		before := collect(s.Frames(), 4)

		bad := box(1)
		bad.Walls[0].B = bad.Walls[0].A
		Expect(s.Reset(bad)).To(MatchError(sim.ErrInvalidScene))

		Expect(s.Reset(box(1))).To(Succeed())
		Expect(s.StepOnce()).To(Succeed())
		after := collect(s.Frames(), 2)

		Expect(after[0].Number).To(Equal(before[len(before)-1].Number + 1))
		Expect(after[0].Epoch).To(Equal(1))
		Expect(after[0].Step).To(Equal(0))
		Expect(after[0].Particles).To(HaveLen(4))
		Expect(after[1].Number).To(Equal(after[0].Number + 1))
	})

	It("drops the oldest frames when the consumer lags", func() {
		o := options()
		o.Speed = 0
		o.FrameBuffer = 4
		o.Autoplay = true
		start(box(1), o)

		Eventually(s.Dropped).Should(BeNumerically(">", 10))
		Expect(s.Pause()).To(Succeed())
		Eventually(s.State).Should(Equal(playback.Paused))

		got := drain(s.Frames())
		Expect(len(got)).To(BeNumerically("<=", 4))
		Expect(got).NotTo(BeEmpty())
		for i := 1; i < len(got); i++ {
			Expect(got[i].Number).To(BeNumerically(">", got[i-1].Number))
		}
		Expect(got[0].Number).To(BeNumerically(">", 0))
	})

	It("shuts down promptly and publishes nothing after", func() {
		o := options()
		o.Speed = 0
		o.Autoplay = true
		start(box(2), o)
		collect(s.Frames(), 5)

		Expect(s.Shutdown()).To(Succeed())
		Eventually(s.Done()).WithTimeout(time.Second).Should(BeClosed())
		Expect(s.State()).To(Equal(playback.Stopped))
		drain(s.Frames())
		Eventually(s.Frames()).Should(BeClosed())
		Expect(s.Wait()).To(Succeed())

		Expect(s.Play()).To(MatchError(playback.ErrStopped))
		Expect(s.Shutdown()).To(MatchError(playback.ErrStopped))
	})

	It("shuts down when the context is cancelled", func() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(context.Background())
		start(box(1), options())
		cancel()
		Eventually(s.Done()).WithTimeout(time.Second).Should(BeClosed())
		Expect(s.Err()).NotTo(HaveOccurred())
	})

	It("reports a full mailbox while the actor is busy", func() {
		entered := make(chan struct{})
		gate := make(chan struct{})
		o := options()
		o.Mailbox = 2
		o.Engine.Integrator = hookIntegrator(func(sc *scene.Scene, dt float64) {
			entered <- struct{}{}
			<-gate
			integrators.NewEuler().Advance(sc, dt)
		})
		start(box(1), o)

		Expect(s.StepOnce()).To(Succeed())
		Eventually(entered).Should(Receive())
		Expect(s.Pause()).To(Succeed())
		Expect(s.Pause()).To(Succeed())
		Expect(s.Pause()).To(MatchError(playback.ErrMailboxFull))
		close(gate)
		// the buffered pauses are consumed once the step finishes
		Eventually(s.Pause).Should(Succeed())
	})

	It("turns a panic into a fatal error and closes the stream", func() {
		o := options()
		o.Engine.Integrator = hookIntegrator(func(*scene.Scene, float64) {
			panic("boom")
		})
		start(box(1), o)
		Expect(s.StepOnce()).To(Succeed())

		Eventually(s.Done()).WithTimeout(time.Second).Should(BeClosed())
		Expect(s.Err()).To(MatchError(playback.ErrActorFailed))
		Expect(s.Wait()).To(MatchError(ContainSubstring("boom")))
		Expect(s.State()).To(Equal(playback.Stopped))
		drain(s.Frames())
		Eventually(s.Frames()).Should(BeClosed())
	})
})
