package sim

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/san-kum/gasbox/internal/collision"
	"github.com/san-kum/gasbox/internal/geom"
	"github.com/san-kum/gasbox/internal/integrators"
	"github.com/san-kum/gasbox/internal/scene"
)

const (
	DefaultDt            = 0.005
	DefaultMaxIterations = 64
)

type Options struct {
	Dt            float64
	Integrator    integrators.Integrator
	Detector      collision.Detector
	MaxIterations int
	MaxSpeed      float64
	Seed          int64
	// FirstFrame is the number of the engine's initial frame.
	FirstFrame uint64
	Epoch      int
	Logger     *log.Logger
}

func DefaultOptions() Options {
	return Options{
		Dt:            DefaultDt,
		MaxIterations: DefaultMaxIterations,
		MaxSpeed:      collision.DefaultMaxSpeed,
	}
}

func (o *Options) fill() {
	if o.Integrator == nil {
		o.Integrator = integrators.NewEuler()
	}
	if o.Detector == nil {
		o.Detector = collision.AllPairs{}
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.MaxSpeed == 0 {
		o.MaxSpeed = collision.DefaultMaxSpeed
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
}

func (o Options) validate() error {
	if !(o.Dt > 0) || math.IsInf(o.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidOptions, o.Dt)
	}
	if o.MaxIterations < 1 {
		return fmt.Errorf("%w: max iterations must be at least 1, got %d", ErrInvalidOptions, o.MaxIterations)
	}
	if !(o.MaxSpeed > 0) {
		return fmt.Errorf("%w: max speed must be positive, got %v", ErrInvalidOptions, o.MaxSpeed)
	}
	return nil
}

type State int32

const (
	Idle State = iota
	Stepping
)

func (s State) String() string {
	if s == Stepping {
		return "stepping"
	}
	return "idle"
}

type Engine struct {
	opts     Options
	scene    *scene.Scene
	resolver *collision.Resolver
	log      *log.Logger

	state  atomic.Int32
	number uint64
	step   int

	metrics   []Metric
	observers []Observer
}

// New validates sc and builds an engine over a private copy of it.
func New(sc *scene.Scene, opts Options) (*Engine, error) {
	opts.fill()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}
	return &Engine{
		opts:     opts,
		scene:    sc.Clone(),
		resolver: collision.NewResolver(opts.Seed, opts.MaxSpeed),
		log:      opts.Logger.With("epoch", opts.Epoch),
		number:   opts.FirstFrame,
	}, nil
}

func (e *Engine) AddMetric(m Metric)     { e.metrics = append(e.metrics, m) }
func (e *Engine) AddObserver(o Observer) { e.observers = append(e.observers, o) }

func (e *Engine) State() State     { return State(e.state.Load()) }
func (e *Engine) Options() Options { return e.opts }

// Frame snapshots the current state without stepping.
func (e *Engine) Frame() Frame {
	return e.frame(nil)
}

func (e *Engine) frame(warnings []Warning) Frame {
	ps := make([]scene.Particle, len(e.scene.Particles))
	copy(ps, e.scene.Particles)
	return Frame{
		Number:    e.number,
		Epoch:     e.opts.Epoch,
		Step:      e.step,
		Time:      float64(e.step) * e.opts.Dt,
		Particles: ps,
		Walls:     e.scene.Walls,
		Gravity:   e.scene.Gravity,
		Stats:     scene.Measure(ps),
		Warnings:  warnings,
	}
}

// Step advances the scene by one timestep and returns the resulting frame.
func (e *Engine) Step() (Frame, error) {
	if !e.state.CompareAndSwap(int32(Idle), int32(Stepping)) {
		return Frame{}, ErrBusy
	}
	defer e.state.Store(int32(Idle))

	s := e.scene
	dt := e.opts.Dt
	start := make([]scene.Particle, len(s.Particles))
	copy(start, s.Particles)

	e.opts.Integrator.Advance(s, dt)

	sw := collision.NewSweep(dt, start)
	warnings := e.resolve(sw)
	warnings = append(warnings, e.repair(sw, start)...)

	e.step++
	e.number++
	f := e.frame(warnings)
	for _, w := range warnings {
		e.log.Warn("step warning", "frame", f.Number, "kind", w.Kind, "particle", w.Particle, "wall", w.Wall, "contacts", len(w.Contacts))
	}
	return f, nil
}

func (e *Engine) resolve(sw *collision.Sweep) []Warning {
	s := e.scene
	det := e.opts.Detector
	for iter := 0; iter < e.opts.MaxIterations; iter++ {
		contacts := det.Find(s, sw)
		if len(contacts) == 0 {
			return nil
		}
		for _, c := range contacts {
			if c, ok := det.Test(s, sw, c); ok {
				e.resolver.Resolve(s, sw, c)
			}
		}
	}
	left := det.Find(s, sw)
	if len(left) == 0 {
		return nil
	}
	return []Warning{{Kind: WarnIterationLimit, Particle: -1, Wall: -1, Contacts: left}}
}

// repair restores particles that went non-finite and pulls back centres
// that crossed a wall on their last straight path.
func (e *Engine) repair(sw *collision.Sweep, start []scene.Particle) []Warning {
	var out []Warning
	s := e.scene
	for i := range s.Particles {
		p := &s.Particles[i]
		if !geom.Finite(p.Position) || !geom.Finite(p.Velocity) {
			*p = start[i]
			out = append(out, Warning{Kind: WarnNonFinite, Particle: i, Wall: -1})
			continue
		}
		from := sw.Start[i]
		for wi, w := range s.Walls {
			if !geom.SegmentsIntersect(from, p.Position, w.A, w.B) {
				continue
			}
			p.Position = from
			p.Velocity = geom.Reflect(p.Velocity, w.Normal)
			out = append(out, Warning{Kind: WarnEscaped, Particle: i, Wall: wi})
			break
		}
	}
	return out
}

// Run steps the engine up to steps times, feeding metrics and observers
// with every frame including the initial one.
func (e *Engine) Run(ctx context.Context, steps int) (*Result, error) {
	if steps < 0 {
		return nil, fmt.Errorf("%w: steps must be non-negative, got %d", ErrInvalidOptions, steps)
	}
	result := &Result{
		Samples: make([]Sample, 0, steps+1),
		Metrics: make(map[string]float64),
	}
	for _, m := range e.metrics {
		m.Reset()
	}

	f := e.Frame()
	e.observe(result, f)
	initialEnergy := f.Stats.KineticEnergy

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			result.Final = f
			e.finish(result, initialEnergy)
			return result, &SimulationError{Step: f.Step, Time: f.Time, Wrapped: ctx.Err()}
		default:
		}

		next, err := e.Step()
		if err != nil {
			result.Final = f
			e.finish(result, initialEnergy)
			return result, &SimulationError{Step: f.Step, Time: f.Time, Wrapped: err}
		}
		f = next
		result.StepsTaken++
		result.Warnings += len(f.Warnings)
		e.observe(result, f)
	}

	result.Final = f
	e.finish(result, initialEnergy)
	return result, nil
}

func (e *Engine) observe(result *Result, f Frame) {
	for _, m := range e.metrics {
		m.Observe(f)
	}
	for _, o := range e.observers {
		o.OnFrame(f)
	}
	result.Samples = append(result.Samples, Sample{
		Number:   f.Number,
		Time:     f.Time,
		Stats:    f.Stats,
		Warnings: len(f.Warnings),
	})
}

func (e *Engine) finish(result *Result, initialEnergy float64) {
	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(result.Final.Stats.KineticEnergy-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range e.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
}
