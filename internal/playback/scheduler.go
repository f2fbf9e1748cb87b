// Package playback runs an engine on a background goroutine and streams its
// frames to consumers.
//
// The actor goroutine is the only owner of the engine. Callers talk to it
// through non-blocking commands and read frames from a bounded channel that
// drops the oldest frame instead of slowing the simulation down.
package playback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/san-kum/gasbox/internal/scene"
	"github.com/san-kum/gasbox/internal/sim"
)

var (
	ErrMailboxFull  = errors.New("playback: command mailbox full")
	ErrStopped      = errors.New("playback: scheduler stopped")
	ErrActorFailed  = errors.New("playback: simulation actor failed")
	ErrInvalidSpeed = errors.New("playback: speed must be finite and non-negative")
)

type State int32

const (
	Paused State = iota
	Playing
	SteppingOnce
	Stopped
)

func (s State) String() string {
	switch s {
	case Paused:
		return "paused"
	case Playing:
		return "playing"
	case SteppingOnce:
		return "stepping"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

const (
	DefaultFrameBuffer = 64
	DefaultMailbox     = 16
)

type Options struct {
	Engine   sim.Options
	Autoplay bool
	// Speed is the real-time multiplier; 0 runs as fast as possible.
	Speed       float64
	FrameBuffer int
	Mailbox     int
	Logger      *log.Logger
}

func DefaultOptions() Options {
	return Options{
		Engine:      sim.DefaultOptions(),
		Speed:       1,
		FrameBuffer: DefaultFrameBuffer,
		Mailbox:     DefaultMailbox,
	}
}

type cmdKind int

const (
	cmdPlay cmdKind = iota
	cmdPause
	cmdStep
	cmdSpeed
	cmdReset
)

func (k cmdKind) String() string {
	return [...]string{"play", "pause", "step", "speed", "reset"}[k]
}

type command struct {
	kind  cmdKind
	speed float64
	scene *scene.Scene
}

type Scheduler struct {
	opts   Options
	log    *log.Logger
	cmds   chan command
	frames chan sim.Frame
	quit   chan struct{}
	done   chan struct{}

	quitOnce sync.Once
	state    atomic.Int32
	dropped  atomic.Uint64
	speed    atomic.Uint64
	err      atomic.Pointer[error]

	// owned by the actor
	eng   *sim.Engine
	last  uint64
	epoch int
}

// Start validates sc, publishes its initial frame and launches the actor.
// Cancelling ctx has the same effect as Shutdown.
func Start(ctx context.Context, sc *scene.Scene, opts Options) (*Scheduler, error) {
	if opts.FrameBuffer <= 0 {
		opts.FrameBuffer = DefaultFrameBuffer
	}
	if opts.Mailbox <= 0 {
		opts.Mailbox = DefaultMailbox
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Engine.Logger == nil {
		opts.Engine.Logger = opts.Logger
	}
	if err := checkSpeed(opts.Speed); err != nil {
		return nil, err
	}

	eng, err := sim.New(sc, opts.Engine)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		opts:   opts,
		log:    opts.Logger.WithPrefix("playback"),
		cmds:   make(chan command, opts.Mailbox),
		frames: make(chan sim.Frame, opts.FrameBuffer),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
		eng:    eng,
		epoch:  opts.Engine.Epoch,
	}
	s.speed.Store(math.Float64bits(opts.Speed))
	if opts.Autoplay {
		s.state.Store(int32(Playing))
	}

	f := eng.Frame()
	s.last = f.Number
	s.publish(f)

	go s.run(ctx)
	return s, nil
}

func checkSpeed(f float64) error {
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidSpeed, f)
	}
	return nil
}

func (s *Scheduler) Play() error     { return s.send(command{kind: cmdPlay}) }
func (s *Scheduler) Pause() error    { return s.send(command{kind: cmdPause}) }
func (s *Scheduler) StepOnce() error { return s.send(command{kind: cmdStep}) }

func (s *Scheduler) SetSpeed(f float64) error {
	if err := checkSpeed(f); err != nil {
		return err
	}
	return s.send(command{kind: cmdSpeed, speed: f})
}

// Reset replaces the scene. The new scene is validated here; the actor
// continues the frame numbering and starts a new epoch.
func (s *Scheduler) Reset(sc *scene.Scene) error {
	if err := sc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", sim.ErrInvalidScene, err)
	}
	return s.send(command{kind: cmdReset, scene: sc.Clone()})
}

// Shutdown asks the actor to stop after its current step. It does not wait;
// use Wait or Done for that.
func (s *Scheduler) Shutdown() error {
	err := ErrStopped
	s.quitOnce.Do(func() {
		close(s.quit)
		err = nil
	})
	return err
}

func (s *Scheduler) send(c command) error {
	if s.stopping() {
		return ErrStopped
	}
	select {
	case s.cmds <- c:
		return nil
	default:
		return ErrMailboxFull
	}
}

func (s *Scheduler) stopping() bool {
	if s.State() == Stopped {
		return true
	}
	select {
	case <-s.quit:
		return true
	default:
		return false
	}
}

// Frames is closed once the actor exits.
func (s *Scheduler) Frames() <-chan sim.Frame { return s.frames }

// Dropped counts frames discarded because the consumer fell behind.
func (s *Scheduler) Dropped() uint64 { return s.dropped.Load() }

func (s *Scheduler) State() State          { return State(s.state.Load()) }
func (s *Scheduler) Speed() float64        { return math.Float64frombits(s.speed.Load()) }
func (s *Scheduler) Done() <-chan struct{} { return s.done }

// Err returns the fatal error that stopped the actor, if any.
func (s *Scheduler) Err() error {
	if p := s.err.Load(); p != nil {
		return *p
	}
	return nil
}

// Wait blocks until the actor has exited and returns Err.
func (s *Scheduler) Wait() error {
	<-s.done
	return s.Err()
}

func (s *Scheduler) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.fail(fmt.Errorf("%w: %v", ErrActorFailed, r))
		}
		s.state.Store(int32(Stopped))
		close(s.frames)
		close(s.done)
		s.log.Debug("actor stopped", "last", s.last, "dropped", s.Dropped())
	}()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	next := time.Now()

	for {
		switch s.State() {
		case SteppingOnce:
			if !s.step() {
				return
			}
			s.state.CompareAndSwap(int32(SteppingOnce), int32(Paused))

		case Playing:
			interval := s.interval()
			if interval == 0 {
				select {
				case <-ctx.Done():
					return
				case <-s.quit:
					return
				case c := <-s.cmds:
					s.handle(c, &next)
					continue
				default:
				}
				if !s.step() {
					return
				}
				continue
			}

			if wait := time.Until(next); wait > 0 {
				timer.Reset(wait)
				select {
				case <-ctx.Done():
					return
				case <-s.quit:
					return
				case c := <-s.cmds:
					timer.Stop()
					s.handle(c, &next)
					continue
				case <-timer.C:
				}
			}
			if !s.step() {
				return
			}
			next = next.Add(interval)
			if now := time.Now(); next.Before(now) {
				// fell behind; do not burst to catch up
				next = now
			}

		default:
			select {
			case <-ctx.Done():
				return
			case <-s.quit:
				return
			case c := <-s.cmds:
				s.handle(c, &next)
			}
		}
	}
}

func (s *Scheduler) interval() time.Duration {
	speed := s.Speed()
	if speed == 0 {
		return 0
	}
	return time.Duration(s.eng.Options().Dt / speed * float64(time.Second))
}

func (s *Scheduler) handle(c command, next *time.Time) {
	switch c.kind {
	case cmdPlay:
		if s.State() != Playing {
			*next = time.Now()
		}
		s.state.Store(int32(Playing))
	case cmdPause:
		s.state.Store(int32(Paused))
	case cmdStep:
		s.state.Store(int32(SteppingOnce))
	case cmdSpeed:
		s.speed.Store(math.Float64bits(c.speed))
		*next = time.Now()
	case cmdReset:
		s.reset(c.scene)
	}
	s.log.Debug("command", "kind", c.kind, "state", s.State())
}

func (s *Scheduler) reset(sc *scene.Scene) {
	opts := s.eng.Options()
	opts.FirstFrame = s.last + 1
	opts.Epoch = s.epoch + 1
	eng, err := sim.New(sc, opts)
	if err != nil {
		// the scene was validated by Reset; this is a bad options value
		s.log.Error("reset rejected", "err", err)
		return
	}
	s.eng = eng
	s.epoch = opts.Epoch
	f := eng.Frame()
	s.last = f.Number
	s.publish(f)
	s.log.Info("reset", "epoch", s.epoch, "frame", f.Number, "particles", len(f.Particles))
}

// step runs one engine step and publishes it unless a shutdown arrived in
// the meantime. It reports false when the actor must exit.
func (s *Scheduler) step() bool {
	f, err := s.eng.Step()
	if err != nil {
		s.fail(fmt.Errorf("%w: %w", ErrActorFailed, err))
		return false
	}
	s.last = f.Number
	select {
	case <-s.quit:
		return false
	default:
	}
	s.publish(f)
	return true
}

// publish hands f to the consumer, evicting the oldest buffered frame when
// the channel is full. The actor is the only sender.
func (s *Scheduler) publish(f sim.Frame) {
	for {
		select {
		case s.frames <- f:
			return
		default:
		}
		select {
		case <-s.frames:
			s.dropped.Add(1)
		default:
		}
	}
}

func (s *Scheduler) fail(err error) {
	s.err.Store(&err)
	s.log.Error("simulation stopped", "err", err)
}
