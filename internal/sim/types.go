package sim

import (
	"fmt"

	"github.com/san-kum/gasbox/internal/collision"
	"github.com/san-kum/gasbox/internal/scene"
	"gonum.org/v1/gonum/spatial/r2"
)

// Frame is an immutable snapshot produced by one step.
type Frame struct {
	// Number increases by one per frame and is carried across resets.
	Number uint64
	// Epoch counts resets.
	Epoch int
	// Step counts steps since the epoch started; Time is Step·dt.
	Step int
	Time float64

	Particles []scene.Particle
	// Walls are shared with the engine and must not be modified.
	Walls   []scene.Wall
	Gravity r2.Vec
	Stats   scene.Stats

	Warnings []Warning
}

type WarningKind int

const (
	// WarnIterationLimit means contacts were still left when the
	// resolution loop hit its bound.
	WarnIterationLimit WarningKind = iota
	// WarnNonFinite means a particle went NaN or Inf and was restored to
	// its start-of-step state.
	WarnNonFinite
	// WarnEscaped means a particle centre crossed a wall and was moved back.
	WarnEscaped
)

func (k WarningKind) String() string {
	switch k {
	case WarnIterationLimit:
		return "iteration-limit"
	case WarnNonFinite:
		return "non-finite"
	case WarnEscaped:
		return "escaped"
	default:
		return fmt.Sprintf("WarningKind(%d)", int(k))
	}
}

// Warning is a recoverable problem raised by a step.
type Warning struct {
	Kind WarningKind
	// Particle and Wall are -1 when not applicable.
	Particle int
	Wall     int
	// Contacts holds the unresolved set for WarnIterationLimit.
	Contacts []collision.Contact
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnIterationLimit:
		return fmt.Sprintf("%s: %d contacts left", w.Kind, len(w.Contacts))
	case WarnEscaped:
		return fmt.Sprintf("%s: particle %d wall %d", w.Kind, w.Particle, w.Wall)
	default:
		return fmt.Sprintf("%s: particle %d", w.Kind, w.Particle)
	}
}

type Metric interface {
	Name() string
	Observe(f Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f Frame)
}

// Sample is the per-step record kept by Run.
type Sample struct {
	Number   uint64
	Time     float64
	Stats    scene.Stats
	Warnings int
}

type Result struct {
	Samples     []Sample
	Final       Frame
	Metrics     map[string]float64
	EnergyDrift float64
	StepsTaken  int
	Warnings    int
}
