// Package scene holds the data model of a chamber: particles, walls and
// gravity. It is plain data plus invariant checks; nothing here advances time.
package scene

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/gasbox/internal/geom"
	"gonum.org/v1/gonum/spatial/r2"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("scene: invalid")

// Particle is a disk taking part in collisions.
type Particle struct {
	ID       int
	Position r2.Vec
	Velocity r2.Vec
	Mass     float64
	Radius   float64
	Species  int
}

// KineticEnergy returns ½·m·|v|².
func (p Particle) KineticEnergy() float64 {
	return 0.5 * p.Mass * r2.Norm2(p.Velocity)
}

// Momentum returns m·v.
func (p Particle) Momentum() r2.Vec {
	return p.Velocity.Scale(p.Mass)
}

// Wall is one immutable boundary segment.
type Wall struct {
	A, B   r2.Vec
	Normal r2.Vec
	// Thermal walls pull the kinetic energy of reflected particles toward
	// Temperature; the rest reflect specularly.
	Thermal       bool
	Temperature   float64
	Accommodation float64
	// Restitution scales the reflected speed of non-thermal walls.
	Restitution float64
	Class       int
}

// NewWall builds an elastic wall from A to B.
func NewWall(a, b r2.Vec) Wall {
	return Wall{
		A:           a,
		B:           b,
		Normal:      geom.Segment{A: a, B: b}.Normal(),
		Restitution: 1,
	}
}

// NewThermalWall builds a wall that exchanges heat at temperature t with the
// given accommodation coefficient.
func NewThermalWall(a, b r2.Vec, t, accommodation float64) Wall {
	w := NewWall(a, b)
	w.Thermal = true
	w.Temperature = t
	w.Accommodation = accommodation
	return w
}

// Segment returns the wall geometry.
func (w Wall) Segment() geom.Segment { return geom.Segment{A: w.A, B: w.B} }

// Species describes a particle kind for renderers.
type Species struct {
	Name  string
	Color string
}

// Scene is the aggregate the engine evolves.
type Scene struct {
	Particles []Particle
	Walls     []Wall
	Gravity   r2.Vec
	Species   map[int]Species
}

// Clone copies the particles. Walls and species are immutable after load
// and are shared.
func (s *Scene) Clone() *Scene {
	c := &Scene{
		Particles: make([]Particle, len(s.Particles)),
		Walls:     s.Walls,
		Gravity:   s.Gravity,
		Species:   s.Species,
	}
	copy(c.Particles, s.Particles)
	return c
}

// Validate checks the configuration invariants the kernel relies on.
func (s *Scene) Validate() error {
	if s == nil {
		return fmt.Errorf("%w: nil scene", ErrInvalid)
	}
	if !geom.Finite(s.Gravity) {
		return fmt.Errorf("%w: gravity is not finite", ErrInvalid)
	}
	for i, p := range s.Particles {
		if p.ID != i {
			return fmt.Errorf("%w: particle %d has id %d", ErrInvalid, i, p.ID)
		}
		if !(p.Mass > 0) || math.IsInf(p.Mass, 0) {
			return fmt.Errorf("%w: particle %d mass %v", ErrInvalid, i, p.Mass)
		}
		if !(p.Radius > 0) || math.IsInf(p.Radius, 0) {
			return fmt.Errorf("%w: particle %d radius %v", ErrInvalid, i, p.Radius)
		}
		if !geom.Finite(p.Position) || !geom.Finite(p.Velocity) {
			return fmt.Errorf("%w: particle %d state is not finite", ErrInvalid, i)
		}
	}
	for i, w := range s.Walls {
		if !geom.Finite(w.A) || !geom.Finite(w.B) {
			return fmt.Errorf("%w: wall %d endpoints are not finite", ErrInvalid, i)
		}
		if w.Segment().Degenerate() {
			return fmt.Errorf("%w: wall %d is degenerate", ErrInvalid, i)
		}
		if w.Thermal {
			if !(w.Temperature >= 0) || math.IsInf(w.Temperature, 0) {
				return fmt.Errorf("%w: wall %d temperature %v", ErrInvalid, i, w.Temperature)
			}
			if !(w.Accommodation >= 0 && w.Accommodation <= 1) {
				return fmt.Errorf("%w: wall %d accommodation %v not in [0,1]", ErrInvalid, i, w.Accommodation)
			}
		} else if !(w.Restitution >= 0) || math.IsInf(w.Restitution, 0) {
			return fmt.Errorf("%w: wall %d restitution %v", ErrInvalid, i, w.Restitution)
		}
	}
	return nil
}
