// Package collision finds and resolves contacts between particles and
// between particles and walls.
//
// Detection works backward from the end of a step: every particle is assumed
// to have moved in a straight line since the time recorded in its Sweep
// entry, and a contact is the earliest moment inside that window at which the
// separation dropped to the contact distance. Resolving a contact rewinds the
// bodies to that moment, applies the impulse and re-advances them, so the
// window of each touched particle shrinks as the step is worked through.
package collision

import (
	"fmt"

	"github.com/san-kum/gasbox/internal/scene"
	"gonum.org/v1/gonum/spatial/r2"
)

// Kind tells which index space Contact.B refers to.
type Kind int

const (
	ParticleParticle Kind = iota
	ParticleWall
)

func (k Kind) String() string {
	switch k {
	case ParticleParticle:
		return "particle-particle"
	case ParticleWall:
		return "particle-wall"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Contact is a collision found during one step.
type Contact struct {
	Kind Kind
	// A is a particle index. B is a particle index for ParticleParticle and
	// a wall index for ParticleWall; for pairs A < B.
	A, B int
	// Time of contact relative to the end of the step, in [-dt, 0].
	Time float64
	// Overlapping marks a penetration that already existed when the
	// particle's window opened. Such contacts are separated positionally.
	Overlapping bool
	// Normal points from A toward B for pairs and from the wall toward the
	// particle for walls.
	Normal r2.Vec
	Depth  float64
}

// Same reports whether c and o involve the same bodies.
func (c Contact) Same(o Contact) bool {
	return c.Kind == o.Kind && c.A == o.A && c.B == o.B
}

func (c Contact) String() string {
	return fmt.Sprintf("%s(%d,%d)@%.3g", c.Kind, c.A, c.B, c.Time)
}

// Sweep tracks, per particle, when its current straight-line path began and
// where. It lives for one step.
type Sweep struct {
	Dt    float64
	Since []float64
	Start []r2.Vec
}

// NewSweep opens a window of length dt for every particle. start holds the
// particles as they were before the integrator ran.
func NewSweep(dt float64, start []scene.Particle) *Sweep {
	sw := &Sweep{
		Dt:    dt,
		Since: make([]float64, len(start)),
		Start: make([]r2.Vec, len(start)),
	}
	for i, p := range start {
		sw.Since[i] = -dt
		sw.Start[i] = p.Position
	}
	return sw
}

// From returns the time particle i's current path began.
func (sw *Sweep) From(i int) float64 { return sw.Since[i] }

// Mark records that particle i started a new path at time t from pos.
func (sw *Sweep) Mark(i int, t float64, pos r2.Vec) {
	sw.Since[i] = t
	sw.Start[i] = pos
}
