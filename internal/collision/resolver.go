package collision

import (
	"math"
	"math/rand"

	"github.com/san-kum/gasbox/internal/geom"
	"github.com/san-kum/gasbox/internal/scene"
	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultMaxSpeed caps speeds produced by thermal walls and restitution.
const DefaultMaxSpeed = 1e3

// Resolver applies contact responses. It owns the random source used by
// thermal walls, so two resolvers built with the same seed and fed the same
// contacts produce identical results.
type Resolver struct {
	rng      *rand.Rand
	maxSpeed float64
}

func NewResolver(seed int64, maxSpeed float64) *Resolver {
	if maxSpeed <= 0 {
		maxSpeed = DefaultMaxSpeed
	}
	return &Resolver{
		rng:      rand.New(rand.NewSource(seed)),
		maxSpeed: maxSpeed,
	}
}

// MaxSpeed returns the speed clamp.
func (r *Resolver) MaxSpeed() float64 { return r.maxSpeed }

// Resolve dispatches on the contact kind.
func (r *Resolver) Resolve(s *scene.Scene, sw *Sweep, c Contact) {
	switch c.Kind {
	case ParticleParticle:
		r.ResolvePair(s, sw, c)
	case ParticleWall:
		r.ResolveWall(s, sw, c)
	}
}

// ResolvePair applies the elastic impulse between two disks.
func (r *Resolver) ResolvePair(s *scene.Scene, sw *Sweep, c Contact) {
	a, b := &s.Particles[c.A], &s.Particles[c.B]
	n := c.Normal

	if c.Overlapping {
		impulse(a, b, n)
		wa, wb := 1/a.Mass, 1/b.Mass
		sum := wa + wb
		a.Position = a.Position.Sub(n.Scale(c.Depth * wa / sum))
		b.Position = b.Position.Add(n.Scale(c.Depth * wb / sum))
		sw.Since[c.A], sw.Since[c.B] = 0, 0
		return
	}

	t := c.Time
	a.Position = a.Position.Add(a.Velocity.Scale(t))
	b.Position = b.Position.Add(b.Velocity.Scale(t))
	sw.Mark(c.A, t, a.Position)
	sw.Mark(c.B, t, b.Position)
	impulse(a, b, n)
	a.Position = a.Position.Sub(a.Velocity.Scale(t))
	b.Position = b.Position.Sub(b.Velocity.Scale(t))
}

// impulse exchanges momentum along n if the disks approach each other.
func impulse(a, b *scene.Particle, n r2.Vec) {
	vn := b.Velocity.Sub(a.Velocity).Dot(n)
	if vn >= 0 {
		return
	}
	j := -2 * vn / (1/a.Mass + 1/b.Mass)
	a.Velocity = a.Velocity.Sub(n.Scale(j / a.Mass))
	b.Velocity = b.Velocity.Add(n.Scale(j / b.Mass))
}

// ResolveWall reflects a particle off a wall.
func (r *Resolver) ResolveWall(s *scene.Scene, sw *Sweep, c Contact) {
	p := &s.Particles[c.A]
	w := s.Walls[c.B]
	n := c.Normal

	if c.Overlapping {
		p.Position = p.Position.Add(n.Scale(c.Depth))
		sw.Since[c.A] = 0
		vn := p.Velocity.Dot(n)
		if vn < 0 || (w.Thermal && vn == 0) {
			p.Velocity = r.bounce(w, p.Mass, p.Velocity, n)
		}
		return
	}

	t := c.Time
	p.Position = p.Position.Add(p.Velocity.Scale(t))
	sw.Mark(c.A, t, p.Position)
	if p.Velocity.Dot(n) < 0 {
		p.Velocity = r.bounce(w, p.Mass, p.Velocity, n)
	}
	p.Position = p.Position.Sub(p.Velocity.Scale(t))
}

// bounce returns the outgoing velocity of a particle of mass m hitting w
// with velocity v.
func (r *Resolver) bounce(w scene.Wall, m float64, v, n r2.Vec) r2.Vec {
	out := geom.Reflect(v, n)
	if w.Thermal {
		return r.ThermalExchange(w, m, v, out, n)
	}
	if w.Restitution != 1 {
		out = r.clamp(out.Scale(w.Restitution))
	}
	return out
}

// ThermalExchange blends the particle's energy with one drawn at the wall
// temperature: E' = (1-α)·E_in + α·E_T. The outgoing direction is the
// specular one, or n when the particle arrived at rest.
func (r *Resolver) ThermalExchange(w scene.Wall, m float64, in, specular, n r2.Vec) r2.Vec {
	ein := 0.5 * m * r2.Norm2(in)
	e := (1-w.Accommodation)*ein + w.Accommodation*r.SampleWallEnergy(w.Temperature)
	speed := math.Min(math.Sqrt(2*math.Max(e, 0)/m), r.maxSpeed)

	dir := n
	if l := r2.Norm(specular); l > 0 {
		dir = specular.Scale(1 / l)
	}
	return dir.Scale(speed)
}

// SampleWallEnergy draws the kinetic energy of a particle leaving a wall at
// temperature T under the flux-weighted 2-D Maxwellian: an exponential normal
// part plus a Gaussian tangential part, with mean 1.5T.
func (r *Resolver) SampleWallEnergy(T float64) float64 {
	if T <= 0 {
		return 0
	}
	u := 1 - r.rng.Float64()
	g := r.rng.NormFloat64()
	return -T*math.Log(u) + 0.5*T*g*g
}

func (r *Resolver) clamp(v r2.Vec) r2.Vec {
	if l := r2.Norm(v); l > r.maxSpeed {
		return v.Scale(r.maxSpeed / l)
	}
	return v
}
