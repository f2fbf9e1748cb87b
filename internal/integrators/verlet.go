package integrators

import "github.com/san-kum/gasbox/internal/scene"

// Verlet is velocity Verlet. Gravity is uniform, so the old and new
// accelerations are equal and the position update is exact for free flight.
type Verlet struct{}

func NewVerlet() *Verlet {
	return &Verlet{}
}

func (v *Verlet) Name() string { return "verlet" }

func (v *Verlet) Advance(s *scene.Scene, dt float64) {
	half := s.Gravity.Scale(0.5 * dt * dt)
	g := s.Gravity.Scale(dt)
	for i := range s.Particles {
		p := &s.Particles[i]
		p.Position = p.Position.Add(p.Velocity.Scale(dt)).Add(half)
		p.Velocity = p.Velocity.Add(g)
	}
}

// Leapfrog is kick-drift-kick with half steps on the velocity.
type Leapfrog struct{}

func NewLeapfrog() *Leapfrog {
	return &Leapfrog{}
}

func (l *Leapfrog) Name() string { return "leapfrog" }

func (l *Leapfrog) Advance(s *scene.Scene, dt float64) {
	kick := s.Gravity.Scale(0.5 * dt)
	for i := range s.Particles {
		p := &s.Particles[i]
		p.Velocity = p.Velocity.Add(kick)
		p.Position = p.Position.Add(p.Velocity.Scale(dt))
		p.Velocity = p.Velocity.Add(kick)
	}
}
