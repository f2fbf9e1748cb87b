package config

import (
	"fmt"
	"math"

	"github.com/san-kum/gasbox/internal/integrators"
)

var velocityKinds = map[string]bool{"constant": true, "random": true, "noise": true, "": true}

// Validate checks everything Build relies on and reports the first problem.
func (c *Config) Validate() error {
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidValue, c.Dt)
	}
	if c.Duration < 0 || math.IsNaN(c.Duration) || math.IsInf(c.Duration, 0) {
		return fmt.Errorf("%w: duration must be non-negative, got %v", ErrInvalidValue, c.Duration)
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("%w: max_iterations must be at least 1, got %d", ErrInvalidValue, c.MaxIterations)
	}
	if !(c.MaxSpeed > 0) {
		return fmt.Errorf("%w: max_speed must be positive, got %v", ErrInvalidValue, c.MaxSpeed)
	}
	if !c.Gravity.finite() {
		return fmt.Errorf("%w: gravity is not finite", ErrInvalidValue)
	}
	if _, err := integrators.Get(c.Integrator); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownKind, err)
	}

	seen := make(map[int]bool)
	for _, pc := range c.ParticleClasses {
		if seen[pc.ID] {
			return fmt.Errorf("%w: duplicate particle class %d", ErrInvalidValue, pc.ID)
		}
		seen[pc.ID] = true
		if !(pc.Mass > 0) || math.IsInf(pc.Mass, 0) {
			return fmt.Errorf("%w: particle class %d mass %v", ErrInvalidValue, pc.ID, pc.Mass)
		}
		if !(pc.Radius > 0) || math.IsInf(pc.Radius, 0) {
			return fmt.Errorf("%w: particle class %d radius %v", ErrInvalidValue, pc.ID, pc.Radius)
		}
	}

	seen = make(map[int]bool)
	for _, wc := range c.WallClasses {
		if seen[wc.ID] {
			return fmt.Errorf("%w: duplicate wall class %d", ErrInvalidValue, wc.ID)
		}
		seen[wc.ID] = true
		if t := wc.Temperature; t != nil && (*t < 0 || math.IsNaN(*t) || math.IsInf(*t, 0)) {
			return fmt.Errorf("%w: wall class %d temperature %v", ErrInvalidValue, wc.ID, *t)
		}
		if a := wc.Accommodation; a != nil && !(*a >= 0 && *a <= 1) {
			return fmt.Errorf("%w: wall class %d accommodation %v not in [0,1]", ErrInvalidValue, wc.ID, *a)
		}
		if r := wc.Restitution; r != nil && (!(*r >= 0) || math.IsInf(*r, 0)) {
			return fmt.Errorf("%w: wall class %d restitution %v", ErrInvalidValue, wc.ID, *r)
		}
	}

	for i, p := range c.Particles {
		if _, ok := c.particleClass(p.Class); !ok {
			return fmt.Errorf("%w: particle %d uses class %d", ErrInvalidClass, i, p.Class)
		}
		if !p.Pos.finite() || !p.Vel.finite() {
			return fmt.Errorf("%w: particle %d is not finite", ErrInvalidValue, i)
		}
	}
	for i, g := range c.ParticleGrids {
		if _, ok := c.particleClass(g.Class); !ok {
			return fmt.Errorf("%w: grid %d uses class %d", ErrInvalidClass, i, g.Class)
		}
		if g.Count[0] < 1 || g.Count[1] < 1 {
			return fmt.Errorf("%w: grid %d count %v", ErrInvalidValue, i, g.Count)
		}
		if !(g.Size[0] > 0) || !(g.Size[1] > 0) {
			return fmt.Errorf("%w: grid %d size %v", ErrInvalidValue, i, g.Size)
		}
		if !velocityKinds[g.Velocity.Kind] {
			return fmt.Errorf("%w: grid %d velocity kind %q", ErrUnknownKind, i, g.Velocity.Kind)
		}
	}

	for i, w := range c.Walls {
		if _, ok := c.wallClass(w.Class); !ok {
			return fmt.Errorf("%w: wall %d uses class %d", ErrInvalidClass, i, w.Class)
		}
		if w.From == w.To || !w.From.finite() || !w.To.finite() {
			return fmt.Errorf("%w: wall %d is degenerate", ErrInvalidValue, i)
		}
	}
	for i, b := range c.Boxes {
		if _, ok := c.wallClass(b.Class); !ok {
			return fmt.Errorf("%w: box %d uses class %d", ErrInvalidClass, i, b.Class)
		}
		if !(b.Max[0] > b.Min[0]) || !(b.Max[1] > b.Min[1]) {
			return fmt.Errorf("%w: box %d has min %v max %v", ErrInvalidValue, i, b.Min, b.Max)
		}
	}
	for i, p := range c.Polygons {
		if _, ok := c.wallClass(p.Class); !ok {
			return fmt.Errorf("%w: polygon %d uses class %d", ErrInvalidClass, i, p.Class)
		}
		if len(p.Points) < 2 {
			return fmt.Errorf("%w: polygon %d needs at least two points", ErrInvalidValue, i)
		}
		for j := range p.Points {
			next := j + 1
			if next == len(p.Points) {
				if !p.Closed {
					break
				}
				next = 0
			}
			if p.Points[j] == p.Points[next] || !p.Points[j].finite() {
				return fmt.Errorf("%w: polygon %d edge %d is degenerate", ErrInvalidValue, i, j)
			}
		}
	}
	return nil
}
