// Package integrators advances particles under gravity with no collisions.
package integrators

import (
	"fmt"
	"sort"

	"github.com/san-kum/gasbox/internal/scene"
)

// Integrator moves every particle of s forward by dt.
type Integrator interface {
	Name() string
	Advance(s *scene.Scene, dt float64)
}

// Euler is semi-implicit: velocity first, then position with the new
// velocity. Straight-line back-extrapolation from the end state is exact.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Name() string { return "euler" }

func (e *Euler) Advance(s *scene.Scene, dt float64) {
	g := s.Gravity.Scale(dt)
	for i := range s.Particles {
		p := &s.Particles[i]
		p.Velocity = p.Velocity.Add(g)
		p.Position = p.Position.Add(p.Velocity.Scale(dt))
	}
}

var registry = map[string]func() Integrator{
	"euler":    func() Integrator { return NewEuler() },
	"verlet":   func() Integrator { return NewVerlet() },
	"leapfrog": func() Integrator { return NewLeapfrog() },
}

// Get returns a fresh integrator by name.
func Get(name string) (Integrator, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("integrators: unknown integrator %q", name)
	}
	return f(), nil
}

// Names lists the registered integrators.
func Names() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
