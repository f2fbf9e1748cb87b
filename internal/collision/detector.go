package collision

import (
	"math"
	"sort"

	"github.com/san-kum/gasbox/internal/geom"
	"github.com/san-kum/gasbox/internal/scene"
)

// Detector finds contacts in a scene whose particles sit at their end-of-step
// positions.
type Detector interface {
	// Find returns every current contact ordered by time of contact.
	Find(s *scene.Scene, sw *Sweep) []Contact
	// Test re-evaluates c against the current state. It reports false if the
	// bodies no longer touch inside their windows.
	Test(s *scene.Scene, sw *Sweep, c Contact) (Contact, bool)
}

// AllPairs checks every unordered particle pair and every particle against
// every wall.
type AllPairs struct{}

var _ Detector = AllPairs{}

func (AllPairs) Find(s *scene.Scene, sw *Sweep) []Contact {
	var out []Contact
	n := len(s.Particles)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if c, ok := pairContact(s, sw, i, j); ok {
				out = append(out, c)
			}
		}
	}
	for i := 0; i < n; i++ {
		for w := range s.Walls {
			if c, ok := wallContact(s, sw, i, w); ok {
				out = append(out, c)
			}
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Time < out[b].Time })
	return out
}

func (AllPairs) Test(s *scene.Scene, sw *Sweep, c Contact) (Contact, bool) {
	switch c.Kind {
	case ParticleParticle:
		return pairContact(s, sw, c.A, c.B)
	case ParticleWall:
		return wallContact(s, sw, c.A, c.B)
	}
	return Contact{}, false
}

// usable reports whether p can take part in detection. Non-finite particles
// are left to the engine's repair pass.
func usable(p *scene.Particle) bool {
	return geom.Finite(p.Position) && geom.Finite(p.Velocity)
}

func pairContact(s *scene.Scene, sw *Sweep, i, j int) (Contact, bool) {
	a, b := &s.Particles[i], &s.Particles[j]
	if !usable(a) || !usable(b) {
		return Contact{}, false
	}
	tmin := math.Max(sw.From(i), sw.From(j))
	R := a.Radius + b.Radius

	if h, ok := geom.SweepCircles(b.Position.Sub(a.Position), b.Velocity.Sub(a.Velocity), R, tmin); ok {
		return Contact{Kind: ParticleParticle, A: i, B: j, Time: h.Time, Normal: h.Normal}, true
	}
	if n, depth, ok := geom.CircleOverlap(a.Position, a.Radius, b.Position, b.Radius); ok {
		return Contact{Kind: ParticleParticle, A: i, B: j, Time: tmin, Overlapping: true, Normal: n, Depth: depth}, true
	}
	return Contact{}, false
}

func wallContact(s *scene.Scene, sw *Sweep, i, w int) (Contact, bool) {
	p := &s.Particles[i]
	if !usable(p) {
		return Contact{}, false
	}
	seg := s.Walls[w].Segment()
	tmin := sw.From(i)

	if h, ok := geom.SweepCircleSegment(p.Position, p.Velocity, p.Radius, seg, tmin); ok {
		return Contact{Kind: ParticleWall, A: i, B: w, Time: h.Time, Normal: h.Normal}, true
	}
	if n, depth, ok := geom.CircleSegmentOverlap(p.Position, p.Radius, seg); ok {
		return Contact{Kind: ParticleWall, A: i, B: w, Time: tmin, Overlapping: true, Normal: n, Depth: depth}, true
	}
	return Contact{}, false
}
