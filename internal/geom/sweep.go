package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Hit is the result of a sweep.
type Hit struct {
	// Time of first contact, in [tmin, 0].
	Time float64
	// Normal at contact. For pairs it points from the first disk to the
	// second; for segments it points from the segment toward the disk.
	Normal r2.Vec
}

// SweepCircles finds when two disks first touched. p is the end-of-step
// relative position (second minus first), v the relative velocity and R the
// sum of radii. Only contacts with t in [tmin-TimeEps, 0] while approaching
// count.
func SweepCircles(p, v r2.Vec, R, tmin float64) (Hit, bool) {
	a := r2.Norm2(v)
	if a == 0 {
		return Hit{}, false
	}
	b := 2 * p.Dot(v)
	c := r2.Norm2(p) - R*R
	t1, _, ok := SolveQuadratic(a, b, c)
	if !ok {
		return Hit{}, false
	}
	if t1 > 0 || t1 < tmin-TimeEps {
		return Hit{}, false
	}
	rel := p.Add(v.Scale(t1))
	if rel.Dot(v) >= 0 {
		return Hit{}, false
	}
	n := r2.Norm(rel)
	if n < DistanceEps {
		return Hit{}, false
	}
	return Hit{Time: t1, Normal: rel.Scale(1 / n)}, true
}

// SweepCirclePoint is SweepCircles against a fixed point.
func SweepCirclePoint(c, v, q r2.Vec, r, tmin float64) (Hit, bool) {
	h, ok := SweepCircles(q.Sub(c), v.Scale(-1), r, tmin)
	if !ok {
		return Hit{}, false
	}
	h.Normal = h.Normal.Scale(-1)
	return h, true
}

// SweepCircleSegment finds when a disk of radius r, ending at c with
// velocity v, first touched segment s within [tmin, 0]. Both faces and both
// endpoints are tried; the earliest contact wins.
func SweepCircleSegment(c, v r2.Vec, r float64, s Segment, tmin float64) (Hit, bool) {
	best := Hit{Time: math.Inf(1)}
	found := false

	n := s.Normal()
	if n != (r2.Vec{}) {
		start := c.Add(v.Scale(tmin))
		side := start.Sub(s.A).Dot(n)
		sign := 1.0
		if side < 0 || (side == 0 && v.Dot(n) > 0) {
			sign = -1
		}
		face := n.Scale(sign)
		D := c.Sub(s.A).Dot(face)
		rate := v.Dot(face)
		if rate < 0 && D < r {
			t := (r - D) / rate
			if t <= 0 && t >= tmin-TimeEps {
				at := c.Add(v.Scale(t))
				u := at.Sub(s.A).Dot(s.Dir()) / r2.Norm2(s.Dir())
				if u >= 0 && u <= 1 {
					best = Hit{Time: t, Normal: face}
					found = true
				}
			}
		}
	}

	for _, q := range [2]r2.Vec{s.A, s.B} {
		if h, ok := SweepCirclePoint(c, v, q, r, tmin); ok && h.Time < best.Time {
			best = h
			found = true
		}
	}
	return best, found
}
