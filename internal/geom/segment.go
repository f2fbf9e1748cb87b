package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Segment is a line segment from A to B.
type Segment struct {
	A, B r2.Vec
}

// Dir returns B - A.
func (s Segment) Dir() r2.Vec { return s.B.Sub(s.A) }

// Length returns the segment length.
func (s Segment) Length() float64 { return r2.Norm(s.Dir()) }

// Degenerate reports whether the endpoints coincide within DistanceEps.
func (s Segment) Degenerate() bool { return s.Length() < DistanceEps }

// Normal returns the unit normal on the left of A->B. Degenerate segments
// return the zero vector.
func (s Segment) Normal() r2.Vec {
	d := s.Dir()
	l := r2.Norm(d)
	if l < DistanceEps {
		return r2.Vec{}
	}
	return Perp(d).Scale(1 / l)
}

// Param returns the clamped parameter u in [0,1] of the point on s closest to p.
func (s Segment) Param(p r2.Vec) float64 {
	d := s.Dir()
	l2 := r2.Norm2(d)
	if l2 == 0 {
		return 0
	}
	u := p.Sub(s.A).Dot(d) / l2
	return math.Max(0, math.Min(1, u))
}

// ClosestPointOnSegment returns the point of s closest to p.
func ClosestPointOnSegment(p r2.Vec, s Segment) r2.Vec {
	return s.A.Add(s.Dir().Scale(s.Param(p)))
}

// DistanceToSegment returns the distance from p to s.
func DistanceToSegment(p r2.Vec, s Segment) float64 {
	return r2.Norm(p.Sub(ClosestPointOnSegment(p, s)))
}

// SegmentsIntersect reports whether p1->p2 properly crosses q1->q2. Touching
// at an endpoint counts; collinear overlap does not.
func SegmentsIntersect(p1, p2, q1, q2 r2.Vec) bool {
	d1 := p2.Sub(p1)
	d2 := q2.Sub(q1)
	den := d1.Cross(d2)
	if math.Abs(den) < 1e-15 {
		return false
	}
	w := q1.Sub(p1)
	u := w.Cross(d2) / den
	t := w.Cross(d1) / den
	return u >= 0 && u <= 1 && t >= 0 && t <= 1
}
