package geom

import "gonum.org/v1/gonum/spatial/r2"

// CircleOverlap tests two disks for penetration. The normal points from the
// first disk toward the second. Coincident centres fall back to +X.
func CircleOverlap(c1 r2.Vec, r1 float64, c2 r2.Vec, r2_ float64) (normal r2.Vec, depth float64, ok bool) {
	d := c2.Sub(c1)
	dist := r2.Norm(d)
	depth = r1 + r2_ - dist
	if depth <= DistanceEps {
		return r2.Vec{}, 0, false
	}
	if dist < DistanceEps {
		return r2.Vec{X: 1}, depth, true
	}
	return d.Scale(1 / dist), depth, true
}

// CircleSegmentOverlap tests a disk against a segment. The normal points from
// the segment toward the disk centre. A centre lying on the segment uses the
// segment's left normal.
func CircleSegmentOverlap(c r2.Vec, r float64, s Segment) (normal r2.Vec, depth float64, ok bool) {
	q := ClosestPointOnSegment(c, s)
	d := c.Sub(q)
	dist := r2.Norm(d)
	depth = r - dist
	if depth <= DistanceEps {
		return r2.Vec{}, 0, false
	}
	if dist < DistanceEps {
		return s.Normal(), depth, true
	}
	return d.Scale(1 / dist), depth, true
}
