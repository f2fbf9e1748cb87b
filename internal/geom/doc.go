// Package geom provides the 2-D primitives used by the collision kernel.
//
// Vectors are [r2.Vec] from gonum. Everything here is a pure function of its
// arguments:
//
//   - [Segment]: a wall edge with its left-hand unit normal
//   - [CircleOverlap], [CircleSegmentOverlap]: static penetration tests
//   - [SweepCircles], [SweepCircleSegment]: backward time-of-contact search
//
// # Sweeps
//
// Sweeps work backward from end-of-step positions. A disk at c moving with
// velocity v was at c + v*t for t in [tmin, 0]; the sweep reports the
// earliest t in that window at which the disks first touched while
// approaching. Failure is always "no intersection".
package geom
