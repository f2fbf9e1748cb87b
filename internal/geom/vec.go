package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// DistanceEps is the penetration depth below which disks are considered touching.
	DistanceEps = 1e-8
	// TimeEps absorbs rounding when a contact lands slightly before a window start.
	TimeEps = 1e-9
)

// V is shorthand for r2.Vec{X: x, Y: y}.
func V(x, y float64) r2.Vec { return r2.Vec{X: x, Y: y} }

// Perp returns v rotated 90 degrees counter-clockwise.
func Perp(v r2.Vec) r2.Vec { return r2.Vec{X: -v.Y, Y: v.X} }

// Finite reports whether both components are finite.
func Finite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// ApproxEq compares two vectors component-wise.
func ApproxEq(a, b r2.Vec, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps && math.Abs(a.Y-b.Y) <= eps
}

// Reflect mirrors v about the line with unit normal n.
func Reflect(v, n r2.Vec) r2.Vec {
	return v.Sub(n.Scale(2 * v.Dot(n)))
}

// SolveQuadratic returns the real roots of a*t^2 + b*t + c = 0 with t1 <= t2.
func SolveQuadratic(a, b, c float64) (t1, t2 float64, ok bool) {
	if a == 0 {
		if b == 0 {
			return 0, 0, false
		}
		t := -c / b
		return t, t, true
	}
	disc := b*b - 4*a*c
	if disc < 0 {
		return 0, 0, false
	}
	sq := math.Sqrt(disc)
	// numerically stable form
	var q float64
	if b >= 0 {
		q = -0.5 * (b + sq)
	} else {
		q = -0.5 * (b - sq)
	}
	t1 = q / a
	if q != 0 {
		t2 = c / q
	} else {
		t2 = t1
	}
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	return t1, t2, true
}
