package scene

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Box returns the four walls of an axis-aligned rectangle, wound
// counter-clockwise so every normal points inward.
func Box(min, max r2.Vec, proto Wall) []Wall {
	pts := []r2.Vec{
		{X: min.X, Y: min.Y},
		{X: max.X, Y: min.Y},
		{X: max.X, Y: max.Y},
		{X: min.X, Y: max.Y},
	}
	return Polygon(pts, true, proto)
}

// Polygon returns one wall per edge of the polyline through pts. A closed
// polygon gets the implied last edge. Every wall copies the thermal and
// class settings of proto.
func Polygon(pts []r2.Vec, closed bool, proto Wall) []Wall {
	if len(pts) < 2 {
		return nil
	}
	n := len(pts) - 1
	if closed && len(pts) > 2 {
		n = len(pts)
	}
	walls := make([]Wall, 0, n)
	for i := 0; i < n; i++ {
		a, b := pts[i], pts[(i+1)%len(pts)]
		w := proto
		w.A, w.B = a, b
		w.Normal = w.Segment().Normal()
		walls = append(walls, w)
	}
	return walls
}

// Grid lays out (nx+1)*(ny+1) particles on a lattice starting at origin,
// with the primary axis along dir (a unit vector) and the secondary axis
// dir rotated 90 degrees. velocity maps each position to an initial
// velocity. IDs are assigned from firstID upward.
func Grid(origin, dir r2.Vec, width, height float64, nx, ny int, proto Particle, firstID int, velocity func(r2.Vec) r2.Vec) []Particle {
	if nx <= 0 || ny <= 0 {
		return nil
	}
	sec := r2.Vec{X: -dir.Y, Y: dir.X}
	dx, dy := width/float64(nx), height/float64(ny)
	out := make([]Particle, 0, (nx+1)*(ny+1))
	for i := 0; i <= ny; i++ {
		for j := 0; j <= nx; j++ {
			pos := origin.Add(dir.Scale(float64(j) * dx)).Add(sec.Scale(float64(i) * dy))
			p := proto
			p.ID = firstID + len(out)
			p.Position = pos
			if velocity != nil {
				p.Velocity = velocity(pos)
			}
			out = append(out, p)
		}
	}
	return out
}

// ConstantVelocity returns a velocity field that is v everywhere.
func ConstantVelocity(v r2.Vec) func(r2.Vec) r2.Vec {
	return func(r2.Vec) r2.Vec { return v }
}
