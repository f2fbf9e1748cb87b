package viz

import (
	"math"

	"github.com/san-kum/gasbox/internal/geom"
	"github.com/san-kum/gasbox/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

// Viewport is the world rectangle shown on screen. World y points up,
// screen y points down.
type Viewport struct {
	Min, Max r2.Vec
}

// Fit returns the bounding box of the frame's walls and particles grown by
// pad on every side. Non-finite particles are ignored.
func Fit(f sim.Frame, pad float64) Viewport {
	lo := r2.Vec{X: math.Inf(1), Y: math.Inf(1)}
	hi := r2.Vec{X: math.Inf(-1), Y: math.Inf(-1)}
	grow := func(p r2.Vec, r float64) {
		lo.X = math.Min(lo.X, p.X-r)
		lo.Y = math.Min(lo.Y, p.Y-r)
		hi.X = math.Max(hi.X, p.X+r)
		hi.Y = math.Max(hi.Y, p.Y+r)
	}
	for _, w := range f.Walls {
		grow(w.A, 0)
		grow(w.B, 0)
	}
	for _, p := range f.Particles {
		if geom.Finite(p.Position) {
			grow(p.Position, p.Radius)
		}
	}
	if lo.X > hi.X {
		return Viewport{Max: r2.Vec{X: 1, Y: 1}}
	}
	if hi.X-lo.X == 0 {
		lo.X, hi.X = lo.X-0.5, hi.X+0.5
	}
	if hi.Y-lo.Y == 0 {
		lo.Y, hi.Y = lo.Y-0.5, hi.Y+0.5
	}
	d := r2.Vec{X: pad, Y: pad}
	return Viewport{Min: lo.Sub(d), Max: hi.Add(d)}
}

// Scale is the uniform pixels-per-unit factor that fits the viewport into
// a w x h pixel area.
func (v Viewport) Scale(w, h float64) float64 {
	size := v.Max.Sub(v.Min)
	return math.Min(w/size.X, h/size.Y)
}

// Map converts a world point to pixel coordinates, centring the viewport in
// the w x h area.
func (v Viewport) Map(p r2.Vec, w, h float64) (float64, float64) {
	s := v.Scale(w, h)
	size := v.Max.Sub(v.Min)
	ox := (w - size.X*s) / 2
	oy := (h - size.Y*s) / 2
	x := ox + (p.X-v.Min.X)*s
	y := h - oy - (p.Y-v.Min.Y)*s
	return x, y
}

// Project is Map rounded to the canvas grid.
func (v Viewport) Project(p r2.Vec, c *Canvas) (int, int) {
	w, h := c.Pixels()
	x, y := v.Map(p, float64(w), float64(h))
	return int(math.Round(x)), int(math.Round(y))
}
