package viz

import (
	"math"

	"github.com/san-kum/gasbox/internal/geom"
	"github.com/san-kum/gasbox/internal/sim"
)

// Draw renders walls as lines and particles as circles, or dots when they
// are smaller than a pixel.
func Draw(c *Canvas, f sim.Frame, vp Viewport) {
	c.Clear()
	w, h := c.Pixels()
	scale := vp.Scale(float64(w), float64(h))

	for _, wall := range f.Walls {
		x0, y0 := vp.Project(wall.A, c)
		x1, y1 := vp.Project(wall.B, c)
		c.DrawLine(x0, y0, x1, y1)
	}
	for _, p := range f.Particles {
		if !geom.Finite(p.Position) {
			continue
		}
		x, y := vp.Project(p.Position, c)
		c.DrawCircle(x, y, int(math.Round(p.Radius*scale)))
	}
}
