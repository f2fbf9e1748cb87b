package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/gasbox/internal/geom"
	"github.com/san-kum/gasbox/internal/scene"
	"github.com/san-kum/gasbox/internal/sim"
	"github.com/san-kum/gasbox/internal/viz"
)

const (
	background = "#0a0a0a"
	wallColor  = "#c0caf5"
	hotColor   = "#f7768e"
	coldColor  = "#7aa2f7"
)

// palette colours species without a configured colour.
var palette = []string{"#7dcfff", "#9ece6a", "#e0af68", "#bb9af7", "#ff9e64", "#2ac3de"}

// Options controls FrameToSVG.
type Options struct {
	Width, Height int
	// Padding is added around the scene in world units.
	Padding float64
	// Species supplies particle colours; missing entries use a palette.
	Species map[int]scene.Species
	// Caption is printed in the top left corner when set.
	Caption string
}

func DefaultOptions() Options {
	return Options{Width: 800, Height: 600, Padding: 0.1}
}

func speciesColor(species map[int]scene.Species, id int) string {
	if sp, ok := species[id]; ok && sp.Color != "" {
		return sp.Color
	}
	if id < 0 {
		id = -id
	}
	return palette[id%len(palette)]
}

// WallColor is neutral for plain walls. Thermal walls are red when hotter
// than ref and blue otherwise.
func WallColor(w scene.Wall, ref float64) string {
	if !w.Thermal {
		return wallColor
	}
	if w.Temperature > ref {
		return hotColor
	}
	return coldColor
}

// FrameToSVG draws walls as lines and particles as circles at their true
// radius. The world y axis points up.
func FrameToSVG(f sim.Frame, opts Options) string {
	if opts.Width <= 0 || opts.Height <= 0 {
		def := DefaultOptions()
		opts.Width, opts.Height = def.Width, def.Height
	}
	w, h := float64(opts.Width), float64(opts.Height)
	vp := viz.Fit(f, opts.Padding)
	scale := vp.Scale(w, h)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, opts.Width, opts.Height, opts.Width, opts.Height, background))

	sb.WriteString(`<g stroke-width="2" stroke-linecap="round">` + "\n")
	for _, wall := range f.Walls {
		x0, y0 := vp.Map(wall.A, w, h)
		x1, y1 := vp.Map(wall.B, w, h)
		sb.WriteString(fmt.Sprintf(`<line x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="%s"/>
`, x0, y0, x1, y1, WallColor(wall, f.Stats.Temperature)))
	}
	sb.WriteString("</g>\n<g>\n")

	for _, p := range f.Particles {
		if !geom.Finite(p.Position) {
			continue
		}
		cx, cy := vp.Map(p.Position, w, h)
		r := math.Max(p.Radius*scale, 0.5)
		sb.WriteString(fmt.Sprintf(`<circle cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>
`, cx, cy, r, speciesColor(opts.Species, p.Species)))
	}
	sb.WriteString("</g>\n")

	if opts.Caption != "" {
		sb.WriteString(fmt.Sprintf(`<text x="8" y="18" fill="%s" font-family="monospace" font-size="14">%s</text>
`, wallColor, escape(opts.Caption)))
	}
	sb.WriteString("</svg>")
	return sb.String()
}

// Caption is the default caption for a frame.
func Caption(f sim.Frame) string {
	return fmt.Sprintf("t=%.3f  frame %d  N=%d  T=%.4f", f.Time, f.Number, f.Stats.NumParticles, f.Stats.Temperature)
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return escaper.Replace(s) }

// CanvasToSVG converts a Braille canvas to SVG, one dot per lit sub-pixel.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}

	pw, ph := canvas.Pixels()
	width := float64(pw) * scale
	height := float64(ph) * scale

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="#00ff00">
`, width, height, width, height, background))

	dotRadius := scale * 0.4
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>
`, cx, cy, dotRadius))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}
