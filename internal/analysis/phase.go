package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/gasbox/internal/scene"
)

// Axis selects the x or y component.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

// PhasePortrait2D holds (position, velocity) pairs along one axis.
type PhasePortrait2D struct {
	Axis   Axis
	Points []struct{ X, Y float64 }
}

// PhaseSpace records every finite particle as (position, velocity) along
// axis. A gas under gravity shows its slowest particles near the top.
func PhaseSpace(particles []scene.Particle, axis Axis) *PhasePortrait2D {
	portrait := &PhasePortrait2D{
		Axis:   axis,
		Points: make([]struct{ X, Y float64 }, 0, len(particles)),
	}
	for _, p := range particles {
		x, v := p.Position.X, p.Velocity.X
		if axis == AxisY {
			x, v = p.Position.Y, p.Velocity.Y
		}
		if math.IsNaN(x+v) || math.IsInf(x+v, 0) {
			continue
		}
		portrait.Points = append(portrait.Points, struct{ X, Y float64 }{x, v})
	}
	return portrait
}

// PhasePortraitToASCII plots the portrait on a width x height grid with the
// v = 0 line drawn when it is in range.
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}

	// pad by a tenth of the range
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			grid[row][col] = '─'
		}
	}
	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
