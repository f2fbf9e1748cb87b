package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/san-kum/gasbox/internal/scene"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

// Distribution is a normalised speed histogram. Density integrates to one
// over [Edges[0], Edges[len-1]].
type Distribution struct {
	Edges       []float64
	Counts      []float64
	Density     []float64
	Temperature float64
	// Mass is the mean particle mass used for the reference density.
	Mass float64
}

// MaxwellPDF is the 2-D Maxwell-Boltzmann speed density with k = 1:
// f(v) = (m v / T) exp(-m v² / 2T).
func MaxwellPDF(v, m, T float64) float64 {
	if v < 0 || T <= 0 || m <= 0 {
		return 0
	}
	return m * v / T * math.Exp(-m*v*v/(2*T))
}

// SpeedDistribution bins particle speeds into bins equal-width bins from 0
// to a little past the fastest particle. Non-finite velocities are skipped.
func SpeedDistribution(particles []scene.Particle, bins int) Distribution {
	if bins < 1 {
		bins = 1
	}
	speeds := make([]float64, 0, len(particles))
	masses := make([]float64, 0, len(particles))
	finite := make([]scene.Particle, 0, len(particles))
	for _, p := range particles {
		v := r2.Norm(p.Velocity)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		speeds = append(speeds, v)
		masses = append(masses, p.Mass)
		finite = append(finite, p)
	}

	d := Distribution{
		Edges:   make([]float64, bins+1),
		Counts:  make([]float64, bins),
		Density: make([]float64, bins),
	}
	if len(speeds) == 0 {
		floats.Span(d.Edges, 0, 1)
		return d
	}

	sort.Float64s(speeds)
	top := speeds[len(speeds)-1] * 1.0001
	if top == 0 {
		top = 1
	}
	floats.Span(d.Edges, 0, top)
	stat.Histogram(d.Counts, d.Edges, speeds, nil)

	width := d.Edges[1] - d.Edges[0]
	n := float64(len(speeds))
	for i, c := range d.Counts {
		d.Density[i] = c / (n * width)
	}
	d.Temperature = scene.Measure(finite).Temperature
	d.Mass = stat.Mean(masses, nil)
	return d
}

// Reference returns the Maxwell density at each bin centre.
func (d Distribution) Reference() []float64 {
	ref := make([]float64, len(d.Density))
	for i := range ref {
		mid := (d.Edges[i] + d.Edges[i+1]) / 2
		ref[i] = MaxwellPDF(mid, d.Mass, d.Temperature)
	}
	return ref
}

// L1Error is the integrated absolute difference between the histogram and
// the Maxwell density, between 0 and 2.
func (d Distribution) L1Error() float64 {
	if len(d.Density) == 0 {
		return 0
	}
	width := d.Edges[1] - d.Edges[0]
	diff := make([]float64, len(d.Density))
	floats.SubTo(diff, d.Density, d.Reference())
	for i := range diff {
		diff[i] = math.Abs(diff[i])
	}
	return floats.Sum(diff) * width
}

// ASCII draws one bar per bin, with the Maxwell density marked by '|'.
func (d Distribution) ASCII(width int) string {
	if width < 10 {
		width = 10
	}
	ref := d.Reference()
	peak := math.Max(floats.Max(d.Density), floats.Max(ref))
	if peak == 0 {
		peak = 1
	}

	var sb strings.Builder
	for i, v := range d.Density {
		bar := []rune(strings.Repeat("█", int(v/peak*float64(width))) + strings.Repeat(" ", width+1))
		bar = bar[:width+1]
		if mark := int(ref[i] / peak * float64(width)); mark <= width {
			bar[mark] = '|'
		}
		sb.WriteString(fmt.Sprintf("%7.3f %s\n", d.Edges[i], string(bar)))
	}
	return sb.String()
}
