package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/gasbox/internal/scene"
	"gonum.org/v1/gonum/spatial/r2"
)

// maxwellGas places speeds at evenly spaced quantiles of the 2-D Maxwell
// distribution, pointing in rotating directions.
func maxwellGas(n int, T float64) []scene.Particle {
	ps := make([]scene.Particle, n)
	for i := range ps {
		u := (float64(i) + 0.5) / float64(n)
		v := math.Sqrt(-2 * T * math.Log(1-u))
		th := float64(i) * 2.399963
		ps[i] = scene.Particle{
			ID:       i,
			Velocity: r2.Vec{X: v * math.Cos(th), Y: v * math.Sin(th)},
			Mass:     1,
			Radius:   0.01,
		}
	}
	return ps
}

func TestMaxwellPDF(t *testing.T) {
	tests := []struct {
		name    string
		v, m, T float64
		want    float64
	}{
		{"zero speed", 0, 1, 1, 0},
		{"peak", 1, 1, 1, math.Exp(-0.5)},
		{"negative speed", -1, 1, 1, 0},
		{"zero temperature", 1, 1, 0, 0},
	}
	for _, tt := range tests {
		if got := MaxwellPDF(tt.v, tt.m, tt.T); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: MaxwellPDF = %g, want %g", tt.name, got, tt.want)
		}
	}

	// integrates to one
	sum, dv := 0.0, 1e-3
	for v := dv / 2; v < 20; v += dv {
		sum += MaxwellPDF(v, 2, 1.5) * dv
	}
	if math.Abs(sum-1) > 1e-3 {
		t.Errorf("integral = %f", sum)
	}
}

func TestSpeedDistributionMatchesMaxwell(t *testing.T) {
	d := SpeedDistribution(maxwellGas(10000, 1), 20)

	total := 0.0
	for _, c := range d.Counts {
		total += c
	}
	if total != 10000 {
		t.Fatalf("binned %v particles, want 10000", total)
	}
	if math.Abs(d.Temperature-1) > 0.01 {
		t.Errorf("temperature = %f", d.Temperature)
	}
	if e := d.L1Error(); e > 0.15 {
		t.Errorf("L1 error against Maxwell = %f", e)
	}
}

func TestSpeedDistributionMonoenergetic(t *testing.T) {
	ps := make([]scene.Particle, 100)
	for i := range ps {
		th := float64(i)
		ps[i] = scene.Particle{ID: i, Velocity: r2.Vec{X: math.Cos(th), Y: math.Sin(th)}.Scale(math.Sqrt2), Mass: 1, Radius: 0.01}
	}
	d := SpeedDistribution(ps, 20)
	if e := d.L1Error(); e < 0.5 {
		t.Errorf("single speed should be far from Maxwell, L1 = %f", e)
	}
}

func TestSpeedDistributionEdgeCases(t *testing.T) {
	empty := SpeedDistribution(nil, 0)
	if len(empty.Counts) != 1 || empty.L1Error() != 0 {
		t.Errorf("empty distribution = %+v", empty)
	}

	ps := []scene.Particle{
		{ID: 0, Velocity: r2.Vec{X: math.NaN()}, Mass: 1, Radius: 0.1},
		{ID: 1, Mass: 1, Radius: 0.1},
	}
	d := SpeedDistribution(ps, 4)
	if d.Counts[0] != 1 {
		t.Errorf("counts = %v", d.Counts)
	}
}

func TestDistributionASCII(t *testing.T) {
	d := SpeedDistribution(maxwellGas(500, 1), 8)
	out := d.ASCII(30)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 8 rows, got %d", len(lines))
	}
	if !strings.Contains(out, "█") || !strings.Contains(out, "|") {
		t.Error("missing bars or reference marks")
	}
}

func TestPhaseSpace(t *testing.T) {
	ps := []scene.Particle{
		{ID: 0, Position: r2.Vec{X: 1, Y: 2}, Velocity: r2.Vec{X: -1, Y: 3}},
		{ID: 1, Position: r2.Vec{X: 2, Y: 4}, Velocity: r2.Vec{X: 1, Y: -3}},
		{ID: 2, Position: r2.Vec{X: math.Inf(1)}, Velocity: r2.Vec{}},
	}
	tests := []struct {
		axis  Axis
		first struct{ X, Y float64 }
	}{
		{AxisX, struct{ X, Y float64 }{1, -1}},
		{AxisY, struct{ X, Y float64 }{2, 3}},
	}
	for _, tt := range tests {
		p := PhaseSpace(ps, tt.axis)
		if len(p.Points) != 2 {
			t.Fatalf("axis %d: %d points, want 2", tt.axis, len(p.Points))
		}
		if p.Points[0] != tt.first {
			t.Errorf("axis %d: first point %v, want %v", tt.axis, p.Points[0], tt.first)
		}
	}

	out := PhasePortraitToASCII(PhaseSpace(ps, AxisX), 20, 10)
	if strings.Count(out, "•") != 2 {
		t.Errorf("expected 2 points in\n%s", out)
	}
	if !strings.Contains(out, "─") {
		t.Error("missing v = 0 line")
	}
	if PhasePortraitToASCII(nil, 20, 10) != "" {
		t.Error("nil portrait should render empty")
	}
}
