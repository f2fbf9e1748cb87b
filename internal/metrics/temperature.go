package metrics

import (
	"github.com/san-kum/gasbox/internal/sim"
	"gonum.org/v1/gonum/stat"
)

// Temperature averages the gas temperature over observed frames, skipping
// the first Warmup frames so the value reflects the relaxed state.
type Temperature struct {
	name    string
	Warmup  int
	seen    int
	samples []float64
}

func NewTemperature(warmup int) *Temperature {
	return &Temperature{name: "temperature", Warmup: warmup}
}

func (t *Temperature) Name() string { return t.name }

func (t *Temperature) Observe(f sim.Frame) {
	t.seen++
	if t.seen <= t.Warmup {
		return
	}
	t.samples = append(t.samples, f.Stats.Temperature)
}

func (t *Temperature) Value() float64 {
	if len(t.samples) == 0 {
		return 0
	}
	return stat.Mean(t.samples, nil)
}

// StdDev is the spread of the sampled temperatures.
func (t *Temperature) StdDev() float64 {
	if len(t.samples) < 2 {
		return 0
	}
	return stat.StdDev(t.samples, nil)
}

func (t *Temperature) Reset() {
	t.seen = 0
	t.samples = t.samples[:0]
}
