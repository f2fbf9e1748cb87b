package metrics

import (
	"github.com/san-kum/gasbox/internal/sim"
)

// Stability is the fraction of frames that raised no warnings.
type Stability struct {
	name       string
	violations int
	samples    int
}

func NewStability() *Stability {
	return &Stability{
		name: "stability",
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f sim.Frame) {
	s.samples++
	if len(f.Warnings) > 0 {
		s.violations++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}

// Default returns the metrics the CLI attaches to every run. The
// temperature mean skips the first warmup frames.
func Default(warmup int) []sim.Metric {
	return []sim.Metric{
		NewTemperature(warmup),
		NewEnergyDrift(),
		NewMomentumDrift(),
		NewStability(),
	}
}
