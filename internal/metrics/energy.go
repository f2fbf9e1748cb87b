package metrics

import (
	"math"

	"github.com/san-kum/gasbox/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

// EnergyDrift is the largest relative change of total kinetic energy seen
// since the first observed frame. Zero for a closed elastic scene.
type EnergyDrift struct {
	name          string
	initialEnergy float64
	maxDrift      float64
	samples       int
}

func NewEnergyDrift() *EnergyDrift {
	return &EnergyDrift{name: "energy_drift"}
}

func (e *EnergyDrift) Name() string { return e.name }

func (e *EnergyDrift) Observe(f sim.Frame) {
	energy := f.Stats.KineticEnergy
	if e.samples == 0 || f.Step == 0 {
		e.initialEnergy = energy
	}
	e.samples++

	if e.initialEnergy != 0 {
		drift := math.Abs(energy-e.initialEnergy) / math.Abs(e.initialEnergy)
		e.maxDrift = math.Max(e.maxDrift, drift)
	}
}

func (e *EnergyDrift) Value() float64 {
	return e.maxDrift
}

func (e *EnergyDrift) Reset() {
	e.initialEnergy = 0
	e.maxDrift = 0
	e.samples = 0
}

// MomentumDrift is the largest |P - P0| seen. Walls and gravity both change
// momentum, so this is only meaningful for free particles.
type MomentumDrift struct {
	name     string
	initial  r2.Vec
	maxDrift float64
	samples  int
}

func NewMomentumDrift() *MomentumDrift {
	return &MomentumDrift{name: "momentum_drift"}
}

func (m *MomentumDrift) Name() string { return m.name }

func (m *MomentumDrift) Observe(f sim.Frame) {
	if m.samples == 0 || f.Step == 0 {
		m.initial = f.Stats.Momentum
	}
	m.samples++
	m.maxDrift = math.Max(m.maxDrift, r2.Norm(f.Stats.Momentum.Sub(m.initial)))
}

func (m *MomentumDrift) Value() float64 { return m.maxDrift }

func (m *MomentumDrift) Reset() {
	m.initial = r2.Vec{}
	m.maxDrift = 0
	m.samples = 0
}
