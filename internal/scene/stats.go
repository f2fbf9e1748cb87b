package scene

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r2"
)

// SpeciesStats aggregates one species.
type SpeciesStats struct {
	Species     int
	Count       int
	Temperature float64
}

// Stats summarises a particle set. Temperature is the mean kinetic energy
// per particle (k_B = 1, two translational degrees of freedom).
type Stats struct {
	NumParticles  int
	KineticEnergy float64
	Temperature   float64
	Momentum      r2.Vec
	Species       []SpeciesStats
}

// Measure computes Stats for particles.
func Measure(particles []Particle) Stats {
	st := Stats{NumParticles: len(particles)}
	if len(particles) == 0 {
		return st
	}
	ke := make([]float64, len(particles))
	bySpecies := make(map[int][]float64)
	for i, p := range particles {
		ke[i] = p.KineticEnergy()
		st.Momentum = st.Momentum.Add(p.Momentum())
		bySpecies[p.Species] = append(bySpecies[p.Species], ke[i])
	}
	st.KineticEnergy = floats.Sum(ke)
	st.Temperature = st.KineticEnergy / float64(len(particles))

	ids := make([]int, 0, len(bySpecies))
	for id := range bySpecies {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		e := bySpecies[id]
		st.Species = append(st.Species, SpeciesStats{
			Species:     id,
			Count:       len(e),
			Temperature: floats.Sum(e) / float64(len(e)),
		})
	}
	return st
}
