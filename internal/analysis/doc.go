// Package analysis characterises the state of a gas.
//
//   - [SpeedDistribution]: histogram of particle speeds against the 2-D
//     Maxwell-Boltzmann density at the measured temperature
//   - [PhaseSpace]: position against velocity along one axis
//
// # Equilibrium Check
//
// A relaxed gas matches the Maxwell density closely:
//
//	d := analysis.SpeedDistribution(frame.Particles, 20)
//	if d.L1Error() < 0.1 {
//	    // close to equilibrium
//	}
package analysis
