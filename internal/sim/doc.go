// Package sim advances a scene one fixed step at a time.
//
// An [Engine] owns a private copy of the scene. Each call to [Engine.Step]
// integrates every particle, then repeatedly finds and resolves contacts
// until none remain or the iteration bound is reached, repairs numerically
// broken or escaped particles, and returns an immutable [Frame].
//
//   - [Engine]: the stepper, with [Engine.Run] for batch use
//   - [Frame]: snapshot of one step
//   - [Warning]: recoverable problems raised by a step
//   - [Metric], [Observer]: hooks fed by [Engine.Run]
//
// # Example
//
//	eng, err := sim.New(sc, sim.Options{Dt: 0.005, Seed: 1})
//	if err != nil {
//		return err
//	}
//	res, err := eng.Run(ctx, 1000)
//
// # Thread Safety
//
// An Engine is NOT safe for concurrent use. A Step that overlaps another
// returns [ErrBusy]. Frames are safe to share once returned.
package sim
