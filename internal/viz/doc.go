// Package viz draws gas frames in the terminal.
//
// [Canvas] is a Braille pixel grid, [Viewport] maps world coordinates onto
// it and [Draw] renders one frame. [Model] is a Bubble Tea program that
// reads frames from a playback scheduler and forwards key presses to it as
// commands:
//
//	Space - Play/Pause
//	N     - Step once
//	+/-   - Change speed
//	R     - Reset the scene
//	T     - Cycle color themes
//	?     - Show help overlay
//
// The engine is only ever touched by the scheduler's goroutine, so the view
// stays responsive however slow the simulation is.
package viz
