// Package viz renders simulated bodies in the terminal.
//
// It consumes vertex arrays and boundary faces only: [Render] projects the
// edges of each surface through an orbiting [Camera] onto a braille
// [Canvas]. [Model] is a Bubble Tea program whose frame ticks feed the
// simulator's fixed-step accumulator, and [Picker] is a preset menu in
// front of it.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	R     - Reset to initial state
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//	[ ]   - Tune the selected material parameter
package viz
