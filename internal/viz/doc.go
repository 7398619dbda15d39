// Package viz is the terminal console of the simulator.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [Model]: the console, reading controller snapshots once per frame
//   - [Canvas]: Braille-based pixel canvas with per-cell ink
//   - [SpinView]: fixed-scale projection of the spin field onto a canvas
//   - Theme selection with 4 built-in color schemes
//
// # Key Bindings
//
//	S     - Start a scan
//	X     - Stop the running scan
//	M     - Toggle the magnet
//	B     - Cycle B0
//	R/P   - Cycle region / sequence
//	T     - Cycle color themes
//	?     - Show help overlay
//
// # Render loop
//
// Frames are scheduled with tea.Tick and tagged with a loop id. Stop bumps
// the id so frames already in flight are ignored.
package viz
