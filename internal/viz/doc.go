// Package viz renders the treatment line as a terminal dashboard.
//
// The dashboard is a Bubble Tea program subscribed to a [sim.Updater]. It
// never advances the clock itself; it redraws on every snapshot it receives
// and turns key presses into operator edits.
//
// # Key Bindings
//
//	Tab / Shift+Tab - Select a control
//	←/→ or H/L      - Adjust the selected control by one step
//	A               - Toggle auto dosing
//	E               - Export a JSON report
//	T               - Cycle color themes
//	Q               - Quit
package viz
