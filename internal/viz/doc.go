// Package viz renders the engine in a terminal with Bubble Tea.
//
// The terminal is exposed to the layout as a [TermHost], one cell mapping to
// [PixelsPerCol] x [PixelsPerRow] layout pixels. Visuals from the memory sink
// are painted onto a braille [Canvas]; the side panel shows entity counts,
// traffic, the busiest topics and a chart of the live entity total.
//
// # Key Bindings
//
//	1-9   - Switch to the nth mode
//	Tab   - Next mode
//	P     - Collapse/expand the side panel
//	Space - Pause/Resume
//	+/-   - Tune the synthetic arrival rate
//	C     - Run an aggressive cleanup sweep
//	S     - Save the current frame as SVG
//	T     - Cycle color themes
//	Q     - Quit
package viz
