// Package viz draws particle orbits in the terminal.
//
// The live view is a Bubble Tea program that steps a tracker between
// frames:
//
//   - [Model]: live orbit view of one experiment
//   - [Canvas]: braille pixel canvas, 2x4 dots per cell
//   - [Camera] and [Scene]: perspective projection for the 3D view
//   - Four colour themes, see [Themes]
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Restart the run
//	[ ]   - Halve/double steps per frame
//	V     - Toggle x-y and 3D views
//	x y z - Rotate the 3D camera, shift to reverse
//	+ -   - Zoom
//	T     - Cycle colour themes
//	G     - Toggle GIF recording
//	?     - Show help overlay
//
// # Recording
//
// G starts capturing the orbit canvas and a second G writes the frames to
// orbit.gif in the current directory.
package viz
