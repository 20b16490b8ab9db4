// Package tool turns pointer gestures into annotation edits.
//
// A Session owns the interaction state for one image and one active tool. Every
// gesture is routed through a table of transition functions keyed by
// (tool, gesture); a transition takes the current State and the pointer position
// in image space and returns the next State plus an Outcome describing what
// happened. Pairs missing from the table are no-ops.
//
// Draw tools (bbox, obb, polygon, point, landmark, range, keypoints) move
// idle -> drawing -> idle and append an annotation on commit. The select tool
// moves idle -> selected -> {dragging, resizing, rotating} -> selected and edits
// the selected annotation in place.
//
// Drag, resize and rotate are always computed from a snapshot of the shape taken
// when the gesture started, never accumulated move by move.
//
// A Session is not safe for concurrent use. It holds the only live handle to
// the image's annotation list while it is open.
package tool
