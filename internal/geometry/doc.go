// Package geometry provides the coordinate primitives shared by every part of the
// annotation engine.
//
// # Coordinate System
//
// Two frames are in use:
//   - Image space: pixel coordinates of the source image. Origin (0, 0) at the
//     top-left corner, X increases rightward, Y increases downward. All shape
//     geometry is stored and mutated in image space.
//   - Viewport space: pointer coordinates on the editing surface, after pan and
//     zoom have been applied. Only pointer interpretation and rendering touch it.
//
// A Viewport converts between the two:
//
//	imageX    = (viewportX - panX) / zoom
//	viewportX = imageX*zoom + panX
//
// # Rotated Frames
//
// Oriented boxes are edited in their own local frame, centred on the box with the
// X axis along the box width. ToLocal and FromLocal are the only routines that
// rotate points in this package; hit-testing, resizing and rendering all go
// through them so that the sign convention is defined in exactly one place.
//
// Angles are in degrees, clockwise on screen (Y points down), and are kept in
// [0, 360) by NormalizeAngle.
package geometry
