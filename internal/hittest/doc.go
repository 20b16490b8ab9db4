// Package hittest answers "what is under the pointer" for annotation shapes.
//
// Body tests work in image space: boxes are tested in their local frame (the
// identity for axis-aligned boxes, geometry.ToLocal for oriented boxes) and
// polygons with an even-odd ray cast. Handle tests compare distances against a
// radius given in screen pixels and divided by the viewport zoom, so a handle is
// equally easy to grab at any magnification.
//
// # Boundary convention
//
// The polygon ray cast uses a strict x < crossing test. Points exactly on a
// polygon's left or top edge count as inside and points on its right or bottom
// edge count as outside. Callers must not rely on any other boundary rule.
//
// # Priority
//
// Overlapping shapes are resolved topmost first: TopmostAt scans an annotation
// list from last to first. On a single shape the rotation grip wins over resize
// handles and vertices, which win over the body.
package hittest
