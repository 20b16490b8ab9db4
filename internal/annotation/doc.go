// Package annotation defines the shape model of the annotation engine.
//
// An Annotation is a typed record {Type, ClassID, Data}. Data is one of a closed
// set of geometry variants (BBox, OBB, Polygon, Mask, PointMark, Range,
// Keypoints, Landmark); the variant always agrees with Type. Geometry is stored in
// image pixel space.
//
// # Invariants
//
//   - BBox: Width and Height are positive.
//   - OBB: Width and Height are at least MinOBBSize; Angle is in [0, 360).
//   - Polygon: a closed polygon has at least MinPolygonPoints vertices.
//   - Mask: the alpha raster holds exactly Width × Height samples.
//
// Create validates these and refuses a violating shape with ErrInvalidGeometry.
// Mutate applies an edit in place and never fails; it clamps instead.
//
// # Ownership
//
// Annotations have no identity beyond their index in an ImageRecord's list. The
// list order is the z-order: the last annotation is drawn on top and wins
// hit-tests. An editing session holds the only live handle to a list; persistence
// and export receive a deep copy from ImageRecord.Snapshot.
//
// # Classes
//
// Classes are owned by the project and only read here. A ClassID that is not in
// the class list never fails: Classes.Resolve substitutes a synthetic name and a
// deterministic colour.
package annotation
