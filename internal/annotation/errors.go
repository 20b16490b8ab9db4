package annotation

import "errors"

// ErrInvalidGeometry is returned when a shape violates its type's invariants,
// for example a polygon closed with fewer than three vertices.
var ErrInvalidGeometry = errors.New("invalid geometry")

// ErrMalformedRaster is returned when a mask raster cannot be decoded or its
// pixel size disagrees with its declared dimensions.
var ErrMalformedRaster = errors.New("malformed raster")
