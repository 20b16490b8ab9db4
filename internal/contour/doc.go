// Package contour converts raster masks into polygons.
//
// Trace follows the outer boundary of the first foreground region found in
// row-major order using Moore-neighbour tracing. Simplify reduces the traced
// boundary with Douglas-Peucker. MaskToPolygon chains the two, and Fill goes the
// other way, rasterising a polygon into a mask.
//
// Tracing is bounded by Options.MaxPoints so a malformed raster can never loop
// forever. When the bound is hit the partial contour is kept and Truncated is
// reported; an empty raster yields an empty contour and no error.
package contour
