package hittest

import (
	"math"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

// Default handle sizes in screen pixels.
const (
	DefaultHandleRadius   = 8.0
	DefaultRotationOffset = 30.0
)

// Options sets handle sizes in screen pixels.
type Options struct {
	// HandleRadius is the grab radius of resize handles, vertices and point-like
	// shapes.
	HandleRadius float64

	// RotationOffset is the distance of the rotation grip above the top edge of
	// an oriented box, measured in the box's local frame.
	RotationOffset float64
}

// DefaultOptions returns the standard handle sizes.
func DefaultOptions() Options {
	return Options{HandleRadius: DefaultHandleRadius, RotationOffset: DefaultRotationOffset}
}

func (o Options) radius(v geometry.Viewport) float64 {
	r := o.HandleRadius
	if r <= 0 {
		r = DefaultHandleRadius
	}
	return v.Scale(r)
}

func (o Options) rotationOffset(v geometry.Viewport) float64 {
	r := o.RotationOffset
	if r <= 0 {
		r = DefaultRotationOffset
	}
	return v.Scale(r)
}

// ContainsBBox reports whether p lies inside the axis-aligned box, edges included.
func ContainsBBox(b *annotation.BBox, p geometry.Point) bool {
	c := b.Center()
	return math.Abs(p.X-c.X) <= b.Width/2 && math.Abs(p.Y-c.Y) <= b.Height/2
}

// ContainsOBB reports whether p lies inside the oriented box, edges included.
func ContainsOBB(o *annotation.OBB, p geometry.Point) bool {
	local := geometry.ToLocal(p, o.CX, o.CY, o.Angle)
	return math.Abs(local.X) <= o.Width/2 && math.Abs(local.Y) <= o.Height/2
}

// ContainsPolygon reports whether p lies inside the polygon using the even-odd
// rule. The polygon is implicitly closed.
func ContainsPolygon(points []geometry.Point, p geometry.Point) bool {
	n := len(points)
	if n < 3 {
		return false
	}
	inside := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		pi, pj := points[i], points[j]
		if (pi.Y > p.Y) != (pj.Y > p.Y) &&
			p.X < (pj.X-pi.X)*(p.Y-pi.Y)/(pj.Y-pi.Y)+pi.X {
			inside = !inside
		}
	}
	return inside
}

// Contains reports whether p hits the body of a. Point-like shapes are hit
// within radius image pixels.
func Contains(a annotation.Annotation, p geometry.Point, radius float64) bool {
	switch d := a.Data.(type) {
	case *annotation.BBox:
		return ContainsBBox(d, p)
	case *annotation.OBB:
		return ContainsOBB(d, p)
	case *annotation.Polygon:
		return ContainsPolygon(d.Points, p)
	case *annotation.Mask:
		return d.Foreground(int(math.Floor(p.X)), int(math.Floor(p.Y)))
	case *annotation.PointMark:
		return geometry.Distance(p, geometry.Pt(d.X, d.Y)) <= radius
	case *annotation.Landmark:
		return geometry.Distance(p, geometry.Pt(d.X, d.Y)) <= radius
	case *annotation.Keypoints:
		return KeypointAt(d, p, radius) >= 0
	case *annotation.Range:
		return p.X >= d.Start && p.X <= d.End
	}
	return false
}

// TopmostAt returns the index of the last annotation in list whose body
// contains p, or -1 when nothing is hit.
func TopmostAt(list []annotation.Annotation, p geometry.Point, v geometry.Viewport, opts Options) int {
	r := opts.radius(v)
	for i := len(list) - 1; i >= 0; i-- {
		if Contains(list[i], p, r) {
			return i
		}
	}
	return -1
}

// VertexAt returns the index of the vertex closest to p within radius, or -1.
func VertexAt(points []geometry.Point, p geometry.Point, radius float64) int {
	best, bestDist := -1, radius
	for i, v := range points {
		if d := geometry.Distance(p, v); d <= bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// KeypointAt returns the index of the labelled keypoint closest to p within
// radius, or -1.
func KeypointAt(k *annotation.Keypoints, p geometry.Point, radius float64) int {
	best, bestDist := -1, radius
	for i, kp := range k.Points {
		if !kp.Labeled() {
			continue
		}
		if d := geometry.Distance(p, geometry.Pt(kp.X, kp.Y)); d <= bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// EdgeAt finds the polygon edge closest to p within radius. It returns the index
// of the edge's first vertex and the closest point on the edge, or -1. The
// closing edge from the last vertex back to the first is included when closed
// is set.
func EdgeAt(points []geometry.Point, p geometry.Point, radius float64, closed bool) (int, geometry.Point) {
	n := len(points)
	edges := n - 1
	if closed {
		edges = n
	}
	best, bestDist := -1, radius
	var at geometry.Point
	for i := 0; i < edges; i++ {
		a, b := points[i], points[(i+1)%n]
		d, t := geometry.SegmentDistance(p, a, b)
		if d <= bestDist {
			best, bestDist = i, d
			at = geometry.Pt(a.X+t*(b.X-a.X), a.Y+t*(b.Y-a.Y))
		}
	}
	return best, at
}
