package export

import (
	"errors"
	"fmt"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/contour"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

// shape is an annotation resolved for encoding: its class, its outline in
// image pixels and its bounding rectangle.
type shape struct {
	index int
	ann   annotation.Annotation
	class annotation.Class

	// outline is the polygon ring for area-like shapes (bbox, obb, polygon,
	// traced mask). It is nil for point-like shapes.
	outline []geometry.Point

	bounds    geometry.Rect
	hasBounds bool

	// truncated is set when a mask trace hit its point cap.
	truncated bool
}

func (s shape) area() float64 {
	if b, ok := s.ann.Data.(*annotation.BBox); ok {
		return b.Width * b.Height
	}
	if s.outline != nil {
		return geometry.PolygonArea(s.outline)
	}
	if s.ann.Type == annotation.TypeKeypoints && s.hasBounds {
		return s.bounds.Width() * s.bounds.Height()
	}
	return 0
}

// errEmptyMask marks a mask with no foreground. It never leaves the package.
var errEmptyMask = errors.New("empty mask")

// resolve prepares one annotation. It returns errEmptyMask for a mask with no
// foreground and an error wrapping annotation.ErrMalformedRaster for a mask
// whose raster does not match its declared size.
func resolve(i int, a annotation.Annotation, rec *annotation.ImageRecord, classes annotation.Classes, opts contour.Options) (shape, error) {
	class, _ := classes.Resolve(a.ClassID)
	s := shape{index: i, ann: a, class: class}

	switch d := a.Data.(type) {
	case *annotation.BBox:
		s.outline = []geometry.Point{
			{X: d.X, Y: d.Y}, {X: d.X + d.Width, Y: d.Y},
			{X: d.X + d.Width, Y: d.Y + d.Height}, {X: d.X, Y: d.Y + d.Height},
		}
	case *annotation.OBB:
		c := d.Corners()
		s.outline = c[:]
	case *annotation.Polygon:
		if len(d.Points) >= annotation.MinPolygonPoints {
			s.outline = append([]geometry.Point(nil), d.Points...)
		}
	case *annotation.Mask:
		if len(d.Alpha) != d.Width*d.Height {
			return s, fmt.Errorf("%w: mask %dx%d has %d samples",
				annotation.ErrMalformedRaster, d.Width, d.Height, len(d.Alpha))
		}
		res := contour.MaskToPolygon(d, opts)
		if len(res.Points) == 0 {
			return s, errEmptyMask
		}
		s.truncated = res.Truncated
		if len(res.Points) >= annotation.MinPolygonPoints {
			s.outline = res.Points
		}
	case *annotation.Keypoints:
		if r, ok := geometry.Bounds(d.LabeledPoints()); ok {
			s.bounds, s.hasBounds = r, true
		}
		return s, nil
	case *annotation.PointMark:
		s.bounds, s.hasBounds = geometry.Rect{MinX: d.X, MinY: d.Y, MaxX: d.X, MaxY: d.Y}, true
		return s, nil
	case *annotation.Landmark:
		s.bounds, s.hasBounds = geometry.Rect{MinX: d.X, MinY: d.Y, MaxX: d.X, MaxY: d.Y}, true
		return s, nil
	case *annotation.Range:
		s.bounds, s.hasBounds = geometry.Rect{MinX: d.Start, MinY: 0, MaxX: d.End, MaxY: float64(rec.Height)}, true
		return s, nil
	}

	if s.outline != nil {
		s.bounds, s.hasBounds = geometry.Bounds(s.outline)
	}
	return s, nil
}
