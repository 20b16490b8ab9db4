package annotation

import (
	"fmt"

	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

// Type identifies the kind of an annotation.
type Type string

// Annotation types.
const (
	TypeBBox      Type = "bbox"
	TypeOBB       Type = "obb"
	TypePolygon   Type = "polygon"
	TypeMask      Type = "mask"
	TypePoint     Type = "point"
	TypeRange     Type = "range"
	TypeKeypoints Type = "keypoints"
	TypeLandmark  Type = "landmark"
)

// Types lists every annotation type in declaration order.
var Types = []Type{
	TypeBBox, TypeOBB, TypePolygon, TypeMask,
	TypePoint, TypeRange, TypeKeypoints, TypeLandmark,
}

// ParseType converts a string into a Type.
func ParseType(s string) (Type, error) {
	for _, t := range Types {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown annotation type: %q", s)
}

// Minimum sizes enforced by the shape model.
const (
	// MinOBBSize is the smallest editable oriented box extent in pixels.
	MinOBBSize = 10.0

	// MinBBoxSize is the extent a bbox is clamped to when an edit collapses it.
	MinBBoxSize = 1.0

	// MinPolygonPoints is the smallest vertex count of a closed polygon.
	MinPolygonPoints = 3
)

// Geometry is the closed set of annotation data variants.
type Geometry interface {
	// Kind reports the annotation type this geometry belongs to.
	Kind() Type

	// Translate moves the geometry by (dx, dy) in place.
	Translate(dx, dy float64)

	// Clone returns a deep copy.
	Clone() Geometry

	isGeometry()
}

// BBox is an axis-aligned box given by its top-left corner and extent.
type BBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (*BBox) Kind() Type { return TypeBBox }
func (*BBox) isGeometry() {}

func (b *BBox) Translate(dx, dy float64) {
	b.X += dx
	b.Y += dy
}

func (b *BBox) Clone() Geometry {
	c := *b
	return &c
}

// Center returns the centre of the box.
func (b *BBox) Center() geometry.Point {
	return geometry.Pt(b.X+b.Width/2, b.Y+b.Height/2)
}

// OBB is an oriented bounding box: centre, extent, and rotation in degrees.
type OBB struct {
	CX     float64 `json:"cx"`
	CY     float64 `json:"cy"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Angle  float64 `json:"angle"`
}

func (*OBB) Kind() Type { return TypeOBB }
func (*OBB) isGeometry() {}

func (o *OBB) Translate(dx, dy float64) {
	o.CX += dx
	o.CY += dy
}

func (o *OBB) Clone() Geometry {
	c := *o
	return &c
}

// Corners returns the four corners of the box in image space.
func (o *OBB) Corners() [4]geometry.Point {
	return geometry.Corners(o.CX, o.CY, o.Width, o.Height, o.Angle)
}

// Polygon is an ordered vertex list. Closed is set once the polygon is finished.
type Polygon struct {
	Points []geometry.Point `json:"points"`
	Closed bool             `json:"closed"`
}

func (*Polygon) Kind() Type { return TypePolygon }
func (*Polygon) isGeometry() {}

func (p *Polygon) Translate(dx, dy float64) {
	for i := range p.Points {
		p.Points[i].X += dx
		p.Points[i].Y += dy
	}
}

func (p *Polygon) Clone() Geometry {
	c := &Polygon{Closed: p.Closed, Points: make([]geometry.Point, len(p.Points))}
	copy(c.Points, p.Points)
	return c
}

// PointMark is a single labelled location.
type PointMark struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (*PointMark) Kind() Type { return TypePoint }
func (*PointMark) isGeometry() {}

func (p *PointMark) Translate(dx, dy float64) {
	p.X += dx
	p.Y += dy
}

func (p *PointMark) Clone() Geometry {
	c := *p
	return &c
}

// Range is a horizontal pixel interval [Start, End].
type Range struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (*Range) Kind() Type { return TypeRange }
func (*Range) isGeometry() {}

func (r *Range) Translate(dx, _ float64) {
	r.Start += dx
	r.End += dx
}

func (r *Range) Clone() Geometry {
	c := *r
	return &c
}

// Keypoint visibility flags, as used by COCO and YOLO pose.
const (
	VisibilityUnlabeled = 0
	VisibilityOccluded  = 1
	VisibilityVisible   = 2
)

// Keypoint is one named slot of a keypoint set.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility int     `json:"v"`
}

// Labeled reports whether the keypoint has been placed.
func (k Keypoint) Labeled() bool {
	return k.Visibility > VisibilityUnlabeled
}

// Keypoints is an ordered keypoint set. Slot i corresponds to the project's
// i-th keypoint name.
type Keypoints struct {
	Points []Keypoint `json:"points"`
}

func (*Keypoints) Kind() Type { return TypeKeypoints }
func (*Keypoints) isGeometry() {}

func (k *Keypoints) Translate(dx, dy float64) {
	for i := range k.Points {
		if k.Points[i].Labeled() {
			k.Points[i].X += dx
			k.Points[i].Y += dy
		}
	}
}

func (k *Keypoints) Clone() Geometry {
	c := &Keypoints{Points: make([]Keypoint, len(k.Points))}
	copy(c.Points, k.Points)
	return c
}

// LabeledPoints returns the positions of keypoints that have been placed.
func (k *Keypoints) LabeledPoints() []geometry.Point {
	pts := make([]geometry.Point, 0, len(k.Points))
	for _, p := range k.Points {
		if p.Labeled() {
			pts = append(pts, geometry.Pt(p.X, p.Y))
		}
	}
	return pts
}

// VisiblePoints returns the positions of keypoints marked visible.
func (k *Keypoints) VisiblePoints() []geometry.Point {
	pts := make([]geometry.Point, 0, len(k.Points))
	for _, p := range k.Points {
		if p.Visibility == VisibilityVisible {
			pts = append(pts, geometry.Pt(p.X, p.Y))
		}
	}
	return pts
}

// Landmark is a point with a free-form label, such as a facial landmark.
type Landmark struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

func (*Landmark) Kind() Type { return TypeLandmark }
func (*Landmark) isGeometry() {}

func (l *Landmark) Translate(dx, dy float64) {
	l.X += dx
	l.Y += dy
}

func (l *Landmark) Clone() Geometry {
	c := *l
	return &c
}

// newGeometry returns an empty geometry value for t.
func newGeometry(t Type) (Geometry, error) {
	switch t {
	case TypeBBox:
		return &BBox{}, nil
	case TypeOBB:
		return &OBB{}, nil
	case TypePolygon:
		return &Polygon{}, nil
	case TypeMask:
		return &Mask{}, nil
	case TypePoint:
		return &PointMark{}, nil
	case TypeRange:
		return &Range{}, nil
	case TypeKeypoints:
		return &Keypoints{}, nil
	case TypeLandmark:
		return &Landmark{}, nil
	}
	return nil, fmt.Errorf("unknown annotation type: %q", t)
}
