package annotation

import (
	"math"

	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

// Patch is a partial update of an annotation's geometry. Nil fields are left
// unchanged; fields that do not apply to the annotation's type are ignored.
type Patch struct {
	ClassID *int

	// Position: BBox top-left, OBB centre, point and landmark location.
	X *float64
	Y *float64

	Width  *float64
	Height *float64
	Angle  *float64

	// Range endpoints.
	Start *float64
	End   *float64

	// Points replaces a polygon's vertex list.
	Points []geometry.Point

	// Keypoint updates a single keypoint slot.
	Keypoint      *Keypoint
	KeypointIndex int

	Label *string
}

// Mutate applies p to a in place. It never fails: values outside a type's
// valid range are clamped (OBB extent to MinOBBSize, BBox extent to
// MinBBoxSize), angles are normalised into [0, 360) and a vertex list too
// short for a closed polygon is ignored.
func Mutate(a *Annotation, p Patch) {
	if p.ClassID != nil {
		a.ClassID = *p.ClassID
	}

	switch d := a.Data.(type) {
	case *BBox:
		set(&d.X, p.X)
		set(&d.Y, p.Y)
		set(&d.Width, p.Width)
		set(&d.Height, p.Height)
		d.Width = math.Max(d.Width, MinBBoxSize)
		d.Height = math.Max(d.Height, MinBBoxSize)

	case *OBB:
		set(&d.CX, p.X)
		set(&d.CY, p.Y)
		set(&d.Width, p.Width)
		set(&d.Height, p.Height)
		set(&d.Angle, p.Angle)
		ClampOBB(d)

	case *Polygon:
		// A closed polygon keeps its vertices when the patch would leave it
		// with fewer than MinPolygonPoints.
		if p.Points != nil && (!d.Closed || len(p.Points) >= MinPolygonPoints) {
			d.Points = append(d.Points[:0:0], p.Points...)
		}

	case *PointMark:
		set(&d.X, p.X)
		set(&d.Y, p.Y)

	case *Landmark:
		set(&d.X, p.X)
		set(&d.Y, p.Y)
		if p.Label != nil {
			d.Label = *p.Label
		}

	case *Range:
		set(&d.Start, p.Start)
		set(&d.End, p.End)
		if d.Start > d.End {
			d.Start, d.End = d.End, d.Start
		}

	case *Keypoints:
		if p.Keypoint != nil && p.KeypointIndex >= 0 && p.KeypointIndex < len(d.Points) {
			d.Points[p.KeypointIndex] = *p.Keypoint
		}
	}
}

// ClampOBB enforces the minimum extent and normalises the angle of o.
func ClampOBB(o *OBB) {
	o.Width = math.Max(o.Width, MinOBBSize)
	o.Height = math.Max(o.Height, MinOBBSize)
	o.Angle = geometry.NormalizeAngle(o.Angle)
}

func set(dst *float64, v *float64) {
	if v != nil && !math.IsNaN(*v) {
		*dst = *v
	}
}
