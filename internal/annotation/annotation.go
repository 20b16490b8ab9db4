package annotation

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

// Annotation is a typed shape tagged with a class. Data always agrees with Type.
type Annotation struct {
	Type    Type
	ClassID int
	Data    Geometry
}

// Create validates data against the invariants of t and returns the annotation.
// Polygon data passed here is treated as a finished shape and is marked closed.
func Create(t Type, classID int, data Geometry) (Annotation, error) {
	if data == nil {
		return Annotation{}, fmt.Errorf("%w: %s annotation has no data", ErrInvalidGeometry, t)
	}
	if data.Kind() != t {
		return Annotation{}, fmt.Errorf("%w: %s data given for %s annotation", ErrInvalidGeometry, data.Kind(), t)
	}
	if p, ok := data.(*Polygon); ok && len(p.Points) < MinPolygonPoints {
		return Annotation{}, fmt.Errorf("%w: polygon needs at least %d points, has %d", ErrInvalidGeometry, MinPolygonPoints, len(p.Points))
	}
	a := Annotation{Type: t, ClassID: classID, Data: data}
	if err := a.Validate(); err != nil {
		return Annotation{}, err
	}

	switch d := data.(type) {
	case *Polygon:
		d.Closed = true
	case *OBB:
		d.Angle = geometry.NormalizeAngle(d.Angle)
	case *Range:
		if d.Start > d.End {
			d.Start, d.End = d.End, d.Start
		}
	}
	return a, nil
}

// Validate checks the annotation against its type's invariants.
func (a Annotation) Validate() error {
	if a.Data == nil || a.Data.Kind() != a.Type {
		return fmt.Errorf("%w: data does not match type %s", ErrInvalidGeometry, a.Type)
	}
	switch d := a.Data.(type) {
	case *BBox:
		if !finite(d.X, d.Y, d.Width, d.Height) || d.Width <= 0 || d.Height <= 0 {
			return fmt.Errorf("%w: bbox extent %gx%g must be positive", ErrInvalidGeometry, d.Width, d.Height)
		}
	case *OBB:
		if !finite(d.CX, d.CY, d.Width, d.Height, d.Angle) {
			return fmt.Errorf("%w: obb has non-finite values", ErrInvalidGeometry)
		}
		if d.Width < MinOBBSize || d.Height < MinOBBSize {
			return fmt.Errorf("%w: obb extent %gx%g below minimum %g", ErrInvalidGeometry, d.Width, d.Height, MinOBBSize)
		}
	case *Polygon:
		if d.Closed && len(d.Points) < MinPolygonPoints {
			return fmt.Errorf("%w: polygon needs at least %d points, has %d", ErrInvalidGeometry, MinPolygonPoints, len(d.Points))
		}
	case *Mask:
		if !d.valid() {
			return fmt.Errorf("%w: mask %dx%d has %d samples", ErrInvalidGeometry, d.Width, d.Height, len(d.Alpha))
		}
	case *Keypoints:
		if len(d.Points) == 0 {
			return fmt.Errorf("%w: keypoint set is empty", ErrInvalidGeometry)
		}
	case *Range:
		if !finite(d.Start, d.End) {
			return fmt.Errorf("%w: range has non-finite values", ErrInvalidGeometry)
		}
	}
	return nil
}

// Clone returns a deep copy of the annotation.
func (a Annotation) Clone() Annotation {
	c := a
	if a.Data != nil {
		c.Data = a.Data.Clone()
	}
	return c
}

type annotationJSON struct {
	Type    Type            `json:"type"`
	ClassID int             `json:"classId"`
	Data    json.RawMessage `json:"data"`
}

// MarshalJSON encodes the annotation as {"type", "classId", "data"}.
func (a Annotation) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(a.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(annotationJSON{Type: a.Type, ClassID: a.ClassID, Data: data})
}

// UnmarshalJSON decodes the wire form and selects the data variant from type.
// It does not validate; call Validate when the source is untrusted.
func (a *Annotation) UnmarshalJSON(b []byte) error {
	var v annotationJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	g, err := newGeometry(v.Type)
	if err != nil {
		return err
	}
	if len(v.Data) > 0 && string(v.Data) != "null" {
		if err := json.Unmarshal(v.Data, g); err != nil {
			return fmt.Errorf("failed to decode %s data: %w", v.Type, err)
		}
	}
	a.Type = v.Type
	a.ClassID = v.ClassID
	a.Data = g
	return nil
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
