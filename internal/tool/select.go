package tool

import (
	"fmt"
	"math"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
	"github.com/ironsheep/annotate-mcp/internal/hittest"
)

// anchorOf returns the reference point a drag moves: the top-left of a bbox,
// the centre of an oriented box, the first vertex of a polygon.
func anchorOf(g annotation.Geometry) geometry.Point {
	switch d := g.(type) {
	case *annotation.BBox:
		return geometry.Pt(d.X, d.Y)
	case *annotation.OBB:
		return geometry.Pt(d.CX, d.CY)
	case *annotation.Polygon:
		if len(d.Points) > 0 {
			return d.Points[0]
		}
	case *annotation.PointMark:
		return geometry.Pt(d.X, d.Y)
	case *annotation.Landmark:
		return geometry.Pt(d.X, d.Y)
	case *annotation.Range:
		return geometry.Pt(d.Start, 0)
	case *annotation.Keypoints:
		if pts := d.LabeledPoints(); len(pts) > 0 {
			return pts[0]
		}
	}
	return geometry.Point{}
}

// centerOf returns the rotation centre of a shape.
func centerOf(g annotation.Geometry) geometry.Point {
	switch d := g.(type) {
	case *annotation.OBB:
		return geometry.Pt(d.CX, d.CY)
	case *annotation.BBox:
		return d.Center()
	}
	return anchorOf(g)
}

func pointerAngle(p, c geometry.Point) float64 {
	return geometry.Degrees(math.Atan2(p.Y-c.Y, p.X-c.X))
}

func pressSelect(s State, e *env, p geometry.Point) (State, Outcome) {
	// Handles of the current selection take priority over any body.
	if e.valid(s.Selection) {
		a := e.image.Annotations[s.Selection]
		if hit, ok := hittest.HandleAt(a, p, e.viewport, e.opts.Hit); ok {
			next := s
			next.Origin = a.Data.Clone()
			next.Handle = hit.Handle
			next.Vertex = -1
			switch {
			case hit.Handle == hittest.HandleRotate:
				next.Phase = Rotating
				next.StartAngle = pointerAngle(p, centerOf(a.Data))
			case hit.Handle == hittest.HandleVertex:
				next.Phase = Resizing
				next.Vertex = hit.Index
			default:
				next.Phase = Resizing
			}
			return next, nothing()
		}
	}

	i := hittest.TopmostAt(e.image.Annotations, p, e.viewport, e.opts.Hit)
	if i < 0 {
		had := s.Selection >= 0
		next := IdleState()
		if had {
			return next, Outcome{Result: Deselected, Index: -1}
		}
		return next, nothing()
	}

	data := e.image.Annotations[i].Data
	next := IdleState()
	next.Phase = Dragging
	next.Selection = i
	next.Origin = data.Clone()
	next.GrabOffset = p.Sub(anchorOf(data))
	return next, Outcome{Result: Picked, Index: i}
}

func moveSelect(s State, e *env, p geometry.Point) (State, Outcome) {
	if !e.valid(s.Selection) || s.Origin == nil {
		return s, nothing()
	}
	a := &e.image.Annotations[s.Selection]

	switch s.Phase {
	case Dragging:
		target := p.Sub(s.GrabOffset)
		delta := target.Sub(anchorOf(s.Origin))
		moved := s.Origin.Clone()
		moved.Translate(delta.X, delta.Y)
		a.Data = moved

	case Rotating:
		o, ok := s.Origin.(*annotation.OBB)
		if !ok {
			return s, nothing()
		}
		rotated := *o
		delta := pointerAngle(p, geometry.Pt(o.CX, o.CY)) - s.StartAngle
		rotated.Angle = geometry.NormalizeAngle(o.Angle + delta)
		a.Data = &rotated

	case Resizing:
		if s.Handle == hittest.HandleVertex {
			moveVertex(a, s.Origin, s.Vertex, p)
		} else {
			a.Data = resize(s.Origin, s.Handle, p, e.opts)
		}

	default:
		return s, nothing()
	}
	return s, Outcome{Result: Mutated, Index: s.Selection}
}

func releaseSelect(s State, _ *env, _ geometry.Point) (State, Outcome) {
	switch s.Phase {
	case Dragging, Resizing, Rotating:
		s.Phase = Selected
		s.Origin = nil
		s.Handle = hittest.HandleNone
		s.Vertex = -1
		return s, nothing()
	}
	return s, nothing()
}

func cancelSelect(s State, _ *env, _ geometry.Point) (State, Outcome) {
	if s.Selection < 0 {
		return IdleState(), nothing()
	}
	return IdleState(), Outcome{Result: Deselected, Index: -1}
}

func deleteSelected(s State, e *env, _ geometry.Point) (State, Outcome) {
	if !e.valid(s.Selection) {
		return s, nothing()
	}
	i := s.Selection
	list := e.image.Annotations
	e.image.Annotations = append(list[:i:i], list[i+1:]...)
	return IdleState(), Outcome{Result: Deleted, Index: i}
}

func insertVertex(s State, e *env, p geometry.Point) (State, Outcome) {
	if !e.valid(s.Selection) {
		return s, nothing()
	}
	a := &e.image.Annotations[s.Selection]
	poly, ok := a.Data.(*annotation.Polygon)
	if !ok {
		return s, nothing()
	}
	edge, at := hittest.EdgeAt(poly.Points, p, e.radius(), poly.Closed)
	if edge < 0 {
		return s, nothing()
	}
	pts := make([]geometry.Point, 0, len(poly.Points)+1)
	pts = append(pts, poly.Points[:edge+1]...)
	pts = append(pts, at)
	pts = append(pts, poly.Points[edge+1:]...)
	annotation.Mutate(a, annotation.Patch{Points: pts})
	return s, Outcome{Result: Mutated, Index: s.Selection}
}

func deleteVertex(s State, e *env, p geometry.Point) (State, Outcome) {
	if !e.valid(s.Selection) {
		return s, nothing()
	}
	a := &e.image.Annotations[s.Selection]
	poly, ok := a.Data.(*annotation.Polygon)
	if !ok {
		return s, nothing()
	}
	v := hittest.VertexAt(poly.Points, p, e.radius())
	if v < 0 {
		return s, nothing()
	}
	if len(poly.Points)-1 < annotation.MinPolygonPoints {
		return s, refuse(fmt.Errorf("%w: polygon cannot have fewer than %d points",
			annotation.ErrInvalidGeometry, annotation.MinPolygonPoints))
	}
	pts := make([]geometry.Point, 0, len(poly.Points)-1)
	pts = append(pts, poly.Points[:v]...)
	pts = append(pts, poly.Points[v+1:]...)
	annotation.Mutate(a, annotation.Patch{Points: pts})
	return s, Outcome{Result: Mutated, Index: s.Selection}
}

func moveVertex(a *annotation.Annotation, origin annotation.Geometry, i int, p geometry.Point) {
	switch o := origin.(type) {
	case *annotation.Polygon:
		if i < 0 || i >= len(o.Points) {
			return
		}
		pts := append([]geometry.Point(nil), o.Points...)
		pts[i] = p
		annotation.Mutate(a, annotation.Patch{Points: pts})
	case *annotation.Keypoints:
		if i < 0 || i >= len(o.Points) {
			return
		}
		kp := o.Points[i]
		kp.X, kp.Y = p.X, p.Y
		annotation.Mutate(a, annotation.Patch{Keypoint: &kp, KeypointIndex: i})
	}
}

// resize recomputes a box from its gesture-start snapshot. The edge opposite
// the grabbed handle stays fixed in the box's local frame; the grabbed edge
// follows the pointer. The minimum size is applied afterwards.
func resize(origin annotation.Geometry, h hittest.Handle, p geometry.Point, opts Options) annotation.Geometry {
	var cx, cy, w, ht, angle, minSize float64
	switch o := origin.(type) {
	case *annotation.OBB:
		cx, cy, w, ht, angle = o.CX, o.CY, o.Width, o.Height, o.Angle
		minSize = math.Max(opts.MinOBBSize, annotation.MinOBBSize)
	case *annotation.BBox:
		c := o.Center()
		cx, cy, w, ht = c.X, c.Y, o.Width, o.Height
		minSize = math.Max(opts.MinBoxSize, annotation.MinBBoxSize)
	default:
		return origin.Clone()
	}

	sx, sy := h.Signs()
	local := geometry.ToLocal(p, cx, cy, angle)
	center := geometry.Point{}

	if sx != 0 {
		fixed := -sx * w / 2
		w = math.Max(sx*(local.X-fixed), minSize)
		center.X = fixed + sx*w/2
	}
	if sy != 0 {
		fixed := -sy * ht / 2
		ht = math.Max(sy*(local.Y-fixed), minSize)
		center.Y = fixed + sy*ht/2
	}
	c := geometry.FromLocal(center, cx, cy, angle)

	if _, ok := origin.(*annotation.BBox); ok {
		return &annotation.BBox{X: c.X - w/2, Y: c.Y - ht/2, Width: w, Height: ht}
	}
	o := &annotation.OBB{CX: c.X, CY: c.Y, Width: w, Height: ht, Angle: angle}
	annotation.ClampOBB(o)
	return o
}
