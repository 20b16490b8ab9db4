package tool

import (
	"fmt"
	"math"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

func commit(s State, e *env, t annotation.Type, data annotation.Geometry) (State, Outcome) {
	a, err := annotation.Create(t, e.classID, data)
	if err != nil {
		return s, refuse(err)
	}
	e.image.Annotations = append(e.image.Annotations, a)
	next := IdleState()
	return next, Outcome{Result: Committed, Index: len(e.image.Annotations) - 1}
}

func discard(s State, _ *env, _ geometry.Point) (State, Outcome) {
	if s.Phase != Drawing {
		return s, nothing()
	}
	return IdleState(), Outcome{Result: Discarded, Index: -1}
}

// Box-like shapes: press anchors, move tracks, release commits.

func beginSpan(s State, _ *env, p geometry.Point) (State, Outcome) {
	if s.Phase == Drawing {
		return s, nothing()
	}
	next := IdleState()
	next.Phase = Drawing
	next.Anchor, next.Current = p, p
	return next, nothing()
}

func trackSpan(s State, _ *env, p geometry.Point) (State, Outcome) {
	if s.Phase != Drawing {
		return s, nothing()
	}
	s.Current = p
	return s, nothing()
}

func spanRect(s State) (x, y, w, h float64) {
	x = math.Min(s.Anchor.X, s.Current.X)
	y = math.Min(s.Anchor.Y, s.Current.Y)
	w = math.Abs(s.Current.X - s.Anchor.X)
	h = math.Abs(s.Current.Y - s.Anchor.Y)
	return x, y, w, h
}

func releaseBBox(s State, e *env, p geometry.Point) (State, Outcome) {
	if s.Phase != Drawing {
		return s, nothing()
	}
	s.Current = p
	x, y, w, h := spanRect(s)
	if w < e.opts.MinBoxSize || h < e.opts.MinBoxSize || w <= 0 || h <= 0 {
		return discard(s, e, p)
	}
	next, out := commit(s, e, annotation.TypeBBox, &annotation.BBox{X: x, Y: y, Width: w, Height: h})
	if out.Warning != nil {
		return discard(s, e, p)
	}
	return next, out
}

func releaseOBB(s State, e *env, p geometry.Point) (State, Outcome) {
	if s.Phase != Drawing {
		return s, nothing()
	}
	s.Current = p
	x, y, w, h := spanRect(s)
	if w < e.opts.MinOBBSize || h < e.opts.MinOBBSize {
		return discard(s, e, p)
	}
	next, out := commit(s, e, annotation.TypeOBB, &annotation.OBB{CX: x + w/2, CY: y + h/2, Width: w, Height: h})
	if out.Warning != nil {
		return discard(s, e, p)
	}
	return next, out
}

func releaseRange(s State, e *env, p geometry.Point) (State, Outcome) {
	if s.Phase != Drawing {
		return s, nothing()
	}
	s.Current = p
	x, _, w, _ := spanRect(s)
	if w < e.opts.MinBoxSize {
		return discard(s, e, p)
	}
	return commit(s, e, annotation.TypeRange, &annotation.Range{Start: x, End: x + w})
}

// Single-click shapes.

func placePoint(s State, e *env, p geometry.Point) (State, Outcome) {
	return commit(s, e, annotation.TypePoint, &annotation.PointMark{X: p.X, Y: p.Y})
}

func placeLandmark(s State, e *env, p geometry.Point) (State, Outcome) {
	return commit(s, e, annotation.TypeLandmark, &annotation.Landmark{X: p.X, Y: p.Y})
}

// Polygon: each press appends a vertex; pressing near the first vertex or an
// explicit close finishes the shape. A press near a lone first vertex is a new
// vertex, not a close attempt.

func pressPolygon(s State, e *env, p geometry.Point) (State, Outcome) {
	if s.Phase != Drawing {
		next := IdleState()
		next.Phase = Drawing
		next.Points = []geometry.Point{p}
		next.Current = p
		return next, nothing()
	}
	snap := e.viewport.Scale(e.opts.SnapRadius)
	if len(s.Points) >= 2 && geometry.Distance(p, s.Points[0]) <= snap {
		return closePolygon(s, e, p)
	}
	s.Points = append(append([]geometry.Point(nil), s.Points...), p)
	s.Current = p
	return s, nothing()
}

func closePolygon(s State, e *env, _ geometry.Point) (State, Outcome) {
	if s.Phase != Drawing {
		return s, nothing()
	}
	minPoints := e.opts.MinPolygonPoints
	if minPoints < annotation.MinPolygonPoints {
		minPoints = annotation.MinPolygonPoints
	}
	if len(s.Points) < minPoints {
		return s, refuse(fmt.Errorf("%w: polygon needs at least %d points, has %d",
			annotation.ErrInvalidGeometry, minPoints, len(s.Points)))
	}
	pts := append([]geometry.Point(nil), s.Points...)
	return commit(s, e, annotation.TypePolygon, &annotation.Polygon{Points: pts})
}

// undoVertex drops the last vertex of a polygon in progress.
func undoVertex(s State, _ *env, _ geometry.Point) (State, Outcome) {
	if s.Phase != Drawing || len(s.Points) == 0 {
		return s, nothing()
	}
	if len(s.Points) == 1 {
		return IdleState(), Outcome{Result: Discarded, Index: -1}
	}
	s.Points = append([]geometry.Point(nil), s.Points[:len(s.Points)-1]...)
	return s, nothing()
}

// Keypoints: presses fill slots in order; the set commits when every slot is
// placed or on close, with unplaced slots left unlabelled.

func pressKeypoint(s State, e *env, p geometry.Point) (State, Outcome) {
	if s.Phase != Drawing {
		s = IdleState()
		s.Phase = Drawing
	}
	s.Placed = append(append([]annotation.Keypoint(nil), s.Placed...),
		annotation.Keypoint{X: p.X, Y: p.Y, Visibility: annotation.VisibilityVisible})
	s.Current = p
	if e.keypointCount > 0 && len(s.Placed) >= e.keypointCount {
		return closeKeypoints(s, e, p)
	}
	return s, nothing()
}

func closeKeypoints(s State, e *env, _ geometry.Point) (State, Outcome) {
	if s.Phase != Drawing {
		return s, nothing()
	}
	if len(s.Placed) == 0 {
		return s, refuse(fmt.Errorf("%w: no keypoints placed", annotation.ErrInvalidGeometry))
	}
	n := e.keypointCount
	if n < len(s.Placed) {
		n = len(s.Placed)
	}
	pts := make([]annotation.Keypoint, n)
	copy(pts, s.Placed)
	return commit(s, e, annotation.TypeKeypoints, &annotation.Keypoints{Points: pts})
}
