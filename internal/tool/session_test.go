package tool

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

func newTestSession(k Kind, anns ...annotation.Annotation) *Session {
	img := &annotation.ImageRecord{ID: "img", Width: 640, Height: 480, Annotations: anns}
	return NewSession(img, k, DefaultOptions(), zerolog.Nop())
}

func gesture(s *Session, g Gesture, x, y float64) Outcome {
	return s.Handle(Event{Gesture: g, X: x, Y: y})
}

func TestBBoxDraw_CommitsOnRelease(t *testing.T) {
	s := newTestSession(BBox)
	s.SetClass(3)

	gesture(s, Press, 110, 70)
	assert.Equal(t, Drawing, s.State().Phase)
	gesture(s, Move, 50, 50)
	out := gesture(s, Release, 10, 20)

	require.Equal(t, Committed, out.Result)
	assert.Equal(t, 0, out.Index)
	assert.Equal(t, Idle, s.State().Phase)
	require.Len(t, s.Image().Annotations, 1)

	a := s.Image().Annotations[0]
	assert.Equal(t, 3, a.ClassID)
	assert.Equal(t, &annotation.BBox{X: 10, Y: 20, Width: 100, Height: 50}, a.Data)
	assert.True(t, s.Image().Unsaved)
}

func TestBBoxDraw_TooSmallIsDiscarded(t *testing.T) {
	s := newTestSession(BBox)

	gesture(s, Press, 10, 10)
	out := gesture(s, Release, 13, 40)

	assert.Equal(t, Discarded, out.Result)
	assert.NoError(t, out.Warning)
	assert.Equal(t, Idle, s.State().Phase)
	assert.Empty(t, s.Image().Annotations)
	assert.False(t, s.Image().Unsaved)
}

func TestBBoxDraw_UsesImageSpace(t *testing.T) {
	s := newTestSession(BBox)
	s.Viewport = geometry.Viewport{Zoom: 2, PanX: 100, PanY: 50, DevicePixelRatio: 2}

	gesture(s, Press, 120, 90)
	gesture(s, Release, 320, 190)

	require.Len(t, s.Image().Annotations, 1)
	assert.Equal(t, &annotation.BBox{X: 10, Y: 20, Width: 100, Height: 50}, s.Image().Annotations[0].Data)
}

func TestOBBDraw_MinimumSize(t *testing.T) {
	s := newTestSession(OBB)

	gesture(s, Press, 0, 0)
	assert.Equal(t, Discarded, gesture(s, Release, 9, 30).Result)

	gesture(s, Press, 0, 0)
	out := gesture(s, Release, 40, 20)
	require.Equal(t, Committed, out.Result)
	assert.Equal(t, &annotation.OBB{CX: 20, CY: 10, Width: 40, Height: 20}, s.Image().Annotations[0].Data)
}

func TestPolygonDraw_MinimumPoints(t *testing.T) {
	s := newTestSession(Polygon)

	gesture(s, Press, 0, 0)
	gesture(s, Press, 100, 0)

	// Two points: refused, still drawing, nothing committed.
	out := gesture(s, Close, 0, 0)
	assert.Equal(t, Refused, out.Result)
	assert.ErrorIs(t, out.Warning, annotation.ErrInvalidGeometry)
	assert.Equal(t, Drawing, s.State().Phase)
	assert.Len(t, s.State().Points, 2)
	assert.Empty(t, s.Image().Annotations)

	// Third point, then close by clicking near the first vertex.
	gesture(s, Press, 100, 100)
	out = gesture(s, Press, 4, 3)
	require.Equal(t, Committed, out.Result)

	poly := s.Image().Annotations[0].Data.(*annotation.Polygon)
	assert.True(t, poly.Closed)
	assert.Equal(t, []geometry.Point{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}}, poly.Points)
	assert.Equal(t, Idle, s.State().Phase)
}

func TestPolygonDraw_SnapWithTwoPointsStaysDrawing(t *testing.T) {
	s := newTestSession(Polygon)

	gesture(s, Press, 0, 0)
	gesture(s, Press, 100, 0)
	out := gesture(s, Press, 2, 2)

	assert.Equal(t, Refused, out.Result)
	assert.Len(t, s.State().Points, 2)
}

func TestPolygonDraw_SnapRadiusScalesWithZoom(t *testing.T) {
	s := newTestSession(Polygon)
	s.Viewport.Zoom = 4 // snap radius is 2.5 image px

	for _, p := range [][2]float64{{0, 0}, {400, 0}, {400, 400}} {
		gesture(s, Press, p[0], p[1])
	}
	// 20 viewport px = 5 image px from the first vertex: appended, not closed.
	out := gesture(s, Press, 20, 0)
	assert.Equal(t, None, out.Result)
	assert.Len(t, s.State().Points, 4)

	out = gesture(s, Press, 8, 0)
	assert.Equal(t, Committed, out.Result)
}

func TestPolygonDraw_PressNearLoneVertexAppends(t *testing.T) {
	s := newTestSession(Polygon)
	gesture(s, Press, 0, 0)

	out := gesture(s, Press, 6, 0)
	assert.Equal(t, None, out.Result)
	assert.NoError(t, out.Warning)
	assert.Equal(t, Drawing, s.State().Phase)
	assert.Equal(t, []geometry.Point{{X: 0, Y: 0}, {X: 6, Y: 0}}, s.State().Points)
}

func TestPolygonDraw_Cancel(t *testing.T) {
	s := newTestSession(Polygon)
	gesture(s, Press, 0, 0)
	gesture(s, Press, 10, 0)
	gesture(s, Press, 10, 10)

	out := gesture(s, Cancel, 0, 0)
	assert.Equal(t, Discarded, out.Result)
	assert.Equal(t, Idle, s.State().Phase)
	assert.Empty(t, s.Image().Annotations)
}

func TestPolygonDraw_UndoVertex(t *testing.T) {
	s := newTestSession(Polygon)
	gesture(s, Press, 0, 0)
	gesture(s, Press, 10, 0)
	gesture(s, DeleteVertex, 0, 0)
	assert.Equal(t, []geometry.Point{{X: 0, Y: 0}}, s.State().Points)
}

func TestPointDraw_CommitsImmediately(t *testing.T) {
	s := newTestSession(Point)
	out := gesture(s, Press, 7, 8)
	require.Equal(t, Committed, out.Result)
	assert.Equal(t, &annotation.PointMark{X: 7, Y: 8}, s.Image().Annotations[0].Data)
	assert.Equal(t, Idle, s.State().Phase)
}

func TestRangeDraw(t *testing.T) {
	s := newTestSession(Range)
	gesture(s, Press, 50, 5)
	out := gesture(s, Release, 20, 90)
	require.Equal(t, Committed, out.Result)
	assert.Equal(t, &annotation.Range{Start: 20, End: 50}, s.Image().Annotations[0].Data)
}

func TestKeypointsDraw(t *testing.T) {
	s := newTestSession(Keypoints)
	s.SetKeypointCount(3)

	gesture(s, Press, 1, 1)
	gesture(s, Press, 2, 2)
	out := gesture(s, Press, 3, 3)
	require.Equal(t, Committed, out.Result)
	kp := s.Image().Annotations[0].Data.(*annotation.Keypoints)
	assert.Len(t, kp.Points, 3)
	assert.Equal(t, annotation.VisibilityVisible, kp.Points[2].Visibility)

	// Closing early zero-fills the remaining slots.
	gesture(s, Press, 5, 5)
	out = gesture(s, Close, 0, 0)
	require.Equal(t, Committed, out.Result)
	kp = s.Image().Annotations[1].Data.(*annotation.Keypoints)
	assert.Equal(t, []annotation.Keypoint{{X: 5, Y: 5, Visibility: 2}, {}, {}}, kp.Points)
}

func TestUnknownGestureIsNoop(t *testing.T) {
	s := newTestSession(Point)
	out := gesture(s, Delete, 0, 0)
	assert.Equal(t, None, out.Result)
	assert.False(t, s.Image().Unsaved)
}

func TestSetToolDiscardsInProgress(t *testing.T) {
	s := newTestSession(Polygon)
	gesture(s, Press, 0, 0)
	s.SetTool(Select)
	assert.Equal(t, IdleState(), s.State())
	assert.Equal(t, Select, s.Tool())
}

func TestParseKindAndGesture(t *testing.T) {
	k, err := ParseKind("obb")
	require.NoError(t, err)
	assert.Equal(t, OBB, k)
	_, err = ParseKind("lasso")
	assert.Error(t, err)

	g, err := ParseGesture("insert-vertex")
	require.NoError(t, err)
	assert.Equal(t, InsertVertex, g)
	_, err = ParseGesture("wiggle")
	assert.Error(t, err)
}

func TestOutcomeChanged(t *testing.T) {
	assert.True(t, Outcome{Result: Committed}.Changed())
	assert.True(t, Outcome{Result: Deleted}.Changed())
	assert.False(t, Outcome{Result: Picked}.Changed())
	assert.False(t, Outcome{Result: Refused}.Changed())
}

func TestTransitionTableCoversDrawTools(t *testing.T) {
	for _, k := range []Kind{BBox, OBB, Polygon, Keypoints, Range} {
		_, ok := transitions[key{k, Cancel}]
		assert.True(t, ok, "%s has no cancel transition", k)
	}
	_, ok := transitions[key{Select, Press}]
	assert.True(t, ok)
}
