package contour

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

func filledMask(w, h int, rect [4]int) *annotation.Mask {
	m := annotation.NewMask(w, h)
	for y := rect[1]; y < rect[3]; y++ {
		for x := rect[0]; x < rect[2]; x++ {
			m.Set(x, y, true)
		}
	}
	return m
}

func adjacent(a, b geometry.Point) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx >= -1 && dx <= 1 && dy >= -1 && dy <= 1
}

func TestTrace_FullRaster(t *testing.T) {
	m := filledMask(10, 10, [4]int{0, 0, 10, 10})

	res := Trace(m, DefaultOptions())
	require.False(t, res.Truncated)
	require.Len(t, res.Points, 36)

	first, last := res.Points[0], res.Points[len(res.Points)-1]
	assert.Equal(t, geometry.Pt(0, 0), first)
	assert.Equal(t, geometry.Pt(0, 1), last)
	assert.True(t, adjacent(first, last))
	assert.Equal(t, geometry.Pt(9, 0), res.Points[9])
	assert.Equal(t, geometry.Pt(9, 9), res.Points[18])

	for i := 1; i < len(res.Points); i++ {
		assert.True(t, adjacent(res.Points[i-1], res.Points[i]), "step %d", i)
	}
}

func TestTrace_Empty(t *testing.T) {
	res := Trace(annotation.NewMask(8, 8), DefaultOptions())
	assert.Empty(t, res.Points)
	assert.False(t, res.Truncated)

	assert.Empty(t, MaskToPolygon(annotation.NewMask(0, 0), DefaultOptions()).Points)
}

func TestTrace_IsolatedPixel(t *testing.T) {
	m := annotation.NewMask(5, 5)
	m.Set(3, 2, true)

	res := Trace(m, DefaultOptions())
	assert.Equal(t, []geometry.Point{{X: 3, Y: 2}}, res.Points)
	assert.False(t, res.Truncated)
}

func TestTrace_Line(t *testing.T) {
	m := filledMask(5, 3, [4]int{0, 1, 3, 2})

	res := Trace(m, DefaultOptions())
	assert.Equal(t, []geometry.Point{{X: 0, Y: 1}, {X: 1, Y: 1}, {X: 2, Y: 1}, {X: 1, Y: 1}}, res.Points)
}

func TestTrace_StartsAtFirstRowMajorPixel(t *testing.T) {
	m := filledMask(20, 20, [4]int{5, 8, 12, 15})
	m.Set(15, 2, true)

	res := Trace(m, DefaultOptions())
	assert.Equal(t, geometry.Pt(15, 2), res.Points[0])
	assert.Len(t, res.Points, 1)
}

func TestTrace_Truncated(t *testing.T) {
	m := filledMask(10, 10, [4]int{0, 0, 10, 10})

	res := Trace(m, Options{MaxPoints: 5})
	assert.True(t, res.Truncated)
	assert.Len(t, res.Points, 5)
}

func TestTrace_BoundedOnLargeRaster(t *testing.T) {
	m := filledMask(4000, 4000, [4]int{0, 0, 4000, 4000})

	res := Trace(m, DefaultOptions())
	assert.True(t, res.Truncated)
	assert.LessOrEqual(t, len(res.Points), DefaultMaxPoints)
}

func TestSimplify_ShortSegmentsUnchanged(t *testing.T) {
	pts := []geometry.Point{{X: 0, Y: 0}, {X: 5, Y: 9}, {X: 10, Y: 0}, {X: 3, Y: 3}}
	got := Simplify(pts, 2)
	assert.Equal(t, pts, got)

	got[0] = geometry.Pt(99, 99)
	assert.Equal(t, geometry.Pt(0, 0), pts[0], "result must not alias the input")
}

func TestSimplify_Collinear(t *testing.T) {
	var pts []geometry.Point
	for x := 0; x < 10; x++ {
		pts = append(pts, geometry.Pt(float64(x), 0))
	}
	assert.Equal(t, []geometry.Point{{X: 0, Y: 0}, {X: 9, Y: 0}}, Simplify(pts, 2))
}

func TestSimplify_ToleranceIsSquared(t *testing.T) {
	// The bump is 1.5 px off the chord: 2.25 squared. Splitting leaves two
	// three-point segments, which are kept whole.
	pts := []geometry.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 1.5}, {X: 3, Y: 0}, {X: 4, Y: 0}}
	assert.Equal(t, pts, Simplify(pts, 2))
	assert.Equal(t, []geometry.Point{{X: 0, Y: 0}, {X: 4, Y: 0}}, Simplify(pts, 2.25))
}

func TestSimplify_Square(t *testing.T) {
	m := filledMask(10, 10, [4]int{0, 0, 10, 10})
	traced := Trace(m, DefaultOptions()).Points

	got := Simplify(traced, DefaultTolerance)
	assert.Equal(t, []geometry.Point{{X: 0, Y: 0}, {X: 9, Y: 0}, {X: 9, Y: 9}, {X: 0, Y: 9}, {X: 0, Y: 1}}, got)
}

func TestSimplify_Idempotent(t *testing.T) {
	masks := []*annotation.Mask{
		filledMask(10, 10, [4]int{0, 0, 10, 10}),
		filledMask(30, 20, [4]int{3, 4, 25, 18}),
		Fill([]geometry.Point{{X: 2, Y: 2}, {X: 40, Y: 5}, {X: 30, Y: 35}, {X: 8, Y: 30}}, 48, 48),
	}
	for i, m := range masks {
		once := MaskToPolygon(m, DefaultOptions()).Points
		twice := Simplify(once, DefaultTolerance)
		assert.Equal(t, once, twice, "mask %d", i)
	}
}

func TestFill(t *testing.T) {
	m := Fill([]geometry.Point{{X: 2, Y: 2}, {X: 8, Y: 2}, {X: 8, Y: 8}, {X: 2, Y: 8}}, 10, 10)
	assert.Equal(t, 36, m.Count())
	assert.True(t, m.Foreground(2, 2))
	assert.True(t, m.Foreground(7, 7))
	assert.False(t, m.Foreground(8, 8))
	assert.False(t, m.Foreground(1, 5))

	assert.Equal(t, 0, Fill([]geometry.Point{{X: 0, Y: 0}, {X: 5, Y: 5}}, 10, 10).Count())
}

func TestMaskToPolygon(t *testing.T) {
	m := Fill([]geometry.Point{{X: 2, Y: 2}, {X: 8, Y: 2}, {X: 8, Y: 8}, {X: 2, Y: 8}}, 10, 10)

	res := MaskToPolygon(m, DefaultOptions())
	require.False(t, res.Truncated)
	assert.Equal(t, []geometry.Point{{X: 2, Y: 2}, {X: 7, Y: 2}, {X: 7, Y: 7}, {X: 2, Y: 7}, {X: 2, Y: 3}}, res.Points)
}
