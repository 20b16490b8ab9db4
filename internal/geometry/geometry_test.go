package geometry

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// angleDiff returns the smallest distance between two angles on the circle.
func angleDiff(a, b float64) float64 {
	d := math.Abs(math.Mod(a-b, 360))
	return math.Min(d, 360-d)
}

func TestNormalizeAngle(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{45, 45},
		{360, 0},
		{725, 5},
		{-90, 270},
		{-360, 0},
		{-1e-15, 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, NormalizeAngle(tt.in), 1e-9, "NormalizeAngle(%v)", tt.in)
	}
}

func TestNormalizeAngle_RepeatedRotation(t *testing.T) {
	deltas := []float64{37.5, -45, 0.1, 359.9, -721.25, 90}
	for _, d := range deltas {
		for n := 1; n <= 50; n++ {
			angle := 0.0
			for i := 0; i < n; i++ {
				angle = NormalizeAngle(angle + d)
				require.GreaterOrEqual(t, angle, 0.0)
				require.Less(t, angle, 360.0)
			}
			want := NormalizeAngle(float64(n) * d)
			assert.Less(t, angleDiff(angle, want), 1e-6, "d=%v n=%d got %v want %v", d, n, angle, want)
		}
	}
}

func TestToLocal_RoundTrip(t *testing.T) {
	angles := []float64{0, 30, 90, 135, 180, 270, 359}
	points := []Point{{0, 0}, {10, 5}, {-3, 7.5}, {100, -20}}

	for _, angle := range angles {
		for _, p := range points {
			local := ToLocal(p, 12, 8, angle)
			back := FromLocal(local, 12, 8, angle)
			assert.InDelta(t, p.X, back.X, 1e-9)
			assert.InDelta(t, p.Y, back.Y, 1e-9)
		}
	}
}

func TestToLocal_Rotation(t *testing.T) {
	// A box rotated by 90° has its local X axis pointing down the screen.
	local := ToLocal(Pt(50, 60), 50, 50, 90)
	assert.InDelta(t, 10, local.X, 1e-9)
	assert.InDelta(t, 0, local.Y, 1e-9)

	// No rotation is a pure translation.
	local = ToLocal(Pt(15, 25), 10, 20, 0)
	assert.Equal(t, Pt(5, 5), local)
}

func TestCorners(t *testing.T) {
	c := Corners(50, 50, 20, 10, 0)
	assert.Equal(t, Pt(40, 45), c[0])
	assert.Equal(t, Pt(60, 45), c[1])
	assert.Equal(t, Pt(60, 55), c[2])
	assert.Equal(t, Pt(40, 55), c[3])

	r := Corners(0, 0, 20, 10, 90)
	assert.InDelta(t, 5, r[0].X, 1e-9)
	assert.InDelta(t, -10, r[0].Y, 1e-9)
}

func TestPolygonArea(t *testing.T) {
	square := []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}
	assert.Equal(t, 100.0, PolygonArea(square))

	// Orientation does not matter.
	reversed := []Point{{0, 10}, {10, 10}, {10, 0}, {0, 0}}
	assert.Equal(t, 100.0, PolygonArea(reversed))

	triangle := []Point{{0, 0}, {4, 0}, {0, 3}}
	assert.Equal(t, 6.0, PolygonArea(triangle))

	assert.Equal(t, 0.0, PolygonArea([]Point{{0, 0}, {1, 1}}))
}

func TestBounds(t *testing.T) {
	r, ok := Bounds([]Point{{3, 4}, {-1, 10}, {7, 2}})
	require.True(t, ok)
	assert.Equal(t, Rect{MinX: -1, MinY: 2, MaxX: 7, MaxY: 10}, r)
	assert.Equal(t, 8.0, r.Width())
	assert.Equal(t, 8.0, r.Height())

	_, ok = Bounds(nil)
	assert.False(t, ok)
}

func TestSegmentDistance(t *testing.T) {
	d, tt := SegmentDistance(Pt(5, 3), Pt(0, 0), Pt(10, 0))
	assert.Equal(t, 3.0, d)
	assert.Equal(t, 0.5, tt)

	// Beyond the end clamps to the endpoint.
	d, tt = SegmentDistance(Pt(13, 4), Pt(0, 0), Pt(10, 0))
	assert.Equal(t, 5.0, d)
	assert.Equal(t, 1.0, tt)

	// Degenerate segment.
	d, _ = SegmentDistance(Pt(3, 4), Pt(0, 0), Pt(0, 0))
	assert.Equal(t, 5.0, d)
}

func TestPoint_JSON(t *testing.T) {
	b, err := json.Marshal(Pt(1.5, 2))
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, 2]`, string(b))

	var p Point
	require.NoError(t, json.Unmarshal([]byte(`[3, 4]`), &p))
	assert.Equal(t, Pt(3, 4), p)

	require.NoError(t, json.Unmarshal([]byte(`{"x": 5, "y": 6}`), &p))
	assert.Equal(t, Pt(5, 6), p)

	assert.Error(t, json.Unmarshal([]byte(`[1]`), &p))
}
