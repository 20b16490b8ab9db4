package geometry

import (
	"encoding/json"
	"fmt"
	"math"
)

// Point is a 2D coordinate in image space.
//
// Points marshal to JSON as a two element array [x, y], which is the form used by
// polygon annotations on disk.
type Point struct {
	X float64
	Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p + q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// MarshalJSON encodes the point as [x, y].
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON accepts either [x, y] or {"x": x, "y": y}.
func (p *Point) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) < 2 {
			return fmt.Errorf("point needs 2 coordinates, got %d", len(pair))
		}
		p.X, p.Y = pair[0], pair[1]
		return nil
	}

	var obj struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("failed to parse point: %w", err)
	}
	p.X, p.Y = obj.X, obj.Y
	return nil
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// NormalizeAngle folds an angle in degrees into [0, 360).
func NormalizeAngle(deg float64) float64 {
	a := math.Mod(deg, 360)
	if a < 0 {
		a += 360
	}
	// -1e-15 + 360 rounds to exactly 360
	if a >= 360 {
		a = 0
	}
	return a
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// ToLocal maps an image-space point into the local frame of a box centred at
// (cx, cy) and rotated by angle degrees.
//
// With dx = x - cx, dy = y - cy and θ = angle·π/180:
//
//	localX = dx·cos(-θ) - dy·sin(-θ)
//	localY = dx·sin(-θ) + dy·cos(-θ)
//
// The box then spans [-w/2, w/2] × [-h/2, h/2] in the local frame.
func ToLocal(p Point, cx, cy, angle float64) Point {
	theta := Radians(angle)
	dx := p.X - cx
	dy := p.Y - cy
	cos := math.Cos(-theta)
	sin := math.Sin(-theta)
	return Point{
		X: dx*cos - dy*sin,
		Y: dx*sin + dy*cos,
	}
}

// FromLocal is the inverse of ToLocal.
func FromLocal(local Point, cx, cy, angle float64) Point {
	theta := Radians(angle)
	cos := math.Cos(theta)
	sin := math.Sin(theta)
	return Point{
		X: cx + local.X*cos - local.Y*sin,
		Y: cy + local.X*sin + local.Y*cos,
	}
}

// Corners returns the four corners of a rotated box in image space, in the order
// top-left, top-right, bottom-right, bottom-left of the unrotated box.
func Corners(cx, cy, width, height, angle float64) [4]Point {
	hw, hh := width/2, height/2
	return [4]Point{
		FromLocal(Point{X: -hw, Y: -hh}, cx, cy, angle),
		FromLocal(Point{X: hw, Y: -hh}, cx, cy, angle),
		FromLocal(Point{X: hw, Y: hh}, cx, cy, angle),
		FromLocal(Point{X: -hw, Y: hh}, cx, cy, angle),
	}
}

// PolygonArea returns the unsigned area enclosed by points using the shoelace
// formula. The polygon is implicitly closed. Fewer than 3 points yield 0.
func PolygonArea(points []Point) float64 {
	n := len(points)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += points[i].X*points[j].Y - points[j].X*points[i].Y
	}
	return math.Abs(sum) / 2
}

// Rect is an axis-aligned rectangle given by its minimum and maximum corners.
type Rect struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Width returns MaxX - MinX.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns MaxY - MinY.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width() <= 0 || r.Height() <= 0 }

// Bounds returns the axis-aligned bounding rectangle of points.
// The second result is false when points is empty.
func Bounds(points []Point) (Rect, bool) {
	if len(points) == 0 {
		return Rect{}, false
	}
	r := Rect{MinX: points[0].X, MinY: points[0].Y, MaxX: points[0].X, MaxY: points[0].Y}
	for _, p := range points[1:] {
		r.MinX = math.Min(r.MinX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MaxY = math.Max(r.MaxY, p.Y)
	}
	return r, true
}

// SegmentDistance returns the distance from p to the segment a-b and the
// parameter t in [0, 1] of the closest point on the segment.
func SegmentDistance(p, a, b Point) (float64, float64) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return Distance(p, a), 0
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	closest := Point{X: a.X + t*dx, Y: a.Y + t*dy}
	return Distance(p, closest), t
}
