package contour

import (
	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

// Simplify reduces points with Douglas-Peucker. tolerance is compared against
// the squared perpendicular distance of each point from the chord joining the
// ends of its segment. Segments of four points or fewer are kept as they are.
// The input is not modified.
func Simplify(points []geometry.Point, tolerance float64) []geometry.Point {
	if len(points) <= 4 {
		return append([]geometry.Point(nil), points...)
	}

	first, last := points[0], points[len(points)-1]
	split, maxDist := 0, 0.0
	for i := 1; i < len(points)-1; i++ {
		if d := perpendicularSq(points[i], first, last); d > maxDist {
			split, maxDist = i, d
		}
	}

	if maxDist > tolerance {
		left := Simplify(points[:split+1], tolerance)
		right := Simplify(points[split:], tolerance)
		return append(left[:len(left)-1], right...)
	}
	return []geometry.Point{first, last}
}

// perpendicularSq returns the squared distance from p to the line through a and
// b, or to a when the two coincide.
func perpendicularSq(p, a, b geometry.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		ex, ey := p.X-a.X, p.Y-a.Y
		return ex*ex + ey*ey
	}
	cross := dx*(p.Y-a.Y) - dy*(p.X-a.X)
	return cross * cross / lenSq
}
