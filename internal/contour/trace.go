package contour

import (
	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

// Defaults for Options.
const (
	DefaultMaxPoints = 10000
	DefaultTolerance = 2.0
)

// Raster is a binary image. annotation.Mask implements it.
type Raster interface {
	Size() (width, height int)
	Foreground(x, y int) bool
}

// Options bounds tracing and sets the simplification tolerance.
type Options struct {
	// MaxPoints caps the number of traced boundary pixels.
	MaxPoints int

	// Tolerance is the squared perpendicular distance, in pixels, below which
	// Simplify drops a point.
	Tolerance float64
}

// DefaultOptions returns the standard tracing bound and tolerance.
func DefaultOptions() Options {
	return Options{MaxPoints: DefaultMaxPoints, Tolerance: DefaultTolerance}
}

func (o Options) maxPoints() int {
	if o.MaxPoints <= 0 {
		return DefaultMaxPoints
	}
	return o.MaxPoints
}

// neighbours are the 8-connected offsets, clockwise from east in image
// coordinates: E, SE, S, SW, W, NW, N, NE.
var neighbours = [8][2]int{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// Result is a traced boundary.
type Result struct {
	Points []geometry.Point

	// Truncated is set when tracing stopped at MaxPoints.
	Truncated bool
}

// Trace follows the boundary of the first foreground pixel in row-major order.
//
// The search starts facing east. At each step the eight neighbours are scanned
// from the current direction; the first foreground neighbour becomes the next
// pixel and the search direction turns back by two steps from the direction
// that matched. Tracing stops when the next pixel would be the start pixel, when
// a pixel has no foreground neighbour, or when MaxPoints pixels are collected.
// The start pixel is not repeated at the end.
func Trace(r Raster, opts Options) Result {
	sx, sy, ok := findStart(r)
	if !ok {
		return Result{}
	}

	limit := opts.maxPoints()
	points := []geometry.Point{geometry.Pt(float64(sx), float64(sy))}
	x, y, dir := sx, sy, 0

	for len(points) < limit {
		moved := false
		for i := 0; i < 8; i++ {
			d := (dir + i) % 8
			nx, ny := x+neighbours[d][0], y+neighbours[d][1]
			if !r.Foreground(nx, ny) {
				continue
			}
			if nx == sx && ny == sy {
				return Result{Points: points}
			}
			points = append(points, geometry.Pt(float64(nx), float64(ny)))
			x, y = nx, ny
			dir = (d + 6) % 8
			moved = true
			break
		}
		if !moved {
			// isolated pixel
			return Result{Points: points}
		}
	}
	return Result{Points: points, Truncated: true}
}

func findStart(r Raster) (int, int, bool) {
	w, h := r.Size()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if r.Foreground(x, y) {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}
