package contour

import (
	"image"
	"image/draw"

	"golang.org/x/image/vector"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

// MaskToPolygon traces r and simplifies the boundary. An empty raster yields an
// empty result. A truncated trace is still simplified and returned.
func MaskToPolygon(r Raster, opts Options) Result {
	res := Trace(r, opts)
	if len(res.Points) == 0 {
		return res
	}
	tol := opts.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}
	res.Points = Simplify(res.Points, tol)
	return res
}

// Fill rasterises a closed polygon into a width × height mask.
func Fill(points []geometry.Point, width, height int) *annotation.Mask {
	m := annotation.NewMask(width, height)
	if len(points) < 3 || width <= 0 || height <= 0 {
		return m
	}

	ras := vector.NewRasterizer(width, height)
	ras.DrawOp = draw.Src
	ras.MoveTo(float32(points[0].X), float32(points[0].Y))
	for _, p := range points[1:] {
		ras.LineTo(float32(p.X), float32(p.Y))
	}
	ras.ClosePath()

	dst := image.NewAlpha(image.Rect(0, 0, width, height))
	ras.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	copy(m.Alpha, dst.Pix)
	return m
}
