package export

import (
	"math"
	"strconv"
	"strings"

	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

// Normalize converts a pixel box (top-left x, y and extent w, h) into YOLO
// form: centre and extent as fractions of the image size.
func Normalize(x, y, w, h float64, imgW, imgH int) (cx, cy, nw, nh float64) {
	W, H := float64(imgW), float64(imgH)
	return (x + w/2) / W, (y + h/2) / H, w / W, h / H
}

// Denormalize is the inverse of Normalize.
func Denormalize(cx, cy, nw, nh float64, imgW, imgH int) (x, y, w, h float64) {
	W, H := float64(imgW), float64(imgH)
	w, h = nw*W, nh*H
	return cx*W - w/2, cy*H - h/2, w, h
}

// clip intersects r with the image. The second result is false when r lies
// entirely outside it.
func clip(r geometry.Rect, imgW, imgH int) (geometry.Rect, bool) {
	c := geometry.Rect{
		MinX: math.Max(r.MinX, 0),
		MinY: math.Max(r.MinY, 0),
		MaxX: math.Min(r.MaxX, float64(imgW)),
		MaxY: math.Min(r.MaxY, float64(imgH)),
	}
	return c, c.MaxX >= c.MinX && c.MaxY >= c.MinY
}

// NormalizePoint expresses p as fractions of the image size, clipped to [0, 1].
func NormalizePoint(p geometry.Point, imgW, imgH int) (float64, float64) {
	return clamp01(p.X / float64(imgW)), clamp01(p.Y / float64(imgH))
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// f6 formats v with six decimals, the fixed precision of YOLO label files.
func f6(v float64) string {
	if math.Abs(v) < 5e-7 {
		v = 0 // no "-0.000000"
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// line joins fields with single spaces.
func line(fields ...string) string {
	return strings.Join(fields, " ")
}
