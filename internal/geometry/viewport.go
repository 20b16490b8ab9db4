package geometry

import "math"

// Zoom limits for a Viewport.
const (
	MinZoom = 0.05
	MaxZoom = 50.0
)

// Viewport maps between the editing surface and image pixel space.
//
// Zoom is the number of viewport units per image pixel. PanX and PanY are the
// viewport coordinates of the image origin. DevicePixelRatio only affects the
// size of the backing store; pointer events and pan are in viewport units.
type Viewport struct {
	Zoom             float64 `json:"zoom"`
	PanX             float64 `json:"panX"`
	PanY             float64 `json:"panY"`
	DevicePixelRatio float64 `json:"devicePixelRatio"`
}

// NewViewport returns an identity viewport.
func NewViewport() Viewport {
	return Viewport{Zoom: 1, DevicePixelRatio: 1}
}

func (v Viewport) zoom() float64 {
	if v.Zoom <= 0 {
		return 1
	}
	return v.Zoom
}

// ToImage converts a viewport coordinate into image space.
func (v Viewport) ToImage(vx, vy float64) Point {
	z := v.zoom()
	return Point{
		X: (vx - v.PanX) / z,
		Y: (vy - v.PanY) / z,
	}
}

// ToViewport converts an image-space point into viewport coordinates.
func (v Viewport) ToViewport(p Point) (float64, float64) {
	z := v.zoom()
	return p.X*z + v.PanX, p.Y*z + v.PanY
}

// Scale converts a length in screen pixels into image pixels. Handle radii are
// scaled this way so they stay the same size on screen at any zoom.
func (v Viewport) Scale(screenPixels float64) float64 {
	return screenPixels / v.zoom()
}

// Pan shifts the image by (dx, dy) viewport units.
func (v *Viewport) Pan(dx, dy float64) {
	v.PanX += dx
	v.PanY += dy
}

// ZoomAt multiplies the zoom by factor while keeping the image point under
// (vx, vy) fixed on screen. The resulting zoom is clamped to [MinZoom, MaxZoom].
func (v *Viewport) ZoomAt(factor, vx, vy float64) {
	if factor <= 0 {
		return
	}
	anchor := v.ToImage(vx, vy)
	v.Zoom = math.Max(MinZoom, math.Min(MaxZoom, v.zoom()*factor))
	v.PanX = vx - anchor.X*v.Zoom
	v.PanY = vy - anchor.Y*v.Zoom
}

// BackingSize returns the device pixel size of a surface that is width × height
// viewport units.
func (v Viewport) BackingSize(width, height float64) (int, int) {
	dpr := v.DevicePixelRatio
	if dpr <= 0 {
		dpr = 1
	}
	return int(math.Round(width * dpr)), int(math.Round(height * dpr))
}
