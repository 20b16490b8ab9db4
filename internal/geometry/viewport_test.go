package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewport_ToImage(t *testing.T) {
	v := Viewport{Zoom: 2, PanX: 100, PanY: 50, DevicePixelRatio: 1}

	p := v.ToImage(300, 250)
	assert.Equal(t, Pt(100, 100), p)

	vx, vy := v.ToViewport(p)
	assert.Equal(t, 300.0, vx)
	assert.Equal(t, 250.0, vy)
}

func TestViewport_ZeroZoomIsIdentity(t *testing.T) {
	var v Viewport
	assert.Equal(t, Pt(12, 34), v.ToImage(12, 34))
	assert.Equal(t, 8.0, v.Scale(8))
}

func TestViewport_Scale(t *testing.T) {
	v := NewViewport()
	v.Zoom = 4
	assert.Equal(t, 2.0, v.Scale(8))
}

func TestViewport_ZoomAtKeepsAnchor(t *testing.T) {
	v := NewViewport()
	v.Pan(10, 20)

	before := v.ToImage(200, 150)
	v.ZoomAt(2.5, 200, 150)
	after := v.ToImage(200, 150)

	assert.Equal(t, 2.5, v.Zoom)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestViewport_ZoomAtClamps(t *testing.T) {
	v := NewViewport()
	v.ZoomAt(1000, 0, 0)
	assert.Equal(t, MaxZoom, v.Zoom)

	v.ZoomAt(1e-6, 0, 0)
	assert.Equal(t, MinZoom, v.Zoom)

	v.ZoomAt(-1, 0, 0)
	assert.Equal(t, MinZoom, v.Zoom)
}

func TestViewport_BackingSize(t *testing.T) {
	v := NewViewport()
	v.DevicePixelRatio = 2
	w, h := v.BackingSize(640, 480.4)
	assert.Equal(t, 1280, w)
	assert.Equal(t, 961, h)
}
