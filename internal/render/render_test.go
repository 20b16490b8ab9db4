package render

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
)

var red = annotation.Classes{{ID: 0, Name: "car", Color: "#ff0000"}}

func plain() Options {
	opts := DefaultOptions()
	opts.FillAlpha = 0
	opts.Labels = false
	return opts
}

func record(w, h int, anns ...annotation.Annotation) *annotation.ImageRecord {
	return &annotation.ImageRecord{ID: "a", Width: w, Height: h, Annotations: anns}
}

func TestOverlay_BlankCanvas(t *testing.T) {
	img := Overlay(nil, record(30, 20), red, plain())
	assert.Equal(t, image.Rect(0, 0, 30, 20), img.Bounds())
	assert.Equal(t, color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}, img.NRGBAAt(5, 5))
}

func TestOverlay_BBoxOutline(t *testing.T) {
	box := annotation.Annotation{Type: annotation.TypeBBox, Data: &annotation.BBox{X: 10, Y: 10, Width: 20, Height: 20}}
	img := Overlay(nil, record(50, 50, box), red, plain())

	assert.Equal(t, color.NRGBA{0xFF, 0, 0, 0xFF}, img.NRGBAAt(15, 10))
	assert.Equal(t, color.NRGBA{0xFF, 0, 0, 0xFF}, img.NRGBAAt(10, 20))
	assert.Equal(t, color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}, img.NRGBAAt(20, 20))
	assert.Equal(t, color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}, img.NRGBAAt(2, 2))
}

func TestOverlay_FillIsTranslucent(t *testing.T) {
	box := annotation.Annotation{Type: annotation.TypeBBox, Data: &annotation.BBox{X: 10, Y: 10, Width: 20, Height: 20}}
	opts := plain()
	opts.FillAlpha = 128
	img := Overlay(nil, record(50, 50, box), red, opts)

	c := img.NRGBAAt(20, 20)
	assert.Equal(t, uint8(0xFF), c.R)
	assert.Greater(t, c.G, uint8(0x40))
	assert.Less(t, c.G, uint8(0xC0))
}

func TestOverlay_MaskTint(t *testing.T) {
	m := annotation.NewMask(20, 20)
	m.Set(5, 5, true)
	mask := annotation.Annotation{Type: annotation.TypeMask, Data: m}

	opts := plain()
	opts.FillAlpha = 0xFF
	img := Overlay(nil, record(20, 20, mask), red, opts)

	c := img.NRGBAAt(5, 5)
	assert.Greater(t, c.R, uint8(200))
	assert.Less(t, c.G, uint8(50))
	assert.Equal(t, color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}, img.NRGBAAt(6, 5))
}

func TestOverlay_DoesNotModifyBase(t *testing.T) {
	base := imaging.New(40, 40, color.Black)
	pt := annotation.Annotation{Type: annotation.TypePoint, Data: &annotation.PointMark{X: 20, Y: 20}}

	img := Overlay(base, record(40, 40, pt), red, plain())
	assert.Equal(t, color.NRGBA{0xFF, 0, 0, 0xFF}, img.NRGBAAt(20, 20))
	assert.Equal(t, color.NRGBA{0, 0, 0, 0xFF}, base.NRGBAAt(20, 20))
}

func TestOverlay_SelectedOBBShowsRotationGrip(t *testing.T) {
	base := imaging.New(100, 100, color.Black)
	obb := annotation.Annotation{Type: annotation.TypeOBB, Data: &annotation.OBB{CX: 50, CY: 60, Width: 20, Height: 10}}

	opts := plain()
	opts.Selected = 0
	img := Overlay(base, record(100, 100, obb), red, opts)

	assert.Equal(t, color.NRGBA{0xFF, 0xFF, 0xFF, 0xFF}, img.NRGBAAt(50, 25))

	opts.Selected = -1
	img = Overlay(base, record(100, 100, obb), red, opts)
	assert.Equal(t, color.NRGBA{0, 0, 0, 0xFF}, img.NRGBAAt(50, 25))
}

func TestOverlay_LabelCaption(t *testing.T) {
	box := annotation.Annotation{Type: annotation.TypeBBox, Data: &annotation.BBox{X: 10, Y: 20, Width: 30, Height: 20}}
	opts := plain()
	opts.Labels = true
	img := Overlay(nil, record(80, 60, box), red, opts)

	assert.Equal(t, color.NRGBA{0xFF, 0, 0, 0xFF}, img.NRGBAAt(11, 8))
}

func TestOverlay_UnknownClassUsesFallbackColour(t *testing.T) {
	pt := annotation.Annotation{Type: annotation.TypePoint, ClassID: 7, Data: &annotation.PointMark{X: 10, Y: 10}}
	img := Overlay(nil, record(20, 20, pt), nil, plain())

	want := classColor(annotation.Class{ID: 7, Color: annotation.FallbackColor(7)}, 0xFF)
	assert.Equal(t, want, img.NRGBAAt(10, 10))
}

func TestEncodePNG(t *testing.T) {
	img := Overlay(nil, record(12, 9), red, plain())
	data, err := EncodePNG(img)
	require.NoError(t, err)

	decoded, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 12, 9), decoded.Bounds())
}
