package annotation

import (
	"encoding/json"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMask_ForegroundThreshold(t *testing.T) {
	m := NewMask(3, 1)
	m.Alpha = []uint8{128, 129, 255}

	assert.False(t, m.Foreground(0, 0))
	assert.True(t, m.Foreground(1, 0))
	assert.True(t, m.Foreground(2, 0))
	assert.False(t, m.Foreground(-1, 0))
	assert.False(t, m.Foreground(3, 0))
	assert.Equal(t, 2, m.Count())
}

func TestMask_FromImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 4, 3))
	img.SetNRGBA(1, 2, color.NRGBA{R: 10, A: 200})
	img.SetNRGBA(3, 0, color.NRGBA{A: 100})

	m := MaskFromImage(img)
	w, h := m.Size()
	assert.Equal(t, 4, w)
	assert.Equal(t, 3, h)
	assert.True(t, m.Foreground(1, 2))
	assert.False(t, m.Foreground(3, 0))
}

func TestMask_FromLuminance(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 20, G: 20, B: 20, A: 255})
	// (0,1) and (1,1) stay fully transparent.

	m := MaskFromLuminance(img, 128)
	assert.True(t, m.Foreground(0, 0))
	assert.False(t, m.Foreground(1, 0))
	assert.False(t, m.Foreground(0, 1))
}

func TestMask_JSONRoundTrip(t *testing.T) {
	m := NewMask(5, 4)
	m.Set(1, 1, true)
	m.Set(2, 1, true)
	m.Set(4, 3, true)

	b, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"dataUrl":"data:image/png;base64,`)

	var got Mask
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, 5, got.Width)
	assert.Equal(t, 4, got.Height)
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			assert.Equal(t, m.Foreground(x, y), got.Foreground(x, y), "pixel %d,%d", x, y)
		}
	}
}

func TestMask_DimensionMismatch(t *testing.T) {
	raw, err := NewMask(5, 4).EncodePNG()
	require.NoError(t, err)

	_, err = DecodeMask(raw, 6, 4)
	assert.ErrorIs(t, err, ErrMalformedRaster)

	_, err = DecodeMask([]byte("not a png"), 5, 4)
	assert.ErrorIs(t, err, ErrMalformedRaster)
}

func TestMask_Translate(t *testing.T) {
	m := NewMask(4, 4)
	m.Set(0, 0, true)
	m.Set(3, 3, true)

	m.Translate(1, 2)
	assert.True(t, m.Foreground(1, 2))
	assert.Equal(t, 1, m.Count(), "pixel pushed off the frame is dropped")
}
