package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// SampleResult is the colour of one pixel.
type SampleResult struct {
	X   int    `json:"x"`
	Y   int    `json:"y"`
	Hex string `json:"hex"`

	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`

	// Hue in degrees, saturation and lightness in [0,1].
	H float64 `json:"h"`
	S float64 `json:"s"`
	L float64 `json:"l"`

	// Luminance is the 8-bit grey level the luminance mask threshold is
	// compared against.
	Luminance uint8 `json:"luminance"`
}

// SampleColor reads the pixel at (x, y), relative to the image origin.
func SampleColor(img image.Image, x, y int) (*SampleResult, error) {
	b := img.Bounds()
	px, py := b.Min.X+x, b.Min.Y+y
	if !(image.Point{px, py}).In(b) {
		return nil, fmt.Errorf("coordinates (%d, %d) outside image bounds (%dx%d)", x, y, b.Dx(), b.Dy())
	}

	c := color.NRGBAModel.Convert(img.At(px, py)).(color.NRGBA)
	cf, _ := colorful.MakeColor(color.NRGBA{c.R, c.G, c.B, 0xFF})
	h, s, l := cf.Hsl()
	if math.IsNaN(h) {
		h = 0
	}
	grey := color.GrayModel.Convert(img.At(px, py)).(color.Gray)

	return &SampleResult{
		X:         x,
		Y:         y,
		Hex:       cf.Hex(),
		R:         c.R,
		G:         c.G,
		B:         c.B,
		A:         c.A,
		H:         h,
		S:         s,
		L:         l,
		Luminance: grey.Y,
	}, nil
}
