package annotation

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// ForegroundThreshold is the alpha value a mask pixel must exceed to count as
// foreground.
const ForegroundThreshold = 128

const pngDataURLPrefix = "data:image/png;base64,"

// Mask is a raster annotation aligned with the image it annotates. Alpha holds
// one sample per pixel in row-major order.
type Mask struct {
	Width  int
	Height int
	Alpha  []uint8
}

func (*Mask) Kind() Type { return TypeMask }
func (*Mask) isGeometry() {}

// NewMask returns an empty (all background) mask.
func NewMask(width, height int) *Mask {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &Mask{Width: width, Height: height, Alpha: make([]uint8, width*height)}
}

// Size returns the raster dimensions.
func (m *Mask) Size() (int, int) {
	return m.Width, m.Height
}

// Foreground reports whether the pixel at (x, y) is foreground. Pixels outside
// the raster are background.
func (m *Mask) Foreground(x, y int) bool {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return false
	}
	return m.Alpha[y*m.Width+x] > ForegroundThreshold
}

// Set marks the pixel at (x, y) as foreground or background.
func (m *Mask) Set(x, y int, on bool) {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return
	}
	if on {
		m.Alpha[y*m.Width+x] = 0xFF
	} else {
		m.Alpha[y*m.Width+x] = 0
	}
}

// Count returns the number of foreground pixels.
func (m *Mask) Count() int {
	n := 0
	for _, a := range m.Alpha {
		if a > ForegroundThreshold {
			n++
		}
	}
	return n
}

func (m *Mask) valid() bool {
	return m.Width > 0 && m.Height > 0 && len(m.Alpha) == m.Width*m.Height
}

// Translate shifts the raster by (dx, dy) rounded to whole pixels. Pixels that
// leave the frame are dropped.
func (m *Mask) Translate(dx, dy float64) {
	ox, oy := int(math.Round(dx)), int(math.Round(dy))
	if ox == 0 && oy == 0 {
		return
	}
	shifted := make([]uint8, len(m.Alpha))
	for y := 0; y < m.Height; y++ {
		ty := y + oy
		if ty < 0 || ty >= m.Height {
			continue
		}
		for x := 0; x < m.Width; x++ {
			tx := x + ox
			if tx < 0 || tx >= m.Width {
				continue
			}
			shifted[ty*m.Width+tx] = m.Alpha[y*m.Width+x]
		}
	}
	m.Alpha = shifted
}

func (m *Mask) Clone() Geometry {
	c := &Mask{Width: m.Width, Height: m.Height, Alpha: make([]uint8, len(m.Alpha))}
	copy(c.Alpha, m.Alpha)
	return c
}

// Image renders the mask as a white image whose alpha channel is the mask.
func (m *Mask) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, m.Width, m.Height))
	for i, a := range m.Alpha {
		o := i * 4
		img.Pix[o] = 0xFF
		img.Pix[o+1] = 0xFF
		img.Pix[o+2] = 0xFF
		img.Pix[o+3] = a
	}
	return img
}

// MaskFromImage builds a mask from the alpha channel of img.
func MaskFromImage(img image.Image) *Mask {
	src := imaging.Clone(img)
	b := src.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		row := src.Pix[y*src.Stride:]
		for x := 0; x < m.Width; x++ {
			m.Alpha[y*m.Width+x] = row[x*4+3]
		}
	}
	return m
}

// MaskFromLuminance builds a mask from a greyscale-style image where pixels with
// luminance at or above level are foreground. Fully transparent pixels are
// treated as background.
func MaskFromLuminance(img image.Image, level uint8) *Mask {
	gray := segment.Threshold(img, level)
	src := imaging.Clone(img)
	b := gray.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if src.Pix[y*src.Stride+x*4+3] == 0 {
				continue
			}
			m.Alpha[y*m.Width+x] = gray.Pix[y*gray.Stride+x]
		}
	}
	return m
}

// DecodeMask decodes an encoded PNG (or any format registered with the image
// package) into a mask and checks it against the declared dimensions.
func DecodeMask(data []byte, width, height int) (*Mask, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRaster, err)
	}
	b := img.Bounds()
	if b.Dx() != width || b.Dy() != height {
		return nil, fmt.Errorf("%w: declared %dx%d, decoded %dx%d",
			ErrMalformedRaster, width, height, b.Dx(), b.Dy())
	}
	return MaskFromImage(img), nil
}

// EncodePNG returns the mask as PNG bytes.
func (m *Mask) EncodePNG() ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, m.Image(), imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode mask: %w", err)
	}
	return buf.Bytes(), nil
}

type maskJSON struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	DataURL string `json:"dataUrl"`
}

// MarshalJSON encodes the mask as {width, height, dataUrl} with a PNG data URL.
func (m *Mask) MarshalJSON() ([]byte, error) {
	raw, err := m.EncodePNG()
	if err != nil {
		return nil, err
	}
	return json.Marshal(maskJSON{
		Width:   m.Width,
		Height:  m.Height,
		DataURL: pngDataURLPrefix + base64.StdEncoding.EncodeToString(raw),
	})
}

// UnmarshalJSON decodes {width, height, dataUrl}. An empty dataUrl yields an
// empty mask of the declared size.
func (m *Mask) UnmarshalJSON(data []byte) error {
	var v maskJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	if v.DataURL == "" {
		*m = *NewMask(v.Width, v.Height)
		return nil
	}

	payload := v.DataURL
	if i := strings.Index(payload, ","); strings.HasPrefix(payload, "data:") && i >= 0 {
		payload = payload[i+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("%w: bad data URL: %v", ErrMalformedRaster, err)
	}
	decoded, err := DecodeMask(raw, v.Width, v.Height)
	if err != nil {
		return err
	}
	*m = *decoded
	return nil
}
