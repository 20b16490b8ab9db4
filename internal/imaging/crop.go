package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

// CropResult is a cropped region encoded as PNG.
type CropResult struct {
	// X and Y are the image coordinates of the crop's top-left pixel.
	X           int    `json:"x"`
	Y           int    `json:"y"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Crop extracts the region (x1,y1)-(x2,y2), exclusive of x2 and y2, and
// optionally rescales it.
func Crop(img image.Image, x1, y1, x2, y2 int, scale float64) (*CropResult, error) {
	bounds := img.Bounds()

	if x1 < bounds.Min.X || y1 < bounds.Min.Y || x2 > bounds.Max.X || y2 > bounds.Max.Y {
		return nil, fmt.Errorf("crop region (%d,%d)-(%d,%d) outside image bounds (%d,%d)-(%d,%d)",
			x1, y1, x2, y2, bounds.Min.X, bounds.Min.Y, bounds.Max.X, bounds.Max.Y)
	}
	if x1 >= x2 || y1 >= y2 {
		return nil, fmt.Errorf("invalid crop region: x1 must be < x2, y1 must be < y2")
	}

	cropped := imaging.Crop(img, image.Rect(x1, y1, x2, y2))

	if scale != 1.0 && scale > 0 {
		w := max(1, int(float64(cropped.Bounds().Dx())*scale))
		h := max(1, int(float64(cropped.Bounds().Dy())*scale))
		cropped = imaging.Resize(cropped, w, h, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, cropped, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}

	return &CropResult{
		X:           x1,
		Y:           y1,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// Bounds returns the image-space bounding rectangle of an annotation. Masks
// are bounded by their foreground pixels and ranges span the full height.
func Bounds(a annotation.Annotation, imageHeight int) (geometry.Rect, bool) {
	switch d := a.Data.(type) {
	case *annotation.BBox:
		return geometry.Rect{MinX: d.X, MinY: d.Y, MaxX: d.X + d.Width, MaxY: d.Y + d.Height}, true
	case *annotation.OBB:
		c := d.Corners()
		return geometry.Bounds(c[:])
	case *annotation.Polygon:
		return geometry.Bounds(d.Points)
	case *annotation.Keypoints:
		return geometry.Bounds(d.LabeledPoints())
	case *annotation.PointMark:
		return geometry.Rect{MinX: d.X, MinY: d.Y, MaxX: d.X, MaxY: d.Y}, true
	case *annotation.Landmark:
		return geometry.Rect{MinX: d.X, MinY: d.Y, MaxX: d.X, MaxY: d.Y}, true
	case *annotation.Range:
		return geometry.Rect{MinX: d.Start, MaxX: d.End, MaxY: float64(imageHeight)}, true
	case *annotation.Mask:
		r := geometry.Rect{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
		found := false
		for y := 0; y < d.Height; y++ {
			for x := 0; x < d.Width; x++ {
				if !d.Foreground(x, y) {
					continue
				}
				found = true
				r.MinX = math.Min(r.MinX, float64(x))
				r.MinY = math.Min(r.MinY, float64(y))
				r.MaxX = math.Max(r.MaxX, float64(x+1))
				r.MaxY = math.Max(r.MaxY, float64(y+1))
			}
		}
		return r, found
	}
	return geometry.Rect{}, false
}

// CropAnnotation crops the bounds of a, grown by padding pixels on every side
// and clipped to the image.
func CropAnnotation(img image.Image, a annotation.Annotation, padding int, scale float64) (*CropResult, error) {
	ib := img.Bounds()
	r, ok := Bounds(a, ib.Dy())
	if !ok {
		return nil, fmt.Errorf("%s annotation has no extent to crop", a.Type)
	}

	region := image.Rect(
		int(math.Floor(r.MinX))-padding,
		int(math.Floor(r.MinY))-padding,
		int(math.Ceil(r.MaxX))+padding,
		int(math.Ceil(r.MaxY))+padding,
	).Intersect(ib)
	if region.Empty() {
		return nil, fmt.Errorf("%s annotation lies outside the image", a.Type)
	}
	return Crop(img, region.Min.X, region.Min.Y, region.Max.X, region.Max.Y, scale)
}
