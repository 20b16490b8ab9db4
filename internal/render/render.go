package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/anthonynsimon/bild/blend"
	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
	"github.com/ironsheep/annotate-mcp/internal/hittest"
)

// Options controls how an overlay is drawn. Sizes are in image pixels.
type Options struct {
	StrokeWidth float64
	FillAlpha   uint8
	PointRadius float64
	HandleSize  float64
	Labels      bool

	// Selected is the index of the annotation whose handles are drawn, or -1.
	Selected int

	// Skeleton lists 1-based keypoint index pairs joined by lines.
	Skeleton [][2]int
}

// DefaultOptions returns the preview defaults.
func DefaultOptions() Options {
	return Options{
		StrokeWidth: 2,
		FillAlpha:   64,
		PointRadius: 4,
		HandleSize:  7,
		Labels:      true,
		Selected:    -1,
	}
}

// Overlay draws the annotations of rec over base in z-order and returns a new
// image. A nil base renders onto a white canvas of the record's size.
func Overlay(base image.Image, rec *annotation.ImageRecord, classes annotation.Classes, opts Options) *image.NRGBA {
	var dst *image.NRGBA
	if base == nil {
		dst = imaging.New(max(rec.Width, 1), max(rec.Height, 1), color.White)
	} else {
		dst = imaging.Clone(base)
	}

	for i, a := range rec.Annotations {
		class, _ := classes.Resolve(a.ClassID)
		stroke := classColor(class, 0xFF)
		fill := classColor(class, opts.FillAlpha)

		switch d := a.Data.(type) {
		case *annotation.Mask:
			dst = tint(dst, d, fill)
		case *annotation.BBox:
			outline := []geometry.Point{{X: d.X, Y: d.Y}, {X: d.X + d.Width, Y: d.Y}, {X: d.X + d.Width, Y: d.Y + d.Height}, {X: d.X, Y: d.Y + d.Height}}
			fillPolygon(dst, outline, fill)
			strokePath(dst, outline, true, opts.StrokeWidth, stroke)
		case *annotation.OBB:
			c := d.Corners()
			fillPolygon(dst, c[:], fill)
			strokePath(dst, c[:], true, opts.StrokeWidth, stroke)
		case *annotation.Polygon:
			if d.Closed {
				fillPolygon(dst, d.Points, fill)
			}
			strokePath(dst, d.Points, d.Closed, opts.StrokeWidth, stroke)
		case *annotation.PointMark:
			dot(dst, geometry.Pt(d.X, d.Y), opts.PointRadius, stroke)
		case *annotation.Landmark:
			dot(dst, geometry.Pt(d.X, d.Y), opts.PointRadius, stroke)
		case *annotation.Range:
			h := float64(dst.Bounds().Dy())
			band := []geometry.Point{{X: d.Start, Y: 0}, {X: d.End, Y: 0}, {X: d.End, Y: h}, {X: d.Start, Y: h}}
			fillPolygon(dst, band, fill)
			strokePath(dst, band[:2], false, opts.StrokeWidth, stroke)
			strokePath(dst, []geometry.Point{{X: d.Start, Y: 0}, {X: d.Start, Y: h}}, false, opts.StrokeWidth, stroke)
			strokePath(dst, []geometry.Point{{X: d.End, Y: 0}, {X: d.End, Y: h}}, false, opts.StrokeWidth, stroke)
		case *annotation.Keypoints:
			drawKeypoints(dst, d, opts, stroke)
		}

		if opts.Labels {
			if at, ok := labelAnchor(a); ok {
				label(dst, at, labelText(a, class), stroke)
			}
		}
		if i == opts.Selected {
			drawHandles(dst, a, opts)
		}
	}
	return dst
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode overlay: %w", err)
	}
	return buf.Bytes(), nil
}

func classColor(c annotation.Class, alpha uint8) color.NRGBA {
	col, err := annotation.ParseColor(c.Color)
	if err != nil {
		col, _ = annotation.ParseColor(annotation.FallbackColor(c.ID))
	}
	r, g, b := col.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}
}

// tint composites the mask foreground in col over dst.
func tint(dst *image.NRGBA, m *annotation.Mask, col color.NRGBA) *image.NRGBA {
	layer := image.NewNRGBA(dst.Bounds())
	w, h := m.Size()
	for y := 0; y < h && y < layer.Rect.Dy(); y++ {
		for x := 0; x < w && x < layer.Rect.Dx(); x++ {
			if m.Foreground(x, y) {
				layer.SetNRGBA(x, y, col)
			}
		}
	}
	return imaging.Clone(blend.Normal(dst, layer))
}

func rasterizer(dst *image.NRGBA) *vector.Rasterizer {
	b := dst.Bounds()
	return vector.NewRasterizer(b.Dx(), b.Dy())
}

func paint(dst *image.NRGBA, r *vector.Rasterizer, col color.NRGBA) {
	r.Draw(dst, dst.Bounds(), image.NewUniform(col), image.Point{})
}

func addPolygon(r *vector.Rasterizer, points []geometry.Point) {
	r.MoveTo(float32(points[0].X), float32(points[0].Y))
	for _, p := range points[1:] {
		r.LineTo(float32(p.X), float32(p.Y))
	}
	r.ClosePath()
}

func fillPolygon(dst *image.NRGBA, points []geometry.Point, col color.NRGBA) {
	if len(points) < 3 || col.A == 0 {
		return
	}
	r := rasterizer(dst)
	addPolygon(r, points)
	paint(dst, r, col)
}

// strokePath outlines points with width-wide segments. All segment quads
// share one winding so overlaps at joints do not cancel.
func strokePath(dst *image.NRGBA, points []geometry.Point, closed bool, width float64, col color.NRGBA) {
	if len(points) < 2 || width <= 0 {
		return
	}
	r := rasterizer(dst)
	n := len(points)
	segments := n - 1
	if closed {
		segments = n
	}
	half := width / 2
	for i := 0; i < segments; i++ {
		a, b := points[i], points[(i+1)%n]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		// extend by half a width so corners are filled
		ux, uy := dx/l*half, dy/l*half
		nx, ny := -uy, ux
		a = geometry.Pt(a.X-ux, a.Y-uy)
		b = geometry.Pt(b.X+ux, b.Y+uy)
		addPolygon(r, []geometry.Point{
			{X: a.X + nx, Y: a.Y + ny}, {X: b.X + nx, Y: b.Y + ny},
			{X: b.X - nx, Y: b.Y - ny}, {X: a.X - nx, Y: a.Y - ny},
		})
	}
	paint(dst, r, col)
}

func circle(c geometry.Point, radius float64) []geometry.Point {
	const steps = 16
	pts := make([]geometry.Point, steps)
	for i := range pts {
		t := 2 * math.Pi * float64(i) / steps
		pts[i] = geometry.Pt(c.X+radius*math.Cos(t), c.Y+radius*math.Sin(t))
	}
	return pts
}

func dot(dst *image.NRGBA, c geometry.Point, radius float64, col color.NRGBA) {
	if radius <= 0 {
		return
	}
	r := rasterizer(dst)
	addPolygon(r, circle(c, radius))
	paint(dst, r, col)
}

func drawKeypoints(dst *image.NRGBA, k *annotation.Keypoints, opts Options, col color.NRGBA) {
	for _, e := range opts.Skeleton {
		i, j := e[0]-1, e[1]-1
		if i < 0 || j < 0 || i >= len(k.Points) || j >= len(k.Points) {
			continue
		}
		a, b := k.Points[i], k.Points[j]
		if !a.Labeled() || !b.Labeled() {
			continue
		}
		strokePath(dst, []geometry.Point{{X: a.X, Y: a.Y}, {X: b.X, Y: b.Y}}, false, opts.StrokeWidth, col)
	}
	hollow := col
	hollow.A = 0x80
	for _, kp := range k.Points {
		switch kp.Visibility {
		case annotation.VisibilityVisible:
			dot(dst, geometry.Pt(kp.X, kp.Y), opts.PointRadius, col)
		case annotation.VisibilityOccluded:
			dot(dst, geometry.Pt(kp.X, kp.Y), opts.PointRadius, hollow)
		}
	}
}

func drawHandles(dst *image.NRGBA, a annotation.Annotation, opts Options) {
	handle := color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	ring := color.NRGBA{A: 0xFF}
	s := opts.HandleSize / 2

	box := func(p geometry.Point) {
		sq := []geometry.Point{{X: p.X - s, Y: p.Y - s}, {X: p.X + s, Y: p.Y - s}, {X: p.X + s, Y: p.Y + s}, {X: p.X - s, Y: p.Y + s}}
		fillPolygon(dst, sq, handle)
		strokePath(dst, sq, true, 1, ring)
	}

	var cx, cy, w, h, angle float64
	switch d := a.Data.(type) {
	case *annotation.BBox:
		c := d.Center()
		cx, cy, w, h = c.X, c.Y, d.Width, d.Height
	case *annotation.OBB:
		cx, cy, w, h, angle = d.CX, d.CY, d.Width, d.Height, d.Angle
		top := hittest.HandlePosition(hittest.HandleN, cx, cy, w, h, angle, 0)
		grip := hittest.HandlePosition(hittest.HandleRotate, cx, cy, w, h, angle, hittest.DefaultRotationOffset)
		strokePath(dst, []geometry.Point{top, grip}, false, 1, ring)
		dot(dst, grip, s+1, handle)
	case *annotation.Polygon:
		for _, p := range d.Points {
			box(p)
		}
		return
	case *annotation.Keypoints:
		for _, p := range d.LabeledPoints() {
			box(p)
		}
		return
	default:
		return
	}
	for _, hd := range hittest.ResizeHandles() {
		box(hittest.HandlePosition(hd, cx, cy, w, h, angle, 0))
	}
}

// labelAnchor returns the top-left point a caption is drawn above.
func labelAnchor(a annotation.Annotation) (geometry.Point, bool) {
	switch d := a.Data.(type) {
	case *annotation.BBox:
		return geometry.Pt(d.X, d.Y), true
	case *annotation.OBB:
		c := d.Corners()
		r, _ := geometry.Bounds(c[:])
		return geometry.Pt(r.MinX, r.MinY), true
	case *annotation.Polygon:
		r, ok := geometry.Bounds(d.Points)
		return geometry.Pt(r.MinX, r.MinY), ok
	case *annotation.Keypoints:
		r, ok := geometry.Bounds(d.LabeledPoints())
		return geometry.Pt(r.MinX, r.MinY), ok
	case *annotation.PointMark:
		return geometry.Pt(d.X, d.Y), true
	case *annotation.Landmark:
		return geometry.Pt(d.X, d.Y), true
	case *annotation.Range:
		return geometry.Pt(d.Start, 14), true
	}
	return geometry.Point{}, false
}

func labelText(a annotation.Annotation, c annotation.Class) string {
	if l, ok := a.Data.(*annotation.Landmark); ok && l.Label != "" {
		return c.Name + ": " + l.Label
	}
	return c.Name
}

// label draws text on a solid caption box in col, clipped to dst.
func label(dst *image.NRGBA, at geometry.Point, text string, col color.NRGBA) {
	face := basicfont.Face7x13
	width := font.MeasureString(face, text).Ceil()
	x := int(math.Round(at.X))
	y := int(math.Round(at.Y))
	if y < face.Height {
		y = face.Height
	}
	bg := image.Rect(x, y-face.Height, x+width+4, y).Intersect(dst.Bounds())
	draw.Draw(dst, bg, image.NewUniform(col), image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(contrast(col)),
		Face: face,
		Dot:  fixed.P(x+2, y-face.Descent),
	}
	d.DrawString(text)
}

// contrast picks black or white text for a caption background.
func contrast(c color.NRGBA) color.Color {
	lum := 0.299*float64(c.R) + 0.587*float64(c.G) + 0.114*float64(c.B)
	if lum > 140 {
		return color.Black
	}
	return color.White
}
