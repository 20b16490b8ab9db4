package export

import (
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

// yoloLine encodes one shape as a YOLO label line for format f. The second
// result is false when f cannot encode the shape.
func yoloLine(f Format, s shape, imgW, imgH int) (string, bool) {
	cls := strconv.Itoa(s.ann.ClassID)

	switch f {
	case YOLO:
		b, ok := s.ann.Data.(*annotation.BBox)
		if !ok {
			return "", false
		}
		r, ok := clip(geometry.Rect{MinX: b.X, MinY: b.Y, MaxX: b.X + b.Width, MaxY: b.Y + b.Height}, imgW, imgH)
		if !ok || r.Empty() {
			return "", false
		}
		cx, cy, w, h := Normalize(r.MinX, r.MinY, r.Width(), r.Height(), imgW, imgH)
		return line(cls, f6(cx), f6(cy), f6(w), f6(h)), true

	case YOLOOBB:
		o, ok := s.ann.Data.(*annotation.OBB)
		if !ok {
			return "", false
		}
		fields := []string{cls}
		for _, c := range o.Corners() {
			x, y := NormalizePoint(c, imgW, imgH)
			fields = append(fields, f6(x), f6(y))
		}
		return line(fields...), true

	case YOLOSeg:
		if s.ann.Type != annotation.TypePolygon && s.ann.Type != annotation.TypeMask {
			return "", false
		}
		if len(s.outline) < annotation.MinPolygonPoints {
			return "", false
		}
		return line(append([]string{cls}, pointFields(s.outline, imgW, imgH)...)...), true

	case YOLOPose:
		k, ok := s.ann.Data.(*annotation.Keypoints)
		if !ok {
			return "", false
		}
		// The box spans visible keypoints only; occluded ones are still listed.
		vis, ok := geometry.Bounds(k.VisiblePoints())
		if !ok {
			return "", false
		}
		b, ok := clip(vis, imgW, imgH)
		if !ok {
			return "", false
		}
		cx, cy, w, h := Normalize(b.MinX, b.MinY, b.Width(), b.Height(), imgW, imgH)
		fields := []string{cls, f6(cx), f6(cy), f6(w), f6(h)}
		for _, kp := range k.Points {
			if !kp.Labeled() {
				fields = append(fields, f6(0), f6(0), "0")
				continue
			}
			x, y := NormalizePoint(geometry.Pt(kp.X, kp.Y), imgW, imgH)
			fields = append(fields, f6(x), f6(y), strconv.Itoa(kp.Visibility))
		}
		return line(fields...), true
	}
	return "", false
}

func pointFields(points []geometry.Point, imgW, imgH int) []string {
	fields := make([]string, 0, len(points)*2)
	for _, p := range points {
		x, y := NormalizePoint(p, imgW, imgH)
		fields = append(fields, f6(x), f6(y))
	}
	return fields
}

// yoloLabels encodes every shape of one image. Shapes the format cannot encode
// are counted in skipped.
func yoloLabels(f Format, shapes []shape, rec *annotation.ImageRecord) (data []byte, written, skipped int) {
	var sb strings.Builder
	for _, s := range shapes {
		l, ok := yoloLine(f, s, rec.Width, rec.Height)
		if !ok {
			skipped++
			continue
		}
		sb.WriteString(l)
		sb.WriteByte('\n')
		written++
	}
	return []byte(sb.String()), written, skipped
}

// yoloManifest is the data.yaml descriptor read by YOLO trainers.
type yoloManifest struct {
	Path     string   `yaml:"path"`
	Train    string   `yaml:"train"`
	Val      string   `yaml:"val"`
	NC       int      `yaml:"nc"`
	Names    []string `yaml:"names"`
	KptShape []int    `yaml:"kpt_shape,omitempty,flow"`
}

// Manifest renders data.yaml for a YOLO export. keypoints is the number of
// keypoint slots for pose exports and zero otherwise.
func Manifest(classes annotation.Classes, keypoints int) ([]byte, error) {
	names := classes.Names()
	m := yoloManifest{
		Path:  ".",
		Train: "images/train",
		Val:   "images/val",
		NC:    len(names),
		Names: names,
	}
	if keypoints > 0 {
		m.KptShape = []int{keypoints, 3}
	}
	return yaml.Marshal(m)
}
