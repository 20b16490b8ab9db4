package export

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

var csvHeader = []string{
	"image_id", "file_name", "image_width", "image_height",
	"annotation_index", "type", "class_id", "class_name",
	"x", "y", "width", "height", "angle", "points", "label",
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinPoints(points []geometry.Point) string {
	parts := make([]string, len(points))
	for i, p := range points {
		parts[i] = num(p.X) + " " + num(p.Y)
	}
	return strings.Join(parts, ";")
}

// csvRows flattens one image into rows. An image without encodable shapes
// still yields one row with the annotation columns blank.
func csvRows(rec *annotation.ImageRecord, shapes []shape) [][]string {
	prefix := []string{rec.ID, rec.FileName, strconv.Itoa(rec.Width), strconv.Itoa(rec.Height)}
	if len(shapes) == 0 {
		return [][]string{append(prefix, make([]string, len(csvHeader)-len(prefix))...)}
	}

	rows := make([][]string, 0, len(shapes))
	for _, s := range shapes {
		var x, y, w, h, angle, points, label string
		switch d := s.ann.Data.(type) {
		case *annotation.BBox:
			x, y, w, h = num(d.X), num(d.Y), num(d.Width), num(d.Height)
		case *annotation.OBB:
			x, y, w, h, angle = num(d.CX), num(d.CY), num(d.Width), num(d.Height), num(d.Angle)
			c := d.Corners()
			points = joinPoints(c[:])
		case *annotation.PointMark:
			x, y = num(d.X), num(d.Y)
		case *annotation.Landmark:
			x, y, label = num(d.X), num(d.Y), d.Label
		case *annotation.Range:
			x, w = num(d.Start), num(d.End-d.Start)
		case *annotation.Keypoints:
			parts := make([]string, len(d.Points))
			for i, kp := range d.Points {
				parts[i] = num(kp.X) + " " + num(kp.Y) + " " + strconv.Itoa(kp.Visibility)
			}
			points = strings.Join(parts, ";")
			if s.hasBounds {
				b := s.bounds
				x, y, w, h = num(b.MinX), num(b.MinY), num(b.Width()), num(b.Height())
			}
		default:
			points = joinPoints(s.outline)
			if s.hasBounds {
				b := s.bounds
				x, y, w, h = num(b.MinX), num(b.MinY), num(b.Width()), num(b.Height())
			}
		}
		row := append(append([]string(nil), prefix...),
			strconv.Itoa(s.index), string(s.ann.Type),
			strconv.Itoa(s.ann.ClassID), s.class.Name,
			x, y, w, h, angle, points, label)
		rows = append(rows, row)
	}
	return rows
}

// csvDocument writes the header followed by every image's rows.
func csvDocument(results []*imageResult) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, res := range results {
		if err := w.WriteAll(res.csv); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
