package export

import (
	"encoding/json"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

type jsonDocument struct {
	Project       string             `json:"project"`
	Type          annotation.Type    `json:"type"`
	Classes       annotation.Classes `json:"classes"`
	KeypointNames []string           `json:"keypointNames,omitempty"`
	Skeleton      [][2]int           `json:"skeleton,omitempty"`
	Images        []jsonImage        `json:"images"`
}

type jsonImage struct {
	ID          string           `json:"id"`
	FileName    string           `json:"fileName"`
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	Annotations []jsonAnnotation `json:"annotations"`
}

type jsonAnnotation struct {
	Index     int                 `json:"index"`
	Type      annotation.Type     `json:"type"`
	ClassID   int                 `json:"classId"`
	ClassName string              `json:"className"`
	WKT       string              `json:"wkt"`
	Area      float64             `json:"area"`
	BBox      *[4]float64         `json:"bbox,omitempty"`
	Data      annotation.Geometry `json:"data"`
}

func coord(p geometry.Point) geom.Coord {
	return geom.Coord{p.X, p.Y}
}

func coords(points []geometry.Point) []geom.Coord {
	out := make([]geom.Coord, len(points))
	for i, p := range points {
		out[i] = coord(p)
	}
	return out
}

// ring closes points by repeating the first vertex.
func ring(points []geometry.Point) []geom.Coord {
	c := coords(points)
	return append(c, c[0])
}

// toGeom converts a resolved shape into a simple feature. Area-like shapes
// become polygons, point-like shapes points, keypoints a multipoint of the
// labeled slots and a range a horizontal line string.
func toGeom(s shape) (geom.T, error) {
	switch d := s.ann.Data.(type) {
	case *annotation.PointMark:
		return geom.NewPoint(geom.XY).SetCoords(geom.Coord{d.X, d.Y})
	case *annotation.Landmark:
		return geom.NewPoint(geom.XY).SetCoords(geom.Coord{d.X, d.Y})
	case *annotation.Keypoints:
		return geom.NewMultiPoint(geom.XY).SetCoords(coords(d.LabeledPoints()))
	case *annotation.Range:
		return geom.NewLineString(geom.XY).SetCoords([]geom.Coord{{d.Start, 0}, {d.End, 0}})
	}
	if len(s.outline) < annotation.MinPolygonPoints {
		return geom.NewPolygon(geom.XY), nil
	}
	return geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{ring(s.outline)})
}

func jsonEncode(s shape) (jsonAnnotation, error) {
	g, err := toGeom(s)
	if err != nil {
		return jsonAnnotation{}, err
	}
	text, err := wkt.Marshal(g)
	if err != nil {
		return jsonAnnotation{}, err
	}

	ja := jsonAnnotation{
		Index:     s.index,
		Type:      s.ann.Type,
		ClassID:   s.ann.ClassID,
		ClassName: s.class.Name,
		WKT:       text,
		Data:      s.ann.Data,
	}
	switch t := g.(type) {
	case *geom.Polygon:
		ja.Area = math.Abs(t.Area())
	default:
		ja.Area = s.area()
	}
	if s.hasBounds {
		b := s.bounds
		ja.BBox = &[4]float64{b.MinX, b.MinY, b.Width(), b.Height()}
	}
	return ja, nil
}

func jsonDocumentFor(p *annotation.Project, results []*imageResult) ([]byte, error) {
	doc := jsonDocument{
		Project:       p.Name,
		Type:          p.Type,
		Classes:       p.Classes,
		KeypointNames: p.KeypointNames,
		Skeleton:      p.Skeleton,
		Images:        make([]jsonImage, 0, len(results)),
	}
	for _, res := range results {
		doc.Images = append(doc.Images, res.json)
	}
	return json.MarshalIndent(doc, "", "  ")
}
