package export

import (
	"encoding/xml"
	"math"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
)

type vocAnnotation struct {
	XMLName   xml.Name    `xml:"annotation"`
	Folder    string      `xml:"folder"`
	Filename  string      `xml:"filename"`
	Size      vocSize     `xml:"size"`
	Segmented int         `xml:"segmented"`
	Objects   []vocObject `xml:"object"`
}

type vocSize struct {
	Width  int `xml:"width"`
	Height int `xml:"height"`
	Depth  int `xml:"depth"`
}

type vocObject struct {
	Name      string    `xml:"name"`
	Pose      string    `xml:"pose"`
	Truncated int       `xml:"truncated"`
	Difficult int       `xml:"difficult"`
	BndBox    vocBndBox `xml:"bndbox"`
}

type vocBndBox struct {
	XMin int `xml:"xmin"`
	YMin int `xml:"ymin"`
	XMax int `xml:"xmax"`
	YMax int `xml:"ymax"`
}

// vocDocument encodes one image as a Pascal VOC XML document. fileName is the
// image's name under JPEGImages. Shapes other than boxes are counted in
// skipped.
func vocDocument(rec *annotation.ImageRecord, fileName string, shapes []shape) (data []byte, written, skipped int, err error) {
	doc := vocAnnotation{
		Folder:   "JPEGImages",
		Filename: fileName,
		Size:     vocSize{Width: rec.Width, Height: rec.Height, Depth: 3},
	}
	for _, s := range shapes {
		b, ok := s.ann.Data.(*annotation.BBox)
		if !ok {
			skipped++
			continue
		}
		doc.Objects = append(doc.Objects, vocObject{
			Name: s.class.Name,
			Pose: "Unspecified",
			BndBox: vocBndBox{
				XMin: int(math.Round(b.X)),
				YMin: int(math.Round(b.Y)),
				XMax: int(math.Round(b.X + b.Width)),
				YMax: int(math.Round(b.Y + b.Height)),
			},
		})
		written++
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, 0, 0, err
	}
	return append([]byte(xml.Header), append(out, '\n')...), written, skipped, nil
}
