package export

import (
	"encoding/json"
	"sort"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
)

type cocoDataset struct {
	Info        cocoInfo         `json:"info"`
	Images      []cocoImage      `json:"images"`
	Annotations []cocoAnnotation `json:"annotations"`
	Categories  []cocoCategory   `json:"categories"`
}

type cocoInfo struct {
	Description string `json:"description"`
	Version     string `json:"version"`
}

type cocoImage struct {
	ID       int    `json:"id"`
	FileName string `json:"file_name"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

type cocoAnnotation struct {
	ID           int         `json:"id"`
	ImageID      int         `json:"image_id"`
	CategoryID   int         `json:"category_id"`
	Segmentation [][]float64 `json:"segmentation"`
	Area         float64     `json:"area"`
	BBox         [4]float64  `json:"bbox"`
	IsCrowd      int         `json:"iscrowd"`
	Keypoints    []float64   `json:"keypoints,omitempty"`
	NumKeypoints *int        `json:"num_keypoints,omitempty"`
}

type cocoCategory struct {
	ID            int      `json:"id"`
	Name          string   `json:"name"`
	Supercategory string   `json:"supercategory"`
	Keypoints     []string `json:"keypoints,omitempty"`
	Skeleton      [][2]int `json:"skeleton,omitempty"`
}

// cocoCategoryID maps a class id onto COCO's 1-based category ids.
func cocoCategoryID(classID int) int {
	return classID + 1
}

// cocoEncode builds one annotation entry. The second result is false when the
// shape has no COCO representation.
func cocoEncode(s shape) (cocoAnnotation, bool) {
	ca := cocoAnnotation{
		CategoryID:   cocoCategoryID(s.ann.ClassID),
		Segmentation: [][]float64{},
	}

	switch d := s.ann.Data.(type) {
	case *annotation.BBox:
		ca.BBox = [4]float64{d.X, d.Y, d.Width, d.Height}
		ca.Area = d.Width * d.Height

	case *annotation.Polygon, *annotation.Mask:
		if len(s.outline) < annotation.MinPolygonPoints {
			return ca, false
		}
		seg := make([]float64, 0, len(s.outline)*2)
		for _, p := range s.outline {
			seg = append(seg, p.X, p.Y)
		}
		ca.Segmentation = [][]float64{seg}
		ca.BBox = [4]float64{s.bounds.MinX, s.bounds.MinY, s.bounds.Width(), s.bounds.Height()}
		ca.Area = s.area()

	case *annotation.Keypoints:
		if !s.hasBounds {
			return ca, false
		}
		n := 0
		ca.Keypoints = make([]float64, 0, len(d.Points)*3)
		for _, kp := range d.Points {
			if kp.Labeled() {
				n++
				ca.Keypoints = append(ca.Keypoints, kp.X, kp.Y, float64(kp.Visibility))
			} else {
				ca.Keypoints = append(ca.Keypoints, 0, 0, 0)
			}
		}
		ca.NumKeypoints = &n
		ca.BBox = [4]float64{s.bounds.MinX, s.bounds.MinY, s.bounds.Width(), s.bounds.Height()}
		ca.Area = s.area()

	default:
		return ca, false
	}
	return ca, true
}

// cocoDocument assembles the dataset from converted images in export order.
// Image and annotation ids are 1-based in that order.
func cocoDocument(p *annotation.Project, results []*imageResult) ([]byte, error) {
	doc := cocoDataset{
		Info:        cocoInfo{Description: p.Name, Version: "1.0"},
		Images:      []cocoImage{},
		Annotations: []cocoAnnotation{},
	}

	used := map[int]bool{}
	annID := 1
	for i, res := range results {
		imageID := i + 1
		doc.Images = append(doc.Images, cocoImage{
			ID:       imageID,
			FileName: res.file,
			Width:    res.record.Width,
			Height:   res.record.Height,
		})
		for _, a := range res.coco {
			a.ID = annID
			a.ImageID = imageID
			annID++
			used[a.CategoryID-1] = true
			doc.Annotations = append(doc.Annotations, a)
		}
	}

	for _, c := range p.Classes {
		used[c.ID] = true
	}
	ids := make([]int, 0, len(used))
	for id := range used {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		c, _ := p.Classes.Resolve(id)
		cat := cocoCategory{ID: cocoCategoryID(id), Name: c.Name, Supercategory: "none"}
		if p.Type == annotation.TypeKeypoints {
			cat.Keypoints = p.KeypointNames
			cat.Skeleton = p.Skeleton
		}
		doc.Categories = append(doc.Categories, cat)
	}
	if doc.Categories == nil {
		doc.Categories = []cocoCategory{}
	}

	return json.MarshalIndent(doc, "", "  ")
}
