package annotation

import "fmt"

// ImageRecord is one image of a project together with its annotation list.
// The list order is the z-order; the last annotation is topmost.
type ImageRecord struct {
	ID          string       `json:"id"`
	FileName    string       `json:"fileName"`
	Width       int          `json:"width"`
	Height      int          `json:"height"`
	Annotations []Annotation `json:"annotations"`

	// Unsaved is set by every mutation and cleared by the persistence layer.
	Unsaved bool `json:"-"`
}

// Snapshot returns a deep copy of the record. Export and persistence work on
// snapshots so they never observe an edit in progress.
func (r *ImageRecord) Snapshot() ImageRecord {
	s := *r
	s.Annotations = make([]Annotation, len(r.Annotations))
	for i, a := range r.Annotations {
		s.Annotations[i] = a.Clone()
	}
	return s
}

// Project groups images annotated with a single annotation type.
type Project struct {
	Name    string  `json:"name"`
	Type    Type    `json:"type"`
	Classes Classes `json:"classes"`

	// KeypointNames and Skeleton describe keypoint projects. Skeleton edges are
	// pairs of 1-based keypoint indices, as in COCO.
	KeypointNames []string `json:"keypointNames,omitempty"`
	Skeleton      [][2]int `json:"skeleton,omitempty"`

	// ImageDir is the directory image file names are relative to.
	ImageDir string `json:"imageDir,omitempty"`

	Images []*ImageRecord `json:"images"`
}

// Image returns the image record with the given id.
func (p *Project) Image(id string) (*ImageRecord, error) {
	for _, img := range p.Images {
		if img.ID == id {
			return img, nil
		}
	}
	return nil, fmt.Errorf("image %q not found in project %q", id, p.Name)
}

// Snapshot returns copies of every image record.
func (p *Project) Snapshot() []ImageRecord {
	out := make([]ImageRecord, len(p.Images))
	for i, img := range p.Images {
		out[i] = img.Snapshot()
	}
	return out
}

// Unsaved reports whether any image has unsaved changes.
func (p *Project) Unsaved() bool {
	for _, img := range p.Images {
		if img.Unsaved {
			return true
		}
	}
	return false
}

// MarkSaved clears the unsaved flag on every image.
func (p *Project) MarkSaved() {
	for _, img := range p.Images {
		img.Unsaved = false
	}
}

// KeypointCount returns the number of keypoint slots per keypoint annotation.
func (p *Project) KeypointCount() int {
	return len(p.KeypointNames)
}
