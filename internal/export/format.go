package export

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
)

var (
	// ErrFormatMismatch is returned when a format cannot represent the
	// project's annotation type.
	ErrFormatMismatch = errors.New("format does not match project type")

	// ErrUnknownFormat is returned for an unrecognised format name.
	ErrUnknownFormat = errors.New("unknown export format")
)

// Format names an export format.
type Format string

// Formats.
const (
	YOLO     Format = "yolo"
	YOLOSeg  Format = "yolo-seg"
	YOLOPose Format = "yolo-pose"
	YOLOOBB  Format = "yolo-obb"
	COCO     Format = "coco"
	VOC      Format = "voc"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// Formats lists every format.
var Formats = []Format{YOLO, YOLOSeg, YOLOPose, YOLOOBB, COCO, VOC, CSV, JSON}

// accepts maps a format to the project types it can encode. A nil entry
// accepts every type.
var accepts = map[Format][]annotation.Type{
	YOLO:     {annotation.TypeBBox},
	YOLOOBB:  {annotation.TypeOBB},
	YOLOSeg:  {annotation.TypePolygon, annotation.TypeMask},
	YOLOPose: {annotation.TypeKeypoints},
	COCO:     {annotation.TypeBBox, annotation.TypePolygon, annotation.TypeMask, annotation.TypeKeypoints},
	VOC:      {annotation.TypeBBox},
	CSV:      nil,
	JSON:     nil,
}

// ParseFormat converts a format name into a Format.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if _, ok := accepts[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
	return f, nil
}

// Accepts reports whether f can encode a project of type t.
func (f Format) Accepts(t annotation.Type) bool {
	types, ok := accepts[f]
	if !ok {
		return false
	}
	return types == nil || slices.Contains(types, t)
}

// IsYOLO reports whether f is one of the YOLO family.
func (f Format) IsYOLO() bool {
	switch f {
	case YOLO, YOLOSeg, YOLOPose, YOLOOBB:
		return true
	}
	return false
}

// Check validates that f exists and can encode a project of type t.
func Check(f Format, t annotation.Type) error {
	if _, ok := accepts[f]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
	if !f.Accepts(t) {
		return fmt.Errorf("%w: %s cannot encode %s projects", ErrFormatMismatch, f, t)
	}
	return nil
}

// FormatsFor returns the formats that can encode a project of type t.
func FormatsFor(t annotation.Type) []Format {
	var out []Format
	for _, f := range Formats {
		if f.Accepts(t) {
			out = append(out, f)
		}
	}
	return out
}
