// Package export converts annotated projects into machine-learning dataset
// formats.
//
// Supported formats are YOLO detection, segmentation, pose and oriented boxes,
// COCO JSON, Pascal VOC XML, CSV and a generic JSON dump that carries WKT
// geometry. Before anything is written the requested format is checked against
// the project's annotation type; an incompatible pair fails with
// ErrFormatMismatch and leaves the Bundle untouched.
//
// Every image in the project produces an artifact, even one with no
// annotations: an empty YOLO label file, a COCO image entry, a VOC document with
// no objects, a CSV row with blank annotation columns or a JSON record with an
// empty annotation list.
//
// Mask annotations are vectorised with the contour package before encoding. A
// mask with no foreground is skipped silently. A malformed mask aborts only the
// image it belongs to; the failure is recorded in the Report.
//
// Images are converted concurrently over a snapshot taken when Run starts, so
// an export never observes an edit in progress.
package export
