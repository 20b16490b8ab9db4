package export

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/contour"
)

// Splits.
const (
	SplitTrain = "train"
	SplitVal   = "val"
)

// DefaultTrainRatio is the share of images assigned to the train split.
const DefaultTrainRatio = 0.8

// Source returns the encoded bytes of a project image.
type Source func(ctx context.Context, fileName string) ([]byte, error)

// DirSource reads images from dir.
func DirSource(dir string) Source {
	return func(ctx context.Context, fileName string) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return os.ReadFile(filepath.Join(dir, filepath.FromSlash(fileName)))
	}
}

// Options configures an Exporter.
type Options struct {
	// Workers bounds the number of images converted concurrently.
	Workers int

	// TrainRatio is the share of images, in project order, placed in the
	// train split.
	TrainRatio float64

	// CopyImages copies source images into the bundle. Images are read through
	// Source, or from the project's ImageDir when Source is nil.
	CopyImages bool
	Source     Source

	Contour contour.Options
}

// DefaultOptions returns the export defaults.
func DefaultOptions() Options {
	return Options{
		Workers:    runtime.NumCPU(),
		TrainRatio: DefaultTrainRatio,
		CopyImages: true,
		Contour:    contour.DefaultOptions(),
	}
}

// ImageReport describes the outcome for one image.
type ImageReport struct {
	ID          string `json:"id"`
	Split       string `json:"split"`
	Annotations int    `json:"annotations"`
	Skipped     int    `json:"skipped,omitempty"`
	EmptyMasks  int    `json:"emptyMasks,omitempty"`
	Truncated   int    `json:"truncated,omitempty"`
	Copied      bool   `json:"copied"`
	Error       string `json:"error,omitempty"`
}

// Report summarises an export.
type Report struct {
	Format Format        `json:"format"`
	Images []ImageReport `json:"images"`
	Files  []string      `json:"files"`
	Failed int           `json:"failed"`
}

// Exporter converts projects into dataset bundles.
type Exporter struct {
	opts Options
	log  zerolog.Logger
}

// New returns an Exporter. Zero option values fall back to the defaults.
func New(opts Options, log zerolog.Logger) *Exporter {
	def := DefaultOptions()
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}
	if opts.TrainRatio < 0 || opts.TrainRatio > 1 || math.IsNaN(opts.TrainRatio) {
		opts.TrainRatio = def.TrainRatio
	}
	if opts.Contour.MaxPoints <= 0 {
		opts.Contour.MaxPoints = def.Contour.MaxPoints
	}
	if opts.Contour.Tolerance < 0 {
		opts.Contour.Tolerance = def.Contour.Tolerance
	}
	return &Exporter{opts: opts, log: log.With().Str("component", "export").Logger()}
}

// imageResult holds one image's converted artifacts until they are written.
type imageResult struct {
	record *annotation.ImageRecord
	split  string

	// name is the image's stem in the bundle, unique within the export;
	// file is name plus the source extension.
	name string
	file string

	label []byte
	image []byte

	coco []cocoAnnotation
	csv  [][]string
	json jsonImage

	report ImageReport
}

// splitOf assigns the first round(n*ratio) images to train.
func splitOf(i, n int, ratio float64) string {
	if i < int(math.Round(float64(n)*ratio)) {
		return SplitTrain
	}
	return SplitVal
}

func stem(fileName string) string {
	base := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}

// bundleNames gives every record a distinct stem. Stems that repeat, such as
// a.jpg and a.png or dir1/a.jpg and dir2/a.jpg, get a numeric suffix in
// project order so no label or image artifact overwrites another.
func bundleNames(records []annotation.ImageRecord) []string {
	names := make([]string, len(records))
	used := make(map[string]bool, len(records))
	for i, rec := range records {
		base := stem(rec.FileName)
		name := base
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s_%d", base, n)
		}
		used[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

// Run exports project p in format f into b. The format is checked against the
// project type before anything is written. Images are converted concurrently
// from a snapshot; an image that cannot be converted is reported and produces
// no artifacts while the rest of the export proceeds. Artifacts are written in
// project order once every image is converted. Run does not close b.
func (e *Exporter) Run(ctx context.Context, f Format, p *annotation.Project, b Bundle) (*Report, error) {
	if err := Check(f, p.Type); err != nil {
		e.log.Warn().Err(err).Str("project", p.Name).Msg("export refused")
		return nil, err
	}

	records := p.Snapshot()
	results := make([]*imageResult, len(records))
	reports := make([]ImageReport, len(records))
	names := bundleNames(records)

	src := e.opts.Source
	if src == nil && p.ImageDir != "" {
		src = DirSource(p.ImageDir)
	}
	if !e.opts.CopyImages {
		src = nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Workers)
	for i := range records {
		rec := &records[i]
		split := splitOf(i, len(records), e.opts.TrainRatio)
		name := names[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.convert(f, p, rec, split, name)
			if err != nil {
				e.log.Error().Err(err).Str("image", rec.ID).Msg("image export failed")
				reports[i] = ImageReport{ID: rec.ID, Split: split, Error: err.Error()}
				return nil
			}
			if src != nil {
				data, err := src(gctx, rec.FileName)
				if err != nil {
					if ctxErr := gctx.Err(); ctxErr != nil {
						return ctxErr
					}
					e.log.Warn().Err(err).Str("image", rec.ID).Msg("source image not copied")
				} else {
					res.image = data
					res.report.Copied = true
				}
			}
			results[i] = res
			reports[i] = res.report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := &writer{bundle: b}
	converted := make([]*imageResult, 0, len(results))
	for _, res := range results {
		if res != nil {
			converted = append(converted, res)
		}
	}
	if err := e.write(w, f, p, converted); err != nil {
		return nil, err
	}

	report := &Report{Format: f, Images: reports, Files: w.files}
	for _, r := range reports {
		if r.Error != "" {
			report.Failed++
		}
	}
	e.log.Info().
		Str("project", p.Name).
		Str("format", string(f)).
		Int("images", len(records)).
		Int("failed", report.Failed).
		Int("files", len(w.files)).
		Msg("export complete")
	return report, nil
}

// convert resolves and encodes every annotation of one image.
func (e *Exporter) convert(f Format, p *annotation.Project, rec *annotation.ImageRecord, split, name string) (*imageResult, error) {
	res := &imageResult{
		record: rec,
		split:  split,
		name:   name,
		file:   name + path.Ext(strings.ReplaceAll(rec.FileName, "\\", "/")),
		report: ImageReport{ID: rec.ID, Split: split},
	}
	if rec.Width <= 0 || rec.Height <= 0 {
		return nil, fmt.Errorf("image %q has invalid size %dx%d", rec.ID, rec.Width, rec.Height)
	}

	shapes := make([]shape, 0, len(rec.Annotations))
	for i, a := range rec.Annotations {
		if _, ok := p.Classes.Lookup(a.ClassID); !ok {
			e.log.Debug().Str("image", rec.ID).Int("class", a.ClassID).Msg("missing class reference")
		}
		s, err := resolve(i, a, rec, p.Classes, e.opts.Contour)
		if errors.Is(err, errEmptyMask) {
			res.report.EmptyMasks++
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("annotation %d: %w", i, err)
		}
		if s.truncated {
			res.report.Truncated++
		}
		shapes = append(shapes, s)
	}

	switch {
	case f.IsYOLO():
		res.label, res.report.Annotations, res.report.Skipped = yoloLabels(f, shapes, rec)

	case f == VOC:
		data, written, skipped, err := vocDocument(rec, res.file, shapes)
		if err != nil {
			return nil, err
		}
		res.label, res.report.Annotations, res.report.Skipped = data, written, skipped

	case f == COCO:
		for _, s := range shapes {
			ca, ok := cocoEncode(s)
			if !ok {
				res.report.Skipped++
				continue
			}
			res.coco = append(res.coco, ca)
		}
		res.report.Annotations = len(res.coco)

	case f == CSV:
		res.csv = csvRows(rec, shapes)
		res.report.Annotations = len(shapes)

	case f == JSON:
		res.json = jsonImage{
			ID:          rec.ID,
			FileName:    rec.FileName,
			Width:       rec.Width,
			Height:      rec.Height,
			Annotations: make([]jsonAnnotation, 0, len(shapes)),
		}
		for _, s := range shapes {
			ja, err := jsonEncode(s)
			if err != nil {
				return nil, fmt.Errorf("annotation %d: %w", s.index, err)
			}
			res.json.Annotations = append(res.json.Annotations, ja)
		}
		res.report.Annotations = len(shapes)
	}
	return res, nil
}

// writer records the paths it puts.
type writer struct {
	bundle Bundle
	files  []string
}

func (w *writer) put(name string, data []byte) error {
	if err := w.bundle.Put(name, data); err != nil {
		return err
	}
	w.files = append(w.files, name)
	return nil
}

func (e *Exporter) write(w *writer, f Format, p *annotation.Project, results []*imageResult) error {
	for _, res := range results {
		var imageDir string
		switch {
		case f.IsYOLO():
			imageDir = "images/" + res.split
			if err := w.put("labels/"+res.split+"/"+res.name+".txt", res.label); err != nil {
				return err
			}
		case f == VOC:
			imageDir = "JPEGImages"
			if err := w.put("Annotations/"+res.name+".xml", res.label); err != nil {
				return err
			}
		default:
			imageDir = "images"
		}
		if res.image != nil {
			if err := w.put(imageDir+"/"+res.file, res.image); err != nil {
				return err
			}
		}
	}

	switch {
	case f.IsYOLO():
		keypoints := 0
		if f == YOLOPose {
			keypoints = p.KeypointCount()
		}
		data, err := Manifest(p.Classes, keypoints)
		if err != nil {
			return fmt.Errorf("failed to encode data.yaml: %w", err)
		}
		if err := w.put("data.yaml", data); err != nil {
			return err
		}

	case f == VOC:
		var train, val strings.Builder
		for _, res := range results {
			sb := &train
			if res.split == SplitVal {
				sb = &val
			}
			sb.WriteString(res.name)
			sb.WriteByte('\n')
		}
		if err := w.put("ImageSets/Main/train.txt", []byte(train.String())); err != nil {
			return err
		}
		if err := w.put("ImageSets/Main/val.txt", []byte(val.String())); err != nil {
			return err
		}

	case f == COCO:
		data, err := cocoDocument(p, results)
		if err != nil {
			return fmt.Errorf("failed to encode COCO document: %w", err)
		}
		if err := w.put("annotations.json", data); err != nil {
			return err
		}

	case f == CSV:
		data, err := csvDocument(results)
		if err != nil {
			return fmt.Errorf("failed to encode CSV: %w", err)
		}
		if err := w.put("annotations.csv", data); err != nil {
			return err
		}

	case f == JSON:
		data, err := jsonDocumentFor(p, results)
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		if err := w.put("annotations.json", data); err != nil {
			return err
		}
	}

	var classes strings.Builder
	for _, name := range p.Classes.Names() {
		classes.WriteString(name)
		classes.WriteByte('\n')
	}
	return w.put("classes.txt", []byte(classes.String()))
}
