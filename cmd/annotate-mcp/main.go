package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/rs/zerolog"
	"github.com/tdewolff/argp"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/config"
	"github.com/ironsheep/annotate-mcp/internal/contour"
	"github.com/ironsheep/annotate-mcp/internal/export"
	"github.com/ironsheep/annotate-mcp/internal/imaging"
	"github.com/ironsheep/annotate-mcp/internal/logging"
	"github.com/ironsheep/annotate-mcp/internal/render"
	"github.com/ironsheep/annotate-mcp/internal/server"
	"github.com/ironsheep/annotate-mcp/internal/store"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type Serve struct {
	Config  string `short:"c" desc:"Directory holding annotate.json or annotate.yaml"`
	Version bool   `short:"v" desc:"Print version information"`
}

type Export struct {
	Config   string `short:"c" desc:"Directory holding annotate.json or annotate.yaml"`
	Format   string `short:"f" default:"yolo" desc:"Dataset format: yolo, yolo-seg, yolo-pose, yolo-obb, coco, voc, csv or json"`
	Output   string `short:"o" desc:"Output directory, or a .zip file"`
	NoImages bool   `desc:"Do not copy source images"`
	Project  string `index:"0" desc:"Project name"`
}

type Render struct {
	Config   string `short:"c" desc:"Directory holding annotate.json or annotate.yaml"`
	Image    string `short:"i" desc:"Image id"`
	Output   string `short:"o" desc:"Output PNG file"`
	Selected int    `short:"s" default:"-1" desc:"Index of the annotation whose handles are drawn"`
	Project  string `index:"0" desc:"Project name"`
}

type Trace struct {
	Tolerance float64 `short:"t" default:"2" desc:"Simplification tolerance (squared pixel distance)"`
	Threshold int     `default:"-1" desc:"Luminance threshold for foreground, -1 uses the alpha channel"`
	MaxPoints int     `default:"10000" desc:"Maximum traced boundary pixels"`
	Input     string  `index:"0" desc:"Mask image"`
}

func main() {
	root := argp.NewCmd(&Serve{}, "annotate-mcp - MCP server and dataset tools for image annotation")
	root.AddCmd(&Export{}, "export", "Export a stored project as a training dataset")
	root.AddCmd(&Render{}, "render", "Render the annotations of one image to PNG")
	root.AddCmd(&Trace{}, "trace", "Trace a mask image into a simplified polygon")
	root.Parse()
	root.PrintHelp()
}

// setup loads the configuration from dir and opens the project store. Logs go
// to stderr; stdout is reserved for protocol traffic and command output.
func setup(dir string) (*config.Config, store.Store, zerolog.Logger, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, nil, zerolog.Nop(), err
	}
	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	st, err := store.Open(cfg.Store.Dir, cfg.Store.SQLitePath, log)
	if err != nil {
		return nil, nil, log, err
	}
	return cfg, st, log, nil
}

func (cmd *Serve) Run() error {
	if cmd.Version {
		fmt.Printf("annotate-mcp %s\n", Version)
		fmt.Printf("  Build time: %s\n", BuildTime)
		fmt.Printf("  Git commit: %s\n", GitCommit)
		return nil
	}

	cfg, st, log, err := setup(cmd.Config)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Debug().Str("version", Version).Str("built", BuildTime).Str("commit", GitCommit).Msg("Starting")
	server.Version = Version
	if err := server.New(cfg, st, log).Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func (cmd *Export) Run() error {
	if cmd.Project == "" || cmd.Output == "" {
		return argp.ShowUsage
	}
	f, err := export.ParseFormat(cmd.Format)
	if err != nil {
		return err
	}

	cfg, st, log, err := setup(cmd.Config)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := st.Load(ctx, cmd.Project)
	if err != nil {
		return err
	}
	if err := export.Check(f, p.Type); err != nil {
		return err
	}

	opts := cfg.ExportOptions()
	if cmd.NoImages {
		opts.CopyImages = false
	}
	b, err := export.OpenBundle(cmd.Output)
	if err != nil {
		return err
	}
	report, err := export.New(opts, log).Run(ctx, f, p, b)
	if cerr := b.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fmt.Printf("Exported %d images (%d failed) as %s to %s\n", len(report.Images), report.Failed, f, cmd.Output)
	for _, img := range report.Images {
		if img.Error != "" {
			fmt.Printf("  %s: %s\n", img.ID, img.Error)
		}
	}
	return nil
}

func (cmd *Render) Run() error {
	if cmd.Project == "" || cmd.Image == "" || cmd.Output == "" {
		return argp.ShowUsage
	}

	_, st, log, err := setup(cmd.Config)
	if err != nil {
		return err
	}
	defer st.Close()

	p, err := st.Load(context.Background(), cmd.Project)
	if err != nil {
		return err
	}
	rec, err := p.Image(cmd.Image)
	if err != nil {
		return err
	}

	cache := imaging.NewImageCache()
	base, err := cache.Load(filepath.Join(p.ImageDir, rec.FileName))
	if err != nil {
		log.Warn().Err(err).Str("image", rec.ID).Msg("Rendering onto a blank canvas")
		base = nil
	}

	opts := render.DefaultOptions()
	opts.Selected = cmd.Selected
	opts.Skeleton = p.Skeleton
	return imgio.Save(cmd.Output, render.Overlay(base, rec, p.Classes, opts), imgio.PNGEncoder())
}

func (cmd *Trace) Run() error {
	if cmd.Input == "" {
		return argp.ShowUsage
	}
	img, err := imaging.NewImageCache().Load(cmd.Input)
	if err != nil {
		return err
	}

	var mask *annotation.Mask
	switch {
	case cmd.Threshold < 0:
		mask = annotation.MaskFromImage(img)
	case cmd.Threshold <= 255:
		mask = annotation.MaskFromLuminance(img, uint8(cmd.Threshold))
	default:
		return fmt.Errorf("threshold must be within [0, 255], got %d", cmd.Threshold)
	}

	res := contour.MaskToPolygon(mask, contour.Options{MaxPoints: cmd.MaxPoints, Tolerance: cmd.Tolerance})
	if res.Truncated {
		fmt.Fprintf(os.Stderr, "warning: boundary truncated at %d points\n", cmd.MaxPoints)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]interface{}{
		"points":    res.Points,
		"count":     len(res.Points),
		"truncated": res.Truncated,
	})
}
