package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sort"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/contour"
	"github.com/ironsheep/annotate-mcp/internal/export"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
	"github.com/ironsheep/annotate-mcp/internal/hittest"
	"github.com/ironsheep/annotate-mcp/internal/imaging"
	"github.com/ironsheep/annotate-mcp/internal/render"
	"github.com/ironsheep/annotate-mcp/internal/store"
	"github.com/ironsheep/annotate-mcp/internal/tool"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "project_open", "session_event").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		s.log.Warn().Err(err).Str("tool", params.Name).Msg("Tool execution failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Images
	case "image_load":
		return s.handleImageLoad(args)
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "image_sample_color":
		return s.handleImageSampleColor(args)

	// Projects
	case "project_list":
		return s.handleProjectList(ctx)
	case "project_open":
		return s.handleProjectOpen(ctx, args)
	case "project_save":
		return s.handleProjectSave(ctx, args)

	// Editing sessions
	case "session_open":
		return s.handleSessionOpen(args)
	case "session_event":
		return s.handleSessionEvent(args)
	case "session_viewport":
		return s.handleSessionViewport(args)

	// Annotations
	case "annotations_list":
		return s.handleAnnotationsList(args)
	case "annotation_hit_test":
		return s.handleAnnotationHitTest(args)
	case "annotation_crop":
		return s.handleAnnotationCrop(args)
	case "mask_to_polygon":
		return s.handleMaskToPolygon(args)

	// Output
	case "render_overlay":
		return s.handleRenderOverlay(args)
	case "export_dataset":
		return s.handleExportDataset(ctx, args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// decodeArgs unmarshals tool arguments. Missing arguments decode as {}.
func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 || string(args) == "null" {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// project returns an open project.
func (s *Server) project(name string) (*annotation.Project, error) {
	p, ok := s.projects[name]
	if !ok {
		return nil, fmt.Errorf("project %q is not open; call project_open first", name)
	}
	return p, nil
}

// record returns an image of an open project.
func (s *Server) record(project, image string) (*annotation.Project, *annotation.ImageRecord, error) {
	p, err := s.project(project)
	if err != nil {
		return nil, nil, err
	}
	rec, err := p.Image(image)
	if err != nil {
		return nil, nil, err
	}
	return p, rec, nil
}

// source loads the image file behind rec.
func (s *Server) source(p *annotation.Project, rec *annotation.ImageRecord) (image.Image, error) {
	return s.cache.Load(filepath.Join(p.ImageDir, rec.FileName))
}

// === Image Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`

	// Project adds the image to an open project. Path is then relative to the
	// project's image directory.
	Project string `json:"project,omitempty"`
}

type imageLoadResult struct {
	*imaging.ImageInfo
	ImageID string `json:"image_id,omitempty"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Project == "" {
		return imaging.LoadImageInfo(s.cache, a.Path)
	}

	p, err := s.project(a.Project)
	if err != nil {
		return nil, err
	}
	rec, err := imaging.NewRecord(s.cache, p.ImageDir, a.Path)
	if err != nil {
		return nil, err
	}
	if _, err := p.Image(rec.ID); err == nil {
		return nil, fmt.Errorf("image %q is already in project %q", rec.ID, p.Name)
	}
	info, err := imaging.LoadImageInfo(s.cache, filepath.Join(p.ImageDir, a.Path))
	if err != nil {
		return nil, err
	}

	rec.Unsaved = true
	p.Images = append(p.Images, rec)
	s.log.Info().Str("project", p.Name).Str("image", rec.ID).Int("width", rec.Width).Int("height", rec.Height).Msg("Image added")
	return imageLoadResult{ImageInfo: info, ImageID: rec.ID}, nil
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.GetDimensions(s.cache, a.Path)
}

type imageSampleColorArgs struct {
	Path string `json:"path"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

func (s *Server) handleImageSampleColor(args json.RawMessage) (interface{}, error) {
	var a imageSampleColorArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.SampleColor(img, a.X, a.Y)
}

// === Project Handlers ===

type imageSummary struct {
	ID          string `json:"id"`
	FileName    string `json:"file_name"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	Annotations int    `json:"annotations"`
	Unsaved     bool   `json:"unsaved,omitempty"`
}

type projectSummary struct {
	Name          string             `json:"name"`
	Type          annotation.Type    `json:"type"`
	Classes       annotation.Classes `json:"classes"`
	KeypointNames []string           `json:"keypoint_names,omitempty"`
	ImageDir      string             `json:"image_dir,omitempty"`
	Images        []imageSummary     `json:"images"`
	Formats       []export.Format    `json:"export_formats"`
	Unsaved       bool               `json:"unsaved"`
	Created       bool               `json:"created,omitempty"`
}

func summarize(p *annotation.Project) projectSummary {
	sum := projectSummary{
		Name:          p.Name,
		Type:          p.Type,
		Classes:       p.Classes,
		KeypointNames: p.KeypointNames,
		ImageDir:      p.ImageDir,
		Images:        make([]imageSummary, 0, len(p.Images)),
		Formats:       export.FormatsFor(p.Type),
		Unsaved:       p.Unsaved(),
	}
	for _, img := range p.Images {
		sum.Images = append(sum.Images, imageSummary{
			ID:          img.ID,
			FileName:    img.FileName,
			Width:       img.Width,
			Height:      img.Height,
			Annotations: len(img.Annotations),
			Unsaved:     img.Unsaved,
		})
	}
	return sum
}

func (s *Server) handleProjectList(ctx context.Context) (interface{}, error) {
	stored, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	open := make([]string, 0, len(s.projects))
	for name := range s.projects {
		open = append(open, name)
	}
	sort.Strings(open)
	return map[string]interface{}{
		"stored": stored,
		"open":   open,
	}, nil
}

type projectOpenArgs struct {
	Name string `json:"name"`

	// The remaining fields describe a project to create when none is stored
	// under Name.
	Type          string             `json:"type,omitempty"`
	Classes       annotation.Classes `json:"classes,omitempty"`
	KeypointNames []string           `json:"keypoint_names,omitempty"`
	Skeleton      [][2]int           `json:"skeleton,omitempty"`
	ImageDir      string             `json:"image_dir,omitempty"`
}

func (s *Server) handleProjectOpen(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a projectOpenArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if p, ok := s.projects[a.Name]; ok {
		return summarize(p), nil
	}

	p, err := s.store.Load(ctx, a.Name)
	created := false
	switch {
	case errors.Is(err, store.ErrNotFound):
		if a.Type == "" {
			return nil, fmt.Errorf("%w: %q; pass a type to create it", err, a.Name)
		}
		t, err := annotation.ParseType(a.Type)
		if err != nil {
			return nil, err
		}
		p = &annotation.Project{
			Name:          a.Name,
			Type:          t,
			Classes:       a.Classes,
			KeypointNames: a.KeypointNames,
			Skeleton:      a.Skeleton,
			ImageDir:      a.ImageDir,
			Images:        []*annotation.ImageRecord{},
		}
		created = true
	case err != nil:
		return nil, err
	case a.ImageDir != "":
		p.ImageDir = a.ImageDir
	}

	s.projects[p.Name] = p
	s.log.Info().Str("project", p.Name).Str("type", string(p.Type)).Int("images", len(p.Images)).Bool("created", created).Msg("Project opened")

	sum := summarize(p)
	sum.Created = created
	return sum, nil
}

type projectSaveArgs struct {
	Name string `json:"name"`
}

func (s *Server) handleProjectSave(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a projectSaveArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, err := s.project(a.Name)
	if err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, p); err != nil {
		return nil, err
	}
	return summarize(p), nil
}

// === Editing Session Handlers ===

// editSession is an interactive session on one image of an open project.
type editSession struct {
	id      string
	project *annotation.Project
	edit    *tool.Session
}

type sessionView struct {
	Session     string            `json:"session"`
	Tool        tool.Kind         `json:"tool"`
	Class       int               `json:"class"`
	State       tool.State        `json:"state"`
	Viewport    geometry.Viewport `json:"viewport"`
	Annotations int               `json:"annotations"`
	Unsaved     bool              `json:"unsaved"`
}

func (es *editSession) view() sessionView {
	rec := es.edit.Image()
	return sessionView{
		Session:     es.id,
		Tool:        es.edit.Tool(),
		Class:       es.edit.Class(),
		State:       es.edit.State(),
		Viewport:    es.edit.Viewport,
		Annotations: len(rec.Annotations),
		Unsaved:     rec.Unsaved,
	}
}

func (s *Server) session(id string) (*editSession, error) {
	es, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q is not open; call session_open first", id)
	}
	return es, nil
}

type sessionOpenArgs struct {
	Project string `json:"project"`
	Image   string `json:"image"`
	Tool    string `json:"tool"`
	Class   int    `json:"class"`
}

func (s *Server) handleSessionOpen(args json.RawMessage) (interface{}, error) {
	var a sessionOpenArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Tool == "" {
		a.Tool = string(tool.Select)
	}
	k, err := tool.ParseKind(a.Tool)
	if err != nil {
		return nil, err
	}
	p, rec, err := s.record(a.Project, a.Image)
	if err != nil {
		return nil, err
	}

	edit := tool.NewSession(rec, k, s.cfg.ToolOptions(), s.log)
	edit.SetClass(a.Class)
	edit.SetKeypointCount(p.KeypointCount())

	es := &editSession{id: p.Name + "/" + rec.ID, project: p, edit: edit}
	s.sessions[es.id] = es
	return es.view(), nil
}

type sessionEventArgs struct {
	Session string `json:"session"`

	// Gesture is applied at viewport position (X, Y) after any tool, class or
	// selection change. An empty gesture only applies those changes.
	Gesture string  `json:"gesture,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`

	Tool   string `json:"tool,omitempty"`
	Class  *int   `json:"class,omitempty"`
	Select *int   `json:"select,omitempty"`
}

type sessionEventResult struct {
	sessionView
	Outcome    tool.Outcome           `json:"outcome"`
	Warning    string                 `json:"warning,omitempty"`
	Annotation *annotation.Annotation `json:"annotation,omitempty"`
}

func (s *Server) handleSessionEvent(args json.RawMessage) (interface{}, error) {
	var a sessionEventArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	es, err := s.session(a.Session)
	if err != nil {
		return nil, err
	}

	if a.Tool != "" {
		k, err := tool.ParseKind(a.Tool)
		if err != nil {
			return nil, err
		}
		es.edit.SetTool(k)
	}
	if a.Class != nil {
		es.edit.SetClass(*a.Class)
	}
	if a.Select != nil {
		if err := es.edit.Select(*a.Select); err != nil {
			return nil, err
		}
	}

	out := tool.Outcome{Result: tool.None, Index: -1}
	if a.Gesture != "" {
		g, err := tool.ParseGesture(a.Gesture)
		if err != nil {
			return nil, err
		}
		out = es.edit.Handle(tool.Event{Gesture: g, X: a.X, Y: a.Y})
	}

	res := sessionEventResult{sessionView: es.view(), Outcome: out}
	if out.Warning != nil {
		res.Warning = out.Warning.Error()
	}
	list := es.edit.Image().Annotations
	if out.Result != tool.Deleted && out.Index >= 0 && out.Index < len(list) {
		ann := list[out.Index].Clone()
		res.Annotation = &ann
	}
	return res, nil
}

type sessionViewportArgs struct {
	Session string `json:"session"`

	// PanX and PanY shift the image by viewport units.
	PanX float64 `json:"pan_x"`
	PanY float64 `json:"pan_y"`

	// Zoom multiplies the zoom factor around viewport position (AtX, AtY).
	Zoom float64 `json:"zoom"`
	AtX  float64 `json:"at_x"`
	AtY  float64 `json:"at_y"`

	DevicePixelRatio float64 `json:"device_pixel_ratio"`
	Reset            bool    `json:"reset"`
}

type sessionViewportResult struct {
	Viewport geometry.Viewport `json:"viewport"`

	// BackingWidth and BackingHeight are the device pixel size of the image
	// at the current zoom.
	BackingWidth  int `json:"backing_width"`
	BackingHeight int `json:"backing_height"`
}

func (s *Server) handleSessionViewport(args json.RawMessage) (interface{}, error) {
	var a sessionViewportArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	es, err := s.session(a.Session)
	if err != nil {
		return nil, err
	}

	v := &es.edit.Viewport
	if a.Reset {
		dpr := v.DevicePixelRatio
		*v = geometry.NewViewport()
		v.DevicePixelRatio = dpr
	}
	if a.DevicePixelRatio > 0 {
		v.DevicePixelRatio = a.DevicePixelRatio
	}
	if a.PanX != 0 || a.PanY != 0 {
		v.Pan(a.PanX, a.PanY)
	}
	if a.Zoom > 0 && a.Zoom != 1 {
		v.ZoomAt(a.Zoom, a.AtX, a.AtY)
	}

	rec := es.edit.Image()
	w, h := v.BackingSize(float64(rec.Width)*v.Zoom, float64(rec.Height)*v.Zoom)
	return sessionViewportResult{Viewport: *v, BackingWidth: w, BackingHeight: h}, nil
}

// === Annotation Handlers ===

type imageRefArgs struct {
	Project string `json:"project"`
	Image   string `json:"image"`
}

func (s *Server) handleAnnotationsList(args json.RawMessage) (interface{}, error) {
	var a imageRefArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, rec, err := s.record(a.Project, a.Image)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"image":       rec.ID,
		"width":       rec.Width,
		"height":      rec.Height,
		"annotations": rec.Annotations,
		"unsaved":     rec.Unsaved,
	}, nil
}

type hitTestArgs struct {
	Project string  `json:"project"`
	Image   string  `json:"image"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`

	// Zoom scales the grab radius of point-like shapes and handles.
	Zoom float64 `json:"zoom"`

	// Selected, when set, is tested for a handle before the annotation bodies.
	Selected *int `json:"selected,omitempty"`
}

type hitTestResult struct {
	Index      int                    `json:"index"`
	Handle     hittest.Handle         `json:"handle,omitempty"`
	Vertex     *int                   `json:"vertex,omitempty"`
	Annotation *annotation.Annotation `json:"annotation,omitempty"`
}

func (s *Server) handleAnnotationHitTest(args json.RawMessage) (interface{}, error) {
	var a hitTestArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	_, rec, err := s.record(a.Project, a.Image)
	if err != nil {
		return nil, err
	}

	v := geometry.NewViewport()
	if a.Zoom > 0 {
		v.Zoom = a.Zoom
	}
	p := geometry.Pt(a.X, a.Y)
	opts := s.cfg.HitOptions()

	res := hitTestResult{Index: -1}
	if a.Selected != nil && *a.Selected >= 0 && *a.Selected < len(rec.Annotations) {
		if hit, ok := hittest.HandleAt(rec.Annotations[*a.Selected], p, v, opts); ok {
			res.Index = *a.Selected
			res.Handle = hit.Handle
			if hit.Handle == hittest.HandleVertex {
				idx := hit.Index
				res.Vertex = &idx
			}
		}
	}
	if res.Index < 0 {
		res.Index = hittest.TopmostAt(rec.Annotations, p, v, opts)
	}
	if res.Index >= 0 {
		ann := rec.Annotations[res.Index].Clone()
		res.Annotation = &ann
	}
	return res, nil
}

type annotationCropArgs struct {
	Project string  `json:"project"`
	Image   string  `json:"image"`
	Index   int     `json:"index"`
	Padding int     `json:"padding"`
	Scale   float64 `json:"scale"`
}

func (s *Server) handleAnnotationCrop(args json.RawMessage) (interface{}, error) {
	var a annotationCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Scale == 0 {
		a.Scale = 1.0
	}
	if a.Padding < 0 {
		a.Padding = 0
	}
	p, rec, err := s.record(a.Project, a.Image)
	if err != nil {
		return nil, err
	}
	if a.Index < 0 || a.Index >= len(rec.Annotations) {
		return nil, fmt.Errorf("annotation index %d out of range", a.Index)
	}
	img, err := s.source(p, rec)
	if err != nil {
		return nil, err
	}
	return imaging.CropAnnotation(img, rec.Annotations[a.Index], a.Padding, a.Scale)
}

type maskToPolygonArgs struct {
	Path string `json:"path"`

	// Threshold selects luminance masks: pixels at or above it are foreground.
	// Without it the alpha channel is used.
	Threshold *int `json:"threshold,omitempty"`

	Tolerance *float64 `json:"tolerance,omitempty"`
	MaxPoints int      `json:"max_points,omitempty"`

	// Project, Image and Class append the polygon to an open polygon project.
	Project string `json:"project,omitempty"`
	Image   string `json:"image,omitempty"`
	Class   int    `json:"class,omitempty"`
}

type maskToPolygonResult struct {
	Points     []geometry.Point `json:"points"`
	Count      int              `json:"count"`
	Foreground int              `json:"foreground_pixels"`
	Truncated  bool             `json:"truncated"`
	Index      *int             `json:"index,omitempty"`
}

func (s *Server) handleMaskToPolygon(args json.RawMessage) (interface{}, error) {
	var a maskToPolygonArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	var mask *annotation.Mask
	if a.Threshold != nil {
		if *a.Threshold < 0 || *a.Threshold > 255 {
			return nil, fmt.Errorf("threshold must be within [0, 255], got %d", *a.Threshold)
		}
		mask = annotation.MaskFromLuminance(img, uint8(*a.Threshold))
	} else {
		mask = annotation.MaskFromImage(img)
	}

	opts := s.cfg.ContourOptions()
	if a.Tolerance != nil {
		opts.Tolerance = *a.Tolerance
	}
	if a.MaxPoints > 0 {
		opts.MaxPoints = a.MaxPoints
	}
	traced := contour.MaskToPolygon(mask, opts)

	res := maskToPolygonResult{
		Points:     traced.Points,
		Count:      len(traced.Points),
		Foreground: mask.Count(),
		Truncated:  traced.Truncated,
	}
	if res.Points == nil {
		res.Points = []geometry.Point{}
	}
	if a.Project == "" {
		return res, nil
	}

	p, rec, err := s.record(a.Project, a.Image)
	if err != nil {
		return nil, err
	}
	if p.Type != annotation.TypePolygon {
		return nil, fmt.Errorf("project %q holds %s annotations, not polygons", p.Name, p.Type)
	}
	if mask.Width != rec.Width || mask.Height != rec.Height {
		return nil, fmt.Errorf("%w: mask is %dx%d, image %q is %dx%d",
			annotation.ErrMalformedRaster, mask.Width, mask.Height, rec.ID, rec.Width, rec.Height)
	}
	ann, err := annotation.Create(annotation.TypePolygon, a.Class, &annotation.Polygon{Points: traced.Points})
	if err != nil {
		return nil, err
	}
	rec.Annotations = append(rec.Annotations, ann)
	rec.Unsaved = true
	idx := len(rec.Annotations) - 1
	res.Index = &idx
	return res, nil
}

// === Output Handlers ===

type renderOverlayArgs struct {
	Project   string `json:"project"`
	Image     string `json:"image"`
	Selected  *int   `json:"selected,omitempty"`
	Labels    *bool  `json:"labels,omitempty"`
	FillAlpha *int   `json:"fill_alpha,omitempty"`
}

type renderOverlayResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

func (s *Server) handleRenderOverlay(args json.RawMessage) (interface{}, error) {
	var a renderOverlayArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	p, rec, err := s.record(a.Project, a.Image)
	if err != nil {
		return nil, err
	}

	opts := render.DefaultOptions()
	opts.Skeleton = p.Skeleton
	if a.Selected != nil {
		opts.Selected = *a.Selected
	}
	if a.Labels != nil {
		opts.Labels = *a.Labels
	}
	if a.FillAlpha != nil {
		opts.FillAlpha = uint8(max(0, min(255, *a.FillAlpha)))
	}

	base, err := s.source(p, rec)
	if err != nil {
		s.log.Warn().Err(err).Str("image", rec.ID).Msg("Rendering onto a blank canvas")
		base = nil
	}
	out := render.Overlay(base, rec, p.Classes, opts)
	data, err := render.EncodePNG(out)
	if err != nil {
		return nil, err
	}
	return renderOverlayResult{
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    "image/png",
	}, nil
}

type exportDatasetArgs struct {
	Project string `json:"project"`
	Format  string `json:"format"`

	// Output is a directory, or a zip archive when it ends in .zip.
	Output string `json:"output"`

	TrainRatio *float64 `json:"train_ratio,omitempty"`
	CopyImages *bool    `json:"copy_images,omitempty"`
	Workers    int      `json:"workers,omitempty"`
}

func (s *Server) handleExportDataset(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a exportDatasetArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Output == "" {
		return nil, fmt.Errorf("output is required")
	}
	f, err := export.ParseFormat(a.Format)
	if err != nil {
		return nil, err
	}
	p, err := s.project(a.Project)
	if err != nil {
		return nil, err
	}
	if err := export.Check(f, p.Type); err != nil {
		return nil, err
	}

	opts := s.cfg.ExportOptions()
	if a.TrainRatio != nil {
		opts.TrainRatio = *a.TrainRatio
	}
	if a.CopyImages != nil {
		opts.CopyImages = *a.CopyImages
	}
	if a.Workers > 0 {
		opts.Workers = a.Workers
	}

	b, err := export.OpenBundle(a.Output)
	if err != nil {
		return nil, err
	}
	report, err := export.New(opts, s.log).Run(ctx, f, p, b)
	if cerr := b.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("failed to finish %s: %w", a.Output, cerr)
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}
