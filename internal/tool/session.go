package tool

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
	"github.com/ironsheep/annotate-mcp/internal/hittest"
)

// Options holds the tunable thresholds of the interaction tools. Radii are in
// screen pixels; sizes are in image pixels.
type Options struct {
	Hit hittest.Options

	// SnapRadius closes a polygon when a click lands this close to its first
	// vertex.
	SnapRadius float64

	MinBoxSize       float64
	MinOBBSize       float64
	MinPolygonPoints int
}

// DefaultOptions returns the standard thresholds.
func DefaultOptions() Options {
	return Options{
		Hit:              hittest.DefaultOptions(),
		SnapRadius:       10,
		MinBoxSize:       5,
		MinOBBSize:       annotation.MinOBBSize,
		MinPolygonPoints: annotation.MinPolygonPoints,
	}
}

// env is the read-mostly context a transition runs in. Transitions edit the
// annotation list through it and return everything else in State.
type env struct {
	image         *annotation.ImageRecord
	classID       int
	keypointCount int
	viewport      geometry.Viewport
	opts          Options
}

func (e *env) radius() float64 {
	r := e.opts.Hit.HandleRadius
	if r <= 0 {
		r = hittest.DefaultHandleRadius
	}
	return e.viewport.Scale(r)
}

func (e *env) valid(i int) bool {
	return i >= 0 && i < len(e.image.Annotations)
}

// transition computes the next state for a gesture at image point p.
type transition func(State, *env, geometry.Point) (State, Outcome)

type key struct {
	tool    Kind
	gesture Gesture
}

// Event is a gesture at a viewport position.
type Event struct {
	Gesture Gesture `json:"gesture"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// Session applies gestures to one image's annotation list.
type Session struct {
	Viewport geometry.Viewport

	tool  Kind
	state State
	env   env
	log   zerolog.Logger
}

// NewSession opens an editing session on img with the given tool.
func NewSession(img *annotation.ImageRecord, k Kind, opts Options, log zerolog.Logger) *Session {
	return &Session{
		Viewport: geometry.NewViewport(),
		tool:     k,
		state:    IdleState(),
		env:      env{image: img, opts: opts},
		log:      log.With().Str("image", img.ID).Logger(),
	}
}

// Tool returns the active tool.
func (s *Session) Tool() Kind { return s.tool }

// SetTool switches tools. Any shape in progress is discarded.
func (s *Session) SetTool(k Kind) {
	if k == s.tool {
		return
	}
	s.tool = k
	s.state = IdleState()
}

// SetClass sets the class assigned to new annotations.
func (s *Session) SetClass(id int) { s.env.classID = id }

// Class returns the class assigned to new annotations.
func (s *Session) Class() int { return s.env.classID }

// SetKeypointCount sets the number of slots the keypoints tool fills.
func (s *Session) SetKeypointCount(n int) { s.env.keypointCount = n }

// Image returns the record being edited.
func (s *Session) Image() *annotation.ImageRecord { return s.env.image }

// State returns a copy of the interaction state.
func (s *Session) State() State { return s.state }

// Handle applies ev and returns its outcome. Any change to the annotation list
// marks the image unsaved.
func (s *Session) Handle(ev Event) Outcome {
	fn, ok := transitions[key{s.tool, ev.Gesture}]
	if !ok {
		return nothing()
	}

	s.env.viewport = s.Viewport
	p := s.Viewport.ToImage(ev.X, ev.Y)

	next, out := fn(s.state, &s.env, p)
	s.state = next

	if out.Changed() {
		s.env.image.Unsaved = true
	}

	switch {
	case out.Warning != nil:
		s.log.Warn().Err(out.Warning).Str("tool", string(s.tool)).Str("gesture", string(ev.Gesture)).Msg("Gesture refused")
	case out.Result != None:
		s.log.Debug().
			Str("tool", string(s.tool)).
			Str("gesture", string(ev.Gesture)).
			Str("result", string(out.Result)).
			Int("index", out.Index).
			Str("phase", string(next.Phase)).
			Msg("Gesture applied")
	}
	return out
}

// Select selects the annotation at index i, as if it had been clicked with the
// select tool.
func (s *Session) Select(i int) error {
	if !s.env.valid(i) {
		return fmt.Errorf("annotation index %d out of range", i)
	}
	s.tool = Select
	s.state = IdleState()
	s.state.Phase = Selected
	s.state.Selection = i
	return nil
}
