package tool

import (
	"fmt"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
	"github.com/ironsheep/annotate-mcp/internal/hittest"
)

// Kind names an interaction tool.
type Kind string

// Tools.
const (
	BBox      Kind = "bbox"
	OBB       Kind = "obb"
	Polygon   Kind = "polygon"
	Point     Kind = "point"
	Landmark  Kind = "landmark"
	Range     Kind = "range"
	Keypoints Kind = "keypoints"
	Select    Kind = "select"
)

// Kinds lists every tool.
var Kinds = []Kind{BBox, OBB, Polygon, Point, Landmark, Range, Keypoints, Select}

// ParseKind converts a tool name into a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown tool: %q", s)
}

// Gesture is a pointer or keyboard action.
type Gesture string

// Gestures.
const (
	Press        Gesture = "press"
	Move         Gesture = "move"
	Release      Gesture = "release"
	Close        Gesture = "close"
	Cancel       Gesture = "cancel"
	Delete       Gesture = "delete"
	InsertVertex Gesture = "insert-vertex"
	DeleteVertex Gesture = "delete-vertex"
)

// ParseGesture converts a gesture name into a Gesture.
func ParseGesture(s string) (Gesture, error) {
	switch g := Gesture(s); g {
	case Press, Move, Release, Close, Cancel, Delete, InsertVertex, DeleteVertex:
		return g, nil
	}
	return "", fmt.Errorf("unknown gesture: %q", s)
}

// Phase is the coarse interaction state.
type Phase string

// Phases.
const (
	Idle     Phase = "idle"
	Drawing  Phase = "drawing"
	Selected Phase = "selected"
	Dragging Phase = "dragging"
	Resizing Phase = "resizing"
	Rotating Phase = "rotating"
)

// State is the complete interaction state threaded through transitions.
type State struct {
	Phase Phase `json:"phase"`

	// Anchor and Current are the press and latest pointer positions of a box
	// or range being drawn.
	Anchor  geometry.Point `json:"anchor"`
	Current geometry.Point `json:"current"`

	// Points holds the vertices of a polygon being drawn.
	Points []geometry.Point `json:"points,omitempty"`

	// Placed holds the keypoints placed so far.
	Placed []annotation.Keypoint `json:"placed,omitempty"`

	// Selection is the index of the selected annotation, or -1.
	Selection int `json:"selection"`

	// Handle and Vertex identify what a resize gesture grabbed.
	Handle hittest.Handle `json:"handle,omitempty"`
	Vertex int            `json:"vertex"`

	// GrabOffset is the press point minus the shape's anchor at drag start.
	GrabOffset geometry.Point `json:"grabOffset"`

	// StartAngle is the pointer angle around the shape centre at rotation start.
	StartAngle float64 `json:"startAngle"`

	// Origin is a copy of the selected shape taken at gesture start.
	Origin annotation.Geometry `json:"-"`
}

// IdleState returns the initial state.
func IdleState() State {
	return State{Phase: Idle, Selection: -1, Vertex: -1}
}

// Result classifies what a transition did.
type Result string

// Results. Committed, Mutated and Deleted change the annotation list.
const (
	None       Result = "none"
	Committed  Result = "committed"
	Discarded  Result = "discarded"
	Mutated    Result = "mutated"
	Deleted    Result = "deleted"
	Picked     Result = "selected"
	Deselected Result = "deselected"
	Refused    Result = "refused"
)

// Outcome reports the effect of one gesture.
type Outcome struct {
	Result Result `json:"result"`

	// Index is the annotation affected, or -1.
	Index int `json:"index"`

	// Warning is set when an operation was refused. It wraps
	// annotation.ErrInvalidGeometry for invariant violations.
	Warning error `json:"-"`
}

// Changed reports whether the outcome modified the annotation list.
func (o Outcome) Changed() bool {
	return o.Result == Committed || o.Result == Mutated || o.Result == Deleted
}

func nothing() Outcome { return Outcome{Result: None, Index: -1} }

func refuse(err error) Outcome { return Outcome{Result: Refused, Index: -1, Warning: err} }
