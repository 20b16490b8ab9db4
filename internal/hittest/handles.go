package hittest

import (
	"github.com/ironsheep/annotate-mcp/internal/annotation"
	"github.com/ironsheep/annotate-mcp/internal/geometry"
)

// Handle names a manipulation control on a shape.
type Handle string

// Handles of box-like shapes. Compass handles are named in the shape's local
// frame, so "n" is always the top edge of the unrotated box.
const (
	HandleNone   Handle = ""
	HandleRotate Handle = "rotate"
	HandleN      Handle = "n"
	HandleS      Handle = "s"
	HandleE      Handle = "e"
	HandleW      Handle = "w"
	HandleNE     Handle = "ne"
	HandleNW     Handle = "nw"
	HandleSE     Handle = "se"
	HandleSW     Handle = "sw"
	HandleVertex Handle = "vertex"
)

// resizeHandles is scanned in this order; corners win over edges where the
// radii overlap on small boxes.
var resizeHandles = []Handle{HandleNW, HandleNE, HandleSE, HandleSW, HandleN, HandleE, HandleS, HandleW}

// ResizeHandles returns the eight compass handles.
func ResizeHandles() []Handle {
	return append([]Handle(nil), resizeHandles...)
}

// Signs returns the local-frame direction of a resize handle: -1 for the
// left/top side, +1 for the right/bottom side and 0 when the axis is unaffected.
func (h Handle) Signs() (sx, sy float64) {
	switch h {
	case HandleN:
		return 0, -1
	case HandleS:
		return 0, 1
	case HandleE:
		return 1, 0
	case HandleW:
		return -1, 0
	case HandleNE:
		return 1, -1
	case HandleNW:
		return -1, -1
	case HandleSE:
		return 1, 1
	case HandleSW:
		return -1, 1
	}
	return 0, 0
}

// Resize reports whether h is one of the eight compass handles.
func (h Handle) Resize() bool {
	sx, sy := h.Signs()
	return sx != 0 || sy != 0
}

// Hit is the result of a handle test on one shape.
type Hit struct {
	Handle Handle

	// Index is the vertex or keypoint index for HandleVertex hits.
	Index int
}

// HandlePosition returns the image-space position of h on a box centred at
// (cx, cy) with the given extent and angle. rotationOffset is in image pixels.
func HandlePosition(h Handle, cx, cy, width, height, angle, rotationOffset float64) geometry.Point {
	if h == HandleRotate {
		return geometry.FromLocal(geometry.Pt(0, -height/2-rotationOffset), cx, cy, angle)
	}
	sx, sy := h.Signs()
	return geometry.FromLocal(geometry.Pt(sx*width/2, sy*height/2), cx, cy, angle)
}

// HandleAt tests p against the handles of a. Only oriented boxes have a rotation
// grip. Priority is rotation grip, then resize handles and vertices.
func HandleAt(a annotation.Annotation, p geometry.Point, v geometry.Viewport, opts Options) (Hit, bool) {
	r := opts.radius(v)

	switch d := a.Data.(type) {
	case *annotation.OBB:
		grip := HandlePosition(HandleRotate, d.CX, d.CY, d.Width, d.Height, d.Angle, opts.rotationOffset(v))
		if geometry.Distance(p, grip) <= r {
			return Hit{Handle: HandleRotate}, true
		}
		return boxHandleAt(p, d.CX, d.CY, d.Width, d.Height, d.Angle, r)

	case *annotation.BBox:
		c := d.Center()
		return boxHandleAt(p, c.X, c.Y, d.Width, d.Height, 0, r)

	case *annotation.Polygon:
		if i := VertexAt(d.Points, p, r); i >= 0 {
			return Hit{Handle: HandleVertex, Index: i}, true
		}

	case *annotation.Keypoints:
		if i := KeypointAt(d, p, r); i >= 0 {
			return Hit{Handle: HandleVertex, Index: i}, true
		}
	}
	return Hit{}, false
}

func boxHandleAt(p geometry.Point, cx, cy, w, h, angle, r float64) (Hit, bool) {
	for _, handle := range resizeHandles {
		pos := HandlePosition(handle, cx, cy, w, h, angle, 0)
		if geometry.Distance(p, pos) <= r {
			return Hit{Handle: handle}, true
		}
	}
	return Hit{}, false
}
