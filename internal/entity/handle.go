package entity

import (
	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
)

// HandleStyle is the appearance of editing handles.
var HandleStyle = render.Style{
	FillColour:   render.RGB(0xff, 0xff, 0xff),
	BorderColour: render.RGB(0x00, 0x00, 0x00),
	BorderWidth:  1,
}

// Handle is an interactive point bound to a vertex of its owner, or to the
// owner's centroid when its index is negative.
//
// Translating a handle writes the new position back into the owner and marks
// the owner's vertices dirty. A removed handle rejects further use with an
// error matching apperror.ErrRemoved.
type Handle struct {
	Base

	owner GeoEntity
	index int
}

// NewHandle creates a handle. With a nil target the handle sits on the
// owner's centroid and index is ignored. Either owner or target is required.
func NewHandle(env Env, owner GeoEntity, target *geo.Vertex, index int) (*Handle, error) {
	if owner == nil && target == nil {
		return nil, apperror.Developer("NewHandle", "handle needs an owner or a target")
	}
	h := &Handle{owner: owner, index: index}
	h.init(h, "", TypeHandle, env)
	h.style = HandleStyle

	switch {
	case target != nil:
		h.vertices = []geo.Vertex{*target}
	default:
		h.vertices = []geo.Vertex{owner.Centroid()}
		h.index = -1
	}
	if owner == nil {
		h.index = -1
	}
	h.build = func() error {
		h.env.Backend.Draw(h.primitive(render.KindHandle))
		return nil
	}
	return h, nil
}

// Owner returns the entity the handle edits, or nil.
func (h *Handle) Owner() GeoEntity { return h.owner }

// Index returns the owner vertex index, or -1 for a centroid handle.
func (h *Handle) Index() int { return h.index }

// Target returns the handle position.
func (h *Handle) Target() geo.Vertex {
	if len(h.vertices) == 0 {
		return geo.Vertex{}
	}
	return h.vertices[0]
}

// Parent returns the owner.
func (h *Handle) Parent() GeoEntity {
	return h.owner
}

// Translate moves the handle by d and writes the result back into the owner.
func (h *Handle) Translate(d geo.Vertex) error {
	if h.removed {
		return apperror.Removed("Handle.Translate", "handle "+h.id)
	}
	before := h.Target()
	after := before.Translate(d)
	if after.Equals(before) {
		return nil
	}

	h.setTarget(after)
	if h.owner == nil {
		return nil
	}
	if h.index >= 0 {
		return h.owner.MoveVertex(h.index, after)
	}
	return h.owner.Translate(d)
}

// Scale is not supported by handles.
func (h *Handle) Scale(float64) error {
	return apperror.Developer("Handle.Scale", "handles cannot be scaled")
}

// Rotate is not supported by handles.
func (h *Handle) Rotate(float64) error {
	return apperror.Developer("Handle.Rotate", "handles cannot be rotated")
}

// MoveVertex moves the handle to v. Only index 0 exists.
func (h *Handle) MoveVertex(i int, v geo.Vertex) error {
	if h.removed {
		return apperror.Removed("Handle.MoveVertex", "handle "+h.id)
	}
	if i != 0 {
		return apperror.Developer("Handle.MoveVertex", "handle has a single vertex, got index %d", i)
	}
	return h.Translate(v.Sub(h.Target()))
}

// CreateHandles is not supported by handles.
func (h *Handle) CreateHandles() ([]*Handle, error) {
	return nil, apperror.Developer("Handle.CreateHandles", "handles cannot have handles")
}

// Show draws the handle marker.
func (h *Handle) Show() error {
	if h.removed {
		return apperror.Removed("Handle.Show", "handle "+h.id)
	}
	return h.Base.Show()
}

// Remove erases the marker and drops the owner reference. Any later use of
// the handle returns an error.
func (h *Handle) Remove() error {
	if h.removed {
		return nil
	}
	h.Hide()
	h.env.Backend.Erase(h.id)
	h.owner = nil
	h.vertices = nil
	h.removed = true
	h.RemoveEventListeners()
	return nil
}

// setTarget moves the marker without touching the owner.
func (h *Handle) setTarget(v geo.Vertex) {
	if len(h.vertices) == 0 || h.vertices[0].Equals(v) {
		return
	}
	h.vertices[0] = v
	h.centroid = nil
	h.SetDirty(ComponentVertices)
	h.refresh()
}
