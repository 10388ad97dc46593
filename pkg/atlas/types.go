package atlas

import (
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
)

// Types shared with the managers, so hosts outside this module can write
// backends and event handlers.
type (
	Event    = event.Event
	Handler  = event.Handler
	Handle   = event.Handle
	Vertex   = geo.Vertex
	Backend  = render.Backend
	Recorder = render.Recorder

	Primitive = render.Primitive
	Overlay   = render.Overlay
	Style     = render.Style
	Colour    = render.Colour
)

// NewRecorder returns a backend that keeps what it is asked to draw, for
// tests and headless hosts.
func NewRecorder() *Recorder { return render.NewRecorder() }

// RGB returns an opaque colour.
func RGB(r, g, b uint8) Colour { return render.RGB(r, g, b) }
