package edit

import (
	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/internal/entity"
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/input"
	"github.com/beetlebugorg/atlas/pkg/c3ml"
)

// ModuleDraw is the name the draw module is registered under.
const ModuleDraw = "draw"

// Draw events.
const (
	EventDraw         = "entity/draw"
	EventDrawAbort    = "entity/draw/abort"
	EventDrawComplete = "entity/draw/complete"
)

// DrawArgs starts a drawing. Type is polygon or line; polygon when empty.
type DrawArgs struct {
	ID     string  `json:"id,omitempty"`
	Type   string  `json:"type,omitempty"`
	Color  []int   `json:"color,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// DrawCompleteArgs is the payload of EventDrawComplete.
type DrawCompleteArgs struct {
	ID string `json:"id"`
}

// Draw builds a polygon or line from clicks. Each click adds a vertex and a
// marker, a double click finishes and creates the feature, Escape aborts.
type Draw struct {
	m *Manager

	args    DrawArgs
	points  []geo.Vertex
	markers []*entity.Handle
	drawing bool
	restore bool
}

// NewDraw creates the draw module for m.
func NewDraw(m *Manager) *Draw {
	return &Draw{m: m}
}

// Bindings implements Module.
func (d *Draw) Bindings() []Binding {
	return []Binding{
		{Source: event.Extern, Name: EventDraw, Handler: d.onStart, Persistent: true},
		{Source: event.Extern, Name: EventDrawAbort, Handler: d.onAbort, Persistent: true},
		{Source: event.Intern, Name: input.EventLeftClick, Handler: d.onClick},
		{Source: event.Intern, Name: input.EventLeftDblClick, Handler: d.onDoubleClick},
		{Source: event.Intern, Name: input.EventKeyUp, Handler: d.onKey},
	}
}

// Drawing reports whether a drawing is in progress.
func (d *Draw) Drawing() bool { return d.drawing }

// Points returns the vertices placed so far.
func (d *Draw) Points() []geo.Vertex { return geo.Clone(d.points) }

// Start begins a drawing. A drawing already in progress is discarded.
func (d *Draw) Start(args DrawArgs) error {
	switch c3ml.Type(args.Type) {
	case "":
		args.Type = string(c3ml.TypePolygon)
	case c3ml.TypePolygon, c3ml.TypeLine:
	default:
		return apperror.Developer("Draw.Start", "cannot draw %q", args.Type)
	}
	if args.ID != "" && d.m.entities.Has(args.ID) {
		return apperror.Duplicate("entity", args.ID)
	}
	if err := d.Abort(); err != nil {
		return err
	}
	if d.m.IsEnabled() {
		if err := d.m.Disable(); err != nil {
			return err
		}
	}
	if sel := d.m.selection; sel != nil {
		d.restore = sel.IsEnabled()
		if err := sel.SetEnabled(false); err != nil {
			return err
		}
	}
	d.args = args
	d.drawing = true
	return d.m.EnableModule(ModuleDraw)
}

// Abort discards the drawing.
func (d *Draw) Abort() error {
	if !d.drawing {
		return nil
	}
	return d.finish()
}

func (d *Draw) finish() error {
	for _, h := range d.markers {
		h.Remove()
	}
	d.markers = nil
	d.points = nil
	d.drawing = false
	if err := d.m.DisableModule(ModuleDraw); err != nil {
		return err
	}
	if d.restore && d.m.selection != nil {
		d.restore = false
		return d.m.selection.SetEnabled(true)
	}
	return nil
}

// Complete creates the drawn feature and ends the drawing. With too few
// vertices it returns nil and the drawing goes on.
func (d *Draw) Complete() (entity.GeoEntity, error) {
	if !d.drawing {
		return nil, apperror.Developer("Draw.Complete", "no drawing in progress")
	}
	need := 3
	if d.args.Type == string(c3ml.TypeLine) {
		need = 2
	}
	if len(d.points) < need {
		return nil, nil
	}

	coords := make([][]float64, 0, len(d.points))
	for _, p := range d.points {
		coords = append(coords, []float64{p.Longitude, p.Latitude})
	}
	e, err := d.m.entities.Create(c3ml.Descriptor{
		ID:          d.args.ID,
		Type:        c3ml.Type(d.args.Type),
		Coordinates: coords,
		Color:       d.args.Color,
		Height:      d.args.Height,
		Show:        true,
	})
	if err != nil {
		return nil, err
	}
	if err := d.finish(); err != nil {
		return nil, err
	}
	return e, d.m.bus.DispatchEvent(event.New(event.Intern, EventDrawComplete, DrawCompleteArgs{ID: e.ID()}, e))
}

func (d *Draw) onStart(ev *event.Event) error {
	args, err := event.Decode[DrawArgs](ev.Args)
	if err != nil {
		return err
	}
	return d.Start(args)
}

func (d *Draw) onAbort(*event.Event) error {
	return d.Abort()
}

func (d *Draw) onClick(ev *event.Event) error {
	if !d.drawing {
		return nil
	}
	args, err := event.Decode[input.PointerArgs](ev.Args)
	if err != nil {
		return err
	}
	p := args.Position
	if n := len(d.points); n > 0 && d.points[n-1].Equals(p) {
		return nil
	}
	env := d.m.entities.Env()
	env.Registry = nil
	h, err := entity.NewHandle(env, nil, &p, -1)
	if err != nil {
		return err
	}
	if err := h.Show(); err != nil {
		return err
	}
	d.points = append(d.points, p)
	d.markers = append(d.markers, h)
	return nil
}

func (d *Draw) onDoubleClick(*event.Event) error {
	if !d.drawing {
		return nil
	}
	_, err := d.Complete()
	return err
}

func (d *Draw) onKey(ev *event.Event) error {
	if !d.drawing {
		return nil
	}
	args, err := event.Decode[input.KeyArgs](ev.Args)
	if err != nil {
		return err
	}
	if args.Key == "Escape" {
		return d.Abort()
	}
	return nil
}
