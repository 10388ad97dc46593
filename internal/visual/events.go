package visual

import (
	"strconv"
	"time"

	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/render"
)

// External events.
const (
	EventAdd           = "projection/add"
	EventRender        = "projection/render"
	EventUnrender      = "projection/unrender"
	EventRemove        = "projection/remove"
	EventRemoveAll     = "projection/remove/all"
	EventDynamicAdd    = "projection/dynamic/add"
	EventDynamicRemove = "projection/dynamic/remove"
	EventDynamicStart  = "projection/dynamic/start"
	EventDynamicPause  = "projection/dynamic/pause"
	EventDynamicStop   = "projection/dynamic/stop"
)

// Internal events.
const (
	EventRenderComplete   = "projection/render/complete"
	EventUnrenderComplete = "projection/unrender/complete"
)

// ProjectionArgs describes a projection. Artifact selects the kind:
// "colour" uses Low and High, "height" uses Scale.
type ProjectionArgs struct {
	ID       string             `json:"id"`
	Artifact Artifact           `json:"artifact"`
	Values   map[string]float64 `json:"values"`
	Low      *render.Colour     `json:"low,omitempty"`
	High     *render.Colour     `json:"high,omitempty"`
	Scale    float64            `json:"scale,omitempty"`

	// Render applies the projection as soon as it is added.
	Render bool `json:"render,omitempty"`
}

// ArtifactArgs names an artifact. Internal events also carry the projection
// ID.
type ArtifactArgs struct {
	Artifact Artifact `json:"artifact"`
	ID       string   `json:"id,omitempty"`
}

// DynamicArgs describes a dynamic projection. Each entry of Frames holds the
// values of one frame; the other fields apply to every frame.
type DynamicArgs struct {
	ID       string               `json:"id"`
	Artifact Artifact             `json:"artifact"`
	Frames   []map[string]float64 `json:"frames"`
	Low      *render.Colour       `json:"low,omitempty"`
	High     *render.Colour       `json:"high,omitempty"`
	Scale    float64              `json:"scale,omitempty"`
	Interval int                  `json:"intervalMs,omitempty"`
	Loop     bool                 `json:"loop,omitempty"`
}

// DynamicIDArgs names a dynamic projection.
type DynamicIDArgs struct {
	ID string `json:"id"`
}

// Build creates the projection args describe.
func Build(args ProjectionArgs) (Projection, error) {
	if args.ID == "" {
		return nil, apperror.Developer("visual.Build", "projection needs an id")
	}
	switch args.Artifact {
	case ArtifactColour:
		low, high := DefaultLow, DefaultHigh
		if args.Low != nil {
			low = *args.Low
		}
		if args.High != nil {
			high = *args.High
		}
		return NewColourProjection(args.ID, args.Values, low, high), nil
	case ArtifactHeight:
		return NewHeightProjection(args.ID, args.Values, args.Scale), nil
	default:
		return nil, apperror.Developer("visual.Build", "unknown artifact %q", args.Artifact)
	}
}

// BuildDynamic creates the dynamic projection args describe. Frame IDs are
// the dynamic ID with the frame index appended.
func BuildDynamic(args DynamicArgs) (*DynamicProjection, error) {
	frames := make([]Projection, 0, len(args.Frames))
	for i, vals := range args.Frames {
		p, err := Build(ProjectionArgs{
			ID:       args.ID + "/" + strconv.Itoa(i),
			Artifact: args.Artifact,
			Values:   vals,
			Low:      args.Low,
			High:     args.High,
			Scale:    args.Scale,
		})
		if err != nil {
			return nil, err
		}
		frames = append(frames, p)
	}
	return NewDynamicProjection(args.ID, frames, time.Duration(args.Interval)*time.Millisecond, args.Loop)
}

func on[T any](fn func(T) error) event.Handler {
	return func(ev *event.Event) error {
		args, err := event.Decode[T](ev.Args)
		if err != nil {
			return err
		}
		return fn(args)
	}
}

// BindEvents subscribes to the projection/* external events.
func (m *Manager) BindEvents() {
	if len(m.bindings) > 0 {
		return
	}
	bind := func(name string, fn event.Handler) {
		m.bindings = append(m.bindings, m.bus.AddEventHandler(event.Extern, name, fn))
	}
	bind(EventAdd, on(func(args ProjectionArgs) error {
		p, err := Build(args)
		if err != nil {
			return err
		}
		if err := m.AddProjection(p); err != nil {
			return err
		}
		if args.Render {
			return m.Render(p.Artifact())
		}
		return nil
	}))
	bind(EventRender, on(func(args ArtifactArgs) error { return m.Render(args.Artifact) }))
	bind(EventUnrender, on(func(args ArtifactArgs) error { return m.Unrender(args.Artifact) }))
	bind(EventRemove, on(func(args ArtifactArgs) error { return m.RemoveProjection(args.Artifact) }))
	bind(EventRemoveAll, func(*event.Event) error { return m.RemoveAll() })
	bind(EventDynamicAdd, on(func(args DynamicArgs) error {
		d, err := BuildDynamic(args)
		if err != nil {
			return err
		}
		return m.AddDynamic(d)
	}))
	bind(EventDynamicRemove, on(func(args DynamicIDArgs) error { return m.RemoveDynamic(args.ID) }))
	bind(EventDynamicStart, on(func(args DynamicIDArgs) error { return m.Start(args.ID) }))
	bind(EventDynamicPause, on(func(args DynamicIDArgs) error { return m.Pause(args.ID) }))
	bind(EventDynamicStop, on(func(args DynamicIDArgs) error { return m.Stop(args.ID) }))
}

// UnbindEvents cancels the subscriptions made by BindEvents.
func (m *Manager) UnbindEvents() {
	for _, h := range m.bindings {
		h.Cancel()
	}
	m.bindings = nil
}
