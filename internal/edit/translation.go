package edit

import (
	"github.com/beetlebugorg/atlas/internal/entity"
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/input"
)

// ModuleTranslation is the name the translation module is registered under.
const ModuleTranslation = "translation"

// EventTranslateComplete is dispatched on an entity after a drag ends.
const EventTranslateComplete = "entity/translate/complete"

// TranslateArgs is the payload of EventTranslateComplete.
type TranslateArgs struct {
	ID    string     `json:"id"`
	Delta geo.Vertex `json:"delta"`
}

// Translation drags handles and entities with the left mouse button. A
// handle under the cursor wins over the entity beneath it.
type Translation struct {
	m *Manager

	handle *entity.Handle
	target entity.GeoEntity
	start  geo.Vertex
	last   geo.Vertex
}

// NewTranslation creates the translation module for m.
func NewTranslation(m *Manager) *Translation {
	return &Translation{m: m}
}

// Bindings implements Module.
func (t *Translation) Bindings() []Binding {
	return []Binding{
		{Source: event.Intern, Name: input.EventLeftDown, Handler: t.onDown},
		{Source: event.Intern, Name: input.EventMouseMove, Handler: t.onMove},
		{Source: event.Intern, Name: input.EventLeftUp, Handler: t.onUp},
	}
}

// Dragging reports whether a drag is in progress.
func (t *Translation) Dragging() bool {
	return t.handle != nil || t.target != nil
}

func (t *Translation) onDown(ev *event.Event) error {
	args, err := event.Decode[input.PointerArgs](ev.Args)
	if err != nil {
		return err
	}
	t.reset()
	if h := t.m.HandleAt(args.Position, 0); h != nil {
		t.handle = h
	} else if e := t.m.editable(args.Position); e != nil {
		t.target = e
	} else {
		return nil
	}
	t.start, t.last = args.Position, args.Position
	return nil
}

func (t *Translation) onMove(ev *event.Event) error {
	if !t.Dragging() {
		return nil
	}
	args, err := event.Decode[input.PointerArgs](ev.Args)
	if err != nil {
		return err
	}
	delta := args.Position.Sub(t.last)
	t.last = args.Position
	if delta.IsZero() {
		return nil
	}
	if t.handle != nil {
		return t.handle.Translate(delta)
	}
	return t.target.Translate(delta)
}

func (t *Translation) onUp(ev *event.Event) error {
	if !t.Dragging() {
		return nil
	}
	target := t.target
	if t.handle != nil {
		target = t.handle.Owner()
	}
	delta := t.last.Sub(t.start)
	t.reset()
	if target == nil || target.IsRemoved() || delta.IsZero() {
		return nil
	}
	// Forms report the drag on their feature.
	if f, ok := target.Parent().(*entity.Feature); ok {
		target = f
	}
	return t.m.bus.DispatchEvent(event.New(event.Intern, EventTranslateComplete, TranslateArgs{ID: target.ID(), Delta: delta}, target))
}

func (t *Translation) reset() {
	t.handle = nil
	t.target = nil
}
