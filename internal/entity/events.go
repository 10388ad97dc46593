package entity

import (
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/pkg/c3ml"
)

// External events handled by the manager once BindEvents is called.
const (
	EventCreate           = "entity/create"
	EventCreateBulk       = "entity/create/bulk"
	EventShow             = "entity/show"
	EventShowBulk         = "entity/show/bulk"
	EventHide             = "entity/hide"
	EventHideBulk         = "entity/hide/bulk"
	EventRemoveBulk       = "entity/remove/bulk"
	EventDisplayMode      = "entity/display-mode"
	EventDisplayModeReset = "entity/display-mode/reset"
	EventRotate           = "entity/rotate"
)

// IDArgs addresses a single entity.
type IDArgs struct {
	ID string `json:"id"`
}

// IDsArgs addresses several entities.
type IDsArgs struct {
	IDs []string `json:"ids"`
}

// BulkArgs carries descriptors for entity/create/bulk, and either
// descriptors or IDs for entity/show/bulk.
type BulkArgs struct {
	Features []c3ml.Descriptor `json:"features,omitempty"`
	IDs      []string          `json:"ids,omitempty"`
}

// DisplayModeArgs carries entity/display-mode.
type DisplayModeArgs struct {
	IDs         []string    `json:"ids"`
	DisplayMode DisplayMode `json:"displayMode"`
}

// RotateArgs carries entity/rotate.
type RotateArgs struct {
	IDs     []string `json:"ids"`
	Degrees float64  `json:"degrees"`
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

// BindEvents subscribes the manager to its external events. Calling it again
// does nothing until UnbindEvents.
func (m *Manager) BindEvents() {
	if len(m.bindings) > 0 {
		return
	}
	bind := func(name string, fn event.Handler) {
		m.bindings = append(m.bindings, m.bus.AddEventHandler(event.Extern, name, fn))
	}

	bind(EventCreate, on(func(d c3ml.Descriptor) error {
		_, err := m.Create(d)
		return err
	}))
	bind(EventCreateBulk, on(func(a BulkArgs) error {
		_, err := m.BulkCreate(a.Features)
		return err
	}))
	bind(EventShowBulk, on(func(a BulkArgs) error {
		if len(a.Features) == 0 {
			return m.ToggleEntityVisibility(a.IDs, true)
		}
		if _, err := m.BulkCreate(a.Features); err != nil {
			return err
		}
		ids := make([]string, 0, len(a.Features))
		for _, d := range a.Features {
			ids = append(ids, d.ID)
		}
		return m.ToggleEntityVisibility(ids, true)
	}))
	bind(EventShow, on(func(a IDArgs) error { return m.ShowEntity(a.ID) }))
	bind(EventHide, on(func(a IDArgs) error { return m.HideEntity(a.ID) }))
	bind(EventRemove, on(func(a IDArgs) error { return m.RemoveEntity(a.ID) }))
	bind(EventHideBulk, on(func(a IDsArgs) error { return m.ToggleEntityVisibility(a.IDs, false) }))
	bind(EventRemoveBulk, on(func(a IDsArgs) error {
		es, err := m.resolve("RemoveBulk", a.IDs)
		if err != nil {
			return err
		}
		for _, e := range es {
			if err := e.Remove(); err != nil {
				return err
			}
		}
		return nil
	}))
	bind(EventDisplayMode, on(func(a DisplayModeArgs) error { return m.SetDisplayMode(a.IDs, a.DisplayMode) }))
	bind(EventDisplayModeReset, on(func(a IDsArgs) error { return m.ResetDisplayMode(a.IDs) }))
	bind(EventRotate, on(func(a RotateArgs) error { return m.Rotate(a.IDs, a.Degrees) }))
}

// UnbindEvents cancels the subscriptions made by BindEvents.
func (m *Manager) UnbindEvents() {
	for _, h := range m.bindings {
		h.Cancel()
	}
	m.bindings = nil
}
