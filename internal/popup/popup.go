// Package popup shows text boxes anchored on the map, either on request or
// for each selected entity.
package popup

import (
	"fmt"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/internal/entity"
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
	"github.com/beetlebugorg/atlas/internal/store"
)

// External events.
const (
	EventCreate      = "popup/create"
	EventDelete      = "popup/delete"
	EventCurrent     = "popup/current"
	EventOnSelection = "popup/onSelection"
)

// Popup is a text box anchored at a position.
type Popup struct {
	id       string
	Anchor   geo.Vertex
	Title    string
	Lines    []string
	EntityID string
}

// ID implements store.Item.
func (p *Popup) ID() string { return p.id }

func (p *Popup) overlay() render.Overlay {
	return render.Overlay{ID: p.id, Anchor: p.Anchor, Title: p.Title, Lines: slices.Clone(p.Lines)}
}

// Args describes a popup. Without an anchor the popup sits on the centroid
// of EntityID.
type Args struct {
	ID       string      `json:"id,omitempty"`
	Title    string      `json:"title,omitempty"`
	Lines    []string    `json:"lines,omitempty"`
	Anchor   *geo.Vertex `json:"anchor,omitempty"`
	EntityID string      `json:"entityId,omitempty"`
}

// IDArgs names a popup.
type IDArgs struct {
	ID string `json:"id"`
}

// CurrentArgs receives the current popup, or nil.
type CurrentArgs struct {
	Callback func(*Popup) `json:"-"`
}

// EnabledArgs toggles popups on selection.
type EnabledArgs struct {
	Enabled bool `json:"enabled"`
}

// Manager owns the popups of one Atlas instance.
type Manager struct {
	entities *entity.Manager
	bus      *event.Manager
	backend  render.Backend

	popups      *store.Store[*Popup]
	onSelection bool
	bindings    []*event.Handle
	selection   []*event.Handle
}

// NewManager creates a popup manager drawing through the entity manager's
// backend.
func NewManager(entities *entity.Manager) *Manager {
	return &Manager{
		entities: entities,
		bus:      entities.Bus(),
		backend:  entities.Env().Backend,
		popups:   store.New[*Popup](),
	}
}

// EntityManager returns the entity registry the manager works on.
func (m *Manager) EntityManager() *entity.Manager { return m.entities }

// Create shows a popup and returns its ID.
func (m *Manager) Create(args Args) (string, error) {
	p := &Popup{id: args.ID, Title: args.Title, Lines: slices.Clone(args.Lines), EntityID: args.EntityID}
	if p.id == "" {
		p.id = uuid.NewString()
	}
	switch {
	case args.Anchor != nil:
		p.Anchor = *args.Anchor
	case args.EntityID != "":
		e, err := m.entities.GetByID(args.EntityID)
		if err != nil {
			return "", err
		}
		p.Anchor = e.Centroid()
	default:
		return "", apperror.Developer("popup.Create", "popup needs an anchor or an entity")
	}
	if !m.popups.Add(p) {
		return "", apperror.Duplicate("popup", p.id)
	}
	m.backend.ShowOverlay(p.overlay())
	return p.id, nil
}

// Delete removes a popup.
func (m *Manager) Delete(id string) error {
	if _, ok := m.popups.Remove(id); !ok {
		return apperror.NotFound("popup", id)
	}
	m.backend.RemoveOverlay(id)
	return nil
}

// Redraw shows every popup again, e.g. after a new backend was attached.
func (m *Manager) Redraw() {
	m.popups.ForEach(func(p *Popup) {
		m.backend.ShowOverlay(p.overlay())
	})
}

// Get returns a popup.
func (m *Manager) Get(id string) (*Popup, bool) { return m.popups.Get(id) }

// Popups returns the popups in creation order.
func (m *Manager) Popups() []*Popup { return m.popups.Items() }

// Current returns the most recently created popup, or nil.
func (m *Manager) Current() *Popup {
	items := m.popups.Items()
	if len(items) == 0 {
		return nil
	}
	return items[len(items)-1]
}

// SetOnSelection turns popups for selected entities on or off. Turning it
// off closes those popups.
func (m *Manager) SetOnSelection(enabled bool) {
	if enabled == m.onSelection {
		return
	}
	m.onSelection = enabled
	if enabled {
		m.selection = []*event.Handle{
			m.bus.AddEventHandler(event.Intern, entity.EventSelect, m.onSelect),
			m.bus.AddEventHandler(event.Intern, entity.EventDeselect, m.onDeselect),
		}
		return
	}
	for _, h := range m.selection {
		h.Cancel()
	}
	m.selection = nil
	for _, p := range m.popups.Filter(func(p *Popup) bool { return p.id == selectionID(p.EntityID) }) {
		m.Delete(p.id)
	}
}

// OnSelection reports whether selected entities get a popup.
func (m *Manager) OnSelection() bool { return m.onSelection }

func selectionID(entityID string) string { return "selection:" + entityID }

func (m *Manager) onSelect(ev *event.Event) error {
	e, ok := ev.Target.(entity.GeoEntity)
	if !ok {
		return nil
	}
	id := selectionID(e.ID())
	if m.popups.Has(id) {
		m.Delete(id)
	}
	props := e.Properties()
	lines := make([]string, 0, len(props))
	for _, k := range slices.Sorted(maps.Keys(props)) {
		lines = append(lines, fmt.Sprintf("%s: %v", k, props[k]))
	}
	_, err := m.Create(Args{ID: id, Title: e.ID(), Lines: lines, EntityID: e.ID()})
	return err
}

func (m *Manager) onDeselect(ev *event.Event) error {
	e, ok := ev.Target.(entity.GeoEntity)
	if !ok {
		return nil
	}
	if id := selectionID(e.ID()); m.popups.Has(id) {
		return m.Delete(id)
	}
	return nil
}

// BindEvents subscribes to the popup/* external events.
func (m *Manager) BindEvents() {
	if len(m.bindings) > 0 {
		return
	}
	m.bindings = []*event.Handle{
		m.bus.AddEventHandler(event.Extern, EventCreate, func(ev *event.Event) error {
			args, err := event.Decode[Args](ev.Args)
			if err != nil {
				return err
			}
			_, err = m.Create(args)
			return err
		}),
		m.bus.AddEventHandler(event.Extern, EventDelete, func(ev *event.Event) error {
			args, err := event.Decode[IDArgs](ev.Args)
			if err != nil {
				return err
			}
			return m.Delete(args.ID)
		}),
		m.bus.AddEventHandler(event.Extern, EventCurrent, func(ev *event.Event) error {
			args, err := event.Decode[CurrentArgs](ev.Args)
			if err != nil {
				return err
			}
			if args.Callback == nil {
				return apperror.Developer("popup/current", "callback is required")
			}
			args.Callback(m.Current())
			return nil
		}),
		m.bus.AddEventHandler(event.Extern, EventOnSelection, func(ev *event.Event) error {
			args, err := event.Decode[EnabledArgs](ev.Args)
			if err != nil {
				return err
			}
			m.SetOnSelection(args.Enabled)
			return nil
		}),
	}
}

// UnbindEvents cancels every subscription, including selection popups.
func (m *Manager) UnbindEvents() {
	for _, h := range m.bindings {
		h.Cancel()
	}
	m.bindings = nil
	m.SetOnSelection(false)
}
