// Package selection tracks which entities are selected and turns clicks into
// selection changes.
package selection

import (
	"io"
	"log"
	"slices"

	"github.com/beetlebugorg/atlas/internal/entity"
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/input"
	"github.com/beetlebugorg/atlas/internal/store"
)

// Args is the payload of entity/select and entity/deselect. Internal events
// carry the IDs whose state changed; external events name the IDs to change.
type Args struct {
	IDs  []string `json:"ids"`
	Keep bool     `json:"keep,omitempty"`
}

// Options configures the selection manager.
type Options struct {
	Logger *log.Logger

	// PickTolerance is passed to entity.Manager.Pick. Zero uses the entity
	// manager default.
	PickTolerance float64
}

// Manager owns the selection. Selected entities that are later removed drop
// out of the selection on the next read.
type Manager struct {
	entities *entity.Manager
	bus      *event.Manager
	opts     Options
	logger   *log.Logger

	selected *store.Store[entity.GeoEntity]
	enabled  bool
	bindings []*event.Handle
}

// New creates an enabled selection manager over entities.
func New(entities *entity.Manager, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	return &Manager{
		entities: entities,
		bus:      entities.Bus(),
		opts:     opts,
		logger:   opts.Logger,
		selected: store.New[entity.GeoEntity](),
		enabled:  true,
	}
}

// EntityManager returns the entity registry the manager works on.
func (m *Manager) EntityManager() *entity.Manager { return m.entities }

// SetEnabled turns click handling on or off. Disabling clears the selection.
func (m *Manager) SetEnabled(enabled bool) error {
	if m.enabled == enabled {
		return nil
	}
	m.enabled = enabled
	if !enabled {
		return m.DeselectAll()
	}
	return nil
}

// IsEnabled reports whether clicks change the selection.
func (m *Manager) IsEnabled() bool { return m.enabled }

func (m *Manager) prune() {
	for _, e := range m.selected.Filter(entity.GeoEntity.IsRemoved) {
		m.selected.Remove(e.ID())
	}
}

// SelectedIDs returns the selected IDs in selection order.
func (m *Manager) SelectedIDs() []string {
	m.prune()
	return m.selected.IDs()
}

// Selected returns the selected entities in selection order.
func (m *Manager) Selected() []entity.GeoEntity {
	m.prune()
	return m.selected.Items()
}

// IsSelected reports whether id is selected.
func (m *Manager) IsSelected(id string) bool {
	m.prune()
	return m.selected.Has(id)
}

// Select selects ids. Unless keep is set, entities not in ids are
// deselected first. Unknown IDs fail before anything changes.
func (m *Manager) Select(ids []string, keep bool) error {
	targets := make([]entity.GeoEntity, 0, len(ids))
	for _, id := range ids {
		e, err := m.entities.GetByID(id)
		if err != nil {
			return err
		}
		targets = append(targets, e)
	}

	if !keep {
		var drop []string
		for _, id := range m.SelectedIDs() {
			if !slices.Contains(ids, id) {
				drop = append(drop, id)
			}
		}
		if err := m.deselect(drop); err != nil {
			return err
		}
	}

	var changed []entity.GeoEntity
	for _, e := range targets {
		if m.selected.Add(e) {
			e.SetSelected(true)
			changed = append(changed, e)
		}
	}
	return m.notify(entity.EventSelect, changed)
}

// Deselect deselects ids. IDs that are not selected are ignored.
func (m *Manager) Deselect(ids []string) error {
	for _, id := range ids {
		if _, err := m.entities.GetByID(id); err != nil {
			return err
		}
	}
	return m.deselect(ids)
}

// DeselectAll clears the selection.
func (m *Manager) DeselectAll() error {
	return m.deselect(m.SelectedIDs())
}

func (m *Manager) deselect(ids []string) error {
	var changed []entity.GeoEntity
	for _, id := range ids {
		e, ok := m.selected.Remove(id)
		if !ok {
			continue
		}
		e.SetSelected(false)
		changed = append(changed, e)
	}
	return m.notify(entity.EventDeselect, changed)
}

// notify dispatches name on each changed entity so that it bubbles through
// the entity's parents before reaching the bus.
func (m *Manager) notify(name string, changed []entity.GeoEntity) error {
	if len(changed) == 0 {
		return nil
	}
	ids := make([]string, 0, len(changed))
	for _, e := range changed {
		ids = append(ids, e.ID())
	}
	for _, e := range changed {
		if err := m.bus.DispatchEvent(event.New(event.Intern, name, Args{IDs: ids}, e)); err != nil {
			return err
		}
	}
	return nil
}

// pick returns the most specific visible entity under the pointer.
func (m *Manager) pick(args input.PointerArgs) entity.GeoEntity {
	hits := m.entities.Pick(args.Position, m.opts.PickTolerance)
	if len(hits) == 0 {
		return nil
	}
	return hits[0]
}

func (m *Manager) onClick(ev *event.Event) error {
	if !m.enabled {
		return nil
	}
	args, err := event.Decode[input.PointerArgs](ev.Args)
	if err != nil {
		return err
	}
	hit := m.pick(args)
	switch {
	case hit == nil && !args.Shift:
		return m.DeselectAll()
	case hit == nil:
		return nil
	case args.Shift && m.selected.Has(hit.ID()):
		return m.deselect([]string{hit.ID()})
	}
	return m.Select([]string{hit.ID()}, args.Shift)
}

func (m *Manager) onDoubleClick(ev *event.Event) error {
	if !m.enabled {
		return nil
	}
	args, err := event.Decode[input.PointerArgs](ev.Args)
	if err != nil {
		return err
	}
	hit := m.pick(args)
	if hit == nil {
		return nil
	}
	return m.bus.DispatchEvent(event.New(event.Intern, entity.EventDblClick, args, hit))
}

// BindEvents subscribes to clicks and to external select and deselect
// requests.
func (m *Manager) BindEvents() {
	if len(m.bindings) > 0 {
		return
	}
	m.bindings = []*event.Handle{
		m.bus.AddEventHandler(event.Intern, input.EventLeftClick, m.onClick),
		m.bus.AddEventHandler(event.Intern, input.EventLeftDblClick, m.onDoubleClick),
		m.bus.AddEventHandler(event.Extern, entity.EventSelect, func(ev *event.Event) error {
			args, err := event.Decode[Args](ev.Args)
			if err != nil {
				return err
			}
			return m.Select(args.IDs, args.Keep)
		}),
		m.bus.AddEventHandler(event.Extern, entity.EventDeselect, func(ev *event.Event) error {
			args, err := event.Decode[Args](ev.Args)
			if err != nil {
				return err
			}
			if len(args.IDs) == 0 {
				return m.DeselectAll()
			}
			return m.Deselect(args.IDs)
		}),
	}
}

// UnbindEvents cancels the subscriptions made by BindEvents.
func (m *Manager) UnbindEvents() {
	for _, h := range m.bindings {
		h.Cancel()
	}
	m.bindings = nil
}
