// Package edit implements the editing session: the set of entities being
// edited, their handles, and pluggable modules that react to input while a
// session or a module is active.
//
// A Manager is either disabled or enabled with a set of entities and their
// handles. Modules declare event bindings; persistent bindings are bound
// once when the module is added and stay bound, the rest are bound while the
// module is enabled.
package edit

import (
	"io"
	"log"
	"math"
	"slices"

	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/internal/entity"
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/store"
)

// External events.
const (
	EventEnable  = "edit/enable"
	EventDisable = "edit/disable"
)

// Binding subscribes a module to an event.
type Binding struct {
	Source  event.Source
	Name    string
	Handler event.Handler

	// Persistent bindings stay bound while the module is disabled.
	Persistent bool
}

// Module is a pluggable editing behaviour.
type Module interface {
	Bindings() []Binding
}

// Selector is the selection collaborator. Editing and selecting exclude each
// other, so the manager disables selection for the length of a session.
type Selector interface {
	SelectedIDs() []string
	SetEnabled(enabled bool) error
	IsEnabled() bool
}

// EnableArgs names the entities of a session. Entities take precedence over
// IDs; with neither, the current selection is edited.
type EnableArgs struct {
	IDs      []string           `json:"ids,omitempty"`
	Entities []entity.GeoEntity `json:"-"`
}

// Options configures the edit manager.
type Options struct {
	Logger *log.Logger

	// HandleTolerance is the radius in degrees within which HandleAt finds a
	// handle.
	// Default: 0.0005
	HandleTolerance float64
}

// DefaultOptions returns edit options with defaults.
func DefaultOptions() Options {
	return Options{HandleTolerance: 0.0005}
}

type registration struct {
	name      string
	module    Module
	enabled   bool
	bound     bool
	permanent []*event.Handle
	active    []*event.Handle
}

// Manager owns the editing session and the registered modules.
type Manager struct {
	entities  *entity.Manager
	bus       *event.Manager
	selection Selector
	opts      Options
	logger    *log.Logger

	enabled  bool
	targets  *store.Store[entity.GeoEntity]
	handles  *store.Store[*entity.Handle]
	extruded map[string]bool

	modules []*registration

	translationWasEnabled bool
	selectionWasEnabled   bool

	bindings []*event.Handle
}

// NewManager creates a disabled edit manager. selection may be nil.
func NewManager(entities *entity.Manager, selection Selector, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.HandleTolerance <= 0 {
		opts.HandleTolerance = DefaultOptions().HandleTolerance
	}
	return &Manager{
		entities:  entities,
		bus:       entities.Bus(),
		selection: selection,
		opts:      opts,
		logger:    opts.Logger,
		targets:   store.New[entity.GeoEntity](),
		handles:   store.New[*entity.Handle](),
		extruded:  make(map[string]bool),
	}
}

// EntityManager returns the entity registry.
func (m *Manager) EntityManager() *entity.Manager { return m.entities }

// SetSelection replaces the selection collaborator. It is an error while a
// session is active.
func (m *Manager) SetSelection(s Selector) error {
	if m.enabled {
		return apperror.Developer("SetSelection", "cannot replace the selection during an edit session")
	}
	m.selection = s
	return nil
}

// Selection returns the selection collaborator, or nil.
func (m *Manager) Selection() Selector { return m.selection }

// IsEnabled reports whether a session is active.
func (m *Manager) IsEnabled() bool { return m.enabled }

// Entities returns the entities being edited.
func (m *Manager) Entities() []entity.GeoEntity { return m.targets.Items() }

// IsEditing reports whether id is part of the session.
func (m *Manager) IsEditing(id string) bool { return m.targets.Has(id) }

// Handles returns the handles of the session.
func (m *Manager) Handles() []*entity.Handle { return m.handles.Items() }

func (m *Manager) resolve(args EnableArgs) ([]entity.GeoEntity, error) {
	if len(args.Entities) > 0 {
		for _, e := range args.Entities {
			if e == nil {
				return nil, apperror.Developer("edit.Enable", "entity is nil")
			}
		}
		return args.Entities, nil
	}
	ids := args.IDs
	if len(ids) == 0 && m.selection != nil {
		ids = m.selection.SelectedIDs()
	}
	out := make([]entity.GeoEntity, 0, len(ids))
	for _, id := range ids {
		e, err := m.entities.GetByID(id)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Enable starts a session. Target features are shown as footprints and
// every target gets its handles. An active session is ended first.
func (m *Manager) Enable(args EnableArgs) error {
	targets, err := m.resolve(args)
	if err != nil {
		return err
	}
	if m.enabled {
		if err := m.Disable(); err != nil {
			return err
		}
	}

	m.translationWasEnabled = m.IsModuleEnabled(ModuleTranslation)
	if m.selection != nil {
		m.selectionWasEnabled = m.selection.IsEnabled()
		if err := m.selection.SetEnabled(false); err != nil {
			return err
		}
	}
	m.enabled = true

	for _, e := range targets {
		if !m.targets.Add(e) {
			continue
		}
		if f, ok := e.(*entity.Feature); ok && f.Form(entity.ModeFootprint) != nil {
			m.extruded[f.ID()] = true
			if err := f.SetDisplayMode(entity.ModeFootprint); err != nil {
				return err
			}
		}
		hs, err := e.CreateHandles()
		if err != nil {
			return err
		}
		for _, h := range hs {
			m.handles.Add(h)
			if err := h.Show(); err != nil {
				return err
			}
		}
	}

	if m.hasModule(ModuleTranslation) {
		return m.EnableModule(ModuleTranslation)
	}
	return nil
}

// Disable ends the session: handles are removed, footprints revert to
// extrusions, and the translation module and selection are restored.
func (m *Manager) Disable() error {
	if !m.enabled {
		return nil
	}
	for _, e := range m.targets.Purge() {
		if e.IsRemoved() {
			continue
		}
		e.RemoveHandles()
		if f, ok := e.(*entity.Feature); ok && m.extruded[f.ID()] {
			if err := f.SetDisplayMode(entity.ModeExtrusion); err != nil {
				return err
			}
		}
	}
	m.handles.Purge()
	clear(m.extruded)
	m.enabled = false

	if m.hasModule(ModuleTranslation) && !m.translationWasEnabled {
		if err := m.DisableModule(ModuleTranslation); err != nil {
			return err
		}
	}
	if m.selection != nil && m.selectionWasEnabled {
		return m.selection.SetEnabled(true)
	}
	return nil
}

// HandleAt returns the session handle nearest to v within tolerance degrees,
// preferring vertex handles on ties. A tolerance of 0 uses the default.
func (m *Manager) HandleAt(v geo.Vertex, tolerance float64) *entity.Handle {
	if tolerance <= 0 {
		tolerance = m.opts.HandleTolerance
	}
	var best *entity.Handle
	bestDist := math.Inf(1)
	for _, h := range m.handles.Items() {
		if h.IsRemoved() {
			continue
		}
		t := h.Target()
		d := math.Hypot(t.Longitude-v.Longitude, t.Latitude-v.Latitude)
		if d > tolerance {
			continue
		}
		if d < bestDist || (d == bestDist && best != nil && best.Index() < 0 && h.Index() >= 0) {
			best, bestDist = h, d
		}
	}
	return best
}

func (m *Manager) find(name string) *registration {
	for _, r := range m.modules {
		if r.name == name {
			return r
		}
	}
	return nil
}

func (m *Manager) hasModule(name string) bool { return m.find(name) != nil }

// Module returns the module registered as name, or nil.
func (m *Manager) Module(name string) Module {
	if r := m.find(name); r != nil {
		return r.module
	}
	return nil
}

// ModuleNames returns the registered module names in registration order.
func (m *Manager) ModuleNames() []string {
	names := make([]string, 0, len(m.modules))
	for _, r := range m.modules {
		names = append(names, r.name)
	}
	return names
}

// AddModule registers module as name and binds its persistent bindings.
func (m *Manager) AddModule(name string, module Module) error {
	if name == "" || module == nil {
		return apperror.Developer("edit.AddModule", "module needs a name and an implementation")
	}
	if m.hasModule(name) {
		return apperror.Duplicate("edit module", name)
	}
	m.modules = append(m.modules, &registration{name: name, module: module})
	if err := m.EnableModule(name); err != nil {
		return err
	}
	return m.DisableModule(name)
}

// EnableModule binds the module's bindings. Enabling twice does nothing.
func (m *Manager) EnableModule(name string) error {
	r := m.find(name)
	if r == nil {
		return apperror.NotFound("edit module", name)
	}
	if r.enabled {
		return nil
	}
	for _, b := range r.module.Bindings() {
		switch {
		case b.Persistent && !r.bound:
			r.permanent = append(r.permanent, m.bus.AddEventHandler(b.Source, b.Name, b.Handler))
		case !b.Persistent:
			r.active = append(r.active, m.bus.AddEventHandler(b.Source, b.Name, b.Handler))
		}
	}
	r.bound = true
	r.enabled = true
	return nil
}

// DisableModule unbinds the module's non-persistent bindings.
func (m *Manager) DisableModule(name string) error {
	r := m.find(name)
	if r == nil {
		return apperror.NotFound("edit module", name)
	}
	if !r.enabled {
		return nil
	}
	for _, h := range r.active {
		h.Cancel()
	}
	r.active = nil
	r.enabled = false
	return nil
}

// RemoveModule disables name and cancels its persistent bindings.
func (m *Manager) RemoveModule(name string) error {
	if err := m.DisableModule(name); err != nil {
		return err
	}
	r := m.find(name)
	for _, h := range r.permanent {
		h.Cancel()
	}
	m.modules = slices.DeleteFunc(m.modules, func(x *registration) bool { return x == r })
	return nil
}

// IsModuleEnabled reports whether name is registered and enabled.
func (m *Manager) IsModuleEnabled(name string) bool {
	r := m.find(name)
	return r != nil && r.enabled
}

// BindEvents subscribes to edit/enable and edit/disable.
func (m *Manager) BindEvents() {
	if len(m.bindings) > 0 {
		return
	}
	m.bindings = []*event.Handle{
		m.bus.AddEventHandler(event.Extern, EventEnable, func(ev *event.Event) error {
			args, err := event.Decode[EnableArgs](ev.Args)
			if err != nil {
				return err
			}
			return m.Enable(args)
		}),
		m.bus.AddEventHandler(event.Extern, EventDisable, func(*event.Event) error {
			return m.Disable()
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

// editable returns the session entities under v, or every visible entity
// under v when no session is active.
func (m *Manager) editable(v geo.Vertex) entity.GeoEntity {
	for _, e := range m.entities.Pick(v, 0) {
		if !m.enabled || m.targets.Has(e.ID()) {
			return e
		}
	}
	return nil
}
