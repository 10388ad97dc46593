package entity

import (
	"io"
	"log"
	"slices"
	"sort"

	"github.com/google/uuid"

	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
	"github.com/beetlebugorg/atlas/internal/store"
	"github.com/beetlebugorg/atlas/pkg/c3ml"
)

// ManagerOptions configures the entity manager.
type ManagerOptions struct {
	// Logger receives warnings about skipped IDs and duplicate children.
	// Default: discard
	Logger *log.Logger

	// DefaultStyle is applied to descriptors without colours.
	DefaultStyle render.Style

	// SelectedStyle is applied to selected entities.
	SelectedStyle render.Style

	// PickTolerance is the search radius of Pick in decimal degrees.
	// Default: 0.0005 (~50 metres)
	PickTolerance float64
}

// DefaultManagerOptions returns manager options with defaults.
func DefaultManagerOptions() ManagerOptions {
	return ManagerOptions{
		DefaultStyle:  render.DefaultStyle,
		SelectedStyle: render.DefaultSelectedStyle,
		PickTolerance: 0.0005,
	}
}

// Factory constructs an entity from a descriptor. Factories may look up
// entities the descriptor references, which BulkCreate guarantees to exist.
type Factory func(m *Manager, d c3ml.Descriptor) (GeoEntity, error)

// Manager is the authoritative registry of entities.
//
// Lookups by host-supplied ID fail with a *apperror.NotFoundError. Cleanup
// paths such as Remove skip unknown IDs with a log line instead.
//
// Example:
//
//	bus := event.NewManager(nil)
//	m := entity.NewManager(bus, backend, entity.DefaultManagerOptions())
//	m.BindEvents()
//	e, err := m.Create(c3ml.Descriptor{ID: "lot-1", Type: c3ml.TypePolygon, Coordinates: ring})
type Manager struct {
	opts    ManagerOptions
	bus     *event.Manager
	backend render.Backend
	logger  *log.Logger

	entities  *store.Store[GeoEntity]
	index     *geo.Index
	stale     map[string]bool
	factories map[c3ml.Type]Factory

	// modeSnapshot holds each feature's display mode from before the
	// first bulk display-mode override.
	modeSnapshot map[string]DisplayMode

	bindings []*event.Handle
}

// NewManager creates an entity manager on bus drawing to backend.
func NewManager(bus *event.Manager, backend render.Backend, opts ManagerOptions) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if bus == nil {
		bus = event.NewManager(opts.Logger)
	}
	if backend == nil {
		backend = render.NewProxy()
	}
	if opts.DefaultStyle == (render.Style{}) {
		opts.DefaultStyle = render.DefaultStyle
	}
	if opts.SelectedStyle == (render.Style{}) {
		opts.SelectedStyle = render.DefaultSelectedStyle
	}
	if opts.PickTolerance <= 0 {
		opts.PickTolerance = DefaultManagerOptions().PickTolerance
	}
	m := &Manager{
		opts:         opts,
		bus:          bus,
		backend:      backend,
		logger:       opts.Logger,
		entities:     store.New[GeoEntity](),
		index:        geo.NewIndex(),
		stale:        make(map[string]bool),
		factories:    make(map[c3ml.Type]Factory),
		modeSnapshot: make(map[string]DisplayMode),
	}
	for t, f := range defaultFactories() {
		m.factories[t] = f
	}
	return m
}

// Env returns the collaborators given to entities created by m.
func (m *Manager) Env() Env {
	return Env{
		Registry:      m,
		Bus:           m.bus,
		Backend:       m.backend,
		Logger:        m.logger,
		SelectedStyle: m.opts.SelectedStyle,
	}
}

// Bus returns the event bus.
func (m *Manager) Bus() *event.Manager { return m.bus }

// Options returns the manager options.
func (m *Manager) Options() ManagerOptions { return m.opts }

// SetFactory replaces the constructor for descriptors of type t and returns
// the previous one.
func (m *Manager) SetFactory(t c3ml.Type, f Factory) Factory {
	prev := m.factories[t]
	m.factories[t] = f
	return prev
}

// Add registers e. A nil entity is a developer error; an ID already in use
// is a *apperror.DuplicateIDError and leaves the registry unchanged.
func (m *Manager) Add(e GeoEntity) error {
	if e == nil {
		return apperror.Developer("Add", "entity is nil")
	}
	if e.ID() == "" {
		return apperror.Developer("Add", "entity has no id")
	}
	if !m.entities.Add(e) {
		return apperror.Duplicate("entity", e.ID())
	}
	m.stale[e.ID()] = true
	return nil
}

// Entity implements Registry.
func (m *Manager) Entity(id string) (GeoEntity, bool) {
	return m.entities.Get(id)
}

// GetByID returns the entity with id.
func (m *Manager) GetByID(id string) (GeoEntity, error) {
	if id == "" {
		return nil, apperror.Developer("GetByID", "missing entity id")
	}
	e, ok := m.entities.Get(id)
	if !ok {
		return nil, apperror.NotFound("entity", id)
	}
	return e, nil
}

// Has reports whether id is registered.
func (m *Manager) Has(id string) bool {
	return m.entities.Has(id)
}

// Entities returns every entity in creation order.
func (m *Manager) Entities() []GeoEntity {
	return m.entities.Items()
}

// Len returns the number of entities.
func (m *Manager) Len() int {
	return m.entities.Len()
}

// Detach implements Registry.
func (m *Manager) Detach(id string) {
	m.entities.Remove(id)
	m.index.Remove(id)
	delete(m.stale, id)
	delete(m.modeSnapshot, id)
}

// Invalidate implements Registry.
func (m *Manager) Invalidate(id string) {
	if m.entities.Has(id) {
		m.stale[id] = true
	}
}

// Remove removes the entity with id, skipping unknown IDs.
func (m *Manager) Remove(id string) error {
	e, ok := m.entities.Get(id)
	if !ok {
		m.logger.Printf("entity: remove skipped unknown id %q", id)
		return nil
	}
	return e.Remove()
}

// RemoveEntity removes the entity with id on behalf of the host. Unknown IDs
// are an error.
func (m *Manager) RemoveEntity(id string) error {
	e, err := m.GetByID(id)
	if err != nil {
		return err
	}
	return e.Remove()
}

// RemoveAll removes every entity.
func (m *Manager) RemoveAll() error {
	for _, e := range m.entities.Items() {
		if e.IsRemoved() {
			continue
		}
		if err := e.Remove(); err != nil {
			return err
		}
	}
	return nil
}

// Create builds an entity from d and registers it. A descriptor without an
// ID gets a generated one.
func (m *Manager) Create(d c3ml.Descriptor) (GeoEntity, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if err := c3ml.Validate(d); err != nil {
		return nil, &apperror.DeveloperError{Op: "Create", Reason: err.Error(), Err: err}
	}
	if m.entities.Has(d.ID) {
		return nil, apperror.Duplicate("entity", d.ID)
	}
	factory, ok := m.factories[d.Type]
	if !ok || factory == nil {
		return nil, apperror.Developer("Create", "no factory for type %q", d.Type)
	}

	e, err := factory(m, d)
	if err != nil {
		return nil, err
	}
	if err := m.Add(e); err != nil {
		return nil, err
	}
	if d.Show {
		if err := e.Show(); err != nil {
			return e, err
		}
	}
	return e, nil
}

// BulkCreate creates descriptors so that every collection is created after
// the children it references. Descriptors outside any hierarchy follow in
// input order. IDs that already exist are skipped. Duplicate IDs within the
// batch and cyclic references are developer errors and nothing is created.
func (m *Manager) BulkCreate(ds []c3ml.Descriptor) ([]GeoEntity, error) {
	batch := make([]c3ml.Descriptor, len(ds))
	copy(batch, ds)

	pos := make(map[string]int, len(batch))
	for i := range batch {
		if batch[i].ID == "" {
			batch[i].ID = uuid.NewString()
		}
		if _, dup := pos[batch[i].ID]; dup {
			return nil, apperror.Developer("BulkCreate", "duplicate id %q in batch", batch[i].ID)
		}
		pos[batch[i].ID] = i
	}

	order, err := creationOrder(batch, pos)
	if err != nil {
		return nil, err
	}

	created := make([]GeoEntity, 0, len(order))
	for _, i := range order {
		d := batch[i]
		if m.entities.Has(d.ID) {
			continue
		}
		e, err := m.Create(d)
		if err != nil {
			return created, err
		}
		created = append(created, e)
	}
	return created, nil
}

// creationOrder sorts a batch topologically: children before the
// collections that reference them, then unrelated descriptors.
func creationOrder(batch []c3ml.Descriptor, pos map[string]int) ([]int, error) {
	inHierarchy := make([]bool, len(batch))
	for i, d := range batch {
		for _, child := range d.Children {
			if j, ok := pos[child]; ok {
				inHierarchy[i] = true
				inHierarchy[j] = true
			}
		}
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make([]int, len(batch))
	order := make([]int, 0, len(batch))

	var visit func(i int) error
	visit = func(i int) error {
		switch state[i] {
		case done:
			return nil
		case visiting:
			return apperror.Developer("BulkCreate", "cyclic children reference at %q", batch[i].ID)
		}
		state[i] = visiting
		for _, child := range batch[i].Children {
			if j, ok := pos[child]; ok {
				if err := visit(j); err != nil {
					return err
				}
			}
		}
		state[i] = done
		order = append(order, i)
		return nil
	}

	for i := range batch {
		if inHierarchy[i] {
			if err := visit(i); err != nil {
				return nil, err
			}
		}
	}
	for i := range batch {
		if !inHierarchy[i] {
			order = append(order, i)
		}
	}
	return order, nil
}

// resolve looks up every ID before anything is changed.
func (m *Manager) resolve(op string, ids []string) ([]GeoEntity, error) {
	out := make([]GeoEntity, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			return nil, apperror.Developer(op, "missing entity id")
		}
		e, ok := m.entities.Get(id)
		if !ok {
			return nil, apperror.NotFound("entity", id)
		}
		out = append(out, e)
	}
	return out, nil
}

// ToggleEntityVisibility shows or hides ids. Every ID is checked before any
// entity changes, so an unknown ID leaves all of them untouched.
func (m *Manager) ToggleEntityVisibility(ids []string, visible bool) error {
	es, err := m.resolve("ToggleEntityVisibility", ids)
	if err != nil {
		return err
	}
	for _, e := range es {
		if !visible {
			e.Hide()
			continue
		}
		if err := e.Show(); err != nil {
			return err
		}
	}
	return nil
}

// ShowEntity shows the entity with id.
func (m *Manager) ShowEntity(id string) error {
	return m.ToggleEntityVisibility([]string{id}, true)
}

// HideEntity hides the entity with id.
func (m *Manager) HideEntity(id string) error {
	return m.ToggleEntityVisibility([]string{id}, false)
}

// features returns the features among es, expanding collections.
func features(es []GeoEntity) []*Feature {
	var out []*Feature
	for _, e := range es {
		for _, leaf := range Descendants(e) {
			if f, ok := leaf.(*Feature); ok && !slices.Contains(out, f) {
				out = append(out, f)
			}
		}
	}
	return out
}

// SetDisplayMode switches the features among ids to mode. The first override
// of each feature records its previous mode for ResetDisplayMode. When any
// feature has no form for mode nothing is switched.
func (m *Manager) SetDisplayMode(ids []string, mode DisplayMode) error {
	es, err := m.resolve("SetDisplayMode", ids)
	if err != nil {
		return err
	}
	if !mode.Valid() {
		return apperror.Developer("SetDisplayMode", "invalid display mode %q", mode)
	}
	fs := features(es)
	for _, f := range fs {
		if f.Form(mode) == nil {
			return apperror.Developer("SetDisplayMode", "invalid display mode %q for feature %q", mode, f.ID())
		}
	}
	for _, f := range fs {
		if _, ok := m.modeSnapshot[f.ID()]; !ok {
			m.modeSnapshot[f.ID()] = f.DisplayMode()
		}
		if err := f.SetDisplayMode(mode); err != nil {
			return err
		}
	}
	return nil
}

// ResetDisplayMode restores the modes recorded by SetDisplayMode and clears
// the records. With no ids every recorded feature is reset.
func (m *Manager) ResetDisplayMode(ids []string) error {
	var fs []*Feature
	if len(ids) == 0 {
		snapshotIDs := make([]string, 0, len(m.modeSnapshot))
		for id := range m.modeSnapshot {
			snapshotIDs = append(snapshotIDs, id)
		}
		sort.Strings(snapshotIDs)
		for _, id := range snapshotIDs {
			if e, ok := m.entities.Get(id); ok {
				if f, ok := e.(*Feature); ok {
					fs = append(fs, f)
				}
			}
		}
	} else {
		es, err := m.resolve("ResetDisplayMode", ids)
		if err != nil {
			return err
		}
		fs = features(es)
	}

	for _, f := range fs {
		mode, ok := m.modeSnapshot[f.ID()]
		if !ok {
			continue
		}
		delete(m.modeSnapshot, f.ID())
		if mode == ModeNone || mode == f.DisplayMode() {
			continue
		}
		if err := f.SetDisplayMode(mode); err != nil {
			return err
		}
	}
	return nil
}

// Rotate rotates ids counterclockwise by degrees around their centroids.
func (m *Manager) Rotate(ids []string, degrees float64) error {
	es, err := m.resolve("Rotate", ids)
	if err != nil {
		return err
	}
	for _, e := range es {
		if err := e.Rotate(degrees); err != nil {
			return err
		}
	}
	return nil
}

// Redraw rebuilds every visible top-level entity, e.g. after a new backend
// was attached.
func (m *Manager) Redraw() error {
	for _, e := range m.entities.Items() {
		if e.ParentID() != "" || !e.IsVisible() {
			continue
		}
		e.SetDirty(ComponentEntity)
		if err := e.Show(); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) syncIndex() {
	for id := range m.stale {
		if e, ok := m.entities.Get(id); ok {
			m.index.Set(id, e.Bounds())
		} else {
			m.index.Remove(id)
		}
	}
	clear(m.stale)
}

// Query returns the entities whose bounds intersect b, in creation order.
func (m *Manager) Query(b geo.Bounds) []GeoEntity {
	m.syncIndex()
	return m.lookup(m.index.Search(b))
}

// Pick returns the visible entities within tolerance degrees of v, most
// specific first: smaller areas come before larger ones and collections come
// last. A tolerance of 0 uses ManagerOptions.PickTolerance.
func (m *Manager) Pick(v geo.Vertex, tolerance float64) []GeoEntity {
	if tolerance <= 0 {
		tolerance = m.opts.PickTolerance
	}
	m.syncIndex()
	hits := m.lookup(m.index.SearchPoint(v, tolerance))
	hits = slices.DeleteFunc(hits, func(e GeoEntity) bool { return !e.IsVisible() })
	sort.SliceStable(hits, func(i, j int) bool {
		ci, cj := hits[i].Type() == TypeCollection, hits[j].Type() == TypeCollection
		if ci != cj {
			return cj
		}
		return hits[i].Area() < hits[j].Area()
	})
	return hits
}

func (m *Manager) lookup(ids []string) []GeoEntity {
	out := make([]GeoEntity, 0, len(ids))
	for _, e := range m.entities.Items() {
		if slices.Contains(ids, e.ID()) {
			out = append(out, e)
		}
	}
	return out
}
