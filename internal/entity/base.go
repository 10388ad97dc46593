package entity

import (
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
	"github.com/beetlebugorg/atlas/internal/store"
)

// Base holds the state shared by every entity. Concrete entities embed it
// and supply a build hook that draws their primitives.
type Base struct {
	event.Emitter

	id   string
	kind Type
	env  Env

	// self is the outermost entity embedding this Base, used wherever
	// behaviour is overridden.
	self GeoEntity

	// build draws the entity's primitives. A nil build makes Show fail.
	build func() error

	// measures
	centroidOf func([]geo.Vertex) geo.Vertex
	areaOf     func([]geo.Vertex) float64

	visible       bool
	style         render.Style
	previousStyle render.Style
	preSelection  render.Style
	selected      bool
	dirty         map[Component]bool

	vertices  []geo.Vertex
	height    float64
	elevation float64

	handles      *store.Store[*Handle]
	entityHandle *Handle
	parentID     string
	properties   map[string]any

	centroid *geo.Vertex
	area     *float64

	revision uint64
	removed  bool
}

func (b *Base) init(self GeoEntity, id string, kind Type, env Env) {
	if id == "" {
		id = uuid.NewString()
	}
	b.id = id
	b.kind = kind
	b.env = env.withDefaults()
	b.self = self
	b.style = render.DefaultStyle
	b.previousStyle = render.DefaultStyle
	b.dirty = map[Component]bool{ComponentEntity: true}
	b.handles = store.New[*Handle]()
	b.properties = make(map[string]any)
	b.centroidOf = geo.Mean
	b.SetLogger(b.env.Logger)
}

// ID returns the entity ID.
func (b *Base) ID() string { return b.id }

// Type returns the concrete entity kind.
func (b *Base) Type() Type { return b.kind }

// Revision increases each time the entity is rebuilt.
func (b *Base) Revision() uint64 { return b.revision }

// ParentID returns the ID of the parent, or "".
func (b *Base) ParentID() string { return b.parentID }

// Parent resolves the parent through the registry.
func (b *Base) Parent() GeoEntity {
	if b.parentID == "" || b.env.Registry == nil {
		return nil
	}
	p, ok := b.env.Registry.Entity(b.parentID)
	if !ok {
		return nil
	}
	return p
}

// SetParent records parent by ID. A nil parent clears it.
func (b *Base) SetParent(parent GeoEntity) {
	if parent == nil {
		b.parentID = ""
		return
	}
	b.parentID = parent.ID()
}

// EventParent implements event.Target.
func (b *Base) EventParent() event.Target {
	if p := b.self.Parent(); p != nil {
		return p
	}
	return nil
}

// IsRemoved reports whether Remove has completed.
func (b *Base) IsRemoved() bool { return b.removed }

// SetDirty marks components as needing a rebuild.
func (b *Base) SetDirty(components ...Component) {
	for _, c := range components {
		b.dirty[c] = true
	}
}

// SetClean clears every dirty component.
func (b *Base) SetClean() {
	clear(b.dirty)
}

// IsDirty reports whether c needs a rebuild.
func (b *Base) IsDirty(c Component) bool {
	return b.dirty[c]
}

// DirtyComponents returns the dirty components, sorted.
func (b *Base) DirtyComponents() []Component {
	cs := slices.Collect(maps.Keys(b.dirty))
	slices.Sort(cs)
	return cs
}

// IsRenderable reports whether no component is dirty.
func (b *Base) IsRenderable() bool {
	return len(b.dirty) == 0
}

// Show rebuilds the entity if it is dirty and makes it visible.
func (b *Base) Show() error {
	if b.removed {
		return apperror.Removed("Show", string(b.kind)+" "+b.id)
	}
	if !b.IsRenderable() {
		if err := b.rebuild(); err != nil {
			return err
		}
	}
	b.visible = true
	b.env.Backend.SetVisible(b.id, true)
	return nil
}

func (b *Base) rebuild() error {
	if b.build == nil {
		return apperror.Developer("Show", "%s %q does not implement build", b.kind, b.id)
	}
	b.revision++
	if err := b.build(); err != nil {
		return err
	}
	b.SetClean()
	return nil
}

// refresh rebuilds a visible entity after a mutation.
func (b *Base) refresh() {
	if !b.visible || b.removed || b.IsRenderable() {
		return
	}
	if err := b.rebuild(); err != nil {
		b.env.Logger.Printf("entity: rebuild %s %q: %v", b.kind, b.id, err)
	}
}

// Hide makes the entity invisible. Built geometry is kept.
func (b *Base) Hide() {
	b.visible = false
	b.env.Backend.SetVisible(b.id, false)
}

// IsVisible reports whether the entity is shown.
func (b *Base) IsVisible() bool { return b.visible }

// Style returns the current style.
func (b *Base) Style() render.Style { return b.style }

// PreviousStyle returns the style before the last change.
func (b *Base) PreviousStyle() render.Style { return b.previousStyle }

// SetStyle changes the style. Setting an equal style does nothing. While the
// entity is selected the new style is kept for when it is deselected.
func (b *Base) SetStyle(s render.Style) {
	if b.selected {
		b.preSelection = s
		return
	}
	b.applyStyle(s)
}

// ModifyStyle applies fn to a copy of the unselected style and sets the result.
func (b *Base) ModifyStyle(fn func(*render.Style)) {
	s := b.style
	if b.selected {
		s = b.preSelection
	}
	fn(&s)
	b.self.SetStyle(s)
}

func (b *Base) applyStyle(s render.Style) {
	if !b.recordStyle(s) {
		return
	}
	b.SetDirty(ComponentStyle)
	b.refresh()
}

// recordStyle updates style bookkeeping and reports whether it changed.
func (b *Base) recordStyle(s render.Style) bool {
	if s.Equals(b.style) {
		return false
	}
	b.previousStyle = b.style
	b.style = s
	return true
}

// SetSelected applies the selected style, or restores the style the entity
// had before selection. Repeating the current value does nothing.
func (b *Base) SetSelected(selected bool) {
	if selected == b.selected {
		return
	}
	if selected {
		b.preSelection = b.style
		b.applyStyle(b.env.SelectedStyle)
		b.selected = true
		return
	}
	b.selected = false
	b.applyStyle(b.preSelection)
}

// IsSelected reports whether the entity is selected.
func (b *Base) IsSelected() bool { return b.selected }

// unselectedStyle returns the style the entity has when not selected.
func (b *Base) unselectedStyle() render.Style {
	if b.selected {
		return b.preSelection
	}
	return b.style
}

// Vertices returns a copy of the entity's vertices.
func (b *Base) Vertices() []geo.Vertex {
	return geo.Clone(b.vertices)
}

// SetVertices replaces the vertices.
func (b *Base) SetVertices(vs []geo.Vertex) error {
	if b.removed {
		return apperror.Removed("SetVertices", string(b.kind)+" "+b.id)
	}
	b.vertices = geo.Clone(vs)
	b.geometryChanged()
	return nil
}

// MoveVertex replaces vertex i and rebuilds the entity if it is visible.
func (b *Base) MoveVertex(i int, v geo.Vertex) error {
	if b.removed {
		return apperror.Removed("MoveVertex", string(b.kind)+" "+b.id)
	}
	if i < 0 || i >= len(b.vertices) {
		return apperror.Developer("MoveVertex", "vertex %d out of range for %s %q with %d vertices", i, b.kind, b.id, len(b.vertices))
	}
	if b.vertices[i].Equals(v) {
		return nil
	}
	b.vertices[i] = v
	b.geometryChanged()
	return nil
}

func (b *Base) geometryChanged() {
	b.centroid = nil
	b.area = nil
	b.SetDirty(ComponentVertices)
	b.syncHandles()
	b.invalidateExtent()
	b.refresh()
}

// invalidateExtent tells the registry that this entity and its ancestors may
// have moved.
func (b *Base) invalidateExtent() {
	if b.env.Registry == nil {
		return
	}
	b.env.Registry.Invalidate(b.id)
	for p := b.self.Parent(); p != nil; p = p.Parent() {
		b.env.Registry.Invalidate(p.ID())
	}
}

// Translate moves every vertex by d.
func (b *Base) Translate(d geo.Vertex) error {
	if b.removed {
		return apperror.Removed("Translate", string(b.kind)+" "+b.id)
	}
	if d.IsZero() {
		return nil
	}
	b.vertices = geo.Translate(b.vertices, d)
	b.geometryChanged()
	return nil
}

// Scale scales the vertices around the centroid.
func (b *Base) Scale(factor float64) error {
	if b.removed {
		return apperror.Removed("Scale", string(b.kind)+" "+b.id)
	}
	if factor == 1 {
		return nil
	}
	b.vertices = geo.Scale(b.vertices, b.Centroid(), factor)
	b.geometryChanged()
	return nil
}

// Rotate rotates the vertices counterclockwise around the centroid.
func (b *Base) Rotate(degrees float64) error {
	if b.removed {
		return apperror.Removed("Rotate", string(b.kind)+" "+b.id)
	}
	if degrees == 0 {
		return nil
	}
	b.vertices = geo.Rotate(b.vertices, b.Centroid(), degrees)
	b.geometryChanged()
	return nil
}

// SetHeight sets the extrusion height in metres.
func (b *Base) SetHeight(h float64) {
	if h == b.height {
		return
	}
	b.height = h
	b.SetDirty(ComponentModel)
	b.refresh()
}

// Height returns the extrusion height in metres.
func (b *Base) Height() float64 { return b.height }

// SetElevation sets the base elevation in metres.
func (b *Base) SetElevation(e float64) {
	if e == b.elevation {
		return
	}
	b.elevation = e
	b.SetDirty(ComponentModel)
	b.refresh()
}

// Elevation returns the base elevation in metres.
func (b *Base) Elevation() float64 { return b.elevation }

// Centroid returns the cached centroid of the vertices.
func (b *Base) Centroid() geo.Vertex {
	if b.centroid == nil {
		c := b.centroidOf(b.vertices)
		b.centroid = &c
	}
	return *b.centroid
}

// Area returns the cached area in square metres. Entities without area
// return 0.
func (b *Base) Area() float64 {
	if b.areaOf == nil {
		return 0
	}
	if b.area == nil {
		a := b.areaOf(b.vertices)
		b.area = &a
	}
	return *b.area
}

// Bounds returns the bounding box of the vertices.
func (b *Base) Bounds() geo.Bounds {
	return geo.BoundsOf(b.vertices)
}

// CreateHandles creates a handle per vertex plus an entity handle at the
// centroid. Existing handles are returned unchanged.
func (b *Base) CreateHandles() ([]*Handle, error) {
	if b.removed {
		return nil, apperror.Removed("CreateHandles", string(b.kind)+" "+b.id)
	}
	if b.handles.Len() == 0 && b.entityHandle == nil {
		for i, v := range b.vertices {
			h, err := NewHandle(b.handleEnv(), b.self, &v, i)
			if err != nil {
				return nil, err
			}
			b.handles.Add(h)
		}
		h, err := NewHandle(b.handleEnv(), b.self, nil, -1)
		if err != nil {
			return nil, err
		}
		b.entityHandle = h
	}
	return b.allHandles(), nil
}

func (b *Base) handleEnv() Env {
	env := b.env
	env.Registry = nil
	return env
}

func (b *Base) allHandles() []*Handle {
	hs := b.handles.Items()
	if b.entityHandle != nil {
		hs = append(hs, b.entityHandle)
	}
	return hs
}

// Handles returns the vertex handles in vertex order.
func (b *Base) Handles() []*Handle {
	return b.handles.Items()
}

// EntityHandle returns the whole-entity handle, or nil.
func (b *Base) EntityHandle() *Handle {
	return b.entityHandle
}

// RemoveHandles removes every handle.
func (b *Base) RemoveHandles() {
	for _, h := range b.handles.Purge() {
		h.Remove()
	}
	if b.entityHandle != nil {
		b.entityHandle.Remove()
		b.entityHandle = nil
	}
}

// syncHandles moves handles onto the current vertices and centroid.
func (b *Base) syncHandles() {
	for _, h := range b.handles.Items() {
		if h.index >= 0 && h.index < len(b.vertices) {
			h.setTarget(b.vertices[h.index])
		}
	}
	if b.entityHandle != nil {
		b.entityHandle.setTarget(b.self.Centroid())
	}
}

// Properties returns a copy of the entity's host-supplied properties.
func (b *Base) Properties() map[string]any {
	return maps.Clone(b.properties)
}

// SetProperty sets a host-supplied property.
func (b *Base) SetProperty(key string, value any) {
	b.properties[key] = value
}

// Remove hides the entity, removes its handles, detaches it from the
// registry and dispatches EventRemove so that a parent can let go of it.
// Removing twice does nothing.
func (b *Base) Remove() error {
	if b.removed {
		return nil
	}
	b.self.Hide()
	b.self.RemoveHandles()
	if b.env.Registry != nil {
		b.env.Registry.Detach(b.id)
	}
	err := b.env.Bus.DispatchEvent(event.New(event.Intern, EventRemove, RemoveArgs{ID: b.id}, b.self))
	b.removed = true
	b.env.Backend.Erase(b.id)
	b.RemoveEventListeners()
	return err
}

// primitive returns a primitive with the fields shared by every entity.
func (b *Base) primitive(kind render.Kind) render.Primitive {
	return render.Primitive{
		ID:        b.id,
		Kind:      kind,
		Vertices:  geo.Clone(b.vertices),
		Style:     b.style,
		Height:    b.height,
		Elevation: b.elevation,
		Revision:  b.revision,
	}
}
