// Package entity implements Atlas geospatial entities and the manager that
// owns them.
//
// Every entity carries a set of dirty components naming the rendering
// aspects that must be rebuilt. An entity is renderable exactly when that
// set is empty, and Show rebuilds it first when it is not.
//
// Entities are composed rather than layered: Base holds the state shared by
// all entities and embeds an event.Emitter, Feature forwards to one of its
// forms, and Collection forwards to its children. Parents are referenced by
// ID and resolved through the Registry, so children never own their parents.
package entity

import (
	"io"
	"log"

	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
)

// Type identifies the concrete kind of an entity.
type Type string

const (
	TypePoint      Type = "point"
	TypeLine       Type = "line"
	TypePolygon    Type = "polygon"
	TypeMesh       Type = "mesh"
	TypeImage      Type = "image"
	TypeFeature    Type = "feature"
	TypeCollection Type = "collection"
	TypeHandle     Type = "handle"
)

// Component names a rendering aspect that can be dirty.
type Component string

const (
	ComponentEntity   Component = "entity"
	ComponentVertices Component = "vertices"
	ComponentStyle    Component = "style"
	ComponentModel    Component = "model"
)

// Event names emitted by entities.
const (
	EventRemove   = "entity/remove"
	EventSelect   = "entity/select"
	EventDeselect = "entity/deselect"
	EventDblClick = "entity/dblclick"
)

// RemoveArgs is the payload of EventRemove.
type RemoveArgs struct {
	ID string `json:"id"`
}

// GeoEntity is anything with spatial presence.
type GeoEntity interface {
	event.Target
	event.Detachable

	ID() string
	Type() Type

	// Parent returns the entity this one bubbles events to, or nil.
	Parent() GeoEntity
	ParentID() string
	SetParent(parent GeoEntity)

	SetDirty(components ...Component)
	SetClean()
	IsDirty(c Component) bool
	IsRenderable() bool

	Show() error
	Hide()
	IsVisible() bool

	Style() render.Style
	PreviousStyle() render.Style
	SetStyle(s render.Style)
	ModifyStyle(fn func(*render.Style))
	SetSelected(selected bool)
	IsSelected() bool

	Translate(d geo.Vertex) error
	Scale(factor float64) error
	Rotate(degrees float64) error
	SetHeight(h float64)
	Height() float64
	SetElevation(e float64)
	Elevation() float64

	Centroid() geo.Vertex
	Area() float64
	Bounds() geo.Bounds
	Vertices() []geo.Vertex
	MoveVertex(i int, v geo.Vertex) error

	CreateHandles() ([]*Handle, error)
	Handles() []*Handle
	EntityHandle() *Handle
	RemoveHandles()

	Properties() map[string]any
	SetProperty(key string, value any)

	Remove() error
}

// Registry resolves entity IDs. It is implemented by Manager.
type Registry interface {
	// Entity looks up a live entity.
	Entity(id string) (GeoEntity, bool)

	// Detach forgets id. Unknown IDs are ignored.
	Detach(id string)

	// Invalidate records that the extent of id may have changed.
	Invalidate(id string)
}

// Env carries the collaborators an entity needs. Zero fields are replaced
// with working defaults.
type Env struct {
	Registry      Registry
	Bus           *event.Manager
	Backend       render.Backend
	Logger        *log.Logger
	SelectedStyle render.Style
}

func (e Env) withDefaults() Env {
	if e.Logger == nil {
		e.Logger = log.New(io.Discard, "", 0)
	}
	if e.Bus == nil {
		e.Bus = event.NewManager(e.Logger)
	}
	if e.Backend == nil {
		e.Backend = render.NewProxy()
	}
	if e.SelectedStyle == (render.Style{}) {
		e.SelectedStyle = render.DefaultSelectedStyle
	}
	return e
}

// Descendants returns the non-collection entities below e, depth first.
// A non-collection e returns itself.
func Descendants(e GeoEntity) []GeoEntity {
	c, ok := e.(*Collection)
	if !ok {
		return []GeoEntity{e}
	}
	var out []GeoEntity
	for _, child := range c.Children() {
		out = append(out, Descendants(child)...)
	}
	return out
}
