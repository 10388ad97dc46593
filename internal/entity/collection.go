package entity

import (
	"errors"

	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
	"github.com/beetlebugorg/atlas/internal/store"
)

// Collection groups entities and applies operations to all of them.
//
// Children stay owned by the Manager; the collection only tracks them. A
// collection is visible when any child is visible, but renderable and
// selected only when every child is.
type Collection struct {
	Base

	children *store.Store[GeoEntity]
}

// NewCollection creates an empty collection.
func NewCollection(env Env, id string) *Collection {
	c := &Collection{children: store.New[GeoEntity]()}
	c.init(c, id, TypeCollection, env)
	c.SetClean()
	c.build = func() error { return nil }
	c.AddEventListener(EventRemove, c.onChildRemoved)
	return c
}

// onChildRemoved detaches a removed child and stops the event there.
func (c *Collection) onChildRemoved(ev *event.Event) error {
	args, ok := ev.Args.(RemoveArgs)
	if !ok || args.ID == c.id {
		return nil
	}
	if _, tracked := c.children.Remove(args.ID); tracked {
		ev.Cancel()
	}
	return nil
}

// AddEntity looks up id and adds it as a child. Adding a child twice logs a
// warning and does nothing.
func (c *Collection) AddEntity(id string) error {
	if c.env.Registry == nil {
		return apperror.NotFound("entity", id)
	}
	e, ok := c.env.Registry.Entity(id)
	if !ok {
		return apperror.NotFound("entity", id)
	}
	return c.AddChild(e)
}

// AddChild adds e as a child.
func (c *Collection) AddChild(e GeoEntity) error {
	if c.removed {
		return apperror.Removed("AddChild", "collection "+c.id)
	}
	if e == nil {
		return apperror.Developer("AddChild", "child is nil")
	}
	if e.ID() == c.id {
		return apperror.Developer("AddChild", "collection %q cannot contain itself", c.id)
	}
	if !c.children.Add(e) {
		c.env.Logger.Printf("entity: collection %q already contains %q", c.id, e.ID())
		return nil
	}
	e.SetParent(c)
	c.invalidateExtent()
	return nil
}

// RemoveEntity detaches the child with id. The child itself is kept.
func (c *Collection) RemoveEntity(id string) error {
	e, ok := c.children.Remove(id)
	if !ok {
		return apperror.NotFound("child", id)
	}
	if e.ParentID() == c.id {
		e.SetParent(nil)
	}
	c.invalidateExtent()
	return nil
}

// Children returns the children in insertion order.
func (c *Collection) Children() []GeoEntity {
	return c.children.Items()
}

// Has reports whether id is a child.
func (c *Collection) Has(id string) bool {
	return c.children.Has(id)
}

// Len returns the number of children.
func (c *Collection) Len() int {
	return c.children.Len()
}

func (c *Collection) each(fn func(GeoEntity) error) error {
	var errs []error
	c.children.ForEach(func(e GeoEntity) {
		if err := fn(e); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

// Show shows every child.
func (c *Collection) Show() error {
	if c.removed {
		return apperror.Removed("Show", "collection "+c.id)
	}
	if err := c.each(GeoEntity.Show); err != nil {
		return err
	}
	c.visible = true
	return nil
}

// Hide hides every child.
func (c *Collection) Hide() {
	c.children.ForEach(GeoEntity.Hide)
	c.visible = false
}

// IsVisible reports whether any child is visible.
func (c *Collection) IsVisible() bool {
	return c.children.Some(GeoEntity.IsVisible)
}

// IsRenderable reports whether every child is renderable.
func (c *Collection) IsRenderable() bool {
	return c.children.Every(GeoEntity.IsRenderable)
}

// IsDirty reports whether c is dirty on any child.
func (c *Collection) IsDirty(comp Component) bool {
	return c.children.Some(func(e GeoEntity) bool { return e.IsDirty(comp) })
}

// SetDirty marks components dirty on every child.
func (c *Collection) SetDirty(components ...Component) {
	c.children.ForEach(func(e GeoEntity) { e.SetDirty(components...) })
}

// SetClean clears dirty components on every child.
func (c *Collection) SetClean() {
	c.Base.SetClean()
	if c.children != nil {
		c.children.ForEach(GeoEntity.SetClean)
	}
}

// IsSelected reports whether every child is selected. An empty collection
// reports its own selection state.
func (c *Collection) IsSelected() bool {
	if c.children.Len() == 0 {
		return c.selected
	}
	return c.children.Every(GeoEntity.IsSelected)
}

// SetSelected selects or deselects every child, then the collection.
func (c *Collection) SetSelected(selected bool) {
	c.children.ForEach(func(e GeoEntity) { e.SetSelected(selected) })
	if selected == c.selected {
		return
	}
	if selected {
		c.preSelection = c.style
		c.recordStyle(c.env.SelectedStyle)
		c.selected = true
		return
	}
	c.selected = false
	c.recordStyle(c.preSelection)
}

// SetStyle sets the style of every child.
func (c *Collection) SetStyle(s render.Style) {
	c.children.ForEach(func(e GeoEntity) { e.SetStyle(s) })
	if c.selected {
		c.preSelection = s
		return
	}
	c.recordStyle(s)
}

// ModifyStyle applies fn to the style of every child.
func (c *Collection) ModifyStyle(fn func(*render.Style)) {
	c.children.ForEach(func(e GeoEntity) { e.ModifyStyle(fn) })
	s := c.style
	fn(&s)
	c.recordStyle(s)
}

// SetHeight sets the height of every child.
func (c *Collection) SetHeight(h float64) {
	c.height = h
	c.children.ForEach(func(e GeoEntity) { e.SetHeight(h) })
}

// SetElevation sets the elevation of every child.
func (c *Collection) SetElevation(e float64) {
	c.elevation = e
	c.children.ForEach(func(child GeoEntity) { child.SetElevation(e) })
}

// Translate moves every child by d.
func (c *Collection) Translate(d geo.Vertex) error {
	if c.removed {
		return apperror.Removed("Translate", "collection "+c.id)
	}
	err := c.each(func(e GeoEntity) error { return e.Translate(d) })
	c.afterTransform()
	return err
}

// Scale scales the collection around its centroid, keeping the children's
// relative layout.
func (c *Collection) Scale(factor float64) error {
	if c.removed {
		return apperror.Removed("Scale", "collection "+c.id)
	}
	origin := c.Centroid()
	err := c.each(func(e GeoEntity) error {
		before := e.Centroid()
		if err := e.Scale(factor); err != nil {
			return err
		}
		return e.Translate(before.ScaleFrom(origin, factor).Sub(before))
	})
	c.afterTransform()
	return err
}

// Rotate rotates the collection around its centroid, keeping the children's
// relative layout.
func (c *Collection) Rotate(degrees float64) error {
	if c.removed {
		return apperror.Removed("Rotate", "collection "+c.id)
	}
	origin := c.Centroid()
	err := c.each(func(e GeoEntity) error {
		before := e.Centroid()
		if err := e.Rotate(degrees); err != nil {
			return err
		}
		return e.Translate(before.RotateAbout(origin, degrees).Sub(before))
	})
	c.afterTransform()
	return err
}

func (c *Collection) afterTransform() {
	if c.entityHandle != nil {
		c.entityHandle.setTarget(c.Centroid())
	}
	c.invalidateExtent()
}

// Centroid returns the centroid of the single descendant, or of the convex
// hull of all descendant vertices. It is computed on every call.
func (c *Collection) Centroid() geo.Vertex {
	leaves := Descendants(c)
	switch len(leaves) {
	case 0:
		return geo.Vertex{}
	case 1:
		return leaves[0].Centroid()
	}
	var vs []geo.Vertex
	for _, e := range leaves {
		vs = append(vs, e.Vertices()...)
	}
	return geo.Centroid(geo.ConvexHull(vs))
}

// Area returns the sum of the children's areas.
func (c *Collection) Area() float64 {
	total := 0.0
	c.children.ForEach(func(e GeoEntity) { total += e.Area() })
	return total
}

// Bounds returns the union of the children's bounds.
func (c *Collection) Bounds() geo.Bounds {
	var b geo.Bounds
	c.children.ForEach(func(e GeoEntity) { b = b.Union(e.Bounds()) })
	return b
}

// Vertices returns the convex hull of the descendant vertices.
func (c *Collection) Vertices() []geo.Vertex {
	var vs []geo.Vertex
	for _, e := range Descendants(c) {
		vs = append(vs, e.Vertices()...)
	}
	return geo.ConvexHull(vs)
}

// MoveVertex is not supported by collections.
func (c *Collection) MoveVertex(int, geo.Vertex) error {
	return apperror.Developer("Collection.MoveVertex", "collections have no vertices of their own")
}

// CreateHandles creates a single entity handle at the centroid.
func (c *Collection) CreateHandles() ([]*Handle, error) {
	if c.removed {
		return nil, apperror.Removed("CreateHandles", "collection "+c.id)
	}
	if c.entityHandle == nil {
		h, err := NewHandle(c.handleEnv(), c, nil, -1)
		if err != nil {
			return nil, err
		}
		c.entityHandle = h
	}
	return []*Handle{c.entityHandle}, nil
}

// Remove removes every child, then the collection.
func (c *Collection) Remove() error {
	if c.removed {
		return nil
	}
	if err := c.each(GeoEntity.Remove); err != nil {
		return err
	}
	return c.Base.Remove()
}
