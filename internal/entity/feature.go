package entity

import (
	"slices"

	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
)

// DisplayMode selects which form of a Feature is shown.
type DisplayMode string

const (
	ModeNone      DisplayMode = ""
	ModeLine      DisplayMode = "line"
	ModeFootprint DisplayMode = "footprint"
	ModeExtrusion DisplayMode = "extrusion"
	ModeMesh      DisplayMode = "mesh"
	ModeImage     DisplayMode = "image"
)

// DisplayModes lists the selectable display modes.
var DisplayModes = []DisplayMode{ModeLine, ModeFootprint, ModeExtrusion, ModeMesh, ModeImage}

// Valid reports whether m is a selectable display mode.
func (m DisplayMode) Valid() bool {
	return slices.Contains(DisplayModes, m)
}

// slot maps a display mode to the form slot backing it. Extrusion shares the
// footprint polygon.
func (m DisplayMode) slot() DisplayMode {
	if m == ModeExtrusion {
		return ModeFootprint
	}
	return m
}

// Feature owns up to one form per display mode and shows exactly one of them.
//
// Geometry queries and transforms go to the active form only. Style, height
// and elevation go to every form so that switching modes keeps a consistent
// appearance.
type Feature struct {
	Base

	forms map[DisplayMode]GeoEntity
	mode  DisplayMode
}

// NewFeature creates a feature without forms. Its display mode is ModeNone
// until SetDisplayMode is called.
func NewFeature(env Env, id string) *Feature {
	f := &Feature{forms: make(map[DisplayMode]GeoEntity)}
	f.init(f, id, TypeFeature, env)
	f.build = func() error { return nil }
	f.AddEventListener(EventRemove, f.onFormRemoved)
	return f
}

// onFormRemoved forgets a form removed on its own and keeps its removal from
// bubbling past the feature.
func (f *Feature) onFormRemoved(ev *event.Event) error {
	args, ok := ev.Args.(RemoveArgs)
	if !ok || args.ID == f.id {
		return nil
	}
	for slot, form := range f.forms {
		if form.ID() != args.ID {
			continue
		}
		delete(f.forms, slot)
		if f.mode.slot() == slot {
			f.mode = ModeNone
		}
		ev.Cancel()
	}
	return nil
}

// SetForm registers e as the form for mode. Registering for ModeExtrusion
// fills the footprint slot. The form is reparented under the feature.
func (f *Feature) SetForm(mode DisplayMode, e GeoEntity) error {
	if f.removed {
		return apperror.Removed("SetForm", "feature "+f.id)
	}
	if !mode.Valid() {
		return apperror.Developer("SetForm", "invalid display mode %q", mode)
	}
	if e == nil {
		return apperror.Developer("SetForm", "form for %q is nil", mode)
	}
	slot := mode.slot()
	if slot == ModeFootprint {
		if _, ok := e.(*Polygon); !ok {
			return apperror.Developer("SetForm", "%s form must be a polygon, got %s", mode, e.Type())
		}
	}
	if old, ok := f.forms[slot]; ok && old != e {
		old.Hide()
	}
	e.SetParent(f)
	f.forms[slot] = e
	f.invalidateExtent()
	if f.visible && f.mode != ModeNone {
		return f.Show()
	}
	return nil
}

// Form returns the form backing mode, or nil.
func (f *Feature) Form(mode DisplayMode) GeoEntity {
	return f.forms[mode.slot()]
}

// Forms returns the registered forms keyed by slot.
func (f *Feature) Forms() map[DisplayMode]GeoEntity {
	out := make(map[DisplayMode]GeoEntity, len(f.forms))
	for k, v := range f.forms {
		out[k] = v
	}
	return out
}

// DisplayMode returns the active display mode.
func (f *Feature) DisplayMode() DisplayMode { return f.mode }

// ActiveForm returns the form of the active display mode, or nil.
func (f *Feature) ActiveForm() GeoEntity {
	if f.mode == ModeNone {
		return nil
	}
	return f.forms[f.mode.slot()]
}

// SetDisplayMode makes mode active. It fails with a developer error, leaving
// the mode unchanged, when no form backs mode.
func (f *Feature) SetDisplayMode(mode DisplayMode) error {
	if f.removed {
		return apperror.Removed("SetDisplayMode", "feature "+f.id)
	}
	if !mode.Valid() || f.forms[mode.slot()] == nil {
		return apperror.Developer("SetDisplayMode", "invalid display mode %q for feature %q", mode, f.id)
	}

	prev := f.ActiveForm()
	f.mode = mode
	active := f.ActiveForm()
	if prev != active {
		f.invalidateExtent()
	}
	if poly, ok := active.(*Polygon); ok {
		poly.SetExtruded(mode == ModeExtrusion)
	}
	if f.selected && prev != active {
		if prev != nil {
			prev.SetSelected(false)
		}
		active.SetSelected(true)
	}

	if f.visible {
		return f.Show()
	}
	f.Hide()
	return nil
}

// Show hides every inactive form and shows the active one.
func (f *Feature) Show() error {
	if f.removed {
		return apperror.Removed("Show", "feature "+f.id)
	}
	active := f.ActiveForm()
	if active == nil {
		return apperror.Developer("Show", "feature %q has no display mode", f.id)
	}
	for _, form := range f.forms {
		if form != active {
			form.Hide()
		}
	}
	if err := active.Show(); err != nil {
		return err
	}
	f.Base.SetClean()
	f.visible = true
	return nil
}

// Hide hides every form.
func (f *Feature) Hide() {
	for _, form := range f.forms {
		form.Hide()
	}
	f.visible = false
}

// SetDirty marks components dirty on every form.
func (f *Feature) SetDirty(components ...Component) {
	if len(f.forms) == 0 {
		f.Base.SetDirty(components...)
		return
	}
	for _, form := range f.forms {
		form.SetDirty(components...)
	}
}

// SetClean clears dirty components on the feature and every form.
func (f *Feature) SetClean() {
	f.Base.SetClean()
	for _, form := range f.forms {
		form.SetClean()
	}
}

// IsDirty reports whether c is dirty on the active form.
func (f *Feature) IsDirty(c Component) bool {
	if active := f.ActiveForm(); active != nil {
		return active.IsDirty(c)
	}
	return f.Base.IsDirty(c)
}

// IsRenderable reports whether the active form is renderable.
func (f *Feature) IsRenderable() bool {
	if active := f.ActiveForm(); active != nil {
		return active.IsRenderable()
	}
	return f.Base.IsRenderable()
}

// SetStyle sets the style of every form.
func (f *Feature) SetStyle(s render.Style) {
	for _, form := range f.forms {
		form.SetStyle(s)
	}
	if f.selected {
		f.preSelection = s
		return
	}
	f.recordStyle(s)
}

// SetSelected selects or deselects the active form, then the feature.
func (f *Feature) SetSelected(selected bool) {
	if selected == f.selected {
		return
	}
	if active := f.ActiveForm(); active != nil {
		active.SetSelected(selected)
	}
	if selected {
		f.preSelection = f.style
		f.recordStyle(f.env.SelectedStyle)
		f.selected = true
		return
	}
	f.selected = false
	f.recordStyle(f.preSelection)
}

// SetHeight sets the height of every form.
func (f *Feature) SetHeight(h float64) {
	f.height = h
	for _, form := range f.forms {
		form.SetHeight(h)
	}
}

// SetElevation sets the elevation of every form.
func (f *Feature) SetElevation(e float64) {
	f.elevation = e
	for _, form := range f.forms {
		form.SetElevation(e)
	}
}

func (f *Feature) activeOrErr(op string) (GeoEntity, error) {
	if f.removed {
		return nil, apperror.Removed(op, "feature "+f.id)
	}
	active := f.ActiveForm()
	if active == nil {
		return nil, apperror.Developer(op, "feature %q has no display mode", f.id)
	}
	return active, nil
}

// Translate moves the active form.
func (f *Feature) Translate(d geo.Vertex) error {
	active, err := f.activeOrErr("Translate")
	if err != nil {
		return err
	}
	return active.Translate(d)
}

// Scale scales the active form.
func (f *Feature) Scale(factor float64) error {
	active, err := f.activeOrErr("Scale")
	if err != nil {
		return err
	}
	return active.Scale(factor)
}

// Rotate rotates the active form.
func (f *Feature) Rotate(degrees float64) error {
	active, err := f.activeOrErr("Rotate")
	if err != nil {
		return err
	}
	return active.Rotate(degrees)
}

// MoveVertex moves a vertex of the active form.
func (f *Feature) MoveVertex(i int, v geo.Vertex) error {
	active, err := f.activeOrErr("MoveVertex")
	if err != nil {
		return err
	}
	return active.MoveVertex(i, v)
}

// Centroid returns the centroid of the active form.
func (f *Feature) Centroid() geo.Vertex {
	if active := f.ActiveForm(); active != nil {
		return active.Centroid()
	}
	return geo.Vertex{}
}

// Area returns the area of the active form.
func (f *Feature) Area() float64 {
	if active := f.ActiveForm(); active != nil {
		return active.Area()
	}
	return 0
}

// Bounds returns the bounds of the active form.
func (f *Feature) Bounds() geo.Bounds {
	if active := f.ActiveForm(); active != nil {
		return active.Bounds()
	}
	return geo.Bounds{}
}

// Vertices returns the vertices of the active form.
func (f *Feature) Vertices() []geo.Vertex {
	if active := f.ActiveForm(); active != nil {
		return active.Vertices()
	}
	return nil
}

// CreateHandles creates handles on the active form.
func (f *Feature) CreateHandles() ([]*Handle, error) {
	active, err := f.activeOrErr("CreateHandles")
	if err != nil {
		return nil, err
	}
	return active.CreateHandles()
}

// Handles returns the vertex handles of the active form.
func (f *Feature) Handles() []*Handle {
	if active := f.ActiveForm(); active != nil {
		return active.Handles()
	}
	return nil
}

// EntityHandle returns the entity handle of the active form.
func (f *Feature) EntityHandle() *Handle {
	if active := f.ActiveForm(); active != nil {
		return active.EntityHandle()
	}
	return nil
}

// RemoveHandles removes the handles of every form.
func (f *Feature) RemoveHandles() {
	for _, form := range f.forms {
		form.RemoveHandles()
	}
}

// Remove removes every form, then the feature.
func (f *Feature) Remove() error {
	if f.removed {
		return nil
	}
	for _, slot := range []DisplayMode{ModeLine, ModeFootprint, ModeMesh, ModeImage} {
		if form, ok := f.forms[slot]; ok {
			if err := form.Remove(); err != nil {
				return err
			}
		}
	}
	return f.Base.Remove()
}
