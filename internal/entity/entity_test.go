package entity

import (
	"errors"
	"testing"

	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
)

func newTestManager() (*Manager, *render.Recorder) {
	rec := render.NewRecorder()
	m := NewManager(event.NewManager(nil), rec, DefaultManagerOptions())
	return m, rec
}

func square(lon, lat, size float64) []geo.Vertex {
	return []geo.Vertex{
		geo.V(lon, lat),
		geo.V(lon+size, lat),
		geo.V(lon+size, lat+size),
		geo.V(lon, lat+size),
	}
}

var styleA = render.Style{
	FillColour:   render.RGB(10, 20, 30),
	BorderColour: render.RGB(40, 50, 60),
	BorderWidth:  3,
}

var styleB = render.Style{
	FillColour:   render.RGB(200, 0, 0),
	BorderColour: render.RGB(0, 0, 200),
	BorderWidth:  1,
}

func TestRenderableMatchesDirtySet(t *testing.T) {
	m, rec := newTestManager()
	p := NewPolygon(m.Env(), "p", square(144.96, -37.81, 0.01), nil)
	if err := m.Add(p); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	check := func(stage string) {
		t.Helper()
		empty := len(p.DirtyComponents()) == 0
		if p.IsRenderable() != empty {
			t.Errorf("%s: IsRenderable()=%v but dirty set is %v", stage, p.IsRenderable(), p.DirtyComponents())
		}
	}

	check("new")
	if p.IsRenderable() {
		t.Error("Expected a new entity to need a build")
	}

	if err := p.Show(); err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	check("shown")
	if !p.IsRenderable() {
		t.Error("Expected entity to be renderable after Show")
	}
	if rec.Draws("p") != 1 {
		t.Errorf("Expected 1 draw, got %d", rec.Draws("p"))
	}

	p.SetDirty(ComponentStyle)
	check("style dirty")
	if p.IsRenderable() {
		t.Error("Expected dirty style to block rendering")
	}
	p.SetClean()
	check("clean")

	p.Hide()
	if err := p.Translate(geo.V(0.001, 0)); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	check("translated while hidden")
	if !p.IsDirty(ComponentVertices) {
		t.Error("Expected vertices to be dirty after translating a hidden entity")
	}

	if err := p.Show(); err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	check("shown again")
	if rec.Draws("p") != 2 {
		t.Errorf("Expected a rebuild on Show, got %d draws", rec.Draws("p"))
	}
	if !rec.Visible("p") {
		t.Error("Expected backend to show p")
	}
}

func TestShowWithoutBuild(t *testing.T) {
	p := &Point{}
	p.init(p, "bare", TypePoint, Env{})

	err := p.Show()
	if !errors.Is(err, apperror.ErrDeveloper) {
		t.Fatalf("Expected developer error, got %v", err)
	}
}

func TestStyleRoundTrip(t *testing.T) {
	m, _ := newTestManager()
	p := NewPolygon(m.Env(), "p", square(0, 0, 1), nil)
	p.SetStyle(styleA)

	p.SetSelected(true)
	if !p.Style().Equals(render.DefaultSelectedStyle) {
		t.Errorf("Expected selected style, got %+v", p.Style())
	}
	p.SetSelected(false)
	if !p.Style().Equals(styleA) {
		t.Errorf("Expected style A after deselect, got %+v", p.Style())
	}

	p.SetSelected(true)
	p.SetSelected(true)
	p.SetSelected(false)
	if !p.Style().Equals(styleA) {
		t.Errorf("Expected style A after double select, got %+v", p.Style())
	}

	p.SetSelected(true)
	p.SetStyle(styleB)
	if !p.Style().Equals(render.DefaultSelectedStyle) {
		t.Errorf("Expected selected style to stay while selected, got %+v", p.Style())
	}
	p.SetSelected(false)
	if !p.Style().Equals(styleB) {
		t.Errorf("Expected style set during selection after deselect, got %+v", p.Style())
	}
	if !p.PreviousStyle().Equals(render.DefaultSelectedStyle) {
		t.Errorf("Expected previous style to be the selected style, got %+v", p.PreviousStyle())
	}
}

func TestModifyStyle(t *testing.T) {
	p := NewLine(Env{}, "l", []geo.Vertex{geo.V(0, 0), geo.V(1, 1)})
	p.SetStyle(styleA)
	p.ModifyStyle(func(s *render.Style) { s.BorderWidth = 7 })

	want := styleA
	want.BorderWidth = 7
	if !p.Style().Equals(want) {
		t.Errorf("Expected %+v, got %+v", want, p.Style())
	}
}

func TestFeatureStyleRoundTrip(t *testing.T) {
	m, _ := newTestManager()
	f := NewFeature(m.Env(), "f")
	poly := NewPolygon(m.Env(), "f:footprint", square(0, 0, 1), nil)
	line := NewLine(m.Env(), "f:line", square(0, 0, 1))
	if err := f.SetForm(ModeFootprint, poly); err != nil {
		t.Fatal(err)
	}
	if err := f.SetForm(ModeLine, line); err != nil {
		t.Fatal(err)
	}
	if err := f.SetDisplayMode(ModeFootprint); err != nil {
		t.Fatal(err)
	}
	f.SetStyle(styleA)

	f.SetSelected(true)
	f.SetSelected(true)
	if !poly.IsSelected() || !f.IsSelected() {
		t.Fatal("Expected active form and feature to be selected")
	}
	if line.IsSelected() {
		t.Error("Expected inactive form to stay unselected")
	}

	f.SetSelected(false)
	for _, e := range []GeoEntity{f, poly, line} {
		if !e.Style().Equals(styleA) {
			t.Errorf("%s: expected style A, got %+v", e.ID(), e.Style())
		}
	}
}

func TestHandleWriteBack(t *testing.T) {
	m, rec := newTestManager()
	p := NewPolygon(m.Env(), "p", square(10, 10, 1), nil)
	if err := m.Add(p); err != nil {
		t.Fatal(err)
	}

	handles, err := p.CreateHandles()
	if err != nil {
		t.Fatalf("CreateHandles failed: %v", err)
	}
	if len(handles) != 5 {
		t.Fatalf("Expected 4 vertex handles and 1 entity handle, got %d", len(handles))
	}

	h := p.Handles()[1]
	if err := h.Translate(geo.V(0.5, 0.25)); err != nil {
		t.Fatalf("Translate failed: %v", err)
	}
	want := geo.V(11.5, 10.25)
	if got := p.Vertices()[1]; !got.Equals(want) {
		t.Errorf("Expected owner vertex %v, got %v", want, got)
	}
	if !h.Target().Equals(want) {
		t.Errorf("Expected handle target %v, got %v", want, h.Target())
	}
	if !p.IsDirty(ComponentVertices) {
		t.Error("Expected owner vertices to be dirty")
	}
	if !p.EntityHandle().Target().Equals(p.Centroid()) {
		t.Errorf("Expected entity handle on centroid %v, got %v", p.Centroid(), p.EntityHandle().Target())
	}

	if err := p.Show(); err != nil {
		t.Fatal(err)
	}
	if err := p.EntityHandle().Translate(geo.V(1, 0)); err != nil {
		t.Fatalf("entity handle Translate failed: %v", err)
	}
	prim, _ := rec.Primitive("p")
	if !prim.Vertices[0].Equals(geo.V(11, 10)) {
		t.Errorf("Expected rebuilt primitive to be translated, got %v", prim.Vertices[0])
	}
	if !p.IsRenderable() {
		t.Error("Expected visible owner to be rebuilt after write-back")
	}
}

func TestRemovedHandleFailsFast(t *testing.T) {
	p := NewPolygon(Env{}, "p", square(0, 0, 1), nil)
	if _, err := p.CreateHandles(); err != nil {
		t.Fatal(err)
	}
	h := p.Handles()[0]
	p.RemoveHandles()

	if !h.IsRemoved() {
		t.Fatal("Expected handle to be removed")
	}
	if h.Owner() != nil {
		t.Error("Expected removed handle to drop its owner")
	}
	if err := h.Translate(geo.V(1, 1)); !errors.Is(err, apperror.ErrRemoved) {
		t.Errorf("Expected ErrRemoved, got %v", err)
	}
	if err := h.Show(); !errors.Is(err, apperror.ErrRemoved) {
		t.Errorf("Expected ErrRemoved from Show, got %v", err)
	}
	if got := p.Vertices()[0]; !got.Equals(geo.V(0, 0)) {
		t.Errorf("Expected owner untouched, got %v", got)
	}
}

func TestNewHandleNeedsOwnerOrTarget(t *testing.T) {
	if _, err := NewHandle(Env{}, nil, nil, 0); !errors.Is(err, apperror.ErrDeveloper) {
		t.Errorf("Expected developer error, got %v", err)
	}
	v := geo.V(1, 2)
	h, err := NewHandle(Env{}, nil, &v, 3)
	if err != nil {
		t.Fatal(err)
	}
	if h.Index() != -1 {
		t.Errorf("Expected ownerless handle index -1, got %d", h.Index())
	}
}

func TestFeatureInvalidDisplayMode(t *testing.T) {
	f := NewFeature(Env{}, "f")
	poly := NewPolygon(Env{}, "f:footprint", square(0, 0, 1), nil)
	if err := f.SetForm(ModeFootprint, poly); err != nil {
		t.Fatal(err)
	}
	if err := f.SetDisplayMode(ModeFootprint); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		mode DisplayMode
	}{
		{"no mesh form", ModeMesh},
		{"unknown mode", DisplayMode("hologram")},
		{"none", ModeNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.SetDisplayMode(tt.mode)
			if !errors.Is(err, apperror.ErrDeveloper) {
				t.Fatalf("Expected developer error, got %v", err)
			}
			if f.DisplayMode() != ModeFootprint {
				t.Errorf("Expected mode to stay footprint, got %q", f.DisplayMode())
			}
		})
	}

	if err := f.SetDisplayMode(ModeExtrusion); err != nil {
		t.Fatalf("Expected extrusion to use the footprint form: %v", err)
	}
	if !poly.IsExtruded() {
		t.Error("Expected polygon to be extruded")
	}
}

func TestFeatureDelegatesToActiveForm(t *testing.T) {
	_, rec := newTestManager()
	env := Env{Backend: rec}
	f := NewFeature(env, "f")
	poly := NewPolygon(env, "f:footprint", square(0, 0, 1), nil)
	line := NewLine(env, "f:line", []geo.Vertex{geo.V(5, 5), geo.V(6, 6)})
	f.SetForm(ModeFootprint, poly)
	f.SetForm(ModeLine, line)
	f.SetDisplayMode(ModeLine)

	if err := f.Show(); err != nil {
		t.Fatal(err)
	}
	if !rec.Visible("f:line") || rec.Visible("f:footprint") {
		t.Error("Expected only the line form to be visible")
	}
	if !f.Centroid().Equals(line.Centroid()) {
		t.Errorf("Expected centroid of line, got %v", f.Centroid())
	}

	if err := f.SetDisplayMode(ModeFootprint); err != nil {
		t.Fatal(err)
	}
	if !rec.Visible("f:footprint") || rec.Visible("f:line") {
		t.Error("Expected only the footprint to be visible after switching")
	}
	if f.Area() != poly.Area() {
		t.Errorf("Expected area %f, got %f", poly.Area(), f.Area())
	}

	f.SetHeight(25)
	if poly.Height() != 25 || line.Height() != 25 {
		t.Error("Expected height on every form")
	}
}

func TestFeatureWithoutModeCannotShow(t *testing.T) {
	f := NewFeature(Env{}, "f")
	if err := f.Show(); !errors.Is(err, apperror.ErrDeveloper) {
		t.Errorf("Expected developer error, got %v", err)
	}
	if err := f.Translate(geo.V(1, 1)); !errors.Is(err, apperror.ErrDeveloper) {
		t.Errorf("Expected developer error from Translate, got %v", err)
	}
}

func TestPolygonArea(t *testing.T) {
	ring := square(0, 0, 0.01)
	hole := square(0.0025, 0.0025, 0.005)
	solid := NewPolygon(Env{}, "solid", ring, nil)
	holed := NewPolygon(Env{}, "holed", ring, [][]geo.Vertex{hole})

	if solid.Area() <= 0 {
		t.Fatalf("Expected positive area, got %f", solid.Area())
	}
	ratio := holed.Area() / solid.Area()
	if ratio < 0.74 || ratio > 0.76 {
		t.Errorf("Expected hole to remove a quarter of the area, ratio %f", ratio)
	}
}

func TestImageCorners(t *testing.T) {
	img := NewImage(Env{}, "img", "tile.png", []geo.Vertex{geo.V(0, 0), geo.V(2, 1)})
	if len(img.Vertices()) != 4 {
		t.Fatalf("Expected 4 corners, got %d", len(img.Vertices()))
	}
	if !img.Centroid().Equals(geo.V(1, 0.5)) {
		t.Errorf("Expected centre (1, 0.5), got %v", img.Centroid())
	}
}
