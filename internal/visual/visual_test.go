package visual

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/internal/entity"
	"github.com/beetlebugorg/atlas/internal/event"
	"github.com/beetlebugorg/atlas/internal/render"
	"github.com/beetlebugorg/atlas/pkg/c3ml"
)

var (
	black = render.RGB(0, 0, 0)
	white = render.RGB(0xff, 0xff, 0xff)
)

func square(id string, lon float64) c3ml.Descriptor {
	return c3ml.Descriptor{
		ID:          id,
		Type:        c3ml.TypePolygon,
		Coordinates: [][]float64{{lon, 0}, {lon + 1, 0}, {lon + 1, 1}, {lon, 1}},
		Show:        true,
	}
}

func newEntities(t *testing.T, ds ...c3ml.Descriptor) *entity.Manager {
	t.Helper()
	m := entity.NewManager(event.NewManager(nil), render.NewRecorder(), entity.DefaultManagerOptions())
	if _, err := m.BulkCreate(ds); err != nil {
		t.Fatal(err)
	}
	return m
}

func fill(t *testing.T, entities *entity.Manager, id string) render.Colour {
	t.Helper()
	e, err := entities.GetByID(id)
	if err != nil {
		t.Fatal(err)
	}
	return e.Style().FillColour
}

func height(t *testing.T, entities *entity.Manager, id string) float64 {
	t.Helper()
	e, err := entities.GetByID(id)
	if err != nil {
		t.Fatal(err)
	}
	return e.Height()
}

func TestColourProjection(t *testing.T) {
	entities := newEntities(t, square("a", 0), square("b", 2), square("c", 4))
	m := NewManager(entities, Options{})

	p := NewColourProjection("density", map[string]float64{"a": 0, "b": 5, "c": 10}, black, white)
	if err := m.AddProjection(p); err != nil {
		t.Fatal(err)
	}
	if err := m.Render(ArtifactColour); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		id   string
		want render.Colour
	}{
		{"a", black},
		{"b", render.RGB(0x80, 0x80, 0x80)},
		{"c", white},
	}
	for _, tt := range tests {
		if got := fill(t, entities, tt.id); got != tt.want {
			t.Errorf("Expected %s filled %v, got %v", tt.id, tt.want, got)
		}
	}

	if err := m.Unrender(ArtifactColour); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b", "c"} {
		if got := fill(t, entities, id); got != render.DefaultStyle.FillColour {
			t.Errorf("Expected %s restored to %v, got %v", id, render.DefaultStyle.FillColour, got)
		}
	}
	if m.IsRendered(ArtifactColour) {
		t.Error("Expected colour unrendered")
	}
}

func TestColourProjectionKeepsSelection(t *testing.T) {
	entities := newEntities(t, square("a", 0), square("b", 2))
	m := NewManager(entities, Options{})
	a, _ := entities.GetByID("a")
	a.SetSelected(true)

	p := NewColourProjection("p", map[string]float64{"a": 1, "b": 2}, black, white)
	if err := m.AddProjection(p); err != nil {
		t.Fatal(err)
	}
	if err := m.Render(ArtifactColour); err != nil {
		t.Fatal(err)
	}
	if got := a.Style(); !got.Equals(render.DefaultSelectedStyle) {
		t.Errorf("Expected a to keep the selected style, got %v", got)
	}
	a.SetSelected(false)
	if got := a.Style().FillColour; got != black {
		t.Errorf("Expected the projected colour after deselect, got %v", got)
	}
}

func TestHeightProjectionOnCollection(t *testing.T) {
	entities := newEntities(t,
		square("a", 0), square("b", 2),
		c3ml.Descriptor{ID: "block", Type: c3ml.TypeCollection, Children: []string{"a", "b"}},
	)
	m := NewManager(entities, Options{})

	if err := m.AddProjection(NewHeightProjection("floors", map[string]float64{"block": 3}, 10)); err != nil {
		t.Fatal(err)
	}
	if err := m.Render(ArtifactHeight); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b"} {
		if h := height(t, entities, id); h != 30 {
			t.Errorf("Expected %s at 30m, got %v", id, h)
		}
	}
	if err := m.RemoveProjection(ArtifactHeight); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"a", "b"} {
		if h := height(t, entities, id); h != 0 {
			t.Errorf("Expected %s back at 0m, got %v", id, h)
		}
	}
	if m.Projection(ArtifactHeight) != nil {
		t.Error("Expected the projection removed")
	}
}

func TestAddProjectionReplaces(t *testing.T) {
	entities := newEntities(t, square("a", 0))
	m := NewManager(entities, Options{})

	var events []string
	for _, name := range []string{EventRenderComplete, EventUnrenderComplete} {
		entities.Bus().AddEventHandler(event.Intern, name, func(ev *event.Event) error {
			events = append(events, ev.Name+" "+ev.Args.(ArtifactArgs).ID)
			return nil
		})
	}

	first := NewColourProjection("first", map[string]float64{"a": 1}, black, black)
	if err := m.AddProjection(first); err != nil {
		t.Fatal(err)
	}
	if err := m.Render(ArtifactColour); err != nil {
		t.Fatal(err)
	}
	second := NewColourProjection("second", map[string]float64{"a": 1}, white, white)
	if err := m.AddProjection(second); err != nil {
		t.Fatal(err)
	}

	if got := fill(t, entities, "a"); got != render.DefaultStyle.FillColour {
		t.Errorf("Expected the replaced projection undone, got %v", got)
	}
	if m.Projection(ArtifactColour) != Projection(second) {
		t.Error("Expected second to own the colour artifact")
	}
	want := []string{
		EventRenderComplete + " first",
		EventUnrenderComplete + " first",
	}
	if len(events) != len(want) || events[0] != want[0] || events[1] != want[1] {
		t.Errorf("Expected %v, got %v", want, events)
	}
}

func TestUnknownEntityFailsWithoutChanges(t *testing.T) {
	entities := newEntities(t, square("a", 0))
	m := NewManager(entities, Options{})

	p := NewHeightProjection("p", map[string]float64{"a": 5, "ghost": 1}, 1)
	if err := m.AddProjection(p); err != nil {
		t.Fatal(err)
	}
	err := m.Render(ArtifactHeight)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("Expected not found, got %v", err)
	}
	if h := height(t, entities, "a"); h != 0 {
		t.Errorf("Expected a untouched, got %v", h)
	}
	if err := m.Render("texture"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Expected not found for an empty artifact, got %v", err)
	}
}

func frames(n int) []Projection {
	out := make([]Projection, n)
	for i := range out {
		out[i] = NewHeightProjection("f", map[string]float64{"a": float64(i + 1)}, 10)
	}
	return out
}

func TestDynamicStepping(t *testing.T) {
	entities := newEntities(t, square("a", 0))
	m := NewManager(entities, Options{})

	d, err := NewDynamicProjection("growth", frames(3), time.Hour, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.AddDynamic(d); err != nil {
		t.Fatal(err)
	}
	if err := m.Start("growth"); err != nil {
		t.Fatal(err)
	}
	if d.State() != Playing || d.Frame() != 0 || height(t, entities, "a") != 10 {
		t.Fatalf("Expected frame 0 on start, got %v frame %d at %vm", d.State(), d.Frame(), height(t, entities, "a"))
	}

	for want := 20.0; want <= 30; want += 10 {
		if err := m.Step("growth"); err != nil {
			t.Fatal(err)
		}
		if h := height(t, entities, "a"); h != want {
			t.Errorf("Expected %vm, got %v", want, h)
		}
	}
	if err := m.Step("growth"); err != nil {
		t.Fatal(err)
	}
	if d.State() != Stopped || height(t, entities, "a") != 30 {
		t.Errorf("Expected playback to stop on the last frame, got %v at %vm", d.State(), height(t, entities, "a"))
	}

	if err := m.Stop("growth"); err != nil {
		t.Fatal(err)
	}
	if h := height(t, entities, "a"); h != 0 {
		t.Errorf("Expected stop to undo the frame, got %v", h)
	}
	if m.Projection(ArtifactHeight) != nil {
		t.Error("Expected stop to remove the frame")
	}

	if err := m.Pause("ghost"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Expected not found, got %v", err)
	}
}

func TestDynamicLoops(t *testing.T) {
	entities := newEntities(t, square("a", 0))
	m := NewManager(entities, Options{})
	d, _ := NewDynamicProjection("loop", frames(2), time.Hour, true)
	m.AddDynamic(d)

	if err := m.Start("loop"); err != nil {
		t.Fatal(err)
	}
	m.Step("loop")
	m.Step("loop")
	if d.Frame() != 0 || d.State() != Playing {
		t.Errorf("Expected a loop back to frame 0, got frame %d %v", d.Frame(), d.State())
	}
	if err := m.Pause("loop"); err != nil {
		t.Fatal(err)
	}
	if d.State() != Paused || height(t, entities, "a") != 10 {
		t.Errorf("Expected pause to keep frame 0, got %v at %vm", d.State(), height(t, entities, "a"))
	}
	if err := m.RemoveAll(); err != nil {
		t.Fatal(err)
	}
	if m.Dynamic("loop") != nil || height(t, entities, "a") != 0 {
		t.Error("Expected RemoveAll to drop the dynamic projection and undo its frame")
	}
}

func TestDynamicPlaysOnTicker(t *testing.T) {
	entities := newEntities(t, square("a", 0))
	var mu sync.Mutex
	m := NewManager(entities, Options{Serialize: func(fn func()) {
		mu.Lock()
		defer mu.Unlock()
		fn()
	}})

	rendered := make(chan string, 8)
	entities.Bus().AddEventHandler(event.Intern, EventRenderComplete, func(ev *event.Event) error {
		rendered <- ev.Args.(ArtifactArgs).ID
		return nil
	})

	d, err := NewDynamicProjection("tick", frames(3), 5*time.Millisecond, false)
	if err != nil {
		t.Fatal(err)
	}
	mu.Lock()
	m.AddDynamic(d)
	err = m.Start("tick")
	mu.Unlock()
	if err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for i := 0; i < 3; i++ {
		select {
		case <-rendered:
		case <-timeout:
			t.Fatalf("Expected 3 frames, got %d", i)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		state := d.State()
		h := height(t, entities, "a")
		mu.Unlock()
		if state == Stopped {
			if h != 30 {
				t.Errorf("Expected the last frame on screen, got %vm", h)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("Expected playback to stop after the last frame")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewDynamicProjectionRejectsNilFrames(t *testing.T) {
	tests := []struct {
		name   string
		frames []Projection
	}{
		{"first", []Projection{nil}},
		{"later", []Projection{NewHeightProjection("h", nil, 1), nil}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDynamicProjection("d", tt.frames, time.Second, false); !errors.Is(err, apperror.ErrDeveloper) {
				t.Errorf("Expected developer error, got %v", err)
			}
		})
	}
}

func TestBindEvents(t *testing.T) {
	entities := newEntities(t, square("a", 0), square("b", 2))
	m := NewManager(entities, Options{})
	m.BindEvents()
	m.BindEvents()
	bus := entities.Bus()

	err := bus.HandleExternalEvent(EventAdd, map[string]any{
		"id":       "p",
		"artifact": "colour",
		"values":   map[string]float64{"a": 1, "b": 2},
		"low":      "#000000",
		"high":     "#ffffff",
		"render":   true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if fill(t, entities, "a") != black || fill(t, entities, "b") != white {
		t.Errorf("Expected a black and b white, got %v and %v", fill(t, entities, "a"), fill(t, entities, "b"))
	}

	err = bus.HandleExternalEvent(EventDynamicAdd, DynamicArgs{
		ID:       "d",
		Artifact: ArtifactHeight,
		Frames:   []map[string]float64{{"a": 1}, {"a": 2}},
		Scale:    5,
		Interval: 3600000,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := bus.HandleExternalEvent(EventDynamicStart, DynamicIDArgs{ID: "d"}); err != nil {
		t.Fatal(err)
	}
	if h := height(t, entities, "a"); h != 5 {
		t.Errorf("Expected the first frame at 5m, got %v", h)
	}

	if err := bus.HandleExternalEvent(EventRemoveAll, nil); err != nil {
		t.Fatal(err)
	}
	if len(m.Artifacts()) != 0 {
		t.Errorf("Expected no projections, got %v", m.Artifacts())
	}

	err = bus.HandleExternalEvent(EventAdd, ProjectionArgs{ID: "x", Artifact: "texture"})
	if !errors.Is(err, apperror.ErrDeveloper) {
		t.Errorf("Expected developer error, got %v", err)
	}
}
