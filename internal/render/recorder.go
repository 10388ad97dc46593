package render

import (
	"sort"
	"sync"
)

// Recorder is an in-memory Backend that keeps the latest primitive per ID.
// It is used by tests and by headless servers that only expose state.
type Recorder struct {
	mu         sync.Mutex
	primitives map[string]Primitive
	visible    map[string]bool
	overlays   map[string]Overlay
	draws      map[string]int
	widget     bool
}

// NewRecorder creates an empty recorder. The widget starts visible.
func NewRecorder() *Recorder {
	return &Recorder{
		primitives: make(map[string]Primitive),
		visible:    make(map[string]bool),
		overlays:   make(map[string]Overlay),
		draws:      make(map[string]int),
		widget:     true,
	}
}

func (r *Recorder) Draw(p Primitive) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.primitives[p.ID] = p
	r.draws[p.ID]++
}

func (r *Recorder) SetVisible(id string, visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visible[id] = visible
}

func (r *Recorder) Erase(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.primitives, id)
	delete(r.visible, id)
}

func (r *Recorder) ShowOverlay(o Overlay) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overlays[o.ID] = o
}

func (r *Recorder) RemoveOverlay(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overlays, id)
}

func (r *Recorder) SetWidgetVisible(visible bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.widget = visible
}

// Primitive returns the latest primitive drawn for id.
func (r *Recorder) Primitive(id string) (Primitive, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.primitives[id]
	return p, ok
}

// Visible reports whether id is drawn and visible.
func (r *Recorder) Visible(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, drawn := r.primitives[id]
	return drawn && r.visible[id]
}

// Draws returns how many times id was drawn.
func (r *Recorder) Draws(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.draws[id]
}

// IDs returns the IDs of all drawn primitives, sorted.
func (r *Recorder) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.primitives))
	for id := range r.primitives {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Overlay returns the overlay with id.
func (r *Recorder) Overlay(id string) (Overlay, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.overlays[id]
	return o, ok
}

// OverlayCount returns the number of overlays shown.
func (r *Recorder) OverlayCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.overlays)
}

// WidgetVisible reports the last SetWidgetVisible value.
func (r *Recorder) WidgetVisible() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.widget
}
