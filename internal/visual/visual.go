// Package visual manages data-driven projections: mappings from values keyed
// by entity ID onto a visual artifact such as fill colour or extrusion height.
//
// At most one projection is active per artifact. Adding a projection for an
// artifact replaces the previous one and undoes its effect. Dynamic
// projections play a sequence of projections on one artifact over time.
package visual

import (
	"io"
	"log"
	"maps"
	"slices"
	"time"

	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/internal/entity"
	"github.com/beetlebugorg/atlas/internal/event"
)

// Options configures the visualisation manager.
type Options struct {
	Logger *log.Logger

	// Serialize runs playback steps. Playback ticks arrive on their own
	// goroutine; hosts that use the managers from other goroutines must
	// provide a function that runs fn under their lock.
	// Default: runs fn directly
	Serialize func(fn func())
}

type slot struct {
	projection Projection
	rendered   bool
}

// Manager owns the projections of one Atlas instance.
type Manager struct {
	entities  *entity.Manager
	bus       *event.Manager
	logger    *log.Logger
	serialize func(fn func())

	slots    map[Artifact]*slot
	dynamics map[string]*DynamicProjection
	bindings []*event.Handle
}

// NewManager creates a visualisation manager over entities.
func NewManager(entities *entity.Manager, opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.Serialize == nil {
		opts.Serialize = func(fn func()) { fn() }
	}
	return &Manager{
		entities:  entities,
		bus:       entities.Bus(),
		logger:    opts.Logger,
		serialize: opts.Serialize,
		slots:     make(map[Artifact]*slot),
		dynamics:  make(map[string]*DynamicProjection),
	}
}

// EntityManager returns the entity registry the manager works on.
func (m *Manager) EntityManager() *entity.Manager { return m.entities }

// AddProjection makes p the projection of its artifact. A projection already
// on that artifact is unrendered and dropped.
func (m *Manager) AddProjection(p Projection) error {
	if p == nil {
		return apperror.Developer("AddProjection", "projection is nil")
	}
	if _, ok := m.slots[p.Artifact()]; ok {
		if err := m.RemoveProjection(p.Artifact()); err != nil {
			return err
		}
	}
	m.slots[p.Artifact()] = &slot{projection: p}
	return nil
}

// Projection returns the projection of artifact, or nil.
func (m *Manager) Projection(artifact Artifact) Projection {
	if s, ok := m.slots[artifact]; ok {
		return s.projection
	}
	return nil
}

// Artifacts returns the artifacts with a projection, sorted.
func (m *Manager) Artifacts() []Artifact {
	return slices.Sorted(maps.Keys(m.slots))
}

// IsRendered reports whether the projection of artifact is rendered.
func (m *Manager) IsRendered(artifact Artifact) bool {
	s, ok := m.slots[artifact]
	return ok && s.rendered
}

func (m *Manager) slot(artifact Artifact) (*slot, error) {
	s, ok := m.slots[artifact]
	if !ok {
		return nil, apperror.NotFound("projection", string(artifact))
	}
	return s, nil
}

// Render applies the projection of artifact and emits
// projection/render/complete.
func (m *Manager) Render(artifact Artifact) error {
	s, err := m.slot(artifact)
	if err != nil {
		return err
	}
	if err := s.projection.Render(m.entities); err != nil {
		return err
	}
	s.rendered = true
	return m.bus.HandleInternalEvent(EventRenderComplete, ArtifactArgs{Artifact: artifact, ID: s.projection.ID()})
}

// Unrender undoes the projection of artifact and emits
// projection/unrender/complete. Unrendering twice does nothing.
func (m *Manager) Unrender(artifact Artifact) error {
	s, err := m.slot(artifact)
	if err != nil {
		return err
	}
	if !s.rendered {
		return nil
	}
	if err := s.projection.Unrender(m.entities); err != nil {
		return err
	}
	s.rendered = false
	return m.bus.HandleInternalEvent(EventUnrenderComplete, ArtifactArgs{Artifact: artifact, ID: s.projection.ID()})
}

// RemoveProjection unrenders and drops the projection of artifact.
func (m *Manager) RemoveProjection(artifact Artifact) error {
	if _, err := m.slot(artifact); err != nil {
		return err
	}
	if err := m.Unrender(artifact); err != nil {
		return err
	}
	delete(m.slots, artifact)
	return nil
}

// RemoveAll stops every dynamic projection and removes every projection.
func (m *Manager) RemoveAll() error {
	for _, id := range slices.Sorted(maps.Keys(m.dynamics)) {
		if err := m.RemoveDynamic(id); err != nil {
			return err
		}
	}
	for _, a := range m.Artifacts() {
		if err := m.RemoveProjection(a); err != nil {
			return err
		}
	}
	return nil
}

// AddDynamic registers d. An existing dynamic projection with the same ID is
// stopped and replaced.
func (m *Manager) AddDynamic(d *DynamicProjection) error {
	if d == nil {
		return apperror.Developer("AddDynamic", "dynamic projection is nil")
	}
	if _, ok := m.dynamics[d.id]; ok {
		if err := m.RemoveDynamic(d.id); err != nil {
			return err
		}
	}
	m.dynamics[d.id] = d
	return nil
}

// Dynamic returns the dynamic projection id, or nil.
func (m *Manager) Dynamic(id string) *DynamicProjection {
	return m.dynamics[id]
}

func (m *Manager) dynamic(id string) (*DynamicProjection, error) {
	d, ok := m.dynamics[id]
	if !ok {
		return nil, apperror.NotFound("dynamic projection", id)
	}
	return d, nil
}

// RemoveDynamic stops and drops a dynamic projection.
func (m *Manager) RemoveDynamic(id string) error {
	if err := m.Stop(id); err != nil {
		return err
	}
	delete(m.dynamics, id)
	return nil
}

// Start shows the next frame of id at once and then advances one frame per
// interval. Starting a playing projection does nothing.
func (m *Manager) Start(id string) error {
	d, err := m.dynamic(id)
	if err != nil {
		return err
	}
	if d.state == Playing {
		return nil
	}
	if d.next >= len(d.frames) {
		d.next = 0
	}
	d.state = Playing
	if err := m.Step(id); err != nil {
		d.state = Stopped
		return err
	}
	if d.state != Playing {
		return nil
	}

	d.halt()
	d.stop = make(chan struct{})
	go m.play(d, d.run, d.stop)
	return nil
}

func (m *Manager) play(d *DynamicProjection, run uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.serialize(func() {
				if d.run != run || d.state != Playing {
					return
				}
				if err := m.Step(d.id); err != nil {
					m.logger.Printf("dynamic projection %s: %v", d.id, err)
				}
			})
		}
	}
}

// Step shows the next frame of id. Past the last frame a looping projection
// starts over; otherwise playback stops with the last frame on screen.
func (m *Manager) Step(id string) error {
	d, err := m.dynamic(id)
	if err != nil {
		return err
	}
	if d.next >= len(d.frames) {
		if !d.loop {
			d.halt()
			d.state = Stopped
			return nil
		}
		d.next = 0
	}
	frame := d.frames[d.next]
	if err := m.AddProjection(frame); err != nil {
		return err
	}
	d.shown = frame
	d.next++
	return m.Render(d.artifact)
}

// Pause stops the ticker and keeps the current frame on screen.
func (m *Manager) Pause(id string) error {
	d, err := m.dynamic(id)
	if err != nil {
		return err
	}
	if d.state != Playing {
		return nil
	}
	d.halt()
	d.state = Paused
	return nil
}

// Stop ends playback, removes the frame on screen and rewinds.
func (m *Manager) Stop(id string) error {
	d, err := m.dynamic(id)
	if err != nil {
		return err
	}
	d.halt()
	d.state = Stopped
	d.next = 0
	if d.shown != nil && m.Projection(d.artifact) == d.shown {
		if err := m.RemoveProjection(d.artifact); err != nil {
			return err
		}
	}
	d.shown = nil
	return nil
}
