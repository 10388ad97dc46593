package visual

import (
	"fmt"
	"maps"
	"slices"

	"github.com/beetlebugorg/atlas/internal/entity"
	"github.com/beetlebugorg/atlas/internal/render"
)

// Artifact names the visual channel a projection controls.
type Artifact string

const (
	ArtifactColour Artifact = "colour"
	ArtifactHeight Artifact = "height"
)

// Projection maps values keyed by entity ID onto one artifact of those
// entities. Unrender restores what Render changed.
type Projection interface {
	ID() string
	Artifact() Artifact
	EntityIDs() []string
	Render(entities *entity.Manager) error
	Unrender(entities *entity.Manager) error
}

// Default colour ramp.
var (
	DefaultLow  = render.RGB(0xff, 0xff, 0xcc)
	DefaultHigh = render.RGB(0xbd, 0x00, 0x26)
)

type values struct {
	id   string
	data map[string]float64
}

func (v *values) ID() string { return v.id }

func (v *values) EntityIDs() []string {
	return slices.Sorted(maps.Keys(v.data))
}

// valueRange returns the minimum and maximum value.
func (v *values) valueRange() (lo, hi float64) {
	first := true
	for _, x := range v.data {
		if first || x < lo {
			lo = x
		}
		if first || x > hi {
			hi = x
		}
		first = false
	}
	return lo, hi
}

// targets resolves every ID before anything is changed, so a projection
// naming an unknown entity fails without side effects. Collections expand
// to their members.
func (v *values) targets(entities *entity.Manager) (map[string][]entity.GeoEntity, error) {
	out := make(map[string][]entity.GeoEntity, len(v.data))
	for id := range v.data {
		e, err := entities.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("projection %s: %w", v.id, err)
		}
		out[id] = entity.Descendants(e)
	}
	return out, nil
}

// ColourProjection colours each entity on a linear ramp from Low, for the
// smallest value, to High, for the largest.
type ColourProjection struct {
	values
	Low, High render.Colour

	previous map[string]render.Colour
}

// NewColourProjection creates a colour projection over vals.
func NewColourProjection(id string, vals map[string]float64, low, high render.Colour) *ColourProjection {
	return &ColourProjection{
		values:   values{id: id, data: maps.Clone(vals)},
		Low:      low,
		High:     high,
		previous: make(map[string]render.Colour),
	}
}

// Artifact implements Projection.
func (p *ColourProjection) Artifact() Artifact { return ArtifactColour }

// ColourOf returns the ramp colour for x. When every value is equal the
// middle of the ramp is used.
func (p *ColourProjection) ColourOf(x float64) render.Colour {
	lo, hi := p.valueRange()
	if hi == lo {
		return p.Low.Lerp(p.High, 0.5)
	}
	return p.Low.Lerp(p.High, (x-lo)/(hi-lo))
}

// Render implements Projection.
func (p *ColourProjection) Render(entities *entity.Manager) error {
	targets, err := p.targets(entities)
	if err != nil {
		return err
	}
	for _, id := range p.EntityIDs() {
		c := p.ColourOf(p.data[id])
		for _, e := range targets[id] {
			e.ModifyStyle(func(s *render.Style) {
				if _, ok := p.previous[e.ID()]; !ok {
					p.previous[e.ID()] = s.FillColour
				}
				s.FillColour = c
			})
		}
	}
	return nil
}

// Unrender implements Projection. Entities removed since Render are skipped.
func (p *ColourProjection) Unrender(entities *entity.Manager) error {
	for _, id := range slices.Sorted(maps.Keys(p.previous)) {
		prev := p.previous[id]
		delete(p.previous, id)
		e := lookup(entities, id)
		if e == nil {
			continue
		}
		e.ModifyStyle(func(s *render.Style) { s.FillColour = prev })
	}
	return nil
}

// HeightProjection extrudes each entity to its value times Scale metres.
type HeightProjection struct {
	values
	Scale float64

	previous map[string]float64
}

// NewHeightProjection creates a height projection over vals. A scale of 0
// means 1.
func NewHeightProjection(id string, vals map[string]float64, scale float64) *HeightProjection {
	if scale == 0 {
		scale = 1
	}
	return &HeightProjection{
		values:   values{id: id, data: maps.Clone(vals)},
		Scale:    scale,
		previous: make(map[string]float64),
	}
}

// Artifact implements Projection.
func (p *HeightProjection) Artifact() Artifact { return ArtifactHeight }

// Render implements Projection.
func (p *HeightProjection) Render(entities *entity.Manager) error {
	targets, err := p.targets(entities)
	if err != nil {
		return err
	}
	for _, id := range p.EntityIDs() {
		h := p.data[id] * p.Scale
		for _, e := range targets[id] {
			if _, ok := p.previous[e.ID()]; !ok {
				p.previous[e.ID()] = e.Height()
			}
			e.SetHeight(h)
		}
	}
	return nil
}

// Unrender implements Projection. Entities removed since Render are skipped.
func (p *HeightProjection) Unrender(entities *entity.Manager) error {
	for _, id := range slices.Sorted(maps.Keys(p.previous)) {
		prev := p.previous[id]
		delete(p.previous, id)
		if e := lookup(entities, id); e != nil {
			e.SetHeight(prev)
		}
	}
	return nil
}

// lookup returns the live entity id, or nil.
func lookup(entities *entity.Manager, id string) entity.GeoEntity {
	if e, ok := entities.Entity(id); ok {
		return e
	}
	return nil
}
