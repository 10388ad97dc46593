package entity

import (
	"github.com/beetlebugorg/atlas/internal/apperror"
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
	"github.com/beetlebugorg/atlas/pkg/c3ml"
)

func defaultFactories() map[c3ml.Type]Factory {
	return map[c3ml.Type]Factory{
		c3ml.TypePoint:      createPoint,
		c3ml.TypeLine:       createSingleForm,
		c3ml.TypePolygon:    createSingleForm,
		c3ml.TypeMesh:       createSingleForm,
		c3ml.TypeImage:      createSingleForm,
		c3ml.TypeFeature:    createFeature,
		c3ml.TypeCollection: createCollection,
	}
}

// vertices converts [lon, lat(, elevation)] coordinates.
func vertices(coords [][]float64) []geo.Vertex {
	out := make([]geo.Vertex, 0, len(coords))
	for _, c := range coords {
		v := geo.V(c[0], c[1])
		if len(c) > 2 {
			v.Elevation = c[2]
		}
		out = append(out, v)
	}
	return out
}

func colour(c []int, fallback render.Colour) render.Colour {
	if len(c) < 3 {
		return fallback
	}
	out := render.RGB(uint8(c[0]), uint8(c[1]), uint8(c[2]))
	if len(c) == 4 {
		out.A = uint8(c[3])
	}
	return out
}

func descriptorStyle(d c3ml.Descriptor, base render.Style) render.Style {
	s := base
	s.FillColour = colour(d.Color, base.FillColour)
	s.BorderColour = colour(d.BorderColor, base.BorderColour)
	if d.Width > 0 {
		s.BorderWidth = d.Width
	}
	return s
}

// decorate applies the appearance and properties shared by every descriptor.
func decorate(e GeoEntity, d c3ml.Descriptor, base render.Style) {
	e.SetStyle(descriptorStyle(d, base))
	if d.Height > 0 {
		e.SetHeight(d.Height)
	}
	if d.Altitude != 0 {
		e.SetElevation(d.Altitude)
	}
	for k, v := range d.Properties {
		e.SetProperty(k, v)
	}
}

func createPoint(m *Manager, d c3ml.Descriptor) (GeoEntity, error) {
	p := NewPoint(m.Env(), d.ID, vertices(d.Coordinates)[0])
	decorate(p, d, m.opts.DefaultStyle)
	return p, nil
}

// formModes maps form descriptor types to the display mode they back.
var formModes = map[c3ml.Type]DisplayMode{
	c3ml.TypeLine:    ModeLine,
	c3ml.TypePolygon: ModeFootprint,
	c3ml.TypeMesh:    ModeMesh,
	c3ml.TypeImage:   ModeImage,
}

// createForm builds the bare form entity of a line, polygon, mesh or image
// descriptor.
func createForm(env Env, id string, d c3ml.Descriptor) (GeoEntity, error) {
	switch d.Type {
	case c3ml.TypeLine:
		return NewLine(env, id, vertices(d.Coordinates)), nil
	case c3ml.TypePolygon:
		holes := make([][]geo.Vertex, 0, len(d.Holes))
		for _, h := range d.Holes {
			holes = append(holes, vertices(h))
		}
		return NewPolygon(env, id, vertices(d.Coordinates), holes), nil
	case c3ml.TypeMesh:
		n := len(d.Positions) / 3
		positions := make([]geo.Vertex, 0, n)
		for i := 0; i < n; i++ {
			v := geo.V(d.Positions[3*i], d.Positions[3*i+1])
			v.Elevation = d.Positions[3*i+2]
			positions = append(positions, v)
		}
		return NewMesh(env, id, positions, d.Triangles), nil
	case c3ml.TypeImage:
		return NewImage(env, id, d.Image, vertices(d.Coordinates)), nil
	}
	return nil, apperror.Developer("Create", "%s is not a feature form", d.Type)
}

func formID(featureID string, mode DisplayMode) string {
	return featureID + ":" + string(mode)
}

// initialMode picks the requested mode, or extrusion for polygons with a
// height, or the first available form.
func initialMode(f *Feature, requested string, height float64) DisplayMode {
	if requested != "" {
		return DisplayMode(requested)
	}
	if f.Form(ModeFootprint) != nil {
		if height > 0 {
			return ModeExtrusion
		}
		return ModeFootprint
	}
	for _, mode := range []DisplayMode{ModeLine, ModeMesh, ModeImage} {
		if f.Form(mode) != nil {
			return mode
		}
	}
	return ModeNone
}

// createSingleForm wraps a line, polygon, mesh or image in a feature so that
// hosts can switch its display mode like any other feature.
func createSingleForm(m *Manager, d c3ml.Descriptor) (GeoEntity, error) {
	f := NewFeature(m.Env(), d.ID)
	mode := formModes[d.Type]
	form, err := createForm(m.Env(), formID(f.ID(), mode), d)
	if err != nil {
		return nil, err
	}
	if err := f.SetForm(mode, form); err != nil {
		return nil, err
	}
	decorate(f, d, m.opts.DefaultStyle)
	if err := f.SetDisplayMode(initialMode(f, d.DisplayMode, d.Height)); err != nil {
		return nil, err
	}
	return f, nil
}

// createFeature builds a feature from its form descriptors. Forms inherit
// the colours, height and altitude of the feature unless they set their own.
func createFeature(m *Manager, d c3ml.Descriptor) (GeoEntity, error) {
	f := NewFeature(m.Env(), d.ID)
	for _, sub := range []struct {
		desc *c3ml.Descriptor
		typ  c3ml.Type
	}{
		{d.Line, c3ml.TypeLine},
		{d.Polygon, c3ml.TypePolygon},
		{d.Mesh, c3ml.TypeMesh},
		{d.Img, c3ml.TypeImage},
	} {
		if sub.desc == nil {
			continue
		}
		fd := *sub.desc
		fd.Type = sub.typ
		if fd.Color == nil {
			fd.Color = d.Color
		}
		if fd.BorderColor == nil {
			fd.BorderColor = d.BorderColor
		}
		if fd.Height == 0 {
			fd.Height = d.Height
		}
		if fd.Altitude == 0 {
			fd.Altitude = d.Altitude
		}

		mode := formModes[sub.typ]
		form, err := createForm(m.Env(), formID(f.ID(), mode), fd)
		if err != nil {
			return nil, err
		}
		decorate(form, fd, m.opts.DefaultStyle)
		if err := f.SetForm(mode, form); err != nil {
			return nil, err
		}
	}

	for k, v := range d.Properties {
		f.SetProperty(k, v)
	}
	f.recordStyle(descriptorStyle(d, m.opts.DefaultStyle))
	f.height = d.Height
	f.elevation = d.Altitude
	if err := f.SetDisplayMode(initialMode(f, d.DisplayMode, d.Height)); err != nil {
		return nil, err
	}
	return f, nil
}

func createCollection(m *Manager, d c3ml.Descriptor) (GeoEntity, error) {
	c := NewCollection(m.Env(), d.ID)
	for _, id := range d.Children {
		if err := c.AddEntity(id); err != nil {
			return nil, err
		}
	}
	if len(d.Color) > 0 || len(d.BorderColor) > 0 {
		c.SetStyle(descriptorStyle(d, m.opts.DefaultStyle))
	}
	for k, v := range d.Properties {
		c.SetProperty(k, v)
	}
	return c, nil
}
