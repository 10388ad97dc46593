package entity

import (
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
	"github.com/beetlebugorg/atlas/pkg/c3ml"
)

// Describe returns a descriptor that recreates e in its current state.
// Selection is not part of the state: a selected entity is described with
// the style it had before it was selected.
func Describe(e GeoEntity) c3ml.Descriptor {
	d := c3ml.Descriptor{
		ID:         e.ID(),
		Show:       e.IsVisible(),
		Properties: e.Properties(),
	}
	if len(d.Properties) == 0 {
		d.Properties = nil
	}
	describeStyle(&d, e)

	switch x := e.(type) {
	case *Feature:
		d.Type = c3ml.TypeFeature
		d.DisplayMode = string(x.DisplayMode())
		for mode, form := range x.Forms() {
			fd := describeForm(form)
			switch mode {
			case ModeLine:
				d.Line = &fd
			case ModeFootprint:
				d.Polygon = &fd
			case ModeMesh:
				d.Mesh = &fd
			case ModeImage:
				d.Img = &fd
			}
		}
	case *Collection:
		d.Type = c3ml.TypeCollection
		for _, c := range x.Children() {
			d.Children = append(d.Children, c.ID())
		}
	default:
		fd := describeForm(e)
		fd.ID, fd.Show, fd.Properties = d.ID, d.Show, d.Properties
		return fd
	}
	return d
}

// describeForm describes the geometry and appearance of a single form.
func describeForm(e GeoEntity) c3ml.Descriptor {
	var d c3ml.Descriptor
	describeStyle(&d, e)
	switch x := e.(type) {
	case *Point:
		d.Type = c3ml.TypePoint
		d.Coordinates = coordinates(x.Vertices())
	case *Line:
		d.Type = c3ml.TypeLine
		d.Coordinates = coordinates(x.Vertices())
	case *Polygon:
		d.Type = c3ml.TypePolygon
		d.Coordinates = coordinates(x.Vertices())
		for _, h := range x.Holes() {
			d.Holes = append(d.Holes, coordinates(h))
		}
	case *Mesh:
		d.Type = c3ml.TypeMesh
		for _, v := range x.Vertices() {
			d.Positions = append(d.Positions, v.Longitude, v.Latitude, v.Elevation)
		}
		d.Triangles = x.Triangles()
	case *Image:
		d.Type = c3ml.TypeImage
		d.Image = x.Source()
		d.Coordinates = coordinates(x.Vertices())
	}
	return d
}

func describeStyle(d *c3ml.Descriptor, e GeoEntity) {
	s := e.Style()
	if u, ok := e.(interface{ unselectedStyle() render.Style }); ok {
		s = u.unselectedStyle()
	}
	d.Color = channels(s.FillColour)
	d.BorderColor = channels(s.BorderColour)
	d.Width = s.BorderWidth
	d.Height = e.Height()
	d.Altitude = e.Elevation()
}

func channels(c render.Colour) []int {
	return []int{int(c.R), int(c.G), int(c.B), int(c.A)}
}

func coordinates(vs []geo.Vertex) [][]float64 {
	out := make([][]float64, 0, len(vs))
	for _, v := range vs {
		if v.Elevation != 0 {
			out = append(out, []float64{v.Longitude, v.Latitude, v.Elevation})
			continue
		}
		out = append(out, []float64{v.Longitude, v.Latitude})
	}
	return out
}
