package entity

import (
	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
)

// Point is a single position.
type Point struct {
	Base
}

// NewPoint creates a point. An empty id is replaced with a generated one.
func NewPoint(env Env, id string, at geo.Vertex) *Point {
	p := &Point{}
	p.init(p, id, TypePoint, env)
	p.vertices = []geo.Vertex{at}
	p.build = func() error {
		p.env.Backend.Draw(p.primitive(render.KindPoint))
		return nil
	}
	return p
}

// Line is an open polyline.
type Line struct {
	Base
}

// NewLine creates a line through vertices.
func NewLine(env Env, id string, vertices []geo.Vertex) *Line {
	l := &Line{}
	l.init(l, id, TypeLine, env)
	l.vertices = geo.Clone(vertices)
	l.build = func() error {
		l.env.Backend.Draw(l.primitive(render.KindLine))
		return nil
	}
	return l
}

// Polygon is a closed ring with optional holes. It is drawn flat as a
// footprint, or extruded to its height.
type Polygon struct {
	Base

	holes    [][]geo.Vertex
	extruded bool
}

// NewPolygon creates a polygon from its outer ring.
func NewPolygon(env Env, id string, ring []geo.Vertex, holes [][]geo.Vertex) *Polygon {
	p := &Polygon{}
	p.init(p, id, TypePolygon, env)
	p.vertices = geo.Clone(ring)
	for _, h := range holes {
		p.holes = append(p.holes, geo.Clone(h))
	}
	p.centroidOf = geo.Centroid
	p.areaOf = p.measureArea
	p.build = func() error {
		prim := p.primitive(render.KindPolygon)
		prim.Holes = p.Holes()
		prim.Extruded = p.extruded
		p.env.Backend.Draw(prim)
		return nil
	}
	return p
}

func (p *Polygon) measureArea(ring []geo.Vertex) float64 {
	a := geo.Area(ring)
	for _, h := range p.holes {
		a -= geo.Area(h)
	}
	return a
}

// Holes returns copies of the hole rings.
func (p *Polygon) Holes() [][]geo.Vertex {
	out := make([][]geo.Vertex, 0, len(p.holes))
	for _, h := range p.holes {
		out = append(out, geo.Clone(h))
	}
	return out
}

// SetExtruded switches between footprint and extrusion rendering.
func (p *Polygon) SetExtruded(extruded bool) {
	if p.extruded == extruded {
		return
	}
	p.extruded = extruded
	p.SetDirty(ComponentModel)
	p.refresh()
}

// IsExtruded reports whether the polygon is drawn extruded.
func (p *Polygon) IsExtruded() bool { return p.extruded }

// Translate moves the ring and holes by d.
func (p *Polygon) Translate(d geo.Vertex) error {
	if p.removed {
		return p.Base.Translate(d)
	}
	for i, h := range p.holes {
		p.holes[i] = geo.Translate(h, d)
	}
	return p.Base.Translate(d)
}

// Scale scales the ring and holes around the centroid.
func (p *Polygon) Scale(factor float64) error {
	if p.removed {
		return p.Base.Scale(factor)
	}
	c := p.Centroid()
	for i, h := range p.holes {
		p.holes[i] = geo.Scale(h, c, factor)
	}
	return p.Base.Scale(factor)
}

// Rotate rotates the ring and holes around the centroid.
func (p *Polygon) Rotate(degrees float64) error {
	if p.removed {
		return p.Base.Rotate(degrees)
	}
	c := p.Centroid()
	for i, h := range p.holes {
		p.holes[i] = geo.Rotate(h, c, degrees)
	}
	return p.Base.Rotate(degrees)
}

// Mesh is a triangulated surface.
type Mesh struct {
	Base

	triangles []int
}

// NewMesh creates a mesh from positions and index triples.
func NewMesh(env Env, id string, positions []geo.Vertex, triangles []int) *Mesh {
	m := &Mesh{triangles: append([]int(nil), triangles...)}
	m.init(m, id, TypeMesh, env)
	m.vertices = geo.Clone(positions)
	m.areaOf = func(vs []geo.Vertex) float64 { return geo.Area(geo.ConvexHull(vs)) }
	m.build = func() error {
		prim := m.primitive(render.KindMesh)
		prim.Triangles = append([]int(nil), m.triangles...)
		m.env.Backend.Draw(prim)
		return nil
	}
	return m
}

// Triangles returns the face index triples.
func (m *Mesh) Triangles() []int {
	return append([]int(nil), m.triangles...)
}

// Image is a raster draped over a quadrilateral.
type Image struct {
	Base

	source string
}

// NewImage creates an image. Two corners are expanded to the four corners of
// their bounding box.
func NewImage(env Env, id, source string, corners []geo.Vertex) *Image {
	img := &Image{source: source}
	img.init(img, id, TypeImage, env)
	if len(corners) == 2 {
		b := geo.BoundsOf(corners)
		corners = []geo.Vertex{
			geo.V(b.MinLon, b.MinLat), geo.V(b.MaxLon, b.MinLat),
			geo.V(b.MaxLon, b.MaxLat), geo.V(b.MinLon, b.MaxLat),
		}
	}
	img.vertices = geo.Clone(corners)
	img.centroidOf = geo.Centroid
	img.areaOf = geo.Area
	img.build = func() error {
		prim := img.primitive(render.KindImage)
		prim.Image = img.source
		img.env.Backend.Draw(prim)
		return nil
	}
	return img
}

// Source returns the image source.
func (img *Image) Source() string { return img.source }
