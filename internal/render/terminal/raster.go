package terminal

import (
	"math"

	"github.com/gdamore/tcell/v2"

	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
)

// Glyphs used by the rasteriser.
const (
	glyphPoint    = '●'
	glyphHandle   = '◆'
	glyphLine     = '•'
	glyphOutline  = '·'
	glyphExtruded = '▒'
	glyphImage    = '░'
)

// Cell is one screen cell of a raster.
type Cell struct {
	X, Y  int
	Rune  rune
	Style tcell.Style
}

// Raster is a primitive turned into screen cells. Cells outside the
// viewport are dropped.
type Raster struct {
	Cells []Cell
}

func (r *Raster) size() int64 {
	if r == nil {
		return 0
	}
	return int64(len(r.Cells))
}

func colour(c render.Colour) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

type rasterizer struct {
	v     Viewport
	cells []Cell
	seen  map[[2]int]int
}

// set writes a cell, replacing an earlier cell at the same position.
func (r *rasterizer) set(x, y int, ch rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= r.v.Width || y >= r.v.Height {
		return
	}
	if i, ok := r.seen[[2]int{x, y}]; ok {
		r.cells[i] = Cell{X: x, Y: y, Rune: ch, Style: style}
		return
	}
	r.seen[[2]int{x, y}] = len(r.cells)
	r.cells = append(r.cells, Cell{X: x, Y: y, Rune: ch, Style: style})
}

// Rasterize turns p into cells on v.
func Rasterize(p render.Primitive, v Viewport) *Raster {
	r := &rasterizer{v: v, seen: make(map[[2]int]int)}
	if !v.valid() {
		return &Raster{}
	}
	fill := tcell.StyleDefault.Background(colour(p.Style.FillColour))
	ink := tcell.StyleDefault.Foreground(colour(p.Style.FillColour))
	border := tcell.StyleDefault.Foreground(colour(p.Style.BorderColour)).Background(colour(p.Style.FillColour))

	switch p.Kind {
	case render.KindPoint:
		for _, vx := range p.Vertices {
			if x, y, ok := v.Project(vx); ok {
				r.set(x, y, glyphPoint, ink)
			}
		}
	case render.KindHandle:
		for _, vx := range p.Vertices {
			if x, y, ok := v.Project(vx); ok {
				r.set(x, y, glyphHandle, ink.Background(colour(p.Style.BorderColour)))
			}
		}
	case render.KindLine:
		r.polyline(p.Vertices, false, glyphLine, ink)
	case render.KindPolygon:
		ch := ' '
		style := fill
		if p.Extruded && p.Height > 0 {
			ch = glyphExtruded
			style = fill.Foreground(colour(p.Style.BorderColour))
		}
		r.fill(p.Vertices, p.Holes, ch, style)
		if p.Style.BorderWidth > 0 {
			r.polyline(p.Vertices, true, glyphOutline, border)
		}
	case render.KindMesh:
		for i := 0; i+2 < len(p.Triangles); i += 3 {
			a, b, c := p.Triangles[i], p.Triangles[i+1], p.Triangles[i+2]
			if a >= len(p.Vertices) || b >= len(p.Vertices) || c >= len(p.Vertices) {
				continue
			}
			r.fill([]geo.Vertex{p.Vertices[a], p.Vertices[b], p.Vertices[c]}, nil, ' ', fill)
		}
	case render.KindImage:
		r.fill(p.Vertices, nil, glyphImage, ink)
	}
	return &Raster{Cells: r.cells}
}

// fill sets every cell whose centre lies inside ring and outside holes.
func (r *rasterizer) fill(ring []geo.Vertex, holes [][]geo.Vertex, ch rune, style tcell.Style) {
	if len(ring) < 3 {
		return
	}
	outer := r.projectAll(ring)
	inner := make([][][2]float64, 0, len(holes))
	for _, h := range holes {
		inner = append(inner, r.projectAll(h))
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range outer {
		minX, maxX = math.Min(minX, pt[0]), math.Max(maxX, pt[0])
		minY, maxY = math.Min(minY, pt[1]), math.Max(maxY, pt[1])
	}
	x0, x1 := clamp(int(math.Floor(minX)), r.v.Width), clamp(int(math.Ceil(maxX)), r.v.Width)
	y0, y1 := clamp(int(math.Floor(minY)), r.v.Height), clamp(int(math.Ceil(maxY)), r.v.Height)

	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			cx, cy := float64(x)+0.5, float64(y)+0.5
			if !inside(outer, cx, cy) {
				continue
			}
			hole := false
			for _, h := range inner {
				if inside(h, cx, cy) {
					hole = true
					break
				}
			}
			if !hole {
				r.set(x, y, ch, style)
			}
		}
	}
}

// polyline draws segments between consecutive vertices, closing the ring
// when closed is set.
func (r *rasterizer) polyline(vs []geo.Vertex, closed bool, ch rune, style tcell.Style) {
	pts := r.projectAll(vs)
	if len(pts) == 1 {
		r.set(int(math.Floor(pts[0][0])), int(math.Floor(pts[0][1])), ch, style)
		return
	}
	for i := 0; i+1 < len(pts); i++ {
		r.segment(pts[i], pts[i+1], ch, style)
	}
	if closed && len(pts) > 2 {
		r.segment(pts[len(pts)-1], pts[0], ch, style)
	}
}

// segment clips a line to the viewport and draws it with Bresenham's
// algorithm.
func (r *rasterizer) segment(a, b [2]float64, ch rune, style tcell.Style) {
	a, b, ok := clip(a, b, float64(r.v.Width), float64(r.v.Height))
	if !ok {
		return
	}
	x0, y0 := int(math.Floor(a[0])), int(math.Floor(a[1]))
	x1, y1 := int(math.Floor(b[0])), int(math.Floor(b[1]))
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		r.set(x0, y0, ch, style)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// clip is Liang-Barsky clipping of segment ab to [0, w] x [0, h].
func clip(a, b [2]float64, w, h float64) ([2]float64, [2]float64, bool) {
	t0, t1 := 0.0, 1.0
	dx, dy := b[0]-a[0], b[1]-a[1]
	edges := [4][2]float64{
		{-dx, a[0]},
		{dx, w - a[0]},
		{-dy, a[1]},
		{dy, h - a[1]},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return a, b, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			t0 = math.Max(t0, t)
		} else {
			t1 = math.Min(t1, t)
		}
		if t0 > t1 {
			return a, b, false
		}
	}
	return [2]float64{a[0] + t0*dx, a[1] + t0*dy}, [2]float64{a[0] + t1*dx, a[1] + t1*dy}, true
}

func (r *rasterizer) projectAll(vs []geo.Vertex) [][2]float64 {
	out := make([][2]float64, len(vs))
	for i, vx := range vs {
		x, y := r.v.project(vx)
		out[i] = [2]float64{x, y}
	}
	return out
}

// inside is the even-odd point in polygon test.
func inside(ring [][2]float64, x, y float64) bool {
	in := false
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i][0], ring[i][1]
		xj, yj := ring[j][0], ring[j][1]
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			in = !in
		}
	}
	return in
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v > n {
		return n
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
