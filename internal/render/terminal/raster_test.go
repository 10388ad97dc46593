package terminal

import (
	"testing"

	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
)

func square(lon, lat, size float64) []geo.Vertex {
	return []geo.Vertex{
		geo.V(lon, lat), geo.V(lon+size, lat), geo.V(lon+size, lat+size), geo.V(lon, lat+size),
	}
}

func runes(r *Raster) map[[2]int]rune {
	out := make(map[[2]int]rune, len(r.Cells))
	for _, c := range r.Cells {
		out[[2]int{c.X, c.Y}] = c.Rune
	}
	return out
}

func TestRasterizePolygon(t *testing.T) {
	v := testViewport()
	p := render.Primitive{
		ID:       "lot",
		Kind:     render.KindPolygon,
		Vertices: square(2, 2, 4),
		Style:    render.Style{FillColour: render.RGB(1, 2, 3)},
	}

	r := Rasterize(p, v)
	if len(r.Cells) != 16 {
		t.Fatalf("Expected a 4x4 fill, got %d cells", len(r.Cells))
	}
	got := runes(r)
	if _, ok := got[[2]int{2, 4}]; !ok {
		t.Error("Expected cell (2, 4) filled")
	}
	if _, ok := got[[2]int{1, 4}]; ok {
		t.Error("Expected cell (1, 4) outside the fill")
	}

	p.Holes = [][]geo.Vertex{square(3, 3, 2)}
	if n := len(Rasterize(p, v).Cells); n != 12 {
		t.Errorf("Expected the hole to clear 4 cells, got %d cells", n)
	}

	p.Holes = nil
	p.Extruded, p.Height = true, 10
	for _, c := range Rasterize(p, v).Cells {
		if c.Rune != glyphExtruded {
			t.Fatalf("Expected extruded glyph, got %q", c.Rune)
		}
	}
}

func TestRasterizeLineClips(t *testing.T) {
	v := testViewport()
	p := render.Primitive{
		ID:       "road",
		Kind:     render.KindLine,
		Vertices: []geo.Vertex{geo.V(-5, 5.5), geo.V(15, 5.5)},
	}
	r := Rasterize(p, v)
	if len(r.Cells) != 10 {
		t.Errorf("Expected the line clipped to 10 cells, got %d", len(r.Cells))
	}
	for _, c := range r.Cells {
		if c.Y != 4 || c.Rune != glyphLine {
			t.Errorf("Expected line cells on row 4, got %+v", c)
		}
	}
}

func TestRasterizePoints(t *testing.T) {
	v := testViewport()
	r := Rasterize(render.Primitive{Kind: render.KindPoint, Vertices: []geo.Vertex{geo.V(0.5, 9.5), geo.V(20, 20)}}, v)
	if len(r.Cells) != 1 || r.Cells[0].Rune != glyphPoint {
		t.Errorf("Expected one point glyph, got %+v", r.Cells)
	}
	r = Rasterize(render.Primitive{Kind: render.KindHandle, Vertices: []geo.Vertex{geo.V(0.5, 9.5)}}, v)
	if len(r.Cells) != 1 || r.Cells[0].Rune != glyphHandle {
		t.Errorf("Expected one handle glyph, got %+v", r.Cells)
	}
}

func TestRasterizeMesh(t *testing.T) {
	v := testViewport()
	p := render.Primitive{
		Kind:      render.KindMesh,
		Vertices:  square(0, 0, 10),
		Triangles: []int{0, 1, 2, 0, 2, 3},
	}
	want := len(Rasterize(p, v).Cells)
	if want < 90 {
		t.Errorf("Expected two triangles to cover the viewport, got %d cells", want)
	}

	p.Triangles = append(p.Triangles, 0, 9, 1)
	if n := len(Rasterize(p, v).Cells); n != want {
		t.Errorf("Expected a face with a bad index skipped, got %d cells, want %d", n, want)
	}
}

func BenchmarkRasterizePolygon(b *testing.B) {
	v := NewViewport(geo.NewBounds(0, 0, 10, 10), 200, 60)
	p := render.Primitive{Kind: render.KindPolygon, Vertices: square(1, 1, 8), Style: render.DefaultStyle}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Rasterize(p, v)
	}
}
