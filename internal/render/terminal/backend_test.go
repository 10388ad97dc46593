package terminal

import (
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
)

func newBackend(t *testing.T) (*Backend, tcell.SimulationScreen) {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("Failed to init screen: %v", err)
	}
	t.Cleanup(screen.Fini)
	screen.SetSize(10, 10)
	return New(screen, testViewport(), Options{}), screen
}

func runeAt(s tcell.Screen, x, y int) rune {
	r, _, _, _ := s.GetContent(x, y)
	return r
}

func TestBackendRendersVisible(t *testing.T) {
	b, screen := newBackend(t)

	b.Draw(render.Primitive{ID: "pin", Kind: render.KindPoint, Vertices: []geo.Vertex{geo.V(0.5, 9.5)}})
	b.Render()
	if r := runeAt(screen, 0, 0); r == glyphPoint {
		t.Error("Expected a drawn primitive hidden until made visible")
	}

	b.SetVisible("pin", true)
	b.Render()
	if r := runeAt(screen, 0, 0); r != glyphPoint {
		t.Errorf("Expected point glyph at (0, 0), got %q", r)
	}

	b.SetWidgetVisible(false)
	b.Render()
	if r := runeAt(screen, 0, 0); r == glyphPoint {
		t.Error("Expected nothing drawn while the widget is hidden")
	}
	b.SetWidgetVisible(true)

	b.Erase("pin")
	b.Render()
	if r := runeAt(screen, 0, 0); r == glyphPoint {
		t.Error("Expected erased primitive gone")
	}
	if b.CacheStats().RasterCount != 0 {
		t.Errorf("Expected erase to drop cached rasters, got %d", b.CacheStats().RasterCount)
	}
}

func TestBackendLayers(t *testing.T) {
	b, screen := newBackend(t)

	b.Draw(render.Primitive{ID: "pin", Kind: render.KindPoint, Vertices: []geo.Vertex{geo.V(3.5, 4.5)}})
	b.Draw(render.Primitive{ID: "lot", Kind: render.KindPolygon, Vertices: square(2, 2, 4), Style: render.DefaultStyle})
	b.SetVisible("pin", true)
	b.SetVisible("lot", true)
	b.Render()

	if r := runeAt(screen, 3, 5); r != glyphPoint {
		t.Errorf("Expected the point above the polygon, got %q", r)
	}
	if r := runeAt(screen, 2, 4); r != glyphOutline {
		t.Errorf("Expected the polygon outline at (2, 4), got %q", r)
	}
	if got := b.Bounds(); got.MinLon != 2 || got.MaxLon != 6 {
		t.Errorf("Expected bounds of the visible primitives, got %+v", got)
	}
}

func TestBackendRevisionInvalidatesCache(t *testing.T) {
	b, _ := newBackend(t)

	p := render.Primitive{ID: "lot", Kind: render.KindPolygon, Vertices: square(2, 2, 4), Revision: 1}
	b.Draw(p)
	b.SetVisible("lot", true)
	b.Render()
	b.Render()
	if stats := b.CacheStats(); stats.RasterCount != 1 || stats.TotalAccess != 2 {
		t.Errorf("Expected one raster reused, got %+v", stats)
	}

	p.Revision = 2
	b.Draw(p)
	if b.CacheStats().RasterCount != 0 {
		t.Error("Expected a new revision to drop the cached raster")
	}
}

func TestBackendOverlay(t *testing.T) {
	b, screen := newBackend(t)

	b.ShowOverlay(render.Overlay{ID: "p", Anchor: geo.V(0.5, 9.5), Title: "lot", Lines: []string{"a: 1"}})
	b.Render()
	if r := runeAt(screen, 2, 1); r != 'l' {
		t.Errorf("Expected title below and right of the anchor, got %q", r)
	}
	if r := runeAt(screen, 2, 2); r != 'a' {
		t.Errorf("Expected the first line under the title, got %q", r)
	}

	b.RemoveOverlay("p")
	b.Render()
	if r := runeAt(screen, 2, 1); r == 'l' {
		t.Error("Expected the overlay removed")
	}
}

func TestBackendUnproject(t *testing.T) {
	b, _ := newBackend(t)
	b.SetViewport(b.Viewport().Pan(1, 0))
	if p := b.Unproject(0, 0); !p.Equals(geo.V(1.5, 9.5)) {
		t.Errorf("Expected (1.5, 9.5), got %v", p)
	}
}
