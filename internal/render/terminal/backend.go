// Package terminal draws Atlas primitives on a terminal through tcell.
//
// The backend keeps the last primitive drawn for each ID and paints the
// visible ones when Render is called. Rasters are cached per primitive
// revision and viewport, so an unchanged scene repaints from the cache.
package terminal

import (
	"io"
	"log"
	"slices"
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/beetlebugorg/atlas/internal/geo"
	"github.com/beetlebugorg/atlas/internal/render"
)

// Options configures the terminal backend.
type Options struct {
	Logger *log.Logger

	// CacheCells bounds the raster cache.
	// Default: 200000
	CacheCells int64

	// Background is the colour of empty cells.
	// Default: #101418
	Background render.Colour
}

// DefaultOptions returns backend options with defaults.
func DefaultOptions() Options {
	return Options{
		CacheCells: 200_000,
		Background: render.RGB(0x10, 0x14, 0x18),
	}
}

// layer orders primitive kinds from bottom to top.
var layer = map[render.Kind]int{
	render.KindImage:   0,
	render.KindMesh:    1,
	render.KindPolygon: 1,
	render.KindLine:    2,
	render.KindPoint:   3,
	render.KindHandle:  4,
}

// Backend implements render.Backend on a tcell.Screen. It is safe for
// concurrent use.
type Backend struct {
	mu       sync.Mutex
	screen   tcell.Screen
	viewport Viewport
	logger   *log.Logger
	bg       tcell.Style

	prims    map[string]render.Primitive
	order    []string
	visible  map[string]bool
	overlays map[string]render.Overlay
	ovOrder  []string
	widget   bool

	cache *RasterCache
}

// New creates a backend drawing on screen. The screen must be initialised.
func New(screen tcell.Screen, viewport Viewport, opts Options) *Backend {
	def := DefaultOptions()
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}
	if opts.CacheCells <= 0 {
		opts.CacheCells = def.CacheCells
	}
	if opts.Background == (render.Colour{}) {
		opts.Background = def.Background
	}
	return &Backend{
		screen:   screen,
		viewport: viewport,
		logger:   opts.Logger,
		bg:       tcell.StyleDefault.Background(colour(opts.Background)),
		prims:    make(map[string]render.Primitive),
		visible:  make(map[string]bool),
		overlays: make(map[string]render.Overlay),
		widget:   true,
		cache:    NewRasterCache(opts.CacheCells),
	}
}

// Draw implements render.Backend.
func (b *Backend) Draw(p render.Primitive) {
	b.mu.Lock()
	defer b.mu.Unlock()
	old, ok := b.prims[p.ID]
	if !ok {
		b.order = append(b.order, p.ID)
	} else if old.Revision != p.Revision {
		b.cache.Remove(p.ID)
	}
	b.prims[p.ID] = p
}

// SetVisible implements render.Backend.
func (b *Backend) SetVisible(id string, visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if visible {
		b.visible[id] = true
	} else {
		delete(b.visible, id)
	}
}

// Erase implements render.Backend.
func (b *Backend) Erase(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.prims[id]; !ok {
		return
	}
	delete(b.prims, id)
	delete(b.visible, id)
	b.order = slices.DeleteFunc(b.order, func(s string) bool { return s == id })
	b.cache.Remove(id)
}

// ShowOverlay implements render.Backend.
func (b *Backend) ShowOverlay(o render.Overlay) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.overlays[o.ID]; !ok {
		b.ovOrder = append(b.ovOrder, o.ID)
	}
	b.overlays[o.ID] = o
}

// RemoveOverlay implements render.Backend.
func (b *Backend) RemoveOverlay(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.overlays, id)
	b.ovOrder = slices.DeleteFunc(b.ovOrder, func(s string) bool { return s == id })
}

// SetWidgetVisible implements render.Backend.
func (b *Backend) SetWidgetVisible(visible bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.widget = visible
}

// Viewport returns the current viewport.
func (b *Backend) Viewport() Viewport {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.viewport
}

// SetViewport changes the visible area.
func (b *Backend) SetViewport(v Viewport) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.viewport = v
}

// Unproject implements input.Projector.
func (b *Backend) Unproject(x, y int) geo.Vertex {
	return b.Viewport().Unproject(x, y)
}

// Bounds returns the union of the bounds of every visible primitive.
func (b *Backend) Bounds() geo.Bounds {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out geo.Bounds
	for id := range b.visible {
		if p, ok := b.prims[id]; ok {
			out = out.Union(geo.BoundsOf(p.Vertices))
		}
	}
	return out
}

// CacheStats returns raster cache statistics.
func (b *Backend) CacheStats() CacheStats { return b.cache.Stats() }

// Render paints the visible primitives and overlays and shows the screen.
func (b *Backend) Render() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.screen.SetStyle(b.bg)
	b.screen.Clear()
	if b.widget {
		under := make(map[[2]int]tcell.Color)
		for _, id := range b.drawOrder() {
			b.paint(b.prims[id], under)
		}
		for _, id := range b.ovOrder {
			b.paintOverlay(b.overlays[id])
		}
	}
	b.screen.Show()
}

// drawOrder returns the visible primitive IDs bottom layer first, in draw
// order within a layer.
func (b *Backend) drawOrder() []string {
	ids := make([]string, 0, len(b.visible))
	for _, id := range b.order {
		if b.visible[id] {
			ids = append(ids, id)
		}
	}
	slices.SortStableFunc(ids, func(x, y string) int {
		return layer[b.prims[x].Kind] - layer[b.prims[y].Kind]
	})
	return ids
}

// paint draws the raster of p. Glyphs without a background of their own take
// the background already painted under them, recorded in under.
func (b *Backend) paint(p render.Primitive, under map[[2]int]tcell.Color) {
	v := b.viewport
	r, err := b.cache.Get(KeyOf(p, v), func() (*Raster, error) {
		return Rasterize(p, v), nil
	})
	if err != nil {
		b.logger.Printf("paint %s: %v", p.ID, err)
		return
	}
	for _, c := range r.Cells {
		style := c.Style
		pos := [2]int{c.X, c.Y}
		if _, bg, _ := style.Decompose(); bg == tcell.ColorDefault {
			if ubg, ok := under[pos]; ok {
				style = style.Background(ubg)
			} else {
				_, bbg, _ := b.bg.Decompose()
				style = style.Background(bbg)
			}
		} else {
			under[pos] = bg
		}
		b.screen.SetContent(c.X, c.Y, c.Rune, nil, style)
	}
}

// paintOverlay draws a box with the title on the first row, anchored just
// below and right of the anchor cell.
func (b *Backend) paintOverlay(o render.Overlay) {
	x, y, ok := b.viewport.Project(o.Anchor)
	if !ok {
		return
	}
	rows := append([]string{o.Title}, o.Lines...)
	width := 0
	for _, row := range rows {
		width = max(width, len([]rune(row)))
	}
	width += 2

	sw, sh := b.viewport.Width, b.viewport.Height
	x = min(x+1, sw-width)
	y = min(y+1, sh-len(rows))
	x, y = max(x, 0), max(y, 0)

	title := tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorWhite)
	body := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.NewRGBColor(0x30, 0x30, 0x30))
	for i, row := range rows {
		style := body
		if i == 0 {
			style = title
		}
		text := []rune(" " + row)
		for j := 0; j < width; j++ {
			ch := ' '
			if j < len(text) {
				ch = text[j]
			}
			b.screen.SetContent(x+j, y+i, ch, nil, style)
		}
	}
}
