package terminal

import (
	"math"

	"github.com/beetlebugorg/atlas/internal/geo"
)

// Viewport maps the geographic area on screen onto a grid of cells. Row 0 is
// the northern edge.
type Viewport struct {
	Bounds        geo.Bounds
	Width, Height int
}

// NewViewport returns a viewport showing b on a width by height grid.
func NewViewport(b geo.Bounds, width, height int) Viewport {
	return Viewport{Bounds: b, Width: width, Height: height}
}

func (v Viewport) valid() bool {
	return v.Width > 0 && v.Height > 0 && v.Bounds.Width() > 0 && v.Bounds.Height() > 0
}

// Project returns the cell containing p. ok is false when p is off screen.
func (v Viewport) Project(p geo.Vertex) (x, y int, ok bool) {
	if !v.valid() {
		return 0, 0, false
	}
	fx, fy := v.project(p)
	x, y = int(math.Floor(fx)), int(math.Floor(fy))
	return x, y, x >= 0 && y >= 0 && x < v.Width && y < v.Height
}

// project returns fractional cell coordinates, unclipped.
func (v Viewport) project(p geo.Vertex) (float64, float64) {
	fx := (p.Longitude - v.Bounds.MinLon) / v.Bounds.Width() * float64(v.Width)
	fy := (v.Bounds.MaxLat - p.Latitude) / v.Bounds.Height() * float64(v.Height)
	return fx, fy
}

// Unproject returns the position at the centre of cell (x, y).
func (v Viewport) Unproject(x, y int) geo.Vertex {
	if !v.valid() {
		return geo.Vertex{}
	}
	lon := v.Bounds.MinLon + (float64(x)+0.5)/float64(v.Width)*v.Bounds.Width()
	lat := v.Bounds.MaxLat - (float64(y)+0.5)/float64(v.Height)*v.Bounds.Height()
	return geo.V(lon, lat)
}

// CellSize returns the size of one cell in degrees.
func (v Viewport) CellSize() (lon, lat float64) {
	if !v.valid() {
		return 0, 0
	}
	return v.Bounds.Width() / float64(v.Width), v.Bounds.Height() / float64(v.Height)
}

// Pan moves the viewport by dx columns and dy rows.
func (v Viewport) Pan(dx, dy int) Viewport {
	lon, lat := v.CellSize()
	b := v.Bounds
	v.Bounds = geo.NewBounds(b.MinLon+float64(dx)*lon, b.MinLat-float64(dy)*lat, b.MaxLon+float64(dx)*lon, b.MaxLat-float64(dy)*lat)
	return v
}

// Zoom scales the visible area about its centre. Factors above 1 zoom in.
func (v Viewport) Zoom(factor float64) Viewport {
	if factor <= 0 {
		return v
	}
	c := v.Bounds.Center()
	hw, hh := v.Bounds.Width()/2/factor, v.Bounds.Height()/2/factor
	v.Bounds = geo.NewBounds(c.Longitude-hw, c.Latitude-hh, c.Longitude+hw, c.Latitude+hh)
	return v
}

// Fit returns a viewport showing b with a small margin. An empty or
// degenerate b keeps the current bounds.
func (v Viewport) Fit(b geo.Bounds) Viewport {
	if b.Empty() {
		return v
	}
	margin := math.Max(b.Width(), b.Height()) * 0.05
	if margin == 0 {
		margin = 0.001
	}
	v.Bounds = b.Expand(margin)
	return v
}

// Resize returns the viewport on a width by height grid.
func (v Viewport) Resize(width, height int) Viewport {
	v.Width, v.Height = width, height
	return v
}

// key identifies the viewport in raster cache keys.
func (v Viewport) key() [6]float64 {
	return [6]float64{v.Bounds.MinLon, v.Bounds.MinLat, v.Bounds.MaxLon, v.Bounds.MaxLat, float64(v.Width), float64(v.Height)}
}
