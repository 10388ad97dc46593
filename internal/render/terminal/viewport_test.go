package terminal

import (
	"math"
	"testing"

	"github.com/beetlebugorg/atlas/internal/geo"
)

func TestViewportProject(t *testing.T) {
	v := testViewport()

	tests := []struct {
		name string
		p    geo.Vertex
		x, y int
		ok   bool
	}{
		{"north west corner", geo.V(0.5, 9.5), 0, 0, true},
		{"south east corner", geo.V(9.5, 0.5), 9, 9, true},
		{"centre", geo.V(5.2, 4.8), 5, 5, true},
		{"east edge is off screen", geo.V(10, 5), 10, 5, false},
		{"west of bounds", geo.V(-1, 5), -1, 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y, ok := v.Project(tt.p)
			if x != tt.x || y != tt.y || ok != tt.ok {
				t.Errorf("Expected (%d, %d, %v), got (%d, %d, %v)", tt.x, tt.y, tt.ok, x, y, ok)
			}
		})
	}
}

func TestViewportUnproject(t *testing.T) {
	v := testViewport()
	for _, c := range [][2]int{{0, 0}, {3, 7}, {9, 9}} {
		p := v.Unproject(c[0], c[1])
		x, y, ok := v.Project(p)
		if !ok || x != c[0] || y != c[1] {
			t.Errorf("Expected cell %v to round trip, got (%d, %d, %v)", c, x, y, ok)
		}
	}
	if p := v.Unproject(0, 0); !p.Equals(geo.V(0.5, 9.5)) {
		t.Errorf("Expected (0.5, 9.5), got %v", p)
	}

	var zero Viewport
	if _, _, ok := zero.Project(geo.V(1, 1)); ok {
		t.Error("Expected an empty viewport to project nothing")
	}
}

func TestViewportNavigation(t *testing.T) {
	v := testViewport()

	panned := v.Pan(2, 1)
	if panned.Bounds.MinLon != 2 || panned.Bounds.MaxLat != 9 {
		t.Errorf("Expected bounds moved east 2 and south 1, got %+v", panned.Bounds)
	}

	zoomed := v.Zoom(2)
	if zoomed.Bounds.Width() != 5 || !zoomed.Bounds.Center().Equals(geo.V(5, 5)) {
		t.Errorf("Expected a 5 degree box about (5, 5), got %+v", zoomed.Bounds)
	}
	if v.Zoom(0) != v {
		t.Error("Expected zoom by 0 to keep the viewport")
	}

	fit := v.Fit(geo.NewBounds(0, 0, 2, 2))
	if math.Abs(fit.Bounds.MinLon+0.1) > 1e-9 || math.Abs(fit.Bounds.MaxLat-2.1) > 1e-9 {
		t.Errorf("Expected a 5%% margin, got %+v", fit.Bounds)
	}
	if v.Fit(geo.Bounds{}) != v {
		t.Error("Expected fit to empty bounds to keep the viewport")
	}

	if lon, lat := v.Resize(20, 5).CellSize(); lon != 0.5 || lat != 2 {
		t.Errorf("Expected cells of 0.5 by 2 degrees, got %v by %v", lon, lat)
	}
}
