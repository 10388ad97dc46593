package geo

import (
	"math"
	"slices"
	"testing"
)

const eps = 1e-9

func near(a, b float64) bool {
	return math.Abs(a-b) < eps
}

func square() []Vertex {
	return []Vertex{V(0, 0), V(2, 0), V(2, 2), V(0, 2)}
}

func TestSignedAreaWinding(t *testing.T) {
	ring := square()
	if got := SignedArea(ring); !near(got, 4) {
		t.Errorf("Expected area 4, got %f", got)
	}
	slices.Reverse(ring)
	if got := SignedArea(ring); !near(got, -4) {
		t.Errorf("Expected area -4 for clockwise ring, got %f", got)
	}
}

func TestAreaMetres(t *testing.T) {
	// 0.001° square at the equator is roughly 111.2m per side.
	ring := []Vertex{V(0, 0), V(0.001, 0), V(0.001, 0.001), V(0, 0.001)}
	got := Area(ring)
	if got < 12300 || got > 12400 {
		t.Errorf("Expected about 12360 m², got %f", got)
	}
	if Area(ring[:2]) != 0 {
		t.Error("Expected zero area for a degenerate ring")
	}
}

func TestCentroid(t *testing.T) {
	c := Centroid(square())
	if !near(c.Longitude, 1) || !near(c.Latitude, 1) {
		t.Errorf("Expected centroid (1, 1), got %v", c)
	}

	line := []Vertex{V(0, 0), V(4, 0)}
	c = Centroid(line)
	if !near(c.Longitude, 2) || !near(c.Latitude, 0) {
		t.Errorf("Expected mean fallback (2, 0), got %v", c)
	}
}

func TestConvexHull(t *testing.T) {
	pts := []Vertex{
		V(0, 0), V(2, 0), V(2, 2), V(0, 2),
		V(1, 1), // interior
		V(1, 0), // collinear
		V(0, 0), // duplicate
		V(0.5, 1.5), V(1.5, 0.5),
	}
	hull := ConvexHull(pts)
	if len(hull) != 4 {
		t.Fatalf("Expected 4 hull vertices, got %d: %v", len(hull), hull)
	}
	if SignedArea(hull) <= 0 {
		t.Error("Expected counterclockwise hull")
	}
	if !near(SignedArea(hull), 4) {
		t.Errorf("Expected hull area 4, got %f", SignedArea(hull))
	}
}

func TestBounds(t *testing.T) {
	var b Bounds
	if !b.Empty() {
		t.Fatal("Zero bounds should be empty")
	}
	b = BoundsOf(square())
	if b.MinLon != 0 || b.MaxLon != 2 || b.MinLat != 0 || b.MaxLat != 2 {
		t.Errorf("Unexpected bounds %+v", b)
	}
	if !b.Contains(1, 1) || b.Contains(3, 1) {
		t.Error("Contains returned wrong result")
	}
	if !b.Intersects(NewBounds(1, 1, 5, 5)) {
		t.Error("Expected intersection")
	}
	if b.Intersects(NewBounds(3, 3, 5, 5)) {
		t.Error("Expected no intersection")
	}

	u := b.Union(NewBounds(-1, 1, 1, 3))
	if u.MinLon != -1 || u.MaxLat != 3 {
		t.Errorf("Unexpected union %+v", u)
	}
	origin := BoundsOf([]Vertex{V(0, 0)})
	if origin.Empty() {
		t.Error("Bounds of the origin should not be empty")
	}
}

func TestVertexTransforms(t *testing.T) {
	v := Vertex{Longitude: 1, Latitude: 2, Elevation: 3}
	moved := v.Translate(Vertex{Longitude: 0.5, Latitude: -1})
	if !moved.Equals(Vertex{Longitude: 1.5, Latitude: 1, Elevation: 3}) {
		t.Errorf("Unexpected translation %v", moved)
	}

	scaled := V(2, 2).ScaleFrom(V(1, 1), 2)
	if !near(scaled.Longitude, 3) || !near(scaled.Latitude, 3) {
		t.Errorf("Unexpected scale %v", scaled)
	}

	rotated := V(1, 0).RotateAbout(V(0, 0), 90)
	if !near(rotated.Longitude, 0) || !near(rotated.Latitude, 1) {
		t.Errorf("Expected (0, 1), got %v", rotated)
	}
}

func TestIndex(t *testing.T) {
	x := NewIndex()
	x.Set("a", NewBounds(0, 0, 1, 1))
	x.Set("b", NewBounds(5, 5, 6, 6))
	x.Set("p", BoundsOf([]Vertex{V(10, 10)}))

	if got := x.Search(NewBounds(0.5, 0.5, 5.5, 5.5)); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Expected [a b], got %v", got)
	}
	if got := x.SearchPoint(V(10, 10), 0.01); !slices.Equal(got, []string{"p"}) {
		t.Errorf("Expected point extent to be found, got %v", got)
	}

	// Moving a replaces its extent.
	x.Set("a", NewBounds(20, 20, 21, 21))
	if got := x.Search(NewBounds(0, 0, 1, 1)); len(got) != 0 {
		t.Errorf("Expected stale extent to be gone, got %v", got)
	}

	x.Remove("b")
	if x.Has("b") || x.Len() != 2 {
		t.Errorf("Expected b removed, len=%d", x.Len())
	}
	x.Set("p", Bounds{})
	if x.Has("p") {
		t.Error("Setting empty bounds should remove the extent")
	}
}
