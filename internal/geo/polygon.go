package geo

import (
	"math"
	"sort"
)

// SignedArea returns the signed planar area of the ring in square degrees
// using the shoelace formula. Positive for counterclockwise winding.
func SignedArea(ring []Vertex) float64 {
	n := len(ring)
	if n < 3 {
		return 0
	}
	area := 0.0
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += ring[i].Longitude * ring[j].Latitude
		area -= ring[j].Longitude * ring[i].Latitude
	}
	return area / 2
}

// Area returns the approximate area of the ring in square metres.
//
// The ring is projected equirectangularly around its mean latitude, which is
// accurate for the city-scale shapes Atlas displays.
func Area(ring []Vertex) float64 {
	if len(ring) < 3 {
		return 0
	}
	lat := Mean(ring).Latitude * math.Pi / 180
	degToM := EarthRadius * math.Pi / 180
	return math.Abs(SignedArea(ring)) * degToM * degToM * math.Cos(lat)
}

// Mean returns the arithmetic mean of the vertices.
func Mean(vs []Vertex) Vertex {
	if len(vs) == 0 {
		return Vertex{}
	}
	var sum Vertex
	for _, v := range vs {
		sum = sum.Translate(v)
	}
	n := float64(len(vs))
	return Vertex{Longitude: sum.Longitude / n, Latitude: sum.Latitude / n, Elevation: sum.Elevation / n}
}

// Centroid returns the area centroid of the ring. Degenerate rings (fewer than
// three vertices or zero area) fall back to the vertex mean.
func Centroid(ring []Vertex) Vertex {
	a := SignedArea(ring)
	if len(ring) < 3 || math.Abs(a) < 1e-15 {
		return Mean(ring)
	}
	var cx, cy float64
	n := len(ring)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := ring[i].Longitude*ring[j].Latitude - ring[j].Longitude*ring[i].Latitude
		cx += (ring[i].Longitude + ring[j].Longitude) * cross
		cy += (ring[i].Latitude + ring[j].Latitude) * cross
	}
	return Vertex{
		Longitude: cx / (6 * a),
		Latitude:  cy / (6 * a),
		Elevation: Mean(ring).Elevation,
	}
}

// ConvexHull returns the convex hull of vs in counterclockwise order using
// the monotone chain algorithm. Collinear points are dropped.
func ConvexHull(vs []Vertex) []Vertex {
	pts := Clone(vs)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i].Longitude != pts[j].Longitude {
			return pts[i].Longitude < pts[j].Longitude
		}
		return pts[i].Latitude < pts[j].Latitude
	})
	// Remove duplicates
	uniq := pts[:0]
	for _, p := range pts {
		if n := len(uniq); n == 0 || p.Longitude != uniq[n-1].Longitude || p.Latitude != uniq[n-1].Latitude {
			uniq = append(uniq, p)
		}
	}
	pts = uniq
	if len(pts) < 3 {
		return pts
	}

	cross := func(o, a, b Vertex) float64 {
		return (a.Longitude-o.Longitude)*(b.Latitude-o.Latitude) -
			(a.Latitude-o.Latitude)*(b.Longitude-o.Longitude)
	}

	hull := make([]Vertex, 0, 2*len(pts))
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// Translate returns vs moved by d.
func Translate(vs []Vertex, d Vertex) []Vertex {
	out := make([]Vertex, len(vs))
	for i, v := range vs {
		out[i] = v.Translate(d)
	}
	return out
}

// Scale returns vs scaled around origin by factor.
func Scale(vs []Vertex, origin Vertex, factor float64) []Vertex {
	out := make([]Vertex, len(vs))
	for i, v := range vs {
		out[i] = v.ScaleFrom(origin, factor)
	}
	return out
}

// Rotate returns vs rotated counterclockwise around origin by degrees.
func Rotate(vs []Vertex, origin Vertex, degrees float64) []Vertex {
	out := make([]Vertex, len(vs))
	for i, v := range vs {
		out[i] = v.RotateAbout(origin, degrees)
	}
	return out
}
