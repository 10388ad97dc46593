// Package geo provides the geographic primitives shared by Atlas entities:
// vertices, bounding boxes, polygon measures and an R-tree spatial index.
//
// Coordinates are WGS-84 decimal degrees; elevation is in metres.
package geo

import (
	"fmt"
	"math"
)

// EarthRadius is the mean Earth radius in metres.
const EarthRadius = 6371008.8

// Vertex is a geographic position.
type Vertex struct {
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Elevation float64 `json:"elevation,omitempty" yaml:"elevation,omitempty"`
}

// V is a shorthand constructor for a vertex at zero elevation.
func V(lon, lat float64) Vertex {
	return Vertex{Longitude: lon, Latitude: lat}
}

// Translate returns v moved by the components of d.
func (v Vertex) Translate(d Vertex) Vertex {
	return Vertex{
		Longitude: v.Longitude + d.Longitude,
		Latitude:  v.Latitude + d.Latitude,
		Elevation: v.Elevation + d.Elevation,
	}
}

// Sub returns the component-wise difference v - o.
func (v Vertex) Sub(o Vertex) Vertex {
	return Vertex{
		Longitude: v.Longitude - o.Longitude,
		Latitude:  v.Latitude - o.Latitude,
		Elevation: v.Elevation - o.Elevation,
	}
}

// Equals reports value equality.
func (v Vertex) Equals(o Vertex) bool {
	return v == o
}

// IsZero reports whether v is the zero vector.
func (v Vertex) IsZero() bool {
	return v == Vertex{}
}

// ScaleFrom scales v's horizontal offset from origin by factor.
func (v Vertex) ScaleFrom(origin Vertex, factor float64) Vertex {
	return Vertex{
		Longitude: origin.Longitude + (v.Longitude-origin.Longitude)*factor,
		Latitude:  origin.Latitude + (v.Latitude-origin.Latitude)*factor,
		Elevation: v.Elevation,
	}
}

// RotateAbout rotates v counterclockwise around origin by degrees.
//
// Longitude offsets are scaled by cos(latitude) so that rotation preserves
// shape at the origin's latitude.
func (v Vertex) RotateAbout(origin Vertex, degrees float64) Vertex {
	rad := degrees * math.Pi / 180
	k := math.Cos(origin.Latitude * math.Pi / 180)
	if k < 1e-9 {
		k = 1e-9
	}
	x := (v.Longitude - origin.Longitude) * k
	y := v.Latitude - origin.Latitude
	sin, cos := math.Sincos(rad)
	rx := x*cos - y*sin
	ry := x*sin + y*cos
	return Vertex{
		Longitude: origin.Longitude + rx/k,
		Latitude:  origin.Latitude + ry,
		Elevation: v.Elevation,
	}
}

// DistanceTo returns the horizontal distance to o in degrees, with longitude
// scaled by cos(latitude).
func (v Vertex) DistanceTo(o Vertex) float64 {
	k := math.Cos((v.Latitude + o.Latitude) / 2 * math.Pi / 180)
	return math.Hypot((v.Longitude-o.Longitude)*k, v.Latitude-o.Latitude)
}

func (v Vertex) String() string {
	return fmt.Sprintf("(%.6f, %.6f, %.1f)", v.Longitude, v.Latitude, v.Elevation)
}

// Clone returns a copy of vs.
func Clone(vs []Vertex) []Vertex {
	if vs == nil {
		return nil
	}
	out := make([]Vertex, len(vs))
	copy(out, vs)
	return out
}
