package geo

// Bounds represents a geographic bounding box in WGS-84 coordinates.
//
// Coordinates are in decimal degrees. The zero value is an empty box; use
// Empty to test for it.
type Bounds struct {
	MinLon float64 `json:"minLon" yaml:"minLon"` // Western edge
	MaxLon float64 `json:"maxLon" yaml:"maxLon"` // Eastern edge
	MinLat float64 `json:"minLat" yaml:"minLat"` // Southern edge
	MaxLat float64 `json:"maxLat" yaml:"maxLat"` // Northern edge

	valid bool
}

// NewBounds returns the box spanning the given corners.
func NewBounds(minLon, minLat, maxLon, maxLat float64) Bounds {
	return Bounds{MinLon: minLon, MaxLon: maxLon, MinLat: minLat, MaxLat: maxLat, valid: true}
}

// BoundsOf calculates the bounding box of vertices.
func BoundsOf(vertices []Vertex) Bounds {
	var b Bounds
	for _, v := range vertices {
		b = b.Include(v)
	}
	return b
}

// Empty reports whether the box contains no points.
func (b Bounds) Empty() bool {
	return !b.valid && b.MinLon == 0 && b.MaxLon == 0 && b.MinLat == 0 && b.MaxLat == 0
}

// Include returns the box expanded to contain v.
func (b Bounds) Include(v Vertex) Bounds {
	if b.Empty() {
		return NewBounds(v.Longitude, v.Latitude, v.Longitude, v.Latitude)
	}
	if v.Longitude < b.MinLon {
		b.MinLon = v.Longitude
	}
	if v.Longitude > b.MaxLon {
		b.MaxLon = v.Longitude
	}
	if v.Latitude < b.MinLat {
		b.MinLat = v.Latitude
	}
	if v.Latitude > b.MaxLat {
		b.MaxLat = v.Latitude
	}
	b.valid = true
	return b
}

// Union returns the smallest box containing b and other.
func (b Bounds) Union(other Bounds) Bounds {
	if other.Empty() {
		return b
	}
	if b.Empty() {
		return other
	}
	b = b.Include(V(other.MinLon, other.MinLat))
	return b.Include(V(other.MaxLon, other.MaxLat))
}

// Contains returns true if the point (lon, lat) is within the bounds.
func (b Bounds) Contains(lon, lat float64) bool {
	return lon >= b.MinLon && lon <= b.MaxLon &&
		lat >= b.MinLat && lat <= b.MaxLat
}

// Intersects returns true if the given bounds intersects with this bounds.
func (b Bounds) Intersects(other Bounds) bool {
	return !(other.MaxLon < b.MinLon ||
		other.MinLon > b.MaxLon ||
		other.MaxLat < b.MinLat ||
		other.MinLat > b.MaxLat)
}

// Expand returns a new Bounds expanded by the given margin in all directions.
//
// Margin is in decimal degrees.
func (b Bounds) Expand(margin float64) Bounds {
	return NewBounds(b.MinLon-margin, b.MinLat-margin, b.MaxLon+margin, b.MaxLat+margin)
}

// Center returns the midpoint of the box.
func (b Bounds) Center() Vertex {
	return V((b.MinLon+b.MaxLon)/2, (b.MinLat+b.MaxLat)/2)
}

// Width returns the longitude span.
func (b Bounds) Width() float64 { return b.MaxLon - b.MinLon }

// Height returns the latitude span.
func (b Bounds) Height() float64 { return b.MaxLat - b.MinLat }
