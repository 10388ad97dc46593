package geo

import (
	"sort"

	"github.com/dhconnelly/rtreego"
)

// Index provides O(log n) bounding box queries over identified extents
// using an R-tree.
//
// Index is not safe for concurrent use.
type Index struct {
	rtree *rtreego.Rtree // R-tree for fast spatial queries
	items map[string]*indexedItem
}

// indexedItem wraps an extent for R-tree storage.
type indexedItem struct {
	id     string
	bounds Bounds
}

// Bounds implements rtreego.Spatial interface.
func (i *indexedItem) Bounds() rtreego.Rect {
	return toRect(i.bounds)
}

// NewIndex creates an empty spatial index.
func NewIndex() *Index {
	return &Index{
		// 2D, min=25 children, max=50 children
		rtree: rtreego.NewTree(2, 25, 50),
		items: make(map[string]*indexedItem),
	}
}

// Set inserts or replaces the extent stored for id. Empty bounds remove id.
func (x *Index) Set(id string, b Bounds) {
	if old, ok := x.items[id]; ok {
		if old.bounds == b {
			return
		}
		x.rtree.Delete(old)
		delete(x.items, id)
	}
	if b.Empty() {
		return
	}
	item := &indexedItem{id: id, bounds: b}
	x.items[id] = item
	x.rtree.Insert(item)
}

// Remove deletes id from the index.
func (x *Index) Remove(id string) {
	if old, ok := x.items[id]; ok {
		x.rtree.Delete(old)
		delete(x.items, id)
	}
}

// Has reports whether id is indexed.
func (x *Index) Has(id string) bool {
	_, ok := x.items[id]
	return ok
}

// Len returns the number of indexed extents.
func (x *Index) Len() int {
	return len(x.items)
}

// Search returns the IDs whose extents intersect b, sorted.
//
// Example:
//
//	viewport := geo.NewBounds(144.9, -37.9, 145.0, -37.8)
//	for _, id := range index.Search(viewport) {
//	    fmt.Println(id)
//	}
func (x *Index) Search(b Bounds) []string {
	if b.Empty() || len(x.items) == 0 {
		return nil
	}
	spatials := x.rtree.SearchIntersect(toRect(b))
	ids := make([]string, 0, len(spatials))
	for _, s := range spatials {
		ids = append(ids, s.(*indexedItem).id)
	}
	sort.Strings(ids)
	return ids
}

// SearchPoint returns the IDs whose extents lie within tolerance degrees of v.
func (x *Index) SearchPoint(v Vertex, tolerance float64) []string {
	return x.Search(NewBounds(v.Longitude, v.Latitude, v.Longitude, v.Latitude).Expand(tolerance))
}

// toRect converts b to an R-tree rectangle. R-tree requires non-zero
// dimensions, so point extents get a small epsilon (~11 metres at equator).
func toRect(b Bounds) rtreego.Rect {
	point := rtreego.Point{b.MinLon, b.MinLat}

	lonLength := b.MaxLon - b.MinLon
	latLength := b.MaxLat - b.MinLat

	const epsilon = 0.0001
	if lonLength < epsilon {
		lonLength = epsilon
	}
	if latLength < epsilon {
		latLength = epsilon
	}

	rect, _ := rtreego.NewRect(point, []float64{lonLength, latLength})
	return rect
}
