package geo

import (
	"fmt"
	"testing"
)

// Benchmark R-tree spatial index vs linear scan for viewport queries.

func createExtents(n int) map[string]Bounds {
	extents := make(map[string]Bounds, n)
	for i := 0; i < n; i++ {
		lon := 144.0 + float64(i%100)*0.01
		lat := -38.0 + float64(i/100)*0.01
		extents[fmt.Sprintf("e%d", i)] = NewBounds(lon, lat, lon+0.005, lat+0.005)
	}
	return extents
}

// BenchmarkSearch_Rtree benchmarks viewport queries with R-tree index.
func BenchmarkSearch_Rtree(b *testing.B) {
	x := NewIndex()
	for id, e := range createExtents(10000) {
		x.Set(id, e)
	}

	// Small viewport (typical zoom level - shows ~100 extents)
	viewport := NewBounds(144.0, -38.0, 144.1, -37.9)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = x.Search(viewport)
	}
}

// BenchmarkSearch_Linear benchmarks viewport queries with linear scan.
func BenchmarkSearch_Linear(b *testing.B) {
	extents := createExtents(10000)
	viewport := NewBounds(144.0, -38.0, 144.1, -37.9)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var ids []string
		for id, e := range extents {
			if viewport.Intersects(e) {
				ids = append(ids, id)
			}
		}
		_ = ids
	}
}
