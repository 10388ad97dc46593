package terminal

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/beetlebugorg/atlas/internal/render"
)

// RasterCache keeps rasterised primitives with LRU eviction.
//
// A raster depends on the primitive revision and the viewport, so both are
// part of the key and a rebuilt entity or a moved viewport misses. Size is
// counted in cells.
//
// Example:
//
//	cache := terminal.NewRasterCache(200_000)
//	r, err := cache.Get(terminal.KeyOf(p, viewport), func() (*Raster, error) {
//	    return Rasterize(p, viewport), nil
//	})
type RasterCache struct {
	maxCells  int64 // 0 means unlimited
	usedCells int64
	rasters   map[Key]*cacheEntry
	lru       *list.List // most recent at front
	mu        sync.RWMutex
}

// Key identifies a raster: a primitive revision drawn on a viewport.
type Key struct {
	ID       string
	Revision uint64
	viewport [6]float64
}

// KeyOf returns the key of p drawn on v.
func KeyOf(p render.Primitive, v Viewport) Key {
	return Key{ID: p.ID, Revision: p.Revision, viewport: v.key()}
}

type cacheEntry struct {
	key          Key
	raster       *Raster
	cells        int64
	element      *list.Element
	lastAccessed time.Time
	accessCount  int
}

// NewRasterCache creates a cache holding at most maxCells cells.
func NewRasterCache(maxCells int64) *RasterCache {
	return &RasterCache{
		maxCells: maxCells,
		rasters:  make(map[Key]*cacheEntry),
		lru:      list.New(),
	}
}

// Get returns the cached raster for key, or calls loader and caches its
// result. A raster too large to cache is returned uncached.
func (c *RasterCache) Get(key Key, loader func() (*Raster, error)) (*Raster, error) {
	c.mu.Lock()
	if entry, ok := c.rasters[key]; ok {
		entry.lastAccessed = time.Now()
		entry.accessCount++
		c.lru.MoveToFront(entry.element)
		c.mu.Unlock()
		return entry.raster, nil
	}
	c.mu.Unlock()

	r, err := loader()
	if err != nil {
		return nil, fmt.Errorf("rasterize %s: %w", key.ID, err)
	}
	_ = c.Add(key, r)
	return r, nil
}

// Add caches r under key, evicting least recently used rasters to make room.
func (c *RasterCache) Add(key Key, r *Raster) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.rasters[key]; ok {
		c.usedCells += r.size() - entry.cells
		entry.raster = r
		entry.cells = r.size()
		entry.lastAccessed = time.Now()
		entry.accessCount++
		c.lru.MoveToFront(entry.element)
		return nil
	}

	size := r.size()
	if c.maxCells > 0 && size > c.maxCells {
		return fmt.Errorf("raster too large for cache (%d cells > %d cells max)", size, c.maxCells)
	}
	if c.maxCells > 0 {
		for c.usedCells+size > c.maxCells && c.lru.Len() > 0 {
			c.evictLRU()
		}
	}

	entry := &cacheEntry{
		key:          key,
		raster:       r,
		cells:        size,
		lastAccessed: time.Now(),
		accessCount:  1,
	}
	entry.element = c.lru.PushFront(entry)
	c.rasters[key] = entry
	c.usedCells += size
	return nil
}

// evictLRU must be called with c.mu locked.
func (c *RasterCache) evictLRU() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	entry := elem.Value.(*cacheEntry)
	c.lru.Remove(elem)
	delete(c.rasters, entry.key)
	c.usedCells -= entry.cells
}

// Remove drops every raster of primitive id.
func (c *RasterCache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.rasters {
		if key.ID != id {
			continue
		}
		c.lru.Remove(entry.element)
		delete(c.rasters, key)
		c.usedCells -= entry.cells
	}
}

// Clear empties the cache.
func (c *RasterCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rasters = make(map[Key]*cacheEntry)
	c.lru.Init()
	c.usedCells = 0
}

// Stats returns cache statistics.
func (c *RasterCache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, entry := range c.rasters {
		total += entry.accessCount
	}
	return CacheStats{
		RasterCount: len(c.rasters),
		UsedCells:   c.usedCells,
		MaxCells:    c.maxCells,
		TotalAccess: total,
	}
}

// CacheStats holds cache metrics.
type CacheStats struct {
	RasterCount int   // Number of rasters cached
	UsedCells   int64 // Cells held by cached rasters
	MaxCells    int64 // Cell limit, 0 when unlimited
	TotalAccess int   // Accesses across all cached rasters
}
