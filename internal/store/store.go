// Package store provides an ordered, ID-keyed collection used by the Atlas
// managers to track live objects.
package store

import "slices"

// Item is anything identified by a string ID.
type Item interface {
	ID() string
}

// Store maps IDs to items and iterates in insertion order.
//
// Store performs no locking; it is owned by a single manager or entity.
// Add reports a duplicate ID by returning false and leaves the existing item
// in place, so each caller decides whether a duplicate is fatal or a warning.
type Store[T Item] struct {
	items map[string]T
	order []string
}

// New creates an empty store.
func New[T Item]() *Store[T] {
	return &Store[T]{
		items: make(map[string]T),
		order: make([]string, 0, 16),
	}
}

// Add inserts item. It returns false without modifying the store when an
// item with the same ID is already present.
func (s *Store[T]) Add(item T) bool {
	id := item.ID()
	if _, exists := s.items[id]; exists {
		return false
	}
	s.items[id] = item
	s.order = append(s.order, id)
	return true
}

// Remove deletes the item with id and returns it.
func (s *Store[T]) Remove(id string) (T, bool) {
	item, ok := s.items[id]
	if !ok {
		return item, false
	}
	delete(s.items, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return item, true
}

// Get returns the item with id.
func (s *Store[T]) Get(id string) (T, bool) {
	item, ok := s.items[id]
	return item, ok
}

// Has reports whether id is present.
func (s *Store[T]) Has(id string) bool {
	_, ok := s.items[id]
	return ok
}

// Len returns the number of items.
func (s *Store[T]) Len() int {
	return len(s.order)
}

// IDs returns the item IDs in insertion order.
func (s *Store[T]) IDs() []string {
	return slices.Clone(s.order)
}

// Items returns the items in insertion order.
func (s *Store[T]) Items() []T {
	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.items[id])
	}
	return out
}

// ForEach calls fn for every item in insertion order. The iteration works on
// a snapshot, so fn may add or remove items.
func (s *Store[T]) ForEach(fn func(T)) {
	for _, item := range s.Items() {
		fn(item)
	}
}

// Every reports whether fn holds for all items. It is true for an empty store.
func (s *Store[T]) Every(fn func(T) bool) bool {
	for _, item := range s.Items() {
		if !fn(item) {
			return false
		}
	}
	return true
}

// Some reports whether fn holds for at least one item.
func (s *Store[T]) Some(fn func(T) bool) bool {
	for _, item := range s.Items() {
		if fn(item) {
			return true
		}
	}
	return false
}

// Filter returns the items for which fn holds, in insertion order.
func (s *Store[T]) Filter(fn func(T) bool) []T {
	var out []T
	for _, item := range s.Items() {
		if fn(item) {
			out = append(out, item)
		}
	}
	return out
}

// Map applies fn to every item and collects the results in insertion order.
func Map[T Item, R any](s *Store[T], fn func(T) R) []R {
	out := make([]R, 0, s.Len())
	for _, item := range s.Items() {
		out = append(out, fn(item))
	}
	return out
}

// Clone returns a shallow copy of the store.
func (s *Store[T]) Clone() *Store[T] {
	c := New[T]()
	for _, id := range s.order {
		c.items[id] = s.items[id]
		c.order = append(c.order, id)
	}
	return c
}

// Purge removes every item and returns them in insertion order.
func (s *Store[T]) Purge() []T {
	items := s.Items()
	s.items = make(map[string]T)
	s.order = s.order[:0]
	return items
}
