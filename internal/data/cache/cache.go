// Package cache is the per-kind identity cache: one canonical *T per
// backing row, reachable through a primary id index and any number of
// typed secondary indexes.
package cache

import (
	"sort"
	"sync"
)

type indexer[T any] interface {
	name() string
	put(item *T)
	drop(item *T)
	reset()
}

// Index maps one natural key to the canonical item. Keys are typed so
// two indexes of the same kind can never collide.
type Index[K comparable, T any] struct {
	label string
	keyOf func(*T) (K, bool)
	owner *Cache[T]
	items map[K]*T
}

// NewIndex declares a secondary index. keyOf reports false when an item
// has no key for this index (it is then simply not indexed).
func NewIndex[K comparable, T any](label string, keyOf func(*T) (K, bool)) *Index[K, T] {
	return &Index[K, T]{label: label, keyOf: keyOf, items: map[K]*T{}}
}

func (ix *Index[K, T]) name() string { return ix.label }

func (ix *Index[K, T]) put(item *T) {
	if k, ok := ix.keyOf(item); ok {
		ix.items[k] = item
	}
}

func (ix *Index[K, T]) drop(item *T) {
	k, ok := ix.keyOf(item)
	if !ok {
		return
	}
	if cur, found := ix.items[k]; found && cur == item {
		delete(ix.items, k)
	}
}

func (ix *Index[K, T]) reset() { ix.items = map[K]*T{} }

// Get returns the cached item for key.
func (ix *Index[K, T]) Get(key K) (*T, bool) {
	if ix.owner != nil {
		ix.owner.mu.RLock()
		defer ix.owner.mu.RUnlock()
	}
	item, ok := ix.items[key]
	return item, ok
}

// Cache owns the canonical items of one entity kind.
type Cache[T any] struct {
	mu      sync.RWMutex
	kind    string
	idOf    func(*T) uint
	ByID    *Index[uint, T]
	indexes []indexer[T]
}

// New builds a cache whose primary index is the surrogate id.
func New[T any](kind string, idOf func(*T) uint) *Cache[T] {
	c := &Cache[T]{kind: kind, idOf: idOf}
	c.ByID = NewIndex[uint, T]("id", func(item *T) (uint, bool) {
		id := idOf(item)
		return id, id != 0
	})
	c.ByID.owner = c
	c.indexes = []indexer[T]{c.ByID}
	return c
}

// WithIndex registers a secondary index on c and returns it. Register all
// indexes before the first Put.
func WithIndex[K comparable, T any](c *Cache[T], ix *Index[K, T]) *Index[K, T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.indexes {
		if existing.name() == ix.label {
			panic("cache: duplicate index " + ix.label + " on " + c.kind)
		}
	}
	ix.owner = c
	c.indexes = append(c.indexes, ix)
	return ix
}

func (c *Cache[T]) Kind() string { return c.kind }

// Put stores item under every index and returns the canonical pointer.
// When an item with the same id is already cached, that object is
// updated in place so earlier holders keep seeing current data.
func (c *Cache[T]) Put(item *T) *T {
	if item == nil {
		return nil
	}
	id := c.idOf(item)
	if id == 0 {
		return item
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.ByID.items[id]; ok {
		if cur != item {
			for _, ix := range c.indexes {
				ix.drop(cur)
			}
			*cur = *item
		}
		for _, ix := range c.indexes {
			ix.put(cur)
		}
		return cur
	}
	for _, ix := range c.indexes {
		ix.put(item)
	}
	return item
}

// Remove evicts the item with the given id from all indexes.
func (c *Cache[T]) Remove(id uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur, ok := c.ByID.items[id]
	if !ok {
		return
	}
	for _, ix := range c.indexes {
		ix.drop(cur)
	}
}

// Reset empties every index.
func (c *Cache[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ix := range c.indexes {
		ix.reset()
	}
}

func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.ByID.items)
}

// Unique returns each cached item once, ordered by id.
func (c *Cache[T]) Unique() []*T {
	c.mu.RLock()
	ids := make([]uint, 0, len(c.ByID.items))
	for id := range c.ByID.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.ByID.items[id])
	}
	c.mu.RUnlock()
	return out
}
