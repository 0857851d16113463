package index

import (
	"sync"
	"time"

	"github.com/MrSnakeDoc/steamjump/internal/domain"
)

// Deriver flattens a cache into searchable items.
type Deriver interface {
	Items(c *domain.Cache) []*domain.Item
}

// MemoryIndex holds the items derived from the last committed cache.
// It is rebuilt from a store commit hook and read by every query.
type MemoryIndex struct {
	mu          sync.RWMutex
	deriver     Deriver
	items       []*domain.Item          // stable derivation order
	byKey       map[string]*domain.Item // Key() -> Item
	lastRebuild time.Time               // Timestamp of last rebuild
}

// NewMemoryIndex creates an empty index
func NewMemoryIndex(d Deriver) *MemoryIndex {
	return &MemoryIndex{
		deriver: d,
		byKey:   make(map[string]*domain.Item),
	}
}

// Rebuild replaces all items with the ones derived from c
func (idx *MemoryIndex) Rebuild(c *domain.Cache) {
	items := idx.deriver.Items(c)
	byKey := make(map[string]*domain.Item, len(items))
	for _, it := range items {
		byKey[it.Key()] = it
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.items = items
	idx.byKey = byKey
	idx.lastRebuild = time.Now()
}

// Items returns all items. The slice must not be modified.
func (idx *MemoryIndex) Items() []*domain.Item {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.items
}

// Get retrieves an item by key ("kind:id")
func (idx *MemoryIndex) Get(key string) (*domain.Item, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	it, ok := idx.byKey[key]
	return it, ok
}

// Count returns the number of items in the index
func (idx *MemoryIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.items)
}

// CountByKind returns the number of items per kind
func (idx *MemoryIndex) CountByKind() map[domain.Kind]int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	out := make(map[domain.Kind]int)
	for _, it := range idx.items {
		out[it.Kind]++
	}
	return out
}

// GetLastRebuild returns the timestamp of the last rebuild
func (idx *MemoryIndex) GetLastRebuild() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastRebuild
}
