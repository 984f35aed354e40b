// Package cache holds recently fetched per-category record snapshots so
// switching back to a category does not force an immediate refetch.
package cache

import (
	"container/list"
	"sync"
	"time"

	"iuran/internal/core"
)

// Snapshot is one normalized record set for a category, stamped with the
// fetch that produced it.
type Snapshot struct {
	CategoryKey string
	Records     []core.PaymentRecord
	Degraded    bool
	FetchedAt   time.Time
}

// Snapshots is an LRU of category snapshots with TTL expiry and
// size-based eviction. Safe for concurrent use.
type Snapshots struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type entry struct {
	snap      Snapshot
	expiresAt time.Time
}

// NewSnapshots creates a snapshot cache holding at most maxSize categories,
// each for at most ttl.
func NewSnapshots(maxSize int, ttl time.Duration) *Snapshots {
	return &Snapshots{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Get returns the cached snapshot for a category key, if fresh.
func (c *Snapshots) Get(categoryKey string) (Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[categoryKey]
	if !exists {
		return Snapshot{}, false
	}
	e := elem.Value.(*entry)
	if time.Now().After(e.expiresAt) {
		c.removeElement(elem)
		return Snapshot{}, false
	}
	c.lru.MoveToFront(elem)
	return e.snap, true
}

// Put stores a snapshot, evicting the least recently used category when
// over capacity. Degraded snapshots are not cached: a fallback record set
// must not mask a later successful fetch.
func (c *Snapshots) Put(snap Snapshot) {
	if snap.Degraded {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e := &entry{snap: snap, expiresAt: time.Now().Add(c.ttl)}
	if elem, exists := c.items[snap.CategoryKey]; exists {
		elem.Value = e
		c.lru.MoveToFront(elem)
		return
	}
	elem := c.lru.PushFront(e)
	c.items[snap.CategoryKey] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// Invalidate drops the snapshot for a category, typically after a submit
// makes it stale.
func (c *Snapshots) Invalidate(categoryKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, exists := c.items[categoryKey]; exists {
		c.removeElement(elem)
	}
}

func (c *Snapshots) removeElement(elem *list.Element) {
	e := elem.Value.(*entry)
	delete(c.items, e.snap.CategoryKey)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired snapshots and reports how many.
func (c *Snapshots) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*entry).expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

// Size returns the number of cached categories.
func (c *Snapshots) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
