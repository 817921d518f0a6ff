// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package decode

import (
	"container/list"
	"sync"
)

// cacheKey identifies one decoded entry: the owning archive's
// process-unique ID plus the entry's logical path.
type cacheKey struct {
	archive uint64
	path    string
}

// cacheSlot is one resident decoded entry.
type cacheSlot struct {
	key     cacheKey
	content []byte
}

// lruCache is a bounded least-recently-used cache of decoded entry
// content. The bound is total content bytes, not slot count, since
// entries range from a few bytes to tens of megabytes. The cache is a
// pure performance layer: a miss costs a decode, never a different
// result.
type lruCache struct {
	mu    sync.Mutex
	limit int64
	used  int64

	// order holds *cacheSlot elements, most recently used at the
	// front.
	order *list.List
	slots map[cacheKey]*list.Element
}

func newLRUCache(limit int64) *lruCache {
	return &lruCache{
		limit: limit,
		order: list.New(),
		slots: make(map[cacheKey]*list.Element),
	}
}

// get returns the cached content for a key, marking it most recently
// used.
func (c *lruCache) get(key cacheKey) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, ok := c.slots[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(element)
	return element.Value.(*cacheSlot).content, true
}

// put inserts decoded content, evicting least-recently-used slots
// until the byte budget holds. Content larger than the whole budget is
// not cached at all — evicting everything to hold one giant entry
// would defeat the cache.
func (c *lruCache) put(key cacheKey, content []byte) {
	if int64(len(content)) > c.limit {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if element, ok := c.slots[key]; ok {
		// Concurrent decode of the same entry already populated the
		// slot; keep the resident copy.
		c.order.MoveToFront(element)
		return
	}

	c.slots[key] = c.order.PushFront(&cacheSlot{key: key, content: content})
	c.used += int64(len(content))

	for c.used > c.limit {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		slot := oldest.Value.(*cacheSlot)
		c.order.Remove(oldest)
		delete(c.slots, slot.key)
		c.used -= int64(len(slot.content))
	}
}

// dropArchive evicts every slot belonging to an archive. Called when
// an archive closes so cached views of its backing mapping cannot
// outlive it.
func (c *lruCache) dropArchive(archiveID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for element := c.order.Front(); element != nil; {
		next := element.Next()
		slot := element.Value.(*cacheSlot)
		if slot.key.archive == archiveID {
			c.order.Remove(element)
			delete(c.slots, slot.key)
			c.used -= int64(len(slot.content))
		}
		element = next
	}
}

// len returns the number of resident slots.
func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.slots)
}
