package adapters

import (
	"container/list"
	"context"
	"sync"
	"time"

	ports "github.com/ZanzyTHEbar/ragchat/ragchat/chat/ports"
)

// LRUCache is a bounded prediction cache. The least recently read entry is evicted first,
// and expired entries are dropped when read.
type LRUCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recent
	entries  map[string]*list.Element
	now      func() time.Time
}

type lruEntry struct {
	key       string
	value     []byte
	expiresAt time.Time // zero never expires
}

// NewLRUCache creates a cache holding at most capacity entries.
func NewLRUCache(capacity int) *LRUCache {
	if capacity < 1 {
		capacity = 1
	}
	return &LRUCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
		now:      time.Now,
	}
}

func (c *LRUCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	e := el.Value.(*lruEntry)
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.remove(el)
		return nil, false
	}

	c.order.MoveToFront(el)
	return e.value, true
}

// Set stores value for key. ttlSeconds <= 0 keeps the entry until it is evicted.
func (c *LRUCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if ttlSeconds > 0 {
		expiresAt = c.now().Add(time.Duration(ttlSeconds) * time.Second)
	}

	if el, ok := c.entries[key]; ok {
		e := el.Value.(*lruEntry)
		e.value, e.expiresAt = value, expiresAt
		c.order.MoveToFront(el)
		return nil
	}

	c.entries[key] = c.order.PushFront(&lruEntry{key: key, value: value, expiresAt: expiresAt})
	if c.order.Len() > c.capacity {
		c.remove(c.order.Back())
	}
	return nil
}

func (c *LRUCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.remove(el)
	}
	return nil
}

// Len returns the number of entries, expired ones included.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *LRUCache) remove(el *list.Element) {
	c.order.Remove(el)
	delete(c.entries, el.Value.(*lruEntry).key)
}

var _ ports.Cache = (*LRUCache)(nil)
