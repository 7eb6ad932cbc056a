package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt int64 // UnixNano, 0 means no expiration
}

func (e entry[V]) expired(now int64) bool {
	return e.expiresAt != 0 && now > e.expiresAt
}

// Cache is a small thread-safe generic cache with optional per-item TTL.
// The sequencer uses one to memoize resolved tool paths for the lifetime of
// a run; entries without a TTL never expire.
type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	items   map[K]entry[V]
	ttl     time.Duration
	janitor *time.Ticker
	stopCh  chan struct{}
	once    sync.Once
}

// Option configures a Cache.
type Option[K comparable, V any] func(*Cache[K, V])

// WithTTL sets the default time-to-live applied by Set. Zero (the default)
// means entries do not expire.
func WithTTL[K comparable, V any](ttl time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) {
		c.ttl = ttl
	}
}

// WithJanitorInterval enables a background sweep of expired entries at the
// given interval. Without it, expired entries are only dropped lazily on Get.
func WithJanitorInterval[K comparable, V any](interval time.Duration) Option[K, V] {
	return func(c *Cache[K, V]) {
		if interval > 0 {
			c.janitor = time.NewTicker(interval)
			c.stopCh = make(chan struct{})
		}
	}
}

// New creates a Cache with the given options.
func New[K comparable, V any](opts ...Option[K, V]) *Cache[K, V] {
	c := &Cache[K, V]{
		items: make(map[K]entry[V]),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cache[K, V]) startJanitor() {
	if c.janitor == nil {
		return
	}
	c.once.Do(func() {
		go func() {
			for {
				select {
				case <-c.janitor.C:
					c.DeleteExpired()
				case <-c.stopCh:
					c.janitor.Stop()
					return
				}
			}
		}()
	})
}

// Set stores a value under the key with the cache's default TTL.
func (c *Cache[K, V]) Set(k K, v V) {
	c.SetWithTTL(k, v, c.ttl)
}

// SetWithTTL stores a value under the key with an explicit TTL. A zero ttl
// means the entry never expires; a negative ttl deletes the key.
func (c *Cache[K, V]) SetWithTTL(k K, v V, ttl time.Duration) {
	if ttl < 0 {
		c.Delete(k)
		return
	}
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
		c.startJanitor()
	}
	c.mu.Lock()
	c.items[k] = entry[V]{value: v, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Get returns the value for the key if present and unexpired.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[k]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if e.expired(time.Now().UnixNano()) {
		c.Delete(k)
		return zero, false
	}
	return e.value, true
}

// GetOrCompute returns the cached value for the key, computing and storing
// it on a miss. A compute error is returned without poisoning the cache.
func (c *Cache[K, V]) GetOrCompute(k K, compute func() (V, error)) (V, error) {
	if v, ok := c.Get(k); ok {
		return v, nil
	}
	v, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}
	c.Set(k, v)
	return v, nil
}

// Delete removes the key from the cache.
func (c *Cache[K, V]) Delete(k K) {
	c.mu.Lock()
	delete(c.items, k)
	c.mu.Unlock()
}

// DeleteExpired removes every expired entry. The janitor calls this
// periodically when enabled.
func (c *Cache[K, V]) DeleteExpired() {
	now := time.Now().UnixNano()
	c.mu.Lock()
	for k, e := range c.items {
		if e.expired(now) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}

// Len returns the number of stored entries, including not-yet-swept expired
// ones.
func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the janitor goroutine if one was started.
func (c *Cache[K, V]) Close() {
	if c.stopCh != nil {
		select {
		case c.stopCh <- struct{}{}:
		default:
		}
	}
}
