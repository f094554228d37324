package fetch

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// CacheConfig contains configuration options for the image cache
type CacheConfig struct {
	// MaxSize is the maximum number of images to cache. 0 disables caching.
	MaxSize int
	// TTL is the time-to-live for cached images. 0 means no expiration.
	TTL time.Duration
}

// Cache memoizes successful fetches of another Fetcher, evicting the least
// recently used image when full. Failures are not cached, and neither are
// data URIs, which carry their bytes with them.
type Cache struct {
	next Fetcher

	mu     sync.Mutex
	cache  map[string]*cacheEntry
	lru    *list.List
	config CacheConfig
	now    func() time.Time
}

type cacheEntry struct {
	key     string
	image   *Image
	expiry  time.Time
	element *list.Element
}

// NewCache wraps next with a cache.
func NewCache(next Fetcher, config CacheConfig) *Cache {
	return &Cache{
		next:   next,
		cache:  make(map[string]*cacheEntry),
		lru:    list.New(),
		config: config,
		now:    time.Now,
	}
}

// Fetch returns the cached image or fetches and caches it.
func (c *Cache) Fetch(ctx context.Context, locator string) (*Image, error) {
	if c.config.MaxSize <= 0 || Scheme(locator) == "data" {
		return c.next.Fetch(ctx, locator)
	}
	if img, ok := c.Get(locator); ok {
		return img, nil
	}

	img, err := c.next.Fetch(ctx, locator)
	if err != nil {
		return nil, err
	}
	c.Set(locator, img)
	return img, nil
}

// Get retrieves an image from cache without fetching
func (c *Cache) Get(key string) (*Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.cache[key]
	if !exists {
		return nil, false
	}
	if c.expired(entry) {
		c.removeLocked(entry)
		return nil, false
	}
	c.lru.MoveToFront(entry.element)
	return entry.image, true
}

// Set adds an image to the cache
func (c *Cache) Set(key string, img *Image) {
	if c.config.MaxSize <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var expiry time.Time
	if c.config.TTL > 0 {
		expiry = c.now().Add(c.config.TTL)
	}

	if existing, exists := c.cache[key]; exists {
		existing.image = img
		existing.expiry = expiry
		c.lru.MoveToFront(existing.element)
		return
	}

	for c.lru.Len() >= c.config.MaxSize {
		oldest := c.lru.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest.Value.(*cacheEntry))
	}

	entry := &cacheEntry{key: key, image: img, expiry: expiry}
	entry.element = c.lru.PushFront(entry)
	c.cache[key] = entry
}

// Remove removes an image from the cache
func (c *Cache) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, exists := c.cache[key]; exists {
		c.removeLocked(entry)
	}
}

// Clear removes all images from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]*cacheEntry)
	c.lru = list.New()
}

// Size returns the current number of cached images
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

func (c *Cache) expired(entry *cacheEntry) bool {
	return c.config.TTL > 0 && c.now().After(entry.expiry)
}

func (c *Cache) removeLocked(entry *cacheEntry) {
	delete(c.cache, entry.key)
	c.lru.Remove(entry.element)
}
