package videos

import (
	"sync"
	"time"
)

type cacheEntry struct {
	info    StreamingInfo
	expires time.Time
}

// StreamCache keeps recently resolved streaming info for a short TTL.
type StreamCache struct {
	ttl time.Duration
	now func() time.Time

	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewStreamCache returns a cache whose entries live for ttl.
func NewStreamCache(ttl time.Duration) *StreamCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &StreamCache{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]cacheEntry),
	}
}

// Get returns the cached entry for videoID when it has not expired.
func (c *StreamCache) Get(videoID string) (StreamingInfo, bool) {
	if c == nil {
		return StreamingInfo{}, false
	}

	now := c.now()
	c.mu.RLock()
	entry, ok := c.items[videoID]
	c.mu.RUnlock()
	if !ok {
		return StreamingInfo{}, false
	}
	if !now.Before(entry.expires) {
		c.mu.Lock()
		if current, still := c.items[videoID]; still && !now.Before(current.expires) {
			delete(c.items, videoID)
		}
		c.mu.Unlock()
		return StreamingInfo{}, false
	}
	return entry.info, true
}

// Set stores info under its video id and drops any entries that have
// expired.
func (c *StreamCache) Set(info StreamingInfo) {
	if c == nil {
		return
	}

	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, entry := range c.items {
		if !now.Before(entry.expires) {
			delete(c.items, id)
		}
	}
	c.items[info.VideoID] = cacheEntry{info: info, expires: now.Add(c.ttl)}
}

// Len reports how many entries the cache currently holds, expired or not.
func (c *StreamCache) Len() int {
	if c == nil {
		return 0
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Invalidate drops the entry for videoID.
func (c *StreamCache) Invalidate(videoID string) {
	if c == nil {
		return
	}

	c.mu.Lock()
	delete(c.items, videoID)
	c.mu.Unlock()
}
