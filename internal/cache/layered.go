package cache

import (
	"sync/atomic"
	"time"
)

// TierStats counts which layer answered lookups
type TierStats struct {
	Memory int64
	Disk   int64
	Misses int64

	MemoryEntries int
}

// LayeredCache answers from memory, then from the disk cache shared
// between runs. Disk hits are copied into memory.
type LayeredCache struct {
	memory *MemoryCache
	disk   *DiskCache

	memoryHits atomic.Int64
	diskHits   atomic.Int64
	misses     atomic.Int64
}

// NewLayeredCache creates a layered cache rooted at diskDir
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return &LayeredCache{
		memory: NewMemoryCache(memoryTTL, 10*time.Minute),
		disk:   NewDiskCache(diskDir, diskTTL),
	}
}

func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		c.memoryHits.Add(1)
		return val, true
	}

	val, found := c.disk.Get(key)
	if !found {
		c.misses.Add(1)
		return nil, false
	}
	c.diskHits.Add(1)
	_ = c.memory.Set(key, val, 0)
	return val, true
}

// Set writes memory first so a failed disk write still serves this run
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	_ = c.memory.Set(key, value, 0)
	return c.disk.Set(key, value, ttl)
}

func (c *LayeredCache) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.disk.Delete(key)
}

func (c *LayeredCache) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}

// Stats returns lookup counts since the cache was created
func (c *LayeredCache) Stats() TierStats {
	return TierStats{
		Memory: c.memoryHits.Load(),
		Disk:   c.diskHits.Load(),
		Misses: c.misses.Load(),

		MemoryEntries: c.memory.Len(),
	}
}
