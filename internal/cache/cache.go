// Package cache stores translated text so repeated runs over the same
// manifest do not call the LLM again.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/riskform/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives a cache key from its parts, e.g. provider, model and source text
func Key(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return "riskform:v1:" + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by cfg: memory in front of disk, or a
// cache that stores nothing when disabled
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return Nop{}
	}
	return NewLayeredCache(time.Hour, cfg.Dir, cfg.TTL)
}

// Nop is a Cache that never holds anything
type Nop struct{}

func (Nop) Get(key string) ([]byte, bool)                         { return nil, false }
func (Nop) Set(key string, value []byte, ttl time.Duration) error { return nil }
func (Nop) Delete(key string) error                               { return nil }
func (Nop) Clear() error                                          { return nil }
