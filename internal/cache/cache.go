// Package cache stores judge responses so repeated runs over the same evidence
// do not pay for the same model call twice.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/corroborate/internal/model"
)

// Cache stores opaque values under string keys. A ttl of 0 on Set selects
// the implementation's default lifetime.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for one judge prompt. Every input that can change
// the answer is part of the hash.
func Key(provider, modelName, system, prompt string) string {
	h := sha256.New()
	for _, part := range []string{provider, modelName, system, prompt} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return "corroborate:judge:v1:" + hex.EncodeToString(h.Sum(nil))
}

// New builds the cache described by cfg: nil when disabled, memory-only
// without a directory, memory over disk otherwise.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	mem := NewMemory(ttl)
	if cfg.Dir == "" {
		return mem
	}
	return NewTiered(mem, NewDisk(cfg.Dir, ttl))
}
