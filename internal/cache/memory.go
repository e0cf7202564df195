package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Memory holds responses in process for the lifetime of one command
type Memory struct {
	items *gocache.Cache
}

// NewMemory returns an in-process cache whose entries live for ttl.
// Expired entries are swept at a quarter of the ttl, bounded to [1m, 10m].
func NewMemory(ttl time.Duration) *Memory {
	sweep := ttl / 4
	switch {
	case sweep < time.Minute:
		sweep = time.Minute
	case sweep > 10*time.Minute:
		sweep = 10 * time.Minute
	}
	return &Memory{items: gocache.New(ttl, sweep)}
}

func (m *Memory) Get(key string) ([]byte, bool) {
	v, ok := m.items.Get(key)
	if !ok {
		return nil, false
	}
	raw, ok := v.([]byte)
	if !ok {
		return nil, false
	}
	return clone(raw), true
}

// Set stores a private copy of value; ttl 0 means the cache default
func (m *Memory) Set(key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	m.items.Set(key, clone(value), ttl)
	return nil
}

func (m *Memory) Delete(key string) error {
	m.items.Delete(key)
	return nil
}

func (m *Memory) Clear() error {
	m.items.Flush()
	return nil
}

// Len counts stored entries; expired ones remain until the next sweep
func (m *Memory) Len() int {
	return m.items.ItemCount()
}

func clone(b []byte) []byte {
	return append([]byte(nil), b...)
}
