package cache

import (
	"errors"
	"time"
)

// Tiered consults its tiers in order, fastest first. A hit in a slower tier
// is copied back into every faster tier it missed.
type Tiered struct {
	tiers []Cache
}

// NewTiered stacks the given caches; nil tiers are skipped
func NewTiered(tiers ...Cache) *Tiered {
	t := &Tiered{}
	for _, c := range tiers {
		if c != nil {
			t.tiers = append(t.tiers, c)
		}
	}
	return t
}

func (t *Tiered) Get(key string) ([]byte, bool) {
	for i, c := range t.tiers {
		v, ok := c.Get(key)
		if !ok {
			continue
		}
		for _, faster := range t.tiers[:i] {
			_ = faster.Set(key, v, 0)
		}
		return v, true
	}
	return nil, false
}

// Set writes through to every tier and stops at the first failure
func (t *Tiered) Set(key string, value []byte, ttl time.Duration) error {
	for _, c := range t.tiers {
		if err := c.Set(key, value, ttl); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tiered) Delete(key string) error {
	var errs []error
	for _, c := range t.tiers {
		errs = append(errs, c.Delete(key))
	}
	return errors.Join(errs...)
}

func (t *Tiered) Clear() error {
	var errs []error
	for _, c := range t.tiers {
		errs = append(errs, c.Clear())
	}
	return errors.Join(errs...)
}
