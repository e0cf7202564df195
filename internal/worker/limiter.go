package worker

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Limiter keeps one token bucket per key, typically one per judge provider,
// so workers sharing a provider share its budget.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	every   rate.Limit
	burst   int
}

// NewLimiter allows perSecond requests per key with the given burst.
// perSecond <= 0 means unlimited; burst <= 0 falls back to 5.
func NewLimiter(perSecond float64, burst int) *Limiter {
	l := &Limiter{
		buckets: map[string]*rate.Limiter{},
		every:   rate.Inf,
		burst:   burst,
	}
	if perSecond > 0 {
		l.every = rate.Limit(perSecond)
	}
	if l.burst <= 0 {
		l.burst = 5
	}
	return l
}

// Wait blocks until key has a token or ctx is done
func (l *Limiter) Wait(ctx context.Context, key string) error {
	return l.bucket(key).Wait(ctx)
}

// Allow takes a token for key if one is available now
func (l *Limiter) Allow(key string) bool {
	return l.bucket(key).Allow()
}

// SetRate replaces the bucket for key, e.g. for a provider with a tighter quota
func (l *Limiter) SetRate(key string, perSecond float64, burst int) {
	if burst <= 0 {
		burst = l.burst
	}
	l.mu.Lock()
	l.buckets[key] = rate.NewLimiter(rate.Limit(perSecond), burst)
	l.mu.Unlock()
}

func (l *Limiter) bucket(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[key]
	if !ok {
		b = rate.NewLimiter(l.every, l.burst)
		l.buckets[key] = b
	}
	return b
}
