package middleware

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterTTL             = 30 * time.Minute
)

type limiterEntry struct {
	limiter *rate.Limiter
	lastUse time.Time
}

// keyedLimiters hands out one token bucket per key (usually a client IP)
// and forgets buckets idle for longer than limiterTTL.
type keyedLimiters struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	entries map[string]*limiterEntry
}

func newKeyedLimiters(limit rate.Limit, burst int) *keyedLimiters {
	return &keyedLimiters{limit: limit, burst: burst, entries: make(map[string]*limiterEntry)}
}

func (k *keyedLimiters) get(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()
	e, ok := k.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.entries[key] = e
	}
	e.lastUse = time.Now()
	return e.limiter
}

func (k *keyedLimiters) Allow(key string) bool {
	return k.get(key).Allow()
}

func (k *keyedLimiters) sweep(now time.Time) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for key, e := range k.entries {
		if now.Sub(e.lastUse) > limiterTTL {
			delete(k.entries, key)
		}
	}
}

// runCleanup sweeps idle buckets until ctx is done.
func (k *keyedLimiters) runCleanup(ctx context.Context) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			k.sweep(now)
		}
	}
}
