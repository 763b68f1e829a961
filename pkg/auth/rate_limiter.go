package auth

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter provides rate limiting functionality
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}

// KeyedLimiter maintains one token bucket per key. Buckets idle for an
// hour are dropped by a background sweep.
type KeyedLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*keyedBucket
	limit    rate.Limit
	burst    int
	sweepInt time.Duration
}

type keyedBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewKeyedLimiter allows requestsPerMinute sustained requests per key.
func NewKeyedLimiter(requestsPerMinute int) *KeyedLimiter {
	l := &KeyedLimiter{
		buckets:  make(map[string]*keyedBucket),
		limit:    rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:    requestsPerMinute,
		sweepInt: 5 * time.Minute,
	}
	go l.sweep()
	return l
}

// Allow checks if a request is allowed
func (l *KeyedLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &keyedBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = time.Now()
	l.mu.Unlock()

	return b.limiter.Allow(), nil
}

// Reset resets the rate limit for a key
func (l *KeyedLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.buckets, key)
	return nil
}

func (l *KeyedLimiter) sweep() {
	ticker := time.NewTicker(l.sweepInt)
	defer ticker.Stop()

	for range ticker.C {
		l.mu.Lock()
		cutoff := time.Now().Add(-time.Hour)
		for key, b := range l.buckets {
			if b.lastSeen.Before(cutoff) {
				delete(l.buckets, key)
			}
		}
		l.mu.Unlock()
	}
}
