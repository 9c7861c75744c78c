// Package ratelimit throttles API clients with per-client token buckets.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// bucket holds up to capacity tokens and refills at rate tokens per second.
type bucket struct {
	mu         sync.Mutex
	capacity   float64
	rate       float64
	tokens     float64
	lastRefill time.Time
	lastSeen   time.Time
}

func newBucket(capacity int, rate float64, now time.Time) *bucket {
	return &bucket{
		capacity:   float64(capacity),
		rate:       rate,
		tokens:     float64(capacity),
		lastRefill: now,
		lastSeen:   now,
	}
}

func (b *bucket) refill(now time.Time) {
	if elapsed := now.Sub(b.lastRefill).Seconds(); elapsed > 0 {
		b.tokens = math.Min(b.capacity, b.tokens+elapsed*b.rate)
	}
	b.lastRefill = now
}

// take consumes one token if available and reports the state afterwards.
func (b *bucket) take(now time.Time) (ok bool, remaining int, reset time.Time, retry time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		ok = true
	} else {
		retry = b.until(1)
	}

	remaining = int(b.tokens)
	reset = now.Add(b.until(b.capacity))
	return ok, remaining, reset, retry
}

// until returns how long it takes to hold n tokens.
func (b *bucket) until(n float64) time.Duration {
	missing := n - b.tokens
	if missing <= 0 || b.rate <= 0 {
		return 0
	}
	return time.Duration(missing / b.rate * float64(time.Second))
}

func (b *bucket) idleSince(cutoff time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastSeen.Before(cutoff)
}
