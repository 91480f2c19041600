package ratelimiter

import (
	"sync"
	"time"
)

// TokenBucket implements RateLimiter with the token bucket algorithm,
// allowing bursts up to the bucket's capacity.
type TokenBucket struct {
	rate          float64 // tokens generated per second
	capacity      float64
	tokens        float64
	lastTokenTime time.Time
	mutex         sync.Mutex
}

// NewTokenBucket creates a TokenBucket generating rate tokens per second with
// the given burst capacity. The bucket starts full.
func NewTokenBucket(rate float64, capacity int) *TokenBucket {
	return &TokenBucket{
		rate:          rate,
		capacity:      float64(capacity),
		tokens:        float64(capacity),
		lastTokenTime: time.Now(),
	}
}

// Allow refills the bucket for the elapsed time and consumes one token if
// available.
func (tb *TokenBucket) Allow() bool {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastTokenTime)
	if elapsed > 0 {
		tb.tokens += elapsed.Seconds() * tb.rate
		if tb.tokens > tb.capacity {
			tb.tokens = tb.capacity
		}
		tb.lastTokenTime = now
	}

	if tb.tokens >= 1 {
		tb.tokens--
		return true
	}
	return false
}
