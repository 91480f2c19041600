package ratelimiter

// RateLimiter is the interface for rate limiting the turn API.
type RateLimiter interface {
	// Allow returns true if the request is allowed, otherwise returns false.
	Allow() bool
}
