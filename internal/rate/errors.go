package rate

import "errors"

// ErrRateLimited means the caller is inside a cooldown window.
// ErrRedisUnavailable wraps any redis failure.
var (
	ErrRateLimited      = errors.New("rate limited")
	ErrRedisUnavailable = errors.New("redis unavailable")
)
