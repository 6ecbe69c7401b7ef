package searchcache

import "errors"

var (
	// Cache operation errors
	ErrMalformedEntry  = errors.New("malformed cache entry")
	ErrInvalidSelector = errors.New("exactly one invalidation selector must be set")

	// Storage errors
	ErrStoreUnavailable = errors.New("cache store unavailable")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid cache configuration")
)
