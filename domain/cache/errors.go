package cache

import "errors"

// Domain errors for cache operations.
var (
	// ErrInvalidKey is returned when a key is invalid (e.g., empty).
	ErrInvalidKey = errors.New("invalid cache key")

	// ErrInvalidSize is returned when a cache is configured with a non-positive size.
	ErrInvalidSize = errors.New("invalid cache size")
)
