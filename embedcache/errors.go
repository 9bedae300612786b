package embedcache

import "errors"

var (
	// ErrEmbedderRequired is returned when a Cache is created without an embedder.
	ErrEmbedderRequired = errors.New("embedder required")

	// ErrInvalidMaxAttempts is returned when maxAttempts is <= 0
	ErrInvalidMaxAttempts = errors.New("maxAttempts must be greater than 0")
)
