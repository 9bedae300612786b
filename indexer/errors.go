package indexer

import "errors"

var (
	// ErrStoreRequired is returned when a Builder is created without an entry store.
	ErrStoreRequired = errors.New("entry store required")

	// ErrCacheRequired is returned when a Builder is created without an embedding cache.
	ErrCacheRequired = errors.New("embedding cache required")

	// ErrManifestRepositoryRequired is returned when a Builder is created without a manifest repository.
	ErrManifestRepositoryRequired = errors.New("manifest repository required")

	// ErrPathsRequired is returned when a target lacks its cache file paths.
	ErrPathsRequired = errors.New("entries and embeddings paths required")
)
