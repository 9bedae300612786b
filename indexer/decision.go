package indexer

// ShouldRebuild reports whether embeddings must be recomputed rather than
// read from the cache. The cache is reused only when no regeneration was
// requested, the manifest is fresh and the cached vectors align with the
// entries.
func ShouldRebuild(regenerate, stale, aligned bool) bool {
	return regenerate || stale || !aligned
}
