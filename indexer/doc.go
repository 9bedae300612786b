// Package indexer assembles the searchable index of one content type.
//
// A build discovers and converts sources, then either reuses the cached
// embeddings or recomputes them. Reuse requires a fresh manifest (see
// embedcache.IsStale), a readable embedding file and a vector count equal
// to the entry count; ShouldRebuild captures that decision. Recomputed
// results are persisted in the order entries, embeddings, manifest, so a
// manifest never describes files that were not fully written.
package indexer
