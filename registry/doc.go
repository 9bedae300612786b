// Package registry serves the indexes of all content types.
//
// Each registered type owns a Slot holding its current index snapshot.
// Queries read the snapshot without locking; builds run one at a time per
// slot and publish their result with a single atomic swap, so a reader
// sees either the old index or the new one and a failed build never
// replaces what is being served. Concurrent requests for the same build
// share one execution.
package registry
