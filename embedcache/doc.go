// Package embedcache computes, persists and validates the embeddings that
// accompany an entry list.
//
// Embeddings live in a binary file next to the entry store (see
// storage.MarshalEmbeddings for the layout). Whether that file may be reused
// is decided by IsStale against the persisted manifest, and by
// CheckAlignment against the freshly built entry list.
package embedcache
