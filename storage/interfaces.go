package storage

import (
	"context"

	"github.com/poiesic/semindex/core"
)

// ManifestRepository persists the manifest describing each content type's
// on-disk cache. Implementations must be thread-safe.
type ManifestRepository interface {
	// SaveManifest stores the manifest for m.Type, replacing any previous one.
	SaveManifest(ctx context.Context, m *core.Manifest) error

	// LoadManifest retrieves the manifest for a content type.
	// Returns nil, nil if no manifest exists.
	LoadManifest(ctx context.Context, t core.ContentType) (*core.Manifest, error)

	// DeleteManifest removes the manifest for a content type.
	// Returns ErrNotFound if none exists.
	DeleteManifest(ctx context.Context, t core.ContentType) error

	// Close releases the underlying storage.
	Close() error
}
