// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/semindex/core"
	"github.com/poiesic/semindex/embedcache"
	"github.com/poiesic/semindex/entrystore"
	"github.com/poiesic/semindex/storage"
)

// Target describes what one Builder indexes and where it caches results.
type Target struct {
	Type           core.ContentType
	Sources        entrystore.SourceConfig
	Filter         entrystore.Filter
	EntriesPath    string
	EmbeddingsPath string
}

// Builder builds and restores the index of a single content type.
// Callers serialize Build and Restore per Builder.
type Builder struct {
	target    Target
	store     *entrystore.Store
	cache     *embedcache.Cache
	manifests storage.ManifestRepository
	model     string
	progress  Progress
	logger    *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithProgress sets the progress reporter used while embeddings are computed.
func WithProgress(p Progress) Option {
	return func(b *Builder) error {
		if p == nil {
			p = noopProgress{}
		}
		b.progress = p
		return nil
	}
}

// WithModel records the embedding model identity in manifests.
func WithModel(model string) Option {
	return func(b *Builder) error {
		b.model = model
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// NewBuilder creates a Builder for target.
func NewBuilder(target Target, store *entrystore.Store, cache *embedcache.Cache, manifests storage.ManifestRepository, opts ...Option) (*Builder, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if cache == nil {
		return nil, ErrCacheRequired
	}
	if manifests == nil {
		return nil, ErrManifestRepositoryRequired
	}
	if target.EntriesPath == "" || target.EmbeddingsPath == "" {
		return nil, ErrPathsRequired
	}

	b := &Builder{
		target:    target,
		store:     store,
		cache:     cache,
		manifests: manifests,
		progress:  noopProgress{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	b.logger = b.logger.With("component", "indexer", "type", target.Type.String())
	return b, nil
}

// Type returns the content type this builder indexes.
func (b *Builder) Type() core.ContentType {
	return b.target.Type
}

// Build produces a fresh index from the current sources. Cached embeddings
// are reused unless regenerate is set, the cache is stale, or the cached
// vectors cannot be read or do not match the manifest. A failed build
// leaves previously persisted files describing the previous build.
func (b *Builder) Build(ctx context.Context, regenerate bool) (*core.Index, error) {
	buildID := uuid.NewString()
	logger := b.logger.With("build", buildID)
	start := time.Now()

	sources, err := entrystore.Discover(b.target.Sources)
	if err != nil {
		return nil, err
	}
	sourceCount := len(entrystore.Select(sources, b.target.Filter))

	entries, fingerprint, err := b.store.Build(ctx, sources, b.target.Filter)
	if err != nil {
		return nil, err
	}

	manifest, err := b.loadManifest(ctx)
	if err != nil {
		logger.Warn("failed to load manifest, treating cache as stale", "err", err)
	}

	stale := embedcache.IsStale(manifest, fingerprint, sourceCount, b.model,
		b.target.EntriesPath, b.target.EmbeddingsPath)

	var vectors [][]float32
	aligned := false
	if !regenerate && !stale {
		vectors, err = embedcache.Load(b.target.EmbeddingsPath)
		switch {
		case err != nil:
			logger.Warn("cached embeddings unreadable, recomputing", "err", err)
		case embedcache.CheckManifest(manifest, entries, vectors) != nil:
			logger.Info("cached embeddings do not match manifest, recomputing", "entries", len(entries), "embeddings", len(vectors))
		case b.cache.Dimensions() > 0 && len(vectors) > 0 && len(vectors[0]) != b.cache.Dimensions():
			logger.Info("cached embeddings have wrong dimensionality, recomputing", "dimensions", len(vectors[0]))
		default:
			aligned = true
		}
	}

	if ShouldRebuild(regenerate, stale, aligned) {
		logger.Info("computing embeddings", "entries", len(entries), "regenerate", regenerate, "stale", stale)

		b.progress.Start(len(entries))
		vectors, err = b.cache.Compute(ctx, entries, b.progress.Update)
		b.progress.Finish()
		if err != nil {
			return nil, err
		}

		if err := b.persist(context.WithoutCancel(ctx), entries, vectors, fingerprint, sourceCount); err != nil {
			return nil, err
		}
	} else {
		logger.Info("reusing cached embeddings", "entries", len(entries))
		if err := b.repairEntries(entries, manifest); err != nil {
			return nil, err
		}
	}

	idx, err := core.NewIndex(b.target.Type, entries, vectors, fingerprint, buildID)
	if err != nil {
		return nil, err
	}

	logger.Info("index ready", "entries", idx.Len(), "dimensions", idx.Dimensions, "elapsed", time.Since(start).Round(time.Millisecond))
	return idx, nil
}

// persist writes entries, then embeddings, then the manifest that vouches
// for both. The manifest carries digests of the pair, so a build that dies
// between files leaves a pair the old manifest rejects.
func (b *Builder) persist(ctx context.Context, entries []core.Entry, vectors [][]float32, fingerprint string, sourceCount int) error {
	if err := entrystore.Persist(entries, b.target.EntriesPath); err != nil {
		return fmt.Errorf("failed to persist entries: %w", err)
	}
	if err := embedcache.Save(vectors, b.target.EmbeddingsPath); err != nil {
		return fmt.Errorf("failed to persist embeddings: %w", err)
	}

	manifest := &core.Manifest{
		Type:         b.target.Type,
		Fingerprint:  fingerprint,
		SourceCount:  sourceCount,
		EntryCount:   len(entries),
		Dimensions:   len(vectors[0]),
		Model:        b.model,
		EntryDigest:  core.EntriesDigest(entries),
		VectorDigest: core.VectorsDigest(vectors),
		BuiltAt:      time.Now().UTC(),
	}
	if err := b.manifests.SaveManifest(ctx, manifest); err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}
	return nil
}

// repairEntries rewrites the entry file when it no longer matches the
// manifest, leaving the embedding file alone. entries must already match.
func (b *Builder) repairEntries(entries []core.Entry, manifest *core.Manifest) error {
	persisted, err := entrystore.Restore(b.target.EntriesPath)
	if err == nil && core.EntriesDigest(persisted) == manifest.EntryDigest {
		return nil
	}
	b.logger.Warn("entry file does not match manifest, rewriting", "path", b.target.EntriesPath)
	if err := entrystore.Persist(entries, b.target.EntriesPath); err != nil {
		return fmt.Errorf("failed to persist entries: %w", err)
	}
	return nil
}

// loadManifest returns the stored manifest, or nil when none was saved.
func (b *Builder) loadManifest(ctx context.Context) (*core.Manifest, error) {
	manifest, err := b.manifests.LoadManifest(ctx, b.target.Type)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return manifest, nil
}

// Restore loads the last persisted index without reading any source.
// Fails with core.ErrCorruptStore or core.ErrCacheRead when the persisted
// files are unusable, and core.ErrAlignment when they disagree with each
// other or with the manifest saved by the build that wrote them.
func (b *Builder) Restore(ctx context.Context) (*core.Index, error) {
	entries, err := entrystore.Restore(b.target.EntriesPath)
	if err != nil {
		return nil, err
	}
	vectors, err := embedcache.Load(b.target.EmbeddingsPath)
	if err != nil {
		return nil, err
	}

	manifest, err := b.loadManifest(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCorruptStore, err)
	}
	if err := embedcache.CheckManifest(manifest, entries, vectors); err != nil {
		return nil, err
	}

	idx, err := core.NewIndex(b.target.Type, entries, vectors, manifest.Fingerprint, uuid.NewString())
	if err != nil {
		return nil, err
	}
	idx.BuiltAt = manifest.BuiltAt

	b.logger.Info("restored index", "entries", idx.Len(), "build", idx.BuildID)
	return idx, nil
}
