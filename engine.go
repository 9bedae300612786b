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


package semindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/semindex/ai"
	"github.com/poiesic/semindex/ai/openai"
	"github.com/poiesic/semindex/config"
	"github.com/poiesic/semindex/converter"
	"github.com/poiesic/semindex/core"
	"github.com/poiesic/semindex/embedcache"
	"github.com/poiesic/semindex/entrystore"
	"github.com/poiesic/semindex/indexer"
	"github.com/poiesic/semindex/registry"
	"github.com/poiesic/semindex/search"
	"github.com/poiesic/semindex/storage"
	"github.com/poiesic/semindex/storage/badger"
	"github.com/poiesic/semindex/storage/sqlite"
)

// Engine wires configuration, manifest storage, the embedding provider and
// one index builder per enabled content type behind a registry.
type Engine struct {
	backend   *badger.Backend // nil unless the badger backend is in use
	manifests storage.ManifestRepository
	provider  ai.AIProvider
	registry  *registry.Registry
	stores    []*entrystore.Store
	caches    []*embedcache.Cache
	logger    *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	provider   ai.AIProvider
	progress   indexer.Progress
	converters map[core.ContentType]entrystore.Converter
	logger     *slog.Logger
}

// WithProvider uses provider instead of the OpenAI-compatible provider
// described by the configuration. The engine takes ownership and closes it.
func WithProvider(provider ai.AIProvider) EngineOption {
	return func(o *engineOptions) {
		o.provider = provider
	}
}

// WithProgress reports embedding progress of every build to p.
func WithProgress(p indexer.Progress) EngineOption {
	return func(o *engineOptions) {
		o.progress = p
	}
}

// WithConverter replaces the stock converter of a content type.
func WithConverter(t core.ContentType, c entrystore.Converter) EngineOption {
	return func(o *engineOptions) {
		o.converters[t] = c
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) EngineOption {
	return func(o *engineOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewEngine opens the manifest store named by cfg and registers every
// content type. Types without inputs are registered disabled.
func NewEngine(cfg *config.Config, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		converters: make(map[core.ContentType]entrystore.Converter),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	e := &Engine{logger: options.logger.With("component", "engine")}

	if err := e.openManifests(cfg); err != nil {
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		var err error
		provider, err = openai.NewProvider(cfg.AIConfig())
		if err != nil {
			e.Close()
			return nil, err
		}
	}
	e.provider = provider

	searcher, err := search.NewSearcher(provider.Embedder(), search.WithLogger(options.logger))
	if err != nil {
		e.Close()
		return nil, err
	}
	e.registry, err = registry.NewRegistry(searcher, registry.WithLogger(options.logger))
	if err != nil {
		e.Close()
		return nil, err
	}

	for _, t := range core.AllContentTypes() {
		if err := e.register(cfg, t, options); err != nil {
			e.Close()
			return nil, fmt.Errorf("failed to register %s: %w", t, err)
		}
	}
	return e, nil
}

func (e *Engine) openManifests(cfg *config.Config) error {
	switch cfg.Storage.Backend {
	case config.BackendSQLite:
		repo, err := sqlite.NewManifestRepository(cfg.Storage.Path)
		if err != nil {
			return err
		}
		e.manifests = repo
	default:
		backend, err := badger.OpenBackend(cfg.Storage.Path, false)
		if err != nil {
			return err
		}
		repo, err := badger.NewManifestRepository(backend)
		if err != nil {
			backend.Close()
			return err
		}
		e.backend = backend
		e.manifests = repo
	}
	return nil
}

func (e *Engine) register(cfg *config.Config, t core.ContentType, options *engineOptions) error {
	if !cfg.Enabled(t) {
		return e.registry.Register(t, nil, false)
	}

	conv, ok := options.converters[t]
	if !ok {
		var err error
		if conv, err = converter.ForType(t); err != nil {
			return err
		}
	}

	ic := cfg.IndexerConfig()
	store, err := entrystore.NewStore(conv,
		entrystore.WithPoolSize(ic.ConvertWorkers),
		entrystore.WithLogger(options.logger))
	if err != nil {
		return err
	}
	e.stores = append(e.stores, store)

	cache, err := embedcache.NewCache(e.provider.Embedder(),
		embedcache.WithBatchSize(ic.BatchSize),
		embedcache.WithRetries(ic.MaxRetries, ic.RetryDelay),
		embedcache.WithPoolSize(ic.EmbedWorkers),
		embedcache.WithDimensions(cfg.Embedding.Dimensions),
		embedcache.WithLogger(options.logger))
	if err != nil {
		return err
	}
	e.caches = append(e.caches, cache)

	filter, err := cfg.Filter(t)
	if err != nil {
		return err
	}
	tc := cfg.Type(t)
	builder, err := indexer.NewBuilder(indexer.Target{
		Type:           t,
		Sources:        cfg.Sources(t),
		Filter:         filter,
		EntriesPath:    tc.CompressedJSONL,
		EmbeddingsPath: tc.EmbeddingsFile,
	}, store, cache, e.manifests,
		indexer.WithModel(e.provider.Model()),
		indexer.WithProgress(options.progress),
		indexer.WithLogger(options.logger))
	if err != nil {
		return err
	}
	return e.registry.Register(t, builder, true)
}

// Search returns the n entries of type tag most similar to query.
func (e *Engine) Search(ctx context.Context, tag, query string, n int) ([]core.SearchResult, error) {
	return e.registry.Search(ctx, tag, query, n)
}

// Build makes sure tag has an index loaded, building it if necessary.
// With regenerate set, cached embeddings are discarded and recomputed.
func (e *Engine) Build(ctx context.Context, tag string, regenerate bool) (*core.Index, error) {
	if regenerate {
		return e.registry.Regenerate(ctx, tag)
	}
	return e.registry.Index(ctx, tag)
}

// Regenerate rebuilds tag's index from its sources and swaps it in.
func (e *Engine) Regenerate(ctx context.Context, tag string) (*core.Index, error) {
	return e.registry.Regenerate(ctx, tag)
}

// Warm restores persisted indexes of all enabled types.
func (e *Engine) Warm(ctx context.Context) int {
	return e.registry.Warm(ctx)
}

// Status reports every content type.
func (e *Engine) Status() []registry.SlotStatus {
	return e.registry.Status()
}

// EnabledTypes lists the tags of all enabled content types.
func (e *Engine) EnabledTypes() []string {
	var tags []string
	for _, st := range e.registry.Status() {
		if st.Enabled {
			tags = append(tags, st.Type)
		}
	}
	return tags
}

// Registry exposes the underlying registry, e.g. for the HTTP server.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Close releases worker pools and closes the provider and manifest store.
func (e *Engine) Close() error {
	for _, s := range e.stores {
		s.Release()
	}
	for _, c := range e.caches {
		c.Release()
	}
	e.stores, e.caches = nil, nil

	var errs []error
	if e.provider != nil {
		if err := e.provider.Close(); err != nil {
			e.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
		e.provider = nil
	}
	if e.manifests != nil {
		if err := e.manifests.Close(); err != nil {
			e.logger.Error("error closing manifest repository", "err", err)
			errs = append(errs, err)
		}
		e.manifests = nil
	}
	if e.backend != nil {
		if err := e.backend.Close(); err != nil {
			e.logger.Error("error closing backend storage", "err", err)
			errs = append(errs, err)
		}
		e.backend = nil
	}
	return errors.Join(errs...)
}
