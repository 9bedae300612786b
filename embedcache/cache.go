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


package embedcache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/semindex/ai"
	"github.com/poiesic/semindex/core"
)

// ProgressFunc receives the number of entries embedded so far.
type ProgressFunc func(done int)

// Cache computes embeddings for entry lists in concurrent batches.
type Cache struct {
	embedder   ai.Embedder
	pool       *ants.Pool
	batchSize  int
	maxRetries int
	retryDelay time.Duration
	dimensions int
	logger     *slog.Logger
}

// Option configures a Cache.
type Option func(*Cache) error

// WithBatchSize sets the number of texts per embedding request. Default 64.
func WithBatchSize(size int) Option {
	return func(c *Cache) error {
		if size < 1 {
			return fmt.Errorf("%w: batch size %d", core.ErrInvalidParameter, size)
		}
		c.batchSize = size
		return nil
	}
}

// WithRetries sets the attempts per batch and the base backoff delay.
// Defaults are 3 attempts and one second.
func WithRetries(maxAttempts int, baseDelay time.Duration) Option {
	return func(c *Cache) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		c.maxRetries = maxAttempts
		c.retryDelay = baseDelay
		return nil
	}
}

// WithPoolSize sets how many batches are in flight at once. Default 4.
func WithPoolSize(size int) Option {
	return func(c *Cache) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if c.pool != nil {
			c.pool.Release()
		}
		c.pool = pool
		return nil
	}
}

// WithDimensions fixes the expected vector size. Zero accepts whatever size
// the first vector has.
func WithDimensions(dim int) Option {
	return func(c *Cache) error {
		if dim < 0 {
			return fmt.Errorf("%w: dimensions %d", core.ErrInvalidParameter, dim)
		}
		c.dimensions = dim
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger.With("component", "embedcache")
		return nil
	}
}

// NewCache creates a Cache that embeds with embedder.
func NewCache(embedder ai.Embedder, opts ...Option) (*Cache, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	pool, err := ants.NewPool(4)
	if err != nil {
		return nil, err
	}

	c := &Cache{
		embedder:   embedder,
		pool:       pool,
		batchSize:  64,
		maxRetries: 3,
		retryDelay: time.Second,
		logger:     slog.Default().With("component", "embedcache"),
	}
	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			c.Release()
			return nil, optErr
		}
	}
	return c, nil
}

// Release releases the worker pool. The cache should not be used afterwards.
func (c *Cache) Release() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// Dimensions returns the configured vector size, or zero if unconstrained.
func (c *Cache) Dimensions() int {
	return c.dimensions
}

// Compute embeds the text of every entry. The result is aligned with
// entries. A failed batch (after retries), a wrong vector count or a
// dimensionality mismatch fails the whole call with core.ErrEmbedding;
// partial results are never returned. onProgress may be nil.
func (c *Cache) Compute(ctx context.Context, entries []core.Entry, onProgress ProgressFunc) ([][]float32, error) {
	vectors := make([][]float32, len(entries))
	if len(entries) == 0 {
		return vectors, nil
	}

	parent := ctx
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		done     int
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
	}

	for start := 0; start < len(entries); start += c.batchSize {
		end := min(start+c.batchSize, len(entries))
		if ctx.Err() != nil {
			break
		}

		texts := make([]string, end-start)
		for i, e := range entries[start:end] {
			texts[i] = e.Text
		}

		wg.Add(1)
		err := c.pool.Submit(func() {
			defer wg.Done()

			var batch [][]float32
			err := RetryWithBackoff(ctx, c.logger, func() error {
				var err error
				batch, err = c.embedder.EmbedTexts(ctx, texts)
				return err
			}, c.maxRetries, c.retryDelay)
			if err != nil {
				fail(fmt.Errorf("%w: batch at %d: %w", core.ErrEmbedding, start, err))
				return
			}
			if len(batch) != len(texts) {
				fail(fmt.Errorf("%w: batch at %d: expected %d vectors, got %d", core.ErrEmbedding, start, len(texts), len(batch)))
				return
			}
			copy(vectors[start:end], batch)

			mu.Lock()
			done += len(batch)
			if onProgress != nil && firstErr == nil {
				onProgress(done)
			}
			mu.Unlock()
		})
		if err != nil {
			wg.Done()
			fail(err)
			break
		}
	}
	wg.Wait()

	if err := parent.Err(); err != nil {
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}

	dim := c.dimensions
	if dim == 0 {
		dim = len(vectors[0])
	}
	if dim == 0 {
		return nil, fmt.Errorf("%w: embedder returned empty vectors", core.ErrEmbedding)
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d dimensions, expected %d", core.ErrEmbedding, i, len(v), dim)
		}
	}

	c.logger.Debug("computed embeddings", "entries", len(entries), "dimensions", dim)
	return vectors, nil
}
