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


package entrystore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/semindex/core"
)

// Converter splits one source into indexable text units.
// Implementations must be safe for concurrent use.
type Converter interface {
	Convert(ctx context.Context, ref string) ([]string, error)
}

// ConverterFunc adapts a function to the Converter interface.
type ConverterFunc func(ctx context.Context, ref string) ([]string, error)

// Convert calls f(ctx, ref).
func (f ConverterFunc) Convert(ctx context.Context, ref string) ([]string, error) {
	return f(ctx, ref)
}

// Store builds entry lists from sources using a converter and a worker pool.
type Store struct {
	converter Converter
	pool      *ants.Pool
	logger    *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithPoolSize sets the number of sources converted concurrently.
// Default is runtime.NumCPU(), with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(s *Store) error {
		if size < 1 {
			size = 1
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if s.pool != nil {
			s.pool.Release()
		}
		s.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger.With("component", "entrystore")
		return nil
	}
}

// NewStore creates a Store around converter.
func NewStore(converter Converter, opts ...Option) (*Store, error) {
	if converter == nil {
		return nil, ErrConverterRequired
	}

	pool, err := ants.NewPool(max(runtime.NumCPU(), 1))
	if err != nil {
		return nil, err
	}

	s := &Store{
		converter: converter,
		pool:      pool,
		logger:    slog.Default().With("component", "entrystore"),
	}
	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			s.Release()
			return nil, optErr
		}
	}
	return s, nil
}

// Release releases the worker pool. The store should not be used afterwards.
func (s *Store) Release() {
	if s.pool != nil {
		s.pool.Release()
	}
}

// Build converts the sources accepted by filter into entries and returns
// them with the fingerprint of the accepted source set.
//
// Sources are converted concurrently but the result keeps source order.
// Blank units are dropped and units with identical text keep only their
// first occurrence. Any unreadable source fails the whole build with
// core.ErrSourceRead; a build with nothing to index fails with
// core.ErrEmptyCorpus.
func (s *Store) Build(ctx context.Context, sources []core.SourceInfo, filter Filter) ([]core.Entry, string, error) {
	accepted := Select(sources, filter)
	if len(accepted) == 0 {
		return nil, "", fmt.Errorf("%w: no sources", core.ErrEmptyCorpus)
	}

	units := make([][]string, len(accepted))
	errs := make([]error, len(accepted))
	var wg sync.WaitGroup

	for i, src := range accepted {
		if err := ctx.Err(); err != nil {
			wg.Wait()
			return nil, "", err
		}
		wg.Add(1)
		ref := src.Path
		err := s.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			units[i], errs[i] = s.converter.Convert(ctx, ref)
		})
		if err != nil {
			wg.Done()
			wg.Wait()
			return nil, "", err
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, "", err
		}
		return nil, "", fmt.Errorf("%w: %s: %v", core.ErrSourceRead, accepted[i].Path, err)
	}

	seen := make(map[core.ID]bool)
	var entries []core.Entry
	duplicates := 0
	for i, texts := range units {
		for _, text := range texts {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			entry := core.NewEntry(text, accepted[i].Path)
			if seen[entry.Id] {
				duplicates++
				continue
			}
			seen[entry.Id] = true
			entries = append(entries, entry)
		}
	}

	if len(entries) == 0 {
		return nil, "", fmt.Errorf("%w: %d sources produced no entries", core.ErrEmptyCorpus, len(accepted))
	}

	s.logger.Debug("built entries", "sources", len(accepted), "entries", len(entries), "duplicates", duplicates)
	return entries, Fingerprint(accepted), nil
}
