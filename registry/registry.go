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


package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/poiesic/semindex/core"
	"golang.org/x/sync/singleflight"
)

// Ranker ranks an index against a query. search.Searcher satisfies it.
type Ranker interface {
	Search(ctx context.Context, idx *core.Index, query string, n int) ([]core.SearchResult, error)
}

// Registry maps content type tags to slots and serves queries over them.
type Registry struct {
	ranker Ranker
	slots  map[core.ContentType]*Slot
	group  singleflight.Group
	logger *slog.Logger

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the cancellation scope shared by every caller waiting on one
// build key. Its context ends when the last waiter leaves.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// Option configures a Registry.
type Option func(*Registry) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewRegistry creates an empty registry. Register every content type
// before serving queries.
func NewRegistry(ranker Ranker, opts ...Option) (*Registry, error) {
	if ranker == nil {
		return nil, ErrSearcherRequired
	}

	r := &Registry{
		ranker: ranker,
		slots:   make(map[core.ContentType]*Slot),
		flights: make(map[string]*flight),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "registry")
	return r, nil
}

// Register adds a slot for t. Disabled types may omit the builder.
// Registration is not safe to run concurrently with queries.
func (r *Registry) Register(t core.ContentType, builder IndexBuilder, enabled bool) error {
	if _, ok := r.slots[t]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, t)
	}
	if enabled && builder == nil {
		return fmt.Errorf("%w: %s", ErrBuilderRequired, t)
	}
	r.slots[t] = &Slot{
		contentType: t,
		enabled:     enabled,
		builder:     builder,
	}
	return nil
}

// Resolve maps a tag to its slot. Unregistered tags fail with
// core.ErrUnknownType.
func (r *Registry) Resolve(tag string) (*Slot, error) {
	t, err := core.ParseContentType(tag)
	if err != nil {
		return nil, err
	}
	slot, ok := r.slots[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnknownType, tag)
	}
	return slot, nil
}

// EnsureEnabled fails with core.ErrTypeDisabled for a registered type that
// is not enabled, and with core.ErrUnknownType for an unregistered tag.
func (r *Registry) EnsureEnabled(tag string) error {
	_, err := r.enabledSlot(tag)
	return err
}

func (r *Registry) enabledSlot(tag string) (*Slot, error) {
	slot, err := r.Resolve(tag)
	if err != nil {
		return nil, err
	}
	if !slot.enabled {
		return nil, fmt.Errorf("%w: %s", core.ErrTypeDisabled, tag)
	}
	return slot, nil
}

// Search ranks the entries of tag's index against query. The index is
// built on first use.
func (r *Registry) Search(ctx context.Context, tag, query string, n int) ([]core.SearchResult, error) {
	slot, err := r.enabledSlot(tag)
	if err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("%w: n must be positive, got %d", core.ErrInvalidParameter, n)
	}

	idx, err := r.ensure(ctx, slot)
	if err != nil {
		return nil, err
	}
	return r.ranker.Search(ctx, idx, query, n)
}

// Index returns the index served for tag, building it if none is loaded.
func (r *Registry) Index(ctx context.Context, tag string) (*core.Index, error) {
	slot, err := r.enabledSlot(tag)
	if err != nil {
		return nil, err
	}
	return r.ensure(ctx, slot)
}

func (r *Registry) ensure(ctx context.Context, slot *Slot) (*core.Index, error) {
	if idx := slot.current.Load(); idx != nil {
		return idx, nil
	}
	return r.build(ctx, slot, false)
}

// Regenerate rebuilds tag's index from its sources, ignoring cached
// embeddings, and swaps it in. On failure the served index is unchanged.
func (r *Registry) Regenerate(ctx context.Context, tag string) (*core.Index, error) {
	slot, err := r.enabledSlot(tag)
	if err != nil {
		return nil, err
	}
	return r.build(ctx, slot, true)
}

// Warm restores the persisted snapshot of every enabled type that has
// nothing loaded yet. Missing or unreadable caches are logged and skipped.
// Returns the number of types restored.
func (r *Registry) Warm(ctx context.Context) int {
	restored := 0
	for _, slot := range r.orderedSlots() {
		if !slot.enabled || slot.current.Load() != nil {
			continue
		}
		if r.restore(ctx, slot) {
			restored++
		}
	}
	return restored
}

func (r *Registry) restore(ctx context.Context, slot *Slot) bool {
	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.current.Load() != nil {
		return false
	}
	idx, err := slot.builder.Restore(ctx)
	if err != nil {
		r.logger.Debug("no usable snapshot", "type", slot.contentType.String(), "err", err)
		return false
	}
	slot.current.Store(idx)
	return true
}

// Status reports every registered slot in content type order.
func (r *Registry) Status() []SlotStatus {
	slots := r.orderedSlots()
	out := make([]SlotStatus, len(slots))
	for i, slot := range slots {
		out[i] = slot.status()
	}
	return out
}

func (r *Registry) orderedSlots() []*Slot {
	slots := make([]*Slot, 0, len(r.slots))
	for _, slot := range r.slots {
		slots = append(slots, slot)
	}
	slices.SortFunc(slots, func(a, b *Slot) int {
		return int(a.contentType) - int(b.contentType)
	})
	return slots
}

// build runs or joins the build of slot in the given mode. Concurrent
// callers share one execution. A caller whose context ends while others
// still wait gets core.ErrBuildInProgress and the build carries on; when the
// last waiter leaves, the build is cancelled.
func (r *Registry) build(ctx context.Context, slot *Slot, regenerate bool) (*core.Index, error) {
	mode := "lazy"
	if regenerate {
		mode = "regenerate"
	}
	key := slot.contentType.String() + "/" + mode

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f, ch := r.join(ctx, key, slot, regenerate)
		select {
		case res := <-ch:
			r.leave(key, f)
			if errors.Is(res.Err, errAbandoned) {
				// Joined a build its own waiters gave up on; start over.
				continue
			}
			if res.Err != nil {
				return nil, res.Err
			}
			return res.Val.(*core.Index), nil
		case <-ctx.Done():
			if r.leave(key, f) {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %s", core.ErrBuildInProgress, slot.contentType)
		}
	}
}

// join registers the caller as a waiter on key and returns the result
// channel of the build running under it, starting one if needed.
func (r *Registry) join(ctx context.Context, key string, slot *Slot, regenerate bool) (*flight, <-chan singleflight.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f := r.flights[key]
	if f == nil {
		f = &flight{}
		f.ctx, f.cancel = context.WithCancel(context.WithoutCancel(ctx))
		r.flights[key] = f
	}
	f.waiters++

	ch := r.group.DoChan(key, func() (any, error) {
		idx, err := r.runBuild(f.ctx, slot, regenerate)
		if err != nil && f.ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", errAbandoned, err)
		}
		return idx, err
	})
	return f, ch
}

// leave drops the caller from f and reports whether it was the last waiter,
// in which case the build under f is cancelled.
func (r *Registry) leave(key string, f *flight) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	f.waiters--
	if f.waiters > 0 {
		return false
	}
	if r.flights[key] == f {
		delete(r.flights, key)
	}
	f.cancel()
	return true
}

func (r *Registry) runBuild(ctx context.Context, slot *Slot, regenerate bool) (*core.Index, error) {
	slot.mu.Lock()
	defer slot.mu.Unlock()

	// A lazy build that queued behind another build can use its result.
	if !regenerate {
		if idx := slot.current.Load(); idx != nil {
			return idx, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := r.logger.With("type", slot.contentType.String(), "regenerate", regenerate)
	idx, err := slot.builder.Build(ctx, regenerate)
	if err != nil {
		if ctx.Err() != nil {
			logger.Info("build cancelled", "err", err)
			return nil, err
		}
		if !regenerate && slot.current.Load() == nil && canFallBack(err) {
			logger.Warn("build failed, restoring last snapshot", "err", err)
			restored, restoreErr := slot.builder.Restore(ctx)
			if restoreErr == nil {
				slot.current.Store(restored)
				return restored, nil
			}
			logger.Error("restore failed", "err", restoreErr)
			return nil, errors.Join(err, restoreErr)
		}
		logger.Error("build failed, keeping current index", "err", err)
		return nil, err
	}

	slot.current.Store(idx)
	return idx, nil
}

// canFallBack reports whether a failed build may be replaced by the last
// persisted snapshot. Sources that cannot be read or an unreachable
// embedding service qualify; an empty corpus does not.
func canFallBack(err error) bool {
	return errors.Is(err, core.ErrSourceRead) || errors.Is(err, core.ErrEmbedding)
}
