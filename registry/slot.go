package registry

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/poiesic/semindex/core"
)

// IndexBuilder produces index snapshots for one content type.
// indexer.Builder satisfies it.
type IndexBuilder interface {
	Build(ctx context.Context, regenerate bool) (*core.Index, error)
	Restore(ctx context.Context) (*core.Index, error)
}

// Slot is the registry cell owning one content type's current snapshot.
type Slot struct {
	contentType core.ContentType
	enabled     bool
	builder     IndexBuilder

	current atomic.Pointer[core.Index]
	mu      sync.Mutex // serializes builds and restores
}

// Type returns the slot's content type.
func (s *Slot) Type() core.ContentType {
	return s.contentType
}

// Enabled reports whether the type accepts queries.
func (s *Slot) Enabled() bool {
	return s.enabled
}

// Current returns the snapshot being served, or nil if none is loaded.
func (s *Slot) Current() *core.Index {
	return s.current.Load()
}

// SlotStatus describes one slot for status reporting.
type SlotStatus struct {
	Type       string    `json:"type"`
	Enabled    bool      `json:"enabled"`
	Loaded     bool      `json:"loaded"`
	Entries    int       `json:"entries"`
	Dimensions int       `json:"dimensions"`
	BuildID    string    `json:"build_id,omitempty"`
	BuiltAt    time.Time `json:"built_at,omitzero"`
}

func (s *Slot) status() SlotStatus {
	st := SlotStatus{
		Type:    s.contentType.String(),
		Enabled: s.enabled,
	}
	if idx := s.current.Load(); idx != nil {
		st.Loaded = true
		st.Entries = idx.Len()
		st.Dimensions = idx.Dimensions
		st.BuildID = idx.BuildID
		st.BuiltAt = idx.BuiltAt
	}
	return st
}
