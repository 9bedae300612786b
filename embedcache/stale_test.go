package embedcache

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/semindex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsStale(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "notes.embeddings.bin")
	require.NoError(t, os.WriteFile(present, []byte("x"), 0644))
	missing := filepath.Join(dir, "absent.bin")

	m := &core.Manifest{
		Type:        core.ContentTypeNotes,
		Fingerprint: "fp",
		SourceCount: 2,
		Model:       "m",
		BuiltAt:     time.Now(),
	}

	tests := []struct {
		name        string
		manifest    *core.Manifest
		fingerprint string
		count       int
		model       string
		paths       []string
		want        bool
	}{
		{"fresh", m, "fp", 2, "m", []string{present}, false},
		{"no manifest", nil, "fp", 2, "m", []string{present}, true},
		{"fingerprint changed", m, "other", 2, "m", []string{present}, true},
		{"source count changed", m, "fp", 3, "m", []string{present}, true},
		{"model changed", m, "fp", 2, "other", []string{present}, true},
		{"cache file missing", m, "fp", 2, "m", []string{present, missing}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStale(tt.manifest, tt.fingerprint, tt.count, tt.model, tt.paths...))
		})
	}
}

func TestCheckAlignment(t *testing.T) {
	entries := []core.Entry{core.NewEntry("a", ""), core.NewEntry("b", "")}

	assert.NoError(t, CheckAlignment(entries, [][]float32{{1}, {2}}))
	assert.True(t, errors.Is(CheckAlignment(entries, [][]float32{{1}}), core.ErrAlignment))
	assert.True(t, errors.Is(CheckAlignment(entries[:1], [][]float32{{1}, {2}}), core.ErrAlignment))
	assert.NoError(t, CheckAlignment(nil, nil))
}

func TestCheckManifest(t *testing.T) {
	entries := []core.Entry{core.NewEntry("a", ""), core.NewEntry("b", "")}
	vectors := [][]float32{{1, 0}, {0, 1}}
	manifest := func() *core.Manifest {
		return &core.Manifest{
			EntryCount:   2,
			Dimensions:   2,
			EntryDigest:  core.EntriesDigest(entries),
			VectorDigest: core.VectorsDigest(vectors),
		}
	}

	tests := []struct {
		name    string
		mutate  func(m *core.Manifest) *core.Manifest
		entries []core.Entry
		vectors [][]float32
		wantErr bool
	}{
		{"matching pair", func(m *core.Manifest) *core.Manifest { return m }, entries, vectors, false},
		{"no manifest", func(*core.Manifest) *core.Manifest { return nil }, entries, vectors, true},
		{"entries from another build", func(m *core.Manifest) *core.Manifest { return m },
			[]core.Entry{core.NewEntry("x", ""), core.NewEntry("y", "")}, vectors, true},
		{"entries reordered", func(m *core.Manifest) *core.Manifest { return m },
			[]core.Entry{entries[1], entries[0]}, vectors, true},
		{"vectors from another build", func(m *core.Manifest) *core.Manifest { return m },
			entries, [][]float32{{0, 1}, {1, 0}}, true},
		{"count differs", func(m *core.Manifest) *core.Manifest { m.EntryCount = 3; return m }, entries, vectors, true},
		{"dimensions differ", func(m *core.Manifest) *core.Manifest { m.Dimensions = 4; return m }, entries, vectors, true},
		{"length mismatch", func(m *core.Manifest) *core.Manifest { return m }, entries, vectors[:1], true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckManifest(tt.mutate(manifest()), tt.entries, tt.vectors)
			if tt.wantErr {
				assert.True(t, errors.Is(err, core.ErrAlignment), "got %v", err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
