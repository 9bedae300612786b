package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/semindex/core"
	"github.com/poiesic/semindex/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) storage.ManifestRepository {
	t.Helper()
	repo, err := NewManifestRepository(filepath.Join(t.TempDir(), "state", "manifests.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestManifestRepository_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	missing, err := repo.LoadManifest(ctx, core.ContentTypeLedger)
	require.NoError(t, err)
	assert.Nil(t, missing)

	m := &core.Manifest{
		Type:         core.ContentTypeLedger,
		Fingerprint:  "abc123",
		SourceCount:  1,
		EntryCount:   42,
		Dimensions:   384,
		Model:        "all-minilm",
		EntryDigest:  "e1d9",
		VectorDigest: "7a0b",
		BuiltAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	require.NoError(t, repo.SaveManifest(ctx, m))

	loaded, err := repo.LoadManifest(ctx, core.ContentTypeLedger)
	require.NoError(t, err)
	assert.Equal(t, m, loaded)

	m.EntryCount = 43
	require.NoError(t, repo.SaveManifest(ctx, m))
	loaded, err = repo.LoadManifest(ctx, core.ContentTypeLedger)
	require.NoError(t, err)
	assert.Equal(t, 43, loaded.EntryCount)
}

func TestManifestRepository_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.DeleteManifest(ctx, core.ContentTypeNotes)
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	require.NoError(t, repo.SaveManifest(ctx, &core.Manifest{
		Type:        core.ContentTypeNotes,
		Fingerprint: "f",
		BuiltAt:     time.Now(),
	}))
	require.NoError(t, repo.DeleteManifest(ctx, core.ContentTypeNotes))

	loaded, err := repo.LoadManifest(ctx, core.ContentTypeNotes)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestManifestRepository_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifests.db")
	ctx := context.Background()

	repo, err := NewManifestRepository(path)
	require.NoError(t, err)
	require.NoError(t, repo.SaveManifest(ctx, &core.Manifest{
		Type:        core.ContentTypeMusic,
		Fingerprint: "persisted",
		BuiltAt:     time.Now(),
	}))
	require.NoError(t, repo.Close())

	_, err = repo.LoadManifest(ctx, core.ContentTypeMusic)
	assert.True(t, errors.Is(err, storage.ErrStorageClosed))

	repo, err = NewManifestRepository(path)
	require.NoError(t, err)
	defer repo.Close()

	loaded, err := repo.LoadManifest(ctx, core.ContentTypeMusic)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "persisted", loaded.Fingerprint)
}
