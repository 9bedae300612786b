// Package sqlite stores index manifests in a SQLite database using the
// pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/poiesic/semindex/core"
	"github.com/poiesic/semindex/storage"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// ManifestRepository implements storage.ManifestRepository on SQLite.
type ManifestRepository struct {
	db     *sql.DB
	closed atomic.Bool
}

var _ storage.ManifestRepository = (*ManifestRepository)(nil)

// NewManifestRepository opens or creates the database at path and ensures
// the manifest table exists.
func NewManifestRepository(path string) (storage.ManifestRepository, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode=WAL&_pragma=synchronous=NORMAL&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &ManifestRepository{db: db}, nil
}

// SaveManifest upserts the manifest for m.Type.
func (r *ManifestRepository) SaveManifest(ctx context.Context, m *core.Manifest) error {
	if err := core.ValidateManifest(m); err != nil {
		return err
	}
	if r.closed.Load() {
		return storage.ErrStorageClosed
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO manifests (content_type, fingerprint, source_count, entry_count, dimensions, model, entry_digest, vector_digest, built_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_type) DO UPDATE SET
			fingerprint = excluded.fingerprint,
			source_count = excluded.source_count,
			entry_count = excluded.entry_count,
			dimensions = excluded.dimensions,
			model = excluded.model,
			entry_digest = excluded.entry_digest,
			vector_digest = excluded.vector_digest,
			built_at = excluded.built_at`,
		m.Type.String(), m.Fingerprint, m.SourceCount, m.EntryCount, m.Dimensions, m.Model, m.EntryDigest, m.VectorDigest, m.BuiltAt.UnixMicro())
	if err != nil {
		return fmt.Errorf("failed to save manifest: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrTransactionFailed, err)
	}
	return nil
}

// LoadManifest retrieves the manifest for a content type.
// Returns nil, nil if no manifest exists.
func (r *ManifestRepository) LoadManifest(ctx context.Context, t core.ContentType) (*core.Manifest, error) {
	if r.closed.Load() {
		return nil, storage.ErrStorageClosed
	}

	m := &core.Manifest{Type: t}
	var builtAt int64
	err := r.db.QueryRowContext(ctx, `
		SELECT fingerprint, source_count, entry_count, dimensions, model, entry_digest, vector_digest, built_at
		FROM manifests WHERE content_type = ?`, t.String()).
		Scan(&m.Fingerprint, &m.SourceCount, &m.EntryCount, &m.Dimensions, &m.Model, &m.EntryDigest, &m.VectorDigest, &builtAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}
	m.BuiltAt = time.UnixMicro(builtAt).UTC()
	return m, nil
}

// DeleteManifest removes the manifest for a content type.
func (r *ManifestRepository) DeleteManifest(ctx context.Context, t core.ContentType) error {
	if r.closed.Load() {
		return storage.ErrStorageClosed
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM manifests WHERE content_type = ?`, t.String())
	if err != nil {
		return fmt.Errorf("failed to delete manifest: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, t)
	}
	return nil
}

// Close closes the database connection.
func (r *ManifestRepository) Close() error {
	if r.closed.Swap(true) {
		return nil
	}
	return r.db.Close()
}
