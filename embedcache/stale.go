package embedcache

import (
	"fmt"
	"os"

	"github.com/poiesic/semindex/core"
)

// IsStale reports whether cached artifacts described by manifest can no
// longer be trusted for the current sources. It is conservative: a missing
// manifest, any difference in fingerprint, source count or model, or any
// missing cache file makes the cache stale.
func IsStale(manifest *core.Manifest, fingerprint string, sourceCount int, model string, paths ...string) bool {
	if manifest == nil {
		return true
	}
	if manifest.Fingerprint != fingerprint ||
		manifest.SourceCount != sourceCount ||
		manifest.Model != model {
		return true
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			return true
		}
	}
	return false
}

// CheckAlignment verifies that vectors pair 1:1 with entries.
func CheckAlignment(entries []core.Entry, vectors [][]float32) error {
	if len(entries) != len(vectors) {
		return fmt.Errorf("%w: %d entries, %d embeddings", core.ErrAlignment, len(entries), len(vectors))
	}
	return nil
}

// CheckManifest verifies that entries and vectors are the pair the manifest
// was written for. The manifest is saved last, so files left behind by an
// interrupted build fail this check.
func CheckManifest(manifest *core.Manifest, entries []core.Entry, vectors [][]float32) error {
	if err := CheckAlignment(entries, vectors); err != nil {
		return err
	}
	if manifest == nil {
		return fmt.Errorf("%w: no manifest for persisted files", core.ErrAlignment)
	}
	if manifest.EntryCount != len(entries) {
		return fmt.Errorf("%w: manifest records %d entries, found %d", core.ErrAlignment, manifest.EntryCount, len(entries))
	}
	if len(vectors) > 0 && manifest.Dimensions != len(vectors[0]) {
		return fmt.Errorf("%w: manifest records %d dimensions, found %d", core.ErrAlignment, manifest.Dimensions, len(vectors[0]))
	}
	if manifest.EntryDigest != core.EntriesDigest(entries) {
		return fmt.Errorf("%w: entries do not match manifest", core.ErrAlignment)
	}
	if manifest.VectorDigest != core.VectorsDigest(vectors) {
		return fmt.Errorf("%w: embeddings do not match manifest", core.ErrAlignment)
	}
	return nil
}
