package embedcache

import (
	"fmt"
	"io"
	"os"

	"github.com/poiesic/semindex/core"
	"github.com/poiesic/semindex/storage"
)

// Load reads the embedding file at path. Any failure, including a missing
// file, is reported as core.ErrCacheRead.
func Load(path string) ([][]float32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrCacheRead, err)
	}
	vectors, err := storage.UnmarshalEmbeddings(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", core.ErrCacheRead, path, err)
	}
	return vectors, nil
}

// Save writes vectors to path, replacing any previous file atomically.
// All vectors must share one dimensionality.
func Save(vectors [][]float32, path string) error {
	for i := 1; i < len(vectors); i++ {
		if len(vectors[i]) != len(vectors[0]) {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d", core.ErrEmbedding, i, len(vectors[i]), len(vectors[0]))
		}
	}
	data := storage.MarshalEmbeddings(vectors)
	return storage.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
