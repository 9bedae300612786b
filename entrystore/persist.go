package entrystore

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/poiesic/semindex/core"
	"github.com/poiesic/semindex/storage"
)

// Persist writes entries to path as gzip-compressed JSON lines in corpus
// order. The file is replaced atomically.
func Persist(entries []core.Entry, path string) error {
	return storage.WriteFileAtomic(path, func(w io.Writer) error {
		zw := gzip.NewWriter(w)
		enc := json.NewEncoder(zw)
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				zw.Close()
				return err
			}
		}
		return zw.Close()
	})
}

// Restore reads entries written by Persist. A missing, empty or malformed
// file fails with core.ErrCorruptStore.
func Restore(path string) ([]core.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrCorruptStore, err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrCorruptStore, path, err)
	}
	defer zr.Close()

	var entries []core.Entry
	dec := json.NewDecoder(zr)
	for {
		var e core.Entry
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: entry %d: %v", core.ErrCorruptStore, path, len(entries), err)
		}
		if err := core.ValidateEntry(e); err != nil {
			return nil, fmt.Errorf("%w: %s: entry %d: %v", core.ErrCorruptStore, path, len(entries), err)
		}
		entries = append(entries, e)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s: no entries", core.ErrCorruptStore, path)
	}
	return entries, nil
}
