package entrystore

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/semindex/core"
)

// SourceConfig names the inputs of one content type.
type SourceConfig struct {
	// InputFiles are explicit paths. Each must exist and be readable.
	InputFiles []string

	// InputFilter are doublestar glob patterns, e.g. "~/notes/**/*.org".
	InputFilter []string

	// Exclude removes matches by full path or base name.
	Exclude []string
}

// Empty reports whether the config names no inputs at all.
func (c SourceConfig) Empty() bool {
	return len(c.InputFiles) == 0 && len(c.InputFilter) == 0
}

// Filter decides whether a source participates in a build.
type Filter func(ref string) bool

// AcceptAll is the Filter that keeps every source.
func AcceptAll(string) bool { return true }

// Select returns the sources accepted by filter, keeping their order.
// A nil filter accepts everything.
func Select(sources []core.SourceInfo, filter Filter) []core.SourceInfo {
	if filter == nil {
		filter = AcceptAll
	}
	accepted := make([]core.SourceInfo, 0, len(sources))
	for _, src := range sources {
		if filter(src.Path) {
			accepted = append(accepted, src)
		}
	}
	return accepted
}

// NewGlobFilter builds a Filter keeping refs that match any include pattern
// (or all refs when include is empty) and no exclude pattern. Patterns are
// matched against the full path and the base name.
func NewGlobFilter(include, exclude []string) (Filter, error) {
	for _, p := range slices.Concat(include, exclude) {
		if !doublestar.ValidatePathPattern(filepath.ToSlash(p)) {
			return nil, fmt.Errorf("%w: bad pattern %q", core.ErrInvalidParameter, p)
		}
	}
	return func(ref string) bool {
		if matchesAny(exclude, ref) {
			return false
		}
		return len(include) == 0 || matchesAny(include, ref)
	}, nil
}

func matchesAny(patterns []string, ref string) bool {
	slashed := filepath.ToSlash(ref)
	base := filepath.Base(ref)
	for _, p := range patterns {
		p = filepath.ToSlash(p)
		if doublestar.MatchUnvalidated(p, slashed) || doublestar.MatchUnvalidated(p, base) {
			return true
		}
	}
	return false
}

// Discover expands cfg into the set of sources to read, sorted by path and
// free of duplicates. A missing or unreadable explicit file fails with
// core.ErrSourceRead; globs that match nothing are not an error.
func Discover(cfg SourceConfig) ([]core.SourceInfo, error) {
	seen := make(map[string]bool)
	var sources []core.SourceInfo

	add := func(path string) error {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if seen[abs] || matchesAny(cfg.Exclude, abs) {
			return nil
		}
		info, err := os.Stat(abs)
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory", abs)
		}
		seen[abs] = true
		sources = append(sources, core.SourceInfo{
			Path:    abs,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	}

	for _, f := range cfg.InputFiles {
		if err := add(f); err != nil {
			return nil, fmt.Errorf("%w: %v", core.ErrSourceRead, err)
		}
	}

	for _, pattern := range cfg.InputFilter {
		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("%w: glob %q: %v", core.ErrSourceRead, pattern, err)
		}
		for _, m := range matches {
			if err := add(m); err != nil {
				return nil, fmt.Errorf("%w: %v", core.ErrSourceRead, err)
			}
		}
	}

	slices.SortFunc(sources, func(a, b core.SourceInfo) int {
		return strings.Compare(a.Path, b.Path)
	})
	return sources, nil
}

// Fingerprint summarizes the modification state of a source set as a
// BLAKE2b-256 hex digest over the sorted (path, size, mtime) tuples and the
// source count. Any add, remove, resize or touch changes it.
func Fingerprint(sources []core.SourceInfo) string {
	sorted := slices.Clone(sources)
	slices.SortFunc(sorted, func(a, b core.SourceInfo) int {
		return strings.Compare(a.Path, b.Path)
	})

	h, _ := blake2b.New(32, nil)
	for _, s := range sorted {
		h.Write([]byte(s.Path))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(s.Size, 10)))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(s.ModTime.UnixNano(), 10)))
		h.Write([]byte{'\n'})
	}
	h.Write([]byte(strconv.Itoa(len(sorted))))
	return hex.EncodeToString(h.Sum(nil))
}
