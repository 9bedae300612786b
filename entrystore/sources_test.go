package entrystore

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

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func paths(sources []core.SourceInfo) []string {
	out := make([]string, len(sources))
	for i, s := range sources {
		out[i] = s.Path
	}
	return out
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, filepath.Join(dir, "a.org"), "* A")
	b := writeFile(t, filepath.Join(dir, "sub", "b.org"), "* B")
	writeFile(t, filepath.Join(dir, "sub", "c.md"), "# C")
	writeFile(t, filepath.Join(dir, "sub", "draft.org"), "* Draft")

	t.Run("explicit files and globs are merged and sorted", func(t *testing.T) {
		sources, err := Discover(SourceConfig{
			InputFiles:  []string{b},
			InputFilter: []string{filepath.Join(dir, "**", "*.org")},
			Exclude:     []string{"draft.org"},
		})
		require.NoError(t, err)
		assert.Equal(t, []string{a, b}, paths(sources))
		assert.Equal(t, int64(3), sources[0].Size)
		assert.False(t, sources[0].ModTime.IsZero())
	})

	t.Run("glob matching nothing is empty", func(t *testing.T) {
		sources, err := Discover(SourceConfig{InputFilter: []string{filepath.Join(dir, "*.ledger")}})
		require.NoError(t, err)
		assert.Empty(t, sources)
	})

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := Discover(SourceConfig{InputFiles: []string{filepath.Join(dir, "missing.org")}})
		assert.True(t, errors.Is(err, core.ErrSourceRead))
	})

	t.Run("directory as explicit file", func(t *testing.T) {
		_, err := Discover(SourceConfig{InputFiles: []string{dir}})
		assert.True(t, errors.Is(err, core.ErrSourceRead))
	})
}

func TestSourceConfigEmpty(t *testing.T) {
	assert.True(t, SourceConfig{}.Empty())
	assert.True(t, SourceConfig{Exclude: []string{"*.bak"}}.Empty())
	assert.False(t, SourceConfig{InputFilter: []string{"*.org"}}.Empty())
}

func TestNewGlobFilter(t *testing.T) {
	tests := []struct {
		name    string
		include []string
		exclude []string
		ref     string
		want    bool
	}{
		{"no patterns accepts", nil, nil, "/n/a.org", true},
		{"include by extension", []string{"**/*.org"}, nil, "/n/a.org", true},
		{"include rejects others", []string{"**/*.org"}, nil, "/n/a.md", false},
		{"exclude by base name", nil, []string{"*.bak"}, "/n/a.bak", false},
		{"exclude wins over include", []string{"**/*.org"}, []string{"**/archive/**"}, "/n/archive/a.org", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := NewGlobFilter(tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, filter(tt.ref))
		})
	}

	_, err := NewGlobFilter([]string{"[unclosed"}, nil)
	assert.True(t, errors.Is(err, core.ErrInvalidParameter))
}

func TestFingerprint(t *testing.T) {
	now := time.Unix(1700000000, 0)
	base := []core.SourceInfo{
		{Path: "/n/a.org", Size: 10, ModTime: now},
		{Path: "/n/b.org", Size: 20, ModTime: now},
	}

	fp := Fingerprint(base)
	assert.Len(t, fp, 64)

	t.Run("order independent", func(t *testing.T) {
		assert.Equal(t, fp, Fingerprint([]core.SourceInfo{base[1], base[0]}))
	})

	t.Run("touch changes it", func(t *testing.T) {
		touched := []core.SourceInfo{base[0], {Path: "/n/b.org", Size: 20, ModTime: now.Add(time.Second)}}
		assert.NotEqual(t, fp, Fingerprint(touched))
	})

	t.Run("resize changes it", func(t *testing.T) {
		resized := []core.SourceInfo{base[0], {Path: "/n/b.org", Size: 21, ModTime: now}}
		assert.NotEqual(t, fp, Fingerprint(resized))
	})

	t.Run("removal changes it", func(t *testing.T) {
		assert.NotEqual(t, fp, Fingerprint(base[:1]))
	})
}
