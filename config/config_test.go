package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/semindex/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir and clears SEMINDEX_* overrides.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"SEMINDEX_DATA_DIR", "SEMINDEX_STORAGE_BACKEND", "SEMINDEX_STORAGE_PATH",
		"SEMINDEX_EMBEDDING_HOST", "SEMINDEX_EMBEDDING_MODEL", "SEMINDEX_API_KEY",
		"SEMINDEX_SERVER_ADDR", "SEMINDEX_EMBEDDING_DIMENSIONS", "SEMINDEX_EMBEDDING_BATCH_SIZE",
	} {
		t.Setenv(key, "")
	}
	return home
}

func TestParseDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Parse([]byte("types:\n  notes:\n    input_files: [~/notes/README.org]\n"))
	require.NoError(t, err)

	dataDir := filepath.Join(home, ".semindex", "data")
	assert.Equal(t, dataDir, cfg.DataDir)
	assert.Equal(t, BackendBadger, cfg.Storage.Backend)
	assert.Equal(t, filepath.Join(dataDir, "manifests"), cfg.Storage.Path)
	assert.Equal(t, "http://localhost:11434/v1", cfg.Embedding.Host)
	assert.Equal(t, "nomic-embed-text", cfg.Embedding.Model)
	assert.Equal(t, 64, cfg.Embedding.BatchSize)
	assert.Equal(t, 4, cfg.Embedding.Workers)
	assert.Equal(t, 3, cfg.Embedding.MaxRetries)
	assert.Equal(t, time.Second, cfg.Embedding.RetryDelay)
	assert.Equal(t, "127.0.0.1:42110", cfg.Server.Addr)
	assert.Equal(t, 5, cfg.Server.DefaultResults)

	notes := cfg.Type(core.ContentTypeNotes)
	assert.Equal(t, []string{filepath.Join(home, "notes", "README.org")}, notes.InputFiles)
	assert.Equal(t, filepath.Join(dataDir, "notes.jsonl.gz"), notes.CompressedJSONL)
	assert.Equal(t, filepath.Join(dataDir, "notes.embeddings.bin"), notes.EmbeddingsFile)
}

func TestEnabledIsDerivedFromInputs(t *testing.T) {
	isolate(t)

	cfg, err := Parse([]byte(`
types:
  notes:
    input_filter: ["/srv/notes/**/*.org"]
  ledger:
    compressed_jsonl: /tmp/ledger.jsonl.gz
`))
	require.NoError(t, err)

	assert.True(t, cfg.Enabled(core.ContentTypeNotes))
	assert.False(t, cfg.Enabled(core.ContentTypeLedger))
	assert.False(t, cfg.Enabled(core.ContentTypeMusic))

	// Unconfigured types still get default cache locations.
	music := cfg.Type(core.ContentTypeMusic)
	assert.Equal(t, filepath.Join(cfg.DataDir, "music.jsonl.gz"), music.CompressedJSONL)
	assert.Equal(t, "/tmp/ledger.jsonl.gz", cfg.Type(core.ContentTypeLedger).CompressedJSONL)

	src := cfg.Sources(core.ContentTypeNotes)
	assert.Equal(t, []string{"/srv/notes/**/*.org"}, src.InputFilter)
}

func TestFilter(t *testing.T) {
	isolate(t)

	cfg, err := Parse([]byte(`
types:
  notes:
    input_filter: ["/srv/notes/**/*"]
    include: ["*.org", "*.md"]
    exclude: ["**/archive/**"]
`))
	require.NoError(t, err)

	filter, err := cfg.Filter(core.ContentTypeNotes)
	require.NoError(t, err)

	tests := []struct {
		ref  string
		want bool
	}{
		{"/srv/notes/todo.org", true},
		{"/srv/notes/readme.md", true},
		{"/srv/notes/photo.jpg", false},
		{"/srv/notes/archive/old.org", false},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, filter(tt.ref))
		})
	}

	// Unconfigured types accept everything.
	filter, err = cfg.Filter(core.ContentTypeMusic)
	require.NoError(t, err)
	assert.True(t, filter("/any/file.txt"))
}

func TestEnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("SEMINDEX_DATA_DIR", "/var/lib/semindex")
	t.Setenv("SEMINDEX_STORAGE_BACKEND", "sqlite")
	t.Setenv("SEMINDEX_EMBEDDING_HOST", "http://embed:8080")
	t.Setenv("SEMINDEX_EMBEDDING_MODEL", "text-embedding-3-small")
	t.Setenv("SEMINDEX_API_KEY", "secret")
	t.Setenv("SEMINDEX_EMBEDDING_DIMENSIONS", "512")

	cfg, err := Parse([]byte("embedding:\n  model: from-file\n"))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/semindex", cfg.DataDir)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/var/lib/semindex/manifests.db", cfg.Storage.Path)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)

	aiCfg := cfg.AIConfig()
	assert.Equal(t, "http://embed:8080", aiCfg.EmbeddingHost)
	assert.Equal(t, "secret", aiCfg.APIKey)
	assert.Equal(t, 512, aiCfg.Dimensions)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "malformed yaml", yaml: "types: [\n"},
		{name: "unknown type", yaml: "types:\n  bogus:\n    input_files: [a]\n"},
		{name: "unknown backend", yaml: "storage:\n  backend: redis\n"},
		{name: "negative batch", yaml: "embedding:\n  batch_size: -1\n"},
		{name: "negative dimensions", yaml: "embedding:\n  dimensions: -3\n"},
		{name: "same cache files", yaml: "types:\n  notes:\n    compressed_jsonl: /tmp/x\n    embeddings_file: /tmp/x\n"},
		{name: "bad include pattern", yaml: "types:\n  notes:\n    input_files: [a]\n    include: [\"a[\"]\n"},
		{name: "bad env int", yaml: "", env: map[string]string{"SEMINDEX_EMBEDDING_BATCH_SIZE": "many"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}

	isolate(t)
	_, err := Parse([]byte("types:\n  bogus: {}\n"))
	assert.ErrorIs(t, err, core.ErrUnknownType)
}

func TestIndexerConfig(t *testing.T) {
	isolate(t)

	cfg, err := Parse([]byte("embedding:\n  batch_size: 8\n  workers: 2\n  max_retries: 5\n  retry_delay: 250ms\n"))
	require.NoError(t, err)

	ic := cfg.IndexerConfig()
	assert.Equal(t, 8, ic.BatchSize)
	assert.Equal(t, 2, ic.EmbedWorkers)
	assert.Equal(t, 5, ic.MaxRetries)
	assert.Equal(t, 250*time.Millisecond, ic.RetryDelay)
	assert.Positive(t, ic.ConvertWorkers)
}

func TestLoadFromFileNotFound(t *testing.T) {
	isolate(t)

	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, IsConfigNotFound(err))
	assert.Contains(t, err.Error(), "semindex init")
}

func TestTemplateRoundTrip(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, ".semindex", "semindex.yaml")

	created, err := WriteDefaultTemplate(path)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = WriteDefaultTemplate(path)
	require.NoError(t, err)
	assert.False(t, created)

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Enabled(core.ContentTypeNotes))
	assert.False(t, cfg.Enabled(core.ContentTypeImage))
	assert.Equal(t, []string{filepath.Join(home, "notes", "**", "*.org"), filepath.Join(home, "notes", "**", "*.md")},
		cfg.Type(core.ContentTypeNotes).InputFilter)
	assert.True(t, cfg.Server.Warm)
}

func TestSaveToFile(t *testing.T) {
	isolate(t)

	cfg, err := Parse([]byte("types:\n  ledger:\n    input_files: [/data/main.ledger]\n"))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "semindex.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	reloaded, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, cfg, reloaded)
}

func TestExpandPath(t *testing.T) {
	home := isolate(t)

	assert.Equal(t, home, expandPath("~"))
	assert.Equal(t, filepath.Join(home, "a", "b"), expandPath("~/a/b"))
	assert.Equal(t, filepath.Join(home, "c"), expandPath("$HOME/c"))
	assert.Equal(t, "/abs/path", expandPath("/abs/path"))
	assert.Equal(t, "rel/~/x", expandPath("rel/~/x"))
}
