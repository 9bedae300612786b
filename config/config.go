// Package config loads the semindex process configuration from a YAML file,
// an optional .env file and SEMINDEX_* environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/semindex/ai"
	"github.com/poiesic/semindex/core"
	"github.com/poiesic/semindex/entrystore"
	"github.com/poiesic/semindex/indexer"
	"gopkg.in/yaml.v3"
)

// Storage backends for the manifest repository.
const (
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration
type Config struct {
	// DataDir holds cached entry and embedding files and the manifest store.
	// Defaults to ~/.semindex/data.
	DataDir   string                `yaml:"data_dir,omitempty"`
	Storage   StorageConfig         `yaml:"storage,omitempty"`
	Embedding EmbeddingConfig       `yaml:"embedding"`
	Server    ServerConfig          `yaml:"server,omitempty"`
	Types     map[string]TypeConfig `yaml:"types"`
}

// StorageConfig selects where build manifests are kept
type StorageConfig struct {
	Backend string `yaml:"backend,omitempty"` // "badger" | "sqlite"
	Path    string `yaml:"path,omitempty"`    // directory for badger, file for sqlite
}

// EmbeddingConfig holds embedding service configuration
type EmbeddingConfig struct {
	Host       string        `yaml:"host"`
	Model      string        `yaml:"model"`
	APIKey     string        `yaml:"api_key,omitempty"`
	Dimensions int           `yaml:"dimensions,omitempty"` // 0 keeps the model's native size
	BatchSize  int           `yaml:"batch_size,omitempty"`
	Workers    int           `yaml:"workers,omitempty"`
	MaxRetries int           `yaml:"max_retries,omitempty"`
	RetryDelay time.Duration `yaml:"retry_delay,omitempty"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Addr           string `yaml:"addr,omitempty"`
	DefaultResults int    `yaml:"default_results,omitempty"`
	Warm           bool   `yaml:"warm,omitempty"` // restore persisted indexes at startup
}

// TypeConfig holds the inputs and cache files of one content type.
// A type is enabled when it names at least one input file or filter.
type TypeConfig struct {
	InputFiles      []string `yaml:"input_files,omitempty"`
	InputFilter     []string `yaml:"input_filter,omitempty"`
	Include         []string `yaml:"include,omitempty"` // discovered files must match one, when set
	Exclude         []string `yaml:"exclude,omitempty"`
	CompressedJSONL string   `yaml:"compressed_jsonl,omitempty"`
	EmbeddingsFile  string   `yaml:"embeddings_file,omitempty"`
}

// DefaultPath returns ~/.semindex/semindex.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".semindex", "semindex.yaml"), nil
}

// Load loads configuration from the default config file
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFromFile(path)
}

// LoadFromFile loads configuration from a specific file. A .env file in the
// working directory is loaded first; SEMINDEX_* variables override values
// from the file.
func LoadFromFile(path string) (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			defaultPath, _ := DefaultPath()
			return nil, &ConfigNotFoundError{
				RequestedPath: path,
				DefaultPath:   defaultPath,
			}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse builds a configuration from YAML, then applies environment
// overrides and defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// ConfigNotFoundError is returned when config file is not found
type ConfigNotFoundError struct {
	RequestedPath string
	DefaultPath   string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found at: %s\n\nDefault location: %s\n\nYou can:\n"+
		"  1. Create the config file at the default location\n"+
		"  2. Specify a custom path with --config\n"+
		"  3. Run 'semindex init' to write a template",
		e.RequestedPath, e.DefaultPath)
}

// IsConfigNotFound checks if error is config not found
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}

// applyEnv overrides file values with SEMINDEX_* environment variables.
func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	setString("SEMINDEX_DATA_DIR", &c.DataDir)
	setString("SEMINDEX_STORAGE_BACKEND", &c.Storage.Backend)
	setString("SEMINDEX_STORAGE_PATH", &c.Storage.Path)
	setString("SEMINDEX_EMBEDDING_HOST", &c.Embedding.Host)
	setString("SEMINDEX_EMBEDDING_MODEL", &c.Embedding.Model)
	setString("SEMINDEX_API_KEY", &c.Embedding.APIKey)
	setString("SEMINDEX_SERVER_ADDR", &c.Server.Addr)

	if err := setInt("SEMINDEX_EMBEDDING_DIMENSIONS", &c.Embedding.Dimensions); err != nil {
		return err
	}
	return setInt("SEMINDEX_EMBEDDING_BATCH_SIZE", &c.Embedding.BatchSize)
}

// expandPath expands ~ and $HOME to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "$HOME/") || path == "$HOME" {
		homeDir := os.Getenv("HOME")
		if homeDir == "" {
			var err error
			homeDir, err = os.UserHomeDir()
			if err != nil {
				return path
			}
		}
		if path == "$HOME" {
			return homeDir
		}
		return filepath.Join(homeDir, path[6:])
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return homeDir
		}
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

func expandAll(paths []string) []string {
	if paths == nil {
		return nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = expandPath(p)
	}
	return out
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() error {
	if c.DataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}
		c.DataDir = filepath.Join(homeDir, ".semindex", "data")
	}
	c.DataDir = expandPath(c.DataDir)

	if c.Storage.Backend == "" {
		c.Storage.Backend = BackendBadger
	}
	if c.Storage.Path == "" {
		switch c.Storage.Backend {
		case BackendSQLite:
			c.Storage.Path = filepath.Join(c.DataDir, "manifests.db")
		default:
			c.Storage.Path = filepath.Join(c.DataDir, "manifests")
		}
	}
	c.Storage.Path = expandPath(c.Storage.Path)

	aiDefaults := ai.DefaultConfig()
	if c.Embedding.Host == "" {
		c.Embedding.Host = aiDefaults.EmbeddingHost
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = aiDefaults.EmbeddingModel
	}

	indexDefaults := indexer.DefaultConfig()
	if c.Embedding.BatchSize == 0 {
		c.Embedding.BatchSize = indexDefaults.BatchSize
	}
	if c.Embedding.Workers == 0 {
		c.Embedding.Workers = indexDefaults.EmbedWorkers
	}
	if c.Embedding.MaxRetries == 0 {
		c.Embedding.MaxRetries = indexDefaults.MaxRetries
	}
	if c.Embedding.RetryDelay == 0 {
		c.Embedding.RetryDelay = indexDefaults.RetryDelay
	}

	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:42110"
	}
	if c.Server.DefaultResults == 0 {
		c.Server.DefaultResults = 5
	}

	for tag, tc := range c.Types {
		tc.InputFiles = expandAll(tc.InputFiles)
		tc.InputFilter = expandAll(tc.InputFilter)
		tc.Include = expandAll(tc.Include)
		tc.Exclude = expandAll(tc.Exclude)
		if tc.CompressedJSONL == "" {
			tc.CompressedJSONL = filepath.Join(c.DataDir, tag+".jsonl.gz")
		}
		if tc.EmbeddingsFile == "" {
			tc.EmbeddingsFile = filepath.Join(c.DataDir, tag+".embeddings.bin")
		}
		tc.CompressedJSONL = expandPath(tc.CompressedJSONL)
		tc.EmbeddingsFile = expandPath(tc.EmbeddingsFile)
		c.Types[tag] = tc
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendBadger, BackendSQLite:
	default:
		return fmt.Errorf("unsupported storage backend: %s", c.Storage.Backend)
	}

	if err := c.AIConfig().Validate(); err != nil {
		return err
	}
	if c.Embedding.BatchSize <= 0 {
		return fmt.Errorf("batch_size must be positive, got: %d", c.Embedding.BatchSize)
	}
	if c.Embedding.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got: %d", c.Embedding.Workers)
	}
	if c.Embedding.MaxRetries <= 0 {
		return fmt.Errorf("max_retries must be positive, got: %d", c.Embedding.MaxRetries)
	}
	if c.Server.DefaultResults <= 0 {
		return fmt.Errorf("default_results must be positive, got: %d", c.Server.DefaultResults)
	}

	for _, tag := range c.typeTags() {
		if _, err := core.ParseContentType(tag); err != nil {
			return err
		}
		tc := c.Types[tag]
		if tc.CompressedJSONL == tc.EmbeddingsFile {
			return fmt.Errorf("%s: compressed_jsonl and embeddings_file must differ", tag)
		}
		if _, err := entrystore.NewGlobFilter(tc.Include, tc.Exclude); err != nil {
			return fmt.Errorf("%s: %w", tag, err)
		}
	}
	return nil
}

func (c *Config) typeTags() []string {
	tags := make([]string, 0, len(c.Types))
	for tag := range c.Types {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// Type returns the settings of t, with default cache file locations when t
// is not configured at all.
func (c *Config) Type(t core.ContentType) TypeConfig {
	if tc, ok := c.Types[t.String()]; ok {
		return tc
	}
	return TypeConfig{
		CompressedJSONL: filepath.Join(c.DataDir, t.String()+".jsonl.gz"),
		EmbeddingsFile:  filepath.Join(c.DataDir, t.String()+".embeddings.bin"),
	}
}

// Sources returns the source configuration of t.
func (c *Config) Sources(t core.ContentType) entrystore.SourceConfig {
	tc := c.Type(t)
	return entrystore.SourceConfig{
		InputFiles:  tc.InputFiles,
		InputFilter: tc.InputFilter,
		Exclude:     tc.Exclude,
	}
}

// Filter returns the predicate applied to the discovered sources of t.
func (c *Config) Filter(t core.ContentType) (entrystore.Filter, error) {
	tc := c.Type(t)
	return entrystore.NewGlobFilter(tc.Include, tc.Exclude)
}

// Enabled reports whether t names any inputs.
func (c *Config) Enabled(t core.ContentType) bool {
	return !c.Sources(t).Empty()
}

// AIConfig returns the embedding service settings.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIKey(c.Embedding.APIKey),
		ai.WithDimensions(c.Embedding.Dimensions),
	)
}

// IndexerConfig returns the build tuning derived from the embedding settings.
func (c *Config) IndexerConfig() *indexer.Config {
	cfg := indexer.DefaultConfig()
	cfg.BatchSize = c.Embedding.BatchSize
	cfg.EmbedWorkers = c.Embedding.Workers
	cfg.MaxRetries = c.Embedding.MaxRetries
	cfg.RetryDelay = c.Embedding.RetryDelay
	return cfg
}

// SaveToFile saves the configuration to a specific file
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
