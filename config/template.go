package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const defaultConfigTemplate = `# semindex configuration
#
# Default location: $HOME/.semindex/semindex.yaml
# SEMINDEX_* environment variables (or a .env file) override these values.

data_dir: ~/.semindex/data

storage:
  # "badger" (directory) or "sqlite" (single file)
  backend: badger

embedding:
  # Any OpenAI-compatible embeddings endpoint
  host: http://localhost:11434/v1
  model: nomic-embed-text
  # api_key: your-api-key
  batch_size: 64
  workers: 4
  max_retries: 3
  retry_delay: 1s

server:
  addr: 127.0.0.1:42110
  default_results: 5
  warm: true

# A type is enabled when it lists input_files or input_filter.
types:
  notes:
    input_filter:
      - ~/notes/**/*.org
      - ~/notes/**/*.md
    # include narrows discovered files by path or base name
    # include:
    #   - "*.org"
    exclude:
      - "**/archive/**"
  # ledger:
  #   input_files:
  #     - ~/finance/main.ledger
  # music:
  #   input_files:
  #     - ~/music/tracks.txt
  # image:
  #   input_filter:
  #     - ~/Pictures/**/*.jpg
  #   compressed_jsonl: ~/.semindex/data/image.jsonl.gz
  #   embeddings_file: ~/.semindex/data/image.embeddings.bin
`

// WriteDefaultTemplate creates a default configuration file if it does not exist.
// It returns true if a file was created, false if it already existed.
func WriteDefaultTemplate(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
		return false, fmt.Errorf("failed to write config template: %w", err)
	}

	return true, nil
}
