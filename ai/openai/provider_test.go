package openai

import (
	"testing"

	"github.com/poiesic/semindex/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider(t *testing.T) {
	cfg := ai.NewConfig(
		ai.WithEmbeddingHost("http://localhost:11434"),
		ai.WithEmbeddingModel("nomic-embed-text"),
		ai.WithDimensions(256),
	)

	provider, err := NewProvider(cfg)
	require.NoError(t, err)
	defer provider.Close()

	assert.NotNil(t, provider.Embedder())
	assert.Equal(t, "nomic-embed-text", provider.Model())
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
}

func TestNewProvider_InvalidConfig(t *testing.T) {
	_, err := NewProvider(&ai.Config{EmbeddingHost: "http://localhost:11434"})
	assert.Error(t, err)

	_, err = NewEmbedder(&ai.Config{EmbeddingModel: "m"})
	assert.Error(t, err)
}
