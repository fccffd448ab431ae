package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvOverrides_Server(t *testing.T) {
	t.Run("CODEGRAPH_SERVER_PORT overrides port", func(t *testing.T) {
		t.Setenv("CODEGRAPH_SERVER_PORT", "9999")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, 9999, cfg.ServerPort)
	})

	t.Run("CODEGRAPH_WORKSPACE_PATH overrides workspace", func(t *testing.T) {
		t.Setenv("CODEGRAPH_WORKSPACE_PATH", "/srv/app")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "/srv/app", cfg.WorkspacePath)
	})

	t.Run("CODEGRAPH_PUBLIC_URL overrides public url", func(t *testing.T) {
		t.Setenv("CODEGRAPH_PUBLIC_URL", "https://codegraph.example.com")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, "https://codegraph.example.com", cfg.PublicURL)
	})
}

func TestEnvOverrides_Neo4jAndMeilisearch(t *testing.T) {
	t.Setenv("NEO4J_URI", "bolt://localhost:7687")
	t.Setenv("NEO4J_USER", "neo4j")
	t.Setenv("NEO4J_PASSWORD", "secret")
	t.Setenv("MEILISEARCH_URL", "http://localhost:7700")
	t.Setenv("MEILISEARCH_KEY", "masterkey")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "bolt://localhost:7687", cfg.Neo4j.URI)
	assert.Equal(t, "neo4j", cfg.Neo4j.User)
	assert.Equal(t, "secret", cfg.Neo4j.Password)
	assert.Equal(t, "http://localhost:7700", cfg.Meilisearch.URL)
	assert.Equal(t, "masterkey", cfg.Meilisearch.Key)
}

func TestEnvOverrides_Embedding(t *testing.T) {
	t.Setenv("EMBEDDING_URL", "http://embedder:9000")
	t.Setenv("EMBEDDING_MODEL", "custom-model")
	t.Setenv("EMBEDDING_API_KEY", "api-key")
	t.Setenv("EMBEDDING_DIMENSIONS", "1024")
	t.Setenv("FASTEMBED_MODEL", "bge-small")
	t.Setenv("FASTEMBED_CACHE_DIR", "/var/cache/fastembed")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	assert.Equal(t, "http://embedder:9000", cfg.Embedding.URL)
	assert.Equal(t, "custom-model", cfg.Embedding.Model)
	assert.Equal(t, "api-key", cfg.Embedding.APIKey)
	assert.Equal(t, 1024, cfg.Embedding.Dimensions)
	assert.Equal(t, "bge-small", cfg.Embedding.FastEmbedModel)
	assert.Equal(t, "/var/cache/fastembed", cfg.Embedding.FastEmbedCacheDir)
}
