package main

import (
	"testing"

	"github.com/antigravity-dev/codegraph/internal/config"
)

func TestEmbeddingConfigFromDisabledSentinel(t *testing.T) {
	for _, url := range []string{"", "disabled", "Disabled"} {
		cfg := embeddingConfigFrom(config.EmbeddingConfig{URL: url})
		if cfg.Provider != "disabled" {
			t.Fatalf("url=%q: expected disabled provider, got %q", url, cfg.Provider)
		}
	}
}

func TestEmbeddingConfigFromRemoteWithAPIKey(t *testing.T) {
	cfg := embeddingConfigFrom(config.EmbeddingConfig{
		URL: "https://api.openai.com/v1/embeddings", APIKey: "sk-test", Model: "text-embedding-3-small", Dimensions: 1536,
	})
	if cfg.Provider != "remote" {
		t.Fatalf("expected remote provider, got %q", cfg.Provider)
	}
	if cfg.RemoteURL != "https://api.openai.com/v1/embeddings" || cfg.RemoteAPIKey != "sk-test" || cfg.RemoteModel != "text-embedding-3-small" || cfg.RemoteDimensions != 1536 {
		t.Fatalf("remote fields not wired correctly: %+v", cfg)
	}
}

func TestEmbeddingConfigFromOllamaWithoutAPIKey(t *testing.T) {
	cfg := embeddingConfigFrom(config.EmbeddingConfig{URL: "http://localhost:11434", Model: "embeddinggemma"})
	if cfg.Provider != "ollama" {
		t.Fatalf("expected ollama provider, got %q", cfg.Provider)
	}
	if cfg.OllamaEndpoint != "http://localhost:11434" || cfg.OllamaModel != "embeddinggemma" {
		t.Fatalf("ollama fields not wired correctly: %+v", cfg)
	}
}
