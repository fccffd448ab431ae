// Package config loads codegraph's runtime configuration from a YAML file
// layered with environment variable overrides, following the teacher's
// internal/config/config.go load-then-override pattern.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/antigravity-dev/codegraph/internal/logging"
)

// Config holds all codegraph configuration.
type Config struct {
	// WorkspacePath is the project root codegraph operates on when no
	// path argument or --workspace flag is given.
	WorkspacePath string `yaml:"workspace_path"`

	// ServerPort is the HTTP shell's listen port (C14).
	ServerPort int `yaml:"server_port"`

	// PublicURL is the externally reachable base URL for the HTTP shell.
	// It is loaded and carried; nothing in codegraph reads it yet.
	PublicURL string `yaml:"public_url"`

	Neo4j       Neo4jConfig       `yaml:"neo4j"`
	Meilisearch MeilisearchConfig `yaml:"meilisearch"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// Neo4jConfig is accepted for forward compatibility with deployments that
// swap the embedded graph store for a standalone Neo4j instance. No Neo4j
// driver is wired: the Graph Store (C4) is the embedded SQLite property
// graph described in SPEC_FULL.md, and nothing in codegraph dials these
// fields today.
type Neo4jConfig struct {
	URI      string `yaml:"uri"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// MeilisearchConfig is accepted for forward compatibility with deployments
// that swap the embedded SQLite term-index search store for a standalone
// Meilisearch instance. Like Neo4jConfig, these fields are parsed and
// carried but nothing dials them: the Search Store (C5) is the embedded
// SQLite index.
type MeilisearchConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// EmbeddingConfig configures the embedding engine (C8's vector seeding and
// C5's document vectors). Mirrors the accepted-key list of spec.md's
// external-interfaces section; the URL/Model/APIKey/Dimensions fields feed
// embedding.Config at boot (the provider is chosen from URL and APIKey, see
// cmd/codegraph's embeddingConfigFrom), while Fastembed* is carried through for a local
// provider no dependency in this corpus currently backs (see DESIGN.md).
type EmbeddingConfig struct {
	URL               string `yaml:"url"`
	Model             string `yaml:"model"`
	APIKey            string `yaml:"api_key"`
	Dimensions        int    `yaml:"dimensions"`
	FastEmbedModel    string `yaml:"fastembed_model"`
	FastEmbedCacheDir string `yaml:"fastembed_cache_dir"`
}

// DefaultConfig returns codegraph's default configuration.
func DefaultConfig() *Config {
	return &Config{
		WorkspacePath: ".",
		ServerPort:    8080,
		PublicURL:     "http://localhost:8080",

		Embedding: EmbeddingConfig{
			URL:        "http://localhost:11434",
			Model:      "embeddinggemma",
			Dimensions: 768,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "codegraph.log",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults (with
// env overrides still applied) when the file does not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	logging.Config("loading config from %s", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Config("config file not found, using defaults: %s", path)
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	logging.Config("config loaded: workspace=%s port=%d", cfg.WorkspacePath, cfg.ServerPort)
	return cfg, nil
}

// Save writes the configuration to a YAML file, creating parent directories
// as needed.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// applyEnvOverrides layers CODEGRAPH_-prefixed (and a few bare, spec-named)
// environment variables over file-loaded values.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("CODEGRAPH_WORKSPACE_PATH"); v != "" {
		c.WorkspacePath = v
	}
	if v := os.Getenv("CODEGRAPH_SERVER_PORT"); v != "" {
		fmt.Sscanf(v, "%d", &c.ServerPort)
	}
	if v := os.Getenv("CODEGRAPH_PUBLIC_URL"); v != "" {
		c.PublicURL = v
	}

	if v := os.Getenv("NEO4J_URI"); v != "" {
		c.Neo4j.URI = v
	}
	if v := os.Getenv("NEO4J_USER"); v != "" {
		c.Neo4j.User = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		c.Neo4j.Password = v
	}

	if v := os.Getenv("MEILISEARCH_URL"); v != "" {
		c.Meilisearch.URL = v
	}
	if v := os.Getenv("MEILISEARCH_KEY"); v != "" {
		c.Meilisearch.Key = v
	}

	if v := os.Getenv("EMBEDDING_URL"); v != "" {
		c.Embedding.URL = v
	}
	if v := os.Getenv("EMBEDDING_MODEL"); v != "" {
		c.Embedding.Model = v
	}
	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" {
		c.Embedding.APIKey = v
	}
	if v := os.Getenv("EMBEDDING_DIMENSIONS"); v != "" {
		fmt.Sscanf(v, "%d", &c.Embedding.Dimensions)
	}
	if v := os.Getenv("FASTEMBED_MODEL"); v != "" {
		c.Embedding.FastEmbedModel = v
	}
	if v := os.Getenv("FASTEMBED_CACHE_DIR"); v != "" {
		c.Embedding.FastEmbedCacheDir = v
	}
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("invalid server_port: %d", c.ServerPort)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("invalid embedding.dimensions: %d", c.Embedding.Dimensions)
	}
	return nil
}
