package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antigravity-dev/codegraph/internal/config"
	"github.com/antigravity-dev/codegraph/internal/embedding"
	"github.com/antigravity-dev/codegraph/internal/graphstore"
	"github.com/antigravity-dev/codegraph/internal/logging"
	"github.com/antigravity-dev/codegraph/internal/neural"
	"github.com/antigravity-dev/codegraph/internal/notes"
	"github.com/antigravity-dev/codegraph/internal/searchstore"
	gosync "github.com/antigravity-dev/codegraph/internal/sync"
)

// App bundles the stores and engines every subcommand needs, booted once
// per invocation. Grounded on the teacher's internal/system.BootCortex,
// which assembles the equivalent full stack (kernel, LLM client, shard
// manager, local DB) behind one factory function shared by CLI, TUI, and
// workers; codegraph has one caller (the CLI) so the boot is a plain
// constructor rather than a sync.Once-guarded global.
type App struct {
	Workspace string
	Config    *config.Config
	Graph     *graphstore.Store
	Search    searchstore.Index
	Notes     *notes.Manager
	Neural    *neural.Engine
	Sync      *gosync.Pipeline
}

const dataDirName = ".codegraph"
const configFileName = "config.yaml"

// bootApp loads workspace/.codegraph/config.yaml (or defaults, env
// overrides still applied, if absent), opens the graph and search stores
// under the same dotdir, and wires the note/neural/sync layers over them.
func bootApp(workspace string) (*App, error) {
	if workspace == "" {
		var err error
		workspace, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve workspace: %w", err)
		}
	}
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace path: %w", err)
	}
	workspace = abs

	if err := logging.Initialize(workspace); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
	}

	dataDir := filepath.Join(workspace, dataDirName)
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	cfg, err := config.Load(filepath.Join(dataDir, configFileName))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.WorkspacePath = workspace
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	graph, err := graphstore.New(filepath.Join(dataDir, "graph.db"), cfg.Embedding.Dimensions)
	if err != nil {
		return nil, fmt.Errorf("open graph store: %w", err)
	}
	search, err := searchstore.New(filepath.Join(dataDir, "search.db"))
	if err != nil {
		return nil, fmt.Errorf("open search store: %w", err)
	}

	embedder, err := embedding.NewEngine(embeddingConfigFrom(cfg.Embedding))
	if err != nil {
		return nil, fmt.Errorf("init embedding engine: %w", err)
	}

	noteMgr := notes.New(graph, search)
	neuralEngine := neural.New(graph, embedder)
	pipeline := gosync.New(graph, search)

	return &App{
		Workspace: workspace,
		Config:    cfg,
		Graph:     graph,
		Search:    search,
		Notes:     noteMgr,
		Neural:    neuralEngine,
		Sync:      pipeline,
	}, nil
}

// embeddingConfigFrom adapts config.EmbeddingConfig's provider-agnostic
// fields into embedding.Config. An explicit disabled sentinel (empty or
// "disabled" URL) maps to the null provider; an api_key present means a
// remote OpenAI-shaped HTTP provider at the configured URL/dimensions,
// otherwise it's the local Ollama provider.
func embeddingConfigFrom(ec config.EmbeddingConfig) embedding.Config {
	cfg := embedding.DefaultConfig()
	if ec.URL == "" || strings.EqualFold(ec.URL, "disabled") {
		cfg.Provider = "disabled"
		return cfg
	}
	if ec.APIKey != "" {
		cfg.Provider = "remote"
		cfg.RemoteURL = ec.URL
		cfg.RemoteAPIKey = ec.APIKey
		cfg.RemoteDimensions = ec.Dimensions
		if ec.Model != "" {
			cfg.RemoteModel = ec.Model
		}
		return cfg
	}
	cfg.Provider = "ollama"
	cfg.OllamaEndpoint = ec.URL
	if ec.Model != "" {
		cfg.OllamaModel = ec.Model
	}
	return cfg
}
