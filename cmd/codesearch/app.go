package main

import (
	"fmt"
	"os"

	"github.com/codesearch/hybrid-search/internal/config"
	"github.com/codesearch/hybrid-search/internal/duplicate"
	"github.com/codesearch/hybrid-search/internal/embed"
	"github.com/codesearch/hybrid-search/internal/indexer"
	"github.com/codesearch/hybrid-search/internal/search"
	"github.com/codesearch/hybrid-search/internal/store"
)

// app bundles everything a subcommand needs after loading configuration:
// the project root, the resolved data and model directories, and the
// loaded project configuration.
type app struct {
	rootDir  string
	dataDir  string
	modelDir string
	cfg      *config.Config
}

func newApp() (*app, error) {
	rootDir, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("get working directory: %w", err)
	}

	cfg, err := config.LoadConfigFromDir(rootDir)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	global, err := config.EnsureGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("load global configuration: %w", err)
	}

	return &app{rootDir: rootDir, dataDir: global.Cache.BaseDir, modelDir: global.Models.Dir, cfg: cfg}, nil
}

// provider builds the embeddings client named by the project config. Query
// embeddings repeat across a session, so the provider is wrapped in the
// LRU cache.
func (a *app) provider() (embed.Provider, error) {
	p, err := embed.NewProvider(embed.Config{
		Provider:   a.cfg.Embedding.Provider,
		ModelDir:   a.modelDir,
		Endpoint:   a.cfg.Embedding.Endpoint,
		Model:      a.cfg.Embedding.Model,
		Dimensions: a.cfg.Embedding.Dimensions,
	})
	if err != nil {
		return nil, err
	}
	return embed.NewCachedProvider(p, a.cfg.Embedding.Model, 0), nil
}

// openIndexer opens the project's indexer, wiring in an event bus the
// caller can subscribe to for progress.
func (a *app) openIndexer(bus *indexer.Bus) (*indexer.Indexer, embed.Provider, error) {
	provider, err := a.provider()
	if err != nil {
		return nil, nil, fmt.Errorf("create embedding provider: %w", err)
	}

	idxCfg := a.cfg.ToIndexerConfig(a.rootDir, a.dataDir)
	idx, err := indexer.New(idxCfg, a.cfg.Embedding.Provider, a.cfg.Embedding.Model, provider, bus)
	if err != nil {
		provider.Close()
		return nil, nil, fmt.Errorf("open indexer: %w", err)
	}
	return idx, provider, nil
}

// openStore opens the project's vector store directly, for commands
// (search, duplicates) that don't need the full indexer.
func (a *app) openStore(provider embed.Provider) (*store.Store, error) {
	return store.OpenOrCreate(a.dataDir, a.rootDir, provider.Dimensions())
}

func (a *app) searchEngine(provider embed.Provider, st *store.Store) (*search.Engine, error) {
	reranker, err := embed.NewReranker(embed.RerankerConfig{
		Provider: a.cfg.Reranker.Provider,
		Endpoint: a.cfg.Reranker.Endpoint,
		APIKey:   a.cfg.Reranker.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create reranker: %w", err)
	}
	return search.New(st, provider, reranker), nil
}

func (a *app) duplicateDetector(st *store.Store) *duplicate.Detector {
	return duplicate.New(st)
}
