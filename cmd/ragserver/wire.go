package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/bookmydarshan/ragserver/internal/chat"
	"github.com/bookmydarshan/ragserver/internal/chunker"
	"github.com/bookmydarshan/ragserver/internal/config"
	"github.com/bookmydarshan/ragserver/internal/docs"
	"github.com/bookmydarshan/ragserver/internal/embeddings"
	"github.com/bookmydarshan/ragserver/internal/embeddings/httpembed"
	"github.com/bookmydarshan/ragserver/internal/embeddings/openai"
	"github.com/bookmydarshan/ragserver/internal/generate/anthropic"
	"github.com/bookmydarshan/ragserver/internal/history"
	"github.com/bookmydarshan/ragserver/internal/index"
	"github.com/bookmydarshan/ragserver/internal/observability"
	"github.com/bookmydarshan/ragserver/internal/rerank"
	"github.com/bookmydarshan/ragserver/internal/retrieval"
	"github.com/bookmydarshan/ragserver/internal/store/pgvector"
)

// app holds the wired service graph.
type app struct {
	cfg      *config.Config
	logger   *observability.Logger
	metrics  *observability.Metrics
	registry *prometheus.Registry

	store     *pgvector.Store
	embedder  embeddings.Provider
	reranker  *rerank.Client // nil when no reranker is configured
	ranker    *rerank.Ranker
	retriever *retrieval.Retriever
	indexer   *index.Indexer
	history   *history.Store
	documents *docs.Service
	chatter   *chat.Orchestrator
}

// buildApp constructs every component from configuration. All gateways are
// created once here and injected; nothing holds package-level state.
func buildApp(cfg *config.Config) (*app, error) {
	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := observability.NewMetrics(registry)

	store, err := pgvector.New(pgvector.Config{
		DSN:           cfg.Database.DSN,
		Dimension:     cfg.Database.Dimension,
		RunMigrations: cfg.Database.RunMigrations,
	})
	if err != nil {
		return nil, fmt.Errorf("connect store: %w", err)
	}

	embedder, err := buildEmbedder(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}
	if err := verifyEmbedderDimension(embedder, cfg.Database.Dimension); err != nil {
		store.Close()
		return nil, err
	}

	var rerankClient *rerank.Client
	if cfg.Reranker.URL != "" {
		rerankClient, err = rerank.NewClient(rerank.ClientConfig{
			BaseURL: cfg.Reranker.URL,
			Timeout: cfg.Reranker.Timeout,
		})
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("reranker client: %w", err)
		}
	}
	var primary rerank.Reranker
	if rerankClient != nil {
		primary = rerankClient
	}
	ranker := rerank.NewRanker(primary, logger, metrics)

	splitter, err := chunker.New(cfg.Chunking)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("chunker: %w", err)
	}

	generator, err := anthropic.New(anthropic.Config{
		APIKey:    cfg.Generator.APIKey,
		Model:     cfg.Generator.Model,
		MaxTokens: cfg.Generator.MaxTokens,
	})
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("generator: %w", err)
	}

	historyStore := history.NewStore(store.DB())
	retriever := retrieval.New(store, embedder, retrieval.Config{
		TopK: cfg.Search.TopK,
	}, logger, metrics)

	return &app{
		cfg:       cfg,
		logger:    logger,
		metrics:   metrics,
		registry:  registry,
		store:     store,
		embedder:  embedder,
		reranker:  rerankClient,
		ranker:    ranker,
		retriever: retriever,
		indexer:   index.New(store, embedder, splitter, logger, metrics),
		history:   historyStore,
		documents: docs.NewService(store, logger),
		chatter:   chat.New(retriever, ranker, generator, historyStore, cfg.Search, logger, metrics),
	}, nil
}

func buildEmbedder(cfg *config.Config) (embeddings.Provider, error) {
	switch cfg.Embeddings.Provider {
	case "http":
		return httpembed.New(httpembed.Config{
			BaseURL:   cfg.Embeddings.URL,
			Dimension: cfg.Embeddings.Dimension,
		})
	case "openai":
		return openai.New(openai.Config{
			APIKey: cfg.Embeddings.APIKey,
			Model:  cfg.Embeddings.Model,
		})
	default:
		return nil, fmt.Errorf("unknown embeddings provider %q", cfg.Embeddings.Provider)
	}
}

// verifyEmbedderDimension refuses to start when the provider's vector width
// disagrees with the store's vector column. A mismatch would fail every
// insert and search, so it is a configuration error, not a runtime one.
func verifyEmbedderDimension(p embeddings.Provider, storeDimension int) error {
	if got := p.Dimension(); got != storeDimension {
		return fmt.Errorf("embeddings provider %s produces %d-dimensional vectors, database expects %d", p.Name(), got, storeDimension)
	}
	return nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error(nil, "failed to close store", "error", err)
	}
}
