// Package retrieval runs first-stage vector search: embed the query,
// fetch nearest chunks, and drop candidates below the similarity threshold.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/bookmydarshan/ragserver/internal/embeddings"
	"github.com/bookmydarshan/ragserver/internal/observability"
	"github.com/bookmydarshan/ragserver/internal/store"
	"github.com/bookmydarshan/ragserver/pkg/models"
)

// Config contains retrieval parameters.
type Config struct {
	// TopK is the maximum number of candidates fetched from the store.
	// Default: 15
	TopK int `yaml:"top_k"`
}

// DefaultConfig returns the default retrieval configuration.
func DefaultConfig() Config {
	return Config{
		TopK: 15,
	}
}

// Retriever embeds queries and searches stored chunk vectors.
type Retriever struct {
	store    store.DocumentStore
	embedder embeddings.Provider
	config   Config
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// New creates a Retriever.
func New(s store.DocumentStore, embedder embeddings.Provider, config Config, logger *observability.Logger, metrics *observability.Metrics) *Retriever {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if config.TopK <= 0 {
		config.TopK = DefaultConfig().TopK
	}
	return &Retriever{
		store:    s,
		embedder: embedder,
		config:   config,
		logger:   logger,
		metrics:  metrics,
	}
}

// SearchSimilar embeds query, runs nearest-neighbor search limited to topK
// rows, and returns the candidates at or above threshold, preserving the
// store's descending-similarity order. The threshold is applied exactly as
// given; cosine similarity spans [-1, 1], so negative thresholds are valid
// and keep weakly related candidates. Passing topK <= 0 applies the
// configured value. An empty category means no filter.
//
// An empty result is a valid outcome, not an error.
func (r *Retriever) SearchSimilar(ctx context.Context, query string, topK int, threshold float64, category string) ([]models.SearchCandidate, error) {
	if topK <= 0 {
		topK = r.config.TopK
	}

	start := time.Now()
	vector, err := embeddings.EmbedOne(ctx, r.embedder, query, embeddings.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if r.metrics != nil {
		r.metrics.EmbeddingDuration.WithLabelValues(string(embeddings.TaskQuery)).Observe(time.Since(start).Seconds())
	}

	candidates, err := r.store.SearchChunks(ctx, vector, topK, category)
	if err != nil {
		return nil, fmt.Errorf("search chunks: %w", err)
	}

	kept := make([]models.SearchCandidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Similarity >= threshold {
			kept = append(kept, c)
		}
	}

	if r.metrics != nil {
		r.metrics.RetrievalCandidates.Observe(float64(len(kept)))
	}
	r.logger.Debug(ctx, "vector search complete",
		"fetched", len(candidates),
		"kept", len(kept),
		"threshold", threshold,
		"category", category)

	return kept, nil
}
