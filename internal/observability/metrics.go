package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides a centralized interface for collecting pipeline metrics.
//
// The metrics system is built on Prometheus and tracks:
//   - Embedding, rerank, and generation call latency
//   - Retrieval candidate counts before and after thresholding
//   - Rerank fallback activations
//   - Chat turns by confidence
//   - Indexed chunk throughput
type Metrics struct {
	// EmbeddingDuration measures embedding provider call latency in seconds.
	// Labels: task (query|passage)
	EmbeddingDuration *prometheus.HistogramVec

	// RetrievalCandidates observes how many candidates survive the
	// similarity threshold per search.
	RetrievalCandidates prometheus.Histogram

	// RerankDuration measures reranker call latency in seconds.
	RerankDuration prometheus.Histogram

	// RerankFallbacks counts rerank calls recovered by the similarity
	// fallback.
	RerankFallbacks prometheus.Counter

	// GenerationDuration measures answer generator latency in seconds.
	GenerationDuration prometheus.Histogram

	// ChatTurns counts completed chat turns by confidence.
	// Labels: confidence (high|medium|low)
	ChatTurns *prometheus.CounterVec

	// ChunksIndexed counts chunks written during document processing.
	ChunksIndexed prometheus.Counter

	// HTTPRequestDuration measures API request latency in seconds.
	// Labels: route, method, status
	HTTPRequestDuration *prometheus.HistogramVec
}

// NewMetrics creates pipeline metrics registered on reg. Passing nil uses
// the default Prometheus registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		EmbeddingDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragserver_embedding_duration_seconds",
				Help:    "Duration of embedding provider calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
			[]string{"task"},
		),

		RetrievalCandidates: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ragserver_retrieval_candidates",
				Help:    "Candidates surviving the similarity threshold per search",
				Buckets: []float64{0, 1, 2, 3, 5, 10, 15, 25},
			},
		),

		RerankDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ragserver_rerank_duration_seconds",
				Help:    "Duration of reranker calls in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		),

		RerankFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ragserver_rerank_fallbacks_total",
				Help: "Rerank calls recovered by the similarity fallback",
			},
		),

		GenerationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "ragserver_generation_duration_seconds",
				Help:    "Duration of answer generator calls in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
		),

		ChatTurns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ragserver_chat_turns_total",
				Help: "Completed chat turns by confidence",
			},
			[]string{"confidence"},
		),

		ChunksIndexed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "ragserver_chunks_indexed_total",
				Help: "Chunks embedded and written during document processing",
			},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ragserver_http_request_duration_seconds",
				Help:    "Duration of API requests in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"route", "method", "status"},
		),
	}
}
