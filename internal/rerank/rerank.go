// Package rerank provides the cross-encoder reranker gateway and the
// deterministic similarity fallback used when the reranker is unavailable.
package rerank

import (
	"context"
	"sort"
	"time"

	"github.com/bookmydarshan/ragserver/internal/observability"
	"github.com/bookmydarshan/ragserver/pkg/models"
)

// RankedCandidate is a search candidate with a second-stage relevance score.
// Downstream consumers cannot tell whether the score came from the reranker
// or from the similarity fallback.
type RankedCandidate struct {
	// Text is the candidate chunk text.
	Text string `json:"text"`

	// Metadata is the originating search candidate.
	Metadata models.SearchCandidate `json:"metadata"`

	// Score is the reranker-provided relevance, or the retrieval
	// similarity when the fallback was used.
	Score float64 `json:"score"`
}

// Reranker scores candidates against a query with a cross-encoder model.
type Reranker interface {
	// Rerank returns at most topK candidates in relevance order.
	Rerank(ctx context.Context, query string, candidates []models.SearchCandidate, topK int) ([]RankedCandidate, error)
}

// Fallback deterministically re-ranks candidates by their retrieval-stage
// similarity, descending, truncated to topK, with each score set equal to
// the similarity. It produces the same output shape as the reranker.
func Fallback(candidates []models.SearchCandidate, topK int) []RankedCandidate {
	sorted := make([]models.SearchCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Similarity > sorted[j].Similarity
	})

	if topK > 0 && len(sorted) > topK {
		sorted = sorted[:topK]
	}

	ranked := make([]RankedCandidate, len(sorted))
	for i, c := range sorted {
		ranked[i] = RankedCandidate{
			Text:     c.Text,
			Metadata: c,
			Score:    c.Similarity,
		}
	}
	return ranked
}

// Ranker applies the primary reranker and absorbs its failures with the
// similarity fallback. Rank never fails: rerank is a latency-sensitive
// per-request call, so a failed primary attempt triggers exactly one
// synchronous fallback with no retry or backoff.
type Ranker struct {
	primary Reranker
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewRanker creates a Ranker. The metrics may be nil.
func NewRanker(primary Reranker, logger *observability.Logger, metrics *observability.Metrics) *Ranker {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Ranker{
		primary: primary,
		logger:  logger,
		metrics: metrics,
	}
}

// Rank reranks candidates, falling back to similarity order when the
// primary reranker fails. The degradation is logged, never surfaced.
func (r *Ranker) Rank(ctx context.Context, query string, candidates []models.SearchCandidate, topK int) []RankedCandidate {
	if len(candidates) == 0 {
		return nil
	}

	if r.primary != nil {
		start := time.Now()
		ranked, err := r.primary.Rerank(ctx, query, candidates, topK)
		if r.metrics != nil {
			r.metrics.RerankDuration.Observe(time.Since(start).Seconds())
		}
		if err == nil {
			return ranked
		}
		r.logger.Warn(ctx, "reranker failed, using similarity fallback", "error", err)
	}

	if r.metrics != nil {
		r.metrics.RerankFallbacks.Inc()
	}
	return Fallback(candidates, topK)
}
