// Package chat orchestrates a retrieval-augmented chat turn: vector search,
// reranking with fallback, context assembly, and answer generation.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bookmydarshan/ragserver/internal/generate"
	"github.com/bookmydarshan/ragserver/internal/observability"
	"github.com/bookmydarshan/ragserver/internal/rerank"
	"github.com/bookmydarshan/ragserver/pkg/models"
)

// ErrInvalidQuery is returned when a chat request carries an empty query.
// No retrieval is attempted and no side effects occur.
var ErrInvalidQuery = errors.New("query must be non-empty")

// Retriever is the first-stage search used by the orchestrator.
type Retriever interface {
	SearchSimilar(ctx context.Context, query string, topK int, threshold float64, category string) ([]models.SearchCandidate, error)
}

// Ranker is the second-stage scorer. Implementations never fail; rerank
// outages are absorbed by the similarity fallback.
type Ranker interface {
	Rank(ctx context.Context, query string, candidates []models.SearchCandidate, topK int) []rerank.RankedCandidate
}

// History persists chat sessions and messages. All orchestrator calls into
// it are best-effort.
type History interface {
	// EnsureSession returns a usable session ID, creating a session when
	// id is empty or references a missing session.
	EnsureSession(ctx context.Context, id string) (string, error)

	// SaveMessage records one message in a session.
	SaveMessage(ctx context.Context, sessionID, role, content string) error
}

// Config contains chat orchestration parameters.
type Config struct {
	// TopK is the candidate limit for first-stage retrieval.
	// Default: 15
	TopK int `yaml:"top_k"`

	// Threshold is the retrieval similarity threshold.
	// Default: 0.05
	Threshold float64 `yaml:"threshold"`

	// RerankTopK is how many candidates survive reranking.
	// Default: 3
	RerankTopK int `yaml:"rerank_top_k"`
}

// DefaultConfig returns the default chat configuration.
func DefaultConfig() Config {
	return Config{
		TopK:       15,
		Threshold:  0.05,
		RerankTopK: 3,
	}
}

// Orchestrator runs chat turns. It is stateless across turns and safe for
// concurrent use; each turn proceeds strictly sequentially through
// retrieval, rerank, and generation.
type Orchestrator struct {
	retriever Retriever
	ranker    Ranker
	generator generate.Generator
	history   History
	config    Config
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// New creates an Orchestrator. The history may be nil, in which case turns
// are not persisted.
func New(retriever Retriever, ranker Ranker, generator generate.Generator, history History, config Config, logger *observability.Logger, metrics *observability.Metrics) *Orchestrator {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	defaults := DefaultConfig()
	if config.TopK <= 0 {
		config.TopK = defaults.TopK
	}
	if config.Threshold <= 0 {
		config.Threshold = defaults.Threshold
	}
	if config.RerankTopK <= 0 {
		config.RerankTopK = defaults.RerankTopK
	}
	return &Orchestrator{
		retriever: retriever,
		ranker:    ranker,
		generator: generator,
		history:   history,
		config:    config,
		logger:    logger,
		metrics:   metrics,
	}
}

// Answer runs one chat turn.
//
// An empty retrieval result short-circuits the turn: the fixed no-knowledge
// answer is returned with no sources and low confidence, and neither the
// reranker nor the generator is invoked. Session and message persistence is
// best-effort; its failures are logged and never abort answer delivery.
func (o *Orchestrator) Answer(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, ErrInvalidQuery
	}

	sessionID := o.ensureSession(ctx, req.SessionID)
	o.saveMessage(ctx, sessionID, "user", query)

	candidates, err := o.retriever.SearchSimilar(ctx, query, o.config.TopK, o.config.Threshold, req.Category)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", err)
	}

	if len(candidates) == 0 {
		o.logger.Info(ctx, "no knowledge-base match", "query_length", len(query))
		o.saveMessage(ctx, sessionID, "assistant", noKnowledgeAnswer)
		return o.respond(&models.ChatResponse{
			Answer:     noKnowledgeAnswer,
			Sources:    []models.Source{},
			Confidence: models.ConfidenceLow,
			SessionID:  sessionID,
		}), nil
	}

	confidence := models.ConfidenceMedium
	if len(candidates) > 3 {
		confidence = models.ConfidenceHigh
	}

	ranked := o.ranker.Rank(ctx, query, candidates, o.config.RerankTopK)
	assembled := Assemble(ranked)

	start := time.Now()
	answer, err := o.generator.Generate(ctx, generate.Request{
		System:  systemPrompt,
		History: req.ConversationHistory,
		Prompt:  buildUserPrompt(assembled.Context, query),
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	if o.metrics != nil {
		o.metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	}

	o.saveMessage(ctx, sessionID, "assistant", answer)

	sources := make([]models.Source, len(assembled.Entries))
	for i, entry := range assembled.Entries {
		sources[i] = models.Source{
			Filename:    entry.Candidate.Metadata.Filename,
			Similarity:  entry.Candidate.Metadata.Similarity,
			RerankScore: entry.Candidate.Score,
		}
	}

	return o.respond(&models.ChatResponse{
		Answer:     answer,
		Sources:    sources,
		Confidence: confidence,
		SessionID:  sessionID,
	}), nil
}

func (o *Orchestrator) respond(resp *models.ChatResponse) *models.ChatResponse {
	if o.metrics != nil {
		o.metrics.ChatTurns.WithLabelValues(string(resp.Confidence)).Inc()
	}
	return resp
}

// ensureSession resolves the session to record this turn under. Failures
// leave the turn unpersisted but never abort it.
func (o *Orchestrator) ensureSession(ctx context.Context, id string) string {
	if o.history == nil {
		return ""
	}
	sessionID, err := o.history.EnsureSession(ctx, id)
	if err != nil {
		o.logger.Warn(ctx, "session persistence unavailable", "error", err)
		return ""
	}
	return sessionID
}

func (o *Orchestrator) saveMessage(ctx context.Context, sessionID, role, content string) {
	if o.history == nil || sessionID == "" {
		return
	}
	if err := o.history.SaveMessage(ctx, sessionID, role, content); err != nil {
		o.logger.Warn(ctx, "failed to save chat message", "role", role, "error", err)
	}
}
