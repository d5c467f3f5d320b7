// Package index turns stored documents into embedded chunks ready for
// vector search.
package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookmydarshan/ragserver/internal/chunker"
	"github.com/bookmydarshan/ragserver/internal/embeddings"
	"github.com/bookmydarshan/ragserver/internal/observability"
	"github.com/bookmydarshan/ragserver/internal/store"
	"github.com/bookmydarshan/ragserver/pkg/models"
)

// ErrDocumentNotFound is returned when processing is requested for a
// document that does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// Indexer processes documents: it splits their text into chunks, embeds
// each chunk, and persists the results.
type Indexer struct {
	store    store.DocumentStore
	embedder embeddings.Provider
	splitter *chunker.Splitter
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// New creates an Indexer.
func New(s store.DocumentStore, embedder embeddings.Provider, splitter *chunker.Splitter, logger *observability.Logger, metrics *observability.Metrics) *Indexer {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Indexer{
		store:    s,
		embedder: embedder,
		splitter: splitter,
		logger:   logger,
		metrics:  metrics,
	}
}

// ProcessDocument chunks and embeds the document's content, replacing any
// chunks from a previous run. It returns the number of chunks written.
//
// Processing is idempotent: reprocessing an unchanged document yields the
// same chunk rows. On a mid-document embedding or storage failure the
// chunks written so far remain stored, and the returned count reflects
// them; re-running the operation heals the partial state because existing
// chunks are deleted first.
func (ix *Indexer) ProcessDocument(ctx context.Context, documentID string) (int, error) {
	doc, err := ix.store.GetDocument(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return 0, ErrDocumentNotFound
	}

	if err := ix.store.DeleteChunks(ctx, documentID); err != nil {
		return 0, fmt.Errorf("clear existing chunks: %w", err)
	}

	texts := ix.splitter.Split(doc.Content)
	if len(texts) == 0 {
		ix.logger.Warn(ctx, "document produced no chunks",
			"document_id", documentID,
			"filename", doc.Filename)
		return 0, nil
	}

	start := time.Now()
	for i, text := range texts {
		vector, err := ix.embedText(ctx, text)
		if err != nil {
			return i, fmt.Errorf("embed chunk %d of %d: %w", i, len(texts), err)
		}

		chunk := &models.Chunk{
			DocumentID: documentID,
			Index:      i,
			Text:       text,
			Embedding:  vector,
		}
		if err := ix.store.InsertChunk(ctx, chunk); err != nil {
			return i, fmt.Errorf("store chunk %d of %d: %w", i, len(texts), err)
		}

		if ix.metrics != nil {
			ix.metrics.ChunksIndexed.Inc()
		}
	}

	ix.logger.Info(ctx, "document processed",
		"document_id", documentID,
		"filename", doc.Filename,
		"chunks", len(texts),
		"duration", time.Since(start))

	return len(texts), nil
}

func (ix *Indexer) embedText(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vector, err := embeddings.EmbedOne(ctx, ix.embedder, text, embeddings.TaskPassage)
	if err != nil {
		return nil, err
	}
	if ix.metrics != nil {
		ix.metrics.EmbeddingDuration.WithLabelValues(string(embeddings.TaskPassage)).Observe(time.Since(start).Seconds())
	}
	return vector, nil
}
