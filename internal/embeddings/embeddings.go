// Package embeddings defines the embedding provider interface used by the
// indexing and retrieval pipelines.
package embeddings

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnavailable indicates the embedding provider was unreachable or
// returned a malformed response. The failure is fatal to the calling
// operation; there is no local fallback for missing embeddings.
var ErrUnavailable = errors.New("embedding provider unavailable")

// Task selects the embedding space for asymmetric models that embed
// queries and passages differently.
type Task string

const (
	// TaskQuery is used for search-time user input.
	TaskQuery Task = "query"

	// TaskPassage is used for indexing-time document chunks.
	TaskPassage Task = "passage"
)

// Provider generates embeddings for text.
type Provider interface {
	// Name returns the provider name for logging.
	Name() string

	// Dimension returns the embedding dimension the provider produces.
	Dimension() int

	// Embed returns one vector per input text, in input order.
	// Failures are reported as (or wrap) ErrUnavailable.
	Embed(ctx context.Context, texts []string, task Task) ([][]float32, error)

	// Healthy reports whether the provider is reachable.
	Healthy(ctx context.Context) bool
}

// EmbedOne embeds a single text and returns its vector.
func EmbedOne(ctx context.Context, p Provider, text string, task Task) ([]float32, error) {
	vectors, err := p.Embed(ctx, []string{text}, task)
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("%w: expected 1 vector, got %d", ErrUnavailable, len(vectors))
	}
	return vectors[0], nil
}
