// Package store defines the persistence interface for documents and their
// embedded chunks.
package store

import (
	"context"

	"github.com/bookmydarshan/ragserver/pkg/models"
)

// DocumentStore persists documents and chunk vectors, and executes
// nearest-neighbor searches over the stored vectors.
type DocumentStore interface {
	// CreateDocument stores a new document.
	CreateDocument(ctx context.Context, doc *models.Document) error

	// GetDocument retrieves a document by ID. Returns (nil, nil) when no
	// such document exists.
	GetDocument(ctx context.Context, id string) (*models.Document, error)

	// ListDocuments lists all documents, newest first, with chunk counts.
	ListDocuments(ctx context.Context) ([]*models.DocumentInfo, error)

	// DeleteDocument removes a document and all its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// DeleteChunks removes all chunks for a document. Deleting chunks of
	// a never-processed document is a no-op.
	DeleteChunks(ctx context.Context, documentID string) error

	// InsertChunk persists one chunk with its embedding.
	InsertChunk(ctx context.Context, chunk *models.Chunk) error

	// CountChunks returns the number of stored chunks for a document.
	CountChunks(ctx context.Context, documentID string) (int, error)

	// SearchChunks runs a nearest-neighbor query over all stored chunk
	// vectors, ordered by ascending cosine distance, optionally restricted
	// to documents whose category equals category (empty means no filter),
	// limited to topK rows. Each returned candidate carries
	// similarity = 1 - distance.
	SearchChunks(ctx context.Context, embedding []float32, topK int, category string) ([]models.SearchCandidate, error)

	// Ping verifies store connectivity.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
