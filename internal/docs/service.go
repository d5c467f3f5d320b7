// Package docs manages knowledge-base documents: upload, listing,
// deletion, and processing status.
package docs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bookmydarshan/ragserver/internal/observability"
	"github.com/bookmydarshan/ragserver/internal/store"
	"github.com/bookmydarshan/ragserver/pkg/models"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("document not found")

// ErrEmptyContent is returned when an upload carries no usable text.
var ErrEmptyContent = errors.New("document content is empty")

// Status describes a document's processing state.
type Status struct {
	// DocumentID is the document identifier.
	DocumentID string `json:"document_id"`

	// Processed is true when the document has stored chunks.
	Processed bool `json:"processed"`

	// ChunkCount is the number of stored chunks.
	ChunkCount int `json:"chunk_count"`
}

// Service provides document CRUD on top of the document store.
type Service struct {
	store  store.DocumentStore
	logger *observability.Logger
}

// NewService creates a document service.
func NewService(s store.DocumentStore, logger *observability.Logger) *Service {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Service{store: s, logger: logger}
}

// Upload stores a new text document and returns it. The document is not
// chunked or embedded until it is processed.
func (s *Service) Upload(ctx context.Context, filename, fileType, category, content string) (*models.Document, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if category == "" {
		category = "General"
	}

	doc := &models.Document{
		ID:         uuid.New().String(),
		Filename:   filename,
		FileType:   fileType,
		Category:   category,
		Content:    content,
		UploadedAt: time.Now().UTC(),
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("store document: %w", err)
	}

	s.logger.Info(ctx, "document uploaded",
		"document_id", doc.ID,
		"filename", doc.Filename,
		"category", doc.Category,
		"size", len(doc.Content))
	return doc, nil
}

// Get retrieves a document by ID.
func (s *Service) Get(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	return doc, nil
}

// List lists all documents, newest first.
func (s *Service) List(ctx context.Context) ([]*models.DocumentInfo, error) {
	return s.store.ListDocuments(ctx)
}

// Delete removes a document and its chunks.
func (s *Service) Delete(ctx context.Context, id string) error {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrNotFound
	}
	if err := s.store.DeleteDocument(ctx, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.logger.Info(ctx, "document deleted", "document_id", id)
	return nil
}

// GetStatus reports a document's processing state.
func (s *Service) GetStatus(ctx context.Context, id string) (*Status, error) {
	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrNotFound
	}
	count, err := s.store.CountChunks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("count chunks: %w", err)
	}
	return &Status{
		DocumentID: id,
		Processed:  count > 0,
		ChunkCount: count,
	}, nil
}
