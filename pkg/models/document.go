// Package models defines the core data types for the ragserver service.
package models

import (
	"time"
)

// Document represents an uploaded knowledge-base document.
// Documents are stored whole and split into chunks when processed.
type Document struct {
	// ID is the unique identifier for the document.
	ID string `json:"id"`

	// Filename is the stored filename of the document.
	Filename string `json:"filename"`

	// FileType is the MIME type of the original upload.
	FileType string `json:"file_type"`

	// Category is a free-form label used as a coarse partition key
	// for retrieval filtering (e.g. "General", "Temples").
	Category string `json:"category"`

	// Content is the raw text content of the document.
	Content string `json:"content"`

	// UploadedAt is when the document was added.
	UploadedAt time.Time `json:"uploaded_at"`
}

// DocumentInfo is a listing row for a document, including processing state
// derived from the number of stored chunks.
type DocumentInfo struct {
	// ID is the document identifier.
	ID string `json:"id"`

	// Filename is the stored filename.
	Filename string `json:"filename"`

	// FileType is the MIME type of the original upload.
	FileType string `json:"file_type"`

	// Category is the document category.
	Category string `json:"category"`

	// ContentSize is the length of the stored text content in bytes.
	ContentSize int `json:"content_size"`

	// ChunkCount is the number of embedded chunks for this document.
	ChunkCount int `json:"chunk_count"`

	// Processed is true when the document has at least one embedded chunk.
	Processed bool `json:"processed"`

	// UploadedAt is when the document was added.
	UploadedAt time.Time `json:"uploaded_at"`
}

// Chunk is a contiguous substring of a document's text stored with its
// own embedding for independent retrieval.
type Chunk struct {
	// DocumentID identifies the owning document.
	DocumentID string `json:"document_id"`

	// Index is the 0-based, contiguous position of the chunk within its
	// document. Together with DocumentID it uniquely identifies a chunk.
	Index int `json:"chunk_index"`

	// Text is the trimmed chunk text.
	Text string `json:"text"`

	// Embedding is the fixed-dimension vector for the chunk text.
	Embedding []float32 `json:"-"`
}

// SearchCandidate is a retrieval hit produced by vector search.
// Candidates are ephemeral; they are never persisted.
type SearchCandidate struct {
	// DocumentID identifies the owning document.
	DocumentID string `json:"document_id"`

	// ChunkIndex is the chunk's position within its document.
	ChunkIndex int `json:"chunk_index"`

	// Text is the chunk text.
	Text string `json:"text"`

	// Filename is the owning document's filename, carried for citations.
	Filename string `json:"filename"`

	// Similarity is 1 - cosine distance between the query vector and the
	// chunk vector, in [-1, 1].
	Similarity float64 `json:"similarity"`
}
