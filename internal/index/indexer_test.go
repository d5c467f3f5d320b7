package index

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bookmydarshan/ragserver/internal/chunker"
	"github.com/bookmydarshan/ragserver/internal/embeddings"
	"github.com/bookmydarshan/ragserver/pkg/models"
)

// ============================================================================
// Test Doubles
// ============================================================================

type fakeStore struct {
	docs         map[string]*models.Document
	chunks       []*models.Chunk
	deleteCalls  int
	insertFailAt int // fail the Nth insert (1-based), 0 means never
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: make(map[string]*models.Document)}
}

func (s *fakeStore) CreateDocument(ctx context.Context, doc *models.Document) error {
	s.docs[doc.ID] = doc
	return nil
}

func (s *fakeStore) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return s.docs[id], nil
}

func (s *fakeStore) ListDocuments(ctx context.Context) ([]*models.DocumentInfo, error) {
	return nil, nil
}

func (s *fakeStore) DeleteDocument(ctx context.Context, id string) error {
	delete(s.docs, id)
	return nil
}

func (s *fakeStore) DeleteChunks(ctx context.Context, documentID string) error {
	s.deleteCalls++
	kept := s.chunks[:0]
	for _, c := range s.chunks {
		if c.DocumentID != documentID {
			kept = append(kept, c)
		}
	}
	s.chunks = kept
	return nil
}

func (s *fakeStore) InsertChunk(ctx context.Context, chunk *models.Chunk) error {
	if s.insertFailAt > 0 && len(s.chunks)+1 == s.insertFailAt {
		return errors.New("insert failed")
	}
	s.chunks = append(s.chunks, chunk)
	return nil
}

func (s *fakeStore) CountChunks(ctx context.Context, documentID string) (int, error) {
	n := 0
	for _, c := range s.chunks {
		if c.DocumentID == documentID {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) SearchChunks(ctx context.Context, embedding []float32, topK int, category string) ([]models.SearchCandidate, error) {
	return nil, nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return nil }
func (s *fakeStore) Close() error                   { return nil }

type countingEmbedder struct {
	calls  int
	failAt int
	tasks  []embeddings.Task
}

func (e *countingEmbedder) Name() string   { return "counting" }
func (e *countingEmbedder) Dimension() int { return 3 }

func (e *countingEmbedder) Embed(ctx context.Context, texts []string, task embeddings.Task) ([][]float32, error) {
	e.calls++
	e.tasks = append(e.tasks, task)
	if e.failAt > 0 && e.calls == e.failAt {
		return nil, fmt.Errorf("boom: %w", embeddings.ErrUnavailable)
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (e *countingEmbedder) Healthy(ctx context.Context) bool { return true }

func newTestIndexer(s *fakeStore, e embeddings.Provider) *Indexer {
	splitter, _ := chunker.New(chunker.Config{ChunkSize: 20, Overlap: 5})
	return New(s, e, splitter, nil, nil)
}

// ============================================================================
// ProcessDocument Tests
// ============================================================================

func TestProcessDocumentNotFound(t *testing.T) {
	ix := newTestIndexer(newFakeStore(), &countingEmbedder{})

	_, err := ix.ProcessDocument(context.Background(), "missing")
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Fatalf("expected ErrDocumentNotFound, got %v", err)
	}
}

func TestProcessDocumentStoresAllChunks(t *testing.T) {
	s := newFakeStore()
	s.docs["doc-1"] = &models.Document{
		ID:      "doc-1",
		Content: strings.Repeat("The temple opens at dawn. ", 10),
	}
	embedder := &countingEmbedder{}
	ix := newTestIndexer(s, embedder)

	count, err := ix.ProcessDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}
	if count == 0 {
		t.Fatal("expected at least one chunk")
	}
	if len(s.chunks) != count {
		t.Errorf("stored %d chunks, reported %d", len(s.chunks), count)
	}
	if embedder.calls != count {
		t.Errorf("expected one embed call per chunk, got %d calls for %d chunks", embedder.calls, count)
	}

	for i, c := range s.chunks {
		if c.Index != i {
			t.Errorf("chunk %d has index %d, want contiguous 0-based indices", i, c.Index)
		}
		if c.DocumentID != "doc-1" {
			t.Errorf("chunk %d has document_id %q", i, c.DocumentID)
		}
		if len(c.Embedding) != 3 {
			t.Errorf("chunk %d embedding has dimension %d, want 3", i, len(c.Embedding))
		}
	}
}

func TestProcessDocumentUsesPassageTask(t *testing.T) {
	s := newFakeStore()
	s.docs["doc-1"] = &models.Document{ID: "doc-1", Content: "Short document."}
	embedder := &countingEmbedder{}
	ix := newTestIndexer(s, embedder)

	if _, err := ix.ProcessDocument(context.Background(), "doc-1"); err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}
	for _, task := range embedder.tasks {
		if task != embeddings.TaskPassage {
			t.Errorf("expected passage task, got %q", task)
		}
	}
}

func TestProcessDocumentReplacesExistingChunks(t *testing.T) {
	s := newFakeStore()
	s.docs["doc-1"] = &models.Document{ID: "doc-1", Content: "Same content both runs."}
	ix := newTestIndexer(s, &countingEmbedder{})

	first, err := ix.ProcessDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	second, err := ix.ProcessDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	if first != second {
		t.Errorf("reprocessing changed chunk count: %d then %d", first, second)
	}
	if len(s.chunks) != second {
		t.Errorf("expected %d chunks after reprocessing, found %d", second, len(s.chunks))
	}
	if s.deleteCalls != 2 {
		t.Errorf("expected DeleteChunks before each run, got %d calls", s.deleteCalls)
	}
}

func TestProcessDocumentEmptyContent(t *testing.T) {
	s := newFakeStore()
	s.docs["doc-1"] = &models.Document{ID: "doc-1", Content: "   \n  "}
	embedder := &countingEmbedder{}
	ix := newTestIndexer(s, embedder)

	count, err := ix.ProcessDocument(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 chunks for blank content, got %d", count)
	}
	if embedder.calls != 0 {
		t.Errorf("expected no embed calls for blank content, got %d", embedder.calls)
	}
}

func TestProcessDocumentEmbedFailureMidway(t *testing.T) {
	s := newFakeStore()
	s.docs["doc-1"] = &models.Document{
		ID:      "doc-1",
		Content: strings.Repeat("Another sentence about the shrine. ", 10),
	}
	// Fail the third embedding call: two chunks land, the rest don't.
	embedder := &countingEmbedder{failAt: 3}
	ix := newTestIndexer(s, embedder)

	count, err := ix.ProcessDocument(context.Background(), "doc-1")
	if err == nil {
		t.Fatal("expected error from failing embedder")
	}
	if !errors.Is(err, embeddings.ErrUnavailable) {
		t.Errorf("expected wrapped ErrUnavailable, got %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 chunks written before the failure, got %d", count)
	}
	if len(s.chunks) != 2 {
		t.Errorf("expected 2 stored chunks, found %d", len(s.chunks))
	}
}

func TestProcessDocumentInsertFailureMidway(t *testing.T) {
	s := newFakeStore()
	s.docs["doc-1"] = &models.Document{
		ID:      "doc-1",
		Content: strings.Repeat("Yet another line of temple lore. ", 10),
	}
	s.insertFailAt = 2
	ix := newTestIndexer(s, &countingEmbedder{})

	count, err := ix.ProcessDocument(context.Background(), "doc-1")
	if err == nil {
		t.Fatal("expected error from failing store")
	}
	if count != 1 {
		t.Errorf("expected 1 chunk written before the failure, got %d", count)
	}
}
