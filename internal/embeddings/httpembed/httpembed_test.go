package httpembed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bookmydarshan/ragserver/internal/embeddings"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc, dimension int) *Provider {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := New(Config{BaseURL: srv.URL, Dimension: dimension})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return p
}

// ============================================================================
// Embed Tests
// ============================================================================

func TestEmbedSuccess(t *testing.T) {
	var gotTask string
	var gotTexts []string

	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed" {
			t.Errorf("path = %s, want /embed", r.URL.Path)
		}
		var req struct {
			Texts []string `json:"texts"`
			Task  string   `json:"task"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		gotTask = req.Task
		gotTexts = req.Texts

		json.NewEncoder(w).Encode(map[string]any{
			"vectors": [][]float32{{0.1, 0.2, 0.3}, {0.4, 0.5, 0.6}},
		})
	}, 3)

	vectors, err := p.Embed(context.Background(), []string{"first", "second"}, embeddings.TaskPassage)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if gotTask != "passage" {
		t.Errorf("task = %q, want passage", gotTask)
	}
	if len(gotTexts) != 2 {
		t.Errorf("sent %d texts, want 2", len(gotTexts))
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if vectors[0][0] != 0.1 || vectors[1][2] != 0.6 {
		t.Errorf("unexpected vector values: %v", vectors)
	}
}

func TestEmbedQueryTask(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Task string `json:"task"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		if req.Task != "query" {
			t.Errorf("task = %q, want query", req.Task)
		}
		json.NewEncoder(w).Encode(map[string]any{"vectors": [][]float32{{1, 0}}})
	}, 2)

	if _, err := p.Embed(context.Background(), []string{"q"}, embeddings.TaskQuery); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
}

func TestEmbedServerErrorIsUnavailable(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}, 3)

	_, err := p.Embed(context.Background(), []string{"text"}, embeddings.TaskPassage)
	if !errors.Is(err, embeddings.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestEmbedMalformedResponseIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `not json at all`},
		{"wrong vector count", `{"vectors": [[0.1, 0.2, 0.3]]}`},
		{"wrong dimension", `{"vectors": [[0.1], [0.2]]}`},
		{"missing vectors", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}, 3)

			_, err := p.Embed(context.Background(), []string{"a", "b"}, embeddings.TaskPassage)
			if !errors.Is(err, embeddings.ErrUnavailable) {
				t.Errorf("error = %v, want ErrUnavailable", err)
			}
		})
	}
}

func TestEmbedUnreachableIsUnavailable(t *testing.T) {
	p, err := New(Config{BaseURL: "http://127.0.0.1:1", Dimension: 3})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, err = p.Embed(context.Background(), []string{"text"}, embeddings.TaskPassage)
	if !errors.Is(err, embeddings.ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
}

func TestEmbedNoTexts(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("server should not be called for empty input")
	}, 3)

	vectors, err := p.Embed(context.Background(), nil, embeddings.TaskPassage)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if vectors != nil {
		t.Errorf("vectors = %v, want nil", vectors)
	}
}

// ============================================================================
// Health Tests
// ============================================================================

func TestHealthy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   bool
	}{
		{"ready", http.StatusOK, `{"ok": true}`, true},
		{"not ready", http.StatusOK, `{"ok": false}`, false},
		{"server error", http.StatusServiceUnavailable, `{"ok": true}`, false},
		{"malformed body", http.StatusOK, `garbage`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/health" {
					t.Errorf("path = %s, want /health", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, 3)

			if got := p.Healthy(context.Background()); got != tt.want {
				t.Errorf("Healthy() = %v, want %v", got, tt.want)
			}
		})
	}
}
