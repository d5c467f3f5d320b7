// Package httpembed provides an embedding provider backed by a local
// embedding HTTP service.
//
// The service contract is POST /embed with {"texts": [...], "task":
// "query"|"passage"} returning {"vectors": [[...], ...]}, plus GET /health
// returning {"ok": true} when ready.
package httpembed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bookmydarshan/ragserver/internal/embeddings"
)

// Config contains configuration for the HTTP embedding provider.
type Config struct {
	// BaseURL is the embedding service base URL, e.g. "http://localhost:8088".
	BaseURL string

	// Dimension is the embedding dimension the service produces.
	// Responses with a different dimension are treated as malformed.
	Dimension int

	// Timeout is the per-request timeout. Default: 30s.
	Timeout time.Duration

	// HTTPClient overrides the HTTP client (primarily for tests).
	HTTPClient *http.Client
}

// Provider implements embeddings.Provider against the embedding service.
type Provider struct {
	baseURL   string
	dimension int
	client    *http.Client
}

var _ embeddings.Provider = (*Provider)(nil)

// New creates an HTTP embedding provider.
func New(cfg Config) (*Provider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("httpembed: base URL is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("httpembed: dimension is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Provider{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		dimension: cfg.Dimension,
		client:    client,
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "httpembed"
}

// Dimension returns the configured embedding dimension.
func (p *Provider) Dimension() int {
	return p.dimension
}

type embedRequest struct {
	Texts []string `json:"texts"`
	Task  string   `json:"task"`
}

type embedResponse struct {
	Vectors [][]float32 `json:"vectors"`
}

// Embed generates embeddings for texts in the given task mode.
func (p *Provider) Embed(ctx context.Context, texts []string, task embeddings.Task) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(embedRequest{Texts: texts, Task: string(task)})
	if err != nil {
		return nil, fmt.Errorf("httpembed: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("httpembed: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", embeddings.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: embed returned status %d", embeddings.ErrUnavailable, resp.StatusCode)
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", embeddings.ErrUnavailable, err)
	}

	// Validate shape at the gateway boundary rather than letting a
	// malformed response surface downstream.
	if len(parsed.Vectors) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", embeddings.ErrUnavailable, len(texts), len(parsed.Vectors))
	}
	for i, vec := range parsed.Vectors {
		if len(vec) != p.dimension {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", embeddings.ErrUnavailable, i, len(vec), p.dimension)
		}
	}

	return parsed.Vectors, nil
}

type healthResponse struct {
	OK bool `json:"ok"`
}

// Healthy reports whether the embedding service responds to its health
// endpoint with a positive readiness flag.
func (p *Provider) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var parsed healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return false
	}
	return parsed.OK
}
