package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bookmydarshan/ragserver/pkg/models"
)

// ClientConfig contains configuration for the reranker HTTP client.
type ClientConfig struct {
	// BaseURL is the reranker service base URL.
	BaseURL string

	// Timeout is the per-request timeout. Default: 10s.
	Timeout time.Duration

	// HTTPClient overrides the HTTP client (primarily for tests).
	HTTPClient *http.Client
}

// Client implements Reranker against the external cross-encoder service.
//
// The service contract is POST /rerank with {"query", "passages":
// [{"id","text"}], "topK"} returning an ordered array of {"id","score"}.
type Client struct {
	baseURL string
	client  *http.Client
}

var _ Reranker = (*Client)(nil)

// NewClient creates a reranker client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rerank: base URL is required")
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
	}, nil
}

type rerankPassage struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type rerankRequest struct {
	Query    string          `json:"query"`
	Passages []rerankPassage `json:"passages"`
	TopK     int             `json:"topK"`
}

type rerankItem struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Rerank sends candidates to the reranker and maps the returned ordering
// back onto them. Any transport or shape failure is returned as an error;
// the caller decides whether to fall back.
func (c *Client) Rerank(ctx context.Context, query string, candidates []models.SearchCandidate, topK int) ([]RankedCandidate, error) {
	passages := make([]rerankPassage, len(candidates))
	for i, cand := range candidates {
		passages[i] = rerankPassage{ID: strconv.Itoa(i), Text: cand.Text}
	}

	body, err := json.Marshal(rerankRequest{Query: query, Passages: passages, TopK: topK})
	if err != nil {
		return nil, fmt.Errorf("rerank: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rerank", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("rerank: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rerank: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("rerank: service returned status %d", resp.StatusCode)
	}

	var items []rerankItem
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("rerank: decode response: %w", err)
	}

	// Map ids back to candidates, preserving the reranker's order.
	ranked := make([]RankedCandidate, 0, len(items))
	for _, item := range items {
		idx, err := strconv.Atoi(item.ID)
		if err != nil || idx < 0 || idx >= len(candidates) {
			return nil, fmt.Errorf("rerank: response references unknown passage id %q", item.ID)
		}
		ranked = append(ranked, RankedCandidate{
			Text:     candidates[idx].Text,
			Metadata: candidates[idx],
			Score:    item.Score,
		})
	}

	if topK > 0 && len(ranked) > topK {
		ranked = ranked[:topK]
	}
	return ranked, nil
}

// Healthy reports whether the reranker service is reachable.
func (c *Client) Healthy(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
