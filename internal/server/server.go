// Package server exposes the ragserver HTTP API: chat turns, document
// management, chat history, analytics, health, and metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bookmydarshan/ragserver/internal/docs"
	"github.com/bookmydarshan/ragserver/internal/history"
	"github.com/bookmydarshan/ragserver/internal/observability"
	"github.com/bookmydarshan/ragserver/pkg/models"
)

// Chatter runs one retrieval-augmented chat turn.
type Chatter interface {
	Answer(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}

// Processor chunks and embeds a stored document.
type Processor interface {
	ProcessDocument(ctx context.Context, documentID string) (int, error)
}

// HistoryStore manages persisted chat sessions.
type HistoryStore interface {
	ListSessions(ctx context.Context) ([]*models.Session, error)
	ListMessages(ctx context.Context, sessionID string) ([]*models.StoredMessage, error)
	DeleteSession(ctx context.Context, sessionID string) error
	RenameSession(ctx context.Context, sessionID, title string) error
	ArchiveSession(ctx context.Context, sessionID string) error
	Analytics(ctx context.Context) (*models.Analytics, error)
}

// HealthChecker reports readiness of an external dependency.
type HealthChecker func(ctx context.Context) bool

// Config contains the HTTP server configuration.
type Config struct {
	// Addr is the listen address, e.g. ":3001".
	Addr string

	// ShutdownTimeout bounds graceful shutdown. Default: 10s.
	ShutdownTimeout time.Duration
}

// Server is the ragserver HTTP API server.
type Server struct {
	config     Config
	chatter    Chatter
	documents  *docs.Service
	processor  Processor
	history    HistoryStore
	health     map[string]HealthChecker
	logger     *observability.Logger
	metrics    *observability.Metrics
	registry   *prometheus.Registry
	httpServer *http.Server
}

// Options collects the server's dependencies.
type Options struct {
	Config    Config
	Chatter   Chatter
	Documents *docs.Service
	Processor Processor
	History   HistoryStore

	// Health maps dependency names to readiness checks; all must pass for
	// /api/health to report ok.
	Health map[string]HealthChecker

	Logger  *observability.Logger
	Metrics *observability.Metrics

	// Registry serves /metrics. Nil falls back to the default gatherer.
	Registry *prometheus.Registry
}

// New creates the API server.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	if opts.Config.ShutdownTimeout <= 0 {
		opts.Config.ShutdownTimeout = 10 * time.Second
	}

	s := &Server{
		config:    opts.Config,
		chatter:   opts.Chatter,
		documents: opts.Documents,
		processor: opts.Processor,
		history:   opts.History,
		health:    opts.Health,
		logger:    logger,
		metrics:   opts.Metrics,
		registry:  opts.Registry,
	}
	s.httpServer = &http.Server{
		Addr:              opts.Config.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/chat", s.handleChat)

	mux.HandleFunc("GET /api/chat/sessions", s.handleListSessions)
	mux.HandleFunc("GET /api/chat/sessions/{id}/messages", s.handleListMessages)
	mux.HandleFunc("DELETE /api/chat/sessions/{id}", s.handleDeleteSession)
	mux.HandleFunc("PATCH /api/chat/sessions/{id}", s.handleRenameSession)
	mux.HandleFunc("POST /api/chat/sessions/{id}/archive", s.handleArchiveSession)
	mux.HandleFunc("GET /api/admin/analytics", s.handleAnalytics)

	mux.HandleFunc("POST /api/documents", s.handleUploadDocument)
	mux.HandleFunc("GET /api/documents", s.handleListDocuments)
	mux.HandleFunc("GET /api/documents/{id}", s.handleGetDocument)
	mux.HandleFunc("DELETE /api/documents/{id}", s.handleDeleteDocument)
	mux.HandleFunc("POST /api/documents/{id}/process", s.handleProcessDocument)
	mux.HandleFunc("GET /api/documents/{id}/status", s.handleDocumentStatus)

	mux.HandleFunc("GET /api/health", s.handleHealth)

	if s.registry != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	} else {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	return s.withRequestLogging(mux)
}

// Handler returns the fully routed handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "http server listening", "addr", s.config.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	s.logger.Info(ctx, "http server stopped")
	return nil
}

var _ HistoryStore = (*history.Store)(nil)
