package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/bookmydarshan/ragserver/internal/observability"
)

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestLogging tags each request with an ID, logs it on completion,
// and records its latency.
func (s *Server) withRequestLogging(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		ctx := observability.WithRequestID(r.Context(), requestID)
		w.Header().Set("X-Request-ID", requestID)

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		mux.ServeHTTP(recorder, r.WithContext(ctx))
		elapsed := time.Since(start)

		// Label by the registered route pattern, not the raw path, so
		// session and document IDs do not fan out into new series.
		route := r.URL.Path
		if _, pattern := mux.Handler(r); pattern != "" {
			route = pattern
		}
		if s.metrics != nil {
			s.metrics.HTTPRequestDuration.
				WithLabelValues(route, r.Method, strconv.Itoa(recorder.status)).
				Observe(elapsed.Seconds())
		}

		s.logger.Info(ctx, "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", elapsed)
	})
}
