package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bookmydarshan/ragserver/internal/chat"
	"github.com/bookmydarshan/ragserver/internal/docs"
	"github.com/bookmydarshan/ragserver/internal/embeddings"
	"github.com/bookmydarshan/ragserver/internal/index"
	"github.com/bookmydarshan/ragserver/pkg/models"
)

// ----------------------------------------------------------------------------
// Chat
// ----------------------------------------------------------------------------

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	resp, err := s.chatter.Answer(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrInvalidQuery):
			s.writeError(w, http.StatusBadRequest, "query is required and must be a non-empty string")
		case errors.Is(err, embeddings.ErrUnavailable):
			s.logger.Error(r.Context(), "chat turn failed: embeddings unavailable", "error", err)
			s.writeError(w, http.StatusServiceUnavailable, "embedding service unavailable")
		default:
			s.logger.Error(r.Context(), "chat turn failed", "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to answer")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

// ----------------------------------------------------------------------------
// Sessions & Analytics
// ----------------------------------------------------------------------------

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.history.ListSessions(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "failed to list sessions", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*models.Session{}
	}
	s.writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := s.history.ListMessages(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error(r.Context(), "failed to list messages", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	if messages == nil {
		messages = []*models.StoredMessage{}
	}
	s.writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.history.DeleteSession(r.Context(), r.PathValue("id")); err != nil {
		s.logger.Error(r.Context(), "failed to delete session", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type renameSessionRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleRenameSession(w http.ResponseWriter, r *http.Request) {
	var req renameSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	if err := s.history.RenameSession(r.Context(), r.PathValue("id"), req.Title); err != nil {
		s.logger.Error(r.Context(), "failed to rename session", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to rename session")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

func (s *Server) handleArchiveSession(w http.ResponseWriter, r *http.Request) {
	if err := s.history.ArchiveSession(r.Context(), r.PathValue("id")); err != nil {
		s.logger.Error(r.Context(), "failed to archive session", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to archive session")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"archived": true})
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.history.Analytics(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "failed to compute analytics", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to compute analytics")
		return
	}
	s.writeJSON(w, http.StatusOK, analytics)
}

// ----------------------------------------------------------------------------
// Documents
// ----------------------------------------------------------------------------

type uploadDocumentRequest struct {
	Filename string `json:"filename"`
	FileType string `json:"file_type,omitempty"`
	Category string `json:"category,omitempty"`
	Content  string `json:"content"`
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	var req uploadDocumentRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Filename == "" {
		s.writeError(w, http.StatusBadRequest, "filename is required")
		return
	}

	doc, err := s.documents.Upload(r.Context(), req.Filename, req.FileType, req.Category, req.Content)
	if err != nil {
		if errors.Is(err, docs.ErrEmptyContent) {
			s.writeError(w, http.StatusBadRequest, "content is required")
			return
		}
		s.logger.Error(r.Context(), "failed to upload document", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to upload document")
		return
	}
	s.writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	list, err := s.documents.List(r.Context())
	if err != nil {
		s.logger.Error(r.Context(), "failed to list documents", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	if list == nil {
		list = []*models.DocumentInfo{}
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, docs.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error(r.Context(), "failed to get document", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get document")
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	if err := s.documents.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, docs.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error(r.Context(), "failed to delete document", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to delete document")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleProcessDocument(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	count, err := s.processor.ProcessDocument(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, index.ErrDocumentNotFound):
			s.writeError(w, http.StatusNotFound, "document not found")
		case errors.Is(err, embeddings.ErrUnavailable):
			s.logger.Error(r.Context(), "processing failed: embeddings unavailable",
				"document_id", id, "chunks_written", count, "error", err)
			s.writeError(w, http.StatusServiceUnavailable, "embedding service unavailable")
		default:
			s.logger.Error(r.Context(), "processing failed",
				"document_id", id, "chunks_written", count, "error", err)
			s.writeError(w, http.StatusInternalServerError, "failed to process document")
		}
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{
		"document_id": id,
		"chunks":      count,
	})
}

func (s *Server) handleDocumentStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.documents.GetStatus(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, docs.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "document not found")
			return
		}
		s.logger.Error(r.Context(), "failed to get document status", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to get document status")
		return
	}
	s.writeJSON(w, http.StatusOK, status)
}

// ----------------------------------------------------------------------------
// Health
// ----------------------------------------------------------------------------

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]bool, len(s.health))
	healthy := true
	for name, check := range s.health {
		ok := check(r.Context())
		checks[name] = ok
		if !ok {
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	s.writeJSON(w, status, map[string]any{
		"ok":     healthy,
		"checks": checks,
	})
}
