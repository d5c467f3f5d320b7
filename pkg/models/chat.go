package models

import (
	"time"
)

// Confidence is the coarse confidence marker attached to a chat answer.
// It is a documented heuristic, not a calibrated probability.
type Confidence string

const (
	// ConfidenceHigh means the vector search returned more than three
	// candidates before reranking.
	ConfidenceHigh Confidence = "high"

	// ConfidenceMedium means retrieval found evidence, but three or fewer
	// candidates.
	ConfidenceMedium Confidence = "medium"

	// ConfidenceLow means retrieval found no evidence and the fixed
	// no-knowledge answer was returned.
	ConfidenceLow Confidence = "low"
)

// ChatMessage is a single prior conversation turn, passed through to the
// answer generator without interpretation.
type ChatMessage struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// ChatRequest is the input of one chat turn.
type ChatRequest struct {
	// Query is the user's question. Required.
	Query string `json:"query"`

	// Category optionally restricts retrieval to documents with this category.
	Category string `json:"category,omitempty"`

	// SessionID optionally continues an existing chat session. When empty
	// or stale, a new session is created.
	SessionID string `json:"sessionId,omitempty"`

	// ConversationHistory contains prior turns, oldest first.
	ConversationHistory []ChatMessage `json:"conversationHistory,omitempty"`
}

// Source is a citation attached to a chat answer.
type Source struct {
	// Filename is the source document's filename.
	Filename string `json:"filename"`

	// Similarity is the retrieval-stage similarity of the cited chunk.
	Similarity float64 `json:"similarity"`

	// RerankScore is the rerank-stage relevance score of the cited chunk.
	// When the rerank fallback was used it equals Similarity.
	RerankScore float64 `json:"rerankScore"`
}

// ChatResponse is the output of one chat turn.
type ChatResponse struct {
	// Answer is the generated answer text, or the fixed no-knowledge answer.
	Answer string `json:"answer"`

	// Sources lists the cited chunks in rank order. Empty when retrieval
	// found no evidence.
	Sources []Source `json:"sources"`

	// Confidence is the coarse confidence marker for the answer.
	Confidence Confidence `json:"confidence"`

	// SessionID is the session this turn was recorded under, when session
	// persistence succeeded.
	SessionID string `json:"sessionId,omitempty"`
}

// Session is a persisted chat session.
type Session struct {
	// ID is the session identifier.
	ID string `json:"id"`

	// Title is the human-readable session title.
	Title string `json:"title"`

	// Archived hides the session from listings without deleting it.
	Archived bool `json:"archived"`

	// CreatedAt is when the session was created.
	CreatedAt time.Time `json:"created_at"`
}

// StoredMessage is a persisted chat message.
type StoredMessage struct {
	// ID is the message identifier.
	ID int64 `json:"id"`

	// SessionID identifies the owning session.
	SessionID string `json:"session_id"`

	// Role is "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`

	// CreatedAt is when the message was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// DateCount is a per-day aggregation bucket.
type DateCount struct {
	Date  time.Time `json:"date"`
	Count int       `json:"count"`
}

// HourCount is a per-hour aggregation bucket.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// RoleCount is a per-role aggregation bucket.
type RoleCount struct {
	Role  string `json:"role"`
	Count int    `json:"count"`
}

// AnalyticsTotals summarizes overall chat volume.
type AnalyticsTotals struct {
	TotalSessions     int `json:"total_sessions"`
	TotalMessages     int `json:"total_messages"`
	UserMessages      int `json:"user_messages"`
	AssistantMessages int `json:"assistant_messages"`
}

// Analytics is the admin analytics aggregation.
type Analytics struct {
	// SessionsByDate counts sessions created per day over the last 7 days.
	SessionsByDate []DateCount `json:"sessionsByDate"`

	// MessagesByHour counts messages per hour over the last 24 hours.
	MessagesByHour []HourCount `json:"messagesByHour"`

	// MessageDistribution counts messages by role.
	MessageDistribution []RoleCount `json:"messageDistribution"`

	// Totals holds overall counts.
	Totals AnalyticsTotals `json:"totalStats"`
}
