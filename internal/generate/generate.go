// Package generate defines the answer generator interface used by the chat
// orchestrator.
package generate

import (
	"context"

	"github.com/bookmydarshan/ragserver/pkg/models"
)

// Request is a single generation call.
type Request struct {
	// System is the system instruction for the model.
	System string

	// History contains prior conversation turns, oldest first. The
	// generator passes them through without interpretation.
	History []models.ChatMessage

	// Prompt is the final user-role message.
	Prompt string

	// MaxTokens caps the generated answer length. Zero applies the
	// provider default.
	MaxTokens int
}

// Generator produces an answer text for a grounding prompt.
type Generator interface {
	// Generate returns the model's answer. A failure is fatal to the
	// calling chat turn.
	Generate(ctx context.Context, req Request) (string, error)
}
