// Package anthropic implements the answer generator on Anthropic's Claude API.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bookmydarshan/ragserver/internal/generate"
)

const (
	defaultModel     = "claude-3-5-haiku-latest"
	defaultMaxTokens = 1024
)

// Config contains the Anthropic generator configuration.
type Config struct {
	// APIKey is the Anthropic API key. Required.
	APIKey string `yaml:"api_key"`

	// Model is the model identifier. Default: claude-3-5-haiku-latest
	Model string `yaml:"model"`

	// MaxTokens caps answer length when the request doesn't set one.
	// Default: 1024
	MaxTokens int `yaml:"max_tokens"`
}

// Generator produces answers with the Anthropic Messages API.
type Generator struct {
	client    anthropic.Client
	model     string
	maxTokens int
}

// New creates an Anthropic generator.
func New(config Config) (*Generator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	model := config.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	return &Generator{
		client:    anthropic.NewClient(option.WithAPIKey(config.APIKey)),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Generate sends the prompt and prior history to the Messages API and
// returns the concatenated text blocks of the response.
func (g *Generator) Generate(ctx context.Context, req generate.Request) (string, error) {
	messages := make([]anthropic.MessageParam, 0, len(req.History)+1)
	for _, msg := range req.History {
		block := anthropic.NewTextBlock(msg.Content)
		if msg.Role == "assistant" {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)))

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = g.maxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		Messages:  messages,
		MaxTokens: int64(maxTokens),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: req.System,
			},
		}
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic: message request failed: %w", err)
	}

	var answer string
	for _, block := range resp.Content {
		if block.Type == "text" {
			answer += block.Text
		}
	}
	if answer == "" {
		return "", fmt.Errorf("anthropic: response contained no text content")
	}
	return answer, nil
}
