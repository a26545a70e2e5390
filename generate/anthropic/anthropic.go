// Package anthropic implements generation against the Claude Messages API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultModel = "claude-sonnet-4-20250514"

// Generator calls the Claude Messages API.
type Generator struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

// Config configures the Anthropic generator.
type Config struct {
	// APIKey is the Anthropic API key. Required.
	APIKey string

	// Model is the Claude model to use. Defaults to claude-sonnet-4-20250514.
	Model string

	// MaxTokens is the maximum response tokens. Defaults to 1024.
	MaxTokens int64
}

// New creates an Anthropic-backed generator.
func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &Generator{
		client:    &client,
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Generate sends the prompt as a single user message and concatenates the
// text blocks of the response.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("claude API returned no text content")
	}
	return text, nil
}
