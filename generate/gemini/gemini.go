// Package gemini implements generation against the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const defaultModel = "gemini-2.5-flash"

// Generator calls the Gemini generate-content API.
type Generator struct {
	client *genai.Client
	model  string
}

// Config configures the Gemini generator.
type Config struct {
	// APIKey is the Gemini API key. Required.
	APIKey string

	// Model is the Gemini model to use. Defaults to gemini-2.5-flash.
	Model string
}

// New creates a Gemini-backed generator.
func New(ctx context.Context, cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Generator{client: client, model: cfg.Model}, nil
}

// Generate sends the prompt as a single content turn and returns the
// response text.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini API error: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("gemini API returned no text content")
	}
	return text, nil
}
