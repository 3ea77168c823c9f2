// Package llm calls the language-model provider's generateContent endpoint.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/young1lin/aisearch/internal/models"
	"github.com/young1lin/aisearch/internal/upstream"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gemini-pro"

var (
	// ErrEmptyCompletion is returned when the provider answers without any text
	ErrEmptyCompletion = errors.New("empty completion")

	// ErrTruncated is returned when the answer was cut off at maxOutputTokens
	ErrTruncated = errors.New("completion truncated at max output tokens")
)

// Generator produces text for a prompt. Classifier and synthesizer depend on this.
type Generator interface {
	Generate(ctx context.Context, prompt string, cfg models.GenerationConfig) (string, error)
}

// GeminiClient implements Generator against POST /models/{model}:generateContent
type GeminiClient struct {
	poster upstream.Poster
	model  string
}

var _ Generator = (*GeminiClient)(nil)

// NewGeminiClient creates a client for the given model
func NewGeminiClient(poster upstream.Poster, model string) *GeminiClient {
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &GeminiClient{poster: poster, model: model}
}

// Model returns the configured model name
func (c *GeminiClient) Model() string {
	return c.model
}

// Generate sends a single-turn prompt and returns candidates[0].content.parts[0].text
func (c *GeminiClient) Generate(ctx context.Context, prompt string, cfg models.GenerationConfig) (string, error) {
	req := models.GenerateContentRequest{
		Contents: []models.Content{
			{Parts: []models.Part{{Text: prompt}}},
		},
		GenerationConfig: cfg,
	}

	var resp models.GenerateContentResponse
	if err := c.poster.Post(ctx, c.path(), req, &resp); err != nil {
		return "", fmt.Errorf("generateContent: %w", err)
	}

	if resp.Truncated() {
		return "", ErrTruncated
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

func (c *GeminiClient) path() string {
	return "/models/" + url.PathEscape(c.model) + ":generateContent"
}
