package search

import (
	"context"

	"github.com/young1lin/aisearch/internal/models"
)

// Provider defines the interface for search providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// IsAvailable returns true if the provider is properly configured
	IsAvailable() bool

	// Web performs an organic web search
	Web(ctx context.Context, query string) (*models.WebSearchResponse, error)

	// Images performs an image search
	Images(ctx context.Context, query string) (*models.ImageSearchResponse, error)
}
