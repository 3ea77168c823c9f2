package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/young1lin/aisearch/internal/models"
	"github.com/young1lin/aisearch/internal/upstream"
	"github.com/young1lin/aisearch/pkg/logger"
)

// ErrNotConfigured is wrapped when the provider has no API key
var ErrNotConfigured = errors.New("search provider not configured: missing API key")

// Results holds the raw provider payloads of one fetch
type Results struct {
	Web    *models.WebSearchResponse
	Images *models.ImageSearchResponse
}

// Fetcher retrieves web and image results for a query
type Fetcher struct {
	provider Provider
	log      *zap.Logger
}

// NewFetcher creates a fetcher over provider
func NewFetcher(provider Provider, log *zap.Logger) *Fetcher {
	return &Fetcher{provider: provider, log: logger.OrNop(log)}
}

// Provider returns the underlying search provider
func (f *Fetcher) Provider() Provider {
	return f.provider
}

// Fetch runs the web and image searches concurrently and waits for both.
// If either fails the whole fetch fails; no partial results are returned.
func (f *Fetcher) Fetch(ctx context.Context, query string) (*Results, error) {
	log := logger.ForContext(ctx, f.log)

	if !f.provider.IsAvailable() {
		return nil, &upstream.UpstreamError{
			Provider: f.provider.Name(),
			Kind:     upstream.KindUnauthorized,
			Err:      ErrNotConfigured,
		}
	}

	var (
		g      errgroup.Group
		web    *models.WebSearchResponse
		images *models.ImageSearchResponse
	)

	g.Go(func() error {
		resp, err := f.provider.Web(ctx, query)
		if err != nil {
			return err
		}
		web = resp
		return nil
	})
	g.Go(func() error {
		resp, err := f.provider.Images(ctx, query)
		if err != nil {
			return err
		}
		images = resp
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error("search fetch failed",
			zap.String("provider", f.provider.Name()),
			zap.String("query", query),
			zap.String("kind", string(upstream.KindOf(err))),
			zap.Error(err),
		)
		return nil, err
	}

	return &Results{Web: web, Images: images}, nil
}

// FormatMarkdown renders organic results as markdown sections.
//
// Deprecated: the structured EnhancedSearchResult is the supported format.
// Kept for the CLI's legacy markdown output.
func FormatMarkdown(results []models.SearchResultItem) string {
	sections := make([]string, 0, len(results))
	for _, r := range results {
		sections = append(sections, fmt.Sprintf("### %s\n\n[%s](%s)\n\n%s\n", r.Title, r.Link, r.Link, r.Snippet))
	}
	return strings.Join(sections, "\n\n")
}
