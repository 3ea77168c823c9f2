// Package pipeline orchestrates one search: classify the query, fetch web and
// image results, summarize them and assemble the composite result.
package pipeline

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/young1lin/aisearch/internal/classifier"
	"github.com/young1lin/aisearch/internal/converter"
	"github.com/young1lin/aisearch/internal/metrics"
	"github.com/young1lin/aisearch/internal/models"
	"github.com/young1lin/aisearch/internal/search"
	"github.com/young1lin/aisearch/internal/summary"
	"github.com/young1lin/aisearch/internal/upstream"
	"github.com/young1lin/aisearch/pkg/logger"
)

// Stage is a state of a single Search call
type Stage string

const (
	StageStart          Stage = "start"
	StageClassified     Stage = "classified"
	StageFetched        Stage = "fetched"
	StageSummarized     Stage = "summarized"
	StageSummarySkipped Stage = "summary_skipped"
	StageDone           Stage = "done"
	StageFailed         Stage = "failed"
)

// Event describes one transition. Analysis is set from StageClassified on.
type Event struct {
	Stage    Stage                 `json:"stage"`
	Analysis *models.QueryAnalysis `json:"analysis,omitempty"`
}

// Observer receives every transition of a Search call, in order, on the
// calling goroutine.
type Observer func(Event)

// SearchError is the only error Search returns. Message is safe to show users.
type SearchError struct {
	Kind    upstream.Kind
	Message string
	Err     error
}

func (e *SearchError) Error() string {
	return e.Message
}

func (e *SearchError) Unwrap() error {
	return e.Err
}

// Message translates an error kind into the user-facing text
func Message(kind upstream.Kind) string {
	switch kind {
	case upstream.KindTimeout:
		return "Request timed out"
	case upstream.KindUnauthorized:
		return "Invalid API key"
	case upstream.KindRateLimited:
		return "Rate limit exceeded"
	default:
		return "An unexpected error occurred"
	}
}

// Pipeline is stateless between calls and safe for concurrent use
type Pipeline struct {
	classifier  *classifier.Classifier
	fetcher     *search.Fetcher
	synthesizer *summary.Synthesizer
	log         *zap.Logger
}

// New creates a pipeline from its components
func New(c *classifier.Classifier, f *search.Fetcher, s *summary.Synthesizer, log *zap.Logger) *Pipeline {
	return &Pipeline{
		classifier:  c,
		fetcher:     f,
		synthesizer: s,
		log:         logger.OrNop(log),
	}
}

// Search runs the pipeline for query
func (p *Pipeline) Search(ctx context.Context, query string) (*models.EnhancedSearchResult, error) {
	return p.Run(ctx, query, nil)
}

// Run is Search with an optional observer
func (p *Pipeline) Run(ctx context.Context, query string, observe Observer) (*models.EnhancedSearchResult, error) {
	if observe == nil {
		observe = func(Event) {}
	}
	log := logger.ForContext(ctx, p.log)
	start := time.Now()

	observe(Event{Stage: StageStart})

	analysis := p.classifier.Classify(ctx, query)
	observe(Event{Stage: StageClassified, Analysis: &analysis})

	results, err := p.fetcher.Fetch(ctx, analysis.SearchQuery)
	if err != nil {
		kind := upstream.KindOf(err)
		observe(Event{Stage: StageFailed, Analysis: &analysis})
		metrics.SearchesTotal.WithLabelValues(string(kind)).Inc()
		log.Error("search failed",
			zap.String("query", query),
			zap.String("kind", string(kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, &SearchError{Kind: kind, Message: Message(kind), Err: err}
	}
	observe(Event{Stage: StageFetched, Analysis: &analysis})

	web := results.Web
	if web == nil {
		web = &models.WebSearchResponse{}
	}

	var text *string
	if len(web.Organic) > 0 {
		text = p.synthesizer.Summarize(ctx, summary.Input{
			Query:           query,
			SearchType:      analysis.SearchType,
			Organic:         web.Organic,
			AnswerBox:       web.AnswerBox,
			RelatedSearches: web.RelatedSearches,
			PeopleAlsoAsk:   web.PeopleAlsoAsk,
		})
		observe(Event{Stage: StageSummarized, Analysis: &analysis})
	} else {
		observe(Event{Stage: StageSummarySkipped, Analysis: &analysis})
	}

	result := converter.BuildResult(analysis, web, results.Images, text)
	observe(Event{Stage: StageDone, Analysis: &analysis})

	metrics.SearchesTotal.WithLabelValues("ok").Inc()
	log.Info("search completed",
		zap.String("query", query),
		zap.String("search_type", string(result.SearchType)),
		zap.Int("text_results", len(result.TextResults)),
		zap.Int("image_results", len(result.ImageResults)),
		zap.Bool("summary", result.AISummary != nil),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// AsSearchError reports whether err is a *SearchError and returns it
func AsSearchError(err error) (*SearchError, bool) {
	var se *SearchError
	ok := errors.As(err, &se)
	return se, ok
}
