// Package summary composes the AI overview shown above the search results
// and splits it back into heading/body sections for rendering.
package summary

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/young1lin/aisearch/internal/llm"
	"github.com/young1lin/aisearch/internal/metrics"
	"github.com/young1lin/aisearch/internal/models"
	"github.com/young1lin/aisearch/pkg/logger"
)

// GenerationConfig allows freer prose than classification with a larger, still bounded, output
var GenerationConfig = models.GenerationConfig{
	Temperature:     0.7,
	TopK:            40,
	TopP:            0.95,
	MaxOutputTokens: 200,
}

const (
	// contextResults is how many organic snippets reach the prompt
	contextResults = 3

	// HeadingMarker brackets each section heading in the model output
	HeadingMarker = "**"
)

// Input is everything the synthesizer may use for one query
type Input struct {
	// Query is the raw user query, not the classified rewrite
	Query           string
	SearchType      models.SearchType
	Organic         []models.SearchResultItem
	AnswerBox       *models.AnswerBox
	RelatedSearches []string
	PeopleAlsoAsk   []models.PeopleAlsoAsk
}

// Synthesizer produces the summary text
type Synthesizer struct {
	llm llm.Generator
	log *zap.Logger
}

// New creates a synthesizer backed by gen
func New(gen llm.Generator, log *zap.Logger) *Synthesizer {
	return &Synthesizer{llm: gen, log: logger.OrNop(log)}
}

// Summarize returns the model's summary, or nil when there is nothing to
// summarize or the call fails. It never returns an error.
func (s *Synthesizer) Summarize(ctx context.Context, in Input) *string {
	log := logger.ForContext(ctx, s.log)

	if len(in.Organic) == 0 {
		log.Debug("no organic results, skipping summary")
		metrics.SummariesTotal.WithLabelValues("skipped").Inc()
		return nil
	}

	text, err := s.llm.Generate(ctx, BuildPrompt(in), GenerationConfig)
	if err != nil {
		log.Warn("summary generation failed", zap.Error(err))
		metrics.SummariesTotal.WithLabelValues("failed").Inc()
		return nil
	}

	text = strings.TrimSpace(text)
	if text == "" {
		metrics.SummariesTotal.WithLabelValues("failed").Inc()
		return nil
	}

	metrics.SummariesTotal.WithLabelValues("ok").Inc()
	return &text
}

// BuildPrompt renders the prompt for in.SearchType
func BuildPrompt(in Input) string {
	var b strings.Builder

	if in.SearchType == models.SearchTypeWebsite {
		fmt.Fprintf(&b, "This is a search for the website: %s\n\n", strconv.Quote(in.Query))
		b.WriteString("Based on the search results and provided context, provide:\n\n")
		b.WriteString("1. Key information about this website/platform\n")
		b.WriteString("2. A clear description of what this website offers or its purpose\n\n")
	} else {
		fmt.Fprintf(&b, "Based on these search results for %s, provide:\n\n", strconv.Quote(in.Query))
		b.WriteString("1. Key insights about the topic\n")
		b.WriteString("2. A clear, comprehensive description that captures the main points\n\n")
	}

	b.WriteString("Context:\n")
	b.WriteString(buildContext(in))
	b.WriteString("\n\n")

	first, second := headings(in.SearchType)
	fmt.Fprintf(&b, "Format the response with exactly two sections titled %s%s%s and %s%s%s, "+
		"each heading on its own line followed by plain paragraph text. Do not use %s anywhere else.",
		HeadingMarker, first, HeadingMarker, HeadingMarker, second, HeadingMarker, HeadingMarker)

	return b.String()
}

func headings(t models.SearchType) (string, string) {
	if t == models.SearchTypeWebsite {
		return "Website Info", "Description"
	}
	return "Insights", "Description"
}

func buildContext(in Input) string {
	var parts []string

	if text := in.AnswerBox.Text(); text != "" {
		parts = append(parts, "Answer Box: "+text)
	}

	organic := in.Organic
	if len(organic) > contextResults {
		organic = organic[:contextResults]
	}
	for _, r := range organic {
		if r.Snippet != "" {
			parts = append(parts, r.Snippet)
		}
	}

	if len(in.RelatedSearches) > 0 {
		parts = append(parts, "Related Searches: "+strings.Join(in.RelatedSearches, ", "))
	}

	if len(in.PeopleAlsoAsk) > 0 {
		lines := make([]string, 0, len(in.PeopleAlsoAsk))
		for _, p := range in.PeopleAlsoAsk {
			lines = append(lines, p.Question+" - "+p.Snippet)
		}
		parts = append(parts, "People Also Ask:\n"+strings.Join(lines, "\n"))
	}

	return strings.Join(parts, "\n\n")
}
