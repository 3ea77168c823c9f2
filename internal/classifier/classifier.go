// Package classifier decides whether a query targets a specific website or
// is a general informational search.
package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/young1lin/aisearch/internal/llm"
	"github.com/young1lin/aisearch/internal/metrics"
	"github.com/young1lin/aisearch/internal/models"
	"github.com/young1lin/aisearch/pkg/logger"
)

// GenerationConfig keeps the answer near-deterministic and short enough to parse
var GenerationConfig = models.GenerationConfig{
	Temperature:     0.1,
	TopK:            1,
	TopP:            0.1,
	MaxOutputTokens: 100,
}

// maxPromptQueryRunes caps how much of an untrusted query reaches the prompt
const maxPromptQueryRunes = 500

var (
	errNotObject      = errors.New("classification is not a JSON object")
	errBadSearchType  = errors.New("searchType must be \"website\" or \"general\"")
	errBadSearchQuery = errors.New("searchQuery must be a string")
)

// Classifier asks the language model for the intent of a query
type Classifier struct {
	llm llm.Generator
	log *zap.Logger
}

// New creates a classifier backed by gen
func New(gen llm.Generator, log *zap.Logger) *Classifier {
	return &Classifier{llm: gen, log: logger.OrNop(log)}
}

// Fallback is the analysis used whenever classification fails
func Fallback(query string) models.QueryAnalysis {
	return models.QueryAnalysis{SearchType: models.SearchTypeGeneral, SearchQuery: query}
}

// Classify never fails: any error maps to Fallback(query)
func (c *Classifier) Classify(ctx context.Context, query string) models.QueryAnalysis {
	log := logger.ForContext(ctx, c.log)

	text, err := c.llm.Generate(ctx, BuildPrompt(query), GenerationConfig)
	if err != nil {
		log.Warn("query analysis failed, using general search", zap.Error(err))
		metrics.ClassificationsTotal.WithLabelValues(string(models.SearchTypeGeneral), "true").Inc()
		return Fallback(query)
	}

	analysis, err := Parse(text, query)
	if err != nil {
		log.Warn("unusable query analysis, using general search",
			zap.Error(err),
			zap.String("text", text),
		)
		metrics.ClassificationsTotal.WithLabelValues(string(models.SearchTypeGeneral), "true").Inc()
		return Fallback(query)
	}

	log.Debug("query analyzed",
		zap.String("search_type", string(analysis.SearchType)),
		zap.String("search_query", analysis.SearchQuery),
	)
	metrics.ClassificationsTotal.WithLabelValues(string(analysis.SearchType), "false").Inc()
	return analysis
}

// BuildPrompt renders the classification instructions for query
func BuildPrompt(query string) string {
	var b strings.Builder
	b.WriteString("Analyze if this query is looking for a specific website/domain or is a general search.\n")
	b.WriteString("Examples of website searches:\n")
	b.WriteString("- \"facebook.com\"\n")
	b.WriteString("- \"amazon.com login\"\n")
	b.WriteString("- \"strettch.com\"\n")
	b.WriteString("- \"visit example.com\"\n\n")
	fmt.Fprintf(&b, "Original query: %s\n\n", strconv.Quote(clip(query, maxPromptQueryRunes)))
	b.WriteString("Return only a JSON object with exactly this format:\n")
	b.WriteString("{\n")
	b.WriteString("    \"searchType\": \"website\" or \"general\",\n")
	b.WriteString("    \"searchQuery\": \"the query to use\"\n")
	b.WriteString("}\n\n")
	b.WriteString("For website searches, preserve the exact domain/URL. For general searches, use the original query.")
	return b.String()
}

// Parse validates the model's reply. A missing or blank searchQuery is
// replaced by query; anything else malformed is an error.
func Parse(text, query string) (models.QueryAnalysis, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(stripCodeFence(text)), &fields); err != nil {
		return models.QueryAnalysis{}, fmt.Errorf("%w: %v", errNotObject, err)
	}
	if fields == nil {
		return models.QueryAnalysis{}, errNotObject
	}

	var searchType string
	raw, ok := fields["searchType"]
	if !ok || json.Unmarshal(raw, &searchType) != nil || !models.SearchType(searchType).Valid() {
		return models.QueryAnalysis{}, errBadSearchType
	}

	searchQuery := ""
	if raw, ok := fields["searchQuery"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &searchQuery); err != nil {
			return models.QueryAnalysis{}, errBadSearchQuery
		}
	}
	searchQuery = strings.TrimSpace(searchQuery)
	if searchQuery == "" {
		searchQuery = query
	}

	return models.QueryAnalysis{
		SearchType:  models.SearchType(searchType),
		SearchQuery: searchQuery,
	}, nil
}

// stripCodeFence removes a surrounding ```json ... ``` block, which models often add
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	// drop a language tag such as "json", with or without a following newline
	if start := strings.IndexAny(text, "{["); start >= 0 {
		if tag := strings.TrimSpace(text[:start]); isFenceTag(tag) {
			text = text[start:]
		}
	}
	return strings.TrimSpace(text)
}

func isFenceTag(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
