package converter

import (
	"github.com/young1lin/aisearch/internal/models"
)

// BuildResult assembles the composite returned to callers from the
// classified query, the raw provider payloads and the optional summary.
// Nil slices become empty so they encode as [] rather than null.
func BuildResult(
	analysis models.QueryAnalysis,
	web *models.WebSearchResponse,
	images *models.ImageSearchResponse,
	summary *string,
) *models.EnhancedSearchResult {
	result := &models.EnhancedSearchResult{
		TextResults:  make([]models.SearchResultItem, 0),
		ImageResults: make([]models.ImageResultItem, 0),
		AISummary:    summary,
		SearchType:   analysis.SearchType,
	}

	if !result.SearchType.Valid() {
		result.SearchType = models.SearchTypeGeneral
	}

	if web != nil {
		// Provider order is the rank order; keep it
		result.TextResults = append(result.TextResults, web.Organic...)

		if len(web.KnowledgeGraph) > 0 {
			result.KnowledgePanel = web.KnowledgeGraph
		}
		if len(web.RelatedSearches) > 0 {
			result.RelatedQueries = append([]string(nil), web.RelatedSearches...)
		}
	}

	if images != nil {
		result.ImageResults = append(result.ImageResults, images.Images...)
	}

	// A summary is only meaningful alongside organic results
	if len(result.TextResults) == 0 {
		result.AISummary = nil
	}

	return result
}
