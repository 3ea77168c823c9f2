package models

// SearchType is the classified intent of a query
type SearchType string

const (
	// SearchTypeWebsite marks a query that targets a specific site or domain
	SearchTypeWebsite SearchType = "website"
	// SearchTypeGeneral marks an informational query
	SearchTypeGeneral SearchType = "general"
)

// Valid reports whether t is one of the known search types
func (t SearchType) Valid() bool {
	return t == SearchTypeWebsite || t == SearchTypeGeneral
}

// QueryAnalysis is the output of classification. SearchQuery is never empty.
type QueryAnalysis struct {
	SearchType  SearchType `json:"searchType"`
	SearchQuery string     `json:"searchQuery"`
}

// Sitelink is a deep link shown under an organic hit
type Sitelink struct {
	Title string `json:"title"`
	Link  string `json:"link"`
}

// SearchResultItem represents one organic web hit, in provider rank order
type SearchResultItem struct {
	Title     string     `json:"title"`
	Link      string     `json:"link"`
	Snippet   string     `json:"snippet"`
	Position  int        `json:"position"`
	Sitelinks []Sitelink `json:"sitelinks,omitempty"`
	Date      string     `json:"date,omitempty"`
}

// ImageResultItem represents one image hit
type ImageResultItem struct {
	Title        string `json:"title"`
	Link         string `json:"link"`
	ThumbnailURL string `json:"thumbnailUrl"`
	ImageURL     string `json:"imageUrl"`
	Source       string `json:"source"`
}

// AnswerBox is the provider's direct-answer snippet
type AnswerBox struct {
	Title   string `json:"title,omitempty"`
	Answer  string `json:"answer,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// Text returns the answer, falling back to the snippet some answer boxes carry instead
func (a *AnswerBox) Text() string {
	if a == nil {
		return ""
	}
	if a.Answer != "" {
		return a.Answer
	}
	return a.Snippet
}

// PeopleAlsoAsk is a provider-supplied related question/answer pair
type PeopleAlsoAsk struct {
	Question string `json:"question"`
	Snippet  string `json:"snippet"`
	Title    string `json:"title"`
	Link     string `json:"link"`
}

// KnowledgePanel is the provider's structured entity summary, passed through untouched
type KnowledgePanel map[string]interface{}

// EnhancedSearchResult is the composite returned to callers.
// AISummary is nil whenever no organic results were obtained or synthesis failed.
type EnhancedSearchResult struct {
	TextResults    []SearchResultItem `json:"textResults"`
	ImageResults   []ImageResultItem  `json:"imageResults"`
	AISummary      *string            `json:"aiSummary"`
	KnowledgePanel KnowledgePanel     `json:"knowledgePanel,omitempty"`
	RelatedQueries []string           `json:"relatedQueries,omitempty"`
	SearchType     SearchType         `json:"searchType"`
}

// ==================== Error Models ====================

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}
