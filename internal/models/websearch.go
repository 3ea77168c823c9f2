package models

import "encoding/json"

// ==================== Search Provider (Serper) Models ====================

// WebSearchRequest is the body of POST /search
type WebSearchRequest struct {
	Q    string `json:"q"`
	Num  int    `json:"num,omitempty"`
	GL   string `json:"gl,omitempty"`
	HL   string `json:"hl,omitempty"`
	Type string `json:"type,omitempty"` // "search"
}

// ImageSearchRequest is the body of POST /images
type ImageSearchRequest struct {
	Q   string `json:"q"`
	Num int    `json:"num,omitempty"`
}

// WebSearchResponse is the subset of the /search payload the pipeline consumes
type WebSearchResponse struct {
	AnswerBox       *AnswerBox         `json:"answerBox,omitempty"`
	Organic         []SearchResultItem `json:"organic"`
	KnowledgeGraph  KnowledgePanel     `json:"knowledgeGraph,omitempty"`
	RelatedSearches RelatedSearches    `json:"relatedSearches,omitempty"`
	PeopleAlsoAsk   []PeopleAlsoAsk    `json:"peopleAlsoAsk,omitempty"`
}

// ImageSearchResponse is the subset of the /images payload the pipeline consumes
type ImageSearchResponse struct {
	Images []ImageResultItem `json:"images"`
}

// RelatedSearches decodes related searches sent either as plain strings
// or as {"query": "..."} objects. The field is optional context, so entries of
// any other shape are skipped rather than failing the whole payload.
type RelatedSearches []string

// UnmarshalJSON implements json.Unmarshaler
func (r *RelatedSearches) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		*r = RelatedSearches{}
		return nil
	}

	out := make(RelatedSearches, 0, len(raw))
	for _, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s != "" {
				out = append(out, s)
			}
			continue
		}
		var obj struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		if obj.Query != "" {
			out = append(out, obj.Query)
		}
	}
	*r = out
	return nil
}

// ==================== Language Model (Gemini) Models ====================

// GenerateContentRequest is the body of POST /models/{model}:generateContent
type GenerateContentRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// Content is one turn of the prompt
type Content struct {
	Parts []Part `json:"parts"`
}

// Part is a text fragment of a turn
type Part struct {
	Text string `json:"text"`
}

// GenerationConfig controls sampling and output length
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// GenerateContentResponse carries the generated candidates
type GenerateContentResponse struct {
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one generated answer
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// FinishReasonMaxTokens marks a candidate cut off at maxOutputTokens
const FinishReasonMaxTokens = "MAX_TOKENS"

// Truncated reports whether the first candidate stopped at the output cap
func (r *GenerateContentResponse) Truncated() bool {
	return r != nil && len(r.Candidates) > 0 && r.Candidates[0].FinishReason == FinishReasonMaxTokens
}

// Text returns candidates[0].content.parts[0].text, or "" when absent
func (r *GenerateContentResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return r.Candidates[0].Content.Parts[0].Text
}
