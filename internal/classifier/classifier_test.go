package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/young1lin/aisearch/internal/models"
)

type fakeGenerator struct {
	text   string
	err    error
	calls  int
	prompt string
	cfg    models.GenerationConfig
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, cfg models.GenerationConfig) (string, error) {
	f.calls++
	f.prompt = prompt
	f.cfg = cfg
	return f.text, f.err
}

func TestClassify_Website(t *testing.T) {
	gen := &fakeGenerator{text: `{"searchType": "website", "searchQuery": "example.com"}`}
	c := New(gen, nil)

	got := c.Classify(context.Background(), "example.com")

	assert.Equal(t, models.SearchTypeWebsite, got.SearchType)
	assert.Equal(t, "example.com", got.SearchQuery)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, GenerationConfig, gen.cfg)
	assert.Contains(t, gen.prompt, `Original query: "example.com"`)
}

func TestClassify_RewritesQuery(t *testing.T) {
	gen := &fakeGenerator{text: "```json\n{\"searchType\":\"website\",\"searchQuery\":\"example.com\"}\n```"}
	got := New(gen, nil).Classify(context.Background(), "visit example.com")

	assert.Equal(t, models.QueryAnalysis{SearchType: models.SearchTypeWebsite, SearchQuery: "example.com"}, got)
}

func TestClassify_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		gen  *fakeGenerator
	}{
		{"network error", &fakeGenerator{err: errors.New("connection reset")}},
		{"malformed json", &fakeGenerator{text: `searchType: website`}},
		{"truncated json", &fakeGenerator{text: `{"searchType": "webs`}},
		{"array instead of object", &fakeGenerator{text: `["website"]`}},
		{"null", &fakeGenerator{text: `null`}},
		{"missing searchType", &fakeGenerator{text: `{"searchQuery": "x.com"}`}},
		{"unknown searchType", &fakeGenerator{text: `{"searchType": "news", "searchQuery": "x"}`}},
		{"searchType wrong type", &fakeGenerator{text: `{"searchType": 1, "searchQuery": "x"}`}},
		{"searchQuery wrong type", &fakeGenerator{text: `{"searchType": "website", "searchQuery": ["x"]}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := New(tt.gen, nil).Classify(context.Background(), "best pizza in kigali")
			assert.Equal(t, Fallback("best pizza in kigali"), got)
			assert.Equal(t, models.SearchTypeGeneral, got.SearchType)
			assert.Equal(t, "best pizza in kigali", got.SearchQuery)
		})
	}
}

func TestParse_MissingSearchQueryUsesOriginal(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"absent", `{"searchType": "general"}`},
		{"blank", `{"searchType": "general", "searchQuery": "   "}`},
		{"null", `{"searchType": "general", "searchQuery": null}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text, "original words")
			require.NoError(t, err)
			assert.Equal(t, "original words", got.SearchQuery)
			assert.Equal(t, models.SearchTypeGeneral, got.SearchType)
		})
	}
}

func TestParse_NeverEmptySearchQuery(t *testing.T) {
	for _, text := range []string{
		`{"searchType": "website", "searchQuery": ""}`,
		`{"searchType": "general"}`,
		`garbage`,
	} {
		got := New(&fakeGenerator{text: text}, nil).Classify(context.Background(), "q")
		assert.NotEmpty(t, got.SearchQuery, text)
	}
}

func TestParse_SingleLineFence(t *testing.T) {
	got, err := Parse("```json {\"searchType\": \"website\", \"searchQuery\": \"example.com\"}```", "go to example.com")
	require.NoError(t, err)
	assert.Equal(t, models.QueryAnalysis{SearchType: models.SearchTypeWebsite, SearchQuery: "example.com"}, got)
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
		{"```json {\"a\":1}```", `{"a":1}`},
		{"```{\"a\":1}```", `{"a":1}`},
		{"```JSON\r\n{\"a\":1}\r\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripCodeFence(tt.in))
	}
}

func TestBuildPrompt_QuotesAndClipsQuery(t *testing.T) {
	prompt := BuildPrompt(`say "hi"`)
	assert.Contains(t, prompt, `Original query: "say \"hi\""`)

	long := strings.Repeat("a", maxPromptQueryRunes+100)
	prompt = BuildPrompt(long)
	assert.Contains(t, prompt, strings.Repeat("a", maxPromptQueryRunes))
	assert.NotContains(t, prompt, strings.Repeat("a", maxPromptQueryRunes+1))
}
