package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/young1lin/aisearch/internal/models"
	"github.com/young1lin/aisearch/internal/upstream"
)

func TestGenerate_RequestShape(t *testing.T) {
	var (
		gotPath string
		gotKey  string
		gotReq  models.GenerateContentRequest
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"hello there"}]}}]}`)
	}))
	defer ts.Close()

	poster := upstream.New("gemini", upstream.Options{
		BaseURL:     ts.URL,
		QueryParams: map[string]string{"key": "gk"},
	}, nil)
	client := NewGeminiClient(poster, "")

	cfg := models.GenerationConfig{Temperature: 0.1, TopK: 1, TopP: 0.1, MaxOutputTokens: 100}
	text, err := client.Generate(context.Background(), "say hi", cfg)
	require.NoError(t, err)

	assert.Equal(t, "hello there", text)
	assert.Equal(t, "/models/gemini-pro:generateContent", gotPath)
	assert.Equal(t, "gk", gotKey)
	require.Len(t, gotReq.Contents, 1)
	require.Len(t, gotReq.Contents[0].Parts, 1)
	assert.Equal(t, "say hi", gotReq.Contents[0].Parts[0].Text)
	assert.Equal(t, cfg, gotReq.GenerationConfig)
}

func TestGenerate_EmptyCandidates(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer ts.Close()

	client := NewGeminiClient(upstream.New("gemini", upstream.Options{BaseURL: ts.URL}, nil), "gemini-pro")
	_, err := client.Generate(context.Background(), "x", models.GenerationConfig{})
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestGenerate_TruncatedCompletion(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"**Insights**\nGo is a lang"}]},"finishReason":"MAX_TOKENS"}]}`)
	}))
	defer ts.Close()

	client := NewGeminiClient(upstream.New("gemini", upstream.Options{BaseURL: ts.URL}, nil), "gemini-pro")
	text, err := client.Generate(context.Background(), "x", models.GenerationConfig{MaxOutputTokens: 200})
	assert.ErrorIs(t, err, ErrTruncated)
	assert.Empty(t, text)
}

func TestGenerate_UpstreamErrorKeepsKind(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	client := NewGeminiClient(upstream.New("gemini", upstream.Options{BaseURL: ts.URL}, nil), "gemini-pro")
	_, err := client.Generate(context.Background(), "x", models.GenerationConfig{})
	require.Error(t, err)
	assert.Equal(t, upstream.KindRateLimited, upstream.KindOf(err))
}

func TestModelDefault(t *testing.T) {
	assert.Equal(t, DefaultModel, NewGeminiClient(nil, "  ").Model())
	assert.Equal(t, "gemini-1.5-flash", NewGeminiClient(nil, "gemini-1.5-flash").Model())
}
