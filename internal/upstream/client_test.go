package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoBody struct {
	Q string `json:"q"`
}

func TestPost_SendsJSONWithAuth(t *testing.T) {
	var (
		gotPath   string
		gotHeader string
		gotKey    string
		gotCT     string
		gotBody   echoBody
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeader = r.Header.Get("X-API-KEY")
		gotKey = r.URL.Query().Get("key")
		gotCT = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"q":"pong"}`)
	}))
	defer ts.Close()

	c := New("test", Options{
		BaseURL:     ts.URL + "/",
		Headers:     map[string]string{"X-API-KEY": "secret"},
		QueryParams: map[string]string{"key": "qkey"},
	}, nil)

	var out echoBody
	err := c.Post(context.Background(), "/search", echoBody{Q: "ping"}, &out)
	require.NoError(t, err)

	assert.Equal(t, "/search", gotPath)
	assert.Equal(t, "secret", gotHeader)
	assert.Equal(t, "qkey", gotKey)
	assert.Contains(t, gotCT, "application/json")
	assert.Equal(t, "ping", gotBody.Q)
	assert.Equal(t, "pong", out.Q)
}

func TestPost_ClassifiesStatus(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   Kind
	}{
		{"401 unauthorized", http.StatusUnauthorized, KindUnauthorized},
		{"429 rate limited", http.StatusTooManyRequests, KindRateLimited},
		{"500 server error", http.StatusInternalServerError, KindOther},
		{"403 forbidden", http.StatusForbidden, KindOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, `{"message":"nope"}`)
			}))
			defer ts.Close()

			c := New("test", Options{BaseURL: ts.URL}, nil)
			err := c.Post(context.Background(), "/search", echoBody{Q: "x"}, nil)
			require.Error(t, err)

			var upErr *UpstreamError
			require.True(t, errors.As(err, &upErr))
			assert.Equal(t, tt.want, upErr.Kind)
			assert.Equal(t, tt.status, upErr.StatusCode)
			assert.Equal(t, tt.want, KindOf(err))
			// single attempt, no retries
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestPost_TimeoutIsBounded(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// never answers on its own
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	c := New("slow", Options{BaseURL: ts.URL, Timeout: 50 * time.Millisecond}, nil)

	start := time.Now()
	err := c.Post(context.Background(), "/search", echoBody{Q: "x"}, nil)
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Less(t, elapsed, 5*time.Second)
}

func TestPost_CallerCancellationNotPropagated(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(30 * time.Millisecond)
		fmt.Fprint(w, `{"q":"late"}`)
	}))
	defer ts.Close()

	c := New("test", Options{BaseURL: ts.URL, Timeout: 2 * time.Second}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out echoBody
	require.NoError(t, c.Post(ctx, "/search", echoBody{Q: "x"}, &out))
	assert.Equal(t, "late", out.Q)
}

func TestPost_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `not json`)
	}))
	defer ts.Close()

	c := New("test", Options{BaseURL: ts.URL}, nil)
	var out echoBody
	err := c.Post(context.Background(), "/search", echoBody{Q: "x"}, &out)
	require.Error(t, err)
	assert.Equal(t, KindOther, KindOf(err))
}

func TestPost_ConnectionRefused(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := ts.URL
	ts.Close()

	c := New("test", Options{BaseURL: url}, nil)
	err := c.Post(context.Background(), "/search", echoBody{Q: "x"}, nil)
	require.Error(t, err)
	assert.Equal(t, KindOther, KindOf(err))
}

func TestKindOf_PlainError(t *testing.T) {
	assert.Equal(t, KindOther, KindOf(errors.New("boom")))
	wrapped := fmt.Errorf("fetch: %w", &UpstreamError{Provider: "p", Kind: KindRateLimited, Err: errors.New("x")})
	assert.Equal(t, KindRateLimited, KindOf(wrapped))
}

func TestUpstreamError_Message(t *testing.T) {
	err := &UpstreamError{Provider: "serper", Kind: KindUnauthorized, StatusCode: 401, Err: errors.New("HTTP 401")}
	assert.Equal(t, "serper: unauthorized (status 401): HTTP 401", err.Error())

	err = &UpstreamError{Provider: "gemini", Kind: KindTimeout, Err: context.DeadlineExceeded}
	assert.Equal(t, "gemini: timeout: context deadline exceeded", err.Error())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
