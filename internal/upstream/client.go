// Package upstream wraps the HTTP calls made to third-party providers.
// One Client is built per provider at startup; every call is a single
// attempt bounded by the client's timeout.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/young1lin/aisearch/internal/metrics"
	"github.com/young1lin/aisearch/pkg/logger"
)

// DefaultTimeout bounds a single upstream call when Options.Timeout is zero
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 256

// Options configures a provider client
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	Headers     map[string]string // e.g. X-API-KEY
	QueryParams map[string]string // e.g. key
}

// Poster is the transport components depend on; *Client satisfies it
type Poster interface {
	Post(ctx context.Context, path string, body, out any) error
}

var _ Poster = (*Client)(nil)

// Client posts JSON to a single upstream provider
type Client struct {
	name    string
	timeout time.Duration
	http    *resty.Client
	log     *zap.Logger
}

// New creates a client for the named provider
func New(name string, opts Options, log *zap.Logger) *Client {
	log = logger.OrNop(log).With(zap.String("provider", name))

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(opts.BaseURL, "/")).
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "aisearch/1.0").
		SetLogger(log.Sugar())

	for k, v := range opts.Headers {
		httpClient.SetHeader(k, v)
	}
	for k, v := range opts.QueryParams {
		httpClient.SetQueryParam(k, v)
	}

	return &Client{
		name:    name,
		timeout: timeout,
		http:    httpClient,
		log:     log,
	}
}

// Name returns the provider name
func (c *Client) Name() string {
	return c.name
}

// Post sends body as JSON to path and decodes a 2xx response into out (when non-nil).
// The caller's cancellation is not propagated: the request lives until it
// completes or the client timeout elapses.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	log := logger.ForContext(ctx, c.log)
	start := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		kind := KindOther
		if isTimeout(err) {
			kind = KindTimeout
		}
		return c.fail(log, start, &UpstreamError{Provider: c.name, Kind: kind, Err: err})
	}

	log.Debug("upstream response",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", time.Since(start)),
	)

	if !resp.IsSuccess() {
		return c.fail(log, start, &UpstreamError{
			Provider:   c.name,
			Kind:       kindForStatus(resp.StatusCode()),
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode(), truncate(resp.String(), maxErrorBody)),
		})
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return c.fail(log, start, &UpstreamError{
				Provider:   c.name,
				Kind:       KindOther,
				StatusCode: resp.StatusCode(),
				Err:        fmt.Errorf("failed to parse response: %w", err),
			})
		}
	}

	metrics.ObserveUpstream(c.name, "ok", time.Since(start))
	return nil
}

func (c *Client) fail(log *zap.Logger, start time.Time, err *UpstreamError) error {
	metrics.ObserveUpstream(c.name, string(err.Kind), time.Since(start))
	log.Debug("upstream call failed", zap.String("kind", string(err.Kind)), zap.Error(err.Err))
	return err
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
