package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/young1lin/aisearch/internal/converter"
	"github.com/young1lin/aisearch/internal/models"
	"github.com/young1lin/aisearch/internal/pipeline"
	"github.com/young1lin/aisearch/internal/upstream"
	"github.com/young1lin/aisearch/pkg/logger"
)

const maxRequestBody = 1 << 20

// Searcher runs the search pipeline; *pipeline.Pipeline satisfies it
type Searcher interface {
	Run(ctx context.Context, query string, observe pipeline.Observer) (*models.EnhancedSearchResult, error)
}

var _ Searcher = (*pipeline.Pipeline)(nil)

// SearchRequest is the body of POST /v1/search
type SearchRequest struct {
	Query string `json:"query"`
}

// SearchHandler serves the search API
type SearchHandler struct {
	searcher Searcher
	status   *StatusChecker
	metrics  http.Handler
	log      *zap.Logger
}

// NewSearchHandler creates a new search handler. gatherer backs /metrics.
func NewSearchHandler(searcher Searcher, status *StatusChecker, gatherer prometheus.Gatherer, log *zap.Logger) *SearchHandler {
	return &SearchHandler{
		searcher: searcher,
		status:   status,
		metrics:  promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		log:      logger.OrNop(log),
	}
}

// ServeHTTP handles all HTTP requests
func (h *SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// Extract or generate trace ID
	traceID := extractTraceID(r)
	if traceID == "" {
		traceID = generateTraceID()
	}

	ctx := logger.ContextWithTraceID(r.Context(), traceID)
	r = r.WithContext(ctx)

	log := logger.ForContext(ctx, h.log)
	log.Info("request received",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("remote_addr", r.RemoteAddr),
	)

	w.Header().Set("X-Trace-ID", traceID)

	// Route request
	switch r.URL.Path {
	case "/health":
		h.handleHealth(w, r)
	case "/status":
		h.handleStatus(w, r, log)
	case "/metrics":
		h.metrics.ServeHTTP(w, r)
	case "/v1/search":
		h.handleSearch(w, r, log)
	case "/v1/search/stream":
		h.handleStream(w, r, log)
	default:
		h.handleError(w, http.StatusNotFound, "not_found", "", "Endpoint not found", log)
	}

	log.Info("request completed",
		zap.Int64("duration_ms", time.Since(start).Milliseconds()),
	)
}

// handleHealth handles health check requests
func (h *SearchHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	})
}

// handleStatus reports whether each upstream answers
func (h *SearchHandler) handleStatus(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	if h.status == nil {
		writeJSON(w, http.StatusOK, map[string]bool{})
		return
	}

	report := h.status.Check(r.Context())
	status := http.StatusOK
	for name, ok := range report {
		if !ok {
			status = http.StatusServiceUnavailable
			log.Warn("upstream unreachable", zap.String("upstream", name))
		}
	}
	writeJSON(w, status, report)
}

// handleSearch handles POST /v1/search and GET /v1/search?q=
func (h *SearchHandler) handleSearch(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	query, ok := h.readQuery(w, r, log)
	if !ok {
		return
	}

	result, err := h.searcher.Run(r.Context(), query, nil)
	if err != nil {
		h.handleSearchError(w, err, log)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleStream handles POST /v1/search/stream: one "stage" event per
// transition, then "result" or "error", then "done"
func (h *SearchHandler) handleStream(w http.ResponseWriter, r *http.Request, log *zap.Logger) {
	query, ok := h.readQuery(w, r, log)
	if !ok {
		return
	}

	writer, ok := converter.NewSSEWriter(w, log)
	if !ok {
		h.handleError(w, http.StatusInternalServerError, "server_error", "", "Streaming not supported", log)
		return
	}

	result, err := h.searcher.Run(r.Context(), query, func(e pipeline.Event) {
		if err := writer.WriteJSON("stage", e); err != nil {
			log.Error("failed to write stage event", zap.Error(err))
		}
	})

	if err != nil {
		kind, message := describeError(err)
		if err := writer.WriteJSON("error", errorEnvelope("search_error", string(kind), message)); err != nil {
			log.Error("failed to write error event", zap.Error(err))
		}
	} else if err := writer.WriteJSON("result", result); err != nil {
		log.Error("failed to write result event", zap.Error(err))
	}

	writer.WriteEvent("done", "[DONE]")
}

// readQuery extracts the query from the JSON body (POST) or q parameter (GET).
// It writes the error response and returns false when there is no usable query.
func (h *SearchHandler) readQuery(w http.ResponseWriter, r *http.Request, log *zap.Logger) (string, bool) {
	var query string

	switch r.Method {
	case http.MethodGet:
		query = r.URL.Query().Get("q")
	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
		if err != nil {
			h.handleError(w, http.StatusBadRequest, "invalid_request", "", "Failed to read request body", log)
			return "", false
		}

		var req SearchRequest
		if err := json.Unmarshal(body, &req); err != nil {
			h.handleError(w, http.StatusBadRequest, "invalid_request", "", "Invalid JSON: "+err.Error(), log)
			return "", false
		}
		query = req.Query
	default:
		w.Header().Set("Allow", "GET, POST")
		h.handleError(w, http.StatusMethodNotAllowed, "invalid_request", "", "Method not allowed", log)
		return "", false
	}

	query = strings.TrimSpace(query)
	if query == "" {
		h.handleError(w, http.StatusBadRequest, "invalid_request", "", "Query must not be empty", log)
		return "", false
	}
	return query, true
}

// handleSearchError maps a pipeline failure to an HTTP status
func (h *SearchHandler) handleSearchError(w http.ResponseWriter, err error, log *zap.Logger) {
	kind, message := describeError(err)
	h.handleError(w, statusForKind(kind), "search_error", string(kind), message, log)
}

// handleError handles errors
func (h *SearchHandler) handleError(w http.ResponseWriter, status int, errType, code, message string, log *zap.Logger) {
	log.Error("request error",
		zap.String("error_type", errType),
		zap.String("code", code),
		zap.String("message", message),
		zap.Int("status", status),
	)

	writeJSON(w, status, errorEnvelope(errType, code, message))
}

func describeError(err error) (upstream.Kind, string) {
	var se *pipeline.SearchError
	if errors.As(err, &se) {
		return se.Kind, se.Message
	}
	return upstream.KindOther, pipeline.Message(upstream.KindOther)
}

func statusForKind(kind upstream.Kind) int {
	switch kind {
	case upstream.KindTimeout:
		return http.StatusGatewayTimeout
	case upstream.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

func errorEnvelope(errType, code, message string) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.ErrorDetail{
			Type:    errType,
			Code:    code,
			Message: message,
		},
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// extractTraceID extracts trace ID from various possible headers
func extractTraceID(r *http.Request) string {
	// Check common trace ID headers in order of preference
	headers := []string{
		"X-Trace-ID",
		"X-Request-ID",
		"X-Correlation-ID",
		"Trace-ID",
		"Request-ID",
	}

	for _, header := range headers {
		if id := r.Header.Get(header); id != "" {
			return id
		}
	}

	return ""
}

// generateTraceID generates a new trace ID
func generateTraceID() string {
	id := uuid.New()
	return id.String()[:16]
}
