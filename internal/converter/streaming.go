package converter

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/young1lin/aisearch/pkg/logger"
)

// SSEWriter handles writing Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	logger  *zap.Logger
}

// NewSSEWriter sets the event-stream headers and returns a writer.
// ok is false when w cannot flush, in which case nothing was written.
func NewSSEWriter(w http.ResponseWriter, log *zap.Logger) (*SSEWriter, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering
	w.WriteHeader(http.StatusOK)

	return &SSEWriter{
		w:       w,
		flusher: flusher,
		logger:  logger.OrNop(log),
	}, true
}

// WriteEvent writes an SSE event
func (s *SSEWriter) WriteEvent(event, data string) {
	fmt.Fprintf(s.w, "event: %s\n", event)
	fmt.Fprintf(s.w, "data: %s\n\n", data)
	s.flusher.Flush()
	s.logger.Debug("SSE event sent",
		zap.String("event", event),
		zap.String("data", truncateString(data, 200)),
	)
}

// WriteJSON marshals v and writes it as the data of event
func (s *SSEWriter) WriteJSON(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event, err)
	}
	s.WriteEvent(event, string(data))
	return nil
}

// truncateString truncates a string for logging
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
