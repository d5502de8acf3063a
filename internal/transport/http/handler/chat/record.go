package chat

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mandalnilabja/chatrelay/internal/storage"
)

// requestRecord accumulates what is known about one chat request.
type requestRecord struct {
	start            time.Time
	requestID        string
	profileID        string
	model            string
	status           int
	errorMessage     string
	finishReason     string
	chunks           int
	deltas           int
	promptTokens     int
	completionTokens int
	totalTokens      int
}

// finish emits metrics and writes the request log asynchronously.
func (h *Handlers) finish(rec *requestRecord) {
	duration := time.Since(rec.start)

	h.Metrics.ObserveRequest(rec.model, rec.status, duration)
	h.Metrics.AddTokens(rec.model, rec.promptTokens, rec.completionTokens)

	if rec.status == http.StatusOK {
		h.Logger.Debug("chat request completed",
			"upstream", h.Upstream.Name(),
			"request_id", rec.requestID,
			"model", rec.model,
			"chunks", rec.chunks,
			"deltas", rec.deltas,
			"finish_reason", rec.finishReason,
			"prompt_tokens", rec.promptTokens,
			"completion_tokens", rec.completionTokens,
			"duration_ms", duration.Milliseconds(),
		)
	}

	if h.Storage == nil {
		return
	}

	entry := &storage.RequestLog{
		ID:               uuid.NewString(),
		RequestID:        rec.requestID,
		ProfileID:        rec.profileID,
		Model:            rec.model,
		PromptTokens:     rec.promptTokens,
		CompletionTokens: rec.completionTokens,
		TotalTokens:      rec.totalTokens,
		StatusCode:       rec.status,
		ErrorMessage:     rec.errorMessage,
		DurationMs:       duration.Milliseconds(),
		CreatedAt:        time.Now().UTC(),
	}

	if !h.track() {
		h.Logger.Warn("request log dropped during shutdown", "request_id", entry.RequestID, "status", entry.StatusCode)
		return
	}
	go func() {
		defer h.pending.Done()
		if err := h.Storage.LogRequest(entry); err != nil {
			h.Logger.Error("failed to write request log", "request_id", entry.RequestID, "error", err)
		}
	}()
}
