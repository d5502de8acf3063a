// Package chat implements the chat relay endpoint.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mandalnilabja/chatrelay/internal/metrics"
	"github.com/mandalnilabja/chatrelay/internal/provider/openrouter"
	"github.com/mandalnilabja/chatrelay/internal/storage"
	"github.com/mandalnilabja/chatrelay/internal/tokenizer"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/middleware"
	"github.com/mandalnilabja/chatrelay/internal/transport/http/middleware/auth"
	"github.com/mandalnilabja/chatrelay/internal/types"
)

const (
	// maxBodyBytes bounds the inbound chat request.
	maxBodyBytes = 10 << 20

	// tokenCountTimeout is the maximum time to wait for prompt counting once the stream ends.
	tokenCountTimeout = 100 * time.Millisecond

	// statusClientClosed is recorded when the caller disconnects mid-stream.
	statusClientClosed = 499
)

// CredentialSource resolves the OpenRouter key for a profile.
type CredentialSource interface {
	Resolve(profileID string) (string, error)
}

// Handlers holds the dependencies for the chat relay.
// Storage, Tokenizer and Metrics are optional.
type Handlers struct {
	Upstream    *openrouter.Client
	Credentials CredentialSource
	Storage     storage.Storage
	Tokenizer   tokenizer.Tokenizer
	Metrics     *metrics.Collector
	Logger      *slog.Logger

	mu       sync.Mutex
	draining bool
	pending  sync.WaitGroup
}

// New creates the chat handlers.
func New(upstream *openrouter.Client, creds CredentialSource, store storage.Storage, tok tokenizer.Tokenizer, m *metrics.Collector, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Handlers{
		Upstream:    upstream,
		Credentials: creds,
		Storage:     store,
		Tokenizer:   tok,
		Metrics:     m,
		Logger:      logger,
	}
}

// Drain stops new request log writes and waits for pending ones to finish.
// Requests that end after Drain are still counted in metrics but not stored,
// so storage can be closed once Drain returns.
func (h *Handlers) Drain() {
	h.mu.Lock()
	h.draining = true
	h.mu.Unlock()
	h.pending.Wait()
}

// track registers a pending log write; it reports false once draining.
func (h *Handlers) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.draining {
		return false
	}
	h.pending.Add(1)
	return true
}

// ChatProxy relays a chat request to OpenRouter and streams the reply as plain text.
// Failures before the stream starts are returned as {"message": ...}; failures
// after it starts end the response and are only logged.
func (h *Handlers) ChatProxy(w http.ResponseWriter, r *http.Request) {
	rec := &requestRecord{
		start:     time.Now(),
		requestID: middleware.GetRequestID(r.Context()),
		profileID: auth.ProfileID(r.Context()),
	}
	if rec.requestID == "" {
		rec.requestID = uuid.NewString()
	}

	var req types.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		h.fail(w, rec, types.NewUnexpected(err))
		return
	}
	rec.model = req.ChatSettings.Model

	apiKey, err := h.Credentials.Resolve(rec.profileID)
	if err != nil {
		h.fail(w, rec, err)
		return
	}

	// Count prompt tokens while the upstream request is in flight
	promptCh := h.countPrompt(&req)

	stream, err := h.Upstream.Stream(r.Context(), apiKey, &req)
	if err != nil {
		h.fail(w, rec, err)
		return
	}
	defer stream.Close()

	header := w.Header()
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("Cache-Control", "no-cache")
	header.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	rec.status = http.StatusOK

	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	var completion strings.Builder
	for {
		delta, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			rec.chunks = stream.Chunks()
			h.abort(r, rec, err)
			break
		}

		if _, err := io.WriteString(w, delta); err != nil {
			h.abort(r, rec, err)
			break
		}
		if flusher != nil {
			flusher.Flush()
		}
		completion.WriteString(delta)
		rec.deltas++
		h.Metrics.IncDeltas()
	}

	if model := stream.Model(); model != "" {
		rec.model = model
	}
	rec.finishReason = stream.FinishReason()
	rec.chunks = stream.Chunks()
	h.applyUsage(rec, stream.Usage(), promptCh, completion.String())
	h.finish(rec)
}

// fail writes a pre-stream failure as a JSON error and records it.
func (h *Handlers) fail(w http.ResponseWriter, rec *requestRecord, err error) {
	chatErr := types.WriteChatError(w, err)
	rec.status = chatErr.Status
	rec.errorMessage = chatErr.Message

	h.Logger.Warn("chat request failed",
		"upstream", h.Upstream.Name(),
		"request_id", rec.requestID,
		"profile_id", rec.profileID,
		"model", rec.model,
		"kind", chatErr.Kind.String(),
		"status", chatErr.Status,
		"error", err,
	)
	h.finish(rec)
}

// abort records a failure after the 200 has been sent. Nothing is written to
// the client; the response simply ends.
func (h *Handlers) abort(r *http.Request, rec *requestRecord, err error) {
	rec.status = http.StatusBadGateway
	if r.Context().Err() != nil && !errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		rec.status = statusClientClosed
	}
	rec.errorMessage = err.Error()

	h.Logger.Warn("chat stream interrupted",
		"upstream", h.Upstream.Name(),
		"request_id", rec.requestID,
		"profile_id", rec.profileID,
		"model", rec.model,
		"chunks", rec.chunks,
		"deltas", rec.deltas,
		"status", rec.status,
		"error", err,
	)
}

// countPrompt starts prompt token counting in the background.
// The channel is closed without a value if counting is unavailable or fails.
func (h *Handlers) countPrompt(req *types.ChatRequest) <-chan int {
	ch := make(chan int, 1)
	go func() {
		defer close(ch)
		if h.Tokenizer == nil {
			return
		}
		if tokens, err := h.Tokenizer.CountMessages(req.Messages, req.ChatSettings.Model); err == nil {
			ch <- tokens
		}
	}()
	return ch
}

// applyUsage prefers upstream usage and falls back to local counts.
func (h *Handlers) applyUsage(rec *requestRecord, usage *types.Usage, promptCh <-chan int, completion string) {
	if usage != nil {
		rec.promptTokens = usage.PromptTokens
		rec.completionTokens = usage.CompletionTokens
		rec.totalTokens = usage.TotalTokens
	}

	if rec.promptTokens == 0 {
		select {
		case tokens, ok := <-promptCh:
			if ok {
				rec.promptTokens = tokens
			}
		case <-time.After(tokenCountTimeout):
		}
	}

	if rec.completionTokens == 0 && completion != "" && h.Tokenizer != nil {
		if tokens, err := h.Tokenizer.CountCompletion(completion, rec.model); err == nil {
			rec.completionTokens = tokens
		}
	}

	if rec.totalTokens == 0 {
		rec.totalTokens = rec.promptTokens + rec.completionTokens
	}
}
