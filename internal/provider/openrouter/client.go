// Package openrouter implements the OpenRouter chat completions upstream.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mandalnilabja/chatrelay/internal/config"
	"github.com/mandalnilabja/chatrelay/internal/types"
)

// maxErrorBody caps how much of a failed upstream response is read.
const maxErrorBody = 1 << 20

// Client issues streaming chat completion requests to OpenRouter.
// The API key is supplied per call, never stored on the client.
type Client struct {
	baseURL    string
	referer    string
	title      string
	timeout    time.Duration
	httpClient *http.Client
}

// New creates a client from the OpenRouter configuration.
func New(cfg config.OpenRouterConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		referer: cfg.Referer,
		title:   cfg.Title,
		timeout: cfg.Timeout,
		// DisableCompression keeps the SSE body flowing chunk by chunk
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:              http.ProxyFromEnvironment,
				DisableCompression: true,
			},
		},
	}
}

// Name returns the provider identifier used in logs.
func (c *Client) Name() string {
	return "openrouter"
}

// Stream is an open upstream response. Close must be called when done.
type Stream struct {
	*DeltaReader
	body   io.Closer
	cancel context.CancelFunc
}

// Close releases the upstream connection and the request deadline.
func (s *Stream) Close() error {
	defer s.cancel()
	return s.body.Close()
}

// NewRequest builds the upstream HTTP request for a chat request.
func (c *Client) NewRequest(ctx context.Context, apiKey string, req *types.ChatRequest) (*http.Request, error) {
	payload, err := json.Marshal(types.NewUpstreamRequest(req))
	if err != nil {
		return nil, fmt.Errorf("encode upstream request: %w", err)
	}

	upstreamReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create upstream request: %w", err)
	}

	upstreamReq.Header.Set("Content-Type", "application/json")
	upstreamReq.Header.Set("Authorization", "Bearer "+apiKey)
	if c.referer != "" {
		upstreamReq.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		upstreamReq.Header.Set("X-Title", c.title)
	}

	return upstreamReq, nil
}

// Stream sends req upstream and returns the open delta stream.
// Failures are returned as *types.ChatError; no retries are attempted.
func (c *Client) Stream(ctx context.Context, apiKey string, req *types.ChatRequest) (*Stream, error) {
	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}

	upstreamReq, err := c.NewRequest(ctx, apiKey, req)
	if err != nil {
		cancel()
		return nil, types.NewUnexpected(err)
	}

	resp, err := c.httpClient.Do(upstreamReq)
	if err != nil {
		cancel()
		return nil, types.NewUnexpected(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer cancel()
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, types.NewUpstreamError(resp.StatusCode, statusText(resp), body)
	}

	return &Stream{
		DeltaReader: NewDeltaReader(resp.Body),
		body:        resp.Body,
		cancel:      cancel,
	}, nil
}

// statusText returns the reason phrase the upstream sent, e.g. "Too Many Requests".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}
