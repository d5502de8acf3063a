// Package types provides the request, stream and error types shared by the chat relay.
package types

import "encoding/json"

// ChatSettings carries the caller's model selection. Only Model and Temperature
// are forwarded upstream; other knobs sent by the front end are ignored.
type ChatSettings struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// Message is an opaque chat message, forwarded verbatim.
type Message = json.RawMessage

// ChatRequest is the inbound body of POST /api/chat/openrouter.
type ChatRequest struct {
	ChatSettings ChatSettings `json:"chatSettings"`
	Messages     []Message    `json:"messages"`
}

// UpstreamRequest is the body sent to the OpenRouter chat completions endpoint.
type UpstreamRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
	Stream      bool      `json:"stream"`
}

// NewUpstreamRequest selects the forwarded fields from an inbound request.
// Streaming is always enabled.
func NewUpstreamRequest(req *ChatRequest) *UpstreamRequest {
	messages := req.Messages
	if messages == nil {
		messages = []Message{}
	}
	return &UpstreamRequest{
		Model:       req.ChatSettings.Model,
		Messages:    messages,
		Temperature: req.ChatSettings.Temperature,
		Stream:      true,
	}
}
