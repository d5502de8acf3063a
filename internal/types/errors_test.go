package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAsChatError(t *testing.T) {
	upstream := NewUpstreamError(http.StatusTooManyRequests, "Too Many Requests", nil)

	tests := []struct {
		name       string
		err        error
		wantKind   ErrorKind
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "chat error passes through",
			err:        upstream,
			wantKind:   KindUpstream,
			wantStatus: http.StatusTooManyRequests,
			wantMsg:    "Too Many Requests",
		},
		{
			name:       "wrapped chat error",
			err:        fmt.Errorf("relay: %w", upstream),
			wantKind:   KindUpstream,
			wantStatus: http.StatusTooManyRequests,
			wantMsg:    "Too Many Requests",
		},
		{
			name:       "api key not found text",
			err:        errors.New("OpenRouter API Key not found"),
			wantKind:   KindMissingCredential,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    MissingCredentialMessage,
		},
		{
			name:       "api key not found any case",
			err:        errors.New("profile p1: API KEY NOT FOUND"),
			wantKind:   KindMissingCredential,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    MissingCredentialMessage,
		},
		{
			name:       "other error keeps its message",
			err:        errors.New("unexpected end of JSON input"),
			wantKind:   KindUnexpected,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "unexpected end of JSON input",
		},
		{
			name:       "nil error",
			err:        nil,
			wantKind:   KindUnexpected,
			wantStatus: http.StatusInternalServerError,
			wantMsg:    DefaultErrorMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AsChatError(tt.err)
			if got.Kind != tt.wantKind {
				t.Errorf("expected kind %s, got %s", tt.wantKind, got.Kind)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, got.Status)
			}
			if got.Message != tt.wantMsg {
				t.Errorf("expected message %q, got %q", tt.wantMsg, got.Message)
			}
		})
	}
}

func TestNewUpstreamError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		statusText string
		body       string
		wantStatus int
		wantMsg    string
	}{
		{"parsed message", 429, "Too Many Requests", `{"error":{"message":"rate limited"}}`, 429, "rate limited"},
		{"non-json body", 503, "Service Unavailable", "upstream down", 503, "Service Unavailable"},
		{"empty status text", 404, "", "", 404, "Not Found"},
		{"non-error status", 302, "Found", "", http.StatusInternalServerError, "Found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewUpstreamError(tt.status, tt.statusText, []byte(tt.body))
			if got.Status != tt.wantStatus || got.Message != tt.wantMsg {
				t.Errorf("expected %d %q, got %d %q", tt.wantStatus, tt.wantMsg, got.Status, got.Message)
			}
		})
	}
}

func TestChatError_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewUnexpected(cause)
	if !errors.Is(err, cause) {
		t.Error("expected cause in error chain")
	}
	if err.Kind.String() != "unexpected" {
		t.Errorf("unexpected kind string %q", err.Kind.String())
	}
}

func TestWriteChatError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteChatError(rec, NewUpstreamError(http.StatusTooManyRequests, "", []byte(`{"error":{"message":"rate limited"}}`)))

	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected json content type, got %q", ct)
	}

	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if len(body) != 1 || body["message"] != "rate limited" {
		t.Errorf("expected only message field, got %v", body)
	}
}
