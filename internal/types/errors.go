package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// MissingCredentialMessage is shown to callers whose profile has no OpenRouter key.
const MissingCredentialMessage = "OpenRouter API Key not found. Please set it in your profile settings."

// DefaultErrorMessage is used when a failure carries no message of its own.
const DefaultErrorMessage = "An unexpected error occurred"

// ErrorKind tags a ChatError.
type ErrorKind int

const (
	// KindUnexpected covers parse failures, network failures and timeouts.
	KindUnexpected ErrorKind = iota
	// KindMissingCredential means the caller's profile has no stored key.
	KindMissingCredential
	// KindUpstream means OpenRouter answered with a non-success status.
	KindUpstream
)

func (k ErrorKind) String() string {
	switch k {
	case KindMissingCredential:
		return "missing_credential"
	case KindUpstream:
		return "upstream"
	default:
		return "unexpected"
	}
}

// ChatError is the single error type surfaced at the chat handler boundary.
type ChatError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *ChatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *ChatError) Unwrap() error {
	return e.Cause
}

// ErrorResponse is the JSON body of every failed chat request.
type ErrorResponse struct {
	Message string `json:"message"`
}

// ErrorDetail is the `error` object of an OpenRouter error body.
type ErrorDetail struct {
	Message string `json:"message"`
	Code    any    `json:"code,omitempty"`
}

// UpstreamErrorBody is the JSON envelope OpenRouter uses for failures.
type UpstreamErrorBody struct {
	Error *ErrorDetail `json:"error"`
}

// NewMissingCredential creates a missing credential error.
func NewMissingCredential(cause error) *ChatError {
	return &ChatError{
		Kind:    KindMissingCredential,
		Status:  http.StatusInternalServerError,
		Message: MissingCredentialMessage,
		Cause:   cause,
	}
}

// NewUpstreamError builds an upstream error from a non-success response.
// The message comes from the parsed error body when present, else the status text.
func NewUpstreamError(status int, statusText string, body []byte) *ChatError {
	message := ""
	var parsed UpstreamErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		message = parsed.Error.Message
	}
	if message == "" {
		message = statusText
	}
	if message == "" {
		message = http.StatusText(status)
	}
	if status < 400 {
		status = http.StatusInternalServerError
	}
	return &ChatError{
		Kind:    KindUpstream,
		Status:  status,
		Message: message,
	}
}

// NewUnexpected wraps any other failure.
func NewUnexpected(cause error) *ChatError {
	message := DefaultErrorMessage
	if cause != nil && cause.Error() != "" {
		message = cause.Error()
	}
	return &ChatError{
		Kind:    KindUnexpected,
		Status:  http.StatusInternalServerError,
		Message: message,
		Cause:   cause,
	}
}

// AsChatError classifies err into a ChatError.
// Errors mentioning "api key not found" are treated as a missing credential.
func AsChatError(err error) *ChatError {
	var chatErr *ChatError
	if errors.As(err, &chatErr) {
		return chatErr
	}
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "api key not found") {
		return NewMissingCredential(err)
	}
	return NewUnexpected(err)
}

// WriteChatError writes err as a JSON error envelope.
func WriteChatError(w http.ResponseWriter, err error) *ChatError {
	chatErr := AsChatError(err)
	WriteError(w, chatErr.Status, chatErr.Message)
	return chatErr
}

// WriteError writes {"message": message} with the given status.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Message: message})
}
