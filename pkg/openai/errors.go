package openai

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNoAPIKey is returned when the API key is missing.
var ErrNoAPIKey = errors.New("openai: API key required")

// APIError represents an error response from the provider API. The
// status code is mirrored back to HTTP callers; Detail carries the raw
// provider body for the error response's details field.
type APIError struct {
	// StatusCode is the HTTP status code from the provider.
	StatusCode int

	// Message is the error message from the API.
	Message string

	// Code is the provider error code, if given.
	Code string

	// Endpoint identifies which capability call failed.
	Endpoint string

	// Detail is the raw provider response body, if it was JSON.
	Detail json.RawMessage
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("openai [%s]: API error %d (%s): %s", e.Endpoint, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("openai [%s]: API error %d: %s", e.Endpoint, e.StatusCode, e.Message)
}

// IsRateLimited returns true for HTTP 429.
func (e *APIError) IsRateLimited() bool {
	return e.StatusCode == 429
}

// IsServerError returns true for HTTP 5xx.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}

// IsRetryable returns true if the request should be retried.
func (e *APIError) IsRetryable() bool {
	return e.IsRateLimited() || e.IsServerError()
}

// CallError wraps a transport-level failure with endpoint context.
type CallError struct {
	Endpoint string
	Err      error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	return fmt.Sprintf("openai [%s]: %v", e.Endpoint, e.Err)
}

// Unwrap returns the underlying error.
func (e *CallError) Unwrap() error {
	return e.Err
}

func wrapErr(endpoint string, err error) error {
	if err == nil {
		return nil
	}
	return &CallError{Endpoint: endpoint, Err: err}
}
