// Package errx defines the error types shared by providers, handlers and the HTTP API.
package errx

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNoFinalImage is returned when an image stream ends without a completed image.
var ErrNoFinalImage = errors.New("No final image received from streaming response.")

// ProviderError is a non-2xx response from an external AI provider.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

// Error composes provider, status code and the provider-reported message.
func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s API error %d: %s: %v", e.Provider, e.Status, msg, e.Err)
	}
	return fmt.Sprintf("%s API error %d: %s", e.Provider, e.Status, msg)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the status is worth retrying (429 or 5xx).
func (e *ProviderError) Retryable() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// NewProviderError creates a ProviderError.
func NewProviderError(provider string, status int, message string) *ProviderError {
	return &ProviderError{Provider: provider, Status: status, Message: message}
}

// AppError wraps an underlying error with an HTTP status and safe message.
type AppError struct {
	Err     error
	Status  int
	Message string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(err error, status int, message string) *AppError {
	return &AppError{Err: err, Status: status, Message: message}
}

// BadRequest creates a 400 AppError.
func BadRequest(message string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: message}
}

// StatusOf returns the HTTP status to report for err.
// Provider failures map to 502, unknown errors to 500.
func StatusOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
