package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type ClientError struct {
	Message string
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// Distinct error kinds, matched with errors.As at operation boundaries.
type AuthenticationError struct{ ClientError }
type NetworkError struct{ ClientError }
type ValidationError struct{ ClientError }
type ConfigurationError struct{ ClientError }
type StorageError struct{ ClientError }

func NewAuthenticationError(msg string, cause error) error {
	return &AuthenticationError{ClientError{Message: msg, Cause: cause}}
}

func NewNetworkError(msg string, cause error) error {
	return &NetworkError{ClientError{Message: msg, Cause: cause}}
}

func NewValidationError(msg string) error {
	return &ValidationError{ClientError{Message: msg}}
}

func NewStorageError(msg string, cause error) error {
	return &StorageError{ClientError{Message: msg, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Backend errors
// -----------------------------------------------------------------------------

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method string
	URL    string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
}

// ParseDetail extracts the FastAPI "detail" field when it is a plain string.
// Validation errors carry a list there; those yield "".
func ParseDetail(body []byte) string {
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || len(payload.Detail) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(payload.Detail, &s); err != nil {
		return ""
	}
	return s
}

// ClassifyStatus wraps an APIError into the taxonomy by status code.
func ClassifyStatus(apiErr *APIError) error {
	switch {
	case apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden:
		return NewAuthenticationError("request rejected", apiErr)
	case apiErr.Status >= 500:
		return NewNetworkError("backend unavailable", apiErr)
	default:
		return apiErr
	}
}

// UserMessage returns the backend detail carried by err, or fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Detail != "" {
		return apiErr.Detail
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Message
	}
	return fallback
}

// IsAuthentication reports whether err is an authentication failure.
func IsAuthentication(err error) bool {
	var authErr *AuthenticationError
	return errors.As(err, &authErr)
}

// IsNetwork reports whether err is a transport or backend availability failure.
func IsNetwork(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsValidation reports whether err is a client-side validation failure.
func IsValidation(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// -----------------------------------------------------------------------------
// Required fields
// -----------------------------------------------------------------------------

// RequireFields returns a ValidationError naming the first blank field.
// Pairs are given as name, value, name, value...
func RequireFields(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if strings.TrimSpace(pairs[i+1]) == "" {
			return NewValidationError(fmt.Sprintf("%s is required", pairs[i]))
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff runs fn up to attempts times, sleeping baseDelay*attempt^2 between
// tries. It stops early when ctx is done or retryable reports false.
func RetryWithBackoff(ctx context.Context, attempts int, baseDelay time.Duration, retryable func(error) bool, fn func(attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			delay := baseDelay * time.Duration(attempt*attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
	}

	return lastErr
}
