package api

import (
	"errors"
	"fmt"
)

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Body)
}

// AuthError represents a rejected credential (401/403). Never retried.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication error: %s", e.Reason)
}

// DurableWriteError wraps a failed message post. The caller must roll back
// any optimistic local state and surface the failure.
type DurableWriteError struct {
	Err error
}

func (e *DurableWriteError) Error() string {
	return fmt.Sprintf("durable write failed: %v", e.Err)
}

func (e *DurableWriteError) Unwrap() error { return e.Err }

// IsAuthError checks if the error is an authentication error.
func IsAuthError(err error) bool {
	var e *AuthError
	return errors.As(err, &e)
}

// IsDurableWriteError checks if the error is a failed durable write.
func IsDurableWriteError(err error) bool {
	var e *DurableWriteError
	return errors.As(err, &e)
}

// IsNotFoundError checks if the error indicates a missing resource.
func IsNotFoundError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == 404
}
