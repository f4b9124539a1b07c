package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for common failure conditions.
var (
	// ErrTimeout means the effective timeout elapsed before a terminal
	// response; the request was aborted and may be resent.
	ErrTimeout = errors.New("request timed out")

	// ErrCancelled means the caller abandoned the request before it
	// completed. Never retried.
	ErrCancelled = errors.New("request cancelled")

	ErrUnauthorized       = errors.New("unauthorized")
	ErrRateLimited        = errors.New("rate limited")
	ErrServiceUnavailable = errors.New("service unavailable")
)

// StatusError represents a non-2xx HTTP response from the gateway.
// BodyPrefix holds at most the first 240 characters of the upstream
// body, kept for diagnostics.
type StatusError struct {
	StatusCode int
	BodyPrefix string
}

func (e *StatusError) Error() string {
	if e.BodyPrefix == "" {
		return fmt.Sprintf("HTTP %d", e.StatusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.BodyPrefix)
}

// Unwrap returns the underlying sentinel error based on status code.
func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusServiceUnavailable:
		return ErrServiceUnavailable
	default:
		return nil
	}
}

// APIError represents an error reported inside an otherwise successful
// response body (or stream frame).
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway error: %s", e.Message)
}

// NetworkError represents a transport-level failure (connection
// refused, DNS, TLS) before any HTTP status was received.
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v. Check that the gateway URL scheme and host are reachable", e.Cause)
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// StreamError represents a failure while reading an open stream.
type StreamError struct {
	Message string
	Cause   error
}

func (e *StreamError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("stream error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("stream error: %s", e.Message)
}

func (e *StreamError) Unwrap() error {
	return e.Cause
}
