package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"
)

// Sentinel errors classifying every failure an adapter can produce.
var (
	// ErrNetwork indicates a connection-level failure (refused, reset, DNS).
	ErrNetwork = errors.New("network error")

	// ErrRateLimited indicates the source signaled throttling (HTTP 429 or
	// an equivalent page-level signal).
	ErrRateLimited = errors.New("rate limited")

	// ErrParse indicates the expected response structure was not found.
	ErrParse = errors.New("parse error")

	// ErrUnauthorized indicates the source denied access (HTTP 401/403).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTimeout indicates the per-query deadline expired.
	ErrTimeout = errors.New("timeout")

	// ErrNotFound indicates the queried endpoint does not exist at the
	// source (HTTP 404), usually a misconfigured base URL.
	ErrNotFound = errors.New("not found")
)

// ErrorClass is the coarse classification used by the retry controller and
// surfaced in per-source status reports.
type ErrorClass string

const (
	ErrorClassNetwork      ErrorClass = "network"
	ErrorClassRateLimited  ErrorClass = "rate_limited"
	ErrorClassParse        ErrorClass = "parse"
	ErrorClassUnauthorized ErrorClass = "unauthorized"
	ErrorClassTimeout      ErrorClass = "timeout"
	ErrorClassUnknown      ErrorClass = "unknown"
)

// Classify maps an error to its ErrorClass. Context deadline expiry and
// net timeouts classify as timeout; unrecognized errors classify as network
// so a flaky source still gets retried.
func Classify(err error) ErrorClass {
	switch {
	case err == nil:
		return ErrorClassUnknown
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return ErrorClassTimeout
	case errors.Is(err, ErrRateLimited):
		return ErrorClassRateLimited
	case errors.Is(err, ErrParse):
		return ErrorClassParse
	case errors.Is(err, ErrUnauthorized):
		return ErrorClassUnauthorized
	case errors.Is(err, ErrNotFound):
		return ErrorClassParse
	case errors.Is(err, ErrNetwork):
		return ErrorClassNetwork
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return ErrorClassTimeout
		}
		return ErrorClassNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return ErrorClassNetwork
	}
	return ErrorClassNetwork
}

// Retryable reports whether the class is worth another attempt. Malformed
// pages and permission errors do not improve on retry.
func (c ErrorClass) Retryable() bool {
	switch c {
	case ErrorClassNetwork, ErrorClassRateLimited:
		return true
	default:
		return false
	}
}

// SourceError wraps a failure from one source with its classification and,
// when available, the HTTP status that produced it.
type SourceError struct {
	Source     SourceType
	Class      ErrorClass
	StatusCode int
	Message    string
	Cause      error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d): %s", e.Source.DisplayName(), e.Class, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source.DisplayName(), e.Class, e.Message)
}

// Unwrap returns the sentinel for the error class so errors.Is works across
// the retry controller boundary.
func (e *SourceError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	switch e.Class {
	case ErrorClassNetwork:
		return ErrNetwork
	case ErrorClassRateLimited:
		return ErrRateLimited
	case ErrorClassParse:
		return ErrParse
	case ErrorClassUnauthorized:
		return ErrUnauthorized
	case ErrorClassTimeout:
		return ErrTimeout
	default:
		return nil
	}
}

// NewSourceError builds a SourceError wrapping the given cause.
func NewSourceError(source SourceType, class ErrorClass, message string, cause error) *SourceError {
	return &SourceError{Source: source, Class: class, Message: message, Cause: cause}
}

// StatusToError converts a non-2xx HTTP status into a classified SourceError.
func StatusToError(source SourceType, statusCode int, message string) *SourceError {
	class := ErrorClassNetwork
	var cause error = ErrNetwork
	switch {
	case statusCode == http.StatusTooManyRequests:
		class = ErrorClassRateLimited
		cause = ErrRateLimited
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		class = ErrorClassUnauthorized
		cause = ErrUnauthorized
	case statusCode == http.StatusNotFound:
		// A missing endpoint will not heal on retry.
		class = ErrorClassParse
		cause = ErrNotFound
	case statusCode == http.StatusRequestTimeout, statusCode == http.StatusGatewayTimeout:
		class = ErrorClassTimeout
		cause = ErrTimeout
	}
	return &SourceError{
		Source:     source,
		Class:      class,
		StatusCode: statusCode,
		Message:    message,
		Cause:      cause,
	}
}

// RateLimitError carries the Retry-After hint from a throttling source.
type RateLimitError struct {
	Source     SourceType
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited by %s: retry after %s", e.Source.DisplayName(), e.RetryAfter)
}

// Unwrap returns the underlying sentinel error for use with errors.Is.
func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}
