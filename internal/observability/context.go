package observability

import (
	"context"
)

// Context keys for observability data.
type contextKey string

const (
	requestIDKey contextKey = "request_id"
	queryIDKey   contextKey = "query_id"
)

// WithRequestID adds an HTTP request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext retrieves the request ID from context.
// Returns empty string if not present.
func RequestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// WithQueryID adds an aggregate query ID to the context.
func WithQueryID(ctx context.Context, queryID string) context.Context {
	return context.WithValue(ctx, queryIDKey, queryID)
}

// QueryIDFromContext retrieves the aggregate query ID from context.
// Returns empty string if not present.
func QueryIDFromContext(ctx context.Context) string {
	if v := ctx.Value(queryIDKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
