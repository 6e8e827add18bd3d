package common

import (
	"context"
)

type contextKey string

const (
	ContextKeyRequestID   contextKey = "request_id"
	ContextKeyProfileID   contextKey = "profile_id"
	ContextKeyContentHash contextKey = "content_hash"
)

// WithRequestID tags the context with a request or queue trace id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithProfileID adds a profile ID to the context
func WithProfileID(ctx context.Context, profileID string) context.Context {
	return context.WithValue(ctx, ContextKeyProfileID, profileID)
}

// WithContentHash carries the sha256 hex of the document being processed.
func WithContentHash(ctx context.Context, hashHex string) context.Context {
	return context.WithValue(ctx, ContextKeyContentHash, hashHex)
}

// LogAttrs returns the tagged values as slog key/value pairs, skipping unset ones.
func LogAttrs(ctx context.Context) []any {
	var out []any
	for _, k := range []contextKey{ContextKeyRequestID, ContextKeyProfileID, ContextKeyContentHash} {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			out = append(out, string(k), v)
		}
	}
	return out
}
