// Package contextkeys provides centralized context key definitions
//
// All context keys used across the application are defined here so their
// producers and consumers are discoverable in one place.
//
// USAGE PATTERN:
//
//	ctx = contextkeys.WithUser(ctx, user)
//	user, _ := ctx.Value(contextkeys.UserKey).(*auth.User)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// UserKey contains the authenticated *auth.User
	// Set by: middleware.Session (pkg/middleware/session.go)
	// Required by: every gated page handler
	// Type: *auth.User
	UserKey Key = "user"

	// SessionTokenKey contains the opaque session token of the request
	// Set by: middleware.Session
	// Type: string
	SessionTokenKey Key = "session_token"

	// RequestIDKey contains request ID string (UUID)
	// Set by: httputil.RequestIDMiddleware
	// Used by: request logging
	// Type: string
	RequestIDKey Key = "request_id"
)

// WithUser adds the authenticated user to the context
func WithUser(ctx context.Context, user interface{}) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// WithSessionToken adds the session token to the context
func WithSessionToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, SessionTokenKey, token)
}

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetSessionToken retrieves the session token from context
func GetSessionToken(ctx context.Context) string {
	if token, ok := ctx.Value(SessionTokenKey).(string); ok {
		return token
	}
	return ""
}
