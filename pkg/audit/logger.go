package audit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/platinummonkey/codehub/pkg/contextkeys"
)

// Logger is the interface for audit logging
type Logger interface {
	// Log records an audit event
	Log(ctx context.Context, event *Event) error

	// Close flushes and releases the logger
	Close() error
}

// NewEvent creates an event populated from the request
func NewEvent(r *http.Request, eventType EventType, status EventStatus) *Event {
	event := &Event{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Status:    status,
	}

	if r != nil {
		event.IPAddress = clientIP(r)
		event.UserAgent = r.UserAgent()
		event.RequestID = contextkeys.GetRequestID(r.Context())
		event.Method = r.Method
		event.Path = r.URL.Path
	}

	return event
}

// clientIP extracts the client IP from the request
func clientIP(r *http.Request) string {
	// Check X-Forwarded-For header first; the left-most entry is the client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	// Fall back to RemoteAddr
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// NoOpLogger discards every event
type NoOpLogger struct{}

func (NoOpLogger) Log(ctx context.Context, event *Event) error {
	return nil
}

func (NoOpLogger) Close() error {
	return nil
}
