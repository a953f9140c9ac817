package audit

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogrusLogger writes audit events to a logrus logger. Failed events are
// logged at warn level, the rest at info.
type LogrusLogger struct {
	logger *logrus.Logger
}

// NewLogrusLogger creates a logger writing to logger
func NewLogrusLogger(logger *logrus.Logger) *LogrusLogger {
	return &LogrusLogger{logger: logger}
}

// Log logs an audit event
func (l *LogrusLogger) Log(ctx context.Context, event *Event) error {
	fields := logrus.Fields{
		"audit":      true,
		"event_type": string(event.EventType),
		"status":     string(event.Status),
	}
	if event.UserID != "" {
		fields["user_id"] = event.UserID
	}
	if event.Username != "" {
		fields["username"] = event.Username
	}
	if event.Provider != "" {
		fields["provider"] = event.Provider
	}
	if event.IPAddress != "" {
		fields["ip_address"] = event.IPAddress
	}
	if event.RequestID != "" {
		fields["request_id"] = event.RequestID
	}
	for k, v := range event.Metadata {
		fields["meta_"+k] = v
	}

	entry := l.logger.WithContext(ctx).WithFields(fields)
	msg := event.Message
	if msg == "" {
		msg = "audit event"
	}

	if event.Status == EventStatusFailure {
		entry.Warn(msg)
	} else {
		entry.Info(msg)
	}
	return nil
}

// Close is a no-op; the underlying logger belongs to the caller
func (l *LogrusLogger) Close() error {
	return nil
}
