// Package audit records account events: registrations, logins, logouts,
// external sign-ins and settings changes.
//
// # Overview
//
// Handlers build an Event from the request with NewEvent and hand it to a
// Logger. LogrusLogger writes events to the process log; DBLogger stores
// them in the audit_logs table of the PostgreSQL user database. MultiLogger
// fans one event out to several loggers.
//
// # Usage Example
//
//	event := audit.NewEvent(r, audit.EventTypeLogin, audit.EventStatusSuccess)
//	event.UserID = user.ID
//	event.Username = user.Username
//	if err := auditLogger.Log(r.Context(), event); err != nil {
//		logger.WithError(err).Warn("failed to record audit event")
//	}
//
// Audit failures never fail the request that triggered them.
package audit
