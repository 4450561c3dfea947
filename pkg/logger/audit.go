package logger

import (
	"log/slog"
)

// AuditEvent captures a security-relevant action for structured audit logs.
// Identifiers only; never the credential, code, or token itself.
type AuditEvent struct {
	EventType  string // e.g. "login_success", "admin_code_issued"
	IdentityID string
	Role       string
	Email      string // masked before logging
	Reason     string
	Success    bool
}

// AuditLogger emits audit events on a dedicated log stream.
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger wraps a base logger with the audit component attribute.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{logger: logger.With(slog.String("component", "audit"))}
}

// LogAuthEvent records an authentication or verification outcome.
func (a *AuditLogger) LogAuthEvent(event AuditEvent) {
	attrs := []any{
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
	}
	if event.IdentityID != "" {
		attrs = append(attrs, slog.String("identity_id", event.IdentityID))
	}
	if event.Role != "" {
		attrs = append(attrs, slog.String("role", event.Role))
	}
	if event.Email != "" {
		attrs = append(attrs, slog.String("email", MaskedEmail(event.Email)))
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}

	if event.Success {
		a.logger.Info("audit_event", attrs...)
	} else {
		a.logger.Warn("audit_event", attrs...)
	}
}
