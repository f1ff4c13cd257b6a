// Package audit emits the append-only action log. Every mutating operation
// records actor, tenant and resource through here.
package audit

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"socialloom.io/internal/identity"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// WithRequestID attaches the request identifier to the context for audit
// correlation.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request id from context if present.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// Logger writes audit events as structured log lines.
type Logger struct {
	log zerolog.Logger
}

// New builds an audit logger on top of the service logger.
func New(log zerolog.Logger) *Logger {
	return &Logger{log: log.With().Str("type", "audit").Logger()}
}

// Event records one action, enriched with the acting principal and request id
// from the context.
func (l *Logger) Event(ctx context.Context, action, resourceType, resourceID string, fields map[string]string) {
	if l == nil {
		return
	}
	ev := l.log.Info().
		Str("action", action).
		Str("resource_type", resourceType).
		Str("resource_id", resourceID)
	if rid := RequestIDFromContext(ctx); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	if principal, ok := identity.PrincipalFromContext(ctx); ok {
		ev = ev.
			Str("actor_user_id", principal.UserID).
			Str("actor_tenant_id", principal.TenantID)
	}
	for k, v := range fields {
		ev = ev.Str(k, v)
	}
	ev.Msg("audit")
}
