package middleware

import (
	"context"

	"carelink/backend/internal/security"
)

type contextKey struct{ name string }

var (
	sessionKey  = contextKey{"session"}
	clientIPKey = contextKey{"client_ip"}
)

// WithSession returns a context carrying the validated session. Handlers
// read it via GetSession.
func WithSession(ctx context.Context, s *security.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// GetSession returns the validated session from context and true if set;
// otherwise nil, false.
func GetSession(ctx context.Context) (*security.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*security.Session)
	return s, ok
}

// WithClientIP returns a context carrying the client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// ClientIPFromContext returns the client IP from context, or "" if unset.
// Shaped as an audit.IPExtractor.
func ClientIPFromContext(ctx context.Context) string {
	ip, _ := ctx.Value(clientIPKey).(string)
	return ip
}
