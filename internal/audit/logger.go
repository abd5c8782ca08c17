// Package audit records best-effort audit events for security-relevant
// actions: registration, login, logout, profile changes, and staff access to
// patient lists.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"carelink/backend/internal/audit/domain"
	auditrepo "carelink/backend/internal/audit/repository"
)

// SentinelUserID is the user_id recorded for events with no authenticated
// subject (e.g. a failed login or a rejected registration).
const SentinelUserID = "_anonymous"

// IPExtractor returns the client IP for the request context.
type IPExtractor func(context.Context) string

// AuditLogger writes a single audit event with explicit action/resource.
// LogEvent is best-effort: failures are logged and do not affect the caller.
type AuditLogger interface {
	LogEvent(ctx context.Context, userID, action, resource, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo and uses ipExtractor for client IP.
// ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one audit log entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, userID, action, resource, metadata string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	if userID == "" {
		userID = SentinelUserID
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to write event action=%s resource=%s: %v", action, resource, err)
	}
}

// NopLogger is an AuditLogger that drops all events. Used in tests and when
// auditing is disabled.
type NopLogger struct{}

func (NopLogger) LogEvent(context.Context, string, string, string, string) {}

// Multi fans each event out to every logger in the slice. Nil entries are
// skipped.
type Multi []AuditLogger

func (m Multi) LogEvent(ctx context.Context, userID, action, resource, metadata string) {
	for _, l := range m {
		if l != nil {
			l.LogEvent(ctx, userID, action, resource, metadata)
		}
	}
}
