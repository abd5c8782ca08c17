package telemetry

import (
	"context"
	"time"
)

// AuditEmitter adapts an EventEmitter to the audit logger interface, so the
// same audit trail that lands in Postgres also flows through the telemetry
// pipeline. Events are emitted asynchronously.
type AuditEmitter struct {
	Emitter EventEmitter
	Source  string
	// IPExtractor returns the client IP from the request context; may be nil.
	IPExtractor func(context.Context) string
}

// LogEvent emits the audit event as telemetry. Fire-and-forget.
func (a *AuditEmitter) LogEvent(ctx context.Context, userID, action, resource, metadata string) {
	if a == nil || a.Emitter == nil {
		return
	}
	ip := ""
	if a.IPExtractor != nil {
		ip = a.IPExtractor(ctx)
	}
	EmitAsync(a.Emitter, ctx, &Event{
		UserID:    userID,
		EventType: action + "." + resource,
		Source:    a.Source,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	})
}
