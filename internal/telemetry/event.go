// Package telemetry carries best-effort security events (logins, logouts,
// registrations, staff access) off the request path to Kafka and OTel.
package telemetry

import (
	"context"
	"time"
)

// Event is a single telemetry event. Serialized as JSON on the wire (Kafka
// message value, Loki log line).
type Event struct {
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	EventType string    `json:"event_type"`
	Source    string    `json:"source"`
	IP        string    `json:"ip,omitempty"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EventEmitter emits telemetry events (e.g. to Kafka or OTel Logs).
// Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}

// MultiEmitter fans an event out to several emitters. Emit returns the first
// error but still tries every emitter.
type MultiEmitter []EventEmitter

func (m MultiEmitter) Emit(ctx context.Context, event *Event) error {
	var first error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil && first == nil {
			first = err
		}
	}
	return first
}
