package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type captureEmitter struct {
	mu     sync.Mutex
	events []*Event
	err    error
	done   chan struct{}
}

func newCaptureEmitter(expected int) *captureEmitter {
	return &captureEmitter{done: make(chan struct{}, expected)}
}

func (c *captureEmitter) Emit(_ context.Context, event *Event) error {
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()
	c.done <- struct{}{}
	return c.err
}

func (c *captureEmitter) wait(t *testing.T, n int) []*Event {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for emit %d of %d", i+1, n)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Event(nil), c.events...)
}

func TestEmitAsyncDelivers(t *testing.T) {
	emitter := newCaptureEmitter(1)
	event := &Event{EventType: "login.auth", Source: "carelink-server", CreatedAt: time.Now().UTC()}

	EmitAsync(emitter, context.Background(), event)

	events := emitter.wait(t, 1)
	if events[0] != event {
		t.Fatal("expected the same event delivered")
	}
}

func TestEmitAsyncNilEmitterAndEvent(t *testing.T) {
	// Must not panic or block.
	EmitAsync(nil, context.Background(), &Event{})
	EmitAsync(newCaptureEmitter(1), context.Background(), nil)
}

func TestEmitAsyncSurvivesCanceledRequestContext(t *testing.T) {
	emitter := newCaptureEmitter(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	EmitAsync(emitter, ctx, &Event{EventType: "logout.auth"})

	if events := emitter.wait(t, 1); events[0].EventType != "logout.auth" {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestMultiEmitterFansOut(t *testing.T) {
	a := newCaptureEmitter(1)
	b := newCaptureEmitter(1)
	failing := newCaptureEmitter(1)
	failing.err = errors.New("broker down")

	m := MultiEmitter{failing, nil, a, b}
	err := m.Emit(context.Background(), &Event{EventType: "register.auth"})
	if err == nil {
		t.Fatal("expected first error surfaced")
	}
	a.wait(t, 1)
	b.wait(t, 1)
}

func TestAuditEmitterBridgesAuditEvents(t *testing.T) {
	emitter := newCaptureEmitter(1)
	bridge := &AuditEmitter{
		Emitter:     emitter,
		Source:      "carelink-server",
		IPExtractor: func(context.Context) string { return "203.0.113.9" },
	}

	bridge.LogEvent(context.Background(), "patient-1", "login", "auth", `{"status":200}`)

	e := emitter.wait(t, 1)[0]
	if e.EventType != "login.auth" || e.UserID != "patient-1" || e.IP != "203.0.113.9" {
		t.Fatalf("unexpected event: %+v", e)
	}
	if e.Source != "carelink-server" || e.CreatedAt.IsZero() {
		t.Fatalf("source/timestamp not set: %+v", e)
	}
}
