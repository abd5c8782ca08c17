package telemetry

import (
	"context"
	"log"
	"time"
)

// emitTimeout bounds a single background emit.
const emitTimeout = 5 * time.Second

// ShutdownDrainDuration is how long the server waits after stopping HTTP
// before tearing down telemetry providers, so in-flight emits can finish.
// Must be at least emitTimeout.
const ShutdownDrainDuration = emitTimeout

// EmitAsync emits the event on a background goroutine so request handlers
// never block on telemetry. The goroutine runs on context.Background with
// its own timeout, so canceling the request does not abort the emit. A nil
// emitter or event is a no-op. Failures are logged, never returned.
func EmitAsync(emitter EventEmitter, ctx context.Context, event *Event) {
	if emitter == nil || event == nil {
		return
	}
	go func() {
		emitCtx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			log.Printf("telemetry: async emit failed: %v", err)
		}
	}()
}
