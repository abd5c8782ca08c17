// Package producer writes telemetry events to Kafka.
package producer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"carelink/backend/internal/telemetry"
)

const writeTimeout = 5 * time.Second

// Producer is the telemetry sink contract. Callers treat emits as
// best-effort and must not fail requests on producer errors.
type Producer interface {
	Emit(ctx context.Context, event *telemetry.Event) error
	// Close releases the underlying writer. Safe to call more than once.
	Close() error
}

// KafkaProducer publishes events as JSON messages on a single topic.
type KafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewKafkaProducer returns a producer for the topic, or nil when brokers or
// topic are unconfigured so callers can wire it unconditionally.
func NewKafkaProducer(brokers []string, topic string) (*KafkaProducer, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, nil
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaProducer{writer: w, topic: topic}, nil
}

// Emit marshals the event and writes it under a bounded timeout derived from
// the caller's context.
func (p *KafkaProducer) Emit(ctx context.Context, event *telemetry.Event) error {
	if p == nil || p.writer == nil || event == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	if err := p.writer.WriteMessages(writeCtx, kafka.Message{Value: payload}); err != nil {
		log.Printf("telemetry: kafka emit failed: %v", err)
		return err
	}
	return nil
}

// Close closes the Kafka writer.
func (p *KafkaProducer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
