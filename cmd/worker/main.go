// Worker drains telemetry events from Kafka into Loki.
// Requires KAFKA_BROKERS and LOKI_URL; TELEMETRY_KAFKA_TOPIC and
// KAFKA_GROUP_ID override the defaults. HTTP_ADDR is read by config but
// unused here (set it to :0).
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"

	"carelink/backend/internal/config"
	"carelink/backend/internal/telemetry/loki"
)

const pushTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	brokers := cfg.TelemetryKafkaBrokersList()
	if len(brokers) == 0 {
		log.Fatal("worker: KAFKA_BROKERS is required")
	}
	if cfg.LokiURL == "" {
		log.Fatal("worker: LOKI_URL is required")
	}

	topic := cfg.TelemetryKafkaTopic
	if topic == "" {
		topic = "carelink-telemetry"
	}
	groupID := cfg.KafkaGroupID
	if groupID == "" {
		groupID = "carelink-telemetry-worker"
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sink := loki.NewClient(cfg.LokiURL)
	log.Printf("worker: consuming %s (group %s) into %s", topic, groupID, cfg.LokiURL)

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Println("worker: stopped")
				return
			}
			log.Printf("worker: kafka read: %v", err)
			continue
		}
		push(ctx, sink, msg.Value)
	}
}

func push(ctx context.Context, sink *loki.Client, value []byte) {
	pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()
	if err := sink.PushEventJSON(pushCtx, value); err != nil {
		log.Printf("worker: loki push: %v", err)
	}
}
