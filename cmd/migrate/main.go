// Applies the embedded SQL migrations: go run ./cmd/migrate [-direction=down]
package main

import (
	"flag"
	"log"

	"carelink/backend/internal/config"
	"carelink/backend/internal/db/migrate"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	if err := migrate.Run(cfg.DatabaseURL, *direction); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	log.Printf("migrate: %s complete", *direction)
}
