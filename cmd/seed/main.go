// seed inserts development sample accounts for local testing.
// Idempotent: skips any account whose phone already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"carelink/backend/internal/config"
	"carelink/backend/internal/db"
	"carelink/backend/internal/patient/domain"
	patientrepo "carelink/backend/internal/patient/repository"
	"carelink/backend/internal/security"
)

const devPassword = "password123"

type seedAccount struct {
	phone    string
	role     domain.Role
	fullName string
}

var seedAccounts = []seedAccount{
	{phone: "66810000001", role: domain.RoleAdmin, fullName: "Dev Admin"},
	{phone: "66810000002", role: domain.RoleStaff, fullName: "Dev Staff"},
	{phone: "66810000003", role: domain.RoleDoctor, fullName: "Dr. Dev"},
	{phone: "66810000004", role: domain.RolePatient, fullName: "Dev Patient"},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if cfg.DatabaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is not set; seed requires a database")
		os.Exit(1)
	}
	if cfg.Env == "production" {
		fmt.Fprintln(os.Stderr, "seed: refusing to run with APP_ENV=production")
		os.Exit(1)
	}

	conn, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	repo := patientrepo.NewPostgresRepository(conn)
	hasher := security.NewHasher(cfg.BcryptCost)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, acct := range seedAccounts {
		existing, err := repo.FindByPhone(ctx, acct.phone)
		if err != nil {
			log.Fatalf("seed: lookup %s: %v", acct.phone, err)
		}
		if existing != nil {
			log.Printf("seed: %s (%s) already exists, skipping", acct.phone, acct.role)
			continue
		}
		hash, err := hasher.Hash([]byte(devPassword))
		if err != nil {
			log.Fatalf("seed: hash password: %v", err)
		}
		p := &domain.Patient{
			Phone:        acct.phone,
			Role:         acct.role,
			PasswordHash: hash,
			FullName:     acct.fullName,
			Status:       domain.StatusActive,
		}
		if err := repo.Create(ctx, p); err != nil {
			log.Fatalf("seed: create %s: %v", acct.phone, err)
		}
		log.Printf("seed: created %s account %s (%s)", acct.role, acct.phone, p.ID)
	}
	log.Printf("seed: done; all accounts use password %q", devPassword)
}
