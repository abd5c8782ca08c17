// Package repository provides Postgres persistence for OTP challenges.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"carelink/backend/internal/otp/domain"
)

// PostgresStore implements the otp.Store interface on Postgres. The table
// keeps one row per phone (the current challenge); issuing overwrites it,
// which is the supersede rule. Consume and DecrementAttempts are single
// conditional UPDATEs, so concurrent verifies cannot both win.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a challenge store backed by the given db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Put stores the challenge, replacing any prior row for its phone.
func (s *PostgresStore) Put(ctx context.Context, c *domain.Challenge) error {
	const q = `
INSERT INTO otp_challenges (id, phone, code_hash, issued_at, expires_at, attempts_remaining, consumed)
VALUES ($1, $2, $3, $4, $5, $6, false)
ON CONFLICT (phone) DO UPDATE SET
  id = EXCLUDED.id,
  code_hash = EXCLUDED.code_hash,
  issued_at = EXCLUDED.issued_at,
  expires_at = EXCLUDED.expires_at,
  attempts_remaining = EXCLUDED.attempts_remaining,
  consumed = false`
	_, err := s.db.ExecContext(ctx, q, c.ID, c.Phone, c.CodeHash, c.IssuedAt, c.ExpiresAt, c.AttemptsRemaining)
	return err
}

// Get returns the current challenge for phone, or nil if none exists.
// It returns an error only for database failures, not for missing rows.
func (s *PostgresStore) Get(ctx context.Context, phone string) (*domain.Challenge, error) {
	const q = `
SELECT id, phone, code_hash, issued_at, expires_at, attempts_remaining, consumed
FROM otp_challenges WHERE phone = $1`
	var c domain.Challenge
	err := s.db.QueryRowContext(ctx, q, phone).Scan(
		&c.ID, &c.Phone, &c.CodeHash, &c.IssuedAt, &c.ExpiresAt, &c.AttemptsRemaining, &c.Consumed,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// DecrementAttempts decrements the remaining attempts for the challenge if it
// is still current. Returns the new value, or -1 if the row is gone or the
// challenge was superseded.
func (s *PostgresStore) DecrementAttempts(ctx context.Context, phone, id string) (int, error) {
	const q = `
UPDATE otp_challenges
SET attempts_remaining = GREATEST(attempts_remaining - 1, 0)
WHERE phone = $1 AND id = $2
RETURNING attempts_remaining`
	var remaining int
	err := s.db.QueryRowContext(ctx, q, phone, id).Scan(&remaining)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return -1, nil
		}
		return -1, err
	}
	return remaining, nil
}

// Consume marks the challenge consumed if it is current, unconsumed, and
// unexpired. The conditional UPDATE makes exactly one concurrent caller win.
func (s *PostgresStore) Consume(ctx context.Context, phone, id string) (bool, error) {
	const q = `
UPDATE otp_challenges
SET consumed = true
WHERE phone = $1 AND id = $2 AND consumed = false AND expires_at > now()
RETURNING id`
	var got string
	err := s.db.QueryRowContext(ctx, q, phone, id).Scan(&got)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Prune deletes challenges whose expiry has passed. Safe to run on a timer.
func (s *PostgresStore) Prune(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM otp_challenges WHERE expires_at <= now()`)
	return err
}
