// Package otp issues and verifies short-lived one-time codes per phone number.
package otp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"carelink/backend/internal/otp/domain"
	"carelink/backend/internal/phone"
	"carelink/backend/internal/ratelimit"
)

// Sentinel errors for verify outcomes; handlers map them to HTTP codes.
// A consumed, superseded, or absent challenge is reported as ErrExpired so the
// client's remedy is always the same: request a new code.
var (
	ErrExpired           = errors.New("otp challenge expired")
	ErrInvalidCode       = errors.New("invalid otp code")
	ErrAttemptsExhausted = errors.New("otp attempts exhausted")
)

// RateLimitedError reports that issuance or verification cadence for a phone
// number was exceeded. Expected under load; surfaced as HTTP 429.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

// CodeSender delivers the code to the phone's owner (e.g. an SMS gateway).
// Best-effort: the ledger dispatches fire-and-forget and never blocks the
// request path on delivery.
type CodeSender interface {
	SendCode(phone, code string) error
}

// CodeRecorder receives plain codes for dev-mode retrieval. Production runs
// with a nil recorder.
type CodeRecorder interface {
	Put(ctx context.Context, phone, code string, expiresAt time.Time)
}

// Ledger owns OTP challenges: issuance cadence, supersede-on-reissue,
// bounded verify attempts, and single-use consumption.
type Ledger struct {
	store    Store
	limiter  ratelimit.Limiter
	sender   CodeSender
	recorder CodeRecorder
	ttl      time.Duration
	attempts int
	nowF     func() time.Time
}

// NewLedger returns a Ledger issuing codes with the given TTL and attempt
// budget. sender may be nil (no delivery, e.g. in tests); recorder may be nil
// (dev OTP mode off).
func NewLedger(store Store, limiter ratelimit.Limiter, sender CodeSender, recorder CodeRecorder, ttl time.Duration, attempts int) *Ledger {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if attempts <= 0 {
		attempts = 5
	}
	return &Ledger{
		store:    store,
		limiter:  limiter,
		sender:   sender,
		recorder: recorder,
		ttl:      ttl,
		attempts: attempts,
		nowF:     time.Now,
	}
}

// Request issues a new challenge for rawPhone, superseding any active one.
// Returns *phone.ValidationError for malformed numbers and *RateLimitedError
// when the per-number issuance cadence is exceeded. Delivery is dispatched
// asynchronously; its failure does not fail the request.
func (l *Ledger) Request(ctx context.Context, rawPhone string) (*domain.Challenge, error) {
	p, err := phone.Normalize(rawPhone)
	if err != nil {
		return nil, err
	}
	if d := l.limiter.Check("phone:"+p, ratelimit.ClassOTPRequest); !d.Allowed {
		return nil, &RateLimitedError{RetryAfter: d.RetryAfter}
	}
	code, err := GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("otp: generate code: %w", err)
	}
	now := l.nowF().UTC()
	c := &domain.Challenge{
		ID:                uuid.New().String(),
		Phone:             p,
		CodeHash:          HashCode(code),
		IssuedAt:          now,
		ExpiresAt:         now.Add(l.ttl),
		AttemptsRemaining: l.attempts,
	}
	if err := l.store.Put(ctx, c); err != nil {
		return nil, fmt.Errorf("otp: store challenge: %w", err)
	}
	if l.recorder != nil {
		l.recorder.Put(ctx, p, code, c.ExpiresAt)
	}
	l.dispatch(p, code)
	return c, nil
}

// dispatch sends the code without blocking the request path. Errors are
// logged; delivery is at-least-once from the gateway's perspective and the
// ledger does not wait for confirmation.
func (l *Ledger) dispatch(p, code string) {
	if l.sender == nil {
		return
	}
	go func() {
		if err := l.sender.SendCode(p, code); err != nil {
			log.Printf("otp: code delivery to %s failed: %v", p, err)
		}
	}()
}

// Verify checks code against the active challenge for rawPhone. On success
// the challenge is consumed (single-use) and the canonical phone is returned.
// Outcomes: ErrExpired (absent/expired/superseded/consumed),
// ErrAttemptsExhausted (budget spent, even for the correct code),
// ErrInvalidCode (mismatch; decrements the budget), *RateLimitedError.
func (l *Ledger) Verify(ctx context.Context, rawPhone, code string) (string, error) {
	p, err := phone.Normalize(rawPhone)
	if err != nil {
		return "", err
	}
	if d := l.limiter.Check("phone:"+p, ratelimit.ClassOTPVerify); !d.Allowed {
		return "", &RateLimitedError{RetryAfter: d.RetryAfter}
	}
	c, err := l.store.Get(ctx, p)
	if err != nil {
		return "", fmt.Errorf("otp: load challenge: %w", err)
	}
	if c == nil || !c.Active(l.nowF()) {
		return "", ErrExpired
	}
	if c.AttemptsRemaining <= 0 {
		return "", ErrAttemptsExhausted
	}
	if !CodeEqual(code, c.CodeHash) {
		if _, err := l.store.DecrementAttempts(ctx, p, c.ID); err != nil {
			return "", fmt.Errorf("otp: record failed attempt: %w", err)
		}
		return "", ErrInvalidCode
	}
	ok, err := l.store.Consume(ctx, p, c.ID)
	if err != nil {
		return "", fmt.Errorf("otp: consume challenge: %w", err)
	}
	if !ok {
		// Lost the race to a concurrent verify, or expired in between.
		return "", ErrExpired
	}
	return p, nil
}
