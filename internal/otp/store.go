package otp

import (
	"context"
	"sync"
	"time"

	"carelink/backend/internal/otp/domain"
)

// Store persists OTP challenges. Put replaces any prior challenge for the
// phone (supersede). Consume and DecrementAttempts must be atomic per
// challenge: of two concurrent Consume calls for the same challenge, exactly
// one returns true.
type Store interface {
	// Put stores the challenge, superseding any prior challenge for its phone.
	Put(ctx context.Context, c *domain.Challenge) error
	// Get returns the current challenge for phone, or nil if none exists.
	// Superseded challenges are gone; expired or consumed ones may still be
	// returned so callers can distinguish outcomes.
	Get(ctx context.Context, phone string) (*domain.Challenge, error)
	// DecrementAttempts atomically decrements the challenge's remaining
	// attempts and returns the new value. Returns -1 if the challenge is no
	// longer current.
	DecrementAttempts(ctx context.Context, phone, id string) (int, error)
	// Consume atomically marks the challenge consumed. Returns true only for
	// the single caller that transitions it from active to consumed; false if
	// already consumed, expired, or superseded.
	Consume(ctx context.Context, phone, id string) (bool, error)
}

type memoryEntry struct {
	mu sync.Mutex
	c  domain.Challenge
}

// MemoryStore is an in-memory Store implementation. Entries carry their own
// lock so challenge mutation is serialized per phone without a global write
// lock on the hot path.
type MemoryStore struct {
	mu   sync.RWMutex
	m    map[string]*memoryEntry
	nowF func() time.Time
}

// NewMemoryStore returns a new in-memory challenge store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		m:    make(map[string]*memoryEntry),
		nowF: time.Now,
	}
}

// Put stores the challenge for its phone, superseding any prior one.
func (s *MemoryStore) Put(ctx context.Context, c *domain.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[c.Phone] = &memoryEntry{c: *c}
	return nil
}

// Get returns a copy of the current challenge for phone, or nil.
func (s *MemoryStore) Get(ctx context.Context, phone string) (*domain.Challenge, error) {
	s.mu.RLock()
	e, ok := s.m[phone]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	e.mu.Lock()
	c := e.c
	e.mu.Unlock()
	return &c, nil
}

// DecrementAttempts decrements the remaining attempts for the challenge if it
// is still the current one for phone. Returns the new value, or -1 if the
// challenge was superseded.
func (s *MemoryStore) DecrementAttempts(ctx context.Context, phone, id string) (int, error) {
	s.mu.RLock()
	e, ok := s.m[phone]
	s.mu.RUnlock()
	if !ok {
		return -1, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.c.ID != id {
		return -1, nil
	}
	if e.c.AttemptsRemaining > 0 {
		e.c.AttemptsRemaining--
	}
	return e.c.AttemptsRemaining, nil
}

// Consume marks the challenge consumed if it is current, unconsumed, and
// unexpired. Exactly one concurrent caller observes true.
func (s *MemoryStore) Consume(ctx context.Context, phone, id string) (bool, error) {
	s.mu.RLock()
	e, ok := s.m[phone]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.c.ID != id || e.c.Consumed || !s.nowF().Before(e.c.ExpiresAt) {
		return false, nil
	}
	e.c.Consumed = true
	return true, nil
}

// Prune removes challenges whose expiry has passed. Safe to run on a timer.
func (s *MemoryStore) Prune(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for phone, e := range s.m {
		e.mu.Lock()
		expired := !now.Before(e.c.ExpiresAt)
		e.mu.Unlock()
		if expired {
			delete(s.m, phone)
		}
	}
}
