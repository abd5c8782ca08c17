// Package revocation tracks sessions invalidated before their natural expiry.
//
// Tokens are self-verifying, so logout cannot make them stop verifying; the
// registry is the deny-list consulted on every authenticated request. An
// entry only needs to live until the token's own expiry passes, after which
// the token rejects itself and the entry is safe to forget.
package revocation

import (
	"context"
	"sync"
	"time"
)

// Registry is the deny-list of explicitly revoked sessions. Keys are opaque
// to the registry; callers store hashed session ids, never raw ones.
type Registry interface {
	// Revoke records the key as invalidated until expiresAt (the token's
	// own expiry, used for pruning). Idempotent: revoking an already-revoked
	// or already-expired key is a no-op, not an error.
	Revoke(ctx context.Context, sessionKey string, expiresAt time.Time) error
	// IsRevoked reports whether the key was explicitly revoked.
	// Callers must fail closed: on error, treat the session as revoked.
	IsRevoked(ctx context.Context, sessionKey string) (bool, error)
}

type memoryEntry struct {
	expiresAt time.Time
}

// Memory is an in-memory Registry for single-instance deployments and tests.
type Memory struct {
	mu   sync.RWMutex
	m    map[string]memoryEntry
	nowF func() time.Time
}

// NewMemory returns an empty in-memory registry.
func NewMemory() *Memory {
	return &Memory{
		m:    make(map[string]memoryEntry),
		nowF: time.Now,
	}
}

// Revoke records the session id. Already-expired sessions are skipped; their
// tokens cannot be replayed anyway.
func (r *Memory) Revoke(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if sessionID == "" || !r.nowF().Before(expiresAt) {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[sessionID] = memoryEntry{expiresAt: expiresAt}
	return nil
}

// IsRevoked reports membership. O(1).
func (r *Memory) IsRevoked(ctx context.Context, sessionID string) (bool, error) {
	r.mu.RLock()
	_, ok := r.m[sessionID]
	r.mu.RUnlock()
	return ok, nil
}

// Prune removes entries whose copied expiry has passed. An entry whose expiry
// is still in the future is never removed, even if requested early: it is the
// only record preventing replay before natural expiry.
func (r *Memory) Prune(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, e := range r.m {
		if !now.Before(e.expiresAt) {
			delete(r.m, id)
		}
	}
}
