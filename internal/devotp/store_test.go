package devotp

import (
	"context"
	"testing"
	"time"
)

func TestPutGetRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Put(ctx, "66812345678", "123456", time.Now().Add(5*time.Minute))
	code, ok := s.Get(ctx, "66812345678")
	if !ok || code != "123456" {
		t.Fatalf("Get = (%q, %v), want (123456, true)", code, ok)
	}
}

func TestGetMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, ok := s.Get(context.Background(), "66812345678"); ok {
		t.Fatal("expected ok=false for missing phone")
	}
}

func TestPutReplaces(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	exp := time.Now().Add(5 * time.Minute)

	s.Put(ctx, "66812345678", "111111", exp)
	s.Put(ctx, "66812345678", "222222", exp)
	code, ok := s.Get(ctx, "66812345678")
	if !ok || code != "222222" {
		t.Fatalf("Get = (%q, %v), want latest code", code, ok)
	}
}

func TestGetExpired(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()
	s.nowF = func() time.Time { return now }

	s.Put(ctx, "66812345678", "123456", now.Add(time.Minute))
	now = now.Add(2 * time.Minute)
	if _, ok := s.Get(ctx, "66812345678"); ok {
		t.Fatal("expected ok=false for expired code")
	}
	// Expired entry is dropped.
	s.mu.RLock()
	_, present := s.m["66812345678"]
	s.mu.RUnlock()
	if present {
		t.Fatal("expired entry should be deleted on read")
	}
}
