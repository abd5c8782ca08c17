package audit

import (
	"context"
	"errors"
	"testing"

	"carelink/backend/internal/audit/domain"
)

type fakeRepo struct {
	entries []*domain.AuditLog
	err     error
}

func (f *fakeRepo) GetByID(context.Context, string) (*domain.AuditLog, error) { return nil, nil }

func (f *fakeRepo) ListByUser(context.Context, string, int32, int32) ([]*domain.AuditLog, error) {
	return nil, nil
}

func (f *fakeRepo) Create(_ context.Context, a *domain.AuditLog) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, a)
	return nil
}

func TestLogEventPersistsEntry(t *testing.T) {
	repo := &fakeRepo{}
	l := NewLogger(repo, func(context.Context) string { return "203.0.113.9" })

	l.LogEvent(context.Background(), "user-1", "login", "auth", `{"phone":"66812345678"}`)

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.ID == "" {
		t.Error("expected generated id")
	}
	if e.UserID != "user-1" || e.Action != "login" || e.Resource != "auth" || e.IP != "203.0.113.9" {
		t.Errorf("unexpected entry: %+v", e)
	}
	if e.CreatedAt.IsZero() {
		t.Error("expected CreatedAt set")
	}
}

func TestLogEventSentinelUser(t *testing.T) {
	repo := &fakeRepo{}
	l := NewLogger(repo, nil)

	l.LogEvent(context.Background(), "", "login_failure", "auth", "")

	if repo.entries[0].UserID != SentinelUserID {
		t.Errorf("expected sentinel user, got %q", repo.entries[0].UserID)
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("expected unknown ip, got %q", repo.entries[0].IP)
	}
}

func TestLogEventBestEffort(t *testing.T) {
	l := NewLogger(&fakeRepo{err: errors.New("db down")}, nil)
	// Must not panic or surface the error.
	l.LogEvent(context.Background(), "user-1", "login", "auth", "")
}

func TestNilRepoNoop(t *testing.T) {
	l := NewLogger(nil, nil)
	l.LogEvent(context.Background(), "user-1", "login", "auth", "")
}
