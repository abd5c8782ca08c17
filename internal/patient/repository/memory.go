package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"carelink/backend/internal/patient/domain"
)

// MemoryRepository is an in-memory patient store, used when no database is
// configured (local development) and in tests. Safe for concurrent use.
type MemoryRepository struct {
	mu      sync.Mutex
	byPhone map[string]*domain.Patient
	byID    map[string]*domain.Patient
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byPhone: make(map[string]*domain.Patient),
		byID:    make(map[string]*domain.Patient),
	}
}

func (r *MemoryRepository) Create(_ context.Context, p *domain.Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byPhone[p.Phone]; exists {
		return ErrDuplicatePhone
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	r.byPhone[cp.Phone] = &cp
	r.byID[cp.ID] = &cp
	return nil
}

func (r *MemoryRepository) FindByPhone(_ context.Context, phone string) (*domain.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.byPhone[phone]), nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*domain.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return clone(r.byID[id]), nil
}

func (r *MemoryRepository) UpdateProfile(_ context.Context, id string, upd domain.ProfileUpdate) (*domain.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.byID[id]
	if p == nil {
		return nil, nil
	}
	if upd.FullName != nil {
		p.FullName = *upd.FullName
	}
	if upd.DateOfBirth != nil {
		dob := *upd.DateOfBirth
		p.DateOfBirth = &dob
	}
	p.UpdatedAt = time.Now().UTC()
	return clone(p), nil
}

// List returns patients ordered by creation time, newest first.
func (r *MemoryRepository) List(_ context.Context, limit, offset int) ([]*domain.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*domain.Patient, 0, len(r.byID))
	for _, p := range r.byID {
		all = append(all, p)
	}
	sortByCreatedDesc(all)
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	out := make([]*domain.Patient, len(all))
	for i, p := range all {
		out[i] = clone(p)
	}
	return out, nil
}

func sortByCreatedDesc(ps []*domain.Patient) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].CreatedAt.After(ps[j].CreatedAt) })
}

func clone(p *domain.Patient) *domain.Patient {
	if p == nil {
		return nil
	}
	cp := *p
	if p.DateOfBirth != nil {
		dob := *p.DateOfBirth
		cp.DateOfBirth = &dob
	}
	return &cp
}
