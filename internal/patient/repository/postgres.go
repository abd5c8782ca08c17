// Package repository provides the Postgres-backed patient store.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"carelink/backend/internal/patient/domain"
)

// ErrDuplicatePhone is returned by Create when the phone number is already
// registered.
var ErrDuplicatePhone = errors.New("phone already registered")

// PostgresRepository persists patient records in Postgres.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const patientColumns = `id, phone, role, password_hash, full_name, date_of_birth, status, created_at, updated_at`

// Create inserts a new patient record. ID, CreatedAt and UpdatedAt are
// assigned by the repository.
func (r *PostgresRepository) Create(ctx context.Context, p *domain.Patient) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO patients (id, phone, role, password_hash, full_name, date_of_birth, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (phone) DO NOTHING`,
		p.ID, p.Phone, p.Role, p.PasswordHash, p.FullName, p.DateOfBirth, p.Status, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	// ON CONFLICT DO NOTHING swallows the conflict, so re-check ownership of
	// the phone to distinguish success from a duplicate.
	var ownerID string
	err = r.db.QueryRowContext(ctx, `SELECT id FROM patients WHERE phone = $1`, p.Phone).Scan(&ownerID)
	if err != nil {
		return fmt.Errorf("confirm insert: %w", err)
	}
	if ownerID != p.ID {
		return ErrDuplicatePhone
	}
	return nil
}

// FindByPhone returns the patient with the given canonical phone number, or
// nil if none exists.
func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (*domain.Patient, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE phone = $1`, phone)
	return scanPatient(row)
}

// GetByID returns the patient with the given id, or nil if none exists.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Patient, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE id = $1`, id)
	return scanPatient(row)
}

// UpdateProfile applies the non-nil fields of upd to the patient and returns
// the updated record, or nil if the patient does not exist.
func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.Patient, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE patients
		SET full_name = COALESCE($2, full_name),
		    date_of_birth = COALESCE($3, date_of_birth),
		    updated_at = now()
		WHERE id = $1
		RETURNING `+patientColumns,
		id, upd.FullName, upd.DateOfBirth)
	return scanPatient(row)
}

// List returns patient records ordered by creation time, newest first.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]*domain.Patient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	defer rows.Close()

	var out []*domain.Patient
	for rows.Next() {
		p, err := scanPatientRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row *sql.Row) (*domain.Patient, error) {
	p, err := scanPatientRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func scanPatientRow(row rowScanner) (*domain.Patient, error) {
	var p domain.Patient
	var dob sql.NullTime
	err := row.Scan(&p.ID, &p.Phone, &p.Role, &p.PasswordHash, &p.FullName, &dob, &p.Status, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if dob.Valid {
		t := dob.Time
		p.DateOfBirth = &t
	}
	return &p, nil
}
