package domain

import (
	"errors"
	"time"
)

// Role is the access role carried in session tokens and checked by the
// route authorization policy.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
	RoleStaff   Role = "staff"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin, RoleStaff:
		return true
	}
	return false
}

type Status string

const (
	StatusActive   Status = "active"
	StatusDisabled Status = "disabled"
)

// Patient is the credential-store record for any account, including doctor
// and admin staff accounts. Phone is the canonical login identifier.
type Patient struct {
	ID           string
	Phone        string // canonical form
	Role         Role
	PasswordHash string
	FullName     string
	DateOfBirth  *time.Time // nil when not provided
	Status       Status
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate carries the profile fields a patient may change. Nil fields
// are left untouched.
type ProfileUpdate struct {
	FullName    *string
	DateOfBirth *time.Time
}

// Validate validates the record for persistence. Returns an error describing
// the first validation failure.
func (p *Patient) Validate() error {
	if p.Phone == "" {
		return errors.New("phone is required")
	}
	if p.Status == "" {
		p.Status = StatusActive
	}
	if p.Role == "" {
		p.Role = RolePatient
	}
	if !p.Role.Valid() {
		return errors.New("unknown role")
	}
	return nil
}
