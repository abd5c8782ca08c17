// Package auth implements account registration, OTP login, and session
// revocation on top of the patient store, the OTP ledger, and the token
// provider.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carelink/backend/internal/patient/domain"
	"carelink/backend/internal/phone"
	"carelink/backend/internal/security"
)

var (
	// ErrPhoneAlreadyRegistered is returned by Register when an account
	// already exists for the phone number.
	ErrPhoneAlreadyRegistered = errors.New("phone already registered")

	// ErrAccountNotFound is returned by LoginWithOTP and Profile when no
	// account exists for the subject.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountDisabled is returned when the account exists but has been
	// disabled by an administrator.
	ErrAccountDisabled = errors.New("account disabled")
)

// ValidationError reports a rejected registration or profile input.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid input: " + e.Reason }

// PatientRepository is the slice of the patient store the service consumes.
type PatientRepository interface {
	FindByPhone(ctx context.Context, phone string) (*domain.Patient, error)
	GetByID(ctx context.Context, id string) (*domain.Patient, error)
	Create(ctx context.Context, p *domain.Patient) error
	UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) (*domain.Patient, error)
}

// OTPVerifier confirms ownership of a phone number via a one-time code.
type OTPVerifier interface {
	Verify(ctx context.Context, rawPhone, code string) (string, error)
}

// TokenIssuer mints session tokens.
type TokenIssuer interface {
	Issue(subjectID, role string) (token, sessionID string, expiresAt time.Time, err error)
}

// SessionRevoker records revoked sessions until their natural expiry. Keys
// are hashed session ids (security.HashToken), never the raw id.
type SessionRevoker interface {
	Revoke(ctx context.Context, sessionKey string, expiresAt time.Time) error
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(password []byte) (string, error)
	Compare(hash string, password []byte) error
}

// Session is the result of a successful registration or login.
type Session struct {
	Token     string
	SessionID string
	ExpiresAt time.Time
	Patient   *domain.Patient
}

// Service wires registration, login and logout together.
type Service struct {
	patients PatientRepository
	otp      OTPVerifier
	tokens   TokenIssuer
	revoker  SessionRevoker
	hasher   Hasher
}

func NewService(patients PatientRepository, otp OTPVerifier, tokens TokenIssuer, revoker SessionRevoker, hasher Hasher) *Service {
	return &Service{patients: patients, otp: otp, tokens: tokens, revoker: revoker, hasher: hasher}
}

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Phone    string
	Password string
	FullName string
}

const minPasswordLength = 8

// Register creates a patient account for the phone number and opens a
// session for it. The phone is normalized to canonical form before any
// lookup, so the same number in local and international form maps to one
// account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	canonical, err := phone.Normalize(in.Phone)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < minPasswordLength {
		return nil, &ValidationError{Reason: fmt.Sprintf("password must be at least %d characters", minPasswordLength)}
	}

	existing, err := s.patients.FindByPhone(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("lookup phone: %w", err)
	}
	if existing != nil {
		return nil, ErrPhoneAlreadyRegistered
	}

	hash, err := s.hasher.Hash([]byte(in.Password))
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	p := &domain.Patient{
		Phone:        canonical,
		Role:         domain.RolePatient,
		PasswordHash: hash,
		FullName:     in.FullName,
		Status:       domain.StatusActive,
	}
	if err := s.patients.Create(ctx, p); err != nil {
		return nil, err
	}
	return s.openSession(p)
}

// LoginWithOTP verifies the one-time code for the phone number and, when the
// challenge passes, opens a session for the account that owns the number.
// Errors from the OTP ledger pass through unchanged so callers can map them
// to responses.
func (s *Service) LoginWithOTP(ctx context.Context, rawPhone, code string) (*Session, error) {
	canonical, err := s.otp.Verify(ctx, rawPhone, code)
	if err != nil {
		return nil, err
	}
	p, err := s.patients.FindByPhone(ctx, canonical)
	if err != nil {
		return nil, fmt.Errorf("lookup phone: %w", err)
	}
	if p == nil {
		return nil, ErrAccountNotFound
	}
	if p.Status != domain.StatusActive {
		return nil, ErrAccountDisabled
	}
	return s.openSession(p)
}

// Logout revokes the session so the token is rejected from now on even
// though it has not expired. The deny-list stores only a hash of the session
// id; the guard hashes the same way before checking membership.
func (s *Service) Logout(ctx context.Context, sessionID string, expiresAt time.Time) error {
	if err := s.revoker.Revoke(ctx, security.HashToken(sessionID), expiresAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Profile returns the account record for the subject.
func (s *Service) Profile(ctx context.Context, subjectID string) (*domain.Patient, error) {
	p, err := s.patients.GetByID(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if p == nil {
		return nil, ErrAccountNotFound
	}
	return p, nil
}

// UpdateProfile applies the given profile changes and returns the updated
// record.
func (s *Service) UpdateProfile(ctx context.Context, subjectID string, upd domain.ProfileUpdate) (*domain.Patient, error) {
	if upd.FullName != nil && *upd.FullName == "" {
		return nil, &ValidationError{Reason: "full name must not be empty"}
	}
	p, err := s.patients.UpdateProfile(ctx, subjectID, upd)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if p == nil {
		return nil, ErrAccountNotFound
	}
	return p, nil
}

func (s *Service) openSession(p *domain.Patient) (*Session, error) {
	token, sessionID, expiresAt, err := s.tokens.Issue(p.ID, string(p.Role))
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, SessionID: sessionID, ExpiresAt: expiresAt, Patient: p}, nil
}

var _ TokenIssuer = (*security.TokenProvider)(nil)
