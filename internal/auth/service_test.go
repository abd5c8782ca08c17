package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"carelink/backend/internal/otp"
	"carelink/backend/internal/patient/domain"
	"carelink/backend/internal/phone"
	"carelink/backend/internal/security"
)

type fakePatients struct {
	byPhone map[string]*domain.Patient
	byID    map[string]*domain.Patient
	created []*domain.Patient
}

func newFakePatients() *fakePatients {
	return &fakePatients{byPhone: map[string]*domain.Patient{}, byID: map[string]*domain.Patient{}}
}

func (f *fakePatients) FindByPhone(_ context.Context, p string) (*domain.Patient, error) {
	return f.byPhone[p], nil
}

func (f *fakePatients) GetByID(_ context.Context, id string) (*domain.Patient, error) {
	return f.byID[id], nil
}

func (f *fakePatients) Create(_ context.Context, p *domain.Patient) error {
	if p.ID == "" {
		p.ID = "patient-" + p.Phone
	}
	f.byPhone[p.Phone] = p
	f.byID[p.ID] = p
	f.created = append(f.created, p)
	return nil
}

func (f *fakePatients) UpdateProfile(_ context.Context, id string, upd domain.ProfileUpdate) (*domain.Patient, error) {
	p := f.byID[id]
	if p == nil {
		return nil, nil
	}
	if upd.FullName != nil {
		p.FullName = *upd.FullName
	}
	if upd.DateOfBirth != nil {
		p.DateOfBirth = upd.DateOfBirth
	}
	return p, nil
}

type fakeVerifier struct {
	phone string
	code  string
	err   error
}

func (f *fakeVerifier) Verify(_ context.Context, rawPhone, code string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	canonical, err := phone.Normalize(rawPhone)
	if err != nil {
		return "", err
	}
	if canonical != f.phone || code != f.code {
		return "", otp.ErrInvalidCode
	}
	return canonical, nil
}

type fakeTokens struct {
	issued int
}

func (f *fakeTokens) Issue(subjectID, role string) (string, string, time.Time, error) {
	f.issued++
	return "token-" + subjectID + "-" + role, "session-" + subjectID, time.Now().Add(time.Hour), nil
}

type fakeRevoker struct {
	revoked map[string]time.Time
}

func (f *fakeRevoker) Revoke(_ context.Context, sessionID string, expiresAt time.Time) error {
	if f.revoked == nil {
		f.revoked = map[string]time.Time{}
	}
	f.revoked[sessionID] = expiresAt
	return nil
}

type fakeHasher struct{}

func (fakeHasher) Hash(password []byte) (string, error) { return "hashed:" + string(password), nil }

func (fakeHasher) Compare(hash string, password []byte) error {
	if hash != "hashed:"+string(password) {
		return errors.New("mismatch")
	}
	return nil
}

func newTestService(patients *fakePatients, verifier *fakeVerifier) (*Service, *fakeTokens, *fakeRevoker) {
	tokens := &fakeTokens{}
	revoker := &fakeRevoker{}
	return NewService(patients, verifier, tokens, revoker, fakeHasher{}), tokens, revoker
}

func TestRegisterCreatesPatientAndSession(t *testing.T) {
	patients := newFakePatients()
	svc, tokens, _ := newTestService(patients, &fakeVerifier{})

	sess, err := svc.Register(context.Background(), RegisterInput{
		Phone:    "0812345678",
		Password: "correct horse",
		FullName: "Somchai J",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sess.Token == "" || sess.SessionID == "" {
		t.Fatal("expected token and session id")
	}
	if sess.Patient.Phone != "66812345678" {
		t.Fatalf("expected canonical phone, got %q", sess.Patient.Phone)
	}
	if sess.Patient.Role != domain.RolePatient {
		t.Fatalf("expected patient role, got %q", sess.Patient.Role)
	}
	if sess.Patient.PasswordHash == "correct horse" {
		t.Fatal("password stored in plaintext")
	}
	if tokens.issued != 1 {
		t.Fatalf("expected 1 token issued, got %d", tokens.issued)
	}
}

func TestRegisterRejectsDuplicatePhoneAcrossFormats(t *testing.T) {
	patients := newFakePatients()
	svc, _, _ := newTestService(patients, &fakeVerifier{})

	if _, err := svc.Register(context.Background(), RegisterInput{Phone: "0812345678", Password: "long enough"}); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	// Same number, international format.
	_, err := svc.Register(context.Background(), RegisterInput{Phone: "+66812345678", Password: "long enough"})
	if !errors.Is(err, ErrPhoneAlreadyRegistered) {
		t.Fatalf("expected ErrPhoneAlreadyRegistered, got %v", err)
	}
	if len(patients.created) != 1 {
		t.Fatalf("expected 1 account, got %d", len(patients.created))
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc, _, _ := newTestService(newFakePatients(), &fakeVerifier{})

	_, err := svc.Register(context.Background(), RegisterInput{Phone: "0812345678", Password: "short"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestRegisterRejectsInvalidPhone(t *testing.T) {
	svc, _, _ := newTestService(newFakePatients(), &fakeVerifier{})

	_, err := svc.Register(context.Background(), RegisterInput{Phone: "12345", Password: "long enough"})
	var verr *phone.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected phone validation error, got %v", err)
	}
}

func TestLoginWithOTPOpensSession(t *testing.T) {
	patients := newFakePatients()
	p := &domain.Patient{ID: "p1", Phone: "66812345678", Role: domain.RoleDoctor, Status: domain.StatusActive}
	patients.byPhone[p.Phone] = p
	patients.byID[p.ID] = p
	svc, _, _ := newTestService(patients, &fakeVerifier{phone: "66812345678", code: "123456"})

	sess, err := svc.LoginWithOTP(context.Background(), "0812345678", "123456")
	if err != nil {
		t.Fatalf("LoginWithOTP: %v", err)
	}
	if sess.Patient.ID != "p1" {
		t.Fatalf("expected account p1, got %q", sess.Patient.ID)
	}
	if sess.Token != "token-p1-doctor" {
		t.Fatalf("expected role carried into token, got %q", sess.Token)
	}
}

func TestLoginWithOTPPassesThroughLedgerErrors(t *testing.T) {
	svc, _, _ := newTestService(newFakePatients(), &fakeVerifier{err: otp.ErrExpired})

	_, err := svc.LoginWithOTP(context.Background(), "0812345678", "123456")
	if !errors.Is(err, otp.ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}
}

func TestLoginWithOTPUnknownAccount(t *testing.T) {
	svc, tokens, _ := newTestService(newFakePatients(), &fakeVerifier{phone: "66812345678", code: "123456"})

	_, err := svc.LoginWithOTP(context.Background(), "0812345678", "123456")
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	if tokens.issued != 0 {
		t.Fatal("token must not be issued for unknown account")
	}
}

func TestLoginWithOTPDisabledAccount(t *testing.T) {
	patients := newFakePatients()
	p := &domain.Patient{ID: "p1", Phone: "66812345678", Role: domain.RolePatient, Status: domain.StatusDisabled}
	patients.byPhone[p.Phone] = p
	svc, _, _ := newTestService(patients, &fakeVerifier{phone: "66812345678", code: "123456"})

	_, err := svc.LoginWithOTP(context.Background(), "0812345678", "123456")
	if !errors.Is(err, ErrAccountDisabled) {
		t.Fatalf("expected ErrAccountDisabled, got %v", err)
	}
}

func TestLogoutRecordsRevocation(t *testing.T) {
	svc, _, revoker := newTestService(newFakePatients(), &fakeVerifier{})

	exp := time.Now().Add(30 * time.Minute)
	if err := svc.Logout(context.Background(), "sess-1", exp); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	key := security.HashToken("sess-1")
	if got, ok := revoker.revoked[key]; !ok || !got.Equal(exp) {
		t.Fatalf("expected hashed key %s revoked until %v, got %v (ok=%v)", key, exp, got, ok)
	}
	if _, ok := revoker.revoked["sess-1"]; ok {
		t.Fatal("raw session id must not be stored in the deny-list")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	patients := newFakePatients()
	p := &domain.Patient{ID: "p1", Phone: "66812345678", Role: domain.RolePatient, Status: domain.StatusActive, FullName: "Before"}
	patients.byID[p.ID] = p
	svc, _, _ := newTestService(patients, &fakeVerifier{})

	got, err := svc.Profile(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if got.FullName != "Before" {
		t.Fatalf("unexpected profile: %+v", got)
	}

	name := "After"
	dob := time.Date(1990, time.May, 4, 0, 0, 0, 0, time.UTC)
	upd, err := svc.UpdateProfile(context.Background(), "p1", domain.ProfileUpdate{FullName: &name, DateOfBirth: &dob})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if upd.FullName != "After" || upd.DateOfBirth == nil || !upd.DateOfBirth.Equal(dob) {
		t.Fatalf("update not applied: %+v", upd)
	}
}

func TestProfileUnknownSubject(t *testing.T) {
	svc, _, _ := newTestService(newFakePatients(), &fakeVerifier{})

	if _, err := svc.Profile(context.Background(), "nope"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
	name := ""
	if _, err := svc.UpdateProfile(context.Background(), "p1", domain.ProfileUpdate{FullName: &name}); err == nil {
		t.Fatal("expected validation error for empty name")
	}
}
